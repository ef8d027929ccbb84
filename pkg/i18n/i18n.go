// Package i18n resolves user-facing message keys for the caller's locale.
package i18n

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/id"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	idTranslations "github.com/go-playground/validator/v10/translations/id"

	appErrors "github.com/noah-isme/account-api/pkg/errors"
)

// Catalog holds the translations for every supported locale.
type Catalog struct {
	uni      *ut.UniversalTranslator
	fallback string
}

// New builds a catalog for the supported locales and registers the
// validator's translations so binding errors come back localized.
func New(defaultLocale string, validate *validator.Validate) (*Catalog, error) {
	english := en.New()
	indonesian := id.New()

	fallback := locales.Translator(english)
	if strings.EqualFold(defaultLocale, indonesian.Locale()) {
		fallback = indonesian
	}

	uni := ut.New(fallback, english, indonesian)
	catalog := &Catalog{uni: uni, fallback: fallback.Locale()}

	for locale, entries := range messages {
		trans, ok := uni.GetTranslator(locale)
		if !ok {
			return nil, fmt.Errorf("locale %s not registered", locale)
		}
		for key, text := range entries {
			if err := trans.Add(key, text, true); err != nil {
				return nil, fmt.Errorf("add %s/%s: %w", locale, key, err)
			}
		}
	}

	if validate != nil {
		enTrans, _ := uni.GetTranslator(english.Locale())
		if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
			return nil, fmt.Errorf("register en validator translations: %w", err)
		}
		idTrans, _ := uni.GetTranslator(indonesian.Locale())
		if err := idTranslations.RegisterDefaultTranslations(validate, idTrans); err != nil {
			return nil, fmt.Errorf("register id validator translations: %w", err)
		}
	}

	return catalog, nil
}

// Translator picks the best translator for an Accept-Language header value.
func (c *Catalog) Translator(acceptLanguage string) ut.Translator {
	if trans, found := c.uni.FindTranslator(parseAcceptLanguage(acceptLanguage)...); found {
		return trans
	}
	trans, _ := c.uni.GetTranslator(c.fallback)
	return trans
}

// Message resolves key for trans, returning fallback when the key is unknown.
func Message(trans ut.Translator, key, fallback string, params ...string) string {
	if trans == nil || key == "" {
		return fallback
	}
	text, err := trans.T(key, params...)
	if err != nil || text == "" {
		return fallback
	}
	return text
}

// Fields converts a problem's field failures into the response shape,
// preserving every failure per field.
func Fields(trans ut.Translator, err *appErrors.Error) map[string][]string {
	out := make(map[string][]string)
	if err == nil {
		return out
	}

	var verrs validator.ValidationErrors
	if errors.As(err.Err, &verrs) {
		for _, fe := range verrs {
			msg := fe.Error()
			if trans != nil {
				msg = fe.Translate(trans)
			}
			out[fe.Field()] = append(out[fe.Field()], msg)
		}
	}

	for _, fe := range err.Fields {
		out[fe.Field] = append(out[fe.Field], Message(trans, fe.Key, fe.Message, fe.Params...))
	}

	return out
}

// parseAcceptLanguage returns language tags in header order, dropping
// quality values. "id-ID;q=0.9" yields both "id_ID" and "id".
func parseAcceptLanguage(header string) []string {
	if header == "" {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag == "" || tag == "*" {
			continue
		}
		tag = strings.ReplaceAll(tag, "-", "_")
		tags = append(tags, tag)
		if base, _, ok := strings.Cut(tag, "_"); ok {
			tags = append(tags, strings.ToLower(base))
		}
	}
	return tags
}
