package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"

	appErrors "github.com/noah-isme/account-api/pkg/errors"
	"github.com/noah-isme/account-api/pkg/i18n"
)

// ProblemContentType is the media type of error bodies.
const ProblemContentType = "application/problem+json"

// TranslatorKey is the gin context key holding the request's ut.Translator.
const TranslatorKey = "translator"

// ProblemCodeKey is the gin context key under which Error stores the
// problem code it rendered.
const ProblemCodeKey = "problem_code"

// Problem is an RFC 7807 problem document.
type Problem struct {
	Type   string              `json:"type"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Code   string              `json:"code"`
	Detail string              `json:"detail,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// JSON sends a success response.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, data)
}

// Created responds with HTTP 201 Created and no body.
func Created(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusCreated)
}

// Error sends a problem document converting the error to the common structure.
// Internal errors never expose the wrapped cause.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	trans := translator(c)

	problem := Problem{
		Type:   problemType(appErr.Status),
		Title:  i18n.Message(trans, appErr.MessageKey, appErr.Message),
		Status: appErr.Status,
		Code:   appErr.Code,
	}
	if appErr.Status == http.StatusBadRequest {
		if fields := i18n.Fields(trans, appErr); len(fields) > 0 {
			problem.Errors = fields
		}
	}

	c.Set(ProblemCodeKey, appErr.Code)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.Render(appErr.Status, problemRender{problem: problem})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func translator(c *gin.Context) ut.Translator {
	value, ok := c.Get(TranslatorKey)
	if !ok {
		return nil
	}
	trans, _ := value.(ut.Translator)
	return trans
}

func problemType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "https://tools.ietf.org/html/rfc9110#section-15.5.1"
	case http.StatusUnauthorized:
		return "https://tools.ietf.org/html/rfc9110#section-15.5.2"
	case http.StatusForbidden:
		return "https://tools.ietf.org/html/rfc9110#section-15.5.4"
	case http.StatusNotFound:
		return "https://tools.ietf.org/html/rfc9110#section-15.5.5"
	case http.StatusConflict:
		return "https://tools.ietf.org/html/rfc9110#section-15.5.10"
	case http.StatusServiceUnavailable:
		return "https://tools.ietf.org/html/rfc9110#section-15.6.4"
	default:
		return "https://tools.ietf.org/html/rfc9110#section-15.6.1"
	}
}
