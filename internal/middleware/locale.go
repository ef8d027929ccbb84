package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/account-api/pkg/i18n"
	"github.com/noah-isme/account-api/pkg/response"
)

// Locale stores the translator matching Accept-Language for the response layer.
func Locale(catalog *i18n.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		if catalog != nil {
			c.Set(response.TranslatorKey, catalog.Translator(c.GetHeader("Accept-Language")))
		}
		c.Next()
	}
}
