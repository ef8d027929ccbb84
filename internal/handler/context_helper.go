package handler

import (
	"net"
	"net/netip"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/account-api/internal/middleware"
	"github.com/noah-isme/account-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.ClaimsFromContext(c)
}

// clientAddress is the best-effort caller address recorded for audit.
// X-Forwarded-For is taken verbatim; it is never trusted for access decisions.
func clientAddress(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}

	host := c.Request.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return host
	}
	return addr.Unmap().String()
}
