package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const (
	authScheme = "Basic"

	errMissingAuth = "missing Authorization header"
	errAuthFormat  = "invalid Authorization header format"
	errBadKey      = "not authorized"
)

// authMiddleware accepts "Authorization: Basic <key>" where key is the
// shared secret, checked against its bcrypt hash.
func (h *Handler) authMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		h.unauthorized(c, errMissingAuth)
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != authScheme || parts[1] == "" {
		h.unauthorized(c, errAuthFormat)
		return
	}

	if len(h.authHash) == 0 || bcrypt.CompareHashAndPassword(h.authHash, []byte(parts[1])) != nil {
		h.unauthorized(c, errBadKey)
		return
	}
	c.Next()
}

func (h *Handler) unauthorized(c *gin.Context, reason string) {
	h.log.Warnw("unauthorized_request", "path", c.Request.URL.Path, "remote", c.ClientIP(), "reason", reason)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": reason})
}
