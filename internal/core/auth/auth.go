// Package auth implements bearer-token authentication for the HTTP API.
//
// A single static token configured through the environment; comparison is
// constant-time so timing does not leak prefix matches. An empty token
// disables authentication, intended only for loopback development setups.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Authenticator validates the Authorization header on incoming requests.
type Authenticator struct {
	token string
}

// NewAuthenticator creates an authenticator for the given static token.
// An empty token means every request passes.
func NewAuthenticator(token string) *Authenticator {
	return &Authenticator{token: token}
}

// Enabled reports whether a token is configured.
func (a *Authenticator) Enabled() bool {
	return a.token != ""
}

// Authenticate checks one Authorization header value.
func (a *Authenticator) Authenticate(header string) error {
	if !a.Enabled() {
		return nil
	}
	if header == "" {
		return ErrMissingToken
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return ErrMalformedToken
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
		return ErrInvalidToken
	}
	return nil
}

// Middleware returns a gin handler that rejects unauthenticated requests
// with 401 and a JSON error body.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := a.Authenticate(c.GetHeader("Authorization")); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}
