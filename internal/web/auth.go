package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/runnerr0/readlater/internal/logger"
	"github.com/runnerr0/readlater/internal/source"
)

var (
	errMissingToken = errors.New("missing session token")
	errInvalidToken = errors.New("invalid session token")
	errNoSubject    = errors.New("session token has no subject")
)

// Auth checks an already-issued HMAC session token, taken from the
// Authorization bearer header or the session cookie, and puts its subject
// on the request context as the source owner.
type Auth struct {
	secret     []byte
	cookieName string
	now        func() time.Time
}

// NewAuth returns nil when secret is empty, which disables the check.
func NewAuth(secret, cookieName string, now func() time.Time) *Auth {
	if secret == "" {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	return &Auth{secret: []byte(secret), cookieName: cookieName, now: now}
}

// Require rejects requests without a valid token with 401.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := a.validate(r)
		if err != nil {
			logger.C(r.Context()).Debug().Err(err).Msg("auth rejected")
			w.Header().Set("WWW-Authenticate", `Bearer realm="readlater"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(source.WithOwner(r.Context(), subject)))
	})
}

func (a *Auth) token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if a.cookieName != "" {
		if c, err := r.Cookie(a.cookieName); err == nil {
			return c.Value
		}
	}
	return ""
}

func (a *Auth) validate(r *http.Request) (string, error) {
	tokenStr := a.token(r)
	if tokenStr == "" {
		return "", errMissingToken
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if !parsed.Valid {
		return "", errInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errNoSubject
	}
	return claims.Subject, nil
}
