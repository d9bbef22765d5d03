package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/exp/slices"
)

var (
	ErrNoToken      = errors.New("no bearer token provided")
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("missing permission")
)

// Claims are what admin consoles and displays present. Permissions are plain
// strings such as patients:read and are checked by exact match.
type Claims struct {
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

func (c *Claims) Has(permission string) bool {
	return slices.Contains(c.Permissions, permission)
}

type ctxKey struct{}

func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok
}

type Authenticator struct {
	secret []byte
}

// New returns an authenticator for HS256 tokens signed with secret. An empty
// secret turns checks off entirely, which is only meant for local development.
func New(secret string) *Authenticator {
	if secret == "" {
		slog.Warn("No JWT secret configured. API permission checks are disabled!")
	}
	return &Authenticator{secret: []byte(secret)}
}

func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

func (a *Authenticator) Issue(subject string, permissions []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	// a zero ttl is a token that never expires, which is what kiosks get
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func bearer(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrNoToken
	}
	return strings.TrimSpace(token), nil
}

// Require wraps next so that it only runs for callers holding permission
func (a *Authenticator) Require(permission string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next(w, r)
			return
		}
		token, err := bearer(r)
		if err != nil {
			deny(w, http.StatusUnauthorized, err)
			return
		}
		claims, err := a.Parse(token)
		if err != nil {
			slog.Debug("Rejected token", slog.Any("error", err))
			deny(w, http.StatusUnauthorized, ErrInvalidToken)
			return
		}
		if !claims.Has(permission) {
			slog.Info("Denied request",
				slog.String("subject", claims.Subject),
				slog.String("permission", permission),
				slog.String("path", r.URL.Path))
			deny(w, http.StatusForbidden, fmt.Errorf("%w: %s", ErrForbidden, permission))
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims)))
	}
}

func deny(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
