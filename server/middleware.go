package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"AriaVault/core/identity"
	"AriaVault/logger"
	"AriaVault/model"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const identityContextKey contextKey = "identity"

// AuthMiddleware verifies the bearer token and resolves the caller's
// Identity into the request context. Everything below this boundary trusts
// the Identity value and never re-reads raw headers.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondClientError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondClientError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := h.parseClaims(parts[1])
		if err != nil {
			logger.Debug("Token verification failed",
				logger.String("path", r.URL.Path),
				logger.ErrorField(err),
			)
			respondClientError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ident, err := h.ids.Resolve(claims)
		if err != nil {
			// identity.ErrNoSubject: reject as unauthenticated, nothing to retry
			respondClientError(w, http.StatusUnauthorized, "Unauthenticated")
			return
		}

		ctx := ContextWithIdentity(r.Context(), ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// parseClaims validates the token signature and extracts the subject and
// group claims.
func (h *APIHandler) parseClaims(tokenStr string) (identity.Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil {
		return identity.Claims{}, err
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return identity.Claims{}, fmt.Errorf("unexpected claims type")
	}

	subject, _ := mapClaims.GetSubject()

	var groups []string
	if raw, ok := mapClaims["groups"].([]interface{}); ok {
		for _, g := range raw {
			if s, ok := g.(string); ok {
				groups = append(groups, s)
			}
		}
	}

	return identity.Claims{Subject: subject, Groups: groups}, nil
}

// ContextWithIdentity stores a resolved Identity in a context.
func ContextWithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext extracts the resolved Identity from the request context.
func IdentityFromContext(ctx context.Context) (model.Identity, error) {
	id, ok := ctx.Value(identityContextKey).(model.Identity)
	if !ok {
		return model.Identity{}, fmt.Errorf("identity not found in context")
	}
	return id, nil
}
