// Package middleware provides HTTP middleware for authentication,
// authorization and rate limiting.
package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/saif-byte/event-website/internal/auth"
	"github.com/saif-byte/event-website/internal/model"
	"github.com/saif-byte/event-website/internal/store"
)

// ContextKey is the type used for request context keys.
type ContextKey string

// ContextKeyUser is the context key for the authenticated user.
const ContextKeyUser ContextKey = "user"

// APIError is the JSON error envelope for the whole API. The handler
// package writes the same shape through WriteAPIError, so the wire format
// has exactly one definition.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIError{Code: code, Message: message})
}

// bearerToken extracts the token from the Authorization header, or ""
// when the header is missing or malformed.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// resolveCaller verifies the bearer token and loads the user it was issued
// for. The role is always read from the database record, never from the
// token, so a stale token cannot carry a revoked role.
func resolveCaller(r *http.Request, tokens *auth.TokenManager, queries *store.Queries) (model.User, error) {
	token := bearerToken(r)
	if token == "" {
		return model.User{}, auth.ErrInvalidToken
	}

	userID, err := tokens.Verify(token)
	if err != nil {
		return model.User{}, err
	}

	user, err := queries.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, auth.ErrInvalidToken
		}
		return model.User{}, err
	}
	return user, nil
}

// RequireAuth creates middleware that rejects requests without a valid
// bearer token and puts the authenticated user into the request context.
func RequireAuth(tokens *auth.TokenManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveCaller(r, tokens, queries)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Not authorized, token missing or invalid")
					return
				}
				slog.Error("failed to resolve caller", "error", err)
				WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to authenticate request")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth creates middleware that resolves a bearer token when one is
// present but lets the request through as a guest otherwise. Invalid
// tokens degrade to guest access rather than failing the request.
func OptionalAuth(tokens *auth.TokenManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveCaller(r, tokens, queries)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin creates middleware that rejects callers whose role is not
// ADMIN. Must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r)
		if user == nil {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Not authorized")
			return
		}
		if !user.IsAdmin() {
			WriteAPIError(w, http.StatusForbidden, "forbidden", "Access denied. Admins only.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUser retrieves the authenticated user from the request context.
// Returns nil for guest requests.
func GetUser(r *http.Request) *model.User {
	user, ok := r.Context().Value(ContextKeyUser).(model.User)
	if !ok {
		return nil
	}
	return &user
}
