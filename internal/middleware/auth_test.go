package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/saif-byte/event-website/internal/auth"
	"github.com/saif-byte/event-website/internal/model"
	"github.com/saif-byte/event-website/internal/store"
	"github.com/saif-byte/event-website/internal/testutil"
)

func setupAuthTest(t *testing.T) (*sql.DB, *auth.TokenManager) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	return db, auth.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
}

func insertUser(t *testing.T, db *sql.DB, email, role string) model.User {
	t.Helper()
	now := time.Now()
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "x",
		Gender:       model.GenderMale,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return user
}

// echoUser responds 200 with the context user's email, or "guest".
func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := GetUser(r); user != nil {
			_, _ = w.Write([]byte(user.Email))
			return
		}
		_, _ = w.Write([]byte("guest"))
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing", "", ""},
		{"no scheme", "abc123", ""},
		{"wrong scheme", "Basic abc123", ""},
		{"bearer", "Bearer abc123", "abc123"},
		{"case insensitive scheme", "bearer abc123", "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := bearerToken(r); got != tt.want {
				t.Errorf("bearerToken = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	db, tokens := setupAuthTest(t)
	user := insertUser(t, db, "alice@example.com", model.RoleUser)

	token, err := tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}

	handler := RequireAuth(tokens, db)(echoUser())

	t.Run("valid token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if w.Body.String() != "alice@example.com" {
			t.Errorf("body = %q, want the user email", w.Body.String())
		}
	})

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
		var resp APIError
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshaling: %v", err)
		}
		if resp.Message != "Not authorized, token missing or invalid" {
			t.Errorf("message = %q", resp.Message)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer not.a.token")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("token for deleted user", func(t *testing.T) {
		ghost, err := tokens.Issue(user.ID + 1000)
		if err != nil {
			t.Fatalf("issuing token: %v", err)
		}
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+ghost)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})
}

func TestRequireAuthReadsRoleFromDB(t *testing.T) {
	db, tokens := setupAuthTest(t)
	user := insertUser(t, db, "admin@example.com", model.RoleAdmin)

	token, err := tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}

	// Demote the user after the token was issued. The old token must not
	// retain admin access.
	if _, err := db.Exec(`UPDATE users SET role = ? WHERE id = ?`, model.RoleUser, user.ID); err != nil {
		t.Fatalf("demoting user: %v", err)
	}

	handler := RequireAuth(tokens, db)(RequireAdmin(echoUser()))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 after demotion", w.Code)
	}
}

func TestOptionalAuth(t *testing.T) {
	db, tokens := setupAuthTest(t)
	user := insertUser(t, db, "bob@example.com", model.RoleUser)

	handler := OptionalAuth(tokens, db)(echoUser())

	t.Run("no token is guest", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Code != http.StatusOK || w.Body.String() != "guest" {
			t.Errorf("status = %d body = %q, want guest pass-through", w.Code, w.Body.String())
		}
	})

	t.Run("invalid token degrades to guest", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer bogus")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusOK || w.Body.String() != "guest" {
			t.Errorf("status = %d body = %q, want guest pass-through", w.Code, w.Body.String())
		}
	})

	t.Run("valid token resolves user", func(t *testing.T) {
		token, err := tokens.Issue(user.ID)
		if err != nil {
			t.Fatalf("issuing token: %v", err)
		}
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Body.String() != "bob@example.com" {
			t.Errorf("body = %q, want the user email", w.Body.String())
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(echoUser())

	t.Run("no user", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("plain user", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(context.WithValue(r.Context(), ContextKeyUser, model.User{Role: model.RoleUser}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", w.Code)
		}
		var resp APIError
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshaling: %v", err)
		}
		if resp.Message != "Access denied. Admins only." {
			t.Errorf("message = %q", resp.Message)
		}
	})

	t.Run("admin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(context.WithValue(r.Context(), ContextKeyUser, model.User{Email: "a@b.com", Role: model.RoleAdmin}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}
