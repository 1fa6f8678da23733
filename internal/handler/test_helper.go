package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saif-byte/event-website/internal/auth"
	"github.com/saif-byte/event-website/internal/cache"
	"github.com/saif-byte/event-website/internal/middleware"
	"github.com/saif-byte/event-website/internal/model"
	"github.com/saif-byte/event-website/internal/registration"
	"github.com/saif-byte/event-website/internal/store"
	"github.com/saif-byte/event-website/internal/testutil"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

// testSetup creates a migrated test database and a wired API handler.
func testSetup(t *testing.T) (*sql.DB, *Handler) {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	listCache := cache.NewMemory(time.Second)
	t.Cleanup(listCache.Close)

	tokens := auth.NewTokenManager(testJWTSecret, time.Hour)
	engine := registration.New(db, nil)

	return db, NewHandler(db, engine, tokens, listCache, testutil.TestLogger())
}

// createTestUser inserts a user with the given role and returns it.
func createTestUser(t *testing.T, db *sql.DB, email, gender, role string) model.User {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	now := time.Now()
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
		Gender:       gender,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return user
}

// createTestEvent inserts an event open for registration.
func createTestEvent(t *testing.T, db *sql.DB, maleSeats, femaleSeats int64, price float64) model.Event {
	t.Helper()

	now := time.Now()
	event, err := store.New(db).CreateEvent(context.Background(), store.CreateEventParams{
		Name:        "Test Event",
		Description: "A test event",
		StartDate:   now.Add(24 * time.Hour),
		EndDate:     now.Add(48 * time.Hour),
		Location:    "Test Hall",
		MaleSeats:   maleSeats,
		FemaleSeats: femaleSeats,
		Price:       price,
		CreatedBy:   1,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("creating test event: %v", err)
	}
	return event
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withUser puts an authenticated user into the request context, as the
// auth middleware would.
func withUser(r *http.Request, user model.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyUser, user))
}

// newJSONRequest creates an HTTP request with a JSON body and optional URL
// params.
func newJSONRequest(t *testing.T, method, path, body string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// executeHandler executes a handler and returns the response recorder.
func executeHandler(t *testing.T, handler func(http.ResponseWriter, *http.Request), req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

// envelope mirrors Response with a concrete data type for unmarshaling.
type envelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
	Meta    *Meta  `json:"meta"`
}

// unmarshalEnvelope decodes a response body into an envelope.
func unmarshalEnvelope[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var resp envelope[T]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshaling response %q: %v", w.Body.String(), err)
	}
	return resp
}

// unmarshalError decodes an error response body.
func unmarshalError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshaling error response %q: %v", w.Body.String(), err)
	}
	return resp
}
