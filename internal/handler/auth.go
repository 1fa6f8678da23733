package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/saif-byte/event-website/internal/auth"
	"github.com/saif-byte/event-website/internal/model"
	"github.com/saif-byte/event-website/internal/store"
)

// SignupRequest is the POST /api/auth/signup body.
type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	Gender          string `json:"gender"`
	InstagramHandle string `json:"instagram_handle"`
}

// AuthResponse carries a bearer token and the account it belongs to.
type AuthResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Signup creates a new USER account and returns a bearer token.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.Name == "" {
		WriteBadRequest(w, "Name is required")
		return
	}
	if !ValidEmail(req.Email) {
		WriteBadRequest(w, "Please include a valid email")
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		WriteBadRequest(w, "Password must be at least 6 characters")
		return
	}
	if !model.ValidGender(req.Gender) {
		WriteBadRequest(w, "Gender is required")
		return
	}

	email := normalizeEmail(req.Email)

	if _, err := h.queries.GetUserByEmail(r.Context(), email); err == nil {
		WriteBadRequest(w, "User already exists")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		h.logger.Error("signup email lookup failed", "error", err)
		WriteInternalError(w, "Server error")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hashing failed", "error", err)
		WriteInternalError(w, "Server error")
		return
	}

	now := time.Now()
	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Name:            req.Name,
		Email:           email,
		PasswordHash:    hash,
		InstagramHandle: sql.NullString{String: req.InstagramHandle, Valid: req.InstagramHandle != ""},
		Gender:          req.Gender,
		Role:            model.RoleUser,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		// Lost a race with a concurrent signup for the same address.
		if store.IsUniqueViolation(err) {
			WriteBadRequest(w, "User already exists")
			return
		}
		h.logger.Error("user creation failed", "error", err)
		WriteInternalError(w, "Server error")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Server error")
		return
	}

	h.logger.Info("user signed up", "user_id", user.ID)
	WriteJSON(w, http.StatusCreated, Response{Data: AuthResponse{Token: token, User: user}})
}

// LoginRequest is the POST /api/auth/login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and returns a bearer token. Unknown email and
// wrong password produce the same response so the endpoint does not leak
// which accounts exist.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	if !ValidEmail(req.Email) {
		WriteBadRequest(w, "Please include a valid email")
		return
	}
	if req.Password == "" {
		WriteBadRequest(w, "Password is required")
		return
	}

	user, err := h.queries.GetUserByEmail(r.Context(), normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteUnauthorized(w, "Invalid credentials")
			return
		}
		h.logger.Error("login email lookup failed", "error", err)
		WriteInternalError(w, "Server error")
		return
	}

	ok, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil {
		h.logger.Error("password check failed", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Server error")
		return
	}
	if !ok {
		h.logger.Warn("login failed", "user_id", user.ID)
		WriteUnauthorized(w, "Invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Server error")
		return
	}

	WriteSuccess(w, AuthResponse{Token: token, User: user}, nil)
}
