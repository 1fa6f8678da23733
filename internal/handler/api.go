// Package handler provides the JSON API handlers for the event RSVP
// service.
package handler

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/saif-byte/event-website/internal/auth"
	"github.com/saif-byte/event-website/internal/cache"
	"github.com/saif-byte/event-website/internal/middleware"
	"github.com/saif-byte/event-website/internal/registration"
	"github.com/saif-byte/event-website/internal/store"
	"github.com/saif-byte/event-website/internal/version"
)

// Pagination bounds for event listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db      *sql.DB
	queries *store.Queries
	engine  *registration.Engine
	tokens  *auth.TokenManager
	cache   cache.Cache
	logger  *slog.Logger
	version version.Info
}

// NewHandler creates a new API handler.
func NewHandler(db *sql.DB, engine *registration.Engine, tokens *auth.TokenManager, listCache cache.Cache, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:      db,
		queries: store.New(db),
		engine:  engine,
		tokens:  tokens,
		cache:   listCache,
		logger:  logger,
		version: version.Info{Version: "dev"},
	}
}

// SetVersion sets the build version reported by the status endpoint.
func (h *Handler) SetVersion(info version.Info) {
	h.version = info
}

// Response is the standard API response wrapper.
type Response struct {
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

// ErrorResponse is the standard API error response. It is the middleware
// package's envelope so the error wire format has a single definition.
type ErrorResponse = middleware.APIError

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteMessage writes a JSON response carrying a human-readable message.
func WriteMessage(w http.ResponseWriter, statusCode int, message string, data any) {
	WriteJSON(w, statusCode, Response{Message: message, Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	middleware.WriteAPIError(w, statusCode, code, message)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message)
}

// ParseIDParam extracts and validates a numeric URL parameter.
func ParseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// DecodeJSON decodes a request body into dst. Unknown fields are ignored.
func DecodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// ValidEmail reports whether s parses as a bare RFC 5322 address.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// parsePagination reads page/page_size query parameters with defaults and
// an upper bound on page size.
func parsePagination(r *http.Request) (page, pageSize int) {
	page = 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}

	pageSize = DefaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 {
		pageSize = v
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// pageCount computes the number of pages for a total at the given size.
func pageCount(total int64, pageSize int) int {
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if pages < 1 {
		pages = 1
	}
	return pages
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Status returns the API status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, StatusResponse{Status: "ok", Version: h.version.Version}, nil)
}

// normalizeEmail lowercases and trims an email address for storage and
// lookup.
func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
