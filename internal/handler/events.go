package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/saif-byte/event-website/internal/middleware"
	"github.com/saif-byte/event-website/internal/model"
	"github.com/saif-byte/event-website/internal/registration"
	"github.com/saif-byte/event-website/internal/store"
)

// EventView is one event in an authenticated listing, annotated with the
// viewer's registration state and the seat pool for their gender.
type EventView struct {
	model.Event
	IsAlreadyRegistered bool  `json:"is_already_registered"`
	PaymentPending      *bool `json:"payment_pending"`
	SeatsRemaining      int64 `json:"seats_remaining"`
	SeatsTotal          int64 `json:"seats_total"`
}

// listPayload is the cached body of an anonymous event listing.
type listPayload struct {
	Events []model.Event `json:"events"`
	Meta   Meta          `json:"meta"`
}

// ListEvents returns a page of events. Authenticated viewers additionally
// get their own registration state and remaining seats for their gender
// bucket. Registrant lists are never included.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	search := r.URL.Query().Get("search")

	viewer := middleware.GetUser(r)
	if viewer == nil {
		h.listEventsPublic(w, r, search, page, pageSize)
		return
	}

	events, err := h.queries.ListEventsForUser(r.Context(), store.ListEventsForUserParams{
		UserID: viewer.ID,
		Search: search,
		Limit:  int64(pageSize),
		Offset: int64((page - 1) * pageSize),
	})
	if err != nil {
		h.logger.Error("event listing failed", "error", err)
		WriteInternalError(w, "Server error")
		return
	}

	total, err := h.queries.CountEvents(r.Context(), search)
	if err != nil {
		h.logger.Error("event count failed", "error", err)
		WriteInternalError(w, "Server error")
		return
	}

	views := make([]EventView, 0, len(events))
	for i := range events {
		e := &events[i]
		remaining, seats := registration.RemainingSeats(&e.EventWithCounts, viewer.Gender)
		view := EventView{
			Event:               e.Event,
			IsAlreadyRegistered: e.Registered,
			SeatsRemaining:      remaining,
			SeatsTotal:          seats,
		}
		if e.Registered && e.PaymentPending.Valid {
			view.PaymentPending = &e.PaymentPending.Bool
		}
		views = append(views, view)
	}

	WriteSuccess(w, views, &Meta{
		Total:   total,
		Page:    page,
		PerPage: pageSize,
		Pages:   pageCount(total, pageSize),
	})
}

// listEventsPublic serves the anonymous listing, backed by the short-TTL
// cache since it carries no viewer-specific fields.
func (h *Handler) listEventsPublic(w http.ResponseWriter, r *http.Request, search string, page, pageSize int) {
	key := fmt.Sprintf("events:%s:%d:%d", search, page, pageSize)

	if h.cache != nil {
		if raw, ok := h.cache.Get(r.Context(), key); ok {
			var payload listPayload
			if err := json.Unmarshal(raw, &payload); err == nil {
				WriteSuccess(w, payload.Events, &payload.Meta)
				return
			}
		}
	}

	events, err := h.queries.ListEvents(r.Context(), store.ListEventsParams{
		Search: search,
		Limit:  int64(pageSize),
		Offset: int64((page - 1) * pageSize),
	})
	if err != nil {
		h.logger.Error("event listing failed", "error", err)
		WriteInternalError(w, "Server error")
		return
	}

	total, err := h.queries.CountEvents(r.Context(), search)
	if err != nil {
		h.logger.Error("event count failed", "error", err)
		WriteInternalError(w, "Server error")
		return
	}

	items := make([]model.Event, 0, len(events))
	for _, e := range events {
		items = append(items, e.Event)
	}

	meta := Meta{
		Total:   total,
		Page:    page,
		PerPage: pageSize,
		Pages:   pageCount(total, pageSize),
	}

	if h.cache != nil {
		if raw, err := json.Marshal(listPayload{Events: items, Meta: meta}); err == nil {
			h.cache.Set(r.Context(), key, raw, 0)
		}
	}

	WriteSuccess(w, items, &meta)
}

// flushListings drops every cached listing after an event or registration
// mutation.
func (h *Handler) flushListings(r *http.Request) {
	if h.cache != nil {
		h.cache.Flush(r.Context())
	}
}

// EventRequest is the POST /api/events body. Pointer fields let PUT
// distinguish an absent field from an explicit zero.
type EventRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Location    *string    `json:"location"`
	MaleSeats   *int64     `json:"male_seats"`
	FemaleSeats *int64     `json:"female_seats"`
	Price       *float64   `json:"price"`
}

// validateEventRequest checks field constraints on whatever fields are
// present. requireAll additionally demands every field, for create.
func validateEventRequest(req *EventRequest, requireAll bool) string {
	if requireAll {
		switch {
		case req.Name == nil, req.Description == nil, req.StartDate == nil,
			req.EndDate == nil, req.Location == nil, req.MaleSeats == nil,
			req.FemaleSeats == nil:
			return "All event fields are required"
		}
	}
	if req.Name != nil && *req.Name == "" {
		return "Event name is required"
	}
	if req.Description != nil && *req.Description == "" {
		return "Description is required"
	}
	if req.Location != nil && *req.Location == "" {
		return "Location is required"
	}
	if req.MaleSeats != nil && *req.MaleSeats < 0 {
		return "Number of male seats must be zero or more"
	}
	if req.FemaleSeats != nil && *req.FemaleSeats < 0 {
		return "Number of female seats must be zero or more"
	}
	if req.Price != nil && *req.Price < 0 {
		return "Price must be zero or more"
	}
	return ""
}

// CreateEvent creates a new event. Admin only.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	if msg := validateEventRequest(&req, true); msg != "" {
		WriteBadRequest(w, msg)
		return
	}

	creator := middleware.GetUser(r)
	if creator == nil {
		WriteUnauthorized(w, "Not authorized")
		return
	}

	price := 0.0
	if req.Price != nil {
		price = *req.Price
	}

	now := time.Now()
	event, err := h.queries.CreateEvent(r.Context(), store.CreateEventParams{
		Name:        *req.Name,
		Description: *req.Description,
		StartDate:   *req.StartDate,
		EndDate:     *req.EndDate,
		Location:    *req.Location,
		MaleSeats:   *req.MaleSeats,
		FemaleSeats: *req.FemaleSeats,
		Price:       price,
		CreatedBy:   creator.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		h.logger.Error("event creation failed", "error", err)
		WriteInternalError(w, "Server error")
		return
	}

	h.flushListings(r)
	h.logger.Info("event created", "category", model.AuditCategoryEvent,
		"event_id", event.ID, "user_id", creator.ID)
	WriteMessage(w, http.StatusCreated, "Event created successfully", event)
}

// UpdateEvent applies a partial event update. Only fields present in the
// body change; an explicit zero is a legal value for seats and price.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := ParseIDParam(r, "eventID")
	if err != nil {
		WriteBadRequest(w, "Invalid event ID format")
		return
	}

	var req EventRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	if msg := validateEventRequest(&req, false); msg != "" {
		WriteBadRequest(w, msg)
		return
	}

	current, err := h.queries.GetEvent(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Event not found")
			return
		}
		h.logger.Error("event lookup failed", "error", err, "event_id", eventID)
		WriteInternalError(w, "Server error")
		return
	}

	params := store.UpdateEventParams{
		ID:          current.ID,
		Name:        current.Name,
		Description: current.Description,
		StartDate:   current.StartDate,
		EndDate:     current.EndDate,
		Location:    current.Location,
		MaleSeats:   current.MaleSeats,
		FemaleSeats: current.FemaleSeats,
		Price:       current.Price,
		UpdatedAt:   time.Now(),
	}
	if req.Name != nil {
		params.Name = *req.Name
	}
	if req.Description != nil {
		params.Description = *req.Description
	}
	if req.StartDate != nil {
		params.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		params.EndDate = *req.EndDate
	}
	if req.Location != nil {
		params.Location = *req.Location
	}
	if req.MaleSeats != nil {
		params.MaleSeats = *req.MaleSeats
	}
	if req.FemaleSeats != nil {
		params.FemaleSeats = *req.FemaleSeats
	}
	if req.Price != nil {
		params.Price = *req.Price
	}

	event, err := h.queries.UpdateEvent(r.Context(), params)
	if err != nil {
		h.logger.Error("event update failed", "error", err, "event_id", eventID)
		WriteInternalError(w, "Server error")
		return
	}

	h.flushListings(r)
	WriteMessage(w, http.StatusOK, "Event updated successfully", event)
}

// DeleteEvent removes an event and its registrations. Admin only.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := ParseIDParam(r, "eventID")
	if err != nil {
		WriteBadRequest(w, "Invalid event ID format")
		return
	}

	deleted, err := h.queries.DeleteEvent(r.Context(), eventID)
	if err != nil {
		h.logger.Error("event deletion failed", "error", err, "event_id", eventID)
		WriteInternalError(w, "Server error")
		return
	}
	if deleted == 0 {
		WriteNotFound(w, "Event not found")
		return
	}

	h.flushListings(r)
	h.logger.Info("event deleted", "category", model.AuditCategoryEvent, "event_id", eventID)
	WriteMessage(w, http.StatusOK, "Event deleted successfully", nil)
}

// RegisterForEvent registers the authenticated user for an event.
func (h *Handler) RegisterForEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := ParseIDParam(r, "eventID")
	if err != nil {
		WriteBadRequest(w, "Invalid event ID format")
		return
	}

	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authorized")
		return
	}

	event, reg, err := h.engine.Register(r.Context(), eventID, *user)
	if err != nil {
		h.writeEngineError(w, err, eventID, user.ID)
		return
	}

	h.flushListings(r)
	h.logger.Info("user registered for event", "category", model.AuditCategoryRegistration,
		"event_id", eventID, "user_id", user.ID, "payment_pending", reg.PaymentPending)

	message := "Successfully registered for the event"
	if reg.PaymentPending {
		message = "Your Registration will be confirmed after the payment"
	}
	WriteMessage(w, http.StatusOK, message, event)
}

// UnregisterFromEvent removes the authenticated user's registration.
func (h *Handler) UnregisterFromEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := ParseIDParam(r, "eventID")
	if err != nil {
		WriteBadRequest(w, "Invalid event ID format")
		return
	}

	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authorized")
		return
	}

	event, err := h.engine.Unregister(r.Context(), eventID, user.ID)
	if err != nil {
		h.writeEngineError(w, err, eventID, user.ID)
		return
	}

	h.flushListings(r)
	h.logger.Info("user unregistered from event", "category", model.AuditCategoryRegistration,
		"event_id", eventID, "user_id", user.ID)
	WriteMessage(w, http.StatusOK, "Successfully unregistered for the event", event)
}

// RegistrantView is one registration in the admin registrant listing.
type RegistrantView struct {
	UserID          int64     `json:"user_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Gender          string    `json:"gender"`
	InstagramHandle string    `json:"instagram_handle,omitempty"`
	PaymentPending  bool      `json:"payment_pending"`
	RegisteredAt    time.Time `json:"registered_at"`
}

// RegisteredUsers returns the registrations for an event joined with user
// detail. Admin only. Password hashes are never selected.
func (h *Handler) RegisteredUsers(w http.ResponseWriter, r *http.Request) {
	eventID, err := ParseIDParam(r, "eventID")
	if err != nil {
		WriteBadRequest(w, "Invalid event ID format")
		return
	}

	if _, err := h.queries.GetEvent(r.Context(), eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Event not found")
			return
		}
		h.logger.Error("event lookup failed", "error", err, "event_id", eventID)
		WriteInternalError(w, "Server error")
		return
	}

	regs, err := h.queries.ListRegistrationsWithUsers(r.Context(), eventID)
	if err != nil {
		h.logger.Error("registrant listing failed", "error", err, "event_id", eventID)
		WriteInternalError(w, "Server error")
		return
	}

	views := make([]RegistrantView, 0, len(regs))
	for _, reg := range regs {
		views = append(views, RegistrantView{
			UserID:          reg.UserID,
			Name:            reg.UserName,
			Email:           reg.UserEmail,
			Gender:          reg.UserGender,
			InstagramHandle: reg.InstagramHandle.String,
			PaymentPending:  reg.PaymentPending,
			RegisteredAt:    reg.CreatedAt,
		})
	}

	WriteSuccess(w, views, nil)
}

// MarkPaymentRequest is the POST /api/events/mark-payment body.
type MarkPaymentRequest struct {
	EventID int64 `json:"event_id"`
	UserID  int64 `json:"user_id"`
}

// MarkPayment clears the payment-pending flag on one registration. Admin
// only; idempotent.
func (h *Handler) MarkPayment(w http.ResponseWriter, r *http.Request) {
	var req MarkPaymentRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.EventID == 0 || req.UserID == 0 {
		WriteBadRequest(w, "event_id and user_id are required")
		return
	}

	already, err := h.engine.MarkPaymentComplete(r.Context(), req.EventID, req.UserID)
	if err != nil {
		h.writeEngineError(w, err, req.EventID, req.UserID)
		return
	}

	h.flushListings(r)

	if already {
		WriteMessage(w, http.StatusOK, "Payment was already completed.", nil)
		return
	}
	h.logger.Info("payment marked complete", "category", model.AuditCategoryRegistration,
		"event_id", req.EventID, "user_id", req.UserID)
	WriteMessage(w, http.StatusOK, "Payment marked as complete.", nil)
}

// writeEngineError maps registration engine failures to HTTP responses.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error, eventID, userID int64) {
	switch {
	case errors.Is(err, registration.ErrEventNotFound):
		WriteNotFound(w, "Event not found")
	case errors.Is(err, registration.ErrRegistrationClosed):
		WriteBadRequest(w, "Event registration closed. The event has already ended.")
	case errors.Is(err, registration.ErrAlreadyRegistered):
		WriteBadRequest(w, "User already registered for this event")
	case errors.Is(err, registration.ErrSeatsUnavailable):
		WriteBadRequest(w, "No more seats available")
	case errors.Is(err, registration.ErrNotRegistered):
		WriteBadRequest(w, "You are not registered for this event")
	case errors.Is(err, registration.ErrRegistrationMissing):
		WriteNotFound(w, "User not registered for this event")
	default:
		h.logger.Error("registration engine failure", "error", err,
			"event_id", eventID, "user_id", userID)
		WriteInternalError(w, "Server error")
	}
}
