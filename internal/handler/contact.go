package handler

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/saif-byte/event-website/internal/model"
	"github.com/saif-byte/event-website/internal/store"
)

// phonePattern accepts common phone formats like (555) 123-4567.
var phonePattern = regexp.MustCompile(`^[+]?[(]?[0-9]{3}[)]?[-\s.]?[0-9]{3}[-\s.]?[0-9]{4,6}$`)

// messagePolicy strips all HTML from contact message bodies before storage.
var messagePolicy = bluemonday.StrictPolicy()

// ContactRequest is the POST /api/contact body.
type ContactRequest struct {
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Message  string `json:"message"`
}

// SubmitContact stores a contact-form submission for the admin inbox.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Message = strings.TrimSpace(messagePolicy.Sanitize(req.Message))

	if req.Name == "" {
		WriteBadRequest(w, "Name is required")
		return
	}
	if req.LastName == "" {
		WriteBadRequest(w, "Last name is required")
		return
	}
	if !phonePattern.MatchString(req.Phone) {
		WriteBadRequest(w, "Please enter a valid phone number")
		return
	}
	if !ValidEmail(req.Email) {
		WriteBadRequest(w, "Please include a valid email")
		return
	}
	if req.Message == "" {
		WriteBadRequest(w, "Message is required")
		return
	}

	contact, err := h.queries.CreateContact(r.Context(), store.CreateContactParams{
		Name:      req.Name,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     normalizeEmail(req.Email),
		Message:   req.Message,
		CreatedAt: time.Now(),
	})
	if err != nil {
		h.logger.Error("contact creation failed", "error", err)
		WriteInternalError(w, "Server error")
		return
	}

	h.logger.Info("contact form submitted", "category", model.AuditCategoryContact,
		"contact_id", contact.ID)
	WriteMessage(w, http.StatusCreated, "Your message has been submitted successfully", contact)
}

// ListContacts returns the contact inbox, newest first. Admin only.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.queries.ListContacts(r.Context())
	if err != nil {
		h.logger.Error("contact listing failed", "error", err)
		WriteInternalError(w, "Server error")
		return
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	WriteSuccess(w, contacts, nil)
}

// MarkContactSeen flags one inbox entry as seen. Admin only.
func (h *Handler) MarkContactSeen(w http.ResponseWriter, r *http.Request) {
	contactID, err := ParseIDParam(r, "contactID")
	if err != nil {
		WriteBadRequest(w, "Invalid contact ID format")
		return
	}

	updated, err := h.queries.MarkContactSeen(r.Context(), contactID)
	if err != nil {
		h.logger.Error("contact update failed", "error", err, "contact_id", contactID)
		WriteInternalError(w, "Server error")
		return
	}
	if updated == 0 {
		WriteNotFound(w, "Contact not found")
		return
	}

	WriteMessage(w, http.StatusOK, "Contact marked as seen", nil)
}
