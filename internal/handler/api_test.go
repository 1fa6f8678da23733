package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/saif-byte/event-website/internal/middleware"
)

func TestWriteErrorSharedEnvelope(t *testing.T) {
	fromHandler := httptest.NewRecorder()
	WriteError(fromHandler, http.StatusBadRequest, "bad_request", "nope")

	fromMiddleware := httptest.NewRecorder()
	middleware.WriteAPIError(fromMiddleware, http.StatusBadRequest, "bad_request", "nope")

	if fromHandler.Body.String() != fromMiddleware.Body.String() {
		t.Errorf("handler and middleware error bodies differ:\n%q\n%q",
			fromHandler.Body.String(), fromMiddleware.Body.String())
	}
	if got := fromHandler.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}

	resp := unmarshalError(t, fromHandler)
	if resp.Code != "bad_request" || resp.Message != "nope" {
		t.Errorf("decoded envelope = %+v", resp)
	}
}
