package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"grledger/internal/auth"
	"grledger/internal/forms"
	"grledger/internal/insight"
	"grledger/internal/ledger"
	"grledger/internal/payment"
)

func TestJSONResponseBuilder(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		Body(map[string]string{"id": "abc"}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("X-Custom"); got != "value" {
		t.Errorf("X-Custom = %q", got)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["id"] != "abc" {
		t.Errorf("body = %v", body)
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("got %d with %d body bytes", w.Code, w.Body.Len())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"bad request", fmt.Errorf("%w: x", errBadRequest), http.StatusBadRequest},
		{"invalid record", fmt.Errorf("%w: empty", ledger.ErrInvalid), http.StatusBadRequest},
		{"form validation", &forms.ValidationError{Field: "amount", Err: errors.New("bad")}, http.StatusBadRequest},
		{"last item", forms.ErrLastItem, http.StatusBadRequest},
		{"credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"protected", ledger.ErrProtectedRecord, http.StatusForbidden},
		{"not found", ledger.ErrNotFound, http.StatusNotFound},
		{"duplicate category", ledger.ErrDuplicateCategory, http.StatusConflict},
		{"duplicate username", ledger.ErrDuplicateUsername, http.StatusConflict},
		{"insight busy", insight.ErrBusy, http.StatusConflict},
		{"nothing to pay", payment.ErrNothingToPay, http.StatusConflict},
		{"confirmation", ledger.ErrConfirmationRequired, http.StatusPreconditionRequired},
		{"payments disabled", payment.ErrDisabled, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"localized message", ledger.ErrDuplicateCategory, http.StatusConflict, "Kategori sudah ada!"},
		{"plain error text", ledger.ErrConfirmationRequired, http.StatusPreconditionRequired, "confirmation required"},
		{"internal error is hidden", errors.New("disk on fire"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, httptest.NewRequest("GET", "/api/x", nil), tt.err)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			var body ErrorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body.Error != tt.wantMsg {
				t.Errorf("error = %q, want %q", body.Error, tt.wantMsg)
			}
		})
	}
}
