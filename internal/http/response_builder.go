// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for JSON responses and the
// mapping from domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"grledger/internal/auth"
	"grledger/internal/forms"
	"grledger/internal/insight"
	"grledger/internal/ledger"
	"grledger/internal/log"
	"grledger/internal/payment"
)

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errBadRequest),
		errors.Is(err, ledger.ErrInvalid),
		errors.Is(err, forms.ErrValidation),
		errors.Is(err, forms.ErrLastItem),
		errors.Is(err, forms.ErrUnknownItem):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrProtectedRecord):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicateCategory),
		errors.Is(err, ledger.ErrDuplicateUsername),
		errors.Is(err, insight.ErrBusy),
		errors.Is(err, payment.ErrNothingToPay):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, payment.ErrDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse creates the JSON error response for err. Internal errors are
// logged and never shown to the client.
func ErrorResponse(r *http.Request, err error) *JSONResponseBuilder {
	status := StatusFor(err)
	msg := ledger.Message(err)
	if msg == "" {
		msg = err.Error()
	}
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).Err(r.Context(), "Request failed", err, log.FieldPath, r.URL.Path)
		msg = http.StatusText(status)
	}
	return NewJSONResponse().Status(status).Body(ErrorBody{Error: msg})
}

// writeError is the one-line form of ErrorResponse.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ErrorResponse(r, err).Write(w)
}

// writeJSON sends v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}

// resultStatus is 201 for created records and 200 otherwise.
func resultStatus(res ledger.Result) int {
	if res.Created {
		return http.StatusCreated
	}
	return http.StatusOK
}
