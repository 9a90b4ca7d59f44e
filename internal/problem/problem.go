// Package problem normalizes handler errors into RFC 7807 problem-details
// responses. The error kinds form a closed set; a single dispatch maps any
// error to the body shape clients rely on, tagged with the request's
// correlation id.
package problem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ainative/edge-backend/internal/correlation"
)

// GenericDetail is the only detail string ever sent to clients for
// unexpected failures; the underlying error stays in server-side logs.
const GenericDetail = "An unexpected error occurred. Please try again later."

// ContentType is the media type for problem-details responses.
const ContentType = "application/problem+json"

// Details is the RFC 7807 body, extended with the request correlation id so
// clients can quote it in support requests.
type Details struct {
	Type          string `json:"type"`
	Title         string `json:"title"`
	Status        int    `json:"status"`
	Detail        any    `json:"detail"`
	Instance      string `json:"instance"`
	CorrelationID string `json:"correlation_id"`
}

// HTTPError is an intentional HTTP-level fault raised by a handler, carrying
// its own status code and a client-safe message.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string { return e.Message }

// NewHTTP builds an HTTPError with the given status and message.
func NewHTTP(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

// AppError is a domain fault. It renders under its own status code but a
// distinct problem type, so clients can tell application errors from plain
// HTTP ones.
type AppError struct {
	Status  int
	Message string
}

func (e *AppError) Error() string { return e.Message }

// NewApp builds an AppError with the given status and message.
func NewApp(status int, message string) *AppError {
	return &AppError{Status: status, Message: message}
}

// FieldError describes one invalid request field. Loc is the path to the
// field, e.g. ["body", "price"].
type FieldError struct {
	Loc  []string `json:"loc"`
	Type string   `json:"type"`
	Msg  string   `json:"msg"`
}

// ValidationError aggregates request-shape faults. The field list is passed
// through to the response body in order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("request validation failed (%d field errors)", len(e.Fields))
}

// Missing returns the FieldError for a required field that was not supplied.
func Missing(loc ...string) FieldError {
	return FieldError{Loc: loc, Type: "missing", Msg: "Field required"}
}

// Internal builds the 500 problem details used for unexpected faults. The
// correlation middleware uses it directly as its last line of defense.
func Internal(ctx context.Context, instance string) Details {
	return Details{
		Type:          "/errors/internal-server-error",
		Title:         "Internal Server Error",
		Status:        http.StatusInternalServerError,
		Detail:        GenericDetail,
		Instance:      instance,
		CorrelationID: correlation.ID(ctx),
	}
}

// From maps err to problem details. It is a pure function of the error and
// the request context; unrecognized errors become the generic 500.
func From(ctx context.Context, err error, instance string) Details {
	cid := correlation.ID(ctx)

	var (
		valErr  *ValidationError
		appErr  *AppError
		httpErr *HTTPError
	)
	switch {
	case errors.As(err, &valErr):
		return Details{
			Type:          "/errors/validation-error",
			Title:         "Validation Error",
			Status:        http.StatusUnprocessableEntity,
			Detail:        valErr.Fields,
			Instance:      instance,
			CorrelationID: cid,
		}
	case errors.As(err, &appErr):
		return Details{
			Type:          "/errors/application-specific-error",
			Title:         "Application Specific Error",
			Status:        appErr.Status,
			Detail:        appErr.Message,
			Instance:      instance,
			CorrelationID: cid,
		}
	case errors.As(err, &httpErr):
		return Details{
			Type:          fmt.Sprintf("/errors/http/%d", httpErr.Status),
			Title:         "HTTP Error",
			Status:        httpErr.Status,
			Detail:        httpErr.Message,
			Instance:      instance,
			CorrelationID: cid,
		}
	default:
		return Internal(ctx, instance)
	}
}

// Write serializes d with the problem media type and its status code.
func Write(w http.ResponseWriter, d Details) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(d.Status)
	_ = json.NewEncoder(w).Encode(d)
}
