package problem

import (
	"errors"
	"log/slog"
	"net/http"
)

// HandlerFunc is an HTTP handler that reports failures by returning an error
// instead of writing an error response itself.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// Handler adapts fn into an http.HandlerFunc, rendering any returned error
// as problem details.
func Handler(logger *slog.Logger, fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			Render(w, r, err, logger)
		}
	}
}

// Render writes err as a problem-details response and logs the occurrence
// with the request's correlation id. Internal and application faults log at
// error, intentional HTTP faults at warn, validation faults at info.
func Render(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	d := From(r.Context(), err, r.URL.Path)

	logger.LogAttrs(r.Context(), logLevel(err), "request error",
		slog.String("correlation_id", d.CorrelationID),
		slog.String("path", r.URL.Path),
		slog.Int("status", d.Status),
		slog.String("type", d.Type),
		slog.String("error", err.Error()),
	)

	Write(w, d)
}

func logLevel(err error) slog.Level {
	var (
		valErr  *ValidationError
		httpErr *HTTPError
	)
	switch {
	case errors.As(err, &valErr):
		return slog.LevelInfo
	case errors.As(err, &httpErr):
		return slog.LevelWarn
	default:
		// Generic and application faults alike.
		return slog.LevelError
	}
}
