package server

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ainative/edge-backend/internal/correlation"
	"github.com/ainative/edge-backend/internal/problem"
)

// CorrelationMiddleware establishes a correlation id and a W3C traceparent
// for each request, exposes both through the request context, and sets them
// as response headers before the handler runs.
//
// A client-supplied X-Correlation-ID is echoed back unchanged; otherwise a
// fresh UUID v4 is minted. An inbound traceparent keeps its version, trace
// id, and flags but gets a new span id (this service's hop); a missing or
// malformed one is synthesized with flags 01.
//
// The middleware is also the last line of defense: a panic escaping the
// handler is converted into the generic 500 problem-details response,
// carrying the same correlation id, instead of propagating.
func CorrelationMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := r.Header.Get(correlation.HeaderCorrelationID)
			if cid == "" {
				cid = uuid.New().String()
			}

			tp, ok := correlation.ParseTraceparent(r.Header.Get(correlation.HeaderTraceParent))
			if ok {
				tp = tp.Regenerate()
			} else {
				tp = correlation.NewTraceparent()
			}

			ctx := correlation.NewContext(r.Context(), correlation.Context{
				CorrelationID: cid,
				TraceParent:   tp.String(),
			})

			// Headers go out with whatever the handler writes, success or not.
			w.Header().Set(correlation.HeaderCorrelationID, cid)
			w.Header().Set(correlation.HeaderTraceParent, tp.String())

			wrapped := &correlationResponseWriter{ResponseWriter: w}

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					// net/http uses this to abort; let it through.
					panic(rec)
				}
				logger.LogAttrs(ctx, slog.LevelError, "panic recovered",
					slog.String("correlation_id", cid),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
				)
				if !wrapped.wrote {
					problem.Write(wrapped, problem.Internal(ctx, r.URL.Path))
				}
			}()

			next.ServeHTTP(wrapped, r.WithContext(ctx))
		})
	}
}

// correlationResponseWriter tracks whether anything reached the wire, so the
// panic path knows if it can still write a response.
type correlationResponseWriter struct {
	http.ResponseWriter
	wrote bool
}

func (rw *correlationResponseWriter) WriteHeader(code int) {
	rw.wrote = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *correlationResponseWriter) Write(b []byte) (int, error) {
	rw.wrote = true
	return rw.ResponseWriter.Write(b)
}

// Flush forwards Flush to the underlying ResponseWriter if it supports
// http.Flusher, preserving streaming support.
func (rw *correlationResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
