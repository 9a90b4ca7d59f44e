// Package frontendlog ingests log records shipped by browser clients and
// replays them into the backend's structured log stream, so frontend and
// backend events land in the same place with the same correlation ids.
package frontendlog

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ainative/edge-backend/internal/correlation"
	"github.com/ainative/edge-backend/internal/problem"
)

// BrowserInfo describes the client environment a log record came from.
type BrowserInfo struct {
	UserAgent string `json:"userAgent"`
	Language  string `json:"language"`
	URL       string `json:"url"`
}

// Payload is the log record a frontend client submits. Field names follow
// the JavaScript client's camelCase convention.
type Payload struct {
	Level             string         `json:"level"`
	Message           string         `json:"message"`
	CorrelationID     string         `json:"correlationId"`
	UserID            string         `json:"userId"`
	ComponentName     string         `json:"componentName"`
	Stack             string         `json:"stack"`
	ComponentStack    string         `json:"componentStack"`
	BrowserInfo       *BrowserInfo   `json:"browserInfo"`
	AdditionalContext map[string]any `json:"additionalContext"`
}

// Register mounts the log ingestion route on r.
func Register(r chi.Router, logger *slog.Logger) {
	h := &handler{logger: logger}
	r.Post("/frontend-log", problem.Handler(logger, h.ingest))
}

type handler struct {
	logger *slog.Logger
}

func (h *handler) ingest(w http.ResponseWriter, r *http.Request) error {
	var p Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return &problem.ValidationError{Fields: []problem.FieldError{{
			Loc:  []string{"body"},
			Type: "json_invalid",
			Msg:  "Invalid JSON body",
		}}}
	}

	var fields []problem.FieldError
	if p.Level == "" {
		fields = append(fields, problem.Missing("body", "level"))
	}
	if p.Message == "" {
		fields = append(fields, problem.Missing("body", "message"))
	}
	if len(fields) > 0 {
		return &problem.ValidationError{Fields: fields}
	}

	// Prefer the id the client captured when the interaction started; fall
	// back to this request's id, then to a fresh one.
	cid := p.CorrelationID
	if cid == "" {
		cid = correlation.ID(r.Context())
	}
	if cid == "" || cid == correlation.NotSet {
		cid = uuid.NewString()
	}

	attrs := []slog.Attr{
		slog.String("log_source", "frontend"),
		slog.String("correlation_id", cid),
		slog.String("client_ip", clientIP(r)),
	}
	if p.UserID != "" {
		attrs = append(attrs, slog.String("user_id", p.UserID))
	}
	if p.ComponentName != "" {
		attrs = append(attrs, slog.String("frontend_component", p.ComponentName))
	}
	if p.Stack != "" {
		attrs = append(attrs, slog.String("stack", p.Stack))
	}
	if p.ComponentStack != "" {
		attrs = append(attrs, slog.String("component_stack", p.ComponentStack))
	}
	if b := p.BrowserInfo; b != nil {
		var bAttrs []any
		if b.UserAgent != "" {
			bAttrs = append(bAttrs, slog.String("userAgent", b.UserAgent))
		}
		if b.Language != "" {
			bAttrs = append(bAttrs, slog.String("language", b.Language))
		}
		if b.URL != "" {
			bAttrs = append(bAttrs, slog.String("url", b.URL))
		}
		if len(bAttrs) > 0 {
			attrs = append(attrs, slog.Group("browser", bAttrs...))
		}
	}
	if len(p.AdditionalContext) > 0 {
		attrs = append(attrs, slog.Any("context", p.AdditionalContext))
	}

	level, known := slogLevel(p.Level)
	if !known {
		attrs = append(attrs, slog.String("frontend_level", p.Level))
	}
	h.logger.LogAttrs(r.Context(), level, p.Message, attrs...)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	return json.NewEncoder(w).Encode(map[string]string{"status": "log received"})
}

func slogLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "error":
		return slog.LevelError, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "info":
		return slog.LevelInfo, true
	case "debug":
		return slog.LevelDebug, true
	default:
		return slog.LevelInfo, false
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
