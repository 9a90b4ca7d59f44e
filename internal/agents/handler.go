package agents

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ainative/edge-backend/internal/problem"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Register mounts the agent CRUD routes on r.
func Register(r chi.Router, svc Service, logger *slog.Logger) {
	h := &handler{svc: svc, logger: logger}

	r.Route("/agents", func(r chi.Router) {
		r.Post("/", problem.Handler(logger, h.create))
		r.Get("/", problem.Handler(logger, h.list))
		r.Route("/{agentID}", func(r chi.Router) {
			r.Get("/", problem.Handler(logger, h.get))
			r.Put("/", problem.Handler(logger, h.update))
			r.Delete("/", problem.Handler(logger, h.delete))
		})
	})
}

type handler struct {
	svc    Service
	logger *slog.Logger
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) error {
	req, err := decodeRequest(r)
	if err != nil {
		return err
	}

	agent, err := h.svc.Create(r.Context(), req)
	if err != nil {
		return serviceError(err, "")
	}

	h.logger.Info("agent created",
		slog.String("agent_id", agent.ID),
		slog.String("agent_type", string(agent.AgentType)))
	return writeJSON(w, http.StatusCreated, agent)
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) error {
	opts, err := listOptions(r)
	if err != nil {
		return err
	}

	agents, err := h.svc.List(r.Context(), opts)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, agents)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "agentID")

	agent, err := h.svc.Get(r.Context(), id)
	if err != nil {
		return serviceError(err, id)
	}
	return writeJSON(w, http.StatusOK, agent)
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "agentID")

	req, err := decodeRequest(r)
	if err != nil {
		return err
	}

	agent, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		return serviceError(err, id)
	}

	h.logger.Info("agent updated", slog.String("agent_id", agent.ID))
	return writeJSON(w, http.StatusOK, agent)
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "agentID")

	if err := h.svc.Delete(r.Context(), id); err != nil {
		return serviceError(err, id)
	}

	h.logger.Info("agent deleted", slog.String("agent_id", id))
	return writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Agent %s deleted", id),
	})
}

// decodeRequest parses and validates an agent request body. A body that is
// not valid JSON surfaces as a validation fault rather than a raw 400.
func decodeRequest(r *http.Request) (*Request, error) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, &problem.ValidationError{Fields: []problem.FieldError{{
			Loc:  []string{"body"},
			Type: "json_invalid",
			Msg:  "Invalid JSON body",
		}}}
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

func listOptions(r *http.Request) (ListOptions, error) {
	q := r.URL.Query()
	opts := ListOptions{Limit: defaultListLimit}
	var fields []problem.FieldError

	if v := q.Get("agent_type"); v != "" {
		if !Type(v).Valid() {
			fields = append(fields, problem.FieldError{
				Loc:  []string{"query", "agent_type"},
				Type: "enum",
				Msg:  "Input should be 'llm', 'vision', 'multimodal' or 'function'",
			})
		}
		opts.Type = Type(v)
	}
	if v := q.Get("status"); v != "" {
		if !Status(v).Valid() {
			fields = append(fields, problem.FieldError{
				Loc:  []string{"query", "status"},
				Type: "enum",
				Msg:  "Input should be 'active', 'inactive', 'error' or 'initializing'",
			})
		}
		opts.Status = Status(v)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			fields = append(fields, problem.FieldError{
				Loc:  []string{"query", "limit"},
				Type: "int_parsing",
				Msg:  "Input should be a valid integer",
			})
		case n < 1:
			fields = append(fields, problem.FieldError{
				Loc:  []string{"query", "limit"},
				Type: "greater_than_equal",
				Msg:  "Input should be greater than or equal to 1",
			})
		case n > maxListLimit:
			fields = append(fields, problem.FieldError{
				Loc:  []string{"query", "limit"},
				Type: "less_than_equal",
				Msg:  fmt.Sprintf("Input should be less than or equal to %d", maxListLimit),
			})
		default:
			opts.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			fields = append(fields, problem.FieldError{
				Loc:  []string{"query", "offset"},
				Type: "int_parsing",
				Msg:  "Input should be a valid integer",
			})
		case n < 0:
			fields = append(fields, problem.FieldError{
				Loc:  []string{"query", "offset"},
				Type: "greater_than_equal",
				Msg:  "Input should be greater than or equal to 0",
			})
		default:
			opts.Offset = n
		}
	}

	if len(fields) > 0 {
		return ListOptions{}, &problem.ValidationError{Fields: fields}
	}
	return opts, nil
}

// serviceError translates store errors into client-facing faults.
func serviceError(err error, id string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return problem.NewHTTP(http.StatusNotFound, fmt.Sprintf("Agent with ID %s not found", id))
	case errors.Is(err, ErrNameTaken):
		return problem.NewApp(http.StatusConflict, "An agent with this name already exists")
	default:
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
