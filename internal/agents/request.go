package agents

import (
	"fmt"

	"github.com/ainative/edge-backend/internal/problem"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1024

	maxNameLength = 100
)

// ConfigRequest is the agent configuration as submitted by the client.
// Pointer fields distinguish "omitted" from zero so defaults apply cleanly.
type ConfigRequest struct {
	Model            string         `json:"model"`
	Temperature      *float64       `json:"temperature"`
	MaxTokens        *int           `json:"max_tokens"`
	AdditionalConfig map[string]any `json:"additional_config"`
}

// Request is the create/update body for an agent.
type Request struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	AgentType   Type           `json:"agent_type"`
	Config      *ConfigRequest `json:"config"`
}

// validate checks the request shape and returns a ValidationError listing
// every invalid field, mirroring the field paths of the JSON body.
func (req *Request) validate() error {
	var fields []problem.FieldError

	switch {
	case req.Name == "":
		fields = append(fields, problem.Missing("body", "name"))
	case len(req.Name) > maxNameLength:
		fields = append(fields, problem.FieldError{
			Loc:  []string{"body", "name"},
			Type: "string_too_long",
			Msg:  fmt.Sprintf("String should have at most %d characters", maxNameLength),
		})
	}

	switch {
	case req.AgentType == "":
		fields = append(fields, problem.Missing("body", "agent_type"))
	case !req.AgentType.Valid():
		fields = append(fields, problem.FieldError{
			Loc:  []string{"body", "agent_type"},
			Type: "enum",
			Msg:  "Input should be 'llm', 'vision', 'multimodal' or 'function'",
		})
	}

	switch {
	case req.Config == nil:
		fields = append(fields, problem.Missing("body", "config"))
	default:
		if req.Config.Model == "" {
			fields = append(fields, problem.Missing("body", "config", "model"))
		}
		if t := req.Config.Temperature; t != nil {
			if *t < 0 {
				fields = append(fields, problem.FieldError{
					Loc:  []string{"body", "config", "temperature"},
					Type: "greater_than_equal",
					Msg:  "Input should be greater than or equal to 0",
				})
			} else if *t > 1 {
				fields = append(fields, problem.FieldError{
					Loc:  []string{"body", "config", "temperature"},
					Type: "less_than_equal",
					Msg:  "Input should be less than or equal to 1",
				})
			}
		}
		if mt := req.Config.MaxTokens; mt != nil && *mt < 1 {
			fields = append(fields, problem.FieldError{
				Loc:  []string{"body", "config", "max_tokens"},
				Type: "greater_than_equal",
				Msg:  "Input should be greater than or equal to 1",
			})
		}
	}

	if len(fields) > 0 {
		return &problem.ValidationError{Fields: fields}
	}
	return nil
}

// config materializes the submitted configuration with defaults applied.
func (req *Request) config() Config {
	cfg := Config{
		Model:            req.Config.Model,
		Temperature:      defaultTemperature,
		MaxTokens:        defaultMaxTokens,
		AdditionalConfig: req.Config.AdditionalConfig,
	}
	if req.Config.Temperature != nil {
		cfg.Temperature = *req.Config.Temperature
	}
	if req.Config.MaxTokens != nil {
		cfg.MaxTokens = *req.Config.MaxTokens
	}
	return cfg
}
