// Package agents provides the agent management API. The service behind it
// is an in-memory placeholder until a real orchestrator lands; the HTTP
// contract is the part meant to stay stable.
package agents

import "time"

// Type classifies what kind of model an agent fronts.
type Type string

const (
	TypeLLM        Type = "llm"
	TypeVision     Type = "vision"
	TypeMultimodal Type = "multimodal"
	TypeFunction   Type = "function"
)

func (t Type) Valid() bool {
	switch t {
	case TypeLLM, TypeVision, TypeMultimodal, TypeFunction:
		return true
	}
	return false
}

// Status is the agent lifecycle state.
type Status string

const (
	StatusActive       Status = "active"
	StatusInactive     Status = "inactive"
	StatusError        Status = "error"
	StatusInitializing Status = "initializing"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusError, StatusInitializing:
		return true
	}
	return false
}

// Config holds the model parameters an agent runs with.
type Config struct {
	Model            string         `json:"model"`
	Temperature      float64        `json:"temperature"`
	MaxTokens        int            `json:"max_tokens"`
	AdditionalConfig map[string]any `json:"additional_config,omitempty"`
}

// Agent is the stored representation and the response body.
type Agent struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	AgentType   Type      `json:"agent_type"`
	Config      Config    `json:"config"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
