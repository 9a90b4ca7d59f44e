package agents

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no agent with the given id exists.
	ErrNotFound = errors.New("agent not found")
	// ErrNameTaken is returned when another agent already has the name.
	ErrNameTaken = errors.New("agent name already in use")
)

// ListOptions filters and pages agent listings. Zero values mean unfiltered.
type ListOptions struct {
	Type   Type
	Status Status
	Limit  int
	Offset int
}

// Service is the agent store contract the HTTP layer depends on.
type Service interface {
	Create(ctx context.Context, req *Request) (*Agent, error)
	Get(ctx context.Context, id string) (*Agent, error)
	List(ctx context.Context, opts ListOptions) ([]*Agent, error)
	Update(ctx context.Context, id string, req *Request) (*Agent, error)
	Delete(ctx context.Context, id string) error
}

// MemoryService keeps agents in process memory. It preserves insertion order
// for listings so pagination is stable.
type MemoryService struct {
	mu     sync.RWMutex
	agents map[string]*Agent
	order  []string
}

// NewMemoryService returns an empty in-memory agent store.
func NewMemoryService() *MemoryService {
	return &MemoryService{agents: make(map[string]*Agent)}
}

func (s *MemoryService) Create(ctx context.Context, req *Request) (*Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.agents {
		if a.Name == req.Name {
			return nil, ErrNameTaken
		}
	}

	now := time.Now().UTC()
	agent := &Agent{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		AgentType:   req.AgentType,
		Config:      req.config(),
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.agents[agent.ID] = agent
	s.order = append(s.order, agent.ID)
	return copyAgent(agent), nil
}

func (s *MemoryService) Get(ctx context.Context, id string) (*Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agent, ok := s.agents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAgent(agent), nil
}

func (s *MemoryService) List(ctx context.Context, opts ListOptions) ([]*Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*Agent
	for _, id := range s.order {
		a := s.agents[id]
		if opts.Type != "" && a.AgentType != opts.Type {
			continue
		}
		if opts.Status != "" && a.Status != opts.Status {
			continue
		}
		matched = append(matched, a)
	}

	if opts.Offset >= len(matched) {
		return []*Agent{}, nil
	}
	matched = matched[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}

	out := make([]*Agent, len(matched))
	for i, a := range matched {
		out[i] = copyAgent(a)
	}
	return out, nil
}

func (s *MemoryService) Update(ctx context.Context, id string, req *Request) (*Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agent, ok := s.agents[id]
	if !ok {
		return nil, ErrNotFound
	}
	for _, a := range s.agents {
		if a.ID != id && a.Name == req.Name {
			return nil, ErrNameTaken
		}
	}

	agent.Name = req.Name
	agent.Description = req.Description
	agent.AgentType = req.AgentType
	agent.Config = req.config()
	agent.UpdatedAt = time.Now().UTC()
	return copyAgent(agent), nil
}

func (s *MemoryService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.agents[id]; !ok {
		return ErrNotFound
	}
	delete(s.agents, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func copyAgent(a *Agent) *Agent {
	out := *a
	return &out
}
