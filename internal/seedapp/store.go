package seedapp

import (
	"context"
	"sync"
	"time"
)

// EvolutionLogEntry records one evolution processed by the agents.
type EvolutionLogEntry struct {
	ID           string    `json:"id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	IssueNumber  int       `json:"issue_number"`
	Description  string    `json:"description"`
	AgentSummary string    `json:"agent_summary"`
	Status       string    `json:"status"`
}

// Store holds the service's features and evolution history.
type Store interface {
	Features(ctx context.Context) ([]string, error)
	// AddFeature appends name unless it is already present and reports
	// whether it was added.
	AddFeature(ctx context.Context, name string) (bool, error)
	EvolutionLog(ctx context.Context) ([]EvolutionLogEntry, error)
	AppendEvolution(ctx context.Context, entry EvolutionLogEntry) error
}

// DefaultFeatures seed a new MemoryStore.
var DefaultFeatures = []string{"Health Check", "API Documentation", "Evolution Tracking"}

// MemoryStore is a process-local Store. Its contents are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	features []string
	log      []EvolutionLogEntry
}

// NewMemoryStore returns a store seeded with DefaultFeatures.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		features: append([]string(nil), DefaultFeatures...),
		log:      []EvolutionLogEntry{},
	}
}

func (s *MemoryStore) Features(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.features...), nil
}

func (s *MemoryStore) AddFeature(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.features {
		if f == name {
			return false, nil
		}
	}
	s.features = append(s.features, name)
	return true, nil
}

func (s *MemoryStore) EvolutionLog(context.Context) ([]EvolutionLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]EvolutionLogEntry{}, s.log...), nil
}

func (s *MemoryStore) AppendEvolution(_ context.Context, entry EvolutionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, entry)
	return nil
}
