package legalcase

import (
	"context"
	"sync"

	"github.com/lexintel/LexTriage/pkg/errors"
)

// MemoryCorpus is an in-memory, insertion-ordered Corpus implementation.
// It is safe for concurrent use.
type MemoryCorpus struct {
	mu      sync.RWMutex
	byID    map[string]*Case
	ordered []string
}

// NewMemoryCorpus returns an empty MemoryCorpus.
func NewMemoryCorpus() *MemoryCorpus {
	return &MemoryCorpus{byID: make(map[string]*Case)}
}

// Save persists a case.  Duplicate IDs are rejected.
func (m *MemoryCorpus) Save(_ context.Context, c *Case) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[c.ID]; exists {
		return errors.Newf(errors.ErrCodeDuplicateCaseID, "case %s already exists", c.ID)
	}
	cp := *c
	cp.Sections = append([]string(nil), c.Sections...)
	m.byID[c.ID] = &cp
	m.ordered = append(m.ordered, c.ID)
	return nil
}

// FindByID retrieves a case by identifier.
func (m *MemoryCorpus) FindByID(_ context.Context, id string) (*Case, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeCaseNotFound, "case %s not found", id)
	}
	cp := *c
	cp.Sections = append([]string(nil), c.Sections...)
	return &cp, nil
}

// List returns all cases in insertion order.
func (m *MemoryCorpus) List(_ context.Context) ([]*Case, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Case, 0, len(m.ordered))
	for _, id := range m.ordered {
		c := m.byID[id]
		cp := *c
		cp.Sections = append([]string(nil), c.Sections...)
		out = append(out, &cp)
	}
	return out, nil
}

// Count returns the number of cases stored.
func (m *MemoryCorpus) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ordered), nil
}
