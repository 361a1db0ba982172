package offense

import (
	"context"
	"sync"

	"github.com/lexintel/LexTriage/pkg/errors"
)

// MemoryCatalog is an in-memory, insertion-ordered Catalog implementation.
// It is safe for concurrent use.
type MemoryCatalog struct {
	mu      sync.RWMutex
	byCode  map[string]*Offense
	ordered []string
}

// NewMemoryCatalog returns an empty MemoryCatalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{byCode: make(map[string]*Offense)}
}

// Save persists an offense.  Duplicate codes are rejected.
func (c *MemoryCatalog) Save(_ context.Context, o *Offense) error {
	if err := o.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byCode[o.Code]; exists {
		return errors.Newf(errors.ErrCodeDuplicateOffense, "offense %s already exists", o.Code)
	}
	cp := *o
	cp.Keywords = append([]string(nil), o.Keywords...)
	c.byCode[o.Code] = &cp
	c.ordered = append(c.ordered, o.Code)
	return nil
}

// FindByCode retrieves an offense by section code.
func (c *MemoryCatalog) FindByCode(_ context.Context, code string) (*Offense, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.byCode[code]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeOffenseNotFound, "offense %s not found", code)
	}
	cp := *o
	cp.Keywords = append([]string(nil), o.Keywords...)
	return &cp, nil
}

// List returns all offenses in insertion order.
func (c *MemoryCatalog) List(_ context.Context) ([]*Offense, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Offense, 0, len(c.ordered))
	for _, code := range c.ordered {
		o := c.byCode[code]
		cp := *o
		cp.Keywords = append([]string(nil), o.Keywords...)
		out = append(out, &cp)
	}
	return out, nil
}

// Count returns the number of offenses stored.
func (c *MemoryCatalog) Count(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ordered), nil
}
