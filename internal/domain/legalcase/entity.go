// Package legalcase provides the domain model for decided court cases used by
// the retrieval engine.  A Case carries the fact narrative, the statute
// sections it was decided under, and the recorded outcome.
package legalcase

import (
	"strings"
	"time"

	"github.com/lexintel/LexTriage/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Case Aggregate Root
// ─────────────────────────────────────────────────────────────────────────────

// Case is a single decided court case in the retrieval corpus.
type Case struct {
	// ID is the unique case identifier within the corpus.
	ID string `json:"id"`

	// Title is the case caption, e.g. "State v. Sharma".
	Title string `json:"title"`

	// Narrative is the fact summary embedded for similarity search.
	Narrative string `json:"narrative"`

	// Sections are the statute section codes the case was decided under,
	// e.g. ["IPC 379", "IPC 411"].
	Sections []string `json:"sections"`

	// Outcome is the recorded disposition and penalty text.
	Outcome string `json:"outcome"`

	// Court names the deciding court.
	Court string `json:"court,omitempty"`

	// DecidedOn is the decision date, if known.
	DecidedOn time.Time `json:"decided_on,omitempty"`
}

// New constructs a validated Case.  Section codes are trimmed; empty entries
// are dropped.
func New(id, title, narrative, outcome string, sections []string) (*Case, error) {
	c := &Case{
		ID:        strings.TrimSpace(id),
		Title:     strings.TrimSpace(title),
		Narrative: strings.TrimSpace(narrative),
		Outcome:   strings.TrimSpace(outcome),
		Sections:  normalizeSections(sections),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the structural invariants of the case.
func (c *Case) Validate() error {
	if c == nil {
		return errors.New(errors.ErrCodeCaseInvalid, "case is nil")
	}
	if strings.TrimSpace(c.ID) == "" {
		return errors.New(errors.ErrCodeCaseInvalid, "case id is required")
	}
	if strings.TrimSpace(c.Narrative) == "" {
		return errors.Newf(errors.ErrCodeCaseInvalid, "case %s: narrative is required", c.ID)
	}
	return nil
}

// EmbeddingText returns the text embedded to represent this case in vector
// space.  The narrative dominates; the outcome is appended when present so
// that disposition language contributes to similarity.
func (c *Case) EmbeddingText() string {
	if c.Outcome == "" {
		return c.Narrative
	}
	return c.Narrative + ". " + c.Outcome
}

// MatchesAnySection reports whether the case was decided under at least one
// of the given section codes.  An empty filter matches every case.
func (c *Case) MatchesAnySection(codes []string) bool {
	if len(codes) == 0 {
		return true
	}
	for _, want := range codes {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		for _, have := range c.Sections {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

func normalizeSections(sections []string) []string {
	out := make([]string, 0, len(sections))
	seen := make(map[string]struct{}, len(sections))
	for _, s := range sections {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
