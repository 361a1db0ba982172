// Package offense provides the core domain model for statutory offenses in the
// LexTriage platform.  An Offense aggregates the statute section code, its
// title and description, the statutory penalty clause, and the keyword set
// used by the lexical classification scorer.
package offense

import (
	"fmt"
	"strings"

	"github.com/lexintel/LexTriage/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Offense Aggregate Root
// ─────────────────────────────────────────────────────────────────────────────

// Offense is the aggregate root for a single statutory offense definition.
// Code is the statute section identifier (e.g. "IPC 379") and is unique
// within a catalog.
type Offense struct {
	// Code is the statute section identifier, e.g. "IPC 379".
	Code string `json:"code"`

	// Title is the short offense name, e.g. "Theft".
	Title string `json:"title"`

	// Description is the statutory definition text.
	Description string `json:"description"`

	// PenaltyClause is the raw statutory penalty text, parsed by the
	// penalty estimator (e.g. "Imprisonment up to 3 years, or fine, or both").
	PenaltyClause string `json:"penalty_clause"`

	// Keywords are the lexical trigger terms for this offense.  Matching is
	// case-insensitive; terms are stored lowercased.
	Keywords []string `json:"keywords"`
}

// New constructs a validated Offense.  Keywords are lowercased and trimmed;
// empty keywords are dropped.
func New(code, title, description, penaltyClause string, keywords []string) (*Offense, error) {
	o := &Offense{
		Code:          strings.TrimSpace(code),
		Title:         strings.TrimSpace(title),
		Description:   strings.TrimSpace(description),
		PenaltyClause: strings.TrimSpace(penaltyClause),
		Keywords:      normalizeKeywords(keywords),
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Validate checks the structural invariants of the offense and normalizes
// the keyword set, so offenses decoded from JSON honor the lowercase storage
// invariant the same way New-constructed ones do.
func (o *Offense) Validate() error {
	if o == nil {
		return errors.New(errors.ErrCodeOffenseInvalid, "offense is nil")
	}
	o.Keywords = normalizeKeywords(o.Keywords)
	if strings.TrimSpace(o.Code) == "" {
		return errors.New(errors.ErrCodeOffenseInvalid, "offense code is required")
	}
	if strings.TrimSpace(o.Title) == "" {
		return errors.Newf(errors.ErrCodeOffenseInvalid, "offense %s: title is required", o.Code)
	}
	return nil
}

// Label returns the display label used as the zero-shot candidate label for
// this offense: "{code}: {title}".
func (o *Offense) Label() string {
	return fmt.Sprintf("%s: %s", o.Code, o.Title)
}

// EmbeddingText returns the text embedded to represent this offense in
// vector space: title, description and keywords joined with ". ".
func (o *Offense) EmbeddingText() string {
	parts := make([]string, 0, 3)
	if o.Title != "" {
		parts = append(parts, o.Title)
	}
	if o.Description != "" {
		parts = append(parts, o.Description)
	}
	if len(o.Keywords) > 0 {
		parts = append(parts, strings.Join(o.Keywords, ", "))
	}
	return strings.Join(parts, ". ")
}

// HasKeyword reports whether term is one of the offense's keywords.
// Comparison is case-insensitive.
func (o *Offense) HasKeyword(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	for _, k := range o.Keywords {
		if strings.ToLower(k) == term {
			return true
		}
	}
	return false
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
