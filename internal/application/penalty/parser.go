// Package penalty implements statutory penalty parsing and estimation.
// Free-text penalty clauses are parsed into a structured form, then adjusted
// by aggravating and mitigating factors extracted from the request context.
package penalty

import (
	"regexp"
	"strconv"
	"strings"
)

// ImprisonmentType classifies the custodial component of a parsed clause.
type ImprisonmentType string

const (
	ImprisonmentNone     ImprisonmentType = ""
	ImprisonmentDeath    ImprisonmentType = "death"
	ImprisonmentLife     ImprisonmentType = "life"
	ImprisonmentRigorous ImprisonmentType = "rigorous"
	ImprisonmentSimple   ImprisonmentType = "simple"
	ImprisonmentEither   ImprisonmentType = "either"
)

// ParsedClause is the structured form of a statutory penalty clause.
// Years is set only for finite custodial terms; FineAmount is independent of
// the custodial component.  Both unset is the valid "unspecified" state.
type ParsedClause struct {
	Type       ImprisonmentType `json:"type"`
	Years      int              `json:"years,omitempty"`
	HasYears   bool             `json:"has_years"`
	FineAmount float64          `json:"fine_amount,omitempty"`
	HasFine    bool             `json:"has_fine"`
	RawText    string           `json:"raw_text"`
}

// IsDeath reports the death-penalty terminal state.
func (p ParsedClause) IsDeath() bool { return p.Type == ImprisonmentDeath }

// IsLife reports the life-imprisonment terminal state.
func (p ParsedClause) IsLife() bool { return p.Type == ImprisonmentLife }

// Unspecified reports that no custodial term or fine was recognized.
func (p ParsedClause) Unspecified() bool {
	return p.Type == ImprisonmentNone && !p.HasYears && !p.HasFine
}

var imprisonmentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`imprisonment\s+(?:of\s+either\s+description\s+)?for\s+a\s+term\s+which\s+may\s+extend\s+to\s+(\d+)\s+years?`),
	regexp.MustCompile(`imprisonment\s+up\s+to\s+(\d+)\s+years?`),
	regexp.MustCompile(`imprisonment\s+for\s+(\d+)\s+years?`),
	regexp.MustCompile(`rigorous\s+imprisonment\s+(?:for\s+a\s+term\s+which\s+may\s+extend\s+to\s+)?(\d+)\s+years?`),
	regexp.MustCompile(`simple\s+imprisonment\s+(?:for\s+a\s+term\s+which\s+may\s+extend\s+to\s+)?(\d+)\s+years?`),
	regexp.MustCompile(`imprisonment\s+not\s+less\s+than\s+(\d+)\s+years?`),
}

var finePatterns = []*regexp.Regexp{
	regexp.MustCompile(`fine\s+(?:which\s+may\s+extend\s+to\s+)?(?:rs\.?\s*)?(\d+(?:,\d{3})*(?:\.\d{2})?)`),
	regexp.MustCompile(`fine\s+of\s+(?:rs\.?\s*)?(\d+(?:,\d{3})*(?:\.\d{2})?)`),
	regexp.MustCompile(`fine\s+up\s+to\s+(?:rs\.?\s*)?(\d+(?:,\d{3})*(?:\.\d{2})?)`),
	regexp.MustCompile(`fine\s+not\s+exceeding\s+(?:rs\.?\s*)?(\d+(?:,\d{3})*(?:\.\d{2})?)`),
}

// ParseClause parses a free-text penalty clause.  Death takes priority over
// life, which takes priority over finite terms; fine detection is
// independent.  Unrecognized text parses to the unspecified state rather
// than an error.
func ParseClause(text string) ParsedClause {
	out := ParsedClause{RawText: text}
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "death"):
		out.Type = ImprisonmentDeath
	case strings.Contains(lower, "imprisonment for life") || strings.Contains(lower, "life imprisonment"):
		out.Type = ImprisonmentLife
	default:
		for _, pat := range imprisonmentPatterns {
			m := pat.FindStringSubmatch(lower)
			if m == nil {
				continue
			}
			years, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			out.Years = years
			out.HasYears = true
			switch {
			case strings.Contains(lower, "rigorous"):
				out.Type = ImprisonmentRigorous
			case strings.Contains(lower, "simple"):
				out.Type = ImprisonmentSimple
			default:
				out.Type = ImprisonmentEither
			}
			break
		}
	}

	for _, pat := range finePatterns {
		m := pat.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		out.FineAmount = amount
		out.HasFine = true
		break
	}

	return out
}
