package penalty

import "strings"

// Factor vocabularies.  Each factor contributes at most once regardless of
// how often it appears in the context.
var aggravatingFactors = []string{
	"repeat offender", "previous conviction", "habitual offender",
	"organized crime", "gang", "weapon used", "dangerous weapon",
	"public place", "daylight", "witness present", "victim vulnerable",
	"serious injury", "grievous hurt", "death caused", "property damage",
	"large amount", "valuable property", "government property",
}

var mitigatingFactors = []string{
	"first time offender", "no previous conviction", "cooperated with police",
	"confessed", "pleaded guilty", "showed remorse", "compensated victim",
	"minor age", "mental illness", "provocation", "self defense",
	"small amount", "petty crime", "unintentional",
}

// Context carries the request-derived signals scanned for factors.
type Context struct {
	Text     string   `json:"text"`
	Keywords []string `json:"keywords,omitempty"`
	Actions  []string `json:"actions,omitempty"`
	Amounts  []string `json:"amounts,omitempty"`
}

// FactorAnalysis lists which factors fired.
type FactorAnalysis struct {
	Aggravating []string `json:"aggravating"`
	Mitigating  []string `json:"mitigating"`
}

// concatenated returns the lowercased haystack scanned for factor phrases.
func (c Context) concatenated() string {
	parts := []string{
		c.Text,
		strings.Join(c.Keywords, " "),
		strings.Join(c.Actions, " "),
		strings.Join(c.Amounts, " "),
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// analyzeFactors scans the context against both vocabularies.
func analyzeFactors(c Context) FactorAnalysis {
	haystack := c.concatenated()
	out := FactorAnalysis{}
	for _, f := range aggravatingFactors {
		if strings.Contains(haystack, f) {
			out.Aggravating = append(out.Aggravating, f)
		}
	}
	for _, f := range mitigatingFactors {
		if strings.Contains(haystack, f) {
			out.Mitigating = append(out.Mitigating, f)
		}
	}
	return out
}

// durationFactor scales a finite custodial term.
func durationFactor(aggravating, mitigating int) float64 {
	return clamp(1+0.2*float64(aggravating)-0.15*float64(mitigating), 0.5, 2.0)
}

// fineFactor scales a fine amount.
func fineFactor(aggravating, mitigating int) float64 {
	return clamp(1+0.3*float64(aggravating)-0.2*float64(mitigating), 0.3, 3.0)
}

// confidence is a heuristic completeness score over the supplied context,
// not a statistical measure.
func confidence(c Context) float64 {
	score := 0.5
	if strings.TrimSpace(c.Text) != "" {
		score += 0.2
	}
	if len(c.Keywords) > 0 {
		score += 0.1
	}
	if len(c.Amounts) > 0 {
		score += 0.1
	}
	if len(c.Actions) > 0 {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	return score
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
