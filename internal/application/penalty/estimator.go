package penalty

import (
	"context"
	"fmt"
	"strings"

	"github.com/lexintel/LexTriage/internal/application/classification"
	"github.com/lexintel/LexTriage/internal/domain/offense"
	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	promx "github.com/lexintel/LexTriage/internal/infrastructure/monitoring/prometheus"
	"github.com/lexintel/LexTriage/pkg/errors"
)

// unspecifiedLabel renders when no custodial term or fine was recognized.
const unspecifiedLabel = "Penalty not specified"

// Estimate is a penalty estimate for one offense.
type Estimate struct {
	OffenseCode   string         `json:"offense_code"`
	Title         string         `json:"title"`
	Base          ParsedClause   `json:"base"`
	AdjustedYears int            `json:"adjusted_years,omitempty"`
	AdjustedFine  int64          `json:"adjusted_fine,omitempty"`
	Factors       FactorAnalysis `json:"factors"`
	Confidence    float64        `json:"confidence"`
	Summary       string         `json:"summary"`
}

// Deps wires the estimator's ports.
type Deps struct {
	Catalog offense.Catalog
	Logger  logging.Logger
	Metrics *promx.AppMetrics
}

// Service estimates penalties from statutory clauses and request context.
type Service struct {
	deps Deps
}

// NewService returns a penalty estimator.
func NewService(deps Deps) (*Service, error) {
	if deps.Catalog == nil {
		return nil, errors.New(errors.ErrCodeValidation, "penalty: catalog is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	deps.Logger = deps.Logger.Named("penalty")
	return &Service{deps: deps}, nil
}

// Estimate looks the offense up in the catalog and estimates its penalty
// under the given context.
func (s *Service) Estimate(ctx context.Context, offenseCode string, pctx Context) (*Estimate, error) {
	o, err := s.deps.Catalog.FindByCode(ctx, offenseCode)
	if err != nil {
		s.count("error")
		return nil, err
	}
	est := s.estimateClause(o.Code, o.Title, o.PenaltyClause, pctx)
	s.count("ok")
	return est, nil
}

// Summarize produces one estimate per classification candidate, in the same
// order.  Candidates carry their penalty clause, so no catalog round trip is
// needed.
func (s *Service) Summarize(_ context.Context, candidates []classification.Candidate, pctx Context) []Estimate {
	out := make([]Estimate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, *s.estimateClause(c.OffenseCode, c.Title, c.PenaltyClause, pctx))
	}
	if len(out) > 0 {
		s.count("ok")
	}
	return out
}

// estimateClause parses the clause, applies factor adjustments, and formats
// the summary.  Life and death terminal states are never numerically
// adjusted.
func (s *Service) estimateClause(code, title, clause string, pctx Context) *Estimate {
	base := ParseClause(clause)
	factors := analyzeFactors(pctx)
	agg, mit := len(factors.Aggravating), len(factors.Mitigating)

	est := &Estimate{
		OffenseCode: code,
		Title:       title,
		Base:        base,
		Factors:     factors,
		Confidence:  confidence(pctx),
	}

	if base.HasYears && !base.IsLife() && !base.IsDeath() {
		est.AdjustedYears = int(float64(base.Years) * durationFactor(agg, mit))
	}
	if base.HasFine {
		est.AdjustedFine = int64(base.FineAmount * fineFactor(agg, mit))
	}

	est.Summary = formatEstimate(est)
	return est
}

// formatEstimate renders the human-readable summary: custodial component
// first, then the fine clause, joined with ", ".
func formatEstimate(est *Estimate) string {
	var parts []string

	switch {
	case est.Base.IsDeath():
		parts = append(parts, "Death penalty")
	case est.Base.IsLife():
		parts = append(parts, "Imprisonment for life")
	case est.Base.HasYears:
		parts = append(parts, fmt.Sprintf("%s: up to %d years",
			titleCase(string(est.Base.Type)), est.AdjustedYears))
	}

	if est.Base.HasFine {
		parts = append(parts, fmt.Sprintf("Fine: up to ₹%s", groupDigits(est.AdjustedFine)))
	}

	if len(parts) == 0 {
		return unspecifiedLabel
	}
	return strings.Join(parts, ", ")
}

func titleCase(s string) string {
	if s == "" {
		return "Imprisonment"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// groupDigits renders n with thousands separators.
func groupDigits(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var b strings.Builder
	for i, d := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func (s *Service) count(status string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.PenaltyEstimatesTotal.WithLabelValues(status).Inc()
	}
}
