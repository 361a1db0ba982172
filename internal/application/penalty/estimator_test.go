package penalty

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexintel/LexTriage/internal/application/classification"
	"github.com/lexintel/LexTriage/internal/domain/offense"
	"github.com/lexintel/LexTriage/pkg/errors"
)

func newEstimator(t *testing.T) (*Service, offense.Catalog) {
	t.Helper()
	ctx := context.Background()
	cat := offense.NewMemoryCatalog()

	theft, err := offense.New("IPC 379", "Theft", "Dishonest taking of property",
		"Imprisonment up to 3 years, or fine, or both", []string{"theft"})
	require.NoError(t, err)
	murder, err := offense.New("IPC 302", "Murder", "Causing death intentionally",
		"Death, or imprisonment for life, and fine", []string{"murder"})
	require.NoError(t, err)
	cheat, err := offense.New("IPC 420", "Cheating", "Cheating and dishonestly inducing delivery",
		"Imprisonment up to 7 years and fine up to Rs. 10,000", []string{"cheating"})
	require.NoError(t, err)
	vague, err := offense.New("IPC 999", "Unspecified offense", "",
		"Punishment as the court directs", nil)
	require.NoError(t, err)

	for _, o := range []*offense.Offense{theft, murder, cheat, vague} {
		require.NoError(t, cat.Save(ctx, o))
	}

	svc, err := NewService(Deps{Catalog: cat})
	require.NoError(t, err)
	return svc, cat
}

func TestEstimate_NoFactorsLeavesBase(t *testing.T) {
	svc, _ := newEstimator(t)

	est, err := svc.Estimate(context.Background(), "IPC 379", Context{})
	require.NoError(t, err)

	assert.Equal(t, ImprisonmentEither, est.Base.Type)
	assert.Equal(t, 3, est.Base.Years)
	assert.Equal(t, 3, est.AdjustedYears)
	assert.False(t, est.Base.HasFine)
	assert.Equal(t, "Either: up to 3 years", est.Summary)
	assert.InDelta(t, 0.5, est.Confidence, 1e-9)
}

func TestEstimate_AggravatingIncreases(t *testing.T) {
	svc, _ := newEstimator(t)

	est, err := svc.Estimate(context.Background(), "IPC 420", Context{
		Text: "repeat offender used a dangerous weapon causing serious injury",
	})
	require.NoError(t, err)

	require.Len(t, est.Factors.Aggravating, 3)
	assert.Empty(t, est.Factors.Mitigating)

	// Duration factor 1 + 3*0.2 = 1.6 -> 7 * 1.6 = 11.2 -> 11.
	assert.Equal(t, 11, est.AdjustedYears)
	// Fine factor 1 + 3*0.3 = 1.9 -> 10000 * 1.9 = 19000.
	assert.Equal(t, int64(19000), est.AdjustedFine)
	assert.Equal(t, "Either: up to 11 years, Fine: up to ₹19,000", est.Summary)
}

func TestEstimate_MitigatingDecreases(t *testing.T) {
	svc, _ := newEstimator(t)

	est, err := svc.Estimate(context.Background(), "IPC 420", Context{
		Text: "first time offender who confessed, the theft was unintentional",
	})
	require.NoError(t, err)

	require.Len(t, est.Factors.Mitigating, 3)
	// Duration factor 1 - 3*0.15 = 0.55 -> 7 * 0.55 = 3.85 -> 3.
	assert.Equal(t, 3, est.AdjustedYears)
	// Fine factor 1 - 3*0.2 lands just under 0.4 in floating point, so
	// 10000 * factor truncates to 3999.
	assert.Equal(t, int64(3999), est.AdjustedFine)
}

func TestEstimate_FactorsClamped(t *testing.T) {
	svc, _ := newEstimator(t)

	// Six aggravating phrases: duration factor would be 2.2, clamps to 2.0;
	// fine factor would be 2.8, stays below its 3.0 cap.
	est, err := svc.Estimate(context.Background(), "IPC 420", Context{
		Text: "repeat offender habitual offender gang dangerous weapon grievous hurt government property",
	})
	require.NoError(t, err)
	require.Len(t, est.Factors.Aggravating, 6)

	assert.Equal(t, 14, est.AdjustedYears)
	assert.Equal(t, int64(28000), est.AdjustedFine)
}

func TestEstimate_DeathNeverAdjusted(t *testing.T) {
	svc, _ := newEstimator(t)

	est, err := svc.Estimate(context.Background(), "IPC 302", Context{
		Text: "repeat offender with a dangerous weapon",
	})
	require.NoError(t, err)

	assert.True(t, est.Base.IsDeath())
	assert.Zero(t, est.AdjustedYears)
	assert.Equal(t, "Death penalty", est.Summary)
}

func TestEstimate_LifeNeverAdjusted(t *testing.T) {
	ctx := context.Background()
	_, cat := newEstimator(t)

	o, err := offense.New("IPC 304B", "Dowry death", "",
		"Imprisonment for life, and fine which may extend to 10,000", nil)
	require.NoError(t, err)
	require.NoError(t, cat.Save(ctx, o))

	svc, err := NewService(Deps{Catalog: cat})
	require.NoError(t, err)

	est, err := svc.Estimate(ctx, "IPC 304B", Context{Text: "repeat offender"})
	require.NoError(t, err)

	assert.True(t, est.Base.IsLife())
	assert.Zero(t, est.AdjustedYears)
	// The fine component is still adjusted: 10000 * 1.3 = 13000.
	assert.Equal(t, int64(13000), est.AdjustedFine)
	assert.Equal(t, "Imprisonment for life, Fine: up to ₹13,000", est.Summary)
}

func TestEstimate_Unspecified(t *testing.T) {
	svc, _ := newEstimator(t)

	est, err := svc.Estimate(context.Background(), "IPC 999", Context{})
	require.NoError(t, err)

	assert.True(t, est.Base.Unspecified())
	assert.Equal(t, "Penalty not specified", est.Summary)
}

func TestEstimate_UnknownOffense(t *testing.T) {
	svc, _ := newEstimator(t)
	_, err := svc.Estimate(context.Background(), "IPC 000", Context{})
	assert.True(t, errors.IsNotFound(err))
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name string
		ctx  Context
		want float64
	}{
		{"empty", Context{}, 0.5},
		{"text_only", Context{Text: "narrative"}, 0.7},
		{"text_and_keywords", Context{Text: "narrative", Keywords: []string{"theft"}}, 0.8},
		{
			"everything",
			Context{Text: "narrative", Keywords: []string{"theft"}, Actions: []string{"stole"}, Amounts: []string{"25000"}},
			1.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, confidence(tt.ctx), 1e-9)
		})
	}
}

func TestSummarize(t *testing.T) {
	svc, _ := newEstimator(t)

	candidates := []classification.Candidate{
		{OffenseCode: "IPC 379", Title: "Theft", PenaltyClause: "Imprisonment up to 3 years, or fine, or both", Confidence: 1.0},
		{OffenseCode: "IPC 302", Title: "Murder", PenaltyClause: "Death, or imprisonment for life, and fine", Confidence: 0.6},
	}

	got := svc.Summarize(context.Background(), candidates, Context{Text: "narrative"})
	require.Len(t, got, 2)

	// Same order as input candidates.
	assert.Equal(t, "IPC 379", got[0].OffenseCode)
	assert.Equal(t, "Either: up to 3 years", got[0].Summary)
	assert.Equal(t, "IPC 302", got[1].OffenseCode)
	assert.Equal(t, "Death penalty", got[1].Summary)
}

func TestSummarize_Empty(t *testing.T) {
	svc, _ := newEstimator(t)
	assert.Empty(t, svc.Summarize(context.Background(), nil, Context{}))
}

func TestGroupDigits(t *testing.T) {
	assert.Equal(t, "0", groupDigits(0))
	assert.Equal(t, "999", groupDigits(999))
	assert.Equal(t, "1,000", groupDigits(1000))
	assert.Equal(t, "19,000", groupDigits(19000))
	assert.Equal(t, "1,234,567", groupDigits(1234567))
}
