package legalcase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexintel/LexTriage/pkg/errors"
)

func TestNew(t *testing.T) {
	c, err := New("case-001", "State v. Sharma", "Accused stole a mobile phone from a shop", "Convicted under IPC 379, 1 year imprisonment", []string{"IPC 379", " IPC 411 ", "IPC 379", ""})
	require.NoError(t, err)

	assert.Equal(t, "case-001", c.ID)
	// Sections trimmed, deduplicated, order preserved.
	assert.Equal(t, []string{"IPC 379", "IPC 411"}, c.Sections)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       *Case
		wantErr bool
	}{
		{"valid", &Case{ID: "c1", Narrative: "facts"}, false},
		{"missing_id", &Case{Narrative: "facts"}, true},
		{"missing_narrative", &Case{ID: "c1"}, true},
		{"nil_case", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr {
				assert.True(t, errors.IsCode(err, errors.ErrCodeCaseInvalid))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEmbeddingText(t *testing.T) {
	withOutcome := &Case{ID: "c1", Narrative: "Accused stole a phone", Outcome: "Convicted"}
	assert.Equal(t, "Accused stole a phone. Convicted", withOutcome.EmbeddingText())

	bare := &Case{ID: "c2", Narrative: "Accused stole a phone"}
	assert.Equal(t, "Accused stole a phone", bare.EmbeddingText())
}

func TestMatchesAnySection(t *testing.T) {
	c := &Case{ID: "c1", Narrative: "facts", Sections: []string{"IPC 302", "IPC 34"}}

	tests := []struct {
		name   string
		filter []string
		want   bool
	}{
		{"empty_filter_matches_all", nil, true},
		{"exact_match", []string{"IPC 302"}, true},
		{"case_insensitive", []string{"ipc 302"}, true},
		{"one_of_many", []string{"IPC 420", "IPC 34"}, true},
		{"no_match", []string{"IPC 379"}, false},
		{"blank_entries_ignored", []string{"", "  "}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.MatchesAnySection(tt.filter))
		})
	}
}

func TestMemoryCorpus(t *testing.T) {
	ctx := context.Background()
	corpus := NewMemoryCorpus()

	first, err := New("case-001", "", "Accused stole a phone", "", []string{"IPC 379"})
	require.NoError(t, err)
	second, err := New("case-002", "", "Accused assaulted the victim", "", []string{"IPC 323"})
	require.NoError(t, err)

	require.NoError(t, corpus.Save(ctx, first))
	require.NoError(t, corpus.Save(ctx, second))

	t.Run("duplicate_rejected", func(t *testing.T) {
		err := corpus.Save(ctx, first)
		assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateCaseID))
	})

	t.Run("find_by_id", func(t *testing.T) {
		got, err := corpus.FindByID(ctx, "case-002")
		require.NoError(t, err)
		assert.Equal(t, "Accused assaulted the victim", got.Narrative)
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := corpus.FindByID(ctx, "case-999")
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("list_preserves_insertion_order", func(t *testing.T) {
		all, err := corpus.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "case-001", all[0].ID)
		assert.Equal(t, "case-002", all[1].ID)
	})

	t.Run("count", func(t *testing.T) {
		n, err := corpus.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}
