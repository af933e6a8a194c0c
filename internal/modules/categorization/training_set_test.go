package categorization

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/domain"
)

func TestDefaultTrainingSet(t *testing.T) {
	set := DefaultTrainingSet()
	require.Len(t, set, 40)

	set[0].Category = "mutated"
	assert.NotEqual(t, "mutated", DefaultTrainingSet()[0].Category)
}

func TestParseTrainingSet(t *testing.T) {
	data := []byte(`
- description: "  Uber Ride "
  category: Transport
- description: Salary
  category: Income
`)
	examples, err := ParseTrainingSet(data)
	require.NoError(t, err)
	assert.Equal(t, []Example{{"Uber Ride", "Transport"}, {"Salary", "Income"}}, examples)
}

func TestParseTrainingSet_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed yaml", "- description: [unclosed"},
		{"blank category", "- description: Uber\n  category: \"\"\n"},
		{"missing description", "- category: Transport\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTrainingSet([]byte(tt.data))
			assert.ErrorIs(t, err, domain.ErrParse)
		})
	}
}

func TestLoadTrainingSet(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTrainingSet(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, domain.ErrMissingInput)
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "training.yaml")
		require.NoError(t, os.WriteFile(path, []byte("- description: Gym\n  category: Health\n"), 0644))

		examples, err := LoadTrainingSet(path)
		require.NoError(t, err)
		assert.Equal(t, []Example{{"Gym", "Health"}}, examples)
	})
}
