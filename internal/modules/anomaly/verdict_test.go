package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuse_AllSignalCombinations(t *testing.T) {
	for mask := 0; mask < 16; mask++ {
		v := Verdict{
			ModelOutlier: mask&1 != 0,
			LargeAmount:  mask&2 != 0,
			OddHour:      mask&4 != 0,
			Credit:       mask&8 != 0,
			Final:        mask%3 == 0, // stale input must be ignored
		}
		got := Fuse(v)

		anySignal := v.ModelOutlier || v.LargeAmount || v.OddHour
		if v.Credit {
			assert.False(t, got.Final, "credit must never be flagged: %+v", v)
		} else {
			assert.Equal(t, anySignal, got.Final, "debit flag must be the OR of signals: %+v", v)
		}
		assert.Equal(t, v.ModelOutlier, got.ModelOutlier)
		assert.Equal(t, v.LargeAmount, got.LargeAmount)
		assert.Equal(t, v.OddHour, got.OddHour)
	}
}

func TestRules(t *testing.T) {
	r := DefaultRules()

	tests := []struct {
		name  string
		debit bool
		hour  int
		want  bool
	}{
		{"early debit", true, 5, true},
		{"opening hour", true, 6, false},
		{"late evening", true, 22, false},
		{"after 22", true, 23, true},
		{"early credit", false, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.OddHour(tt.debit, tt.hour))
		})
	}

	assert.True(t, r.LargeAmount(3.01))
	assert.False(t, r.LargeAmount(3))
}
