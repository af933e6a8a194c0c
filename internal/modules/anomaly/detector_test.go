package anomaly

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/domain"
	testingpkg "github.com/aristath/fintrack/internal/testing"
)

func normalBatch() []domain.Transaction {
	txns := make([]domain.Transaction, 0, 20)
	for i := 0; i < 19; i++ {
		date := fmt.Sprintf("2024-01-%02d %02d:00", i+1, 9+i%9)
		amount := fmt.Sprintf("-%d.50", 20+5*i)
		txns = append(txns, testingpkg.Txn(date, "Grocery Store", amount, "Groceries"))
	}
	return txns
}

func TestDetector_FlagsExtremeNightDebit(t *testing.T) {
	txns := append(normalBatch(), testingpkg.Txn("2024-01-25 03:00", "Wire Transfer", "-50000", "Transfers"))
	d := NewDetector(DefaultOptions(), zerolog.Nop())

	verdicts, err := d.FitAndScore(context.Background(), txns)
	require.NoError(t, err)
	require.Len(t, verdicts, len(txns))

	extreme := verdicts[len(verdicts)-1]
	assert.True(t, extreme.LargeAmount)
	assert.True(t, extreme.OddHour)
	assert.True(t, extreme.Final)

	for _, v := range verdicts[:len(verdicts)-1] {
		assert.False(t, v.LargeAmount)
		assert.False(t, v.OddHour)
	}

	flagged := Flagged(txns, verdicts)
	require.NotEmpty(t, flagged)
	assert.Equal(t, "Wire Transfer", flagged[len(flagged)-1].Description)
	assert.True(t, flagged[len(flagged)-1].FraudFlag)
}

func TestDetector_CreditsNeverFlagged(t *testing.T) {
	txns := normalBatch()
	for i, amount := range []string{"1000000", "250000", "999999.99"} {
		txns = append(txns, testingpkg.Txn(fmt.Sprintf("2024-02-0%d 0%d:00", i+1, i+1), "Incoming Wire", amount, "Income"))
	}
	d := NewDetector(DefaultOptions(), zerolog.Nop())

	verdicts, err := d.FitAndScore(context.Background(), txns)
	require.NoError(t, err)

	for i, txn := range txns {
		if txn.IsCredit() {
			assert.False(t, verdicts[i].Final, "credit %s flagged", txn.Amount)
			assert.True(t, verdicts[i].Credit)
		}
	}
}

func TestDetector_FinalIsOrOfSignalsForDebits(t *testing.T) {
	txns := testingpkg.SyntheticLedger(domain.Month{Year: 2023, Month: 1}, 12)
	txns = append(txns,
		testingpkg.Txn("2023-06-10 02:00", "ATM Withdrawal", "-400", "Cash"),
		testingpkg.Txn("2023-08-10 23:30", "Online Casino", "-9000", "Entertainment"),
	)
	opts := DefaultOptions()
	opts.Forest.Contamination = 0.1

	verdicts, err := NewDetector(opts, zerolog.Nop()).FitAndScore(context.Background(), txns)
	require.NoError(t, err)

	for i, txn := range txns {
		v := verdicts[i]
		if txn.IsDebit() {
			assert.Equal(t, v.ModelOutlier || v.LargeAmount || v.OddHour, v.Final, "row %d", i)
		} else {
			assert.False(t, v.Final, "row %d", i)
		}
	}
	assert.True(t, verdicts[len(txns)-2].OddHour)
	assert.True(t, verdicts[len(txns)-1].OddHour)
}

func TestDetector_Deterministic(t *testing.T) {
	txns := append(normalBatch(), testingpkg.Txn("2024-01-25 03:00", "Wire Transfer", "-50000", "Transfers"))
	d := NewDetector(DefaultOptions(), zerolog.Nop())

	a, err := d.FitAndScore(context.Background(), txns)
	require.NoError(t, err)
	b, err := d.FitAndScore(context.Background(), txns)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDetector_InsufficientData(t *testing.T) {
	d := NewDetector(DefaultOptions(), zerolog.Nop())

	for _, txns := range [][]domain.Transaction{nil, normalBatch()[:1]} {
		verdicts, err := d.FitAndScore(context.Background(), txns)
		assert.ErrorIs(t, err, domain.ErrInsufficientData)
		assert.Nil(t, verdicts)
	}
}

func TestApply(t *testing.T) {
	txns := normalBatch()[:2]
	out := Apply(txns, []Verdict{{Final: true}, {Final: false}})
	assert.True(t, out[0].FraudFlag)
	assert.False(t, out[1].FraudFlag)
	assert.False(t, txns[0].FraudFlag)
}
