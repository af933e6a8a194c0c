package anomaly

// Verdict is the per-transaction outcome of the detector. The three signals
// are independent; Final is derived from them by Fuse.
type Verdict struct {
	ModelOutlier bool    `json:"model_outlier"`
	Score        float64 `json:"anomaly_score"`
	LargeAmount  bool    `json:"large_amount_flag"`
	OddHour      bool    `json:"odd_hour_flag"`
	Credit       bool    `json:"credit"`
	Final        bool    `json:"final_flag"`
}

// Fuse ORs the model and rule signals, then clears the result for credits.
// Only expenses are ever flagged.
func Fuse(v Verdict) Verdict {
	v.Final = v.ModelOutlier || v.LargeAmount || v.OddHour
	if v.Credit {
		v.Final = false
	}
	return v
}

// Rules holds the deterministic thresholds.
type Rules struct {
	LargeAmountSigma float64
	OddHourStart     int // debits before this hour are odd
	OddHourEnd       int // debits after this hour are odd
}

// DefaultRules flags amounts beyond 3 standard deviations and debits
// outside 06:00 to 22:59.
func DefaultRules() Rules {
	return Rules{LargeAmountSigma: 3, OddHourStart: 6, OddHourEnd: 22}
}

// LargeAmount reports whether a standardized absolute amount exceeds the threshold.
func (r Rules) LargeAmount(zAmount float64) bool {
	return zAmount > r.LargeAmountSigma
}

// OddHour reports whether a debit happened at an unusual hour.
func (r Rules) OddHour(debit bool, hour int) bool {
	return debit && (hour < r.OddHourStart || hour > r.OddHourEnd)
}
