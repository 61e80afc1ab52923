package calculator

// Metrics holds the aggregate figures derived from a debt list.
type Metrics struct {
	TotalDebt           float64 `json:"totalDebt"`
	TotalMinimumPayment float64 `json:"totalMinimumPayment"`
	WeightedAverageRate float64 `json:"weightedAverageRate"`
	UtilizationRate     float64 `json:"utilizationRate"`
	DebtServiceRatio    float64 `json:"debtServiceRatio"`
}

// Aggregate computes totals, the balance-weighted average rate, credit utilization
// and the debt-service ratio. Every division is guarded and yields 0 instead of
// NaN or Inf.
func Aggregate(debts []Debt, monthlyIncome float64, opts Options) Metrics {
	var (
		m            Metrics
		revolvingSum float64
	)

	clean := make([]Debt, len(debts))
	for i, d := range debts {
		clean[i] = sanitize(d)
		m.TotalDebt += clean[i].Balance
		m.TotalMinimumPayment += clean[i].MinimumPayment
		if clean[i].Type == DebtTypeCreditCard {
			revolvingSum += clean[i].Balance
		}
	}

	// Weighting by share keeps a single debt's rate exact.
	if m.TotalDebt > 0 {
		for _, d := range clean {
			m.WeightedAverageRate += d.Balance / m.TotalDebt * d.InterestRate
		}
	}
	if opts.TotalAvailableCredit > 0 {
		m.UtilizationRate = revolvingSum / opts.TotalAvailableCredit * 100
	}
	if monthlyIncome > 0 {
		m.DebtServiceRatio = m.TotalMinimumPayment / monthlyIncome * 100
	}

	return m
}
