// Package calculator implements the debt payoff engine: aggregate metrics,
// avalanche and snowball ordering, a month-by-month amortization projection,
// consolidation advice and advisory insights.
//
// Everything here is synchronous and deterministic. Callers pass all inputs
// explicitly and receive a fresh Result value.
package calculator

import "math"

const (
	DefaultTotalAvailableCredit       = 7500.0
	DefaultConsolidationHorizonMonths = 36
	DefaultDebtServiceThreshold       = 36.0
	DefaultUtilizationThreshold       = 30.0
	DefaultHighAPRThreshold           = 20.0
)

// Options tunes the assumptions of a calculation. Zero fields take the defaults.
type Options struct {
	TotalAvailableCredit       float64 `json:"totalAvailableCredit" mapstructure:"total_available_credit"`
	ConsolidationHorizonMonths int     `json:"consolidationHorizonMonths" mapstructure:"consolidation_horizon_months"`
	DebtServiceThreshold       float64 `json:"debtServiceThreshold" mapstructure:"debt_service_threshold"`
	UtilizationThreshold       float64 `json:"utilizationThreshold" mapstructure:"utilization_threshold"`
	HighAPRThreshold           float64 `json:"highAprThreshold" mapstructure:"high_apr_threshold"`
}

// DefaultOptions returns the stock assumptions.
func DefaultOptions() Options {
	return Options{
		TotalAvailableCredit:       DefaultTotalAvailableCredit,
		ConsolidationHorizonMonths: DefaultConsolidationHorizonMonths,
		DebtServiceThreshold:       DefaultDebtServiceThreshold,
		UtilizationThreshold:       DefaultUtilizationThreshold,
		HighAPRThreshold:           DefaultHighAPRThreshold,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TotalAvailableCredit <= 0 {
		o.TotalAvailableCredit = d.TotalAvailableCredit
	}
	if o.ConsolidationHorizonMonths <= 0 {
		o.ConsolidationHorizonMonths = d.ConsolidationHorizonMonths
	}
	if o.DebtServiceThreshold <= 0 {
		o.DebtServiceThreshold = d.DebtServiceThreshold
	}
	if o.UtilizationThreshold <= 0 {
		o.UtilizationThreshold = d.UtilizationThreshold
	}
	if o.HighAPRThreshold <= 0 {
		o.HighAPRThreshold = d.HighAPRThreshold
	}
	return o
}

// Input is the full state of the debt calculator.
type Input struct {
	MonthlyIncome     float64  `json:"monthlyIncome" yaml:"monthlyIncome"`
	ExtraPayment      float64  `json:"extraPayment" yaml:"extraPayment"`
	MonthlyExpenses   float64  `json:"monthlyExpenses" yaml:"monthlyExpenses"`
	CreditScore       int      `json:"creditScore" yaml:"creditScore"`
	ConsolidationRate float64  `json:"consolidationRate" yaml:"consolidationRate"`
	PaymentStrategy   Strategy `json:"paymentStrategy" yaml:"paymentStrategy"`
	Debts             []Debt   `json:"debts" yaml:"debts"`
}

// DefaultInput is the state a new calculator starts from.
func DefaultInput() Input {
	return Input{
		CreditScore:     700,
		PaymentStrategy: Avalanche,
		Debts:           []Debt{},
	}
}

// Summary condenses the plan into headline numbers.
type Summary struct {
	TotalDebt           float64 `json:"totalDebt"`
	TotalMinimumPayment float64 `json:"totalMinimumPayment"`
	WeightedAverageRate float64 `json:"weightedAverageRate"`
	MonthsToPayoff      int     `json:"monthsToPayoff"`
	TotalInterest       float64 `json:"totalInterest"`
	Capped              bool    `json:"capped"`
}

// PayoffStrategy is the order debts are attacked in and the first month's allocation.
type PayoffStrategy struct {
	Strategy          Strategy           `json:"strategy"`
	Order             []string           `json:"order"`
	MonthlyAllocation map[string]float64 `json:"monthlyAllocation"`
}

// ResultMetrics are the ratios shown next to the summary.
type ResultMetrics struct {
	UtilizationRate  float64 `json:"utilizationRate"`
	DebtServiceRatio float64 `json:"debtServiceRatio"`
	// RemainingCashFlow is income minus expenses, minimum payments and the extra payment.
	RemainingCashFlow float64 `json:"remainingCashFlow"`
}

// DebtDetail joins a debt with its projected schedule.
type DebtDetail struct {
	Debt
	Priority      int             `json:"priority"` // 1-based position in the payoff order
	PayoffMonth   int             `json:"payoffMonth"`
	TotalInterest float64         `json:"totalInterest"`
	Schedule      []ScheduleEntry `json:"schedule"`
}

// Result is everything derived from an Input.
type Result struct {
	Summary        Summary        `json:"summary"`
	PayoffStrategy PayoffStrategy `json:"payoffStrategy"`
	Consolidation  Consolidation  `json:"consolidation"`
	Metrics        ResultMetrics  `json:"metrics"`
	DebtDetails    []DebtDetail   `json:"debtDetails"`
	Insights       []Insight      `json:"insights"`
}

// Calculate runs normalizer, metrics, ordering, simulation, consolidation and
// insights in sequence.
func Calculate(in Input, opts Options) Result {
	opts = opts.withDefaults()

	debts := make([]Debt, len(in.Debts))
	for i, d := range in.Debts {
		debts[i] = sanitize(d)
	}
	strategy, err := ParseStrategy(string(in.PaymentStrategy))
	if err != nil {
		strategy = Avalanche
	}
	extra := amount(in.ExtraPayment)
	income := amount(in.MonthlyIncome)
	expenses := amount(in.MonthlyExpenses)
	consolidationRate := clamp(in.ConsolidationRate, 0, MaxInterestRate)

	metrics := Aggregate(debts, income, opts)

	idx := OrderIndices(debts, strategy)
	ordered := make([]Debt, len(idx))
	order := make([]string, len(idx))
	for pos, i := range idx {
		ordered[pos] = debts[i]
		order[pos] = debts[i].Name
	}

	sim := Simulate(ordered, extra)

	details := make([]DebtDetail, len(debts))
	for pos, i := range idx {
		s := sim.Debts[pos]
		details[i] = DebtDetail{
			Debt:          debts[i],
			Priority:      pos + 1,
			PayoffMonth:   s.PayoffMonth,
			TotalInterest: s.TotalInterest,
			Schedule:      s.Schedule,
		}
	}

	return Result{
		Summary: Summary{
			TotalDebt:           metrics.TotalDebt,
			TotalMinimumPayment: metrics.TotalMinimumPayment,
			WeightedAverageRate: metrics.WeightedAverageRate,
			MonthsToPayoff:      sim.MonthsToPayoff,
			TotalInterest:       sim.TotalInterest,
			Capped:              sim.Capped,
		},
		PayoffStrategy: PayoffStrategy{
			Strategy:          strategy,
			Order:             order,
			MonthlyAllocation: allocate(ordered, extra),
		},
		Consolidation: AdviseConsolidation(
			metrics.WeightedAverageRate,
			consolidationRate,
			metrics.TotalDebt,
			opts.ConsolidationHorizonMonths,
		),
		Metrics: ResultMetrics{
			UtilizationRate:   metrics.UtilizationRate,
			DebtServiceRatio:  metrics.DebtServiceRatio,
			RemainingCashFlow: income - expenses - metrics.TotalMinimumPayment - extra,
		},
		DebtDetails: details,
		Insights:    GenerateInsights(metrics, debts, opts),
	}
}

// allocate plans the first month: every debt gets its minimum and the head of
// the order also gets the extra payment.
func allocate(ordered []Debt, extra float64) map[string]float64 {
	alloc := make(map[string]float64, len(ordered))
	for i, d := range ordered {
		amount := d.MinimumPayment
		if i == 0 {
			amount += extra
		}
		alloc[d.Name] += amount
	}
	return alloc
}

// StrategyOutcome is the headline of one strategy's projection.
type StrategyOutcome struct {
	Strategy       Strategy `json:"strategy"`
	Order          []string `json:"order"`
	MonthsToPayoff int      `json:"monthsToPayoff"`
	TotalInterest  float64  `json:"totalInterest"`
	Capped         bool     `json:"capped"`
}

// Comparison puts avalanche and snowball side by side for the same input.
type Comparison struct {
	Avalanche     StrategyOutcome `json:"avalanche"`
	Snowball      StrategyOutcome `json:"snowball"`
	InterestSaved float64         `json:"interestSaved"` // by avalanche over snowball, never negative
	MonthsSaved   int             `json:"monthsSaved"`   // snowball months minus avalanche months
	Recommended   Strategy        `json:"recommended"`
}

// CompareStrategies projects the input under both strategies. The cheaper one is
// recommended; ties go to avalanche.
func CompareStrategies(in Input, opts Options) Comparison {
	outcome := func(s Strategy) StrategyOutcome {
		in.PaymentStrategy = s
		r := Calculate(in, opts)
		return StrategyOutcome{
			Strategy:       s,
			Order:          r.PayoffStrategy.Order,
			MonthsToPayoff: r.Summary.MonthsToPayoff,
			TotalInterest:  r.Summary.TotalInterest,
			Capped:         r.Summary.Capped,
		}
	}

	c := Comparison{
		Avalanche: outcome(Avalanche),
		Snowball:  outcome(Snowball),
	}
	c.InterestSaved = math.Max(0, roundTo2Decimals(c.Snowball.TotalInterest-c.Avalanche.TotalInterest))
	c.MonthsSaved = c.Snowball.MonthsToPayoff - c.Avalanche.MonthsToPayoff
	c.Recommended = Avalanche
	if c.Snowball.TotalInterest < c.Avalanche.TotalInterest {
		c.Recommended = Snowball
	}
	return c
}
