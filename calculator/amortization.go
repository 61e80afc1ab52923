package calculator

import (
	"github.com/shopspring/decimal"
)

const (
	// MaxSimulationMonths caps every simulation at 30 years. A plan that has not
	// converged by then reports exactly this many months.
	MaxSimulationMonths = 360
	// BalanceTolerance is the remaining balance below which a debt counts as paid.
	BalanceTolerance = 0.01
)

var (
	monthsPerYear = decimal.NewFromInt(12)
	hundred       = decimal.NewFromInt(100)
	tolerance     = decimal.NewFromFloat(BalanceTolerance)
)

// ScheduleEntry is one month of a single debt's amortization.
type ScheduleEntry struct {
	Month            int     `json:"month"`
	Payment          float64 `json:"payment"`
	Interest         float64 `json:"interest"`
	Principal        float64 `json:"principal"`
	RemainingBalance float64 `json:"remainingBalance"`
}

// DebtSchedule is the projected payoff of one debt.
type DebtSchedule struct {
	Name          string          `json:"name"`
	PayoffMonth   int             `json:"payoffMonth"` // 0 when there was nothing to pay or the cap was hit
	TotalInterest float64         `json:"totalInterest"`
	TotalPaid     float64         `json:"totalPaid"`
	Schedule      []ScheduleEntry `json:"schedule"`
}

// Simulation is the outcome of a month-by-month payoff projection.
type Simulation struct {
	MonthsToPayoff int            `json:"monthsToPayoff"`
	TotalInterest  float64        `json:"totalInterest"`
	TotalPaid      float64        `json:"totalPaid"`
	Capped         bool           `json:"capped"`
	Debts          []DebtSchedule `json:"debts"` // same order as the input
}

type simDebt struct {
	balance  decimal.Decimal
	rate     decimal.Decimal // monthly, as a fraction
	minimum  decimal.Decimal
	interest decimal.Decimal
	paid     decimal.Decimal
	open     bool
}

// Simulate projects the payoff of debts already sorted in strategy order.
//
// The monthly cash pool is fixed at the sum of all minimum payments plus
// extraPayment. Each month every open debt accrues interest and receives its
// minimum; what is left of the pool, including minimums freed by debts that are
// already extinguished, goes to the first open debt and cascades down the order.
func Simulate(ordered []Debt, extraPayment float64) Simulation {
	sim := Simulation{Debts: make([]DebtSchedule, len(ordered))}
	if len(ordered) == 0 {
		return sim
	}

	state := make([]simDebt, len(ordered))
	pool := decimal.NewFromFloat(amount(extraPayment)).Round(2)
	for i, d := range ordered {
		d = sanitize(d)
		bal := decimal.NewFromFloat(d.Balance).Round(2)
		state[i] = simDebt{
			balance: bal,
			rate:    decimal.NewFromFloat(d.InterestRate).Div(hundred).Div(monthsPerYear),
			minimum: decimal.NewFromFloat(d.MinimumPayment).Round(2),
			open:    bal.GreaterThan(tolerance),
		}
		if !state[i].open {
			state[i].balance = decimal.Zero
		}
		pool = pool.Add(state[i].minimum)
		sim.Debts[i] = DebtSchedule{Name: d.Name, Schedule: []ScheduleEntry{}}
	}

	var totalInterest, totalPaid decimal.Decimal
	months := 0
	for month := 1; month <= MaxSimulationMonths; month++ {
		if !anyOpen(state) {
			break
		}
		months = month

		interest := make([]decimal.Decimal, len(state))
		payment := make([]decimal.Decimal, len(state))
		active := make([]bool, len(state))

		for i := range state {
			if !state[i].open {
				continue
			}
			active[i] = true
			interest[i] = state[i].balance.Mul(state[i].rate).Round(2)
			state[i].balance = state[i].balance.Add(interest[i])
		}

		remaining := pool
		for i := range state {
			if !active[i] {
				continue
			}
			p := decimal.Min(state[i].minimum, state[i].balance, remaining)
			state[i].balance = state[i].balance.Sub(p)
			payment[i] = payment[i].Add(p)
			remaining = remaining.Sub(p)
		}

		for i := range state {
			if !remaining.IsPositive() {
				break
			}
			if !active[i] || !state[i].balance.IsPositive() {
				continue
			}
			p := decimal.Min(remaining, state[i].balance)
			state[i].balance = state[i].balance.Sub(p)
			payment[i] = payment[i].Add(p)
			remaining = remaining.Sub(p)
		}

		for i := range state {
			if !active[i] {
				continue
			}
			if state[i].balance.LessThanOrEqual(tolerance) {
				state[i].balance = decimal.Zero
				state[i].open = false
				sim.Debts[i].PayoffMonth = month
			}
			state[i].interest = state[i].interest.Add(interest[i])
			state[i].paid = state[i].paid.Add(payment[i])
			totalInterest = totalInterest.Add(interest[i])
			totalPaid = totalPaid.Add(payment[i])

			sim.Debts[i].Schedule = append(sim.Debts[i].Schedule, ScheduleEntry{
				Month:            month,
				Payment:          payment[i].InexactFloat64(),
				Interest:         interest[i].InexactFloat64(),
				Principal:        payment[i].Sub(interest[i]).InexactFloat64(),
				RemainingBalance: state[i].balance.InexactFloat64(),
			})
		}
	}

	if anyOpen(state) {
		sim.Capped = true
		months = MaxSimulationMonths
	}

	sim.MonthsToPayoff = months
	sim.TotalInterest = totalInterest.InexactFloat64()
	sim.TotalPaid = totalPaid.InexactFloat64()
	for i := range state {
		sim.Debts[i].TotalInterest = state[i].interest.InexactFloat64()
		sim.Debts[i].TotalPaid = state[i].paid.InexactFloat64()
	}
	return sim
}

func anyOpen(state []simDebt) bool {
	for _, s := range state {
		if s.open {
			return true
		}
	}
	return false
}
