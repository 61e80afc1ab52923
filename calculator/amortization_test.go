package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulate_NoDebts(t *testing.T) {
	sim := Simulate(nil, 500)
	assert.Equal(t, 0, sim.MonthsToPayoff)
	assert.Empty(t, sim.Debts)
	assert.False(t, sim.Capped)
}

func TestSimulate_ZeroInterestExactMonths(t *testing.T) {
	sim := Simulate([]Debt{{Name: "flat", Balance: 1200, MinimumPayment: 100}}, 0)
	assert.Equal(t, 12, sim.MonthsToPayoff)
	assert.Equal(t, 0.0, sim.TotalInterest)
	require.Len(t, sim.Debts[0].Schedule, 12)
	assert.Equal(t, 12, sim.Debts[0].PayoffMonth)

	last := sim.Debts[0].Schedule[11]
	assert.Equal(t, 0.0, last.RemainingBalance)
	assert.Equal(t, 100.0, last.Principal)
}

func TestSimulate_InterestAccruesMonthly(t *testing.T) {
	sim := Simulate([]Debt{{Name: "card", Balance: 1000, InterestRate: 12, MinimumPayment: 100}}, 0)
	first := sim.Debts[0].Schedule[0]
	assert.Equal(t, 10.0, first.Interest)
	assert.Equal(t, 100.0, first.Payment)
	assert.Equal(t, 90.0, first.Principal)
	assert.Equal(t, 910.0, first.RemainingBalance)
}

func TestSimulate_LastPaymentCappedAtBalance(t *testing.T) {
	sim := Simulate([]Debt{{Name: "small", Balance: 150, MinimumPayment: 100}}, 0)
	require.Len(t, sim.Debts[0].Schedule, 2)
	assert.Equal(t, 50.0, sim.Debts[0].Schedule[1].Payment)
	assert.Equal(t, 150.0, sim.TotalPaid)
}

func TestSimulate_ExtraGoesToHead(t *testing.T) {
	ordered := []Debt{
		{Name: "head", Balance: 1000, MinimumPayment: 50},
		{Name: "tail", Balance: 1000, MinimumPayment: 50},
	}
	sim := Simulate(ordered, 200)
	assert.Equal(t, 250.0, sim.Debts[0].Schedule[0].Payment)
	assert.Equal(t, 50.0, sim.Debts[1].Schedule[0].Payment)
}

func TestSimulate_RollsFreedMinimumsForward(t *testing.T) {
	ordered := []Debt{
		{Name: "head", Balance: 300, MinimumPayment: 100},
		{Name: "tail", Balance: 2000, MinimumPayment: 100},
	}
	sim := Simulate(ordered, 0)

	assert.Equal(t, 3, sim.Debts[0].PayoffMonth)
	// From month 4 the tail receives the whole 200 pool.
	assert.Equal(t, 200.0, sim.Debts[1].Schedule[3].Payment)
	// 300 paid off by month 3, tail then has 1700 left at 200/month.
	assert.Equal(t, 12, sim.MonthsToPayoff)

	withoutRoll := 2000 / 100
	assert.Less(t, sim.MonthsToPayoff, withoutRoll)
}

func TestSimulate_SurplusCascadesWithinMonth(t *testing.T) {
	ordered := []Debt{
		{Name: "tiny", Balance: 20, MinimumPayment: 10},
		{Name: "next", Balance: 500, MinimumPayment: 10},
	}
	sim := Simulate(ordered, 100)
	assert.Equal(t, 20.0, sim.Debts[0].Schedule[0].Payment)
	assert.Equal(t, 100.0, sim.Debts[1].Schedule[0].Payment)
	assert.Equal(t, 1, sim.Debts[0].PayoffMonth)
}

func TestSimulate_NonConvergentStopsAtCap(t *testing.T) {
	sim := Simulate([]Debt{{Name: "underwater", Balance: 10000, InterestRate: 24, MinimumPayment: 50}}, 0)
	assert.True(t, sim.Capped)
	assert.Equal(t, MaxSimulationMonths, sim.MonthsToPayoff)
	assert.Len(t, sim.Debts[0].Schedule, MaxSimulationMonths)
	assert.Greater(t, sim.Debts[0].Schedule[MaxSimulationMonths-1].RemainingBalance, 10000.0)
}

func TestSimulate_ZeroMinimumNeverExceedsCap(t *testing.T) {
	for _, rate := range []float64{0, 5, 30} {
		sim := Simulate([]Debt{{Name: "frozen", Balance: 500, InterestRate: rate}}, 0)
		assert.Equal(t, MaxSimulationMonths, sim.MonthsToPayoff)
	}
}
