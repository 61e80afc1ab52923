package calculator

import "math"

// Consolidation is the outcome of comparing the current blended rate with a
// consolidation loan.
type Consolidation struct {
	IsRecommended    bool    `json:"isRecommended"`
	PotentialSavings float64 `json:"potentialSavings"`
	CurrentRate      float64 `json:"currentRate"`
	ProposedRate     float64 `json:"proposedRate"`
	HorizonMonths    int     `json:"horizonMonths"`
}

// AdviseConsolidation recommends consolidating when consolidationRate is strictly
// below weightedAverageRate. Savings are the rate differential applied to the total
// balance over horizonMonths, and are never negative.
func AdviseConsolidation(weightedAverageRate, consolidationRate, totalDebt float64, horizonMonths int) Consolidation {
	c := Consolidation{
		CurrentRate:   weightedAverageRate,
		ProposedRate:  consolidationRate,
		HorizonMonths: horizonMonths,
	}
	if !(consolidationRate < weightedAverageRate) {
		return c
	}

	c.IsRecommended = true
	if totalDebt > 0 && horizonMonths > 0 {
		diff := (weightedAverageRate - consolidationRate) / 100
		c.PotentialSavings = math.Max(0, roundTo2Decimals(totalDebt*diff*float64(horizonMonths)/12))
	}
	return c
}

func roundTo2Decimals(value float64) float64 {
	return math.Round(value*100) / 100
}
