package calculator

import (
	"fmt"
	"sort"
	"strings"
)

// Strategy decides which debt receives the discretionary cash first.
type Strategy string

const (
	// Avalanche pays the highest interest rate first.
	Avalanche Strategy = "avalanche"
	// Snowball pays the smallest balance first.
	Snowball Strategy = "snowball"
)

// ParseStrategy accepts "avalanche" or "snowball". An empty value means Avalanche.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Avalanche:
		return Avalanche, nil
	case Snowball:
		return Snowball, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// OrderIndices returns the positions of debts in payoff order. Ties keep input order.
func OrderIndices(debts []Debt, strategy Strategy) []int {
	idx := make([]int, len(debts))
	for i := range idx {
		idx[i] = i
	}

	switch strategy {
	case Snowball:
		sort.SliceStable(idx, func(a, b int) bool {
			return debts[idx[a]].Balance < debts[idx[b]].Balance
		})
	default:
		sort.SliceStable(idx, func(a, b int) bool {
			return debts[idx[a]].InterestRate > debts[idx[b]].InterestRate
		})
	}
	return idx
}

// Order returns the debts sorted for the given strategy. The input is not modified.
func Order(debts []Debt, strategy Strategy) []Debt {
	ordered := make([]Debt, 0, len(debts))
	for _, i := range OrderIndices(debts, strategy) {
		ordered = append(ordered, debts[i])
	}
	return ordered
}

// OrderNames returns debt names in payoff order.
func OrderNames(debts []Debt, strategy Strategy) []string {
	names := make([]string, 0, len(debts))
	for _, i := range OrderIndices(debts, strategy) {
		names = append(names, debts[i].Name)
	}
	return names
}
