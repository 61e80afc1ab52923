package calculator

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// DebtType is the category of a liability. It only affects insights and display.
type DebtType string

const (
	DebtTypeCreditCard   DebtType = "credit_card"
	DebtTypePersonalLoan DebtType = "personal_loan"
	DebtTypeMortgage     DebtType = "mortgage"
	DebtTypeAutoLoan     DebtType = "auto_loan"
	DebtTypeStudentLoan  DebtType = "student_loan"
	DebtTypeMedical      DebtType = "medical"
	DebtTypeOther        DebtType = "other"
)

// MaxInterestRate is the upper bound of an annual percentage rate.
const MaxInterestRate = 100.0

// MaxAmount is the largest currency amount a balance, payment or income may hold.
// Larger values are clamped so sums and simulations stay finite.
const MaxAmount = 1e12

var (
	ErrUnknownDebtType = errors.New("unknown debt type")
	ErrUnknownStrategy = errors.New("unknown payment strategy")
	ErrUnknownField    = errors.New("unknown calculator field")
)

var debtTypes = map[DebtType]struct{}{
	DebtTypeCreditCard:   {},
	DebtTypePersonalLoan: {},
	DebtTypeMortgage:     {},
	DebtTypeAutoLoan:     {},
	DebtTypeStudentLoan:  {},
	DebtTypeMedical:      {},
	DebtTypeOther:        {},
}

// ParseDebtType converts a raw tag into a DebtType. An empty tag means DebtTypeOther.
func ParseDebtType(s string) (DebtType, error) {
	t := DebtType(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return DebtTypeOther, nil
	}
	if _, ok := debtTypes[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDebtType, s)
	}
	return t, nil
}

// Debt is a single normalized liability.
type Debt struct {
	Name           string   `json:"name" yaml:"name"`
	Balance        float64  `json:"balance" yaml:"balance"`
	InterestRate   float64  `json:"interestRate" yaml:"interestRate"`
	MinimumPayment float64  `json:"minimumPayment" yaml:"minimumPayment"`
	Type           DebtType `json:"type" yaml:"type"`
	IsDeductible   bool     `json:"isDeductible" yaml:"isDeductible"`
}

// RawDebt is a debt entry as it arrives from a form, a file or a JSON body.
// Numeric fields may hold numbers or numeric strings.
type RawDebt struct {
	Name           string `json:"name" yaml:"name"`
	Balance        any    `json:"balance" yaml:"balance"`
	InterestRate   any    `json:"interestRate" yaml:"interestRate"`
	MinimumPayment any    `json:"minimumPayment" yaml:"minimumPayment"`
	Type           string `json:"type" yaml:"type"`
	IsDeductible   any    `json:"isDeductible" yaml:"isDeductible"`
}

// NormalizeDebt shapes a raw entry into a Debt. Numbers are coerced rather than
// rejected: non-numeric values become 0, negatives clamp to 0 and the rate is
// clamped to [0, MaxInterestRate]. Only an unknown type is an error.
func NormalizeDebt(raw RawDebt) (Debt, error) {
	t, err := ParseDebtType(raw.Type)
	if err != nil {
		return Debt{}, err
	}
	return Debt{
		Name:           strings.TrimSpace(raw.Name),
		Balance:        amount(toFloat(raw.Balance)),
		InterestRate:   clamp(toFloat(raw.InterestRate), 0, MaxInterestRate),
		MinimumPayment: amount(toFloat(raw.MinimumPayment)),
		Type:           t,
		IsDeductible:   cast.ToBool(raw.IsDeductible),
	}, nil
}

// NormalizeDebts normalizes every entry, keeping input order. Entries that fail
// are skipped and reported together.
func NormalizeDebts(raws []RawDebt) ([]Debt, error) {
	debts := make([]Debt, 0, len(raws))
	var errs []error
	for i, raw := range raws {
		d, err := NormalizeDebt(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("debt %d (%s): %w", i, raw.Name, err))
			continue
		}
		debts = append(debts, d)
	}
	return debts, errors.Join(errs...)
}

// sanitize applies the numeric guards of NormalizeDebt to an already typed debt.
func sanitize(d Debt) Debt {
	d.Balance = amount(d.Balance)
	d.InterestRate = clamp(d.InterestRate, 0, MaxInterestRate)
	d.MinimumPayment = amount(d.MinimumPayment)
	if d.Type == "" {
		d.Type = DebtTypeOther
	}
	return d
}

func toFloat(v any) float64 {
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func nonNegative(f float64) float64 {
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// amount guards a currency value into [0, MaxAmount].
func amount(f float64) float64 {
	return math.Min(nonNegative(f), MaxAmount)
}

func clamp(f, lo, hi float64) float64 {
	if f < lo || math.IsNaN(f) {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}
