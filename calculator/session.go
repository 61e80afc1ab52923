package calculator

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/spf13/cast"
)

// Field names accepted by Session.UpdateField.
const (
	FieldMonthlyIncome     = "monthlyIncome"
	FieldExtraPayment      = "extraPayment"
	FieldMonthlyExpenses   = "monthlyExpenses"
	FieldCreditScore       = "creditScore"
	FieldConsolidationRate = "consolidationRate"
	FieldPaymentStrategy   = "paymentStrategy"
	FieldDebts             = "debts"
)

// Session owns one calculator input and the result derived from it. Every
// successful UpdateField recomputes the result before returning.
type Session struct {
	mu        sync.RWMutex
	opts      Options
	input     Input
	result    Result
	updatedAt time.Time
}

// NewSession starts a session from DefaultInput.
func NewSession(opts Options) *Session {
	return NewSessionWithInput(DefaultInput(), opts)
}

// NewSessionWithInput starts a session from a stored input.
func NewSessionWithInput(in Input, opts Options) *Session {
	s := &Session{opts: opts, input: cloneInput(in)}
	if s.input.Debts == nil {
		s.input.Debts = []Debt{}
	}
	s.recompute()
	return s
}

// Input returns a copy of the current input.
func (s *Session) Input() Input {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneInput(s.input)
}

// Result returns the result of the latest mutation.
func (s *Session) Result() Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneResult(s.result)
}

// UpdatedAt reports when the session last changed.
func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// UpdateField sets one input field and recomputes the result. Numeric values are
// coerced; an unknown field, strategy or debt type leaves the session unchanged.
func (s *Session) UpdateField(field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	in := cloneInput(s.input)
	switch field {
	case FieldMonthlyIncome:
		in.MonthlyIncome = toFloat(value)
	case FieldExtraPayment:
		in.ExtraPayment = toFloat(value)
	case FieldMonthlyExpenses:
		in.MonthlyExpenses = toFloat(value)
	case FieldCreditScore:
		in.CreditScore = int(toFloat(value))
	case FieldConsolidationRate:
		in.ConsolidationRate = toFloat(value)
	case FieldPaymentStrategy:
		strategy, err := ParseStrategy(cast.ToString(value))
		if err != nil {
			return err
		}
		in.PaymentStrategy = strategy
	case FieldDebts:
		debts, err := debtsFromValue(value)
		if err != nil {
			return fmt.Errorf("%s: %w", FieldDebts, err)
		}
		in.Debts = debts
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	s.input = in
	s.recompute()
	return nil
}

// Calculate computes the result off the caller's goroutine. The channel yields
// one Result and is closed; it is closed without a value if ctx ends first.
func (s *Session) Calculate(ctx context.Context) <-chan Result {
	out := make(chan Result, 1)
	in := s.Input()
	go func() {
		defer close(out)
		if ctx.Err() != nil {
			return
		}
		r := Calculate(in, s.opts)
		if ctx.Err() != nil {
			return
		}
		out <- r
	}()
	return out
}

func (s *Session) recompute() {
	s.result = Calculate(s.input, s.opts)
	s.updatedAt = time.Now()
}

func debtsFromValue(value any) ([]Debt, error) {
	switch v := value.(type) {
	case nil:
		return []Debt{}, nil
	case []Debt:
		out := make([]Debt, len(v))
		for i, d := range v {
			if _, err := ParseDebtType(string(d.Type)); err != nil {
				return nil, err
			}
			out[i] = sanitize(d)
		}
		return out, nil
	case []RawDebt:
		return NormalizeDebts(v)
	case []any:
		raws := make([]RawDebt, 0, len(v))
		for i, item := range v {
			m, err := cast.ToStringMapE(item)
			if err != nil {
				return nil, fmt.Errorf("debt %d: %w", i, err)
			}
			raws = append(raws, RawDebt{
				Name:           cast.ToString(m["name"]),
				Balance:        m["balance"],
				InterestRate:   m["interestRate"],
				MinimumPayment: m["minimumPayment"],
				Type:           cast.ToString(m["type"]),
				IsDeductible:   m["isDeductible"],
			})
		}
		return NormalizeDebts(raws)
	default:
		return nil, fmt.Errorf("unsupported value of type %T", value)
	}
}

// cloneResult copies every map and slice of r so callers cannot reach session state.
func cloneResult(r Result) Result {
	r.PayoffStrategy.Order = slices.Clone(r.PayoffStrategy.Order)
	r.PayoffStrategy.MonthlyAllocation = maps.Clone(r.PayoffStrategy.MonthlyAllocation)
	r.DebtDetails = slices.Clone(r.DebtDetails)
	for i := range r.DebtDetails {
		r.DebtDetails[i].Schedule = slices.Clone(r.DebtDetails[i].Schedule)
	}
	r.Insights = slices.Clone(r.Insights)
	return r
}

func cloneInput(in Input) Input {
	if in.Debts != nil {
		in.Debts = append([]Debt(nil), in.Debts...)
	}
	return in
}
