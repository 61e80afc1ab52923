package models

import (
	"time"

	"github.com/forbiddenlink/finance-quest-sub016/calculator"
)

// Scenario is a saved calculator input owned by a user
type Scenario struct {
	ID                uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            uint           `gorm:"column:user_id;not null;index" json:"userId"`
	Name              string         `gorm:"column:name;not null;size:100" json:"name"`
	MonthlyIncome     float64        `gorm:"column:monthly_income;type:numeric(14,2);not null;default:0" json:"monthlyIncome"`
	ExtraPayment      float64        `gorm:"column:extra_payment;type:numeric(14,2);not null;default:0" json:"extraPayment"`
	MonthlyExpenses   float64        `gorm:"column:monthly_expenses;type:numeric(14,2);not null;default:0" json:"monthlyExpenses"`
	CreditScore       int            `gorm:"column:credit_score;not null;default:700" json:"creditScore"`
	ConsolidationRate float64        `gorm:"column:consolidation_rate;type:numeric(6,3);not null;default:0" json:"consolidationRate"`
	PaymentStrategy   string         `gorm:"column:payment_strategy;type:varchar(20);not null;default:'avalanche'" json:"paymentStrategy"`
	Debts             []ScenarioDebt `gorm:"foreignKey:ScenarioID;constraint:OnDelete:CASCADE" json:"debts"`
	CreatedAt         time.Time      `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (Scenario) TableName() string {
	return "scenarios"
}

// ScenarioDebt is one debt row of a saved scenario. Position keeps the order
// the debts were entered in.
type ScenarioDebt struct {
	ID             uint    `gorm:"primaryKey;autoIncrement" json:"-"`
	ScenarioID     uint    `gorm:"column:scenario_id;not null;index" json:"-"`
	Position       int     `gorm:"column:position;not null" json:"-"`
	Name           string  `gorm:"column:name;not null;size:100" json:"name"`
	Balance        float64 `gorm:"column:balance;type:numeric(14,2);not null" json:"balance"`
	InterestRate   float64 `gorm:"column:interest_rate;type:numeric(6,3);not null" json:"interestRate"`
	MinimumPayment float64 `gorm:"column:minimum_payment;type:numeric(14,2);not null" json:"minimumPayment"`
	Type           string  `gorm:"column:type;type:varchar(20);not null;default:'other'" json:"type"`
	IsDeductible   bool    `gorm:"column:is_deductible;not null;default:false" json:"isDeductible"`
}

func (ScenarioDebt) TableName() string {
	return "scenario_debts"
}

// Input converts the stored scenario into calculator input
func (s *Scenario) Input() calculator.Input {
	in := calculator.Input{
		MonthlyIncome:     s.MonthlyIncome,
		ExtraPayment:      s.ExtraPayment,
		MonthlyExpenses:   s.MonthlyExpenses,
		CreditScore:       s.CreditScore,
		ConsolidationRate: s.ConsolidationRate,
		PaymentStrategy:   calculator.Strategy(s.PaymentStrategy),
		Debts:             make([]calculator.Debt, 0, len(s.Debts)),
	}
	for _, d := range s.Debts {
		in.Debts = append(in.Debts, calculator.Debt{
			Name:           d.Name,
			Balance:        d.Balance,
			InterestRate:   d.InterestRate,
			MinimumPayment: d.MinimumPayment,
			Type:           calculator.DebtType(d.Type),
			IsDeductible:   d.IsDeductible,
		})
	}
	return in
}

// SetInput replaces the scenario fields and debts with in
func (s *Scenario) SetInput(in calculator.Input) {
	s.MonthlyIncome = in.MonthlyIncome
	s.ExtraPayment = in.ExtraPayment
	s.MonthlyExpenses = in.MonthlyExpenses
	s.CreditScore = in.CreditScore
	s.ConsolidationRate = in.ConsolidationRate
	s.PaymentStrategy = string(in.PaymentStrategy)
	if s.PaymentStrategy == "" {
		s.PaymentStrategy = string(calculator.Avalanche)
	}

	s.Debts = make([]ScenarioDebt, 0, len(in.Debts))
	for i, d := range in.Debts {
		s.Debts = append(s.Debts, ScenarioDebt{
			ScenarioID:     s.ID,
			Position:       i,
			Name:           d.Name,
			Balance:        d.Balance,
			InterestRate:   d.InterestRate,
			MinimumPayment: d.MinimumPayment,
			Type:           string(d.Type),
			IsDeductible:   d.IsDeductible,
		})
	}
}
