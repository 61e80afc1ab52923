package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/forbiddenlink/finance-quest-sub016/calculator"
	"github.com/forbiddenlink/finance-quest-sub016/models"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ScenarioDebtDTO is one debt of a saved scenario
type ScenarioDebtDTO struct {
	Name           string  `json:"name" validate:"required,max=100"`
	Balance        float64 `json:"balance" validate:"gte=0,lte=999999999999"`
	InterestRate   float64 `json:"interestRate" validate:"gte=0,lte=100"`
	MinimumPayment float64 `json:"minimumPayment" validate:"gte=0,lte=999999999999"`
	Type           string  `json:"type" validate:"omitempty,oneof=credit_card personal_loan mortgage auto_loan student_loan medical other"`
	IsDeductible   bool    `json:"isDeductible"`
}

// CreateScenarioDTO is the payload for saving a calculator scenario
type CreateScenarioDTO struct {
	Name              string            `json:"name" validate:"required,max=100"`
	MonthlyIncome     float64           `json:"monthlyIncome" validate:"gte=0,lte=999999999999"`
	ExtraPayment      float64           `json:"extraPayment" validate:"gte=0,lte=999999999999"`
	MonthlyExpenses   float64           `json:"monthlyExpenses" validate:"gte=0,lte=999999999999"`
	CreditScore       int               `json:"creditScore" validate:"omitempty,gte=300,lte=850"`
	ConsolidationRate float64           `json:"consolidationRate" validate:"gte=0,lte=100"`
	PaymentStrategy   string            `json:"paymentStrategy" validate:"omitempty,oneof=avalanche snowball"`
	Debts             []ScenarioDebtDTO `json:"debts" validate:"max=50,dive"`
	UserID            uint              `json:"-" validate:"required"`
}

// UpdateScenarioDTO replaces every field of a saved scenario
type UpdateScenarioDTO struct {
	CreateScenarioDTO
	ID uint `json:"-" validate:"required"`
}

// Input converts the payload into calculator input
func (dto CreateScenarioDTO) Input() calculator.Input {
	in := calculator.DefaultInput()
	in.MonthlyIncome = dto.MonthlyIncome
	in.ExtraPayment = dto.ExtraPayment
	in.MonthlyExpenses = dto.MonthlyExpenses
	if dto.CreditScore != 0 {
		in.CreditScore = dto.CreditScore
	}
	in.ConsolidationRate = dto.ConsolidationRate
	if dto.PaymentStrategy != "" {
		in.PaymentStrategy = calculator.Strategy(dto.PaymentStrategy)
	}
	for _, d := range dto.Debts {
		debtType := calculator.DebtType(d.Type)
		if debtType == "" {
			debtType = calculator.DebtTypeOther
		}
		in.Debts = append(in.Debts, calculator.Debt{
			Name:           d.Name,
			Balance:        d.Balance,
			InterestRate:   d.InterestRate,
			MinimumPayment: d.MinimumPayment,
			Type:           debtType,
			IsDeductible:   d.IsDeductible,
		})
	}
	return in
}

// ScenarioService stores calculator scenarios per user
type ScenarioService struct {
	db         *gorm.DB
	validator  *validator.Validate
	calculator *CalculatorService
}

func NewScenarioService(db *gorm.DB, calc *CalculatorService) *ScenarioService {
	return &ScenarioService{
		db:         db,
		validator:  validator.New(),
		calculator: calc,
	}
}

// Create saves a new scenario with its debts
func (s *ScenarioService) Create(dto CreateScenarioDTO) (*models.Scenario, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, validationError(err)
	}

	scenario := &models.Scenario{UserID: dto.UserID, Name: dto.Name}
	scenario.SetInput(dto.Input())

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Omit("Debts").Create(scenario).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := s.saveDebts(tx, scenario); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return scenario, nil
}

// List returns the scenarios of a user, newest first
func (s *ScenarioService) List(userID uint) ([]models.Scenario, error) {
	var scenarios []models.Scenario
	if err := s.db.Where("user_id = ?", userID).
		Preload("Debts", orderByPosition).
		Order("created_at DESC, id DESC").
		Find(&scenarios).Error; err != nil {
		return nil, err
	}
	return scenarios, nil
}

// Get returns a scenario owned by userID
func (s *ScenarioService) Get(id, userID uint) (*models.Scenario, error) {
	return s.find(s.db, id, userID)
}

// Update replaces a scenario and its debts
func (s *ScenarioService) Update(dto UpdateScenarioDTO) (*models.Scenario, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, validationError(err)
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	scenario, err := s.find(tx, dto.ID, dto.UserID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Where("scenario_id = ?", scenario.ID).Delete(&models.ScenarioDebt{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	scenario.Name = dto.Name
	scenario.SetInput(dto.Input())
	if err := tx.Omit("Debts").Save(scenario).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := s.saveDebts(tx, scenario); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return scenario, nil
}

// Delete removes a scenario and its debts
func (s *ScenarioService) Delete(id, userID uint) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	scenario, err := s.find(tx, id, userID)
	if err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Where("scenario_id = ?", scenario.ID).Delete(&models.ScenarioDebt{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&models.Scenario{}, scenario.ID).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// Evaluate runs the calculator on a stored scenario
func (s *ScenarioService) Evaluate(ctx context.Context, id, userID uint) (*models.Scenario, calculator.Result, error) {
	scenario, err := s.find(s.db.WithContext(ctx), id, userID)
	if err != nil {
		return nil, calculator.Result{}, err
	}

	subject := strconv.FormatUint(uint64(userID), 10)
	result, err := s.calculator.Calculate(ctx, subject, scenario.Input())
	if err != nil {
		return nil, calculator.Result{}, err
	}
	return scenario, result, nil
}

func (s *ScenarioService) find(db *gorm.DB, id, userID uint) (*models.Scenario, error) {
	var scenario models.Scenario
	if err := db.Preload("Debts", orderByPosition).First(&scenario, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScenarioNotFound
		}
		return nil, err
	}
	if scenario.UserID != userID {
		return nil, ErrAccessDenied
	}
	return &scenario, nil
}

func (s *ScenarioService) saveDebts(tx *gorm.DB, scenario *models.Scenario) error {
	if len(scenario.Debts) == 0 {
		return nil
	}
	for i := range scenario.Debts {
		scenario.Debts[i].ScenarioID = scenario.ID
	}
	return tx.Create(&scenario.Debts).Error
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("scenario_debts.position ASC")
}
