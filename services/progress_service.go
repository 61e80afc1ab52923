package services

import (
	"context"
	"fmt"

	"github.com/forbiddenlink/finance-quest-sub016/models"
	"gorm.io/gorm"
)

// ProgressTracker records that a calculator was used
type ProgressTracker interface {
	Record(ctx context.Context, subject, calculatorName, action string) error
}

// CalculatorDebt names the debt calculator in progress events
const CalculatorDebt = "debt"

// ProgressService persists progress events with gorm
type ProgressService struct {
	db *gorm.DB
}

func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{db: db}
}

func (s *ProgressService) Record(ctx context.Context, subject, calculatorName, action string) error {
	event := &models.ProgressEvent{
		Subject:    subject,
		Calculator: calculatorName,
		Action:     action,
	}
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("record progress: %w", err)
	}
	return nil
}

// List returns the events of subject, newest first
func (s *ProgressService) List(ctx context.Context, subject string) ([]models.ProgressEvent, error) {
	var events []models.ProgressEvent
	if err := s.db.WithContext(ctx).
		Where("subject = ?", subject).
		Order("created_at DESC, id DESC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Counts returns how many events subject has per calculator
func (s *ProgressService) Counts(ctx context.Context, subject string) (map[string]int64, error) {
	var rows []struct {
		Calculator string
		Total      int64
	}
	if err := s.db.WithContext(ctx).
		Model(&models.ProgressEvent{}).
		Select("calculator, COUNT(*) AS total").
		Where("subject = ?", subject).
		Group("calculator").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Calculator] = row.Total
	}
	return counts, nil
}

type nopProgress struct{}

func (nopProgress) Record(context.Context, string, string, string) error { return nil }

// NopProgressTracker discards every event
var NopProgressTracker ProgressTracker = nopProgress{}
