package models

import "time"

// ProgressEvent records that a user or an anonymous session used a calculator
type ProgressEvent struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Subject    string    `gorm:"column:subject;not null;size:64;index" json:"subject"` // user id or session id
	Calculator string    `gorm:"column:calculator;not null;size:50" json:"calculator"`
	Action     string    `gorm:"column:action;not null;size:50" json:"action"`
	CreatedAt  time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"createdAt"`
}

func (ProgressEvent) TableName() string {
	return "progress_events"
}
