package models

import (
	"time"

	"github.com/google/uuid"
)

// CalendarTask is the slice of the task table the ledger touches: tasks
// scheduled for a shopping trip move with the trip date.
type CalendarTask struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HouseholdID uuid.UUID  `gorm:"column:household_id;type:uuid;not null"`
	Title       string     `gorm:"column:title;not null"`
	TripID      *uuid.UUID `gorm:"column:trip_id;type:uuid"`
	DueAt       *time.Time `gorm:"column:due_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
