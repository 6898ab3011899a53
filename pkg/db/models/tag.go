package models

import (
	"time"

	"github.com/google/uuid"
)

type Tag struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HouseholdID uuid.UUID `gorm:"column:household_id;type:uuid;not null"`
	Name        string    `gorm:"column:name;not null"`
	Color       *string   `gorm:"column:color"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
