package models

import (
	"time"

	"github.com/google/uuid"
)

// Unit is a household-scoped measurement label such as "oz" or "gal".
type Unit struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HouseholdID uuid.UUID `gorm:"column:household_id;type:uuid;not null"`
	Name        string    `gorm:"column:name;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
