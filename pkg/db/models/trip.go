package models

import (
	"time"

	"github.com/google/uuid"
)

// Trip is a shopping outing made of ordered stops.
type Trip struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HouseholdID uuid.UUID  `gorm:"column:household_id;type:uuid;not null"`
	Driver      *string    `gorm:"column:driver"`
	StartTime   time.Time  `gorm:"column:start_time;not null"`
	EndTime     *time.Time `gorm:"column:end_time"`
	Notes       *string    `gorm:"column:notes"`
	Stops       []Stop     `gorm:"foreignKey:TripID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Stop is one store visit within a trip. Store name and address are copied
// so the stop survives later store edits.
type Stop struct {
	ID            uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HouseholdID   uuid.UUID    `gorm:"column:household_id;type:uuid;not null"`
	TripID        uuid.UUID    `gorm:"column:trip_id;type:uuid;not null"`
	StoreID       *uuid.UUID   `gorm:"column:store_id;type:uuid"`
	StoreName     string       `gorm:"column:store_name;not null"`
	StoreAddress  *string      `gorm:"column:store_address"`
	ArrivalTime   *time.Time   `gorm:"column:arrival_time"`
	DepartureTime *time.Time   `gorm:"column:departure_time"`
	Position      int          `gorm:"column:position;not null;default:0"`
	Notes         *string      `gorm:"column:notes"`
	BudgetEntryID *uuid.UUID   `gorm:"column:budget_entry_id;type:uuid"`
	Trip          *Trip        `gorm:"foreignKey:TripID"`
	Store         *Store       `gorm:"foreignKey:StoreID"`
	BudgetEntry   *BudgetEntry `gorm:"foreignKey:BudgetEntryID"`
	Purchases     []Purchase   `gorm:"foreignKey:StopID"`
	CreatedAt     time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}
