package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/angelmondragon/homestead-backend/pkg/db/types"
)

// Brand carries optional defaults used to pre-fill future purchases.
type Brand struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HouseholdID     uuid.UUID         `gorm:"column:household_id;type:uuid;not null"`
	Name            string            `gorm:"column:name;not null"`
	DefaultItemName *string           `gorm:"column:default_item_name"`
	DefaultUnit     *string           `gorm:"column:default_unit"`
	DefaultTagIDs   dbtypes.UUIDArray `gorm:"column:default_tag_ids;type:uuid[]"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
