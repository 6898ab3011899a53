// Package trips persists shopping trips, their stops and the calendar tasks
// scheduled against them.
package trips

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/homestead-backend/internal/repo"
	"github.com/angelmondragon/homestead-backend/pkg/db/models"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindTrip(ctx context.Context, householdID, tripID uuid.UUID) (*models.Trip, error)
	NextStopPosition(ctx context.Context, tripID uuid.UUID) (int, error)
	CreateStop(ctx context.Context, stop *models.Stop) error
	UpdateTripStart(ctx context.Context, tripID uuid.UUID, start time.Time) error
	MoveTasksToDate(ctx context.Context, householdID, tripID uuid.UUID, date time.Time) (int, error)
	ListStopsWithPurchases(ctx context.Context, householdID uuid.UUID, from, to *time.Time) ([]models.Stop, error)
	ListTripsStartingBetween(ctx context.Context, householdID uuid.UUID, from, to time.Time) ([]models.Trip, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) FindTrip(ctx context.Context, householdID, tripID uuid.UUID) (*models.Trip, error) {
	var trip models.Trip
	if err := r.DB(ctx).
		Where("household_id = ? AND id = ?", householdID, tripID).
		First(&trip).Error; err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *repository) NextStopPosition(ctx context.Context, tripID uuid.UUID) (int, error) {
	var next int
	if err := r.DB(ctx).
		Model(&models.Stop{}).
		Select("COALESCE(MAX(position) + 1, 0)").
		Where("trip_id = ?", tripID).
		Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

func (r *repository) CreateStop(ctx context.Context, stop *models.Stop) error {
	return r.DB(ctx).Omit("Trip", "Store", "BudgetEntry", "Purchases").Create(stop).Error
}

func (r *repository) UpdateTripStart(ctx context.Context, tripID uuid.UUID, start time.Time) error {
	return r.DB(ctx).
		Model(&models.Trip{}).
		Where("id = ?", tripID).
		Updates(map[string]any{"start_time": start, "updated_at": time.Now().UTC()}).Error
}

// MoveTasksToDate re-dates every task linked to the trip, keeping each task's
// time of day. Tasks without a due time are not scheduled and stay untouched.
func (r *repository) MoveTasksToDate(ctx context.Context, householdID, tripID uuid.UUID, date time.Time) (int, error) {
	var tasks []models.CalendarTask
	if err := r.DB(ctx).
		Where("household_id = ? AND trip_id = ? AND due_at IS NOT NULL", householdID, tripID).
		Find(&tasks).Error; err != nil {
		return 0, err
	}

	moved := 0
	for _, task := range tasks {
		due := OnDate(*task.DueAt, date)
		if due.Equal(*task.DueAt) {
			continue
		}
		if err := r.DB(ctx).
			Model(&models.CalendarTask{}).
			Where("id = ?", task.ID).
			Updates(map[string]any{"due_at": due, "updated_at": time.Now().UTC()}).Error; err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// stopDateExpr is the time a stop is booked on: its arrival, else the start
// of its trip, else when it was recorded.
const stopDateExpr = "COALESCE(stops.arrival_time, (SELECT t.start_time FROM trips t WHERE t.id = stops.trip_id), stops.created_at)"

// ListStopsWithPurchases loads every stop that has at least one purchase or
// a directly linked ledger entry, with its trip, store and purchases. A non
// nil from/to bounds the stop date to [from, to).
func (r *repository) ListStopsWithPurchases(ctx context.Context, householdID uuid.UUID, from, to *time.Time) ([]models.Stop, error) {
	q := r.DB(ctx).
		Preload("Purchases", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Purchases.BudgetEntry").
		Preload("Trip").
		Preload("Store").
		Preload("BudgetEntry").
		Where("stops.household_id = ?", householdID).
		Where("(EXISTS (SELECT 1 FROM purchases p WHERE p.stop_id = stops.id) OR stops.budget_entry_id IS NOT NULL)")
	if from != nil {
		q = q.Where(stopDateExpr+" >= ?", *from)
	}
	if to != nil {
		q = q.Where(stopDateExpr+" < ?", *to)
	}

	var stops []models.Stop
	err := q.Order("stops.arrival_time DESC").Find(&stops).Error
	if err != nil {
		return nil, err
	}
	return stops, nil
}

// ListTripsStartingBetween returns trips with start in [from, to), stops and
// purchases preloaded with each stop's store for tax fallback.
func (r *repository) ListTripsStartingBetween(ctx context.Context, householdID uuid.UUID, from, to time.Time) ([]models.Trip, error) {
	var trips []models.Trip
	err := r.DB(ctx).
		Preload("Stops", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Stops.Store").
		Preload("Stops.Purchases").
		Preload("Stops.BudgetEntry").
		Where("household_id = ? AND start_time >= ? AND start_time < ?", householdID, from, to).
		Order("start_time ASC").
		Find(&trips).Error
	if err != nil {
		return nil, err
	}
	return trips, nil
}

// OnDate returns t moved to the calendar day of date, keeping t's clock time
// and location.
func OnDate(t, date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// SameDay compares calendar days.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
