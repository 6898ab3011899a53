package trips

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/homestead-backend/internal/repo/repotest"
	pkgdb "github.com/angelmondragon/homestead-backend/pkg/db"
	"github.com/angelmondragon/homestead-backend/pkg/db/models"
	"github.com/angelmondragon/homestead-backend/pkg/enums"
)

func seedTrip(t *testing.T, db *gorm.DB, household uuid.UUID, start time.Time) *models.Trip {
	t.Helper()
	trip := &models.Trip{HouseholdID: household, StartTime: start}
	require.NoError(t, db.Omit("Stops").Create(trip).Error)
	return trip
}

func TestFindTripScopedToHousehold(t *testing.T) {
	db := repotest.Open(t)
	r := NewRepository(db)
	ctx := context.Background()
	household := uuid.New()
	trip := seedTrip(t, db, household, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	found, err := r.FindTrip(ctx, household, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, trip.ID, found.ID)

	_, err = r.FindTrip(ctx, uuid.New(), trip.ID)
	assert.True(t, pkgdb.IsNotFound(err))
}

func TestNextStopPosition(t *testing.T) {
	db := repotest.Open(t)
	r := NewRepository(db)
	ctx := context.Background()
	household := uuid.New()
	trip := seedTrip(t, db, household, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	pos, err := r.NextStopPosition(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pos)

	require.NoError(t, r.CreateStop(ctx, &models.Stop{HouseholdID: household, TripID: trip.ID, StoreName: "Aldi", Position: pos}))

	pos, err = r.NextStopPosition(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
}

func TestMoveTasksToDateKeepsClockTime(t *testing.T) {
	db := repotest.Open(t)
	r := NewRepository(db)
	ctx := context.Background()
	household := uuid.New()
	trip := seedTrip(t, db, household, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	due := time.Date(2026, 3, 1, 17, 30, 0, 0, time.UTC)
	task := &models.CalendarTask{HouseholdID: household, Title: "Groceries", TripID: &trip.ID, DueAt: &due}
	unscheduled := &models.CalendarTask{HouseholdID: household, Title: "List", TripID: &trip.ID}
	require.NoError(t, db.Create(task).Error)
	require.NoError(t, db.Create(unscheduled).Error)

	moved, err := r.MoveTasksToDate(ctx, household, trip.ID, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	var reloaded models.CalendarTask
	require.NoError(t, db.First(&reloaded, "id = ?", task.ID).Error)
	require.NotNil(t, reloaded.DueAt)
	assert.True(t, time.Date(2026, 3, 4, 17, 30, 0, 0, time.UTC).Equal(*reloaded.DueAt))

	require.NoError(t, db.First(&reloaded, "id = ?", unscheduled.ID).Error)
	assert.Nil(t, reloaded.DueAt)
}

func TestListTripsStartingBetweenPreloadsTree(t *testing.T) {
	db := repotest.Open(t)
	r := NewRepository(db)
	ctx := context.Background()
	household := uuid.New()

	store := &models.Store{HouseholdID: household, Name: "Aldi", TaxRate: decimal.RequireFromString("0.08")}
	require.NoError(t, db.Create(store).Error)

	inMonth := seedTrip(t, db, household, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	seedTrip(t, db, household, time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))

	stop := &models.Stop{HouseholdID: household, TripID: inMonth.ID, StoreID: &store.ID, StoreName: store.Name}
	require.NoError(t, r.CreateStop(ctx, stop))

	entry := &models.BudgetEntry{HouseholdID: household, Date: inMonth.StartTime, Amount: decimal.RequireFromString("21.60"), Type: enums.BudgetEntryTypeExpense}
	require.NoError(t, db.Create(entry).Error)
	purchase := &models.Purchase{HouseholdID: household, StopID: &stop.ID, BudgetEntryID: entry.ID, BrandName: "Generic", ItemName: "Coffee", Taxable: true, TotalPrice: decimal.RequireFromString("20")}
	require.NoError(t, db.Omit("BudgetEntry").Create(purchase).Error)

	trips, err := r.ListTripsStartingBetween(ctx, household,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, trips, 1)
	require.Len(t, trips[0].Stops, 1)
	require.NotNil(t, trips[0].Stops[0].Store)
	assert.True(t, decimal.RequireFromString("0.08").Equal(trips[0].Stops[0].Store.TaxRate))
	require.Len(t, trips[0].Stops[0].Purchases, 1)

	stops, err := r.ListStopsWithPurchases(ctx, household, nil, nil)
	require.NoError(t, err)
	require.Len(t, stops, 1)
	require.NotNil(t, stops[0].Trip)
	require.NotNil(t, stops[0].Purchases[0].BudgetEntry)
	assert.Equal(t, entry.ID, stops[0].Purchases[0].BudgetEntry.ID)
}

func TestListStopsWithPurchasesBoundsByStopDate(t *testing.T) {
	db := repotest.Open(t)
	r := NewRepository(db)
	ctx := context.Background()
	household := uuid.New()

	march := seedTrip(t, db, household, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	april := seedTrip(t, db, household, time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC))

	// Booked on the trip start.
	fromTrip := &models.Stop{HouseholdID: household, TripID: march.ID, StoreName: "Aldi"}
	// Arrival overrides the trip start.
	late := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	arrivedLate := &models.Stop{HouseholdID: household, TripID: march.ID, StoreName: "Costco", Position: 1, ArrivalTime: &late}
	outside := &models.Stop{HouseholdID: household, TripID: april.ID, StoreName: "Target"}
	for _, stop := range []*models.Stop{fromTrip, arrivedLate, outside} {
		require.NoError(t, r.CreateStop(ctx, stop))
		entry := &models.BudgetEntry{HouseholdID: household, Date: march.StartTime, Amount: decimal.RequireFromString("5"), Type: enums.BudgetEntryTypeExpense}
		require.NoError(t, db.Create(entry).Error)
		purchase := &models.Purchase{HouseholdID: household, StopID: &stop.ID, BudgetEntryID: entry.ID, BrandName: "Generic", ItemName: "Bread", TotalPrice: decimal.RequireFromString("5")}
		require.NoError(t, db.Omit("BudgetEntry").Create(purchase).Error)
	}

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	stops, err := r.ListStopsWithPurchases(ctx, household, &from, &to)
	require.NoError(t, err)
	require.Len(t, stops, 1)
	assert.Equal(t, fromTrip.ID, stops[0].ID)

	to = time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	stops, err = r.ListStopsWithPurchases(ctx, household, &from, &to)
	require.NoError(t, err)
	require.Len(t, stops, 2)
	assert.Equal(t, arrivedLate.ID, stops[0].ID)

	stops, err = r.ListStopsWithPurchases(ctx, household, &to, nil)
	require.NoError(t, err)
	require.Len(t, stops, 1)
	assert.Equal(t, outside.ID, stops[0].ID)
}

func TestOnDateAndSameDay(t *testing.T) {
	clock := time.Date(2026, 1, 2, 14, 5, 9, 0, time.UTC)
	moved := OnDate(clock, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 2, 20, 14, 5, 9, 0, time.UTC), moved)

	assert.True(t, SameDay(moved, time.Date(2026, 2, 20, 23, 59, 0, 0, time.UTC)))
	assert.False(t, SameDay(moved, clock))
}
