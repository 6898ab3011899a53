// Package budget reads the household ledger: individual entries, shopping
// stops rolled up into single expenses, and monthly totals.
package budget

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/homestead-backend/internal/purchases"
	"github.com/angelmondragon/homestead-backend/internal/trips"
	"github.com/angelmondragon/homestead-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/homestead-backend/pkg/errors"
)

type Service interface {
	ListLedger(ctx context.Context, householdID uuid.UUID, filters Filters) ([]LedgerEntry, error)
	MonthlySummary(ctx context.Context, householdID uuid.UUID, year, month int) (*Summary, error)
}

type service struct {
	repo  Repository
	trips trips.Repository
}

func NewService(repo Repository, tripsRepo trips.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("budget repository required")
	}
	if tripsRepo == nil {
		return nil, fmt.Errorf("trips repository required")
	}
	return &service{repo: repo, trips: tripsRepo}, nil
}

func (s *service) ListLedger(ctx context.Context, householdID uuid.UUID, filters Filters) ([]LedgerEntry, error) {
	query := filters.entryQuery()
	entries, err := s.repo.ListRegularEntries(ctx, householdID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list budget entries")
	}

	out := make([]LedgerEntry, 0, len(entries))
	for i := range entries {
		entry := fromEntry(&entries[i])
		if filters.matchesTags(entry.TagIDs) {
			out = append(out, entry)
		}
	}

	if filters.Type == nil || *filters.Type == enums.BudgetEntryTypeExpense {
		stops, err := s.trips.ListStopsWithPurchases(ctx, householdID, query.From, query.To)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list trip stops")
		}
		for i := range stops {
			entry := fromStop(&stops[i])
			if filters.inRange(entry.day) && filters.matchesTags(entry.TagIDs) {
				out = append(out, entry)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].day.Equal(out[j].day) {
			return out[i].day.After(out[j].day)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *service) MonthlySummary(ctx context.Context, householdID uuid.UUID, year, month int) (*Summary, error) {
	fields := map[string]string{}
	if year < 1900 || year > 9999 {
		fields["year"] = "must be a four digit year"
	}
	if month < 1 || month > 12 {
		fields["month"] = "must be between 1 and 12"
	}
	if len(fields) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid summary period").WithDetails(fields)
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	entries, err := s.repo.ListRegularEntries(ctx, householdID, EntryQuery{From: &from, To: &to})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list budget entries")
	}
	monthTrips, err := s.trips.ListTripsStartingBetween(ctx, householdID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list trips")
	}

	income, expense := decimal.Zero, decimal.Zero
	for _, e := range entries {
		switch e.Type {
		case enums.BudgetEntryTypeIncome:
			income = income.Add(e.Amount)
		case enums.BudgetEntryTypeExpense:
			expense = expense.Add(e.Amount)
		}
	}

	tripsWithSpend := 0
	for _, trip := range monthTrips {
		spent := false
		for i := range trip.Stops {
			stop := &trip.Stops[i]
			var storeRate decimal.NullDecimal
			if stop.Store != nil {
				storeRate = decimal.NewNullDecimal(stop.Store.TaxRate)
			}
			for j := range stop.Purchases {
				expense = expense.Add(purchases.TotalWithTax(&stop.Purchases[j], storeRate))
				spent = true
			}
			if len(stop.Purchases) == 0 && stop.BudgetEntry != nil {
				expense = expense.Add(stop.BudgetEntry.Amount)
				spent = true
			}
		}
		if spent {
			tripsWithSpend++
		}
	}

	net := income.Sub(expense)
	rate := decimal.Zero
	if income.IsPositive() {
		rate = net.Div(income).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return &Summary{
		Year:        year,
		Month:       month,
		Income:      income,
		Expense:     expense,
		Net:         net,
		SavingsRate: rate,
		EntryCount:  len(entries) + tripsWithSpend,
	}, nil
}
