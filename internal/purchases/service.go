// Package purchases is the receipt write path: it turns a confirmed receipt
// into purchases paired 1:1 with ledger entries, and maintains them after.
package purchases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/homestead-backend/internal/corrections"
	"github.com/angelmondragon/homestead-backend/internal/entities"
	"github.com/angelmondragon/homestead-backend/internal/tax"
	"github.com/angelmondragon/homestead-backend/internal/trips"
	"github.com/angelmondragon/homestead-backend/pkg/db"
	"github.com/angelmondragon/homestead-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/homestead-backend/pkg/db/types"
	"github.com/angelmondragon/homestead-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/homestead-backend/pkg/errors"
	"github.com/angelmondragon/homestead-backend/pkg/logger"
)

const recentLimit = 10

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type recorder interface {
	IncConfirmation(outcome string)
	AddItems(outcome string, n int)
}

// Service exposes the purchase ledger.
type Service interface {
	ConfirmReceipt(ctx context.Context, householdID uuid.UUID, input ConfirmInput) (*ConfirmResult, error)
	SuggestByBrand(ctx context.Context, householdID uuid.UUID, brand string, storeID *uuid.UUID) (*BrandSuggestion, error)
	UpdateStoreItem(ctx context.Context, householdID, storeID, purchaseID uuid.UUID, input UpdateItemInput) (*UpdateItemResult, error)
	DeletePurchase(ctx context.Context, householdID, purchaseID uuid.UUID) error
	PreTaxForEdit(ctx context.Context, householdID, purchaseID uuid.UUID) (*EditPrefill, error)
}

// Deps wires the ledger. Metrics may be nil.
type Deps struct {
	Tx         txRunner
	Repo       Repository
	Entities   entities.Resolver
	Trips      trips.Repository
	Learner    corrections.Learner
	Logger     *logger.Logger
	Metrics    recorder
	LearnEdits bool
}

type service struct {
	tx         txRunner
	repo       Repository
	entities   entities.Resolver
	trips      trips.Repository
	learner    corrections.Learner
	logg       *logger.Logger
	metrics    recorder
	learnEdits bool
}

func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case deps.Repo == nil:
		return nil, fmt.Errorf("purchases repository required")
	case deps.Entities == nil:
		return nil, fmt.Errorf("entity resolver required")
	case deps.Trips == nil:
		return nil, fmt.Errorf("trips repository required")
	case deps.Learner == nil:
		return nil, fmt.Errorf("correction learner required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:         deps.Tx,
		repo:       deps.Repo,
		entities:   deps.Entities,
		trips:      deps.Trips,
		learner:    deps.Learner,
		logg:       deps.Logger,
		metrics:    deps.Metrics,
		learnEdits: deps.LearnEdits,
	}, nil
}

// txScope is the set of collaborators bound to one confirmation transaction.
type txScope struct {
	tx       *gorm.DB
	repo     Repository
	entities entities.Resolver
	trips    trips.Repository
	learner  corrections.Learner
}

func (s *service) scope(tx *gorm.DB) txScope {
	return txScope{
		tx:       tx,
		repo:     s.repo.WithTx(tx),
		entities: s.entities.WithTx(tx),
		trips:    s.trips.WithTx(tx),
		learner:  s.learner.WithTx(tx),
	}
}

func (s *service) ConfirmReceipt(ctx context.Context, householdID uuid.UUID, input ConfirmInput) (*ConfirmResult, error) {
	if householdID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "household id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required").
			WithDetails(map[string]string{"items": "is required"})
	}

	ctx = s.logg.WithHouseholdID(ctx, householdID.String())
	result := &ConfirmResult{Purchases: []PurchaseDTO{}}

	date := dateOnly(time.Now().UTC())
	if input.Date != nil && !input.Date.IsZero() {
		date = dateOnly(*input.Date)
	} else {
		result.Warnings = append(result.Warnings, "receipt date missing; using today")
	}
	clock, err := NormalizeClock(input.Time)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%v; using %s", err, DefaultClock))
		s.logg.Warn(s.logg.WithError(ctx, err), "receipt time not parsed")
	}
	arrival := At(date, clock)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		sc := s.scope(tx)

		store, err := s.resolveStore(ctx, sc, householdID, input)
		if err != nil {
			return err
		}
		result.Store = entities.FromStoreModel(store)

		var stop *models.Stop
		if input.TripID != nil {
			stop, err = s.attachStop(ctx, sc, householdID, *input.TripID, store, date, arrival)
			if err != nil {
				return err
			}
			result.StopID = &stop.ID
		}

		source, err := sc.entities.EnsureExpenseSource(ctx, householdID)
		if err != nil {
			return err
		}

		storeRate := decimal.NewNullDecimal(store.TaxRate)
		for i, item := range input.Items {
			purchase, err := s.confirmItem(ctx, sc, householdID, input.UserID, item, date, stop, source, storeRate)
			if err != nil {
				itemCtx := s.logg.WithFields(ctx, map[string]any{"item_index": i, "item_name": item.ItemName})
				s.logg.Warn(s.logg.WithError(itemCtx, err), "receipt item skipped")
				result.Skipped = append(result.Skipped, SkippedItem{Index: i, Reason: reason(err)})
				continue
			}
			s.afterItem(ctx, sc, householdID, item, purchase)
			result.Purchases = append(result.Purchases, FromModel(purchase, storeRate))
		}
		return nil
	})
	if err != nil {
		s.countConfirmation("error")
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("confirm receipt: %v", err))
	}

	result.CreatedCount = len(result.Purchases)
	s.countConfirmation("ok")
	if s.metrics != nil {
		s.metrics.AddItems("created", result.CreatedCount)
		s.metrics.AddItems("skipped", len(result.Skipped))
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"created_count": result.CreatedCount,
		"skipped_count": len(result.Skipped),
	}), "receipt confirmed")
	return result, nil
}

func (s *service) resolveStore(ctx context.Context, sc txScope, householdID uuid.UUID, input ConfirmInput) (*models.Store, error) {
	if input.StoreID != nil {
		return sc.entities.FindStore(ctx, householdID, *input.StoreID)
	}
	return sc.entities.EnsureStore(ctx, householdID, input.Store)
}

// attachStop appends a stop to the trip and moves the trip, and any tasks
// scheduled against it, onto the receipt's date.
func (s *service) attachStop(ctx context.Context, sc txScope, householdID, tripID uuid.UUID, store *models.Store, date, arrival time.Time) (*models.Stop, error) {
	trip, err := sc.trips.FindTrip(ctx, householdID, tripID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "trip not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load trip")
	}

	if !trips.SameDay(trip.StartTime, date) {
		start := trips.OnDate(trip.StartTime, date)
		if err := sc.trips.UpdateTripStart(ctx, trip.ID, start); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "move trip start")
		}
		moved, err := sc.trips.MoveTasksToDate(ctx, householdID, trip.ID, date)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "move trip tasks")
		}
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"trip_id":     trip.ID.String(),
			"from":        trip.StartTime,
			"to":          start,
			"tasks_moved": moved,
		}), "trip moved to receipt date")
	}

	position, err := sc.trips.NextStopPosition(ctx, trip.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "next stop position")
	}
	stop := &models.Stop{
		HouseholdID:  householdID,
		TripID:       trip.ID,
		StoreID:      &store.ID,
		StoreName:    store.Name,
		StoreAddress: store.Address,
		ArrivalTime:  &arrival,
		Position:     position,
	}
	if err := sc.trips.CreateStop(ctx, stop); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create stop")
	}
	return stop, nil
}

// confirmItem writes one ledger entry and its purchase under a savepoint.
func (s *service) confirmItem(ctx context.Context, sc txScope, householdID uuid.UUID, userID *uuid.UUID, item ItemInput, date time.Time, stop *models.Stop, source *models.BudgetSource, storeRate decimal.NullDecimal) (*models.Purchase, error) {
	line, err := priceLine(item, storeRate)
	if err != nil {
		return nil, err
	}

	var purchase *models.Purchase
	err = sc.tx.Transaction(func(itx *gorm.DB) error {
		repo := sc.repo.WithTx(itx)

		entry := &models.BudgetEntry{
			HouseholdID: householdID,
			UserID:      userID,
			Date:        date,
			Amount:      line.paid,
			Type:        enums.BudgetEntryTypeExpense,
			Notes:       item.Notes,
			SourceID:    &source.ID,
			TagIDs:      dbtypes.UUIDArray(item.TagIDs),
		}
		if err := repo.CreateEntry(ctx, entry); err != nil {
			return fmt.Errorf("create budget entry: %w", err)
		}

		p := &models.Purchase{
			HouseholdID:      householdID,
			BudgetEntryID:    entry.ID,
			BrandName:        brandName(item.Brand),
			ItemName:         strings.TrimSpace(item.ItemName),
			Unit:             trimmed(item.Unit),
			Count:            line.count,
			PricePerCount:    line.pricePerCount,
			Units:            line.units,
			PricePerUnit:     line.pricePerUnit,
			Taxable:          item.Taxable,
			TaxRate:          line.rate,
			TotalPrice:       line.preTax,
			ReceiptStoreCode: trimmed(item.ReceiptStoreCode),
			RawText:          trimmed(item.RawText),
			TagIDs:           dbtypes.UUIDArray(item.TagIDs),
		}
		if stop != nil {
			p.StopID = &stop.ID
		}
		if err := repo.CreatePurchase(ctx, p); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}
		purchase = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// afterItem runs the side effects of a committed line: catalog entries and
// correction learning. Neither may fail the receipt.
func (s *service) afterItem(ctx context.Context, sc txScope, householdID uuid.UUID, item ItemInput, purchase *models.Purchase) {
	if _, err := sc.entities.EnsureBrand(ctx, householdID, purchase.BrandName); err != nil {
		s.logg.Warn(s.logg.WithError(ctx, err), "brand not resolved")
	}
	if purchase.Unit != nil {
		if _, err := sc.entities.EnsureUnit(ctx, householdID, *purchase.Unit); err != nil {
			s.logg.Warn(s.logg.WithError(ctx, err), "unit not resolved")
		}
	}
	if !s.learnEdits || purchase.RawText == nil {
		return
	}

	line := corrections.Line{
		RawText:   *purchase.RawText,
		Brand:     strings.TrimSpace(item.Brand),
		Item:      purchase.ItemName,
		Unit:      purchase.Unit,
		Prefilled: item.Corrected,
	}
	if purchase.Count.Valid {
		line.Quantity = purchase.Count
	}
	if purchase.Units.Valid {
		line.UnitQuantity = purchase.Units
	}
	sc.learner.RecordIfEdited(ctx, householdID, line)
}

func (s *service) countConfirmation(outcome string) {
	if s.metrics != nil {
		s.metrics.IncConfirmation(outcome)
	}
}

func (s *service) SuggestByBrand(ctx context.Context, householdID uuid.UUID, brand string, storeID *uuid.UUID) (*BrandSuggestion, error) {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand is required").
			WithDetails(map[string]string{"brand": "is required"})
	}

	out := &BrandSuggestion{Recent: []PurchaseDTO{}}
	row, err := s.repo.FindBrand(ctx, householdID, brand)
	switch {
	case err == nil:
		out.Brand = &BrandDefaults{
			ID:              row.ID,
			Name:            row.Name,
			DefaultItemName: row.DefaultItemName,
			DefaultUnit:     row.DefaultUnit,
			DefaultTagIDs:   row.DefaultTagIDs.IDs(),
		}
	case !db.IsNotFound(err):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load brand")
	}

	recent, err := s.repo.RecentByBrand(ctx, householdID, brand, storeID, recentLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recent purchases")
	}
	for i := range recent {
		rate, err := s.storeRateFor(ctx, s.repo, householdID, &recent[i])
		if err != nil {
			return nil, err
		}
		out.Recent = append(out.Recent, FromModel(&recent[i], rate))
	}

	switch {
	case len(recent) > 0:
		last := recent[0]
		out.Suggested = &Suggested{
			ItemName:      last.ItemName,
			Unit:          last.Unit,
			PricePerCount: last.PricePerCount,
			PricePerUnit:  last.PricePerUnit,
			Taxable:       last.Taxable,
			TagIDs:        last.TagIDs.IDs(),
		}
	case out.Brand != nil && out.Brand.DefaultItemName != nil:
		out.Suggested = &Suggested{
			ItemName: *out.Brand.DefaultItemName,
			Unit:     out.Brand.DefaultUnit,
			TagIDs:   out.Brand.DefaultTagIDs,
		}
	}
	return out, nil
}

func (s *service) UpdateStoreItem(ctx context.Context, householdID, storeID, purchaseID uuid.UUID, input UpdateItemInput) (*UpdateItemResult, error) {
	if err := validateUpdate(input); err != nil {
		return nil, err
	}

	var result *UpdateItemResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		sc := s.scope(tx)

		store, err := sc.entities.FindStore(ctx, householdID, storeID)
		if err != nil {
			return err
		}
		target, err := sc.repo.FindPurchaseAtStore(ctx, householdID, storeID, purchaseID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found at store")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load purchase")
		}
		storeRate := decimal.NewNullDecimal(store.TaxRate)
		originalBrand, originalItem := target.BrandName, target.ItemName

		applyCorrection(target, input, true, storeRate)
		if err := s.saveWithEntry(ctx, sc.repo, target, storeRate); err != nil {
			return err
		}

		propagated := 0
		if input.Propagate {
			matches, err := sc.repo.ListMatchingAtStore(ctx, householdID, storeID, originalBrand, originalItem, target.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load matching purchases")
			}
			for i := range matches {
				applyCorrection(&matches[i], input, false, storeRate)
				if err := s.saveWithEntry(ctx, sc.repo, &matches[i], storeRate); err != nil {
					return err
				}
			}
			propagated = len(matches)
		}

		if input.Brand != nil {
			if _, err := sc.entities.EnsureBrand(ctx, householdID, target.BrandName); err != nil {
				return err
			}
		}
		if target.Unit != nil && input.Unit != nil {
			if _, err := sc.entities.EnsureUnit(ctx, householdID, *target.Unit); err != nil {
				return err
			}
		}

		result = &UpdateItemResult{Purchase: FromModel(target, storeRate), PropagatedCount: propagated}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update store item")
	}
	return result, nil
}

func (s *service) saveWithEntry(ctx context.Context, repo Repository, p *models.Purchase, storeRate decimal.NullDecimal) error {
	if err := repo.SavePurchase(ctx, p); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save purchase")
	}
	if err := repo.UpdateEntryAmount(ctx, p.BudgetEntryID, TotalWithTax(p, storeRate)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sync budget entry")
	}
	return nil
}

func (s *service) DeletePurchase(ctx context.Context, householdID, purchaseID uuid.UUID) error {
	affected, err := s.repo.DeletePurchase(ctx, householdID, purchaseID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete purchase")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
	}
	return nil
}

func (s *service) PreTaxForEdit(ctx context.Context, householdID, purchaseID uuid.UUID) (*EditPrefill, error) {
	p, err := s.repo.FindPurchase(ctx, householdID, purchaseID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load purchase")
	}

	storeRate, err := s.storeRateFor(ctx, s.repo, householdID, p)
	if err != nil {
		return nil, err
	}
	rate := tax.ResolveRate(p.TaxRate, storeRate)
	paid := TotalWithTax(p, storeRate)
	if p.BudgetEntry != nil {
		paid = p.BudgetEntry.Amount
	}
	return &EditPrefill{
		Purchase:       FromModel(p, storeRate),
		EntryAmount:    paid,
		PreTax:         tax.RecoverPreTax(paid, p.Taxable, rate),
		TaxRatePercent: tax.DisplayPercent(rate),
	}, nil
}

// storeRateFor is the rate of the store p was bought at. It is only looked
// up when p is taxable without its own rate snapshot.
func (s *service) storeRateFor(ctx context.Context, repo Repository, householdID uuid.UUID, p *models.Purchase) (decimal.NullDecimal, error) {
	if !p.Taxable || p.TaxRate.Valid || p.StopID == nil {
		return decimal.NullDecimal{}, nil
	}
	rate, err := repo.StopStoreRate(ctx, householdID, *p.StopID)
	if err != nil {
		return decimal.NullDecimal{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store tax rate")
	}
	return rate, nil
}

func brandName(raw string) string {
	if name := strings.TrimSpace(raw); name != "" {
		return name
	}
	return entities.GenericBrandName
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func reason(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}
