package entities

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/homestead-backend/internal/tax"
	"github.com/angelmondragon/homestead-backend/pkg/db"
	"github.com/angelmondragon/homestead-backend/pkg/db/models"
	"github.com/angelmondragon/homestead-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/homestead-backend/pkg/errors"
)

const (
	UnknownStoreName  = "Unknown Store"
	GenericBrandName  = "Generic"
	ExpenseSourceName = "Store purchases"
)

// Resolver gets or creates household catalog rows. Every Ensure call is safe
// under concurrent first-time creation of the same entity.
type Resolver interface {
	WithTx(tx *gorm.DB) Resolver
	FindStore(ctx context.Context, householdID, storeID uuid.UUID) (*models.Store, error)
	EnsureStore(ctx context.Context, householdID uuid.UUID, params StoreParams) (*models.Store, error)
	EnsureBrand(ctx context.Context, householdID uuid.UUID, name string) (*models.Brand, error)
	EnsureUnit(ctx context.Context, householdID uuid.UUID, name string) (*models.Unit, error)
	EnsureExpenseSource(ctx context.Context, householdID uuid.UUID) (*models.BudgetSource, error)
	UpdateStore(ctx context.Context, householdID, storeID uuid.UUID, input UpdateStoreInput) (*models.Store, error)
}

type resolver struct {
	repo Repository
}

func NewResolver(repo Repository) (Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("entities repository required")
	}
	return &resolver{repo: repo}, nil
}

func (r *resolver) WithTx(tx *gorm.DB) Resolver {
	return &resolver{repo: r.repo.WithTx(tx)}
}

func (r *resolver) FindStore(ctx context.Context, householdID, storeID uuid.UUID) (*models.Store, error) {
	store, err := r.repo.FindStoreByID(ctx, householdID, storeID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
	}
	return store, nil
}

func (r *resolver) EnsureStore(ctx context.Context, householdID uuid.UUID, params StoreParams) (*models.Store, error) {
	if params.Empty() {
		params = StoreParams{Name: UnknownStoreName}
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		name = UnknownStoreName
	}
	code := trimmed(params.StoreCode)

	find := func() (*models.Store, error) {
		if code != nil {
			return r.repo.FindStoreByCode(ctx, householdID, *code)
		}
		return r.repo.FindStoreByName(ctx, householdID, name)
	}
	create := func() (*models.Store, error) {
		store := &models.Store{
			HouseholdID: householdID,
			Name:        name,
			StoreCode:   code,
			Address:     trimmed(params.Address),
			City:        trimmed(params.City),
			State:       trimmed(params.State),
			PostalCode:  trimmed(params.PostalCode),
			Phone:       trimmed(params.Phone),
		}
		if params.TaxRate.Valid {
			store.TaxRate = tax.NormalizeRate(params.TaxRate.Decimal)
		}
		if err := r.repo.Create(ctx, store); err != nil {
			return nil, err
		}
		return store, nil
	}

	store, err := ensure(find, create)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve store")
	}
	return store, nil
}

func (r *resolver) EnsureBrand(ctx context.Context, householdID uuid.UUID, name string) (*models.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = GenericBrandName
	}

	brand, err := ensure(
		func() (*models.Brand, error) { return r.repo.FindBrandByName(ctx, householdID, name) },
		func() (*models.Brand, error) {
			brand := &models.Brand{HouseholdID: householdID, Name: name}
			if err := r.repo.Create(ctx, brand); err != nil {
				return nil, err
			}
			return brand, nil
		},
	)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve brand")
	}
	return brand, nil
}

func (r *resolver) EnsureUnit(ctx context.Context, householdID uuid.UUID, name string) (*models.Unit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit name is required")
	}

	unit, err := ensure(
		func() (*models.Unit, error) { return r.repo.FindUnitByName(ctx, householdID, name) },
		func() (*models.Unit, error) {
			unit := &models.Unit{HouseholdID: householdID, Name: name}
			if err := r.repo.Create(ctx, unit); err != nil {
				return nil, err
			}
			return unit, nil
		},
	)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve unit")
	}
	return unit, nil
}

func (r *resolver) EnsureExpenseSource(ctx context.Context, householdID uuid.UUID) (*models.BudgetSource, error) {
	source, err := ensure(
		func() (*models.BudgetSource, error) {
			return r.repo.FindSource(ctx, householdID, ExpenseSourceName, enums.BudgetEntryTypeExpense)
		},
		func() (*models.BudgetSource, error) {
			source := &models.BudgetSource{
				HouseholdID: householdID,
				Name:        ExpenseSourceName,
				Type:        enums.BudgetEntryTypeExpense,
				Frequency:   enums.BudgetFrequencyVariable,
				IsActive:    true,
			}
			if err := r.repo.Create(ctx, source); err != nil {
				return nil, err
			}
			return source, nil
		},
	)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve expense source")
	}
	return source, nil
}

func (r *resolver) UpdateStore(ctx context.Context, householdID, storeID uuid.UUID, input UpdateStoreInput) (*models.Store, error) {
	store, err := r.FindStore(ctx, householdID, storeID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name cannot be blank")
		}
		store.Name = name
	}
	if input.TaxRatePercent != nil {
		if input.TaxRatePercent.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax rate cannot be negative")
		}
		store.TaxRate = tax.PercentToFraction(*input.TaxRatePercent)
	}
	applyOptional(&store.Address, input.Address)
	applyOptional(&store.City, input.City)
	applyOptional(&store.State, input.State)
	applyOptional(&store.PostalCode, input.PostalCode)
	applyOptional(&store.Phone, input.Phone)
	applyOptional(&store.StoreCode, input.StoreCode)

	if err := r.repo.UpdateStore(ctx, store); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "another store already uses this name or code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update store")
	}
	return store, nil
}

// ensure looks a row up, inserts it when missing and, when the insert lost a
// race to a concurrent writer, returns the row that writer created.
func ensure[T any](find func() (*T, error), create func() (*T, error)) (*T, error) {
	row, err := find()
	if err == nil {
		return row, nil
	}
	if !db.IsNotFound(err) {
		return nil, err
	}

	row, err = create()
	if err == nil {
		return row, nil
	}
	if !db.IsUniqueViolation(err, "") {
		return nil, err
	}
	return find()
}

// applyOptional sets dst from a patch value; an empty string clears it.
func applyOptional(dst **string, patch *string) {
	if patch == nil {
		return
	}
	*dst = trimmed(patch)
}
