package entities

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/homestead-backend/internal/repo/repotest"
	"github.com/angelmondragon/homestead-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/homestead-backend/pkg/errors"
)

func newTestResolver(t *testing.T) (Resolver, *gorm.DB) {
	t.Helper()
	db := repotest.Open(t)
	res, err := NewResolver(NewRepository(db))
	require.NoError(t, err)
	return res, db
}

func strPtr(s string) *string { return &s }

func TestNewResolverRequiresRepository(t *testing.T) {
	_, err := NewResolver(nil)
	require.Error(t, err)
}

func TestEnsureBrandIsIdempotent(t *testing.T) {
	res, db := newTestResolver(t)
	ctx := context.Background()
	household := uuid.New()

	first, err := res.EnsureBrand(ctx, household, "Acme")
	require.NoError(t, err)
	second, err := res.EnsureBrand(ctx, household, "  acme ")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Acme", second.Name)

	var count int64
	require.NoError(t, db.Model(&models.Brand{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestEnsureBrandScopedToHousehold(t *testing.T) {
	res, _ := newTestResolver(t)
	ctx := context.Background()

	a, err := res.EnsureBrand(ctx, uuid.New(), "Acme")
	require.NoError(t, err)
	b, err := res.EnsureBrand(ctx, uuid.New(), "Acme")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestEnsureBrandConcurrentFirstCallsConverge(t *testing.T) {
	res, db := newTestResolver(t)
	ctx := context.Background()
	household := uuid.New()

	const workers = 4
	ids := make([]uuid.UUID, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			brand, err := res.EnsureBrand(ctx, household, "Acme")
			errs[i] = err
			if brand != nil {
				ids[i] = brand.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var count int64
	require.NoError(t, db.Model(&models.Brand{}).Where("household_id = ?", household).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestEnsureBrandBlankUsesGeneric(t *testing.T) {
	res, _ := newTestResolver(t)
	brand, err := res.EnsureBrand(context.Background(), uuid.New(), "   ")
	require.NoError(t, err)
	assert.Equal(t, GenericBrandName, brand.Name)
}

func TestEnsureUnitRejectsBlank(t *testing.T) {
	res, _ := newTestResolver(t)
	_, err := res.EnsureUnit(context.Background(), uuid.New(), "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestEnsureUnitCaseInsensitive(t *testing.T) {
	res, _ := newTestResolver(t)
	ctx := context.Background()
	household := uuid.New()

	a, err := res.EnsureUnit(ctx, household, "GAL")
	require.NoError(t, err)
	b, err := res.EnsureUnit(ctx, household, "gal")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
}

func TestEnsureStoreKeys(t *testing.T) {
	res, _ := newTestResolver(t)
	ctx := context.Background()
	household := uuid.New()

	coded, err := res.EnsureStore(ctx, household, StoreParams{
		Name:      "Walmart Supercenter",
		StoreCode: strPtr("WM-0412"),
		TaxRate:   decimal.NewNullDecimal(decimal.RequireFromString("8.25")),
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.0825").Equal(coded.TaxRate))

	// Same code, different spelling of the name.
	again, err := res.EnsureStore(ctx, household, StoreParams{Name: "WALMART", StoreCode: strPtr("wm-0412")})
	require.NoError(t, err)
	assert.Equal(t, coded.ID, again.ID)

	byName, err := res.EnsureStore(ctx, household, StoreParams{Name: "Corner Market"})
	require.NoError(t, err)
	sameName, err := res.EnsureStore(ctx, household, StoreParams{Name: "corner market"})
	require.NoError(t, err)
	assert.Equal(t, byName.ID, sameName.ID)
	assert.NotEqual(t, coded.ID, byName.ID)
}

func TestEnsureStoreWithoutDataUsesSentinel(t *testing.T) {
	res, _ := newTestResolver(t)
	ctx := context.Background()
	household := uuid.New()

	a, err := res.EnsureStore(ctx, household, StoreParams{})
	require.NoError(t, err)
	b, err := res.EnsureStore(ctx, household, StoreParams{Name: " "})
	require.NoError(t, err)
	assert.Equal(t, UnknownStoreName, a.Name)
	assert.Equal(t, a.ID, b.ID)
}

func TestFindStoreOtherHouseholdIsNotFound(t *testing.T) {
	res, _ := newTestResolver(t)
	ctx := context.Background()

	store, err := res.EnsureStore(ctx, uuid.New(), StoreParams{Name: "Aldi"})
	require.NoError(t, err)

	_, err = res.FindStore(ctx, uuid.New(), store.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestEnsureExpenseSourceIsIdempotent(t *testing.T) {
	res, _ := newTestResolver(t)
	ctx := context.Background()
	household := uuid.New()

	a, err := res.EnsureExpenseSource(ctx, household)
	require.NoError(t, err)
	b, err := res.EnsureExpenseSource(ctx, household)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.True(t, b.IsActive)
}

func TestUpdateStoreConvertsPercent(t *testing.T) {
	res, _ := newTestResolver(t)
	ctx := context.Background()
	household := uuid.New()

	store, err := res.EnsureStore(ctx, household, StoreParams{Name: "Aldi"})
	require.NoError(t, err)

	percent := decimal.RequireFromString("8.25")
	updated, err := res.UpdateStore(ctx, household, store.ID, UpdateStoreInput{
		TaxRatePercent: &percent,
		Phone:          strPtr(" 555-0100 "),
		Address:        strPtr(""),
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.0825").Equal(updated.TaxRate))
	assert.Equal(t, "555-0100", *updated.Phone)
	assert.Nil(t, updated.Address)

	dto := FromStoreModel(updated)
	assert.True(t, percent.Equal(dto.TaxRatePercent))

	_, err = res.UpdateStore(ctx, household, store.ID, UpdateStoreInput{Name: strPtr("  ")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateStoreNameConflict(t *testing.T) {
	res, _ := newTestResolver(t)
	ctx := context.Background()
	household := uuid.New()

	_, err := res.EnsureStore(ctx, household, StoreParams{Name: "Aldi"})
	require.NoError(t, err)
	other, err := res.EnsureStore(ctx, household, StoreParams{Name: "Lidl"})
	require.NoError(t, err)

	_, err = res.UpdateStore(ctx, household, other.ID, UpdateStoreInput{Name: strPtr("ALDI")})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

// staleLookupRepository misses on the first brand lookup, as if a concurrent
// request inserted the row between our read and our write.
type staleLookupRepository struct {
	Repository
	misses int
}

func (r *staleLookupRepository) FindBrandByName(ctx context.Context, householdID uuid.UUID, name string) (*models.Brand, error) {
	if r.misses > 0 {
		r.misses--
		return nil, gorm.ErrRecordNotFound
	}
	return r.Repository.FindBrandByName(ctx, householdID, name)
}

func TestEnsureBrandRefetchesAfterUniqueViolationInsideTransaction(t *testing.T) {
	db := repotest.Open(t)
	ctx := context.Background()
	household := uuid.New()

	existing := &models.Brand{HouseholdID: household, Name: "Acme"}
	require.NoError(t, db.Create(existing).Error)

	err := db.Transaction(func(tx *gorm.DB) error {
		res, err := NewResolver(&staleLookupRepository{Repository: NewRepository(tx), misses: 1})
		require.NoError(t, err)

		brand, err := res.EnsureBrand(ctx, household, "ACME")
		require.NoError(t, err)
		assert.Equal(t, existing.ID, brand.ID)

		// The outer transaction must still accept writes after the conflict.
		return tx.Create(&models.Unit{HouseholdID: household, Name: "oz"}).Error
	})
	require.NoError(t, err)

	var units int64
	require.NoError(t, db.Model(&models.Unit{}).Count(&units).Error)
	assert.EqualValues(t, 1, units)
}
