package corrections

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/homestead-backend/internal/repo/repotest"
	"github.com/angelmondragon/homestead-backend/pkg/db/models"
	"github.com/angelmondragon/homestead-backend/pkg/logger"
)

func strPtr(s string) *string { return &s }

func qty(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func testLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: buf})
}

type countingRecorder struct{ actions []string }

func (c *countingRecorder) IncCorrection(action string) { c.actions = append(c.actions, action) }

func TestDiffFlagsEditsThatAreNotSubstrings(t *testing.T) {
	household := uuid.New()

	c, ok := Diff(household, Line{RawText: "GV WHL MLK 1GAL", Brand: "Great Value", Item: "Whole Milk"})
	require.True(t, ok)
	require.NotNil(t, c.CorrectedBrand)
	require.NotNil(t, c.CorrectedItem)
	assert.Equal(t, "Great Value", *c.CorrectedBrand)
	assert.Equal(t, "Whole Milk", *c.CorrectedItem)
	assert.Equal(t, "gv whl mlk 1gal", c.NormalizedText)
}

func TestDiffIgnoresSubstringValues(t *testing.T) {
	_, ok := Diff(uuid.New(), Line{RawText: "GV WHL MLK 1GAL", Brand: "GV"})
	assert.False(t, ok)

	// Containment in either direction counts as unedited.
	_, ok = Diff(uuid.New(), Line{RawText: "MLK", Item: "mlk 1 gallon"})
	assert.False(t, ok)
}

func TestDiffUnitAndQuantityAlwaysCount(t *testing.T) {
	c, ok := Diff(uuid.New(), Line{RawText: "BANANAS", Item: "bananas", Unit: strPtr("lb"), UnitQuantity: qty("2.50")})
	require.True(t, ok)
	assert.Nil(t, c.CorrectedItem)
	assert.Equal(t, "lb", *c.CorrectedUnit)
	assert.Equal(t, "2.5", c.CorrectedUnitQuantity.Decimal.String())

	_, ok = Diff(uuid.New(), Line{RawText: "BANANAS", Quantity: qty("1")})
	assert.False(t, ok, "default quantity is not informative")
}

func TestDiffWithoutRawTextIsNoop(t *testing.T) {
	_, ok := Diff(uuid.New(), Line{Brand: "Great Value", Item: "Whole Milk"})
	assert.False(t, ok)
}

func TestRecordIfEditedLayersCorrections(t *testing.T) {
	db := repotest.Open(t)
	rec := &countingRecorder{}
	l, err := NewLearner(NewRepository(db), testLogger(&bytes.Buffer{}), rec)
	require.NoError(t, err)
	ctx := context.Background()
	household := uuid.New()

	l.RecordIfEdited(ctx, household, Line{RawText: "GV WHL MLK 1GAL", Brand: "Great Value", Item: "Whole Milk"})
	// Second pass only learns the unit; brand and item must survive.
	l.RecordIfEdited(ctx, household, Line{RawText: "gv  whl mlk 1gal", Brand: "GV", Unit: strPtr("gal")})

	var rows []models.FormatCorrection
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "Great Value", *rows[0].CorrectedBrand)
	assert.Equal(t, "Whole Milk", *rows[0].CorrectedItem)
	assert.Equal(t, "gal", *rows[0].CorrectedUnit)
	assert.Equal(t, []string{"learned", "learned"}, rec.actions)
}

func TestRecordIfEditedSkipsUneditedLines(t *testing.T) {
	db := repotest.Open(t)
	l, err := NewLearner(NewRepository(db), testLogger(&bytes.Buffer{}), nil)
	require.NoError(t, err)

	l.RecordIfEdited(context.Background(), uuid.New(), Line{RawText: "GV WHL MLK 1GAL", Brand: "GV"})

	var count int64
	require.NoError(t, db.Model(&models.FormatCorrection{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecordIfEditedCountsPrefilledLinesAsReconfirmed(t *testing.T) {
	db := repotest.Open(t)
	rec := &countingRecorder{}
	l, err := NewLearner(NewRepository(db), testLogger(&bytes.Buffer{}), rec)
	require.NoError(t, err)
	ctx := context.Background()
	household := uuid.New()

	l.RecordIfEdited(ctx, household, Line{RawText: "GV WHL MLK 1GAL", Brand: "Great Value", Item: "Whole Milk"})
	l.RecordIfEdited(ctx, household, Line{RawText: "GV WHL MLK 1GAL", Brand: "Great Value", Item: "Organic Milk", Prefilled: true})

	var rows []models.FormatCorrection
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "Organic Milk", *rows[0].CorrectedItem)
	assert.Equal(t, []string{"learned", "reconfirmed"}, rec.actions)
}

type failingRepository struct{ Repository }

func (failingRepository) WithTx(*gorm.DB) Repository { return failingRepository{} }
func (failingRepository) Upsert(context.Context, *models.FormatCorrection) error {
	return errors.New("connection reset")
}

func TestRecordIfEditedSwallowsFailures(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLearner(failingRepository{}, testLogger(&buf), nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		l.RecordIfEdited(context.Background(), uuid.New(), Line{RawText: "X", Brand: "Great Value"})
	})
	assert.Contains(t, buf.String(), "format correction not recorded")
	assert.Contains(t, buf.String(), "connection reset")
}

func TestApplyFillsLearnedFields(t *testing.T) {
	db := repotest.Open(t)
	rec := &countingRecorder{}
	l, err := NewLearner(NewRepository(db), testLogger(&bytes.Buffer{}), rec)
	require.NoError(t, err)
	ctx := context.Background()
	household := uuid.New()

	l.RecordIfEdited(ctx, household, Line{RawText: "GV WHL MLK 1GAL", Brand: "Great Value", Item: "Whole Milk", Quantity: qty("2")})

	out, err := l.Apply(ctx, household, []Line{
		{RawText: "GV WHL MLK 1GAL", Brand: "GV", Item: "WHL MLK"},
		{RawText: "BANANAS", Item: "Bananas"},
		{RawText: "gv whl mlk 1gal"},
	})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.True(t, out[0].Corrected)
	assert.Equal(t, "Great Value", out[0].Line.Brand)
	assert.Equal(t, "Whole Milk", out[0].Line.Item)
	assert.Equal(t, "2", out[0].Line.Quantity.Decimal.String())
	assert.False(t, out[1].Corrected)
	assert.Equal(t, "Bananas", out[1].Line.Item)
	assert.True(t, out[2].Corrected)

	var row models.FormatCorrection
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, 1, row.TimesApplied)

	// Other households never see this correction.
	other, err := l.Apply(ctx, uuid.New(), []Line{{RawText: "GV WHL MLK 1GAL"}})
	require.NoError(t, err)
	assert.False(t, other[0].Corrected)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "gv whl mlk", Normalize("  GV\tWHL   mlk "))
	assert.Equal(t, "", Normalize("   "))
}
