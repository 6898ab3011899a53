// Package corrections learns from the edits household members make to parsed
// receipt lines and replays them on future parses of the same text.
package corrections

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/homestead-backend/pkg/db/models"
	"github.com/angelmondragon/homestead-backend/pkg/enums"
	"github.com/angelmondragon/homestead-backend/pkg/logger"
)

// Line is one receipt line as confirmed by a user or as produced by a parser.
// Quantity is the item count, UnitQuantity the measured amount (2.5 lb).
// Prefilled marks a confirmed line whose scan was already corrected by Apply.
type Line struct {
	RawText      string
	Brand        string
	Item         string
	Unit         *string
	Quantity     decimal.NullDecimal
	UnitQuantity decimal.NullDecimal
	Prefilled    bool
}

// Applied reports which learned corrections were used for a parsed line.
type Applied struct {
	Line      Line
	Corrected bool
}

type recorder interface {
	IncCorrection(action string)
}

// Learner records and replays format corrections.
type Learner interface {
	WithTx(tx *gorm.DB) Learner
	// RecordIfEdited never returns an error; failures are logged.
	RecordIfEdited(ctx context.Context, householdID uuid.UUID, line Line)
	Apply(ctx context.Context, householdID uuid.UUID, lines []Line) ([]Applied, error)
}

type learner struct {
	repo    Repository
	logg    *logger.Logger
	metrics recorder
}

// NewLearner builds a learner. metrics may be nil.
func NewLearner(repo Repository, logg *logger.Logger, metrics recorder) (Learner, error) {
	if repo == nil {
		return nil, fmt.Errorf("corrections repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &learner{repo: repo, logg: logg, metrics: metrics}, nil
}

func (l *learner) WithTx(tx *gorm.DB) Learner {
	return &learner{repo: l.repo.WithTx(tx), logg: l.logg, metrics: l.metrics}
}

var one = decimal.NewFromInt(1)

func (l *learner) RecordIfEdited(ctx context.Context, householdID uuid.UUID, line Line) {
	correction, ok := Diff(householdID, line)
	if !ok {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			l.logg.Error(ctx, "format correction panicked", fmt.Errorf("%v", r))
		}
	}()

	if err := l.repo.Upsert(ctx, correction); err != nil {
		ctx = l.logg.WithField(ctx, "normalized_text", correction.NormalizedText)
		l.logg.Warn(l.logg.WithError(ctx, err), "format correction not recorded")
		return
	}
	if l.metrics != nil {
		action := "learned"
		if line.Prefilled {
			action = "reconfirmed"
		}
		l.metrics.IncCorrection(action)
	}
}

// Diff builds the correction a confirmed line implies, if any. Brand and item
// count as edited when they are not a loose substring of the raw text; a unit
// or a non-default quantity is informative on its own.
func Diff(householdID uuid.UUID, line Line) (*models.FormatCorrection, bool) {
	raw := strings.TrimSpace(line.RawText)
	if raw == "" {
		return nil, false
	}

	c := &models.FormatCorrection{
		HouseholdID:    householdID,
		RawText:        raw,
		NormalizedText: Normalize(raw),
		MatchType:      enums.CorrectionMatchTypeExact,
	}
	edited := false

	if v := strings.TrimSpace(line.Brand); v != "" && !looselyContains(raw, v) {
		c.CorrectedBrand = &v
		edited = true
	}
	if v := strings.TrimSpace(line.Item); v != "" && !looselyContains(raw, v) {
		c.CorrectedItem = &v
		edited = true
	}
	if line.Unit != nil && strings.TrimSpace(*line.Unit) != "" {
		v := strings.TrimSpace(*line.Unit)
		c.CorrectedUnit = &v
		edited = true
	}
	if q := line.Quantity; q.Valid && q.Decimal.IsPositive() && !q.Decimal.Equal(one) {
		c.CorrectedQuantity = canonical(q.Decimal)
		edited = true
	}
	if q := line.UnitQuantity; q.Valid && q.Decimal.IsPositive() && !q.Decimal.Equal(one) {
		c.CorrectedUnitQuantity = canonical(q.Decimal)
		edited = true
	}
	return c, edited
}

func (l *learner) Apply(ctx context.Context, householdID uuid.UUID, lines []Line) ([]Applied, error) {
	out := make([]Applied, len(lines))
	keys := make([]string, 0, len(lines))
	seen := map[string]struct{}{}
	for i, line := range lines {
		out[i] = Applied{Line: line}
		key := Normalize(line.RawText)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}

	rows, err := l.repo.FindByNormalized(ctx, householdID, keys)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return out, nil
	}
	byText := make(map[string]*models.FormatCorrection, len(rows))
	for i := range rows {
		byText[rows[i].NormalizedText] = &rows[i]
	}

	usedIDs := []uuid.UUID{}
	used := map[uuid.UUID]struct{}{}
	for i := range out {
		c, ok := byText[Normalize(out[i].Line.RawText)]
		if !ok {
			continue
		}
		out[i].Line = merge(out[i].Line, c)
		out[i].Corrected = true
		if _, dup := used[c.ID]; !dup {
			used[c.ID] = struct{}{}
			usedIDs = append(usedIDs, c.ID)
		}
	}

	if err := l.repo.IncrementApplied(ctx, usedIDs); err != nil {
		l.logg.Warn(l.logg.WithError(ctx, err), "times_applied not updated")
	}
	if l.metrics != nil {
		for range usedIDs {
			l.metrics.IncCorrection("applied")
		}
	}
	return out, nil
}

func merge(line Line, c *models.FormatCorrection) Line {
	if c.CorrectedBrand != nil {
		line.Brand = *c.CorrectedBrand
	}
	if c.CorrectedItem != nil {
		line.Item = *c.CorrectedItem
	}
	if c.CorrectedUnit != nil {
		unit := *c.CorrectedUnit
		line.Unit = &unit
	}
	if c.CorrectedQuantity.Valid {
		line.Quantity = c.CorrectedQuantity
	}
	if c.CorrectedUnitQuantity.Valid {
		line.UnitQuantity = c.CorrectedUnitQuantity
	}
	return line
}

// Normalize folds case and whitespace so "GV  whl mlk" and "GV WHL MLK" share a key.
func Normalize(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}

func looselyContains(raw, value string) bool {
	r := strings.ToLower(raw)
	v := strings.ToLower(value)
	return strings.Contains(r, v) || strings.Contains(v, r)
}

func canonical(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(d.String()))
}
