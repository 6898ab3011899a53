package budget

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/homestead-backend/internal/purchases"
	"github.com/angelmondragon/homestead-backend/pkg/db/models"
	"github.com/angelmondragon/homestead-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/homestead-backend/pkg/errors"
)

const dateLayout = "2006-01-02"

// Filters narrows the ledger. EndDate is inclusive.
type Filters struct {
	StartDate *time.Time
	EndDate   *time.Time
	Type      *enums.BudgetEntryType
	TagIDs    []uuid.UUID
}

// ParseFilters builds Filters from query values. Dates that do not parse are
// dropped rather than rejected; an unknown type or tag id is a validation error.
func ParseFilters(startDate, endDate, entryType string, tagIDs []string) (Filters, error) {
	var f Filters
	f.StartDate = parseDay(startDate)
	f.EndDate = parseDay(endDate)

	fields := map[string]string{}
	if v := strings.TrimSpace(entryType); v != "" {
		t, err := enums.ParseBudgetEntryType(strings.ToLower(v))
		if err != nil {
			fields["type"] = "must be income or expense"
		} else {
			f.Type = &t
		}
	}
	for _, raw := range tagIDs {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				fields["tag_ids"] = fmt.Sprintf("invalid tag id %q", part)
				continue
			}
			f.TagIDs = append(f.TagIDs, id)
		}
	}
	if len(fields) > 0 {
		return Filters{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid ledger filters").WithDetails(fields)
	}
	return f, nil
}

func parseDay(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil
	}
	return &t
}

func (f Filters) entryQuery() EntryQuery {
	q := EntryQuery{From: f.StartDate, Type: f.Type}
	if f.EndDate != nil {
		to := f.EndDate.AddDate(0, 0, 1)
		q.To = &to
	}
	return q
}

func (f Filters) inRange(day time.Time) bool {
	if f.StartDate != nil && day.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && day.After(*f.EndDate) {
		return false
	}
	return true
}

// matchesTags is true when no tag filter is set or the entry carries any of
// the requested tags.
func (f Filters) matchesTags(tags []uuid.UUID) bool {
	if len(f.TagIDs) == 0 {
		return true
	}
	for _, want := range f.TagIDs {
		for _, have := range tags {
			if want == have {
				return true
			}
		}
	}
	return false
}

// LedgerEntry is either a stored ledger row or a stop rolled up into one.
type LedgerEntry struct {
	ID        uuid.UUID             `json:"id"`
	Date      string                `json:"date"`
	Amount    decimal.Decimal       `json:"amount"`
	Type      enums.BudgetEntryType `json:"type"`
	Notes     *string               `json:"notes,omitempty"`
	SourceID  *uuid.UUID            `json:"source_id,omitempty"`
	UserID    *uuid.UUID            `json:"user_id,omitempty"`
	TagIDs    []uuid.UUID           `json:"tag_ids"`
	IsTrip    bool                  `json:"is_trip"`
	Stop      *StopView             `json:"stop,omitempty"`
	CreatedAt time.Time             `json:"created_at"`

	day time.Time
}

type StopView struct {
	ID            uuid.UUID               `json:"id"`
	TripID        uuid.UUID               `json:"trip_id"`
	StoreID       *uuid.UUID              `json:"store_id,omitempty"`
	StoreName     string                  `json:"store_name"`
	StoreAddress  *string                 `json:"store_address,omitempty"`
	ArrivalTime   *time.Time              `json:"arrival_time,omitempty"`
	DepartureTime *time.Time              `json:"departure_time,omitempty"`
	Position      int                     `json:"position"`
	Purchases     []purchases.PurchaseDTO `json:"purchases"`
}

func fromEntry(e *models.BudgetEntry) LedgerEntry {
	day := dateOnly(e.Date)
	tags := []uuid.UUID(e.TagIDs)
	if tags == nil {
		tags = []uuid.UUID{}
	}
	return LedgerEntry{
		ID:        e.ID,
		Date:      day.Format(dateLayout),
		Amount:    e.Amount,
		Type:      e.Type,
		Notes:     e.Notes,
		SourceID:  e.SourceID,
		UserID:    e.UserID,
		TagIDs:    tags,
		CreatedAt: e.CreatedAt,
		day:       day,
	}
}

// fromStop rolls a stop and its purchases into a single expense. A stop with
// only a linked ledger row reports that row's amount and tags.
func fromStop(stop *models.Stop) LedgerEntry {
	var storeRate decimal.NullDecimal
	if stop.Store != nil {
		storeRate = decimal.NewNullDecimal(stop.Store.TaxRate)
	}

	view := &StopView{
		ID:            stop.ID,
		TripID:        stop.TripID,
		StoreID:       stop.StoreID,
		StoreName:     stop.StoreName,
		StoreAddress:  stop.StoreAddress,
		ArrivalTime:   stop.ArrivalTime,
		DepartureTime: stop.DepartureTime,
		Position:      stop.Position,
		Purchases:     make([]purchases.PurchaseDTO, 0, len(stop.Purchases)),
	}

	amount := decimal.Zero
	tags := newTagSet()
	var userID *uuid.UUID
	for i := range stop.Purchases {
		p := &stop.Purchases[i]
		dto := purchases.FromModel(p, storeRate)
		view.Purchases = append(view.Purchases, dto)
		amount = amount.Add(dto.TotalWithTax)
		tags.add(p.TagIDs...)
		if p.BudgetEntry != nil {
			tags.add(p.BudgetEntry.TagIDs...)
			if userID == nil {
				userID = p.BudgetEntry.UserID
			}
		}
	}
	if linked := stop.BudgetEntry; linked != nil {
		if len(stop.Purchases) == 0 {
			amount = linked.Amount
		}
		tags.add(linked.TagIDs...)
		if userID == nil {
			userID = linked.UserID
		}
	}

	notes := stop.Notes
	if notes == nil || strings.TrimSpace(*notes) == "" {
		n := fmt.Sprintf("Trip to %s", stop.StoreName)
		notes = &n
	}

	day := dateOnly(stopTime(stop))
	return LedgerEntry{
		ID:        stop.ID,
		Date:      day.Format(dateLayout),
		Amount:    amount,
		Type:      enums.BudgetEntryTypeExpense,
		Notes:     notes,
		UserID:    userID,
		TagIDs:    tags.ids,
		IsTrip:    true,
		Stop:      view,
		CreatedAt: stop.CreatedAt,
		day:       day,
	}
}

func stopTime(stop *models.Stop) time.Time {
	switch {
	case stop.ArrivalTime != nil:
		return *stop.ArrivalTime
	case stop.Trip != nil:
		return stop.Trip.StartTime
	default:
		return stop.CreatedAt
	}
}

type tagSet struct {
	seen map[uuid.UUID]struct{}
	ids  []uuid.UUID
}

func newTagSet() *tagSet {
	return &tagSet{seen: map[uuid.UUID]struct{}{}, ids: []uuid.UUID{}}
}

func (s *tagSet) add(ids ...uuid.UUID) {
	for _, id := range ids {
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Summary is one calendar month of household cash flow.
type Summary struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Income      decimal.Decimal `json:"income"`
	Expense     decimal.Decimal `json:"expense"`
	Net         decimal.Decimal `json:"net"`
	SavingsRate decimal.Decimal `json:"savings_rate"`
	EntryCount  int             `json:"entry_count"`
}
