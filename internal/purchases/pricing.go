package purchases

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/homestead-backend/internal/tax"
	"github.com/angelmondragon/homestead-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/homestead-backend/pkg/errors"
)

// pricedLine is an item with every numeric field coerced and its amounts
// computed: preTax is stored on the purchase, paid on the ledger entry.
type pricedLine struct {
	count         decimal.NullDecimal
	pricePerCount decimal.NullDecimal
	units         decimal.NullDecimal
	pricePerUnit  decimal.NullDecimal
	rate          decimal.NullDecimal
	preTax        decimal.Decimal
	paid          decimal.Decimal
}

func priceLine(item ItemInput, storeRate decimal.NullDecimal) (pricedLine, error) {
	var (
		l         pricedLine
		total     decimal.NullDecimal
		itemRate  decimal.NullDecimal
		fieldErrs = map[string]string{}
	)

	if strings.TrimSpace(item.ItemName) == "" {
		fieldErrs["item_name"] = "is required"
	}

	for _, f := range []struct {
		name string
		src  Numeric
		dst  *decimal.NullDecimal
	}{
		{"count", item.Count, &l.count},
		{"price_per_count", item.PricePerCount, &l.pricePerCount},
		{"units", item.Units, &l.units},
		{"price_per_unit", item.PricePerUnit, &l.pricePerUnit},
		{"total_price", item.TotalPrice, &total},
		{"tax_rate", item.TaxRate, &itemRate},
	} {
		d, err := f.src.Decimal()
		if err != nil {
			fieldErrs[f.name] = err.Error()
			continue
		}
		if d.Valid && d.Decimal.IsNegative() {
			fieldErrs[f.name] = "must not be negative"
			continue
		}
		*f.dst = d
	}
	if len(fieldErrs) > 0 {
		return l, invalidItem(fieldErrs)
	}

	countMode := l.count.Valid || l.pricePerCount.Valid
	unitMode := l.units.Valid || l.pricePerUnit.Valid
	if countMode && unitMode {
		return l, invalidItem(map[string]string{"units": "count and unit pricing are mutually exclusive"})
	}

	switch {
	case total.Valid:
		l.preTax = total.Decimal
	case l.pricePerCount.Valid:
		if !l.count.Valid {
			l.count = decimal.NewNullDecimal(decimal.NewFromInt(1))
		}
		l.preTax = l.count.Decimal.Mul(l.pricePerCount.Decimal)
	case l.units.Valid && l.pricePerUnit.Valid:
		l.preTax = l.units.Decimal.Mul(l.pricePerUnit.Decimal)
	default:
		return l, invalidItem(map[string]string{"total_price": "item has no price"})
	}
	l.preTax = tax.RoundCents(l.preTax)

	rate := decimal.Zero
	if item.Taxable {
		rate = tax.ResolveRate(itemRate, storeRate)
		l.rate = decimal.NewNullDecimal(rate)
	}
	l.paid = tax.RoundCents(tax.PurchaseTotal(l.preTax, item.Taxable, rate))
	return l, nil
}

func invalidItem(fields map[string]string) error {
	parts := make([]string, 0, len(fields))
	for k, v := range fields {
		parts = append(parts, fmt.Sprintf("%s %s", k, v))
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid item: "+strings.Join(parts, "; ")).WithDetails(fields)
}

func validateUpdate(in UpdateItemInput) error {
	fields := map[string]string{}
	if in.ItemName != nil && strings.TrimSpace(*in.ItemName) == "" {
		fields["item_name"] = "cannot be blank"
	}
	for name, v := range map[string]*decimal.Decimal{
		"count":           in.Count,
		"price_per_count": in.PricePerCount,
		"units":           in.Units,
		"price_per_unit":  in.PricePerUnit,
		"total_price":     in.TotalPrice,
	} {
		if v != nil && v.IsNegative() {
			fields[name] = "must not be negative"
		}
	}
	if (in.Count != nil || in.PricePerCount != nil) && (in.Units != nil || in.PricePerUnit != nil) {
		fields["units"] = "count and unit pricing are mutually exclusive"
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid item correction").WithDetails(fields)
	}
	if in.Brand == nil && in.ItemName == nil && in.Unit == nil && in.Count == nil && in.PricePerCount == nil &&
		in.Units == nil && in.PricePerUnit == nil && in.TotalPrice == nil && in.Taxable == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "no changes supplied")
	}
	return nil
}

// applyCorrection patches p. The target purchase takes every field; matched
// historical purchases only take brand, item, unit and the per-count or
// per-unit price matching their own pricing mode. A purchase made taxable
// snapshots the rate it is charged at, as confirmation does.
func applyCorrection(p *models.Purchase, in UpdateItemInput, target bool, storeRate decimal.NullDecimal) {
	if in.Brand != nil {
		p.BrandName = brandName(*in.Brand)
	}
	if in.ItemName != nil {
		p.ItemName = strings.TrimSpace(*in.ItemName)
	}
	if in.Unit != nil {
		p.Unit = trimmed(in.Unit)
	}

	repriced := false
	if target {
		if in.Count != nil || in.PricePerCount != nil {
			setNull(&p.Count, in.Count)
			setNull(&p.PricePerCount, in.PricePerCount)
			p.Units, p.PricePerUnit = decimal.NullDecimal{}, decimal.NullDecimal{}
			repriced = true
		}
		if in.Units != nil || in.PricePerUnit != nil {
			setNull(&p.Units, in.Units)
			setNull(&p.PricePerUnit, in.PricePerUnit)
			p.Count, p.PricePerCount = decimal.NullDecimal{}, decimal.NullDecimal{}
			repriced = true
		}
		if in.Taxable != nil {
			p.Taxable = *in.Taxable
			if p.Taxable && !p.TaxRate.Valid {
				p.TaxRate = decimal.NewNullDecimal(tax.ResolveRate(p.TaxRate, storeRate))
			}
		}
		if in.TotalPrice != nil {
			p.TotalPrice = tax.RoundCents(*in.TotalPrice)
			return
		}
	} else {
		if in.PricePerCount != nil && (p.Count.Valid || p.PricePerCount.Valid) {
			setNull(&p.PricePerCount, in.PricePerCount)
			repriced = true
		}
		if in.PricePerUnit != nil && (p.Units.Valid || p.PricePerUnit.Valid) {
			setNull(&p.PricePerUnit, in.PricePerUnit)
			repriced = true
		}
	}

	if repriced {
		if total, ok := lineTotal(p); ok {
			p.TotalPrice = total
		}
	}
}

func lineTotal(p *models.Purchase) (decimal.Decimal, bool) {
	switch {
	case p.PricePerCount.Valid:
		count := decimal.NewFromInt(1)
		if p.Count.Valid {
			count = p.Count.Decimal
		}
		return tax.RoundCents(count.Mul(p.PricePerCount.Decimal)), true
	case p.Units.Valid && p.PricePerUnit.Valid:
		return tax.RoundCents(p.Units.Decimal.Mul(p.PricePerUnit.Decimal)), true
	}
	return decimal.Decimal{}, false
}

func setNull(dst *decimal.NullDecimal, v *decimal.Decimal) {
	if v != nil {
		*dst = decimal.NewNullDecimal(*v)
	}
}
