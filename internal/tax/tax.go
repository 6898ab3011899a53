// Package tax turns pre-tax line amounts into what the household actually paid.
//
// Rates are fractions (0.0825). Rows written before rates were normalized may
// still hold whole percents (8.25); every read goes through NormalizeRate.
package tax

import "github.com/shopspring/decimal"

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// NormalizeRate returns rate as a fraction. Values >= 1 are whole percents.
func NormalizeRate(rate decimal.Decimal) decimal.Decimal {
	if rate.IsNegative() {
		return decimal.Zero
	}
	if rate.GreaterThanOrEqual(one) {
		return rate.Div(hundred)
	}
	return rate
}

// DisplayPercent converts a stored rate to the percent shown to users.
func DisplayPercent(stored decimal.Decimal) decimal.Decimal {
	if stored.IsNegative() {
		return decimal.Zero
	}
	if stored.LessThan(one) {
		return stored.Mul(hundred)
	}
	return stored
}

// PercentToFraction converts a user-typed percent (8.25) into the stored fraction.
func PercentToFraction(percent decimal.Decimal) decimal.Decimal {
	if percent.IsNegative() {
		return decimal.Zero
	}
	return percent.Div(hundred)
}

// ResolveRate picks the purchase's own rate, then the store's, then zero.
func ResolveRate(purchaseRate, storeRate decimal.NullDecimal) decimal.Decimal {
	if purchaseRate.Valid {
		return NormalizeRate(purchaseRate.Decimal)
	}
	if storeRate.Valid {
		return NormalizeRate(storeRate.Decimal)
	}
	return decimal.Zero
}

// PurchaseTotal is preTax for non-taxable lines and preTax*(1+rate) otherwise.
// The result is not rounded; callers persisting money use RoundCents.
func PurchaseTotal(preTax decimal.Decimal, taxable bool, rate decimal.Decimal) decimal.Decimal {
	if !taxable {
		return preTax
	}
	return preTax.Mul(one.Add(NormalizeRate(rate)))
}

// RecoverPreTax inverts PurchaseTotal for edit pre-fill.
func RecoverPreTax(total decimal.Decimal, taxable bool, rate decimal.Decimal) decimal.Decimal {
	if !taxable {
		return total
	}
	return RoundCents(total.Div(one.Add(NormalizeRate(rate))))
}

func RoundCents(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
