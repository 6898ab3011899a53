package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPurchaseTotal(t *testing.T) {
	cases := []struct {
		name    string
		preTax  string
		taxable bool
		rate    string
		want    string
	}{
		{"non taxable ignores rate", "20", false, "0.08", "20"},
		{"fractional rate", "20", true, "0.08", "21.6"},
		{"whole percent rate", "20", true, "8", "21.6"},
		{"zero rate", "4.50", true, "0", "4.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PurchaseTotal(dec(tc.preTax), tc.taxable, dec(tc.rate))
			assert.True(t, dec(tc.want).Equal(got), "got %s", got)
		})
	}
}

func TestRecoverPreTaxRoundTrip(t *testing.T) {
	tolerance := dec("0.01")
	for _, rate := range []string{"0", "0.0825", "0.06"} {
		for _, amount := range []string{"20", "3.99", "12.49", "0.01", "1234.56"} {
			preTax := dec(amount)
			total := RoundCents(PurchaseTotal(preTax, true, dec(rate)))
			recovered := RecoverPreTax(total, true, dec(rate))
			assert.True(t, recovered.Sub(preTax).Abs().LessThanOrEqual(tolerance),
				"rate %s amount %s recovered %s", rate, amount, recovered)
		}
	}
}

func TestRecoverPreTaxNonTaxable(t *testing.T) {
	assert.True(t, dec("9.75").Equal(RecoverPreTax(dec("9.75"), false, dec("0.08"))))
}

func TestRateConversions(t *testing.T) {
	assert.True(t, dec("0.0825").Equal(NormalizeRate(dec("8.25"))))
	assert.True(t, dec("0.0825").Equal(NormalizeRate(dec("0.0825"))))
	assert.True(t, decimal.Zero.Equal(NormalizeRate(dec("-1"))))

	assert.True(t, dec("8.25").Equal(DisplayPercent(dec("0.0825"))))
	assert.True(t, dec("8.25").Equal(DisplayPercent(dec("8.25"))))

	assert.True(t, dec("0.0825").Equal(PercentToFraction(dec("8.25"))))
	assert.True(t, dec("0.005").Equal(PercentToFraction(dec("0.5"))))
}

func TestResolveRate(t *testing.T) {
	purchase := decimal.NewNullDecimal(dec("0.06"))
	store := decimal.NewNullDecimal(dec("8"))

	assert.True(t, dec("0.06").Equal(ResolveRate(purchase, store)))
	assert.True(t, dec("0.08").Equal(ResolveRate(decimal.NullDecimal{}, store)))
	assert.True(t, decimal.Zero.Equal(ResolveRate(decimal.NullDecimal{}, decimal.NullDecimal{})))
}
