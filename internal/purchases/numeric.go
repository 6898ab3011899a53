package purchases

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Numeric keeps a receipt number exactly as the client sent it. Clients send
// both JSON numbers and numeric strings; coercion to a decimal happens per
// line item so one bad value only drops its own line.
type Numeric struct {
	raw string
	set bool
}

// NumericOf builds a Numeric from text, as if it arrived in a request body.
func NumericOf(raw string) Numeric {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Numeric{}
	}
	return Numeric{raw: raw, set: true}
}

// NumericFromDecimal wraps an already parsed value.
func NumericFromDecimal(d decimal.NullDecimal) Numeric {
	if !d.Valid {
		return Numeric{}
	}
	return Numeric{raw: d.Decimal.String(), set: true}
}

func (n Numeric) IsSet() bool { return n.set }

func (n Numeric) String() string { return n.raw }

// Decimal returns the canonical decimal form; an unset value is null.
func (n Numeric) Decimal() (decimal.NullDecimal, error) {
	if !n.set {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(n.raw)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid decimal %q", n.raw)
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(d.String())), nil
}

func (n *Numeric) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "null" {
		*n = Numeric{}
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		text = s
	}
	*n = NumericOf(text)
	return nil
}

func (n Numeric) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	return json.Marshal(n.raw)
}
