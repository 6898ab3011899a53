package purchases

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeClock(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"9:30", "09:30:00", true},
		{"09:30:00", "09:30:00", true},
		{"14:5", "14:05:00", true},
		{" 7:05:9 ", "07:05:09", true},
		{"2:15 pm", "14:15:00", true},
		{"12:00 AM", "00:00:00", true},
		{"", DefaultClock, true},
		{"25:00", DefaultClock, false},
		{"noon", DefaultClock, false},
		{"9:30:00:00", DefaultClock, false},
		{"13:00 PM", DefaultClock, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := NormalizeClock(tc.in)
			assert.Equal(t, tc.want, got)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2026-03-14", "03/14/2026", "3/14/2026", "2026-03-14T18:22:00Z"} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}
	_, err := ParseDate("last tuesday")
	assert.Error(t, err)
}

func TestAtCombinesDateAndClock(t *testing.T) {
	got := At(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), "09:30:00")
	assert.Equal(t, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC), got)
}

func TestNumericAcceptsNumbersAndStrings(t *testing.T) {
	var item struct {
		A Numeric `json:"a"`
		B Numeric `json:"b"`
		C Numeric `json:"c"`
		D Numeric `json:"d"`
		E Numeric `json:"e"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 3.50, "b": "3.50", "c": null, "d": "abc", "e": ""}`), &item))

	a, err := item.A.Decimal()
	require.NoError(t, err)
	b, err := item.B.Decimal()
	require.NoError(t, err)
	assert.Equal(t, "3.5", a.Decimal.String())
	assert.Equal(t, a.Decimal.String(), b.Decimal.String())

	c, err := item.C.Decimal()
	require.NoError(t, err)
	assert.False(t, c.Valid)
	assert.False(t, item.E.IsSet())

	_, err = item.D.Decimal()
	assert.Error(t, err)

	out, err := json.Marshal(item.B)
	require.NoError(t, err)
	assert.JSONEq(t, `"3.50"`, string(out))
}
