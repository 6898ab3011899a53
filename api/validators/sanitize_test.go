package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "trims", input: "  Great Value \n", want: "Great Value"},
		{name: "collapses padding", input: "GREAT \t  VALUE", want: "GREAT VALUE"},
		{name: "caps by rune", input: "Häagen-Dazs", maxLen: 3, want: "Häa"},
		{name: "drops trailing space after cut", input: "Great Value", maxLen: 6, want: "Great"},
		{name: "blank", input: "   ", maxLen: 10, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeString(tc.input, tc.maxLen))
		})
	}
}
