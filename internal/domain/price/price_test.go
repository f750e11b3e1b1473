package price

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "rupee symbol", in: "₹120", want: "120"},
		{name: "thousands separator", in: "₹1,250.50", want: "1250.5"},
		{name: "plain number", in: "40", want: "40"},
		{name: "dollar with spaces", in: " $ 9.99 ", want: "9.99"},
		{name: "empty", in: "", want: "0"},
		{name: "no digits", in: "free", want: "0"},
		{name: "second dot ends the number", in: "1.2.3", want: "1.2"},
		{name: "trailing dot", in: "₹15.", want: "15"},
		{name: "lone dot", in: "₹.", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got),
				"Parse(%q) = %s, want %s", tt.in, got, tt.want)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "₹280.00", Format(decimal.NewFromInt(280)))
	assert.Equal(t, "Rs.12.50", FormatASCII(decimal.RequireFromString("12.5")))
}
