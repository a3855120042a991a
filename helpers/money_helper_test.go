package helpers_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chainsub/chainsub-go/helpers"
)

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   *big.Int
		decimals int
		expected string
	}{
		{"nil amount", nil, 18, "0"},
		{"zero", big.NewInt(0), 6, "0"},
		{"whole tokens", big.NewInt(5000000), 6, "5"},
		{"fractional", big.NewInt(5250000), 6, "5.25"},
		{"sub-unit", big.NewInt(1), 6, "0.000001"},
		{"trailing zeros trimmed", big.NewInt(1500000000000000000), 18, "1.5"},
		{"negative", big.NewInt(-5250000), 6, "-5.25"},
		{"no decimals", big.NewInt(1234), 0, "1234"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, helpers.FormatUnits(tc.amount, tc.decimals))
		})
	}
}

func TestFormatBps(t *testing.T) {
	assert.Equal(t, "100.00%", helpers.FormatBps(10000))
	assert.Equal(t, "33.33%", helpers.FormatBps(3333))
	assert.Equal(t, "0.05%", helpers.FormatBps(5))
	assert.Equal(t, "0.00%", helpers.FormatBps(0))
}
