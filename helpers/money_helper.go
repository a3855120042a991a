package helpers

import (
	"fmt"
	"math/big"
	"strings"
)

// FormatUnits renders a raw token amount at the given decimals for display.
// The division happens here and only here: accumulation upstream stays in
// integer arithmetic.
func FormatUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	if decimals <= 0 {
		return amount.String()
	}

	negative := amount.Sign() < 0
	abs := new(big.Int).Abs(amount)

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, divisor, new(big.Int))

	fracStr := strings.TrimRight(fmt.Sprintf("%0*s", decimals, frac.String()), "0")

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteString(whole.String())
	if fracStr != "" {
		b.WriteByte('.')
		b.WriteString(fracStr)
	}
	return b.String()
}

// FormatBps renders a basis-point share as a percentage string.
func FormatBps(bps int64) string {
	return fmt.Sprintf("%d.%02d%%", bps/100, bps%100)
}
