package cli

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseAmount converts a decimal token amount like "1.25" into base units.
// Parsing is exact: more fractional digits than the token carries is an
// error, not a rounding.
func ParseAmount(s string, decimals uint8) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return nil, fmt.Errorf("invalid amount %q", s)
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", s, decimals)
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))
	if whole == "" {
		whole = "0"
	}

	amount, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return amount, nil
}

// FormatAmount renders base units as a decimal token amount with trailing
// zeros trimmed.
func FormatAmount(v *big.Int, decimals uint8, symbol string) string {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(new(big.Int).Set(v), scale, new(big.Int))

	out := whole.String()
	if frac.Sign() != 0 {
		digits := fmt.Sprintf("%0*s", decimals, frac.String())
		out += "." + strings.TrimRight(digits, "0")
	}
	if symbol != "" {
		out += " " + symbol
	}
	return out
}
