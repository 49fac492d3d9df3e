package ledger

import (
	"strconv"
	"strings"
)

// FormatAmount renders an amount held in minor units as a decimal string,
// trimming trailing zeros. FormatAmount(500000, 6) == "0.5".
func FormatAmount(minorUnits uint64, decimals uint8) string {
	s := strconv.FormatUint(minorUnits, 10)
	if decimals == 0 {
		return s
	}
	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}
	whole, frac := s[:len(s)-d], s[len(s)-d:]
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

// DisplayPrice renders a product's price with its currency label,
// e.g. "0.5 USDC".
func (p Product) DisplayPrice(label string) string {
	return FormatAmount(p.Price, p.Decimals) + " " + label
}
