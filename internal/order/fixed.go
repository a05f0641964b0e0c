package order

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// fixedExp is the decimal exponent of QtyScale; prices share the same scale
const fixedExp = -8

// ParseFixed converts a decimal string ("0.5", "250000") to a fixed-point integer
func ParseFixed(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}

	scaled := d.Shift(-fixedExp)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("%q has more than %d decimal places", s, -fixedExp)
	}
	if scaled.GreaterThan(maxQty) || scaled.LessThan(maxQty.Neg()) {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return scaled.IntPart(), nil
}

// FormatFixed renders a fixed-point integer as a decimal string
func FormatFixed(v int64) string {
	return decimal.New(v, fixedExp).String()
}
