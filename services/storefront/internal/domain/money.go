package domain

import (
	"fmt"
	"math"
)

// FormatCents renders integer minor units as dollars, e.g. 9997 -> "$99.97".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// LineTotal multiplies price by quantity, failing instead of wrapping.
func LineTotal(price, quantity int64) (int64, error) {
	if price < 0 || quantity < 0 {
		return 0, fmt.Errorf("%w: negative amount", ErrValidation)
	}
	if quantity != 0 && price > math.MaxInt64/quantity {
		return 0, fmt.Errorf("%w: line total overflows", ErrValidation)
	}
	return price * quantity, nil
}

// AddCents sums two non-negative amounts, failing instead of wrapping.
func AddCents(a, b int64) (int64, error) {
	if b > math.MaxInt64-a {
		return 0, fmt.Errorf("%w: order total overflows", ErrValidation)
	}
	return a + b, nil
}
