// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import (
	"fmt"
	"strings"
)

// ─── Money ──────────────────────────────────────────────────────────────────
// All currency is integer-valued in irons, the smallest unit. No operation
// in this module may create or destroy currency except the settlement split,
// which conserves its input exactly.

// Coins is an amount of currency in irons.
type Coins int64

// Denomination values in irons.
const (
	Iron   Coins = 1
	Copper Coins = 100 * Iron
	Silver Coins = 100 * Copper
	Gold   Coins = 100 * Silver
)

// denominations, largest first, for breakdown and formatting.
var denominations = []struct {
	value  Coins
	suffix string
}{
	{Gold, "g"},
	{Silver, "s"},
	{Copper, "c"},
	{Iron, "i"},
}

// String formats an amount in denominated form, e.g. "1s, 2c, 3i".
// Zero formats as "0i".
func (c Coins) String() string {
	if c == 0 {
		return "0i"
	}
	neg := c < 0
	if neg {
		c = -c
	}

	var parts []string
	for _, d := range denominations {
		if n := c / d.value; n > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", n, d.suffix))
			c -= n * d.value
		}
	}
	s := strings.Join(parts, ", ")
	if neg {
		return "-" + s
	}
	return s
}

// Breakdown returns the exact denomination breakdown, largest first.
// The returned values sum to the amount. Negative amounts return nil.
func (c Coins) Breakdown() []Coins {
	if c <= 0 {
		return nil
	}
	var out []Coins
	for _, d := range denominations {
		for n := c / d.value; n > 0; n-- {
			out = append(out, d.value)
			c -= d.value
		}
	}
	return out
}
