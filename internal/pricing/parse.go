package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount is the lenient money parser used across checkout. Catalog
// price fields arrive as strings and are not trusted: anything that does not
// parse degrades to zero rather than erroring, so a malformed price can never
// abort a totals recompute.
func ParseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
