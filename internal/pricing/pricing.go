package pricing

import (
	"github.com/shopspring/decimal"

	"bloomcart-system/internal/cart"
)

var hundred = decimal.NewFromInt(100)

// BasePrice resolves the unit price for a cart line. A parseable non-zero
// discounted price wins over the list price; when neither parses the item
// prices at zero.
func BasePrice(item cart.CartItem) decimal.Decimal {
	if d := ParseAmount(item.DiscountedPrice); !d.IsZero() {
		return d
	}
	if d := ParseAmount(item.Price); !d.IsZero() {
		return d
	}
	return decimal.Zero
}

// EffectiveLineTotal computes the charged amount for one cart line after
// item-level discount logic. Only the first BOGO rule on an item applies, and
// only to the "get" portion of completed buy+get sets; partial sets pay full
// price. The result is never negative and the function never fails.
func EffectiveLineTotal(item cart.CartItem) decimal.Decimal {
	base := BasePrice(item)
	quantity := int64(item.Quantity)

	if len(item.BogoRules) > 0 {
		rule := item.BogoRules[0]

		buyQty := rule.BuyQuantity
		if buyQty == 0 {
			buyQty = 1
		}
		getQty := rule.GetQuantity
		discountValue := decimal.NewFromFloat(rule.DiscountValue)

		setSize := int64(buyQty + getQty)
		if setSize > 0 && quantity >= setSize && discountValue.IsPositive() {
			setCount := quantity / setSize
			discountedCount := setCount * int64(getQty)

			var discountPerItem decimal.Decimal
			if rule.DiscountType == "flat" {
				discountPerItem = discountValue
			} else {
				discountPerItem = base.Mul(discountValue).Div(hundred)
			}

			discountedTotal := decimal.NewFromInt(discountedCount).Mul(base.Sub(discountPerItem))
			regularTotal := decimal.NewFromInt(quantity - discountedCount).Mul(base)
			return clampZero(discountedTotal.Add(regularTotal))
		}
	}

	return clampZero(base.Mul(decimal.NewFromInt(quantity)))
}

// DiscountedSubtotal aggregates a cart into its BOGO/sale-aware subtotal,
// before any loyalty-point redemption.
func DiscountedSubtotal(items []cart.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(EffectiveLineTotal(item))
	}
	return total
}

// OriginalSubtotal is the discount-blind sum of list price times quantity,
// used for display alongside the discounted figure.
func OriginalSubtotal(items []cart.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		line := ParseAmount(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
