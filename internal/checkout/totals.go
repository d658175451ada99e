package checkout

import (
	"github.com/shopspring/decimal"

	"bloomcart-system/internal/cart"
	"bloomcart-system/internal/loyalty"
	"bloomcart-system/internal/pricing"
)

// TaxRate is the flat checkout tax rate. No jurisdiction logic applies.
var TaxRate = decimal.RequireFromString("0.13")

// Totals is the derived money state of a session. It is recomputed from
// scratch on every totals-affecting mutation and never patched incrementally.
type Totals struct {
	OriginalSubtotal    decimal.Decimal `json:"originalSubtotal"`
	DiscountedSubtotal  decimal.Decimal `json:"discountedSubtotal"`
	AppliedPointsDollar decimal.Decimal `json:"appliedPointsDollar"`
	FinalSubtotal       decimal.Decimal `json:"finalSubtotal"`
	FinalTax            decimal.Decimal `json:"finalTax"`
	DeliveryFee         decimal.Decimal `json:"deliveryFee"`
	FinalTotal          decimal.Decimal `json:"finalTotal"`
}

// ComputeTotals derives the full money state from a cart snapshot, the points
// the customer chose to redeem, and the order type. The delivery fee only
// enters the total for delivery orders.
func ComputeTotals(items []cart.CartItem, pointsToRedeem int, cfg loyalty.Config, orderType OrderType, deliveryFee decimal.Decimal) Totals {
	discounted := pricing.DiscountedSubtotal(items)
	applied := loyalty.ApplyRedemption(pointsToRedeem, discounted, cfg)

	finalSubtotal := discounted.Sub(applied)
	if finalSubtotal.IsNegative() {
		finalSubtotal = decimal.Zero
	}

	finalTax := finalSubtotal.Mul(TaxRate).Round(2)
	finalTotal := finalSubtotal.Add(finalTax)

	fee := decimal.Zero
	if orderType == OrderTypeDelivery {
		fee = deliveryFee
		finalTotal = finalTotal.Add(fee)
	}

	return Totals{
		OriginalSubtotal:    pricing.OriginalSubtotal(items),
		DiscountedSubtotal:  discounted,
		AppliedPointsDollar: applied,
		FinalSubtotal:       finalSubtotal,
		FinalTax:            finalTax,
		DeliveryFee:         fee,
		FinalTotal:          finalTotal,
	}
}
