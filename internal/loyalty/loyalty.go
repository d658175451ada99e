package loyalty

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RedemptionIncrement is the step size of the redemption menu, a fixed
// business constant.
const RedemptionIncrement = 200

var hundred = decimal.NewFromInt(100)

// Config is the loyalty program configuration fetched per checkout session.
type Config struct {
	PointsEarnRate    decimal.Decimal `json:"pointsEarnRate"`
	PointsRedeemValue decimal.Decimal `json:"pointsRedeemValue"`
	MaxPercentOff     decimal.Decimal `json:"maxPercentOff"`
}

// FallbackConfig is applied when the settings collaborator is unreachable:
// no earning, the standard $0.025 per point redeem value, and no percent cap.
func FallbackConfig() Config {
	return Config{
		PointsEarnRate:    decimal.Zero,
		PointsRedeemValue: decimal.RequireFromString("0.025"),
		MaxPercentOff:     decimal.Zero,
	}
}

type RedemptionOption struct {
	Points  int             `json:"points"`
	Value   decimal.Decimal `json:"value"`
	Display string          `json:"display"`
}

// Envelope is the legal redemption range for one order: the most points the
// customer may apply, and the stepped menu of choices offered.
type Envelope struct {
	EffectiveMaxPoints int                `json:"effectiveMaxPoints"`
	Options            []RedemptionOption `json:"options"`
}

// dollarCap bounds redemption by the percent-off policy. A zero or negative
// MaxPercentOff reads as "no cap", matching the historical falsy-sentinel
// behavior; see the notes in DESIGN.md before changing this.
func dollarCap(discountedSubtotal decimal.Decimal, cfg Config) decimal.Decimal {
	if cfg.MaxPercentOff.IsPositive() {
		return discountedSubtotal.Mul(cfg.MaxPercentOff).Div(hundred)
	}
	return discountedSubtotal
}

// RedemptionEnvelope computes how many of the customer's points are usable
// against the given subtotal and builds the selection menu: a leading "None"
// entry, 200-point steps, and a final partial step when the maximum is not an
// exact multiple.
func RedemptionEnvelope(availablePoints int, discountedSubtotal decimal.Decimal, cfg Config) Envelope {
	policyCap := dollarCap(discountedSubtotal, cfg)

	pointsCap := 0
	if cfg.PointsRedeemValue.IsPositive() {
		pointsCap = int(policyCap.Div(cfg.PointsRedeemValue).IntPart())
	}

	effectiveMax := availablePoints
	if pointsCap < effectiveMax {
		effectiveMax = pointsCap
	}
	if effectiveMax < 0 {
		effectiveMax = 0
	}

	options := []RedemptionOption{{Points: 0, Value: decimal.Zero, Display: "None"}}
	for i := RedemptionIncrement; i <= effectiveMax; i += RedemptionIncrement {
		options = append(options, redemptionOption(i, cfg.PointsRedeemValue))
	}
	if effectiveMax > 0 && effectiveMax%RedemptionIncrement != 0 {
		options = append(options, redemptionOption(effectiveMax, cfg.PointsRedeemValue))
	}

	return Envelope{EffectiveMaxPoints: effectiveMax, Options: options}
}

func redemptionOption(points int, redeemValue decimal.Decimal) RedemptionOption {
	value := decimal.NewFromInt(int64(points)).Mul(redeemValue)
	return RedemptionOption{
		Points:  points,
		Value:   value,
		Display: fmt.Sprintf("%d points ($%s off)", points, value.StringFixed(2)),
	}
}

// ApplyRedemption converts a requested point spend into the dollar value
// actually applied, triple-capped: by the requested points, by the percent-off
// policy, and by the subtotal itself. The result is never negative.
func ApplyRedemption(pointsToRedeem int, discountedSubtotal decimal.Decimal, cfg Config) decimal.Decimal {
	if pointsToRedeem <= 0 {
		return decimal.Zero
	}

	applied := decimal.NewFromInt(int64(pointsToRedeem)).Mul(cfg.PointsRedeemValue)
	if policyCap := dollarCap(discountedSubtotal, cfg); applied.GreaterThan(policyCap) {
		applied = policyCap
	}
	if applied.GreaterThan(discountedSubtotal) {
		applied = discountedSubtotal
	}
	if applied.IsNegative() {
		return decimal.Zero
	}
	return applied
}

// PointsEarned is the ledger credit for a completed order. Orders that
// redeemed points earn nothing: the program is earn-or-redeem, never both.
func PointsEarned(finalTotal decimal.Decimal, pointsRedeemed int, cfg Config) int {
	if pointsRedeemed > 0 {
		return 0
	}
	earned := finalTotal.Mul(cfg.PointsEarnRate)
	if earned.IsNegative() {
		return 0
	}
	return int(earned.IntPart())
}
