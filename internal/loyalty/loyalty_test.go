package loyalty

import (
	"testing"

	"github.com/shopspring/decimal"
)

func testConfig(redeemValue, maxPercentOff string) Config {
	return Config{
		PointsEarnRate:    decimal.NewFromInt(1),
		PointsRedeemValue: decimal.RequireFromString(redeemValue),
		MaxPercentOff:     decimal.RequireFromString(maxPercentOff),
	}
}

func TestRedemptionEnvelopeCaps(t *testing.T) {
	// $100 subtotal, 50% cap, $0.025/point -> $50 cap -> 2000 points.
	cfg := testConfig("0.025", "50")
	subtotal := decimal.NewFromInt(100)

	env := RedemptionEnvelope(5000, subtotal, cfg)
	if env.EffectiveMaxPoints != 2000 {
		t.Errorf("EffectiveMaxPoints = %d, want 2000", env.EffectiveMaxPoints)
	}

	env = RedemptionEnvelope(1500, subtotal, cfg)
	if env.EffectiveMaxPoints != 1500 {
		t.Errorf("EffectiveMaxPoints = %d, want 1500 (balance-bound)", env.EffectiveMaxPoints)
	}
}

func TestRedemptionEnvelopeZeroPercentOffMeansUncapped(t *testing.T) {
	cfg := testConfig("0.025", "0")
	env := RedemptionEnvelope(10000, decimal.NewFromInt(100), cfg)
	// Uncapped by percent: bounded only by subtotal/redeem value = 4000.
	if env.EffectiveMaxPoints != 4000 {
		t.Errorf("EffectiveMaxPoints = %d, want 4000", env.EffectiveMaxPoints)
	}
}

func TestRedemptionEnvelopeZeroRedeemValue(t *testing.T) {
	cfg := testConfig("0", "50")
	env := RedemptionEnvelope(10000, decimal.NewFromInt(100), cfg)
	if env.EffectiveMaxPoints != 0 {
		t.Errorf("EffectiveMaxPoints = %d, want 0", env.EffectiveMaxPoints)
	}
	if len(env.Options) != 1 || env.Options[0].Display != "None" {
		t.Errorf("options = %+v, want only the None entry", env.Options)
	}
}

func TestRedemptionMenuShape(t *testing.T) {
	cfg := testConfig("0.025", "0")
	// Subtotal $12.50 -> cap 500 points.
	env := RedemptionEnvelope(500, decimal.RequireFromString("12.50"), cfg)

	if env.Options[0].Points != 0 || env.Options[0].Display != "None" {
		t.Fatalf("first option = %+v, want the None entry", env.Options[0])
	}

	wantPoints := []int{0, 200, 400, 500}
	if len(env.Options) != len(wantPoints) {
		t.Fatalf("got %d options, want %d: %+v", len(env.Options), len(wantPoints), env.Options)
	}
	for i, want := range wantPoints {
		if env.Options[i].Points != want {
			t.Errorf("option[%d].Points = %d, want %d", i, env.Options[i].Points, want)
		}
		if i > 0 && env.Options[i].Points <= env.Options[i-1].Points {
			t.Errorf("option points not strictly increasing at %d", i)
		}
	}

	if env.Options[1].Display != "200 points ($5.00 off)" {
		t.Errorf("display = %q", env.Options[1].Display)
	}
}

func TestRedemptionMenuExactMultipleHasNoTrailingEntry(t *testing.T) {
	cfg := testConfig("0.025", "0")
	env := RedemptionEnvelope(400, decimal.NewFromInt(100), cfg)
	wantPoints := []int{0, 200, 400}
	if len(env.Options) != len(wantPoints) {
		t.Fatalf("got %d options, want %d", len(env.Options), len(wantPoints))
	}
	for i, want := range wantPoints {
		if env.Options[i].Points != want {
			t.Errorf("option[%d].Points = %d, want %d", i, env.Options[i].Points, want)
		}
	}
}

func TestApplyRedemptionTripleCap(t *testing.T) {
	cfg := testConfig("0.025", "50")
	subtotal := decimal.NewFromInt(100)

	// Within bounds: 1000 points -> $25.
	if got := ApplyRedemption(1000, subtotal, cfg); got.String() != "25" {
		t.Errorf("ApplyRedemption(1000) = %s, want 25", got)
	}

	// 5000 points would be $125; clamped to the $50 policy cap.
	if got := ApplyRedemption(5000, subtotal, cfg); got.String() != "50" {
		t.Errorf("ApplyRedemption(5000) = %s, want 50", got)
	}

	// Uncapped policy but tiny subtotal: clamped to the subtotal.
	uncapped := testConfig("0.025", "0")
	small := decimal.NewFromInt(3)
	if got := ApplyRedemption(5000, small, uncapped); got.String() != "3" {
		t.Errorf("ApplyRedemption small subtotal = %s, want 3", got)
	}
}

func TestApplyRedemptionMonotonic(t *testing.T) {
	cfg := testConfig("0.025", "50")
	subtotal := decimal.NewFromInt(100)

	prev := decimal.Zero
	for points := 0; points <= 4000; points += 100 {
		got := ApplyRedemption(points, subtotal, cfg)
		if got.LessThan(prev) {
			t.Fatalf("applied value decreased at %d points: %s < %s", points, got, prev)
		}
		prev = got
	}
	// Flat past the envelope.
	at2000 := ApplyRedemption(2000, subtotal, cfg)
	at4000 := ApplyRedemption(4000, subtotal, cfg)
	if !at2000.Equal(at4000) {
		t.Errorf("applied value not flat past cap: %s vs %s", at2000, at4000)
	}
}

func TestApplyRedemptionNegativePoints(t *testing.T) {
	cfg := testConfig("0.025", "0")
	if got := ApplyRedemption(-100, decimal.NewFromInt(100), cfg); !got.IsZero() {
		t.Errorf("ApplyRedemption(-100) = %s, want 0", got)
	}
}

func TestPointsEarnedOnlyWithoutRedemption(t *testing.T) {
	cfg := Config{
		PointsEarnRate:    decimal.NewFromInt(2),
		PointsRedeemValue: decimal.RequireFromString("0.025"),
	}
	total := decimal.RequireFromString("45.20")

	if got := PointsEarned(total, 0, cfg); got != 90 {
		t.Errorf("PointsEarned = %d, want 90", got)
	}
	if got := PointsEarned(total, 200, cfg); got != 0 {
		t.Errorf("PointsEarned with redemption = %d, want 0", got)
	}
}

func TestFallbackConfig(t *testing.T) {
	cfg := FallbackConfig()
	if !cfg.PointsEarnRate.IsZero() {
		t.Errorf("fallback earn rate = %s, want 0", cfg.PointsEarnRate)
	}
	if cfg.PointsRedeemValue.String() != "0.025" {
		t.Errorf("fallback redeem value = %s, want 0.025", cfg.PointsRedeemValue)
	}
	if !cfg.MaxPercentOff.IsZero() {
		t.Errorf("fallback max percent off = %s, want 0", cfg.MaxPercentOff)
	}
}
