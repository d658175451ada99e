package pricing

import (
	"testing"

	"bloomcart-system/internal/cart"
)

func TestParseAmountLenient(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"20.00", "20"},
		{" 12.50 ", "12.5"},
		{"", "0"},
		{"abc", "0"},
		{"12.3.4", "0"},
		{"-3.25", "-3.25"},
	}
	for _, tt := range tests {
		got := ParseAmount(tt.in)
		if got.String() != tt.want {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestBasePriceDiscountedWins(t *testing.T) {
	item := cart.CartItem{Price: "20.00", DiscountedPrice: "15.00"}
	if got := BasePrice(item); got.String() != "15" {
		t.Errorf("BasePrice = %s, want 15", got)
	}
}

func TestBasePriceFallsBackToListPrice(t *testing.T) {
	tests := []struct {
		name       string
		discounted string
	}{
		{"empty", ""},
		{"unparseable", "not-a-price"},
		{"zero", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := cart.CartItem{Price: "20.00", DiscountedPrice: tt.discounted}
			if got := BasePrice(item); got.String() != "20" {
				t.Errorf("BasePrice = %s, want 20", got)
			}
		})
	}
}

func TestBasePriceBothUnparseable(t *testing.T) {
	item := cart.CartItem{Price: "oops", DiscountedPrice: "nope"}
	if got := BasePrice(item); !got.IsZero() {
		t.Errorf("BasePrice = %s, want 0", got)
	}
}

func TestEffectiveLineTotalNoRules(t *testing.T) {
	item := cart.CartItem{Price: "12.50", Quantity: 3}
	if got := EffectiveLineTotal(item); got.String() != "37.5" {
		t.Errorf("EffectiveLineTotal = %s, want 37.5", got)
	}
}

func TestEffectiveLineTotalBogoSets(t *testing.T) {
	// buy 2 get 1 at 50% off, $10 base, qty 7:
	// 2 completed sets -> 2 discounted items at $5 off each.
	item := cart.CartItem{
		Price:    "10.00",
		Quantity: 7,
		BogoRules: []cart.BogoRule{
			{BuyQuantity: 2, GetQuantity: 1, DiscountType: "percent", DiscountValue: 50},
		},
	}
	if got := EffectiveLineTotal(item); got.String() != "60" {
		t.Errorf("EffectiveLineTotal = %s, want 60", got)
	}
}

func TestEffectiveLineTotalBogoFreeItem(t *testing.T) {
	// buy one get one free, qty 3: one completed set, one free item.
	item := cart.CartItem{
		Price:    "20.00",
		Quantity: 3,
		BogoRules: []cart.BogoRule{
			{BuyQuantity: 1, GetQuantity: 1, DiscountType: "percent", DiscountValue: 100},
		},
	}
	if got := EffectiveLineTotal(item); got.String() != "40" {
		t.Errorf("EffectiveLineTotal = %s, want 40", got)
	}
}

func TestEffectiveLineTotalBogoFlatDiscount(t *testing.T) {
	item := cart.CartItem{
		Price:    "10.00",
		Quantity: 4,
		BogoRules: []cart.BogoRule{
			{BuyQuantity: 1, GetQuantity: 1, DiscountType: "flat", DiscountValue: 3},
		},
	}
	// 2 sets, 2 discounted items at $7, 2 regular at $10.
	if got := EffectiveLineTotal(item); got.String() != "34" {
		t.Errorf("EffectiveLineTotal = %s, want 34", got)
	}
}

func TestEffectiveLineTotalBogoNotTriggered(t *testing.T) {
	tests := []struct {
		name string
		item cart.CartItem
		want string
	}{
		{
			name: "quantity below set size",
			item: cart.CartItem{
				Price:    "10.00",
				Quantity: 2,
				BogoRules: []cart.BogoRule{
					{BuyQuantity: 2, GetQuantity: 1, DiscountType: "percent", DiscountValue: 50},
				},
			},
			want: "20",
		},
		{
			name: "zero discount value",
			item: cart.CartItem{
				Price:    "10.00",
				Quantity: 6,
				BogoRules: []cart.BogoRule{
					{BuyQuantity: 2, GetQuantity: 1, DiscountType: "percent", DiscountValue: 0},
				},
			},
			want: "60",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveLineTotal(tt.item); got.String() != tt.want {
				t.Errorf("EffectiveLineTotal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEffectiveLineTotalOnlyFirstRuleApplies(t *testing.T) {
	item := cart.CartItem{
		Price:    "10.00",
		Quantity: 4,
		BogoRules: []cart.BogoRule{
			{BuyQuantity: 1, GetQuantity: 1, DiscountType: "percent", DiscountValue: 100},
			{BuyQuantity: 1, GetQuantity: 3, DiscountType: "percent", DiscountValue: 100},
		},
	}
	// Only rule[0]: 2 sets, 2 free items -> $20.
	if got := EffectiveLineTotal(item); got.String() != "20" {
		t.Errorf("EffectiveLineTotal = %s, want 20", got)
	}
}

func TestEffectiveLineTotalDefaultBuyQuantity(t *testing.T) {
	// buy_quantity defaults to 1 when absent.
	item := cart.CartItem{
		Price:    "10.00",
		Quantity: 2,
		BogoRules: []cart.BogoRule{
			{GetQuantity: 1, DiscountType: "percent", DiscountValue: 100},
		},
	}
	if got := EffectiveLineTotal(item); got.String() != "10" {
		t.Errorf("EffectiveLineTotal = %s, want 10", got)
	}
}

func TestEffectiveLineTotalNeverNegative(t *testing.T) {
	item := cart.CartItem{
		Price:    "2.00",
		Quantity: 2,
		BogoRules: []cart.BogoRule{
			{BuyQuantity: 1, GetQuantity: 1, DiscountType: "flat", DiscountValue: 500},
		},
	}
	got := EffectiveLineTotal(item)
	if got.IsNegative() {
		t.Errorf("EffectiveLineTotal = %s, want >= 0", got)
	}
}

func TestDiscountedSubtotal(t *testing.T) {
	items := []cart.CartItem{
		{Price: "20.00", Quantity: 3, BogoRules: []cart.BogoRule{
			{BuyQuantity: 1, GetQuantity: 1, DiscountType: "percent", DiscountValue: 100},
		}},
		{Price: "5.00", Quantity: 2},
	}
	if got := DiscountedSubtotal(items); got.String() != "50" {
		t.Errorf("DiscountedSubtotal = %s, want 50", got)
	}
}

func TestOriginalSubtotalIsDiscountBlind(t *testing.T) {
	items := []cart.CartItem{
		{Price: "20.00", DiscountedPrice: "10.00", Quantity: 2},
		{Price: "bad", Quantity: 5},
	}
	if got := OriginalSubtotal(items); got.String() != "40" {
		t.Errorf("OriginalSubtotal = %s, want 40", got)
	}
}
