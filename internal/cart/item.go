package cart

// BogoRule is a "buy X get Y" promotion attached to a product. Only the
// first rule on an item is ever applied; rules do not stack.
type BogoRule struct {
	BuyQuantity   int     `json:"buy_quantity"`
	GetQuantity   int     `json:"get_quantity"`
	DiscountType  string  `json:"discount_type"` // "flat" | "percent"
	DiscountValue float64 `json:"discount_value"`
}

// CartItem is one line of a customer's cart. Prices are string-encoded
// decimal dollars as delivered by the catalog; malformed values degrade to
// zero instead of failing.
type CartItem struct {
	ID                  string     `json:"id"`
	PosProductID        string     `json:"posProductId"`
	Title               string     `json:"title"`
	Brand               string     `json:"brand"`
	Category            string     `json:"category"`
	Image               string     `json:"image"`
	Weight              string     `json:"weight"`
	Price               string     `json:"price"`
	DiscountedPrice     string     `json:"discountedPrice,omitempty"`
	DiscountDescription string     `json:"discountDescription,omitempty"`
	BogoRules           []BogoRule `json:"bogoRules,omitempty"`
	Quantity            int        `json:"quantity"`
}
