package checkout

import (
	"context"

	"github.com/shopspring/decimal"

	"bloomcart-system/internal/cart"
	"bloomcart-system/internal/loyalty"
	"bloomcart-system/internal/schedule"
)

// Customer is the contact block attached to a checkout session. Guests check
// out with UserID zero.
type Customer struct {
	UserID    int64  `json:"userId,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birthDate,omitempty"`
}

type DeliveryAddress struct {
	Street string `json:"street"`
	Apt    string `json:"apt,omitempty"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// DeliveryZone is the store's delivery configuration from the zone provider.
type DeliveryZone struct {
	Schedule    schedule.WeekSchedule `json:"schedule"`
	DeliveryMin decimal.Decimal       `json:"deliveryMin"`
	DeliveryFee decimal.Decimal       `json:"deliveryFee"`
	Available   bool                  `json:"available"`
}

type TransactionResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId,omitempty"`
}

type SubmitOrderResult struct {
	OrderID int64 `json:"orderId"`
	Status  int   `json:"status"`
}

// CartProvider is the live cart owned outside the session; a fresh snapshot
// is read before every totals recompute. The redis cart store satisfies it.
type CartProvider interface {
	Get(ctx context.Context, cartID string) ([]cart.CartItem, error)
	Clear(ctx context.Context, cartID string) error
}

type LoyaltyConfigProvider interface {
	FetchLoyaltyConfig(ctx context.Context) (loyalty.Config, error)
}

type DeliveryZoneProvider interface {
	GetDeliveryZone(ctx context.Context) (DeliveryZone, error)
	CheckAddressInZone(ctx context.Context, address string) (bool, error)
	CheckDeliveryEligibility(ctx context.Context) (bool, error)
}

// PaymentProvider is the AeroPay-shaped collaborator. The session only relies
// on the token handshake and the success/amount contract of CreateTransaction.
// The charge itself authenticates with the user-scoped token from the
// handshake, never the merchant token.
type PaymentProvider interface {
	FetchMerchantToken(ctx context.Context) (string, error)
	FetchUserScopedToken(ctx context.Context, aeropayUserID string) (string, error)
	CreateTransaction(ctx context.Context, userToken string, amount string, bankAccountID string) (TransactionResult, error)
}

type SubmitOrderRequest struct {
	Items           []cart.CartItem
	Customer        Customer
	OrderType       OrderType
	DeliveryAddress *DeliveryAddress
	DeliveryDate    string
	DeliveryTime    string
	PointsRedeem    int
	DiscountNote    string
}

type PlaceOrderRequest struct {
	UserID         int64
	OrderID        int64
	PointsEarned   int
	PointsRedeemed int
	Total          decimal.Decimal
	Items          []cart.CartItem
	Email          string
	CustomerName   string
}

type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, req SubmitOrderRequest) (SubmitOrderResult, error)
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) error
	SendOrderConfirmation(ctx context.Context, email string, orderID int64) error
}

// OrderRecord is the locally persisted trace of a confirmed order.
type OrderRecord struct {
	OrderID        int64
	DocumentNumber string
	UserID         int64
	CustomerName   string
	Email          string
	OrderType      string
	PaymentMethod  string
	Subtotal       string
	Tax            string
	DeliveryFee    string
	Total          string
	PointsEarned   int
	PointsRedeemed int
	Items          []cart.CartItem
}

type OrderRecorder interface {
	SaveOrder(ctx context.Context, rec OrderRecord) error
}

type EventPublisher interface {
	PublishOrderEvent(eventType string, key string, payload interface{})
}
