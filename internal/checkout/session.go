package checkout

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bloomcart-system/internal/cart"
	"bloomcart-system/internal/events"
	"bloomcart-system/internal/loyalty"
	"bloomcart-system/internal/schedule"
)

type State string

const (
	StateIdle            State = "IDLE"
	StateTotalsComputed  State = "TOTALS_COMPUTED"
	StatePaymentPending  State = "PAYMENT_PENDING"
	StatePaymentFailed   State = "PAYMENT_FAILED"
	StateOrderSubmitting State = "ORDER_SUBMITTING"
	StateOrderConfirmed  State = "ORDER_CONFIRMED"
	StateOrderFailed     State = "ORDER_FAILED"
)

type OrderType string

const (
	OrderTypePickup   OrderType = "pickup"
	OrderTypeDelivery OrderType = "delivery"
)

type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "cash"
	PaymentMethodAeroPay PaymentMethod = "aeropay"
)

type EventType string

const (
	EventCartChanged      EventType = "CART_CHANGED"
	EventPointsChanged    EventType = "POINTS_CHANGED"
	EventOrderTypeChanged EventType = "ORDER_TYPE_CHANGED"
	EventDateSelected     EventType = "DATE_SELECTED"
	EventPaymentResult    EventType = "PAYMENT_RESULT"
	EventSubmissionResult EventType = "SUBMISSION_RESULT"
)

// Event is a session mutation applied through the single Apply entry point.
// Only the fields relevant to the event type are read.
type Event struct {
	Type      EventType `json:"type"`
	Points    int       `json:"points,omitempty"`
	OrderType OrderType `json:"orderType,omitempty"`
	Date      string    `json:"date,omitempty"`
	Time      string    `json:"time,omitempty"`
	Success   bool      `json:"success,omitempty"`
}

// NoticeDuration is how long a customer-facing notice stays visible.
const NoticeDuration = 7 * time.Second

// PaymentTimeout bounds the AeroPay token handshake plus the charge itself.
const PaymentTimeout = 15 * time.Second

type Notice struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Session is one customer's checkout flow. A session has a single owner; all
// mutations go through the Manager, which serializes them per session.
type Session struct {
	ID     string `json:"id"`
	CartID string `json:"cartId"`

	Customer Customer `json:"customer"`
	IsGuest  bool     `json:"isGuest"`

	OrderType     OrderType     `json:"orderType"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`

	PointsBalance  int `json:"pointsBalance"`
	PointsToRedeem int `json:"pointsToRedeem"`

	AeropayUserID  string `json:"aeropayUserId,omitempty"`
	SelectedBankID string `json:"selectedBankId,omitempty"`

	DeliveryAddress DeliveryAddress `json:"deliveryAddress"`
	AddressValid    bool            `json:"addressValid"`
	DeliveryDate    string          `json:"deliveryDate,omitempty"`
	DeliveryTime    string          `json:"deliveryTime,omitempty"`
	DeliveryEnabled bool            `json:"deliveryEnabled"`

	Items  []cart.CartItem `json:"items"`
	Totals Totals          `json:"totals"`

	LoyaltyConfig loyalty.Config `json:"loyaltyConfig"`
	Zone          DeliveryZone   `json:"zone"`

	State     State   `json:"state"`
	IsLoading bool    `json:"isLoading"`
	Notice    *Notice `json:"notice,omitempty"`

	OrderID int64 `json:"orderId,omitempty"`

	mu sync.Mutex
}

// Manager owns the checkout sessions and orchestrates the order flow against
// the external collaborators. Recorder and publisher are optional; a nil value
// disables local persistence or event publishing.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	carts      CartProvider
	loyaltyCfg LoyaltyConfigProvider
	zones      DeliveryZoneProvider
	payments   PaymentProvider
	orders     OrderSubmitter
	recorder   OrderRecorder
	publisher  EventPublisher

	now func() time.Time
}

func NewManager(
	carts CartProvider,
	loyaltyCfg LoyaltyConfigProvider,
	zones DeliveryZoneProvider,
	payments PaymentProvider,
	orders OrderSubmitter,
	recorder OrderRecorder,
	publisher EventPublisher,
) *Manager {
	return &Manager{
		sessions:   make(map[string]*Session),
		carts:      carts,
		loyaltyCfg: loyaltyCfg,
		zones:      zones,
		payments:   payments,
		orders:     orders,
		recorder:   recorder,
		publisher:  publisher,
		now:        time.Now,
	}
}

var ErrSessionNotFound = fmt.Errorf("checkout session not found")

// StartSession opens a checkout flow over an existing cart. A failed loyalty
// config fetch falls back to defaults so checkout stays available; a failed
// zone fetch disables delivery for the session.
func (m *Manager) StartSession(ctx context.Context, cartID string, customer Customer, pointsBalance int) (*Session, error) {
	s := &Session{
		ID:            uuid.New().String(),
		CartID:        cartID,
		Customer:      customer,
		IsGuest:       customer.UserID == 0,
		OrderType:     OrderTypePickup,
		PaymentMethod: PaymentMethodCash,
		PointsBalance: pointsBalance,
		State:         StateIdle,
		LoyaltyConfig: loyalty.FallbackConfig(),
	}

	if cfg, err := m.loyaltyCfg.FetchLoyaltyConfig(ctx); err != nil {
		log.Printf("loyalty config fetch failed, using defaults: %v", err)
	} else {
		s.LoyaltyConfig = cfg
	}

	if zone, err := m.zones.GetDeliveryZone(ctx); err != nil {
		log.Printf("delivery zone fetch failed, delivery disabled: %v", err)
	} else {
		s.Zone = zone
		if zone.Available {
			eligible, err := m.zones.CheckDeliveryEligibility(ctx)
			if err != nil {
				log.Printf("delivery eligibility check failed: %v", err)
			} else {
				s.DeliveryEnabled = eligible
			}
		}
	}

	if err := m.recompute(ctx, s); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s, nil
}

func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Apply runs one mutation event against a session and synchronously recomputes
// totals from a fresh cart snapshot before returning. The returned session
// never carries stale totals.
func (m *Manager) Apply(ctx context.Context, sessionID string, ev Event) (*Session, error) {
	s, err := m.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Type {
	case EventCartChanged:
		// recompute below picks up the new snapshot

	case EventPointsChanged:
		points := ev.Points
		if points < 0 {
			points = 0
		}
		if points > s.PointsBalance {
			points = s.PointsBalance
		}
		s.PointsToRedeem = points

	case EventOrderTypeChanged:
		s.OrderType = ev.OrderType
		if ev.OrderType == OrderTypeDelivery {
			// delivery is AeroPay-only
			s.PaymentMethod = PaymentMethodAeroPay
		}

	case EventDateSelected:
		slots := schedule.TimeOptionsForDate(s.Zone.Schedule, ev.Date, m.now())
		s.DeliveryDate = slots.Date
		if ev.Time != "" && !slots.DateAdvanced {
			s.DeliveryTime = ev.Time
		} else {
			s.DeliveryTime = slots.Selected
		}
		if slots.DateAdvanced {
			m.notify(s, fmt.Sprintf("Delivery for that day has closed; moved to %s.", slots.Date))
		}
		// slot selection never affects money
		return s, nil

	case EventPaymentResult:
		if ev.Success {
			s.State = StateOrderSubmitting
		} else {
			s.State = StatePaymentFailed
			m.notify(s, "Payment failed. Please try again.")
		}
		return s, nil

	case EventSubmissionResult:
		if ev.Success {
			s.State = StateOrderConfirmed
		} else {
			s.State = StateOrderFailed
			m.notify(s, "Error placing your order. Please try again.")
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown checkout event %q", ev.Type)
	}

	if err := m.recompute(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// SetPaymentMethod switches the tender. Selecting AeroPay requires complete
// contact fields first, since they seed the AeroPay user.
func (m *Manager) SetPaymentMethod(ctx context.Context, sessionID string, method PaymentMethod) (*Session, error) {
	s, err := m.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if method == PaymentMethodAeroPay && !contactFieldsComplete(s.Customer) {
		return nil, validationErrorf("Please fill out all contact fields before choosing AeroPay.")
	}
	if method == PaymentMethodCash && s.OrderType == OrderTypeDelivery {
		return nil, validationErrorf("Delivery orders must be paid with AeroPay.")
	}

	s.PaymentMethod = method
	return s, nil
}

func (m *Manager) SetContact(sessionID string, customer Customer) (*Session, error) {
	s, err := m.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	customer.UserID = s.Customer.UserID
	s.Customer = customer
	return s, nil
}

func (m *Manager) SetAeropayAccount(sessionID, aeropayUserID, bankAccountID string) (*Session, error) {
	s, err := m.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if aeropayUserID != "" {
		s.AeropayUserID = aeropayUserID
	}
	if bankAccountID != "" {
		s.SelectedBankID = bankAccountID
	}
	return s, nil
}

// SetAddress stores the delivery address and validates it against the zone.
// An out-of-zone address is kept on the session but flagged invalid.
func (m *Manager) SetAddress(ctx context.Context, sessionID string, addr DeliveryAddress) (*Session, error) {
	s, err := m.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.DeliveryAddress = addr
	s.AddressValid = false

	full := fmt.Sprintf("%s, %s, %s %s", addr.Street, addr.City, addr.State, addr.Zip)
	inZone, err := m.zones.CheckAddressInZone(ctx, full)
	if err != nil {
		m.notify(s, "We could not verify your address. Please try again.")
		return s, nil
	}
	s.AddressValid = inZone
	if !inZone {
		m.notify(s, "This address is outside our delivery zone.")
	}
	return s, nil
}

// RedemptionOptions returns the current loyalty redemption menu for the
// session, derived from the live discounted subtotal.
func (m *Manager) RedemptionOptions(ctx context.Context, sessionID string) (loyalty.Envelope, error) {
	s, err := m.Get(sessionID)
	if err != nil {
		return loyalty.Envelope{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := m.recompute(ctx, s); err != nil {
		return loyalty.Envelope{}, err
	}
	return loyalty.RedemptionEnvelope(s.PointsBalance, s.Totals.DiscountedSubtotal, s.LoyaltyConfig), nil
}

// PlaceOrder runs the full submission chain: validate, recompute, charge (for
// AeroPay), submit, record the loyalty ledger, send the confirmation, then
// clear the cart. Any failure before cart clearing leaves the cart intact so
// the customer can retry.
func (m *Manager) PlaceOrder(ctx context.Context, sessionID string) (*Session, error) {
	s, err := m.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.IsLoading = true
	defer func() { s.IsLoading = false }()

	if err := validateForOrder(s); err != nil {
		return nil, err
	}

	// The charge amount must reflect the cart as it exists right now.
	if err := m.recompute(ctx, s); err != nil {
		m.notify(s, "We could not load your cart. Please try again.")
		return nil, err
	}
	if err := validateForOrder(s); err != nil {
		return nil, err
	}

	if s.OrderType == OrderTypeDelivery && s.Zone.DeliveryMin.IsPositive() &&
		s.Totals.DiscountedSubtotal.LessThan(s.Zone.DeliveryMin) {
		return nil, validationErrorf(fmt.Sprintf("Delivery orders require a $%s minimum.", s.Zone.DeliveryMin.StringFixed(2)))
	}

	if s.PaymentMethod == PaymentMethodAeroPay {
		if err := m.chargeAeropay(ctx, s); err != nil {
			s.State = StatePaymentFailed
			m.notify(s, "Payment failed. Please try again.")
			return nil, err
		}
	}

	s.State = StateOrderSubmitting

	addr := (*DeliveryAddress)(nil)
	if s.OrderType == OrderTypeDelivery {
		a := s.DeliveryAddress
		addr = &a
	}
	result, err := m.orders.SubmitOrder(ctx, SubmitOrderRequest{
		Items:           s.Items,
		Customer:        s.Customer,
		OrderType:       s.OrderType,
		DeliveryAddress: addr,
		DeliveryDate:    s.DeliveryDate,
		DeliveryTime:    s.DeliveryTime,
		PointsRedeem:    s.PointsToRedeem,
		DiscountNote:    discountNote(s),
	})
	if err != nil {
		s.State = StateOrderFailed
		m.notify(s, "Error placing your order. Please try again.")
		return nil, err
	}
	s.OrderID = result.OrderID

	earned := loyalty.PointsEarned(s.Totals.FinalTotal, s.PointsToRedeem, s.LoyaltyConfig)
	if err := m.orders.PlaceOrder(ctx, PlaceOrderRequest{
		UserID:         s.Customer.UserID,
		OrderID:        result.OrderID,
		PointsEarned:   earned,
		PointsRedeemed: s.PointsToRedeem,
		Total:          s.Totals.FinalTotal,
		Items:          s.Items,
		Email:          s.Customer.Email,
		CustomerName:   s.Customer.FirstName + " " + s.Customer.LastName,
	}); err != nil {
		s.State = StateOrderFailed
		m.notify(s, "Error placing your order. Please try again.")
		return nil, err
	}

	if err := m.orders.SendOrderConfirmation(ctx, s.Customer.Email, result.OrderID); err != nil {
		s.State = StateOrderFailed
		m.notify(s, "Error placing your order. Please try again.")
		return nil, err
	}

	m.persistAndPublish(ctx, s, result.OrderID, earned)

	if err := m.carts.Clear(ctx, s.CartID); err != nil {
		log.Printf("cart clear failed after order %d: %v", result.OrderID, err)
	}
	s.Items = nil

	s.State = StateOrderConfirmed
	if m.publisher != nil {
		m.publisher.PublishOrderEvent(events.EventOrderConfirmed, fmt.Sprintf("%d", result.OrderID), map[string]interface{}{
			"orderId": result.OrderID,
			"email":   s.Customer.Email,
		})
	}
	m.notify(s, fmt.Sprintf("Order #%d placed. A confirmation email is on its way.", result.OrderID))
	return s, nil
}

func (m *Manager) chargeAeropay(ctx context.Context, s *Session) error {
	s.State = StatePaymentPending

	payCtx, cancel := context.WithTimeout(ctx, PaymentTimeout)
	defer cancel()

	if _, err := m.payments.FetchMerchantToken(payCtx); err != nil {
		return fmt.Errorf("merchant token: %w", err)
	}
	userToken, err := m.payments.FetchUserScopedToken(payCtx, s.AeropayUserID)
	if err != nil {
		return fmt.Errorf("user token: %w", err)
	}

	result, err := m.payments.CreateTransaction(payCtx, userToken, s.Totals.FinalTotal.StringFixed(2), s.SelectedBankID)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("transaction declined")
	}
	return nil
}

func (m *Manager) persistAndPublish(ctx context.Context, s *Session, orderID int64, earned int) {
	if m.recorder != nil {
		rec := OrderRecord{
			OrderID:        orderID,
			DocumentNumber: uuid.New().String(),
			UserID:         s.Customer.UserID,
			CustomerName:   s.Customer.FirstName + " " + s.Customer.LastName,
			Email:          s.Customer.Email,
			OrderType:      string(s.OrderType),
			PaymentMethod:  string(s.PaymentMethod),
			Subtotal:       s.Totals.FinalSubtotal.StringFixed(2),
			Tax:            s.Totals.FinalTax.StringFixed(2),
			DeliveryFee:    s.Totals.DeliveryFee.StringFixed(2),
			Total:          s.Totals.FinalTotal.StringFixed(2),
			PointsEarned:   earned,
			PointsRedeemed: s.PointsToRedeem,
			Items:          s.Items,
		}
		if err := m.recorder.SaveOrder(ctx, rec); err != nil {
			log.Printf("order record save failed for order %d: %v", orderID, err)
		}
	}

	if m.publisher != nil {
		key := fmt.Sprintf("%d", orderID)
		m.publisher.PublishOrderEvent(events.EventOrderCreated, key, map[string]interface{}{
			"orderId":        orderID,
			"userId":         s.Customer.UserID,
			"orderType":      s.OrderType,
			"total":          s.Totals.FinalTotal.StringFixed(2),
			"pointsEarned":   earned,
			"pointsRedeemed": s.PointsToRedeem,
		})
		if s.PaymentMethod == PaymentMethodAeroPay {
			m.publisher.PublishOrderEvent(events.EventPaymentProcessed, key, map[string]interface{}{
				"orderId": orderID,
				"amount":  s.Totals.FinalTotal.StringFixed(2),
				"method":  s.PaymentMethod,
			})
		}
	}
}

// recompute rebuilds totals from a fresh cart snapshot. Derived money state is
// never patched in place.
func (m *Manager) recompute(ctx context.Context, s *Session) error {
	items, err := m.carts.Get(ctx, s.CartID)
	if err != nil {
		return fmt.Errorf("cart snapshot: %w", err)
	}
	s.Items = items

	fee := decimal.Zero
	if s.OrderType == OrderTypeDelivery {
		fee = s.Zone.DeliveryFee
	}
	s.Totals = ComputeTotals(items, s.PointsToRedeem, s.LoyaltyConfig, s.OrderType, fee)

	switch s.State {
	case StatePaymentPending, StateOrderSubmitting, StateOrderConfirmed:
		// terminal or in-flight states keep their label
	default:
		s.State = StateTotalsComputed
	}
	return nil
}

func (m *Manager) notify(s *Session, msg string) {
	s.Notice = &Notice{Message: msg, ExpiresAt: m.now().Add(NoticeDuration)}
}

func discountNote(s *Session) string {
	if s.Totals.AppliedPointsDollar.IsZero() {
		return ""
	}
	return fmt.Sprintf("Loyalty redemption: %d points ($%s off)", s.PointsToRedeem, s.Totals.AppliedPointsDollar.StringFixed(2))
}
