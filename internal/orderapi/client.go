package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"bloomcart-system/config"
	"bloomcart-system/internal/cart"
	"bloomcart-system/internal/checkout"
	"bloomcart-system/internal/loyalty"
	"bloomcart-system/internal/pricing"
	"bloomcart-system/internal/schedule"
)

const REQUEST_TIMEOUT = 10 * time.Second

// Client talks to the dispensary order platform: store settings, delivery
// zones, order submission, and the loyalty ledger all live behind it. It
// satisfies the checkout collaborator interfaces.
type Client struct {
	baseURL    string
	apiKey     string
	locationID string
	http       *http.Client
}

func NewClient(cfg config.OrderAPIConfig, locationID string) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		locationID: locationID,
		http:       &http.Client{Timeout: REQUEST_TIMEOUT},
	}
}

type loyaltyConfigResponse struct {
	Success bool           `json:"success"`
	Data    loyalty.Config `json:"data"`
}

// FetchLoyaltyConfig loads the loyalty program settings for the store.
// Callers fall back to defaults on error; this method never invents values.
func (c *Client) FetchLoyaltyConfig(ctx context.Context) (loyalty.Config, error) {
	var resp loyaltyConfigResponse
	if err := c.get(ctx, "/stores/"+c.locationID+"/loyalty-config", &resp); err != nil {
		return loyalty.Config{}, fmt.Errorf("failed to fetch loyalty config: %w", err)
	}
	if !resp.Success {
		return loyalty.Config{}, fmt.Errorf("loyalty config fetch rejected")
	}
	return resp.Data, nil
}

type zoneResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Schedule    schedule.WeekSchedule `json:"schedule"`
		DeliveryMin string                `json:"deliveryMin"`
		DeliveryFee string                `json:"deliveryFee"`
		Available   bool                  `json:"available"`
	} `json:"data"`
}

func (c *Client) GetDeliveryZone(ctx context.Context) (checkout.DeliveryZone, error) {
	var resp zoneResponse
	if err := c.get(ctx, "/stores/"+c.locationID+"/delivery-zone", &resp); err != nil {
		return checkout.DeliveryZone{}, fmt.Errorf("failed to fetch delivery zone: %w", err)
	}
	if !resp.Success {
		return checkout.DeliveryZone{}, fmt.Errorf("delivery zone fetch rejected")
	}

	return checkout.DeliveryZone{
		Schedule:    resp.Data.Schedule,
		DeliveryMin: pricing.ParseAmount(resp.Data.DeliveryMin),
		DeliveryFee: pricing.ParseAmount(resp.Data.DeliveryFee),
		Available:   resp.Data.Available,
	}, nil
}

type addressCheckResponse struct {
	Success bool `json:"success"`
	InZone  bool `json:"inZone"`
}

func (c *Client) CheckAddressInZone(ctx context.Context, address string) (bool, error) {
	path := "/stores/" + c.locationID + "/delivery-zone/check?address=" + url.QueryEscape(address)
	var resp addressCheckResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return false, fmt.Errorf("failed to check address: %w", err)
	}
	return resp.Success && resp.InZone, nil
}

type eligibilityResponse struct {
	Success  bool `json:"success"`
	Eligible bool `json:"eligible"`
}

func (c *Client) CheckDeliveryEligibility(ctx context.Context) (bool, error) {
	var resp eligibilityResponse
	if err := c.get(ctx, "/stores/"+c.locationID+"/delivery-eligibility", &resp); err != nil {
		return false, fmt.Errorf("failed to check delivery eligibility: %w", err)
	}
	return resp.Success && resp.Eligible, nil
}

type submitOrderItem struct {
	PosProductID string `json:"posProductId"`
	Title        string `json:"title"`
	Quantity     int    `json:"quantity"`
	Price        string `json:"price"`
}

type submitOrderPayload struct {
	LocationID      string            `json:"locationId"`
	Items           []submitOrderItem `json:"items"`
	FirstName       string            `json:"firstName"`
	LastName        string            `json:"lastName"`
	Email           string            `json:"email"`
	Phone           string            `json:"phone"`
	OrderType       string            `json:"orderType"`
	DeliveryAddress string            `json:"deliveryAddress,omitempty"`
	DeliveryDate    string            `json:"deliveryDate,omitempty"`
	DeliveryTime    string            `json:"deliveryTime,omitempty"`
	DiscountNote    string            `json:"discountNote,omitempty"`
}

type submitOrderResponse struct {
	Success bool `json:"success"`
	Data    struct {
		OrderID int64 `json:"orderId"`
		Status  int   `json:"status"`
	} `json:"data"`
	Message string `json:"message"`
}

// SubmitOrder sends the order to the POS. The loyalty discount rides along as
// a note; the POS treats the prices as authoritative.
func (c *Client) SubmitOrder(ctx context.Context, req checkout.SubmitOrderRequest) (checkout.SubmitOrderResult, error) {
	payload := submitOrderPayload{
		LocationID:   c.locationID,
		Items:        toSubmitItems(req.Items),
		FirstName:    req.Customer.FirstName,
		LastName:     req.Customer.LastName,
		Email:        req.Customer.Email,
		Phone:        req.Customer.Phone,
		OrderType:    string(req.OrderType),
		DeliveryDate: req.DeliveryDate,
		DeliveryTime: req.DeliveryTime,
		DiscountNote: req.DiscountNote,
	}
	if req.DeliveryAddress != nil {
		a := req.DeliveryAddress
		payload.DeliveryAddress = fmt.Sprintf("%s, %s, %s %s", a.Street, a.City, a.State, a.Zip)
	}

	var resp submitOrderResponse
	if err := c.post(ctx, "/orders", payload, &resp); err != nil {
		return checkout.SubmitOrderResult{}, fmt.Errorf("failed to submit order: %w", err)
	}
	if !resp.Success {
		return checkout.SubmitOrderResult{}, fmt.Errorf("order submission rejected: %s", resp.Message)
	}
	return checkout.SubmitOrderResult{OrderID: resp.Data.OrderID, Status: resp.Data.Status}, nil
}

type placeOrderPayload struct {
	UserID         int64  `json:"userId"`
	OrderID        int64  `json:"orderId"`
	PointsAdd      int    `json:"pointsAdd"`
	PointsRedeemed int    `json:"pointsRedeemed"`
	Total          string `json:"total"`
	CustomerName   string `json:"customerName"`
	Email          string `json:"email"`
}

type placeOrderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PlaceOrder records the order in the loyalty ledger. A redeeming order posts
// a zero earn, the redemption having already been priced into the totals.
func (c *Client) PlaceOrder(ctx context.Context, req checkout.PlaceOrderRequest) error {
	payload := placeOrderPayload{
		UserID:         req.UserID,
		OrderID:        req.OrderID,
		PointsAdd:      req.PointsEarned,
		PointsRedeemed: req.PointsRedeemed,
		Total:          req.Total.StringFixed(2),
		CustomerName:   req.CustomerName,
		Email:          req.Email,
	}

	var resp placeOrderResponse
	if err := c.post(ctx, "/orders/place", payload, &resp); err != nil {
		return fmt.Errorf("failed to place order: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("place order rejected: %s", resp.Message)
	}
	return nil
}

type confirmationPayload struct {
	Email   string `json:"email"`
	OrderID int64  `json:"orderId"`
}

func (c *Client) SendOrderConfirmation(ctx context.Context, email string, orderID int64) error {
	var resp placeOrderResponse
	if err := c.post(ctx, "/notifications/order-confirmation", confirmationPayload{Email: email, OrderID: orderID}, &resp); err != nil {
		return fmt.Errorf("failed to send order confirmation: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("order confirmation rejected: %s", resp.Message)
	}
	return nil
}

// SendAbandonedCartNotification nudges a customer whose cart has gone idle.
func (c *Client) SendAbandonedCartNotification(ctx context.Context, email string, items []cart.CartItem) error {
	payload := struct {
		Email string            `json:"email"`
		Items []submitOrderItem `json:"items"`
	}{Email: email, Items: toSubmitItems(items)}

	var resp placeOrderResponse
	if err := c.post(ctx, "/notifications/abandoned-cart", payload, &resp); err != nil {
		return fmt.Errorf("failed to send abandoned cart notification: %w", err)
	}
	return nil
}

func toSubmitItems(items []cart.CartItem) []submitOrderItem {
	out := make([]submitOrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, submitOrderItem{
			PosProductID: it.PosProductID,
			Title:        it.Title,
			Quantity:     it.Quantity,
			Price:        it.Price,
		})
	}
	return out
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("order api %s returned %d: %s", req.URL.Path, resp.StatusCode, payload)
	}
	return json.Unmarshal(payload, out)
}
