package orderapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"bloomcart-system/config"
	"bloomcart-system/internal/cart"
	"bloomcart-system/internal/checkout"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient(config.OrderAPIConfig{BaseURL: srv.URL, APIKey: "key"}, "1000")
	return c, srv
}

func TestGetDeliveryZoneParsesMoney(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stores/1000/delivery-zone" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"schedule":    map[string]interface{}{"Monday": map[string]string{"startTime": "09:00", "endTime": "22:00"}},
				"deliveryMin": "50.00",
				"deliveryFee": "5.00",
				"available":   true,
			},
		})
	}))
	defer srv.Close()

	zone, err := c.GetDeliveryZone(context.Background())
	if err != nil {
		t.Fatalf("GetDeliveryZone: %v", err)
	}
	if !zone.DeliveryMin.Equal(decimal.NewFromInt(50)) {
		t.Errorf("min = %s, want 50", zone.DeliveryMin)
	}
	if !zone.DeliveryFee.Equal(decimal.NewFromInt(5)) {
		t.Errorf("fee = %s, want 5", zone.DeliveryFee)
	}
	if _, ok := zone.Schedule["Monday"]; !ok {
		t.Error("schedule missing Monday window")
	}
}

func TestSubmitOrderPayload(t *testing.T) {
	var seen submitOrderPayload
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&seen)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"orderId": 9001, "status": 1},
		})
	}))
	defer srv.Close()

	result, err := c.SubmitOrder(context.Background(), checkout.SubmitOrderRequest{
		Items: []cart.CartItem{
			{PosProductID: "p1", Title: "Flower 3.5g", Price: "20.00", Quantity: 2},
		},
		Customer:  checkout.Customer{FirstName: "Ada", LastName: "Rivers", Email: "ada@example.com", Phone: "555-0100"},
		OrderType: checkout.OrderTypeDelivery,
		DeliveryAddress: &checkout.DeliveryAddress{
			Street: "12 Main St", City: "Springfield", State: "MA", Zip: "01101",
		},
		DeliveryDate: "2026-03-06",
		DeliveryTime: "15:00",
		DiscountNote: "Loyalty redemption: 400 points ($10.00 off)",
	})
	if err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}
	if result.OrderID != 9001 {
		t.Errorf("order id = %d, want 9001", result.OrderID)
	}

	if seen.LocationID != "1000" {
		t.Errorf("location = %s, want 1000", seen.LocationID)
	}
	if len(seen.Items) != 1 || seen.Items[0].PosProductID != "p1" {
		t.Errorf("items = %+v", seen.Items)
	}
	if seen.DeliveryAddress != "12 Main St, Springfield, MA 01101" {
		t.Errorf("address = %q", seen.DeliveryAddress)
	}
	if seen.DiscountNote == "" {
		t.Error("discount note dropped")
	}
}

func TestSubmitOrderRejection(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "store closed"})
	}))
	defer srv.Close()

	if _, err := c.SubmitOrder(context.Background(), checkout.SubmitOrderRequest{}); err == nil {
		t.Error("expected an error for a rejected submission")
	}
}

func TestPlaceOrderLedgerFields(t *testing.T) {
	var seen placeOrderPayload
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&seen)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer srv.Close()

	err := c.PlaceOrder(context.Background(), checkout.PlaceOrderRequest{
		UserID:         42,
		OrderID:        9001,
		PointsEarned:   0,
		PointsRedeemed: 400,
		Total:          decimal.RequireFromString("33.90"),
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if seen.PointsAdd != 0 {
		t.Errorf("pointsAdd = %d, want 0 on a redeeming order", seen.PointsAdd)
	}
	if seen.PointsRedeemed != 400 {
		t.Errorf("pointsRedeemed = %d, want 400", seen.PointsRedeemed)
	}
	if seen.Total != "33.90" {
		t.Errorf("total = %q, want two-decimal 33.90", seen.Total)
	}
}

func TestCheckAddressInZone(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("address"); got != "12 Main St, Springfield, MA 01101" {
			t.Errorf("address query = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "inZone": true})
	}))
	defer srv.Close()

	inZone, err := c.CheckAddressInZone(context.Background(), "12 Main St, Springfield, MA 01101")
	if err != nil {
		t.Fatalf("CheckAddressInZone: %v", err)
	}
	if !inZone {
		t.Error("expected in-zone")
	}
}
