package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bloomcart-system/internal/checkout"
	"bloomcart-system/internal/gateway/middleware"
)

type CheckoutHTTPHandler struct {
	manager *checkout.Manager
}

func NewCheckoutHTTPHandler(manager *checkout.Manager) *CheckoutHTTPHandler {
	return &CheckoutHTTPHandler{
		manager: manager,
	}
}

type StartSessionRequest struct {
	CartID        string `json:"cartId" binding:"required"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	BirthDate     string `json:"birthDate,omitempty"`
	PointsBalance int    `json:"pointsBalance,omitempty"`
}

type ContactRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required"`
	BirthDate string `json:"birthDate,omitempty"`
}

type PaymentMethodRequest struct {
	Method        string `json:"method" binding:"required"`
	AeropayUserID string `json:"aeropayUserId,omitempty"`
	BankAccountID string `json:"bankAccountId,omitempty"`
}

type AddressRequest struct {
	Street string `json:"street" binding:"required"`
	Apt    string `json:"apt,omitempty"`
	City   string `json:"city" binding:"required"`
	State  string `json:"state" binding:"required"`
	Zip    string `json:"zip" binding:"required"`
}

func (h *CheckoutHTTPHandler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	customer := checkout.Customer{
		UserID:    c.GetInt64(middleware.ContextUserID),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		BirthDate: req.BirthDate,
	}
	if customer.Email == "" {
		customer.Email = c.GetString(middleware.ContextEmail)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session, err := h.manager.StartSession(ctx, req.CartID, customer, req.PointsBalance)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to start checkout session"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Checkout session started", session))
}

func (h *CheckoutHTTPHandler) GetSession(c *gin.Context) {
	session, err := h.manager.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Checkout session not found"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Checkout session retrieved", session))
}

// ApplyEvent is the single mutation endpoint: cart changes, point selection,
// order type switches, and slot selection all come through here and return
// the recomputed session.
func (h *CheckoutHTTPHandler) ApplyEvent(c *gin.Context) {
	var ev checkout.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session, err := h.manager.Apply(ctx, c.Param("id"), ev)
	if err != nil {
		h.writeError(c, err, "Failed to apply checkout event")
		return
	}

	c.JSON(http.StatusOK, successResponse("Checkout session updated", session))
}

func (h *CheckoutHTTPHandler) SetContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	session, err := h.manager.SetContact(c.Param("id"), checkout.Customer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		BirthDate: req.BirthDate,
	})
	if err != nil {
		h.writeError(c, err, "Failed to update contact")
		return
	}

	c.JSON(http.StatusOK, successResponse("Contact updated", session))
}

func (h *CheckoutHTTPHandler) SetPaymentMethod(c *gin.Context) {
	var req PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sessionID := c.Param("id")
	if req.AeropayUserID != "" || req.BankAccountID != "" {
		if _, err := h.manager.SetAeropayAccount(sessionID, req.AeropayUserID, req.BankAccountID); err != nil {
			h.writeError(c, err, "Failed to update payment method")
			return
		}
	}

	session, err := h.manager.SetPaymentMethod(ctx, sessionID, checkout.PaymentMethod(req.Method))
	if err != nil {
		h.writeError(c, err, "Failed to update payment method")
		return
	}

	c.JSON(http.StatusOK, successResponse("Payment method updated", session))
}

func (h *CheckoutHTTPHandler) SetAddress(c *gin.Context) {
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session, err := h.manager.SetAddress(ctx, c.Param("id"), checkout.DeliveryAddress{
		Street: req.Street,
		Apt:    req.Apt,
		City:   req.City,
		State:  req.State,
		Zip:    req.Zip,
	})
	if err != nil {
		h.writeError(c, err, "Failed to validate address")
		return
	}

	c.JSON(http.StatusOK, successResponse("Address updated", session))
}

func (h *CheckoutHTTPHandler) LoyaltyOptions(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	envelope, err := h.manager.RedemptionOptions(ctx, c.Param("id"))
	if err != nil {
		h.writeError(c, err, "Failed to compute loyalty options")
		return
	}

	c.JSON(http.StatusOK, successResponse("Loyalty options retrieved", envelope))
}

func (h *CheckoutHTTPHandler) PlaceOrder(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, err := h.manager.PlaceOrder(ctx, c.Param("id"))
	if err != nil {
		h.writeError(c, err, "Error placing your order. Please try again.")
		return
	}

	c.JSON(http.StatusOK, successResponse("Order placed successfully", session))
}

func (h *CheckoutHTTPHandler) writeError(c *gin.Context, err error, fallback string) {
	var verr *checkout.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, errorResponse(verr.Message))
	case errors.Is(err, checkout.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, errorResponse("Checkout session not found"))
	default:
		c.JSON(http.StatusInternalServerError, errorResponse(fallback))
	}
}
