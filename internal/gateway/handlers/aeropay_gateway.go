package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bloomcart-system/internal/aeropay"
)

type AeroPayHTTPHandler struct {
	client *aeropay.Client
}

func NewAeroPayHTTPHandler(client *aeropay.Client) *AeroPayHTTPHandler {
	return &AeroPayHTTPHandler{
		client: client,
	}
}

type CreateAeropayUserRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required"`
}

type VerifyAeropayUserRequest struct {
	AeropayUserID string `json:"aeropayUserId" binding:"required"`
	Code          string `json:"code" binding:"required"`
}

type LinkBankRequest struct {
	AeropayUserID     string `json:"aeropayUserId" binding:"required"`
	AerosyncAccountID string `json:"aerosyncAccountId" binding:"required"`
}

// CreateUser provisions an AeroPay account from the checkout contact fields.
// An email that is already registered returns the existing account, which the
// client treats as skipping straight to bank selection.
func (h *AeroPayHTTPHandler) CreateUser(c *gin.Context) {
	var req CreateAeropayUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := h.client.CreateUser(ctx, req.FirstName, req.LastName, req.Email, req.Phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Payment provider error"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("AeroPay user ready", user))
}

func (h *AeroPayHTTPHandler) VerifyUser(c *gin.Context) {
	var req VerifyAeropayUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	verified, err := h.client.VerifyUser(ctx, req.AeropayUserID, req.Code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Payment provider error"))
		return
	}
	if !verified {
		c.JSON(http.StatusBadRequest, errorResponse("Verification code rejected"))
		return
	}

	c.JSON(http.StatusOK, successResponse("AeroPay user verified", nil))
}

func (h *AeroPayHTTPHandler) LinkBankAccount(c *gin.Context) {
	var req LinkBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	account, err := h.client.LinkBankAccount(ctx, req.AeropayUserID, req.AerosyncAccountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to link bank account"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Bank account linked", account))
}

func (h *AeroPayHTTPHandler) AerosyncCredentials(c *gin.Context) {
	userID := c.Query("aeropayUserId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Missing aeropayUserId parameter"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	creds, err := h.client.GetAerosyncCredentials(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Payment provider error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Aerosync credentials retrieved", creds))
}
