package aeropay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"bloomcart-system/config"
	"bloomcart-system/internal/checkout"
)

const (
	MERCHANT_TOKEN_TTL = 10 * time.Minute
	REQUEST_TIMEOUT    = 10 * time.Second
)

// Client talks to the AeroPay REST API. Merchant tokens are cached in memory
// until shortly before expiry; user-scoped tokens are fetched per request
// since they are tied to the customer in flight.
type Client struct {
	baseURL    string
	merchantID string
	apiKey     string
	apiSecret  string
	http       *http.Client

	mu            sync.Mutex
	merchantToken string
	tokenExpires  time.Time
}

func NewClient(cfg config.AeroPayConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		merchantID: cfg.MerchantID,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		http:       &http.Client{Timeout: REQUEST_TIMEOUT},
	}
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}

type transactionResponse struct {
	Success bool `json:"success"`
	Data    struct {
		TransactionID string `json:"transactionId"`
		Status        string `json:"status"`
	} `json:"data"`
	Message string `json:"message"`
}

// User is an AeroPay account provisioned from checkout contact fields.
type User struct {
	UserID         string `json:"userId"`
	Status         string `json:"status"`
	WasPreexisting bool   `json:"wasPreexisting"`
}

type BankAccount struct {
	BankAccountID string `json:"bankAccountId"`
	BankName      string `json:"bankName"`
	AccountLast4  string `json:"accountLast4"`
}

type AerosyncCredentials struct {
	WidgetToken string `json:"widgetToken"`
	FastlinkURL string `json:"fastlinkUrl"`
}

// FetchMerchantToken returns a merchant-scoped API token, reusing the cached
// one while it is still fresh.
func (c *Client) FetchMerchantToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.merchantToken != "" && time.Now().Before(c.tokenExpires) {
		token := c.merchantToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	var resp tokenResponse
	err := c.post(ctx, "/token", map[string]string{
		"scope": "merchant",
	}, "", &resp)
	if err != nil {
		return "", fmt.Errorf("failed to fetch merchant token: %w", err)
	}

	c.mu.Lock()
	c.merchantToken = resp.Token
	c.tokenExpires = time.Now().Add(MERCHANT_TOKEN_TTL)
	c.mu.Unlock()
	return resp.Token, nil
}

// FetchUserScopedToken exchanges the merchant token for a token scoped to one
// AeroPay user. Charges must use this token, never the merchant one.
func (c *Client) FetchUserScopedToken(ctx context.Context, aeropayUserID string) (string, error) {
	merchant, err := c.FetchMerchantToken(ctx)
	if err != nil {
		return "", err
	}

	var resp tokenResponse
	err = c.post(ctx, "/token", map[string]string{
		"scope":  "user",
		"userId": aeropayUserID,
	}, merchant, &resp)
	if err != nil {
		return "", fmt.Errorf("failed to fetch user token: %w", err)
	}
	return resp.Token, nil
}

// CreateTransaction charges the given bank account, authenticating with the
// user-scoped token from FetchUserScopedToken. The amount is the exact
// two-decimal string total; it is passed through untouched.
func (c *Client) CreateTransaction(ctx context.Context, userToken string, amount string, bankAccountID string) (checkout.TransactionResult, error) {
	var resp transactionResponse
	err := c.post(ctx, "/transaction", map[string]string{
		"merchantId":    c.merchantID,
		"amount":        amount,
		"bankAccountId": bankAccountID,
	}, userToken, &resp)
	if err != nil {
		return checkout.TransactionResult{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	return checkout.TransactionResult{
		Success:       resp.Success,
		TransactionID: resp.Data.TransactionID,
	}, nil
}

type createUserRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phoneNumber"`
}

type createUserResponse struct {
	Success bool `json:"success"`
	User    struct {
		UserID string `json:"userId"`
		Status string `json:"status"`
	} `json:"user"`
	Message string `json:"message"`
}

// CreateUser provisions an AeroPay account from checkout contact fields. An
// already-registered email comes back with the existing account rather than
// an error.
func (c *Client) CreateUser(ctx context.Context, firstName, lastName, email, phone string) (User, error) {
	token, err := c.FetchMerchantToken(ctx)
	if err != nil {
		return User{}, err
	}

	var resp createUserResponse
	err = c.postBody(ctx, "/user", createUserRequest{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Phone:     phone,
	}, token, &resp)
	if err != nil {
		return User{}, fmt.Errorf("failed to create aeropay user: %w", err)
	}
	if !resp.Success {
		return User{}, fmt.Errorf("aeropay user creation rejected: %s", resp.Message)
	}

	return User{
		UserID:         resp.User.UserID,
		Status:         resp.User.Status,
		WasPreexisting: resp.User.Status == "registered",
	}, nil
}

type verifyResponse struct {
	Success  bool   `json:"success"`
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

// VerifyUser submits the SMS verification code for a newly created user.
func (c *Client) VerifyUser(ctx context.Context, aeropayUserID, code string) (bool, error) {
	token, err := c.FetchMerchantToken(ctx)
	if err != nil {
		return false, err
	}

	var resp verifyResponse
	err = c.post(ctx, "/user/verify", map[string]string{
		"userId": aeropayUserID,
		"code":   code,
	}, token, &resp)
	if err != nil {
		return false, fmt.Errorf("failed to verify aeropay user: %w", err)
	}
	return resp.Success && resp.Verified, nil
}

type linkBankResponse struct {
	Success bool        `json:"success"`
	Account BankAccount `json:"account"`
	Message string      `json:"message"`
}

// LinkBankAccount attaches the bank account selected in the Aerosync widget
// to the user and returns the linked account.
func (c *Client) LinkBankAccount(ctx context.Context, aeropayUserID, aerosyncAccountID string) (BankAccount, error) {
	token, err := c.FetchUserScopedToken(ctx, aeropayUserID)
	if err != nil {
		return BankAccount{}, err
	}

	var resp linkBankResponse
	err = c.post(ctx, "/bankaccount", map[string]string{
		"userId":    aeropayUserID,
		"accountId": aerosyncAccountID,
	}, token, &resp)
	if err != nil {
		return BankAccount{}, fmt.Errorf("failed to link bank account: %w", err)
	}
	if !resp.Success {
		return BankAccount{}, fmt.Errorf("bank link rejected: %s", resp.Message)
	}
	return resp.Account, nil
}

type aerosyncResponse struct {
	Success     bool                `json:"success"`
	Credentials AerosyncCredentials `json:"credentials"`
}

// GetAerosyncCredentials fetches the widget token for the bank-linking flow.
func (c *Client) GetAerosyncCredentials(ctx context.Context, aeropayUserID string) (AerosyncCredentials, error) {
	token, err := c.FetchUserScopedToken(ctx, aeropayUserID)
	if err != nil {
		return AerosyncCredentials{}, err
	}

	var resp aerosyncResponse
	err = c.post(ctx, "/aerosync/credentials", map[string]string{
		"userId": aeropayUserID,
	}, token, &resp)
	if err != nil {
		return AerosyncCredentials{}, fmt.Errorf("failed to fetch aerosync credentials: %w", err)
	}
	return resp.Credentials, nil
}

func (c *Client) post(ctx context.Context, path string, fields map[string]string, bearer string, out interface{}) error {
	return c.postBody(ctx, path, fields, bearer, out)
}

func (c *Client) postBody(ctx context.Context, path string, body interface{}, bearer string, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("X-API-Secret", c.apiSecret)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

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
		return fmt.Errorf("aeropay %s returned %d: %s", path, resp.StatusCode, payload)
	}
	return json.Unmarshal(payload, out)
}
