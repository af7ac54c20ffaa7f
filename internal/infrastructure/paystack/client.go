package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"servicehub/internal/metrics"

	"github.com/rs/zerolog"
)

// Config holds the Paystack API configuration
type Config struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

// Gateway is the surface the application layer depends on. Tests swap in a
// fake; production uses Client.
type Gateway interface {
	InitializeTransaction(ctx context.Context, req *InitializeRequest) (*TransactionData, error)
	VerifyTransaction(ctx context.Context, reference string) (*TransactionData, error)
	CreateTransferRecipient(ctx context.Context, req *RecipientRequest) (string, error)
	InitiateTransfer(ctx context.Context, req *TransferRequest) (*TransferData, error)
	FetchTransfer(ctx context.Context, transferCode string) (*TransferData, error)
	VerifyWebhookSignature(body []byte, signature string) bool
}

// Client talks to the Paystack REST API
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a Paystack API client
func NewClient(config *Config, logger zerolog.Logger) (*Client, error) {
	if config.SecretKey == "" {
		return nil, fmt.Errorf("paystack secret key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.paystack.co"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}, nil
}

// InitializeRequest starts a checkout for an online payment
type InitializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"` // minor units
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url,omitempty"`
}

// RecipientRequest registers a provider bank account as a transfer recipient
type RecipientRequest struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	Currency      string `json:"currency"`
}

// TransferRequest moves escrowed funds to a recipient
type TransferRequest struct {
	Source    string `json:"source"`
	Amount    int64  `json:"amount"` // minor units
	Recipient string `json:"recipient"`
	Reason    string `json:"reason,omitempty"`
	Reference string `json:"reference"`
}

// TransactionData is the gateway's view of a charge
type TransactionData struct {
	Reference        string `json:"reference"`
	Status           string `json:"status"` // success, failed, abandoned, pending
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	GatewayResponse  string `json:"gateway_response"`
	PaidAt           string `json:"paid_at"`
}

// TransferData is the gateway's view of a transfer
type TransferData struct {
	TransferCode string `json:"transfer_code"`
	Reference    string `json:"reference"`
	Status       string `json:"status"` // pending, success, failed, reversed
	Amount       int64  `json:"amount"`
	Reason       string `json:"reason"`
}

// apiEnvelope is the common Paystack response wrapper
type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// recipientData carries the part of the recipient response we keep
type recipientData struct {
	RecipientCode string `json:"recipient_code"`
}

// InitializeTransaction starts a hosted checkout and returns the
// authorization URL the client is redirected to.
func (c *Client) InitializeTransaction(ctx context.Context, req *InitializeRequest) (*TransactionData, error) {
	var data TransactionData
	err := c.call(ctx, http.MethodPost, "/transaction/initialize", req, &data, "initialize_transaction")
	if err != nil {
		return nil, err
	}
	if data.Reference == "" {
		data.Reference = req.Reference
	}
	return &data, nil
}

// VerifyTransaction fetches the authoritative charge state for a reference.
// Webhook payloads are never trusted on their own; this call decides.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*TransactionData, error) {
	var data TransactionData
	path := "/transaction/verify/" + reference
	if err := c.call(ctx, http.MethodGet, path, nil, &data, "verify_transaction"); err != nil {
		return nil, err
	}
	return &data, nil
}

// CreateTransferRecipient registers bank details and returns the recipient code
func (c *Client) CreateTransferRecipient(ctx context.Context, req *RecipientRequest) (string, error) {
	if req.Type == "" {
		req.Type = "nuban"
	}
	if req.Currency == "" {
		req.Currency = "NGN"
	}

	var data recipientData
	if err := c.call(ctx, http.MethodPost, "/transferrecipient", req, &data, "create_recipient"); err != nil {
		return "", err
	}
	if data.RecipientCode == "" {
		return "", &APIError{StatusCode: http.StatusBadGateway, Message: "gateway returned no recipient code"}
	}
	return data.RecipientCode, nil
}

// InitiateTransfer starts a balance transfer to a recipient. The reference
// doubles as the idempotency key: retrying with the same reference returns
// the original transfer instead of paying twice.
func (c *Client) InitiateTransfer(ctx context.Context, req *TransferRequest) (*TransferData, error) {
	if req.Source == "" {
		req.Source = "balance"
	}

	var data TransferData
	if err := c.call(ctx, http.MethodPost, "/transfer", req, &data, "initiate_transfer"); err != nil {
		return nil, err
	}
	return &data, nil
}

// FetchTransfer fetches the current state of a transfer
func (c *Client) FetchTransfer(ctx context.Context, transferCode string) (*TransferData, error) {
	var data TransferData
	path := "/transfer/" + transferCode
	if err := c.call(ctx, http.MethodGet, path, nil, &data, "fetch_transfer"); err != nil {
		return nil, err
	}
	return &data, nil
}

// VerifyWebhookSignature checks the x-paystack-signature header, an
// HMAC-SHA512 of the raw body keyed with the secret key.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(c.config.SecretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) call(ctx context.Context, method, path string, body interface{}, out interface{}, operation string) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.IncGatewayCall(operation, "network_error")
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncGatewayCall(operation, "read_error")
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		metrics.IncGatewayCall(operation, "decode_error")
		return &APIError{StatusCode: resp.StatusCode, Message: "unparseable gateway response"}
	}

	if resp.StatusCode >= 400 || !envelope.Status {
		metrics.IncGatewayCall(operation, "api_error")
		c.logger.Warn().
			Str("operation", operation).
			Int("status_code", resp.StatusCode).
			Str("message", envelope.Message).
			Msg("paystack API error")
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			metrics.IncGatewayCall(operation, "decode_error")
			return fmt.Errorf("failed to decode gateway data: %w", err)
		}
	}

	metrics.IncGatewayCall(operation, "ok")
	return nil
}
