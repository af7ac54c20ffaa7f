package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		SecretKey: "sk_test_secret",
		BaseURL:   server.URL,
	}, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresSecretKey(t *testing.T) {
	_, err := NewClient(&Config{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestInitializeTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))

		var req InitializeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pay-1", req.Reference)
		assert.Equal(t, int64(100000), req.Amount)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]interface{}{
				"authorization_url": "https://checkout.paystack.com/abc",
				"access_code":       "abc",
				"reference":         "pay-1",
			},
		})
	})

	data, err := client.InitializeTransaction(context.Background(), &InitializeRequest{
		Email:     "ada@example.com",
		Amount:    100000,
		Reference: "pay-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", data.AuthorizationURL)
	assert.Equal(t, "pay-1", data.Reference)
}

func TestVerifyTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/pay-1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"reference": "pay-1",
				"status":    "success",
				"amount":    100000,
				"currency":  "NGN",
			},
		})
	})

	data, err := client.VerifyTransaction(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, TransactionSuccess, data.Status)
	assert.Equal(t, int64(100000), data.Amount)
}

func TestVerifyTransactionNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "Transaction reference not found",
		})
	})

	_, err := client.VerifyTransaction(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.True(t, IsClientError(err))
}

func TestCreateTransferRecipient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req RecipientRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// Defaults are filled in before the request goes out.
		assert.Equal(t, "nuban", req.Type)
		assert.Equal(t, "NGN", req.Currency)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data":   map[string]interface{}{"recipient_code": "RCP_xyz"},
		})
	})

	code, err := client.CreateTransferRecipient(context.Background(), &RecipientRequest{
		Name:          "Ada Obi",
		AccountNumber: "0123456789",
		BankCode:      "058",
	})
	require.NoError(t, err)
	assert.Equal(t, "RCP_xyz", code)
}

func TestCreateTransferRecipientMissingCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data":   map[string]interface{}{},
		})
	})

	_, err := client.CreateTransferRecipient(context.Background(), &RecipientRequest{
		Name:          "Ada Obi",
		AccountNumber: "0123456789",
		BankCode:      "058",
	})
	assert.Error(t, err)
}

func TestInitiateTransfer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req TransferRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "balance", req.Source)
		assert.Equal(t, "payout-1", req.Reference)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"transfer_code": "TRF_1",
				"reference":     "payout-1",
				"status":        "pending",
				"amount":        90000,
			},
		})
	})

	data, err := client.InitiateTransfer(context.Background(), &TransferRequest{
		Amount:    90000,
		Recipient: "RCP_xyz",
		Reference: "payout-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "TRF_1", data.TransferCode)
	assert.Equal(t, TransferPending, data.Status)
}

func TestAPIErrorOnDeclinedEnvelope(t *testing.T) {
	// HTTP 200 with status:false is still an API error.
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "Insufficient balance",
		})
	})

	_, err := client.InitiateTransfer(context.Background(), &TransferRequest{
		Amount:    90000,
		Recipient: "RCP_xyz",
		Reference: "payout-1",
	})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Insufficient balance", apiErr.Message)
	assert.False(t, IsClientError(err))
}

func TestVerifyWebhookSignature(t *testing.T) {
	client, err := NewClient(&Config{SecretKey: "sk_test_secret"}, zerolog.Nop())
	require.NoError(t, err)

	body := []byte(`{"event":"charge.success","data":{"reference":"pay-1"}}`)
	mac := hmac.New(sha512.New, []byte("sk_test_secret"))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, client.VerifyWebhookSignature(body, signature))
	assert.False(t, client.VerifyWebhookSignature(body, "deadbeef"))
	assert.False(t, client.VerifyWebhookSignature([]byte(`tampered`), signature))
	assert.False(t, client.VerifyWebhookSignature(body, ""))
}
