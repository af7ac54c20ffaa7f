package paystack

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a typed gateway failure. Callers branch on the status code
// instead of matching message substrings.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack: %s (status %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether the gateway said the resource does not exist
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsClientError reports whether the request was rejected as invalid.
// Retrying the same request will not help.
func IsClientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
}

// Transaction statuses as reported by the gateway
const (
	TransactionSuccess   = "success"
	TransactionFailed    = "failed"
	TransactionAbandoned = "abandoned"
	TransactionPending   = "pending"
)

// Transfer statuses as reported by the gateway
const (
	TransferPending  = "pending"
	TransferSuccess  = "success"
	TransferFailed   = "failed"
	TransferReversed = "reversed"
)
