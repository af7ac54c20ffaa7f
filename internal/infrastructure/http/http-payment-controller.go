package http

import (
	"encoding/json"
	"io"
	"net/http"

	"servicehub/internal/application/command"
	"servicehub/internal/infrastructure/paystack"
	"servicehub/pkg/errors"
	"servicehub/pkg/middleware"
	"servicehub/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// HTTPPaymentController handles checkout, the verify callback and the
// gateway webhook
type HTTPPaymentController struct {
	initializeHandler *command.InitializePaymentHandler
	verifyHandler     *command.VerifyPaymentHandler
	settleHandler     *command.SettleTransferHandler
	gateway           paystack.Gateway
	logger            zerolog.Logger
}

// NewHTTPPaymentController creates a new HTTP payment controller
func NewHTTPPaymentController(
	initializeHandler *command.InitializePaymentHandler,
	verifyHandler *command.VerifyPaymentHandler,
	settleHandler *command.SettleTransferHandler,
	gateway paystack.Gateway,
	logger zerolog.Logger,
) *HTTPPaymentController {
	return &HTTPPaymentController{
		initializeHandler: initializeHandler,
		verifyHandler:     verifyHandler,
		settleHandler:     settleHandler,
		gateway:           gateway,
		logger:            logger,
	}
}

// InitializePayment handles POST /api/bookings/{id}/pay
func (c *HTTPPaymentController) InitializePayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	var body struct {
		CallbackURL string `json:"callback_url"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	result, err := c.initializeHandler.Handle(r.Context(), &command.InitializePaymentCommand{
		BookingID:   chi.URLParam(r, "id"),
		ClientID:    userID,
		CallbackURL: body.CallbackURL,
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, result)
}

// VerifyPayment handles GET /api/payments/verify?reference=...
// The client's browser lands here after the checkout redirect.
func (c *HTTPPaymentController) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		response.SendBadRequest(w, r, "reference is required")
		return
	}

	if err := c.verifyHandler.Handle(r.Context(), &command.VerifyPaymentCommand{Reference: reference}); err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, map[string]string{"reference": reference, "message": "payment verified"})
}

// webhookEvent is the envelope Paystack posts to the webhook endpoint
type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference    string `json:"reference"`
		TransferCode string `json:"transfer_code"`
		Status       string `json:"status"`
		Reason       string `json:"reason"`
	} `json:"data"`
}

// Webhook handles POST /api/webhooks/paystack. The signature is checked
// against the raw body before anything is parsed; payload fields are only
// used to decide which authoritative lookup to run.
func (c *HTTPPaymentController) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.SendBadRequest(w, r, "unreadable body")
		return
	}

	if !c.gateway.VerifyWebhookSignature(body, r.Header.Get("x-paystack-signature")) {
		c.logger.Warn().Str("remote", r.RemoteAddr).Msg("webhook signature mismatch")
		response.SendUnauthorized(w, r, "invalid signature")
		return
	}

	var evt webhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		response.SendBadRequest(w, r, "invalid payload")
		return
	}

	switch evt.Event {
	case "charge.success", "charge.failed":
		err = c.verifyHandler.Handle(r.Context(), &command.VerifyPaymentCommand{Reference: evt.Data.Reference})

	case "transfer.success", "transfer.failed", "transfer.reversed":
		status := paystack.TransferSuccess
		switch evt.Event {
		case "transfer.failed":
			status = paystack.TransferFailed
		case "transfer.reversed":
			status = paystack.TransferReversed
		}
		err = c.settleHandler.Handle(r.Context(), &command.SettleTransferCommand{
			TransferCode: evt.Data.TransferCode,
			Status:       status,
			Reason:       evt.Data.Reason,
		})

	default:
		// Unhandled event types are acknowledged so the gateway stops
		// retrying them.
		response.SendSuccess(w, r, map[string]string{"message": "ignored"})
		return
	}

	if err != nil {
		c.logger.Warn().Err(err).Str("event", evt.Event).Msg("webhook processing failed")
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, map[string]string{"message": "processed"})
}
