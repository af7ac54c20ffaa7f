package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"servicehub/internal/application/command"
	"servicehub/internal/application/query"
	"servicehub/pkg/errors"
	"servicehub/pkg/middleware"
	"servicehub/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// HTTPBookingController handles HTTP requests for the booking lifecycle
type HTTPBookingController struct {
	createHandler     *command.CreateBookingHandler
	providerHandler   *command.ProviderBookingHandler
	cancelHandler     *command.CancelBookingHandler
	confirmHandler    *command.ConfirmCompletionHandler
	reviewHandler     *command.SubmitReviewHandler
	getHandler        *query.GetBookingHandler
	listClient        *query.ListClientBookingsHandler
	listProvider      *query.ListProviderBookingsHandler
	getPaymentHandler *query.GetBookingPaymentHandler
	logger            zerolog.Logger
}

// NewHTTPBookingController creates a new HTTP booking controller
func NewHTTPBookingController(
	createHandler *command.CreateBookingHandler,
	providerHandler *command.ProviderBookingHandler,
	cancelHandler *command.CancelBookingHandler,
	confirmHandler *command.ConfirmCompletionHandler,
	reviewHandler *command.SubmitReviewHandler,
	getHandler *query.GetBookingHandler,
	listClient *query.ListClientBookingsHandler,
	listProvider *query.ListProviderBookingsHandler,
	getPaymentHandler *query.GetBookingPaymentHandler,
	logger zerolog.Logger,
) *HTTPBookingController {
	return &HTTPBookingController{
		createHandler:     createHandler,
		providerHandler:   providerHandler,
		cancelHandler:     cancelHandler,
		confirmHandler:    confirmHandler,
		reviewHandler:     reviewHandler,
		getHandler:        getHandler,
		listClient:        listClient,
		listProvider:      listProvider,
		getPaymentHandler: getPaymentHandler,
		logger:            logger,
	}
}

// CreateBooking handles POST /api/bookings
func (c *HTTPBookingController) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	var cmd command.CreateBookingCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		response.SendBadRequest(w, r, "Invalid request body")
		return
	}
	cmd.ClientID = userID

	result, err := c.createHandler.Handle(r.Context(), &cmd)
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendCreated(w, r, result)
}

// GetBooking handles GET /api/bookings/{id}
func (c *HTTPBookingController) GetBooking(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	role, _ := middleware.GetRoleFromContext(r.Context())

	view, err := c.getHandler.Handle(r.Context(), &query.GetBookingQuery{
		BookingID:     chi.URLParam(r, "id"),
		RequesterID:   userID,
		RequesterRole: role,
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, view)
}

// GetBookingPayment handles GET /api/bookings/{id}/payment
func (c *HTTPBookingController) GetBookingPayment(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	role, _ := middleware.GetRoleFromContext(r.Context())

	view, err := c.getPaymentHandler.Handle(r.Context(), &query.GetBookingPaymentQuery{
		BookingID:     chi.URLParam(r, "id"),
		RequesterID:   userID,
		RequesterRole: role,
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, view)
}

// ListMyBookings handles GET /api/bookings
func (c *HTTPBookingController) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	offset, limit := pageParams(r)
	views, err := c.listClient.Handle(r.Context(), &query.ListClientBookingsQuery{
		ClientID: userID,
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, views)
}

// ListAssignedBookings handles GET /api/provider/bookings
func (c *HTTPBookingController) ListAssignedBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	offset, limit := pageParams(r)
	views, err := c.listProvider.Handle(r.Context(), &query.ListProviderBookingsQuery{
		UserID: userID,
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, views)
}

// AcceptBooking handles POST /api/bookings/{id}/accept
func (c *HTTPBookingController) AcceptBooking(w http.ResponseWriter, r *http.Request) {
	c.providerAction(w, r, func(bookingID, userID string) error {
		return c.providerHandler.Accept(r.Context(), &command.AcceptBookingCommand{BookingID: bookingID, UserID: userID})
	})
}

// DeclineBooking handles POST /api/bookings/{id}/decline
func (c *HTTPBookingController) DeclineBooking(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	c.providerAction(w, r, func(bookingID, userID string) error {
		return c.providerHandler.Decline(r.Context(), &command.DeclineBookingCommand{BookingID: bookingID, UserID: userID, Reason: body.Reason})
	})
}

// StartJob handles POST /api/bookings/{id}/start
func (c *HTTPBookingController) StartJob(w http.ResponseWriter, r *http.Request) {
	c.providerAction(w, r, func(bookingID, userID string) error {
		return c.providerHandler.Start(r.Context(), &command.StartJobCommand{BookingID: bookingID, UserID: userID})
	})
}

// FinishJob handles POST /api/bookings/{id}/finish
func (c *HTTPBookingController) FinishJob(w http.ResponseWriter, r *http.Request) {
	c.providerAction(w, r, func(bookingID, userID string) error {
		return c.providerHandler.Finish(r.Context(), &command.FinishJobCommand{BookingID: bookingID, UserID: userID})
	})
}

// ConfirmCashReceived handles POST /api/bookings/{id}/cash-received
func (c *HTTPBookingController) ConfirmCashReceived(w http.ResponseWriter, r *http.Request) {
	c.providerAction(w, r, func(bookingID, userID string) error {
		return c.providerHandler.ConfirmCashReceived(r.Context(), &command.ConfirmCashReceivedCommand{BookingID: bookingID, UserID: userID})
	})
}

// CancelBooking handles POST /api/bookings/{id}/cancel
func (c *HTTPBookingController) CancelBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	err := c.cancelHandler.Handle(r.Context(), &command.CancelBookingCommand{
		BookingID: chi.URLParam(r, "id"),
		UserID:    userID,
		Reason:    body.Reason,
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, map[string]string{"message": "booking cancelled"})
}

// ConfirmCompletion handles POST /api/bookings/{id}/confirm
func (c *HTTPBookingController) ConfirmCompletion(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	err := c.confirmHandler.Handle(r.Context(), &command.ConfirmCompletionCommand{
		BookingID: chi.URLParam(r, "id"),
		ClientID:  userID,
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, map[string]string{"message": "completion confirmed"})
}

// SubmitReview handles POST /api/bookings/{id}/review
func (c *HTTPBookingController) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	var cmd command.SubmitReviewCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		response.SendBadRequest(w, r, "Invalid request body")
		return
	}
	cmd.BookingID = chi.URLParam(r, "id")
	cmd.ClientID = userID

	result, err := c.reviewHandler.Handle(r.Context(), &cmd)
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendCreated(w, r, result)
}

func (c *HTTPBookingController) providerAction(w http.ResponseWriter, r *http.Request, action func(bookingID, userID string) error) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	if err := action(chi.URLParam(r, "id"), userID); err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, map[string]string{"message": "ok"})
}

// pageParams reads offset/limit query parameters
func pageParams(r *http.Request) (int, int) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return offset, limit
}
