package http

import (
	"encoding/json"
	"net/http"

	"servicehub/internal/application/command"
	"servicehub/internal/application/query"
	"servicehub/internal/infrastructure/cloudinary"
	"servicehub/pkg/errors"
	"servicehub/pkg/middleware"
	"servicehub/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxUploadSize = 10 << 20 // 10 MiB

// HTTPProviderController handles HTTP requests for provider profiles
type HTTPProviderController struct {
	registerHandler    *command.RegisterProviderHandler
	updateHandler      *command.UpdateProviderProfileHandler
	photoHandler       *command.SetProviderPhotoHandler
	bankHandler        *command.UpdateBankAccountHandler
	getHandler         *query.GetProviderHandler
	listHandler        *query.ListProvidersHandler
	listServices       *query.ListProviderServicesHandler
	listReviews        *query.ListProviderReviewsHandler
	listPayoutsHandler *query.ListProviderPayoutsHandler
	receiptHandler     *query.GetPayoutReceiptHandler
	uploads            *cloudinary.Service
	logger             zerolog.Logger
}

// NewHTTPProviderController creates a new HTTP provider controller
func NewHTTPProviderController(
	registerHandler *command.RegisterProviderHandler,
	updateHandler *command.UpdateProviderProfileHandler,
	photoHandler *command.SetProviderPhotoHandler,
	bankHandler *command.UpdateBankAccountHandler,
	getHandler *query.GetProviderHandler,
	listHandler *query.ListProvidersHandler,
	listServices *query.ListProviderServicesHandler,
	listReviews *query.ListProviderReviewsHandler,
	listPayoutsHandler *query.ListProviderPayoutsHandler,
	receiptHandler *query.GetPayoutReceiptHandler,
	uploads *cloudinary.Service,
	logger zerolog.Logger,
) *HTTPProviderController {
	return &HTTPProviderController{
		registerHandler:    registerHandler,
		updateHandler:      updateHandler,
		photoHandler:       photoHandler,
		bankHandler:        bankHandler,
		getHandler:         getHandler,
		listHandler:        listHandler,
		listServices:       listServices,
		listReviews:        listReviews,
		listPayoutsHandler: listPayoutsHandler,
		receiptHandler:     receiptHandler,
		uploads:            uploads,
		logger:             logger,
	}
}

// RegisterProvider handles POST /api/providers
func (c *HTTPProviderController) RegisterProvider(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	var cmd command.RegisterProviderCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		response.SendBadRequest(w, r, "Invalid request body")
		return
	}
	cmd.UserID = userID

	result, err := c.registerHandler.Handle(r.Context(), &cmd)
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendCreated(w, r, result)
}

// UpdateProfile handles PUT /api/providers/{id}
func (c *HTTPProviderController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	var cmd command.UpdateProviderProfileCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		response.SendBadRequest(w, r, "Invalid request body")
		return
	}
	cmd.ProviderID = chi.URLParam(r, "id")
	cmd.UserID = userID

	if err := c.updateHandler.Handle(r.Context(), &cmd); err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, map[string]string{"message": "profile updated"})
}

// UploadPhoto handles POST /api/providers/{id}/photo with a multipart form
// carrying a "photo" file field
func (c *HTTPProviderController) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}
	if c.uploads == nil {
		middleware.HandleError(w, r, c.logger, errors.NewServiceUnavailableError("image uploads are not configured"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.SendBadRequest(w, r, "Invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		response.SendBadRequest(w, r, "photo file is required")
		return
	}
	defer file.Close()

	providerID := chi.URLParam(r, "id")
	uploaded, err := c.uploads.UploadProviderPhoto(r.Context(), file, providerID)
	if err != nil {
		middleware.HandleError(w, r, c.logger, errors.NewBadGatewayError("photo upload failed"))
		return
	}

	err = c.photoHandler.Handle(r.Context(), &command.SetProviderPhotoCommand{
		ProviderID: providerID,
		UserID:     userID,
		PhotoURL:   uploaded.SecureURL,
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, map[string]string{"photo_url": uploaded.SecureURL})
}

// UpdateBankAccount handles PUT /api/providers/{id}/bank-account
func (c *HTTPProviderController) UpdateBankAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	var cmd command.UpdateBankAccountCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		response.SendBadRequest(w, r, "Invalid request body")
		return
	}
	cmd.ProviderID = chi.URLParam(r, "id")
	cmd.UserID = userID

	if err := c.bankHandler.Handle(r.Context(), &cmd); err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, map[string]string{"message": "bank account updated"})
}

// GetProvider handles GET /api/providers/{id}
func (c *HTTPProviderController) GetProvider(w http.ResponseWriter, r *http.Request) {
	view, err := c.getHandler.Handle(r.Context(), &query.GetProviderQuery{ProviderID: chi.URLParam(r, "id")})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, view)
}

// ListProviders handles GET /api/providers
func (c *HTTPProviderController) ListProviders(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	views, err := c.listHandler.Handle(r.Context(), &query.ListProvidersQuery{
		Location: r.URL.Query().Get("location"),
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, views)
}

// ListProviderServices handles GET /api/providers/{id}/services
func (c *HTTPProviderController) ListProviderServices(w http.ResponseWriter, r *http.Request) {
	views, err := c.listServices.Handle(r.Context(), &query.ListProviderServicesQuery{ProviderID: chi.URLParam(r, "id")})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, views)
}

// ListProviderReviews handles GET /api/providers/{id}/reviews
func (c *HTTPProviderController) ListProviderReviews(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	views, err := c.listReviews.Handle(r.Context(), &query.ListProviderReviewsQuery{
		ProviderID: chi.URLParam(r, "id"),
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, views)
}

// ListMyPayouts handles GET /api/provider/payouts
func (c *HTTPProviderController) ListMyPayouts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	offset, limit := pageParams(r)
	views, err := c.listPayoutsHandler.Handle(r.Context(), &query.ListProviderPayoutsQuery{
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

// GetPayoutReceipt handles GET /api/payouts/{id}/receipt
func (c *HTTPProviderController) GetPayoutReceipt(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	role, _ := middleware.GetRoleFromContext(r.Context())

	receipt, err := c.receiptHandler.Handle(r.Context(), &query.GetPayoutReceiptQuery{
		PayoutID:      chi.URLParam(r, "id"),
		RequesterID:   userID,
		RequesterRole: role,
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, receipt)
}
