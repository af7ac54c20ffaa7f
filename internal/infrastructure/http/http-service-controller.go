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

// HTTPServiceController handles HTTP requests for service listings
type HTTPServiceController struct {
	createHandler     *command.CreateServiceHandler
	updateHandler     *command.UpdateServiceHandler
	deactivateHandler *command.DeactivateServiceHandler
	getHandler        *query.GetServiceHandler
	listHandler       *query.ListServicesHandler
	uploads           *cloudinary.Service
	logger            zerolog.Logger
}

// NewHTTPServiceController creates a new HTTP service controller
func NewHTTPServiceController(
	createHandler *command.CreateServiceHandler,
	updateHandler *command.UpdateServiceHandler,
	deactivateHandler *command.DeactivateServiceHandler,
	getHandler *query.GetServiceHandler,
	listHandler *query.ListServicesHandler,
	uploads *cloudinary.Service,
	logger zerolog.Logger,
) *HTTPServiceController {
	return &HTTPServiceController{
		createHandler:     createHandler,
		updateHandler:     updateHandler,
		deactivateHandler: deactivateHandler,
		getHandler:        getHandler,
		listHandler:       listHandler,
		uploads:           uploads,
		logger:            logger,
	}
}

// CreateService handles POST /api/services
func (c *HTTPServiceController) CreateService(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	var cmd command.CreateServiceCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		response.SendBadRequest(w, r, "Invalid request body")
		return
	}
	cmd.UserID = userID

	result, err := c.createHandler.Handle(r.Context(), &cmd)
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendCreated(w, r, result)
}

// UpdateService handles PUT /api/services/{id}
func (c *HTTPServiceController) UpdateService(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	var cmd command.UpdateServiceCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		response.SendBadRequest(w, r, "Invalid request body")
		return
	}
	cmd.ServiceID = chi.URLParam(r, "id")
	cmd.UserID = userID

	if err := c.updateHandler.Handle(r.Context(), &cmd); err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, map[string]string{"message": "service updated"})
}

// UploadImage handles POST /api/services/{id}/image with a multipart form
// carrying an "image" file field
func (c *HTTPServiceController) UploadImage(w http.ResponseWriter, r *http.Request) {
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

	file, _, err := r.FormFile("image")
	if err != nil {
		response.SendBadRequest(w, r, "image file is required")
		return
	}
	defer file.Close()

	serviceID := chi.URLParam(r, "id")
	uploaded, err := c.uploads.UploadServiceImage(r.Context(), file, serviceID)
	if err != nil {
		middleware.HandleError(w, r, c.logger, errors.NewBadGatewayError("image upload failed"))
		return
	}

	err = c.updateHandler.SetImage(r.Context(), &command.SetServiceImageCommand{
		ServiceID: serviceID,
		UserID:    userID,
		ImageURL:  uploaded.SecureURL,
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, map[string]string{"image_url": uploaded.SecureURL})
}

// DeactivateService handles DELETE /api/services/{id}
func (c *HTTPServiceController) DeactivateService(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	err := c.deactivateHandler.Handle(r.Context(), &command.DeactivateServiceCommand{
		ServiceID: chi.URLParam(r, "id"),
		UserID:    userID,
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, map[string]string{"message": "service deactivated"})
}

// GetService handles GET /api/services/{id}
func (c *HTTPServiceController) GetService(w http.ResponseWriter, r *http.Request) {
	view, err := c.getHandler.Handle(r.Context(), &query.GetServiceQuery{ServiceID: chi.URLParam(r, "id")})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, view)
}

// ListServices handles GET /api/services
func (c *HTTPServiceController) ListServices(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	views, err := c.listHandler.Handle(r.Context(), &query.ListServicesQuery{
		Category: r.URL.Query().Get("category"),
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, views)
}
