package http

import (
	"encoding/json"
	"net/http"

	"servicehub/internal/application/command"
	"servicehub/pkg/errors"
	"servicehub/pkg/middleware"
	"servicehub/pkg/response"

	"github.com/rs/zerolog"
)

// HTTPAuthController handles HTTP requests for registration and login
type HTTPAuthController struct {
	registerHandler       *command.RegisterUserHandler
	loginHandler          *command.LoginHandler
	changePasswordHandler *command.ChangePasswordHandler
	logger                zerolog.Logger
}

// NewHTTPAuthController creates a new HTTP auth controller
func NewHTTPAuthController(
	registerHandler *command.RegisterUserHandler,
	loginHandler *command.LoginHandler,
	changePasswordHandler *command.ChangePasswordHandler,
	logger zerolog.Logger,
) *HTTPAuthController {
	return &HTTPAuthController{
		registerHandler:       registerHandler,
		loginHandler:          loginHandler,
		changePasswordHandler: changePasswordHandler,
		logger:                logger,
	}
}

// Register handles POST /api/auth/register
func (c *HTTPAuthController) Register(w http.ResponseWriter, r *http.Request) {
	var cmd command.RegisterUserCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		response.SendBadRequest(w, r, "Invalid request body")
		return
	}

	result, err := c.registerHandler.Handle(r.Context(), &cmd)
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendCreated(w, r, result)
}

// Login handles POST /api/auth/login
func (c *HTTPAuthController) Login(w http.ResponseWriter, r *http.Request) {
	var cmd command.LoginCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		response.SendBadRequest(w, r, "Invalid request body")
		return
	}

	result, err := c.loginHandler.Handle(r.Context(), &cmd)
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, result)
}

// ChangePassword handles POST /api/auth/change-password
func (c *HTTPAuthController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	var cmd command.ChangePasswordCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		response.SendBadRequest(w, r, "Invalid request body")
		return
	}
	cmd.UserID = userID

	if err := c.changePasswordHandler.Handle(r.Context(), &cmd); err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, map[string]string{"message": "password changed"})
}
