package command

import (
	"context"
	"fmt"

	"servicehub/internal/domain/aggregate"
	"servicehub/internal/domain/repository"
	"servicehub/internal/infrastructure/bus"
	"servicehub/pkg/errors"
	"servicehub/pkg/jwt"
)

// RegisterUserHandler handles account registration
type RegisterUserHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
	jwtManager *jwt.JWTManager
}

// NewRegisterUserHandler creates a new register user handler
func NewRegisterUserHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus, jwtManager *jwt.JWTManager) *RegisterUserHandler {
	return &RegisterUserHandler{
		uowFactory: uowFactory,
		eventBus:   eventBus,
		jwtManager: jwtManager,
	}
}

// Handle processes the register user command
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd *RegisterUserCommand) (*AuthResponse, error) {
	if cmd == nil {
		return nil, errors.NewValidationError("command cannot be nil")
	}

	role := cmd.Role
	if role == "" {
		role = aggregate.RoleClient
	}
	if role == aggregate.RoleAdmin {
		return nil, errors.NewForbiddenError("admin accounts cannot be self-registered")
	}

	user, err := aggregate.NewUser(cmd.Name, cmd.Email, cmd.Phone, cmd.Password, role)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	if err := uow.UserRepository().Save(ctx, user); err != nil {
		uow.Rollback(ctx)
		if appErr, ok := err.(*errors.ApplicationError); ok {
			return nil, appErr
		}
		return nil, errors.NewInternalError(fmt.Sprintf("failed to save user: %v", err))
	}

	events := user.GetUncommittedEvents()

	if err := uow.Commit(ctx); err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	h.eventBus.PublishBatch(ctx, events)

	token, err := h.jwtManager.GenerateToken(user.ID(), user.Email(), user.Name(), user.Role())
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to generate token: %v", err))
	}

	return &AuthResponse{
		UserID: user.ID(),
		Name:   user.Name(),
		Email:  user.Email(),
		Role:   user.Role(),
		Token:  token,
	}, nil
}

// LoginHandler handles credential login
type LoginHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
	jwtManager *jwt.JWTManager
}

// NewLoginHandler creates a new login handler
func NewLoginHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus, jwtManager *jwt.JWTManager) *LoginHandler {
	return &LoginHandler{
		uowFactory: uowFactory,
		eventBus:   eventBus,
		jwtManager: jwtManager,
	}
}

// Handle processes the login command. Wrong email and wrong password return
// the same error so the endpoint cannot be used to probe for accounts.
func (h *LoginHandler) Handle(ctx context.Context, cmd *LoginCommand) (*AuthResponse, error) {
	if cmd == nil || cmd.Email == "" || cmd.Password == "" {
		return nil, errors.NewValidationError("email and password are required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	user, err := uow.UserRepository().GetByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, errors.NewUnauthorizedError("invalid email or password")
	}

	if !user.IsActive() {
		return nil, errors.NewForbiddenError("account is disabled")
	}

	if !user.CheckPassword(cmd.Password) {
		return nil, errors.NewUnauthorizedError("invalid email or password")
	}

	user.RecordLogin()
	h.eventBus.PublishBatch(ctx, user.GetUncommittedEvents())
	user.MarkEventsAsCommitted()

	token, err := h.jwtManager.GenerateToken(user.ID(), user.Email(), user.Name(), user.Role())
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to generate token: %v", err))
	}

	return &AuthResponse{
		UserID: user.ID(),
		Name:   user.Name(),
		Email:  user.Email(),
		Role:   user.Role(),
		Token:  token,
	}, nil
}

// ChangePasswordHandler handles password changes
type ChangePasswordHandler struct {
	uowFactory repository.UnitOfWorkFactory
}

// NewChangePasswordHandler creates a new change password handler
func NewChangePasswordHandler(uowFactory repository.UnitOfWorkFactory) *ChangePasswordHandler {
	return &ChangePasswordHandler{uowFactory: uowFactory}
}

// Handle processes the change password command
func (h *ChangePasswordHandler) Handle(ctx context.Context, cmd *ChangePasswordCommand) error {
	if cmd == nil || cmd.UserID == "" {
		return errors.NewValidationError("user_id is required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	userRepo := uow.UserRepository()
	user, err := userRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		uow.Rollback(ctx)
		return errors.NewNotFoundError("user")
	}

	if err := user.ChangePassword(cmd.OldPassword, cmd.NewPassword); err != nil {
		uow.Rollback(ctx)
		return errors.NewValidationError(err.Error())
	}

	if err := userRepo.Save(ctx, user); err != nil {
		uow.Rollback(ctx)
		return errors.NewInternalError(fmt.Sprintf("failed to save user: %v", err))
	}

	if err := uow.Commit(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	return nil
}
