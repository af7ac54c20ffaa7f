package command

import (
	"context"
	"testing"
	"time"

	"servicehub/internal/domain/aggregate"
	"servicehub/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTManager(t *testing.T) *jwt.JWTManager {
	t.Helper()
	manager, err := jwt.NewJWTManager("test-secret-at-least-32-characters", "servicehub-test", time.Hour)
	require.NoError(t, err)
	return manager
}

func TestRegisterUser(t *testing.T) {
	env := newTestEnv()
	handler := NewRegisterUserHandler(env.factory, env.bus, testJWTManager(t))

	resp, err := handler.Handle(context.Background(), &RegisterUserCommand{
		Name:     "Ada Obi",
		Email:    "ada@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	assert.Equal(t, aggregate.RoleClient, resp.Role)
	assert.NotEmpty(t, resp.Token)
	assert.NotNil(t, env.store.users[resp.UserID])
	assert.Contains(t, env.bus.eventTypes(), "UserRegistered")
}

func TestRegisterUserRejectsAdminRole(t *testing.T) {
	env := newTestEnv()
	handler := NewRegisterUserHandler(env.factory, env.bus, testJWTManager(t))

	_, err := handler.Handle(context.Background(), &RegisterUserCommand{
		Name:     "Root",
		Email:    "root@example.com",
		Password: "password123",
		Role:     aggregate.RoleAdmin,
	})
	assertAppCode(t, err, "FORBIDDEN")
}

func TestRegisterUserDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	seedMarketplace(t, env.store)
	handler := NewRegisterUserHandler(env.factory, env.bus, testJWTManager(t))

	_, err := handler.Handle(context.Background(), &RegisterUserCommand{
		Name:     "Other Ada",
		Email:    "ada@example.com",
		Password: "password123",
	})
	assertAppCode(t, err, "CONFLICT")
}

func TestLogin(t *testing.T) {
	env := newTestEnv()
	seedMarketplace(t, env.store)
	handler := NewLoginHandler(env.factory, env.bus, testJWTManager(t))

	resp, err := handler.Handle(context.Background(), &LoginCommand{
		Email:    "ada@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Contains(t, env.bus.eventTypes(), "UserLoggedIn")
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv()
	seedMarketplace(t, env.store)
	handler := NewLoginHandler(env.factory, env.bus, testJWTManager(t))

	_, err := handler.Handle(context.Background(), &LoginCommand{
		Email:    "ada@example.com",
		Password: "wrong-password",
	})
	assertAppCode(t, err, "UNAUTHORIZED")

	// Unknown accounts get the same answer as bad passwords.
	_, err = handler.Handle(context.Background(), &LoginCommand{
		Email:    "ghost@example.com",
		Password: "password123",
	})
	assertAppCode(t, err, "UNAUTHORIZED")
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv()
	f := seedMarketplace(t, env.store)
	handler := NewChangePasswordHandler(env.factory)

	err := handler.Handle(context.Background(), &ChangePasswordCommand{
		UserID:      f.client.ID(),
		OldPassword: "wrong",
		NewPassword: "newpassword",
	})
	assertAppCode(t, err, "VALIDATION_ERROR")

	require.NoError(t, handler.Handle(context.Background(), &ChangePasswordCommand{
		UserID:      f.client.ID(),
		OldPassword: "password123",
		NewPassword: "newpassword",
	}))
	assert.True(t, env.store.users[f.client.ID()].CheckPassword("newpassword"))
}
