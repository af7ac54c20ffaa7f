package aggregate

import (
	"fmt"
	"strings"
	"time"

	"servicehub/internal/domain/event"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User roles
const (
	RoleClient   = "CLIENT"
	RoleProvider = "PROVIDER"
	RoleAdmin    = "ADMIN"
)

// User represents a user account aggregate root.
type User struct {
	id           string
	name         string
	email        string
	phone        string
	passwordHash string
	role         string
	active       bool
	version      int
	createdAt    time.Time
	updatedAt    time.Time

	uncommittedEvents []event.DomainEvent
}

// NewUser creates a user account with a bcrypt-hashed password.
func NewUser(name, email, phone, password, role string) (*User, error) {
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email address")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	switch role {
	case RoleClient, RoleProvider, RoleAdmin:
	default:
		return nil, fmt.Errorf("unknown role: %s", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &User{
		id:           uuid.New().String(),
		name:         name,
		email:        email,
		phone:        phone,
		passwordHash: string(hash),
		role:         role,
		active:       true,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}

	user.raiseEvent(&event.UserRegistered{
		UserID:    user.id,
		Name:      name,
		Email:     email,
		Phone:     phone,
		Role:      role,
		Timestamp: now,
	})

	return user, nil
}

// ReconstructUser rebuilds a user from database state.
func ReconstructUser(
	id, name, email, phone, passwordHash, role string,
	active bool,
	version int,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:           id,
		name:         name,
		email:        email,
		phone:        phone,
		passwordHash: passwordHash,
		role:         role,
		active:       active,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// CheckPassword verifies a plaintext password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)) == nil
}

// UpdateProfile updates the mutable profile fields.
func (u *User) UpdateProfile(name, phone string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	u.name = name
	u.phone = phone
	u.touch()

	u.raiseEvent(&event.UserProfileUpdated{
		UserID:    u.id,
		Name:      name,
		Phone:     phone,
		Timestamp: u.updatedAt,
	})

	return nil
}

// ChangePassword replaces the stored hash after verifying the old password.
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.CheckPassword(oldPassword) {
		return fmt.Errorf("current password is incorrect")
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	u.passwordHash = string(hash)
	u.touch()
	return nil
}

// PromoteToProvider flips a client account to the provider role when a
// provider profile is created for it.
func (u *User) PromoteToProvider() error {
	if u.role == RoleAdmin {
		return fmt.Errorf("admin accounts cannot become providers")
	}
	u.role = RoleProvider
	u.touch()
	return nil
}

// RecordLogin raises the login event for audit subscribers.
func (u *User) RecordLogin() {
	u.raiseEvent(&event.UserLoggedIn{
		UserID:    u.id,
		Email:     u.email,
		Timestamp: time.Now(),
	})
}

// Deactivate disables the account.
func (u *User) Deactivate() {
	u.active = false
	u.touch()
}

func (u *User) touch() {
	u.version++
	u.updatedAt = time.Now()
}

func (u *User) raiseEvent(evt event.DomainEvent) {
	u.uncommittedEvents = append(u.uncommittedEvents, evt)
}

// Getters
func (u *User) ID() string           { return u.id }
func (u *User) Name() string         { return u.name }
func (u *User) Email() string        { return u.email }
func (u *User) Phone() string        { return u.phone }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) Role() string         { return u.role }
func (u *User) IsActive() bool       { return u.active }
func (u *User) Version() int         { return u.version }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// Entity interface implementation
func (u *User) GetID() string    { return u.id }
func (u *User) GetVersion() int  { return u.version }
func (u *User) SetVersion(v int) { u.version = v }

// AggregateRoot interface implementation
func (u *User) GetUncommittedEvents() []event.DomainEvent {
	return u.uncommittedEvents
}

func (u *User) MarkEventsAsCommitted() {
	u.uncommittedEvents = nil
}
