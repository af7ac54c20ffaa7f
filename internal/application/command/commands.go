package command

import "time"

// ============================================
// Authentication Commands
// ============================================

// RegisterUserCommand registers a new account
type RegisterUserCommand struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"` // defaults to CLIENT
}

// AuthResponse is returned after registration or login
type AuthResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Token  string `json:"token"`
}

// LoginCommand authenticates a user
type LoginCommand struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordCommand changes an account password
type ChangePasswordCommand struct {
	UserID      string `json:"-"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ============================================
// Booking Commands
// ============================================

// CreateBookingCommand books a service slot
type CreateBookingCommand struct {
	ClientID        string    `json:"-"`
	ServiceID       string    `json:"service_id"`
	CatalogueItemID string    `json:"catalogue_item_id,omitempty"`
	ScheduledDate   time.Time `json:"scheduled_date"`
	Duration        int       `json:"duration,omitempty"` // minutes, for hourly services
	Address         string    `json:"address"`
	Notes           string    `json:"notes,omitempty"`
	PaymentMethod   string    `json:"payment_method"` // ONLINE or CASH
}

// CreateBookingResponse returns the new booking and its payment
type CreateBookingResponse struct {
	BookingID   string `json:"booking_id"`
	PaymentID   string `json:"payment_id"`
	TotalAmount int64  `json:"total_amount"`
	PlatformFee int64  `json:"platform_fee"`
	Status      string `json:"status"`
}

// AcceptBookingCommand is the provider accepting a booking request.
// UserID is the authenticated user; the handler resolves their provider
// profile inside the transaction.
type AcceptBookingCommand struct {
	BookingID string `json:"-"`
	UserID    string `json:"-"`
}

// DeclineBookingCommand is the provider turning a booking down
type DeclineBookingCommand struct {
	BookingID string `json:"-"`
	UserID    string `json:"-"`
	Reason    string `json:"reason,omitempty"`
}

// StartJobCommand is the provider starting the job
type StartJobCommand struct {
	BookingID string `json:"-"`
	UserID    string `json:"-"`
}

// FinishJobCommand is the provider reporting the job done
type FinishJobCommand struct {
	BookingID string `json:"-"`
	UserID    string `json:"-"`
}

// CancelBookingCommand cancels a booking
type CancelBookingCommand struct {
	BookingID string `json:"-"`
	UserID    string `json:"-"`
	Reason    string `json:"reason,omitempty"`
}

// ConfirmCompletionCommand is the client confirming the job was done.
// For online payments this starts the escrow release; for cash it simply
// completes the booking.
type ConfirmCompletionCommand struct {
	BookingID string `json:"-"`
	ClientID  string `json:"-"`
}

// ConfirmCashReceivedCommand is the provider confirming a cash payment
type ConfirmCashReceivedCommand struct {
	BookingID string `json:"-"`
	UserID    string `json:"-"`
}

// ============================================
// Payment Commands
// ============================================

// InitializePaymentCommand starts a gateway checkout for a booking's payment
type InitializePaymentCommand struct {
	BookingID   string `json:"-"`
	ClientID    string `json:"-"`
	CallbackURL string `json:"callback_url,omitempty"`
}

// InitializePaymentResponse carries the checkout redirect
type InitializePaymentResponse struct {
	PaymentID        string `json:"payment_id"`
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
}

// VerifyPaymentCommand settles a payment against the gateway's verify API.
// Used by both the charge webhook and the client's callback redirect.
type VerifyPaymentCommand struct {
	Reference string `json:"reference"`
}

// ============================================
// Payout Commands
// ============================================

// ProcessPayoutCommand initiates the gateway transfer for a payout
type ProcessPayoutCommand struct {
	PayoutID string `json:"-"`
}

// MarkPayoutPaidCommand settles a payout manually, outside the gateway
type MarkPayoutPaidCommand struct {
	PayoutID string `json:"-"`
}

// SettleTransferCommand applies a transfer webhook outcome
type SettleTransferCommand struct {
	TransferCode string `json:"transfer_code"`
	Status       string `json:"status"` // success, failed, reversed
	Reason       string `json:"reason,omitempty"`
}

// ============================================
// Provider Commands
// ============================================

// RegisterProviderCommand creates a provider profile for the current user
type RegisterProviderCommand struct {
	UserID       string `json:"-"`
	BusinessName string `json:"business_name"`
	Description  string `json:"description,omitempty"`
	Location     string `json:"location"`
}

// RegisterProviderResponse returns the new provider ID
type RegisterProviderResponse struct {
	ProviderID string `json:"provider_id"`
}

// UpdateProviderProfileCommand updates provider profile fields
type UpdateProviderProfileCommand struct {
	ProviderID   string `json:"-"`
	UserID       string `json:"-"`
	BusinessName string `json:"business_name"`
	Description  string `json:"description,omitempty"`
	Location     string `json:"location"`
}

// SetProviderPhotoCommand stores an uploaded profile photo URL. The HTTP
// layer uploads the image first and passes the resulting URL down.
type SetProviderPhotoCommand struct {
	ProviderID string `json:"-"`
	UserID     string `json:"-"`
	PhotoURL   string `json:"-"`
}

// UpdateBankAccountCommand sets the provider's payout destination. The
// handler registers the account with the gateway and stores the returned
// recipient code alongside the bank details.
type UpdateBankAccountCommand struct {
	ProviderID    string `json:"-"`
	UserID        string `json:"-"`
	BankCode      string `json:"bank_code"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// ============================================
// Service Commands
// ============================================

// CatalogueItemInput is a fixed-price item in a service payload
type CatalogueItemInput struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Duration int    `json:"duration"`
}

// CreateServiceCommand creates a service offering
type CreateServiceCommand struct {
	ProviderID  string               `json:"-"`
	UserID      string               `json:"-"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Category    string               `json:"category,omitempty"`
	HourlyRate  int64                `json:"hourly_rate,omitempty"`
	Catalogue   []CatalogueItemInput `json:"catalogue,omitempty"`
}

// CreateServiceResponse returns the new service ID
type CreateServiceResponse struct {
	ServiceID string `json:"service_id"`
}

// UpdateServiceCommand replaces service fields
type UpdateServiceCommand struct {
	ServiceID   string               `json:"-"`
	UserID      string               `json:"-"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Category    string               `json:"category,omitempty"`
	HourlyRate  int64                `json:"hourly_rate,omitempty"`
	Catalogue   []CatalogueItemInput `json:"catalogue,omitempty"`
}

// SetServiceImageCommand stores an uploaded listing image URL
type SetServiceImageCommand struct {
	ServiceID string `json:"-"`
	UserID    string `json:"-"`
	ImageURL  string `json:"-"`
}

// DeactivateServiceCommand removes a service from discovery
type DeactivateServiceCommand struct {
	ServiceID string `json:"-"`
	UserID    string `json:"-"`
}

// ============================================
// Review Commands
// ============================================

// SubmitReviewCommand reviews a completed booking
type SubmitReviewCommand struct {
	BookingID string `json:"-"`
	ClientID  string `json:"-"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}

// SubmitReviewResponse returns the new review ID
type SubmitReviewResponse struct {
	ReviewID string `json:"review_id"`
}
