package query

import (
	"time"

	"servicehub/internal/domain/aggregate"
)

// Read models returned by the query handlers. They are flat JSON shapes
// built from the aggregates; money stays in minor units.

// BookingView is the API shape of a booking
type BookingView struct {
	ID              string    `json:"id"`
	ClientID        string    `json:"client_id"`
	ProviderID      string    `json:"provider_id,omitempty"`
	ServiceID       string    `json:"service_id"`
	CatalogueItemID string    `json:"catalogue_item_id,omitempty"`
	ScheduledDate   time.Time `json:"scheduled_date"`
	EndTime         time.Time `json:"end_time"`
	Duration        int       `json:"duration"`
	Address         string    `json:"address"`
	Notes           string    `json:"notes,omitempty"`
	TotalAmount     int64     `json:"total_amount"`
	PlatformFee     int64     `json:"platform_fee"`
	PaymentMethod   string    `json:"payment_method"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewBookingView builds the read model from a booking aggregate
func NewBookingView(b *aggregate.Booking) *BookingView {
	return &BookingView{
		ID:              b.ID(),
		ClientID:        b.ClientID(),
		ProviderID:      b.ProviderID(),
		ServiceID:       b.ServiceID(),
		CatalogueItemID: b.CatalogueItemID(),
		ScheduledDate:   b.ScheduledDate(),
		EndTime:         b.EndTime(),
		Duration:        b.Duration(),
		Address:         b.Address(),
		Notes:           b.Notes(),
		TotalAmount:     b.TotalAmount(),
		PlatformFee:     b.PlatformFee(),
		PaymentMethod:   string(b.PaymentMethod()),
		Status:          string(b.Status()),
		CreatedAt:       b.CreatedAt(),
		UpdatedAt:       b.UpdatedAt(),
	}
}

// PaymentView is the API shape of a payment
type PaymentView struct {
	ID               string     `json:"id"`
	BookingID        string     `json:"booking_id"`
	Amount           int64      `json:"amount"`
	PlatformFee      int64      `json:"platform_fee"`
	ProviderAmount   int64      `json:"provider_amount"`
	Method           string     `json:"method"`
	Status           string     `json:"status"`
	Reference        string     `json:"reference,omitempty"`
	AuthorizationURL string     `json:"authorization_url,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	ReleasedAt       *time.Time `json:"released_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// NewPaymentView builds the read model from a payment aggregate
func NewPaymentView(p *aggregate.Payment) *PaymentView {
	view := &PaymentView{
		ID:               p.ID(),
		BookingID:        p.BookingID(),
		Amount:           p.Amount(),
		PlatformFee:      p.PlatformFee(),
		ProviderAmount:   p.ProviderAmount(),
		Method:           string(p.Method()),
		Status:           string(p.Status()),
		Reference:        p.PaystackRef(),
		AuthorizationURL: p.AuthorizationURL(),
		CreatedAt:        p.CreatedAt(),
	}
	if t := p.PaidAt(); !t.IsZero() {
		view.PaidAt = &t
	}
	if t := p.ReleasedAt(); !t.IsZero() {
		view.ReleasedAt = &t
	}
	return view
}

// PayoutView is the API shape of a payout
type PayoutView struct {
	ID            string     `json:"id"`
	ProviderID    string     `json:"provider_id"`
	PaymentID     string     `json:"payment_id"`
	BookingID     string     `json:"booking_id"`
	Amount        int64      `json:"amount"`
	Status        string     `json:"status"`
	BankName      string     `json:"bank_name"`
	AccountNumber string     `json:"account_number"`
	AccountName   string     `json:"account_name"`
	TransferCode  string     `json:"transfer_code,omitempty"`
	FailReason    string     `json:"fail_reason,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NewPayoutView builds the read model from a payout aggregate
func NewPayoutView(p *aggregate.Payout) *PayoutView {
	bank := p.Bank()
	view := &PayoutView{
		ID:            p.ID(),
		ProviderID:    p.ProviderID(),
		PaymentID:     p.PaymentID(),
		BookingID:     p.BookingID(),
		Amount:        p.Amount(),
		Status:        string(p.Status()),
		BankName:      bank.BankName,
		AccountNumber: bank.AccountNumber,
		AccountName:   bank.AccountName,
		TransferCode:  p.TransferCode(),
		FailReason:    p.FailReason(),
		CreatedAt:     p.CreatedAt(),
	}
	if t := p.ProcessedAt(); !t.IsZero() {
		view.ProcessedAt = &t
	}
	if t := p.CompletedAt(); !t.IsZero() {
		view.CompletedAt = &t
	}
	return view
}

// PayoutReceipt is the full money breakdown behind one payout
type PayoutReceipt struct {
	Payout      *PayoutView `json:"payout"`
	TotalAmount int64       `json:"total_amount"`
	PlatformFee int64       `json:"platform_fee"`
	NetAmount   int64       `json:"net_amount"`
	BookingDate time.Time   `json:"booking_date"`
	ServiceID   string      `json:"service_id"`
}

// ProviderView is the API shape of a provider profile
type ProviderView struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	BusinessName  string    `json:"business_name"`
	Description   string    `json:"description,omitempty"`
	Location      string    `json:"location"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	AverageRating int64     `json:"average_rating"` // hundredths, 450 = 4.50
	RatingCount   int64     `json:"rating_count"`
	HasBankSetup  bool      `json:"has_bank_setup"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewProviderView builds the read model from a provider aggregate. Bank
// details never leave through this view, only whether they exist.
func NewProviderView(p *aggregate.Provider) *ProviderView {
	return &ProviderView{
		ID:            p.ID(),
		UserID:        p.UserID(),
		BusinessName:  p.BusinessName(),
		Description:   p.Description(),
		Location:      p.Location(),
		PhotoURL:      p.PhotoURL(),
		AverageRating: p.AverageRating(),
		RatingCount:   p.RatingCount(),
		HasBankSetup:  p.HasPayoutDestination(),
		Active:        p.IsActive(),
		CreatedAt:     p.CreatedAt(),
	}
}

// CatalogueItemView is one fixed-price item in a service view
type CatalogueItemView struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Duration int    `json:"duration"`
}

// ServiceView is the API shape of a service offering
type ServiceView struct {
	ID          string              `json:"id"`
	ProviderID  string              `json:"provider_id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Category    string              `json:"category,omitempty"`
	HourlyRate  int64               `json:"hourly_rate,omitempty"`
	Catalogue   []CatalogueItemView `json:"catalogue,omitempty"`
	ImageURL    string              `json:"image_url,omitempty"`
	Active      bool                `json:"active"`
	CreatedAt   time.Time           `json:"created_at"`
}

// NewServiceView builds the read model from a service aggregate
func NewServiceView(s *aggregate.Service) *ServiceView {
	var catalogue []CatalogueItemView
	for _, item := range s.Catalogue() {
		catalogue = append(catalogue, CatalogueItemView{
			ItemID:   item.ItemID,
			Name:     item.Name,
			Price:    item.Price,
			Duration: item.Duration,
		})
	}

	return &ServiceView{
		ID:          s.ID(),
		ProviderID:  s.ProviderID(),
		Name:        s.Name(),
		Description: s.Description(),
		Category:    s.Category(),
		HourlyRate:  s.HourlyRate(),
		Catalogue:   catalogue,
		ImageURL:    s.ImageURL(),
		Active:      s.IsActive(),
		CreatedAt:   s.CreatedAt(),
	}
}

// ReviewView is the API shape of a review
type ReviewView struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"booking_id"`
	ClientID   string    `json:"client_id"`
	ProviderID string    `json:"provider_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewReviewView builds the read model from a review aggregate
func NewReviewView(r *aggregate.Review) *ReviewView {
	return &ReviewView{
		ID:         r.ID(),
		BookingID:  r.BookingID(),
		ClientID:   r.ClientID(),
		ProviderID: r.ProviderID(),
		Rating:     r.Rating(),
		Comment:    r.Comment(),
		CreatedAt:  r.CreatedAt(),
	}
}

// clampPage applies the default and maximum page size
func clampPage(offset, limit int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
