package event

import "time"

// CatalogueItem mirrors the aggregate item to avoid a circular dependency.
type CatalogueItem struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Duration int    `json:"duration"`
}

// ServiceCreated event
type ServiceCreated struct {
	ServiceID  string          `json:"service_id"`
	ProviderID string          `json:"provider_id"`
	Name       string          `json:"name"`
	HourlyRate int64           `json:"hourly_rate"`
	Catalogue  []CatalogueItem `json:"catalogue"`
	Timestamp  time.Time       `json:"timestamp"`
}

func (e *ServiceCreated) EventType() string     { return "ServiceCreated" }
func (e *ServiceCreated) AggregateID() string   { return e.ServiceID }
func (e *ServiceCreated) OccurredAt() time.Time { return e.Timestamp }
func (e *ServiceCreated) Version() int          { return 1 }

// ServiceUpdated event
type ServiceUpdated struct {
	ServiceID  string          `json:"service_id"`
	Name       string          `json:"name"`
	HourlyRate int64           `json:"hourly_rate"`
	Catalogue  []CatalogueItem `json:"catalogue"`
	Timestamp  time.Time       `json:"timestamp"`
}

func (e *ServiceUpdated) EventType() string     { return "ServiceUpdated" }
func (e *ServiceUpdated) AggregateID() string   { return e.ServiceID }
func (e *ServiceUpdated) OccurredAt() time.Time { return e.Timestamp }
func (e *ServiceUpdated) Version() int          { return 1 }

// ServiceDeactivated event
type ServiceDeactivated struct {
	ServiceID string    `json:"service_id"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *ServiceDeactivated) EventType() string     { return "ServiceDeactivated" }
func (e *ServiceDeactivated) AggregateID() string   { return e.ServiceID }
func (e *ServiceDeactivated) OccurredAt() time.Time { return e.Timestamp }
func (e *ServiceDeactivated) Version() int          { return 1 }
