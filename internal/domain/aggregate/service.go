package aggregate

import (
	"fmt"
	"time"

	"servicehub/internal/domain/event"

	"github.com/google/uuid"
)

// ServiceCatalogueItem is a fixed-price offering inside a service.
type ServiceCatalogueItem struct {
	ItemID   string
	Name     string
	Price    int64
	Duration int // minutes
}

// Service represents a service offering aggregate root. A service is either
// billed hourly or through fixed-price catalogue items.
type Service struct {
	id          string
	providerID  string
	name        string
	description string
	category    string
	hourlyRate  int64
	catalogue   []ServiceCatalogueItem
	imageURL    string
	active      bool
	version     int
	createdAt   time.Time
	updatedAt   time.Time

	uncommittedEvents []event.DomainEvent
}

// NewService creates a service offering for a provider.
func NewService(providerID, name, description, category string, hourlyRate int64, catalogue []ServiceCatalogueItem) (*Service, error) {
	if providerID == "" {
		return nil, fmt.Errorf("providerID cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}
	if hourlyRate < 0 {
		return nil, fmt.Errorf("hourlyRate cannot be negative")
	}
	if hourlyRate == 0 && len(catalogue) == 0 {
		return nil, fmt.Errorf("service needs an hourly rate or at least one catalogue item")
	}
	for i := range catalogue {
		if catalogue[i].Name == "" {
			return nil, fmt.Errorf("catalogue item name cannot be empty")
		}
		if catalogue[i].Price <= 0 {
			return nil, fmt.Errorf("catalogue item price must be positive")
		}
		if catalogue[i].Duration <= 0 {
			return nil, fmt.Errorf("catalogue item duration must be positive")
		}
		if catalogue[i].ItemID == "" {
			catalogue[i].ItemID = uuid.New().String()
		}
	}

	now := time.Now()
	service := &Service{
		id:          uuid.New().String(),
		providerID:  providerID,
		name:        name,
		description: description,
		category:    category,
		hourlyRate:  hourlyRate,
		catalogue:   catalogue,
		active:      true,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}

	service.raiseEvent(&event.ServiceCreated{
		ServiceID:  service.id,
		ProviderID: providerID,
		Name:       name,
		HourlyRate: hourlyRate,
		Catalogue:  toEventCatalogue(catalogue),
		Timestamp:  now,
	})

	return service, nil
}

// ReconstructService rebuilds a service from database state.
func ReconstructService(
	id, providerID, name, description, category string,
	hourlyRate int64,
	catalogue []ServiceCatalogueItem,
	imageURL string,
	active bool,
	version int,
	createdAt, updatedAt time.Time,
) *Service {
	return &Service{
		id:          id,
		providerID:  providerID,
		name:        name,
		description: description,
		category:    category,
		hourlyRate:  hourlyRate,
		catalogue:   catalogue,
		imageURL:    imageURL,
		active:      active,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// Update replaces the mutable service fields.
func (s *Service) Update(name, description, category string, hourlyRate int64, catalogue []ServiceCatalogueItem) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if hourlyRate < 0 {
		return fmt.Errorf("hourlyRate cannot be negative")
	}
	if hourlyRate == 0 && len(catalogue) == 0 {
		return fmt.Errorf("service needs an hourly rate or at least one catalogue item")
	}
	for i := range catalogue {
		if catalogue[i].Name == "" || catalogue[i].Price <= 0 || catalogue[i].Duration <= 0 {
			return fmt.Errorf("invalid catalogue item at index %d", i)
		}
		if catalogue[i].ItemID == "" {
			catalogue[i].ItemID = uuid.New().String()
		}
	}

	s.name = name
	s.description = description
	s.category = category
	s.hourlyRate = hourlyRate
	s.catalogue = catalogue
	s.touch()

	s.raiseEvent(&event.ServiceUpdated{
		ServiceID:  s.id,
		Name:       name,
		HourlyRate: hourlyRate,
		Catalogue:  toEventCatalogue(catalogue),
		Timestamp:  s.updatedAt,
	})

	return nil
}

// SetImage stores the uploaded service image URL.
func (s *Service) SetImage(imageURL string) error {
	if imageURL == "" {
		return fmt.Errorf("imageURL cannot be empty")
	}
	s.imageURL = imageURL
	s.touch()
	return nil
}

// Deactivate removes the service from discovery. Existing bookings keep
// their snapshot of the price.
func (s *Service) Deactivate() error {
	if !s.active {
		return fmt.Errorf("service is already inactive")
	}

	s.active = false
	s.touch()

	s.raiseEvent(&event.ServiceDeactivated{
		ServiceID: s.id,
		Timestamp: s.updatedAt,
	})

	return nil
}

// CatalogueItem looks up a catalogue item by id.
func (s *Service) CatalogueItem(itemID string) (ServiceCatalogueItem, bool) {
	for _, item := range s.catalogue {
		if item.ItemID == itemID {
			return item, true
		}
	}
	return ServiceCatalogueItem{}, false
}

// PriceFor computes the booking price. A catalogue item id takes priority;
// otherwise the hourly rate is prorated over the duration.
func (s *Service) PriceFor(itemID string, durationMinutes int) (amount int64, duration int, err error) {
	if itemID != "" {
		item, ok := s.CatalogueItem(itemID)
		if !ok {
			return 0, 0, fmt.Errorf("catalogue item %s not found", itemID)
		}
		return item.Price, item.Duration, nil
	}
	if s.hourlyRate <= 0 {
		return 0, 0, fmt.Errorf("service has no hourly rate; a catalogue item is required")
	}
	if durationMinutes <= 0 {
		return 0, 0, fmt.Errorf("duration must be positive")
	}
	return HourlyPrice(s.hourlyRate, durationMinutes), durationMinutes, nil
}

func toEventCatalogue(items []ServiceCatalogueItem) []event.CatalogueItem {
	out := make([]event.CatalogueItem, 0, len(items))
	for _, item := range items {
		out = append(out, event.CatalogueItem{
			ItemID:   item.ItemID,
			Name:     item.Name,
			Price:    item.Price,
			Duration: item.Duration,
		})
	}
	return out
}

func (s *Service) touch() {
	s.version++
	s.updatedAt = time.Now()
}

func (s *Service) raiseEvent(evt event.DomainEvent) {
	s.uncommittedEvents = append(s.uncommittedEvents, evt)
}

// Getters
func (s *Service) ID() string           { return s.id }
func (s *Service) ProviderID() string   { return s.providerID }
func (s *Service) Name() string         { return s.name }
func (s *Service) Description() string  { return s.description }
func (s *Service) Category() string     { return s.category }
func (s *Service) HourlyRate() int64    { return s.hourlyRate }
func (s *Service) ImageURL() string     { return s.imageURL }
func (s *Service) IsActive() bool       { return s.active }
func (s *Service) Version() int         { return s.version }
func (s *Service) CreatedAt() time.Time { return s.createdAt }
func (s *Service) UpdatedAt() time.Time { return s.updatedAt }

// Catalogue returns a copy of the catalogue items.
func (s *Service) Catalogue() []ServiceCatalogueItem {
	out := make([]ServiceCatalogueItem, len(s.catalogue))
	copy(out, s.catalogue)
	return out
}

// Entity interface implementation
func (s *Service) GetID() string    { return s.id }
func (s *Service) GetVersion() int  { return s.version }
func (s *Service) SetVersion(v int) { s.version = v }

// AggregateRoot interface implementation
func (s *Service) GetUncommittedEvents() []event.DomainEvent {
	return s.uncommittedEvents
}

func (s *Service) MarkEventsAsCommitted() {
	s.uncommittedEvents = nil
}
