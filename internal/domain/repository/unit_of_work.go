package repository

import (
	"context"
)

// UnitOfWork manages repositories and a shared transaction. Command handlers
// create one per request, mutate aggregates through its repositories and
// commit or roll back as a whole.
type UnitOfWork interface {
	// Transaction management
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// Repository factory methods
	UserRepository() UserRepository
	ProviderRepository() ProviderRepository
	ServiceRepository() ServiceRepository
	BookingRepository() BookingRepository
	PaymentRepository() PaymentRepository
	PayoutRepository() PayoutRepository
	ReviewRepository() ReviewRepository

	// Resource management
	Close() error

	// Transaction state
	IsInTransaction() bool
}

// UnitOfWorkFactory creates new unit of work instances
type UnitOfWorkFactory interface {
	CreateUnitOfWork() UnitOfWork
}

// TransactionalRepository extends a repository with transaction support
type TransactionalRepository interface {
	// Set transaction context for the repository
	SetTransaction(tx interface{})

	// Get current transaction context
	GetTransaction() interface{}

	// Check if repository is in transaction
	IsTransactional() bool
}
