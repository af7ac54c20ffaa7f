package mongo

import (
	"context"
	"fmt"
	"sync"

	"servicehub/internal/domain/repository"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoUnitOfWork implements the Unit of Work pattern for MongoDB
type MongoUnitOfWork struct {
	client        *mongo.Client
	database      *mongo.Database
	session       mongo.Session
	mutex         sync.Mutex
	inTransaction bool

	// Repository instances, created lazily
	userRepo     repository.UserRepository
	providerRepo repository.ProviderRepository
	serviceRepo  repository.ServiceRepository
	bookingRepo  repository.BookingRepository
	paymentRepo  repository.PaymentRepository
	payoutRepo   repository.PayoutRepository
	reviewRepo   repository.ReviewRepository
}

// NewMongoUnitOfWork creates a new MongoDB unit of work
func NewMongoUnitOfWork(client *mongo.Client, database *mongo.Database) *MongoUnitOfWork {
	return &MongoUnitOfWork{
		client:   client,
		database: database,
	}
}

// Begin starts a new transaction
func (uow *MongoUnitOfWork) Begin(ctx context.Context) error {
	uow.mutex.Lock()
	defer uow.mutex.Unlock()

	if uow.inTransaction {
		return fmt.Errorf("unit of work is already in transaction")
	}

	session, err := uow.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	if err := session.StartTransaction(); err != nil {
		session.EndSession(ctx)
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	uow.session = session
	uow.inTransaction = true
	uow.setTransactionForRepositories()

	return nil
}

// Commit commits the current transaction
func (uow *MongoUnitOfWork) Commit(ctx context.Context) error {
	uow.mutex.Lock()
	defer uow.mutex.Unlock()

	if !uow.inTransaction {
		return fmt.Errorf("no active transaction to commit")
	}

	if err := uow.session.CommitTransaction(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	uow.endTransaction(ctx)
	return nil
}

// Rollback rolls back the current transaction
func (uow *MongoUnitOfWork) Rollback(ctx context.Context) error {
	uow.mutex.Lock()
	defer uow.mutex.Unlock()

	if !uow.inTransaction {
		return fmt.Errorf("no active transaction to rollback")
	}

	if err := uow.session.AbortTransaction(ctx); err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	uow.endTransaction(ctx)
	return nil
}

// UserRepository returns the user repository
func (uow *MongoUnitOfWork) UserRepository() repository.UserRepository {
	uow.mutex.Lock()
	defer uow.mutex.Unlock()

	if uow.userRepo == nil {
		uow.userRepo = NewMongoUserRepository(uow.database)
		uow.attachTransaction(uow.userRepo)
	}
	return uow.userRepo
}

// ProviderRepository returns the provider repository
func (uow *MongoUnitOfWork) ProviderRepository() repository.ProviderRepository {
	uow.mutex.Lock()
	defer uow.mutex.Unlock()

	if uow.providerRepo == nil {
		uow.providerRepo = NewMongoProviderRepository(uow.database)
		uow.attachTransaction(uow.providerRepo)
	}
	return uow.providerRepo
}

// ServiceRepository returns the service repository
func (uow *MongoUnitOfWork) ServiceRepository() repository.ServiceRepository {
	uow.mutex.Lock()
	defer uow.mutex.Unlock()

	if uow.serviceRepo == nil {
		uow.serviceRepo = NewMongoServiceRepository(uow.database)
		uow.attachTransaction(uow.serviceRepo)
	}
	return uow.serviceRepo
}

// BookingRepository returns the booking repository
func (uow *MongoUnitOfWork) BookingRepository() repository.BookingRepository {
	uow.mutex.Lock()
	defer uow.mutex.Unlock()

	if uow.bookingRepo == nil {
		uow.bookingRepo = NewMongoBookingRepository(uow.database)
		uow.attachTransaction(uow.bookingRepo)
	}
	return uow.bookingRepo
}

// PaymentRepository returns the payment repository
func (uow *MongoUnitOfWork) PaymentRepository() repository.PaymentRepository {
	uow.mutex.Lock()
	defer uow.mutex.Unlock()

	if uow.paymentRepo == nil {
		uow.paymentRepo = NewMongoPaymentRepository(uow.database)
		uow.attachTransaction(uow.paymentRepo)
	}
	return uow.paymentRepo
}

// PayoutRepository returns the payout repository
func (uow *MongoUnitOfWork) PayoutRepository() repository.PayoutRepository {
	uow.mutex.Lock()
	defer uow.mutex.Unlock()

	if uow.payoutRepo == nil {
		uow.payoutRepo = NewMongoPayoutRepository(uow.database)
		uow.attachTransaction(uow.payoutRepo)
	}
	return uow.payoutRepo
}

// ReviewRepository returns the review repository
func (uow *MongoUnitOfWork) ReviewRepository() repository.ReviewRepository {
	uow.mutex.Lock()
	defer uow.mutex.Unlock()

	if uow.reviewRepo == nil {
		uow.reviewRepo = NewMongoReviewRepository(uow.database)
		uow.attachTransaction(uow.reviewRepo)
	}
	return uow.reviewRepo
}

// Close closes the unit of work and cleans up resources
func (uow *MongoUnitOfWork) Close() error {
	uow.mutex.Lock()
	defer uow.mutex.Unlock()

	if uow.inTransaction && uow.session != nil {
		ctx := context.Background()
		uow.session.AbortTransaction(ctx)
		uow.endTransaction(ctx)
	}

	return nil
}

// IsInTransaction returns whether the unit of work is in a transaction
func (uow *MongoUnitOfWork) IsInTransaction() bool {
	uow.mutex.Lock()
	defer uow.mutex.Unlock()
	return uow.inTransaction
}

func (uow *MongoUnitOfWork) attachTransaction(repo interface{}) {
	if !uow.inTransaction {
		return
	}
	if transactional, ok := repo.(repository.TransactionalRepository); ok {
		transactional.SetTransaction(uow.session)
	}
}

func (uow *MongoUnitOfWork) endTransaction(ctx context.Context) {
	if uow.session != nil {
		uow.session.EndSession(ctx)
		uow.session = nil
	}
	uow.inTransaction = false
	uow.clearTransactionFromRepositories()
}

func (uow *MongoUnitOfWork) setTransactionForRepositories() {
	for _, repo := range uow.allRepositories() {
		if transactional, ok := repo.(repository.TransactionalRepository); ok {
			transactional.SetTransaction(uow.session)
		}
	}
}

func (uow *MongoUnitOfWork) clearTransactionFromRepositories() {
	for _, repo := range uow.allRepositories() {
		if transactional, ok := repo.(repository.TransactionalRepository); ok {
			transactional.SetTransaction(nil)
		}
	}
}

func (uow *MongoUnitOfWork) allRepositories() []interface{} {
	repos := make([]interface{}, 0, 7)
	for _, repo := range []interface{}{
		uow.userRepo, uow.providerRepo, uow.serviceRepo, uow.bookingRepo,
		uow.paymentRepo, uow.payoutRepo, uow.reviewRepo,
	} {
		if repo != nil {
			repos = append(repos, repo)
		}
	}
	return repos
}

// MongoUnitOfWorkFactory creates MongoDB unit of work instances
type MongoUnitOfWorkFactory struct {
	client   *mongo.Client
	database *mongo.Database
}

// NewMongoUnitOfWorkFactory creates a new MongoDB unit of work factory
func NewMongoUnitOfWorkFactory(client *mongo.Client, database *mongo.Database) *MongoUnitOfWorkFactory {
	return &MongoUnitOfWorkFactory{
		client:   client,
		database: database,
	}
}

// CreateUnitOfWork creates a new unit of work instance
func (f *MongoUnitOfWorkFactory) CreateUnitOfWork() repository.UnitOfWork {
	return NewMongoUnitOfWork(f.client, f.database)
}
