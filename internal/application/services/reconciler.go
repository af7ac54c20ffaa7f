package services

import (
	"context"
	"fmt"
	"time"

	"servicehub/internal/application/command"
	"servicehub/internal/config"
	"servicehub/internal/domain/aggregate"
	"servicehub/internal/domain/repository"
	"servicehub/internal/infrastructure/bus"
	"servicehub/internal/infrastructure/paystack"
	"servicehub/internal/metrics"

	"github.com/rs/zerolog"
)

// Reconciler is the safety net behind the webhooks. On every tick it
// re-checks stale PENDING payments and in-flight payouts against the
// gateway, so a missed webhook delays settlement instead of losing it.
type Reconciler struct {
	uowFactory      repository.UnitOfWorkFactory
	eventBus        bus.EventBus
	gateway         paystack.Gateway
	verifyPayments  *command.VerifyPaymentHandler
	settleTransfers *command.SettleTransferHandler
	cfg             config.ReconcilerConfig
	logger          zerolog.Logger
	stopChan        chan struct{}
}

// NewReconciler creates a new reconciler
func NewReconciler(
	uowFactory repository.UnitOfWorkFactory,
	eventBus bus.EventBus,
	gateway paystack.Gateway,
	verifyPayments *command.VerifyPaymentHandler,
	settleTransfers *command.SettleTransferHandler,
	cfg config.ReconcilerConfig,
	logger zerolog.Logger,
) *Reconciler {
	return &Reconciler{
		uowFactory:      uowFactory,
		eventBus:        eventBus,
		gateway:         gateway,
		verifyPayments:  verifyPayments,
		settleTransfers: settleTransfers,
		cfg:             cfg,
		logger:          logger,
		stopChan:        make(chan struct{}),
	}
}

// Start runs the reconcile loop until Stop is called or ctx is cancelled
func (r *Reconciler) Start(ctx context.Context) {
	interval := r.cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", interval).Msg("reconciler started")

	for {
		select {
		case <-ticker.C:
			r.reconcile(ctx)
		case <-r.stopChan:
			r.logger.Info().Msg("reconciler stopped")
			return
		case <-ctx.Done():
			r.logger.Info().Msg("reconciler stopped, context done")
			return
		}
	}
}

// Stop stops the reconcile loop
func (r *Reconciler) Stop() {
	close(r.stopChan)
}

func (r *Reconciler) reconcile(ctx context.Context) {
	if err := r.reconcileStalePayments(ctx); err != nil {
		r.logger.Error().Err(err).Msg("payment reconciliation failed")
	}
	if err := r.reconcileInFlightPayouts(ctx); err != nil {
		r.logger.Error().Err(err).Msg("payout reconciliation failed")
	}
}

// reconcileStalePayments settles PENDING payments older than the cutoff.
// Payments with a gateway reference are verified there; payments whose
// checkout was never opened are abandoned outright.
func (r *Reconciler) reconcileStalePayments(ctx context.Context) error {
	uow := r.uowFactory.CreateUnitOfWork()
	cutoff := time.Now().Add(-r.cfg.PendingMaxAge)

	stale, err := uow.PaymentRepository().GetStalePending(ctx, cutoff)
	uow.Close()
	if err != nil {
		return fmt.Errorf("failed to load stale payments: %w", err)
	}

	for _, payment := range stale {
		if payment.PaystackRef() == "" {
			if err := r.abandonPayment(ctx, payment.ID()); err != nil {
				r.logger.Warn().Err(err).Str("payment_id", payment.ID()).Msg("failed to abandon payment")
			}
			continue
		}

		if err := r.verifyPayments.Handle(ctx, &command.VerifyPaymentCommand{Reference: payment.PaystackRef()}); err != nil {
			r.logger.Warn().Err(err).
				Str("payment_id", payment.ID()).
				Str("reference", payment.PaystackRef()).
				Msg("failed to reconcile payment")
		}
	}

	if len(stale) > 0 {
		r.logger.Info().Int("count", len(stale)).Msg("reconciled stale pending payments")
	}
	return nil
}

// reconcileInFlightPayouts polls PROCESSING payouts whose transfer webhook
// has not arrived and applies whatever state the gateway reports.
func (r *Reconciler) reconcileInFlightPayouts(ctx context.Context) error {
	uow := r.uowFactory.CreateUnitOfWork()

	inFlight, err := uow.PayoutRepository().GetByStatus(ctx, aggregate.PayoutStatusProcessing)
	uow.Close()
	if err != nil {
		return fmt.Errorf("failed to load in-flight payouts: %w", err)
	}

	for _, payout := range inFlight {
		if payout.TransferCode() == "" {
			continue
		}

		data, err := r.gateway.FetchTransfer(ctx, payout.TransferCode())
		if err != nil {
			r.logger.Warn().Err(err).
				Str("payout_id", payout.ID()).
				Str("transfer_code", payout.TransferCode()).
				Msg("failed to fetch transfer")
			continue
		}
		if data.Status == paystack.TransferPending {
			continue
		}

		if err := r.settleTransfers.Handle(ctx, &command.SettleTransferCommand{
			TransferCode: payout.TransferCode(),
			Status:       data.Status,
			Reason:       data.Reason,
		}); err != nil {
			r.logger.Warn().Err(err).
				Str("payout_id", payout.ID()).
				Str("status", data.Status).
				Msg("failed to settle transfer")
		}
	}

	return nil
}

func (r *Reconciler) abandonPayment(ctx context.Context, paymentID string) error {
	uow := r.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	paymentRepo := uow.PaymentRepository()
	payment, err := paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		uow.Rollback(ctx)
		return fmt.Errorf("failed to load payment: %w", err)
	}
	if payment.Status() != aggregate.PaymentStatusPending {
		uow.Rollback(ctx)
		return nil
	}

	if err := payment.MarkAbandoned(); err != nil {
		uow.Rollback(ctx)
		return err
	}
	metrics.IncPaymentTransition(string(aggregate.PaymentStatusPending), string(payment.Status()))

	events := payment.GetUncommittedEvents()

	if err := paymentRepo.Save(ctx, payment); err != nil {
		uow.Rollback(ctx)
		return fmt.Errorf("failed to save payment: %w", err)
	}
	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.eventBus.PublishBatch(ctx, events)
	return nil
}
