package aggregate

// Declared transition tables. Every status mutation on the booking, payment
// and payout aggregates is checked against these before it is applied.

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:              {BookingStatusWaitingForProvider, BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusWaitingForProvider:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed:            {BookingStatusPendingExecution, BookingStatusInProgress, BookingStatusCancelled},
	BookingStatusPendingExecution:     {BookingStatusInProgress, BookingStatusCancelled},
	BookingStatusInProgress:           {BookingStatusAwaitingConfirmation, BookingStatusCancelled},
	BookingStatusAwaitingConfirmation: {BookingStatusPaymentProcessing, BookingStatusCompleted},
	BookingStatusPaymentProcessing:    {BookingStatusCompleted, BookingStatusAwaitingConfirmation},
	BookingStatusCompleted:            {},
	BookingStatusCancelled:            {},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:           {PaymentStatusEscrow, PaymentStatusFailed, PaymentStatusAbandoned, PaymentStatusRefunded},
	PaymentStatusCashPending:       {PaymentStatusCashPaid, PaymentStatusRefunded},
	PaymentStatusCashPaid:          {},
	PaymentStatusEscrow:            {PaymentStatusProcessingRelease, PaymentStatusRefunded},
	PaymentStatusProcessingRelease: {PaymentStatusReleased, PaymentStatusEscrow, PaymentStatusFailed},
	PaymentStatusReleased:          {},
	PaymentStatusFailed:            {},
	PaymentStatusRefunded:          {},
	PaymentStatusAbandoned:         {},
}

var payoutTransitions = map[PayoutStatus][]PayoutStatus{
	PayoutStatusPending:    {PayoutStatusProcessing, PayoutStatusCompleted, PayoutStatusFailed},
	PayoutStatusProcessing: {PayoutStatusCompleted, PayoutStatusFailed},
	PayoutStatusCompleted:  {},
	// Failed payouts may be retried by an admin.
	PayoutStatusFailed: {PayoutStatusProcessing, PayoutStatusCompleted},
}

// CanTransitionBooking reports whether a booking may move from one status to another.
func CanTransitionBooking(from, to BookingStatus) bool {
	for _, allowed := range bookingTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanTransitionPayment reports whether a payment may move from one status to another.
func CanTransitionPayment(from, to PaymentStatus) bool {
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanTransitionPayout reports whether a payout may move from one status to another.
func CanTransitionPayout(from, to PayoutStatus) bool {
	for _, allowed := range payoutTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminalBookingStatus reports whether a booking status admits no further transitions.
func IsTerminalBookingStatus(s BookingStatus) bool {
	return len(bookingTransitions[s]) == 0
}
