package order

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrAlreadyDecided protects the exactly-once settlement invariant:
	// an order is approved or rejected at most once, ever.
	ErrAlreadyDecided = errors.New("order already approved or rejected")
	ErrNotPaid        = errors.New("order is not paid")
)

// Repository defines persistence operations for orders.
type Repository interface {
	Create(o Order) (Order, error)
	GetByID(id int) (Order, error)
	GetByPaymentID(paymentID string) (Order, error)
	ListByBuyerID(buyerID int) ([]Order, error)
	// ListAwaitingApproval returns paid, undecided orders for the admin
	// moderation queue, oldest first.
	ListAwaitingApproval() ([]Order, error)

	// MarkPaid records a confirmed buyer payment.
	MarkPaid(id int, at time.Time) error
	// SetPaymentStatus updates only the gateway-side payment state.
	SetPaymentStatus(id int, status string, at time.Time) error

	// ClaimForSettlement conditionally moves a paid, undecided order to
	// processing. It returns ErrAlreadyDecided when another settlement
	// attempt won the claim; the caller must not issue payouts in that
	// case.
	ClaimForSettlement(id int, at time.Time) error
	// CompleteSettlement is the single atomic write recording the
	// approval outcome after all payout attempts finished.
	CompleteSettlement(id int, adminID int, payoutID string, at time.Time) (Order, error)
	// Reject records the admin rejection; conditional on the order being
	// undecided and not mid-settlement.
	Reject(id int, adminID int, reason string, at time.Time) (Order, error)
}
