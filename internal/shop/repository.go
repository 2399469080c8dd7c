package shop

import "errors"

var (
	ErrNotFound    = errors.New("shop not found")
	ErrOwnerExists = errors.New("seller already has a shop")
)

type Repository interface {
	GetByID(id int) (Shop, error)
	GetByOwnerID(ownerID int) (Shop, error)
	Create(s Shop) (Shop, error)
	SetCardNumber(id int, cardNumber string, updatedAt string) (Shop, error)
	SetApproved(id int, approved bool, updatedAt string) (Shop, error)
	// SubmitEdit stores a pending name/description change for moderation.
	SubmitEdit(id int, name, description *string, updatedAt string) (Shop, error)
	// ApplyPendingEdit promotes the pending fields onto the live ones and
	// clears them. Clearing without applying rejects the edit.
	ApplyPendingEdit(id int, apply bool, updatedAt string) (Shop, error)
	// RecordSale bumps the sales counters after a settled order.
	RecordSale(id int, amount float64, updatedAt string) error
}
