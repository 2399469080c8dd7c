package order

import "time"

// Item is a line-item snapshot taken at checkout. Name, price and
// quantity are frozen so later product edits cannot change what a
// historical payout was computed from.
type Item struct {
	ProductID int     `json:"productId"`
	SellerID  int     `json:"sellerId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size,omitempty"`
}

// Total is the item's gross contribution to the order total.
func (i Item) Total() float64 {
	return i.Price * float64(i.Quantity)
}

// Order is a buyer's purchase across one or more sellers.
type Order struct {
	ID          int    `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	BuyerID     int    `json:"buyerId"`
	Items       []Item `json:"items"`

	TotalAmount       float64 `json:"totalAmount"`
	CommissionAmount  float64 `json:"commissionAmount"`
	SellerAmount      float64 `json:"sellerAmount"`
	CommissionPercent int     `json:"commissionPercent"`

	PaymentID     string `json:"paymentId,omitempty"`
	PaymentURL    string `json:"paymentUrl,omitempty"`
	PaymentStatus string `json:"paymentStatus"`

	Status string `json:"status"`

	AdminApproved   bool       `json:"adminApproved"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	ApprovedBy      *int       `json:"approvedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`

	PayoutID     string `json:"payoutId,omitempty"`
	PayoutStatus string `json:"payoutStatus"`

	PaidAt      *time.Time `json:"paidAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

const (
	StatusPending    = "pending"
	StatusPaid       = "paid"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

const (
	PaymentStatusPending           = "pending"
	PaymentStatusWaitingForCapture = "waiting_for_capture"
	PaymentStatusSucceeded         = "succeeded"
	PaymentStatusCanceled          = "canceled"
)

const (
	PayoutStatusPending   = "pending"
	PayoutStatusSucceeded = "succeeded"
	PayoutStatusCanceled  = "canceled"
)

// Decided reports whether an administrator has already approved or
// rejected the order. A decision happens exactly once.
func (o Order) Decided() bool {
	return o.AdminApproved || o.RejectedAt != nil
}
