package events

import (
	"time"

	"github.com/khanzele16/berri-market-backend/internal/order"
)

const (
	TopicSettlements = "order-settlements"

	TypeSettlementApproved = "settlement.approved"
	TypeSettlementRejected = "settlement.rejected"
)

// PayoutOutcome is the per-seller result carried on a settlement event.
// Either PayoutID/Status or Error is set.
type PayoutOutcome struct {
	SellerID int     `json:"sellerId"`
	Amount   float64 `json:"amount"`
	PayoutID string  `json:"payoutId,omitempty"`
	Status   string  `json:"status,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// SettlementEvent is published after a settlement decision commits. The
// notifier consumes it to inform the buyer and every affected seller.
type SettlementEvent struct {
	EventID   string          `json:"event_id"`
	Type      string          `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
	Order     order.Order     `json:"order"`
	Payouts   []PayoutOutcome `json:"payouts,omitempty"`
	Reason    string          `json:"reason,omitempty"`
}
