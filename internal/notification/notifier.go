package notification

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/khanzele16/berri-market-backend/internal/events"
	"github.com/khanzele16/berri-market-backend/internal/order"
	"github.com/khanzele16/berri-market-backend/internal/user"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "notifier").Logger()

// UserDirectory resolves buyer and seller Telegram chats.
type UserDirectory interface {
	GetByID(id int) (user.User, error)
}

// Notifier turns settlement events into buyer and seller messages.
// Delivery is best-effort: a failed send never affects settlement state
// and never blocks the remaining recipients.
type Notifier struct {
	users       UserDirectory
	sender      Sender
	sellerShare float64
}

func NewNotifier(users UserDirectory, sender Sender, sellerShare float64) *Notifier {
	if sellerShare <= 0 || sellerShare > 1 {
		sellerShare = 0.90
	}
	return &Notifier{users: users, sender: sender, sellerShare: sellerShare}
}

func (n *Notifier) Handle(ctx context.Context, event events.SettlementEvent) {
	switch event.Type {
	case events.TypeSettlementApproved:
		n.notifyApproved(ctx, event)
	case events.TypeSettlementRejected:
		n.notifyRejected(ctx, event)
	default:
		logger.Info().Str("type", event.Type).Msg("ignoring settlement event")
	}
}

func (n *Notifier) notifyApproved(ctx context.Context, event events.SettlementEvent) {
	ord := event.Order

	buyerText := fmt.Sprintf(
		"✅ <b>Your order has been approved!</b>\n\n"+
			"💳 Order: %s\n"+
			"💰 Total: %v ₽\n\n"+
			"📦 The sellers have been paid and will contact you about handover.",
		ord.OrderNumber, ord.TotalAmount)
	n.sendToUser(ctx, ord.BuyerID, buyerText)

	failed := failedPayouts(event)
	for _, item := range ord.Items {
		if item.SellerID == 0 {
			continue
		}
		amount := math.Round(item.Total() * n.sellerShare)
		var text string
		if failed[item.SellerID] {
			text = fmt.Sprintf(
				"⚠️ <b>ORDER APPROVED, PAYOUT PENDING</b>\n\n"+
					"💳 Order: %s\n"+
					"📦 Item: %s\n"+
					"💸 Payout amount: %v ₽\n\n"+
					"We could not send the payout to your card. The administrator will settle it manually.\n"+
					"📞 Please contact the buyer to hand over the item.",
				ord.OrderNumber, item.Name, amount)
		} else {
			text = fmt.Sprintf(
				"💰 <b>PAYOUT APPROVED!</b>\n\n"+
					"💳 Order: %s\n"+
					"📦 Item: %s\n"+
					"💸 Payout amount: %v ₽\n\n"+
					"✅ The money has been sent to your card.\n"+
					"📞 Please contact the buyer to hand over the item.",
				ord.OrderNumber, item.Name, amount)
		}
		n.sendToUser(ctx, item.SellerID, text)
	}
}

// failedPayouts indexes the sellers whose payout did not go through so
// their message does not claim the money was sent.
func failedPayouts(event events.SettlementEvent) map[int]bool {
	failed := make(map[int]bool)
	for _, p := range event.Payouts {
		if p.Error != "" {
			failed[p.SellerID] = true
		}
	}
	return failed
}

func (n *Notifier) notifyRejected(ctx context.Context, event events.SettlementEvent) {
	ord := event.Order

	buyerText := fmt.Sprintf(
		"❌ <b>Your order was rejected</b>\n\n"+
			"💳 Order: %s\n"+
			"💰 Total: %v ₽\n\n"+
			"📝 Reason: %s\n\n"+
			"💳 The money will be refunded within 5-10 business days.",
		ord.OrderNumber, ord.TotalAmount, event.Reason)
	n.sendToUser(ctx, ord.BuyerID, buyerText)

	for _, sellerID := range sellerIDs(ord) {
		text := fmt.Sprintf(
			"❌ <b>ORDER REJECTED BY ADMINISTRATOR</b>\n\n"+
				"💳 Order: %s\n"+
				"📦 Items: %s\n\n"+
				"📝 Reason: %s\n\n"+
				"No payout will be made.",
			ord.OrderNumber, itemNames(ord, sellerID), event.Reason)
		n.sendToUser(ctx, sellerID, text)
	}
}

func (n *Notifier) sendToUser(ctx context.Context, userID int, text string) {
	u, err := n.users.GetByID(userID)
	if err != nil {
		logger.Warn().Err(err).Int("user_id", userID).Msg("cannot resolve notification recipient")
		return
	}
	if u.TelegramID == 0 {
		return
	}
	if err := n.sender.SendMessage(ctx, u.TelegramID, text); err != nil {
		logger.Warn().Err(err).Int64("chat_id", u.TelegramID).Msg("failed to send notification")
	}
}

func sellerIDs(ord order.Order) []int {
	seen := make(map[int]bool)
	ids := make([]int, 0)
	for _, item := range ord.Items {
		if item.SellerID == 0 || seen[item.SellerID] {
			continue
		}
		seen[item.SellerID] = true
		ids = append(ids, item.SellerID)
	}
	return ids
}

func itemNames(ord order.Order, sellerID int) string {
	names := make([]string, 0)
	for _, item := range ord.Items {
		if item.SellerID == sellerID {
			names = append(names, item.Name)
		}
	}
	return strings.Join(names, ", ")
}
