package settlement

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/khanzele16/berri-market-backend/internal/events"
	"github.com/khanzele16/berri-market-backend/internal/metrics"
	"github.com/khanzele16/berri-market-backend/internal/order"
	"github.com/khanzele16/berri-market-backend/internal/shop"
	"github.com/khanzele16/berri-market-backend/internal/user"
	"github.com/khanzele16/berri-market-backend/internal/yookassa"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "settlement").Logger()

// Gateway is the payout side of the payment provider.
type Gateway interface {
	CreatePayout(ctx context.Context, amount, cardNumber, description string) (yookassa.Payout, error)
}

// UserDirectory resolves sellers referenced by order items.
type UserDirectory interface {
	GetByID(id int) (user.User, error)
}

// ShopDirectory resolves payout destinations and keeps sales counters.
type ShopDirectory interface {
	GetByID(id int) (shop.Shop, error)
	RecordSale(id int, amount float64, now string) error
}

// Publisher emits settlement events after the decision has committed.
type Publisher interface {
	Publish(ctx context.Context, event events.SettlementEvent) error
}

// PayoutResult is the outcome for one seller group. Exactly one of
// PayoutID/Status or Error is populated.
type PayoutResult struct {
	SellerID int     `json:"sellerId"`
	Amount   float64 `json:"amount"`
	PayoutID string  `json:"payoutId,omitempty"`
	Status   string  `json:"status,omitempty"`
	Error    string  `json:"error,omitempty"`
}

type Config struct {
	// SellerShare is the fraction of a seller group's gross that is paid
	// out; the remainder is the platform commission.
	SellerShare float64
	// PayoutTimeout bounds each gateway call. A timeout is a per-seller
	// failure, not an engine failure.
	PayoutTimeout time.Duration
}

const (
	DefaultSellerShare   = 0.90
	DefaultPayoutTimeout = 30 * time.Second
)

// Engine approves or rejects paid orders and fans payouts out across
// the sellers involved.
type Engine struct {
	orders    order.Repository
	users     UserDirectory
	shops     ShopDirectory
	gateway   Gateway
	publisher Publisher
	metrics   *metrics.SettlementMetrics
	cfg       Config
	now       func() time.Time
}

func NewEngine(orders order.Repository, users UserDirectory, shops ShopDirectory, gateway Gateway, publisher Publisher, m *metrics.SettlementMetrics, cfg Config) *Engine {
	if cfg.SellerShare <= 0 || cfg.SellerShare > 1 {
		cfg.SellerShare = DefaultSellerShare
	}
	if cfg.PayoutTimeout <= 0 {
		cfg.PayoutTimeout = DefaultPayoutTimeout
	}
	return &Engine{
		orders:    orders,
		users:     users,
		shops:     shops,
		gateway:   gateway,
		publisher: publisher,
		metrics:   m,
		cfg:       cfg,
		now:       time.Now,
	}
}

type sellerGroup struct {
	sellerID int
	items    []order.Item
	gross    float64
}

// Approve settles a paid order: it claims the order, pays each seller
// their share, and commits the outcome in a single write. Gateway
// failures are returned as data in the result list, never as an error.
func (e *Engine) Approve(ctx context.Context, orderID int, adminID int) (order.Order, []PayoutResult, error) {
	ord, err := e.orders.GetByID(orderID)
	if err != nil {
		return order.Order{}, nil, err
	}
	if ord.Decided() || ord.Status == order.StatusProcessing {
		return order.Order{}, nil, order.ErrAlreadyDecided
	}
	if ord.Status != order.StatusPaid {
		return order.Order{}, nil, order.ErrNotPaid
	}

	// The claim is the compare-and-swap that makes concurrent approvals
	// safe: the loser gets ErrAlreadyDecided here, before any payout.
	if err := e.orders.ClaimForSettlement(ord.ID, e.now()); err != nil {
		return order.Order{}, nil, err
	}

	// Once claimed, settlement runs to completion. Partial payouts
	// cannot be undone, so the caller's cancellation no longer applies.
	ctx = context.WithoutCancel(ctx)

	groups := groupBySeller(ord)
	results := make([]PayoutResult, 0, len(groups))
	firstPayoutID := ""

	for _, g := range groups {
		amount := math.Round(g.gross * e.cfg.SellerShare)
		res := e.payOut(ctx, ord, g, amount)
		if res.Error == "" && firstPayoutID == "" {
			firstPayoutID = res.PayoutID
		}
		results = append(results, res)
	}

	updated, err := e.orders.CompleteSettlement(ord.ID, adminID, firstPayoutID, e.now())
	if err != nil {
		logger.Error().Err(err).Int("order_id", ord.ID).Msg("failed to commit settlement outcome")
		return order.Order{}, results, err
	}

	e.countDecision("approved")
	e.publish(ctx, events.SettlementEvent{
		EventID:   uuid.NewString(),
		Type:      events.TypeSettlementApproved,
		CreatedAt: e.now(),
		Order:     updated,
		Payouts:   toOutcomes(results),
	})

	return updated, results, nil
}

// Reject cancels an undecided order. No payouts are issued.
func (e *Engine) Reject(ctx context.Context, orderID int, adminID int, reason string) (order.Order, error) {
	ord, err := e.orders.GetByID(orderID)
	if err != nil {
		return order.Order{}, err
	}
	if ord.Decided() || ord.Status == order.StatusProcessing {
		return order.Order{}, order.ErrAlreadyDecided
	}

	updated, err := e.orders.Reject(ord.ID, adminID, reason, e.now())
	if err != nil {
		return order.Order{}, err
	}

	e.countDecision("rejected")
	e.publish(ctx, events.SettlementEvent{
		EventID:   uuid.NewString(),
		Type:      events.TypeSettlementRejected,
		CreatedAt: e.now(),
		Order:     updated,
		Reason:    reason,
	})

	return updated, nil
}

// payOut resolves one seller's payout destination and issues a single
// gateway call. Every failure mode becomes a result entry so sibling
// sellers are never blocked.
func (e *Engine) payOut(ctx context.Context, ord order.Order, g sellerGroup, amount float64) PayoutResult {
	res := PayoutResult{SellerID: g.sellerID, Amount: amount}

	seller, err := e.users.GetByID(g.sellerID)
	if err != nil {
		return e.fail(res, fmt.Sprintf("seller %d not found", g.sellerID))
	}
	if seller.ShopID == nil {
		return e.fail(res, fmt.Sprintf("seller %d has no shop", g.sellerID))
	}
	sellerShop, err := e.shops.GetByID(*seller.ShopID)
	if err != nil {
		return e.fail(res, fmt.Sprintf("shop %d not found", *seller.ShopID))
	}
	if sellerShop.CardNumber == "" {
		return e.fail(res, fmt.Sprintf("shop %d has no card number", sellerShop.ID))
	}

	names := make([]string, 0, len(g.items))
	for _, item := range g.items {
		names = append(names, item.Name)
	}
	description := fmt.Sprintf("Payout for order %s: %s", ord.OrderNumber, strings.Join(names, ", "))

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.PayoutTimeout)
	payout, err := e.gateway.CreatePayout(callCtx, formatAmount(amount), sellerShop.CardNumber, description)
	cancel()
	if err != nil {
		logger.Error().Err(err).Int("seller_id", g.sellerID).Str("order", ord.OrderNumber).Msg("payout failed")
		return e.fail(res, err.Error())
	}

	if err := e.shops.RecordSale(sellerShop.ID, amount, e.now().UTC().Format(time.RFC3339)); err != nil {
		// bookkeeping only; the payout itself went through
		logger.Warn().Err(err).Int("shop_id", sellerShop.ID).Msg("could not record sale")
	}

	res.PayoutID = payout.ID
	res.Status = payout.Status
	e.countPayout("success")
	return res
}

func (e *Engine) fail(res PayoutResult, msg string) PayoutResult {
	res.Error = msg
	e.countPayout("failure")
	return res
}

// groupBySeller partitions order items by seller in first-seen order.
// Malformed items are logged and skipped; checkout validation makes them
// unreachable for new orders, but rows written before validation existed
// can still carry them.
func groupBySeller(ord order.Order) []sellerGroup {
	index := make(map[int]int)
	groups := make([]sellerGroup, 0)
	for _, item := range ord.Items {
		if item.SellerID == 0 || item.Price <= 0 || item.Quantity <= 0 {
			logger.Warn().Str("order", ord.OrderNumber).Int("product_id", item.ProductID).Msg("skipping malformed order item")
			continue
		}
		i, ok := index[item.SellerID]
		if !ok {
			i = len(groups)
			index[item.SellerID] = i
			groups = append(groups, sellerGroup{sellerID: item.SellerID})
		}
		groups[i].items = append(groups[i].items, item)
		groups[i].gross += item.Total()
	}
	return groups
}

func (e *Engine) publish(ctx context.Context, event events.SettlementEvent) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		logger.Error().Err(err).Str("event", event.Type).Int("order_id", event.Order.ID).Msg("failed to publish settlement event")
	}
}

func (e *Engine) countDecision(outcome string) {
	if e.metrics != nil {
		e.metrics.Settlements.WithLabelValues(outcome).Inc()
	}
}

func (e *Engine) countPayout(result string) {
	if e.metrics != nil {
		e.metrics.Payouts.WithLabelValues(result).Inc()
	}
}

func toOutcomes(results []PayoutResult) []events.PayoutOutcome {
	outcomes := make([]events.PayoutOutcome, 0, len(results))
	for _, r := range results {
		outcomes = append(outcomes, events.PayoutOutcome{
			SellerID: r.SellerID,
			Amount:   r.Amount,
			PayoutID: r.PayoutID,
			Status:   r.Status,
			Error:    r.Error,
		})
	}
	return outcomes
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
