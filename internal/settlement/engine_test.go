package settlement

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/khanzele16/berri-market-backend/internal/events"
	"github.com/khanzele16/berri-market-backend/internal/order"
	"github.com/khanzele16/berri-market-backend/internal/shop"
	"github.com/khanzele16/berri-market-backend/internal/user"
	"github.com/khanzele16/berri-market-backend/internal/yookassa"
)

// in-memory repo with the same claim semantics as the postgres one:
// the paid->processing transition is a compare-and-swap.
type fakeOrders struct {
	mu     sync.Mutex
	orders map[int]order.Order
}

func newFakeOrders(orders ...order.Order) *fakeOrders {
	m := make(map[int]order.Order)
	for _, o := range orders {
		m[o.ID] = o
	}
	return &fakeOrders{orders: m}
}

func (f *fakeOrders) Create(o order.Order) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.ID = len(f.orders) + 1
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeOrders) GetByID(id int) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) GetByPaymentID(paymentID string) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.PaymentID == paymentID {
			return o, nil
		}
	}
	return order.Order{}, order.ErrNotFound
}

func (f *fakeOrders) ListByBuyerID(buyerID int) ([]order.Order, error) { return nil, nil }

func (f *fakeOrders) ListAwaitingApproval() ([]order.Order, error) { return nil, nil }

func (f *fakeOrders) MarkPaid(id int, at time.Time) error { return nil }

func (f *fakeOrders) SetPaymentStatus(id int, status string, at time.Time) error { return nil }

func (f *fakeOrders) ClaimForSettlement(id int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	if o.Status != order.StatusPaid || o.Decided() {
		return order.ErrAlreadyDecided
	}
	o.Status = order.StatusProcessing
	f.orders[id] = o
	return nil
}

func (f *fakeOrders) CompleteSettlement(id int, adminID int, payoutID string, at time.Time) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != order.StatusProcessing {
		return order.Order{}, order.ErrNotFound
	}
	o.AdminApproved = true
	o.ApprovedAt = &at
	o.ApprovedBy = &adminID
	o.PayoutID = payoutID
	o.PayoutStatus = order.PayoutStatusSucceeded
	o.Status = order.StatusCompleted
	o.CompletedAt = &at
	f.orders[id] = o
	return o, nil
}

func (f *fakeOrders) Reject(id int, adminID int, reason string, at time.Time) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	if o.Decided() || o.Status == order.StatusProcessing {
		return order.Order{}, order.ErrAlreadyDecided
	}
	o.RejectedAt = &at
	o.ApprovedBy = &adminID
	o.RejectionReason = reason
	o.Status = order.StatusCancelled
	f.orders[id] = o
	return o, nil
}

type fakeUsers struct {
	users map[int]user.User
}

func (f *fakeUsers) GetByID(id int) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

type fakeShops struct {
	mu    sync.Mutex
	shops map[int]shop.Shop
	sales []float64
}

func (f *fakeShops) GetByID(id int) (shop.Shop, error) {
	s, ok := f.shops[id]
	if !ok {
		return shop.Shop{}, shop.ErrNotFound
	}
	return s, nil
}

func (f *fakeShops) RecordSale(id int, amount float64, now string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sales = append(f.sales, amount)
	return nil
}

type payoutCall struct {
	amount string
	card   string
}

type fakeGateway struct {
	mu       sync.Mutex
	calls    []payoutCall
	failCard string
	next     int
}

func (f *fakeGateway) CreatePayout(ctx context.Context, amount, cardNumber, description string) (yookassa.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, payoutCall{amount: amount, card: cardNumber})
	if cardNumber == f.failCard {
		return yookassa.Payout{}, fmt.Errorf("card declined")
	}
	f.next++
	return yookassa.Payout{ID: fmt.Sprintf("po-%d", f.next), Status: "succeeded"}, nil
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.SettlementEvent
}

func (f *fakePublisher) Publish(ctx context.Context, event events.SettlementEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func intPtr(v int) *int { return &v }

func paidOrder() order.Order {
	return order.Order{
		ID:          1,
		OrderNumber: "ORD-1700000000000-42",
		BuyerID:     7,
		Items: []order.Item{
			{ProductID: 10, SellerID: 100, Name: "Berry jam", Price: 300, Quantity: 2},
			{ProductID: 11, SellerID: 200, Name: "Honey", Price: 400, Quantity: 1},
		},
		TotalAmount:   1000,
		Status:        order.StatusPaid,
		PaymentStatus: order.PaymentStatusSucceeded,
		PayoutStatus:  order.PayoutStatusPending,
	}
}

func testDirectories() (*fakeUsers, *fakeShops) {
	users := &fakeUsers{users: map[int]user.User{
		100: {ID: 100, TelegramID: 1100, Role: user.RoleSeller, ShopID: intPtr(1)},
		200: {ID: 200, TelegramID: 1200, Role: user.RoleSeller, ShopID: intPtr(2)},
	}}
	shops := &fakeShops{shops: map[int]shop.Shop{
		1: {ID: 1, OwnerID: 100, CardNumber: "4111111111111111"},
		2: {ID: 2, OwnerID: 200, CardNumber: "5555555555554444"},
	}}
	return users, shops
}

func TestApprove_PaysEachSellerTheirShare(t *testing.T) {
	orders := newFakeOrders(paidOrder())
	users, shops := testDirectories()
	gateway := &fakeGateway{}
	publisher := &fakePublisher{}
	engine := NewEngine(orders, users, shops, gateway, publisher, nil, Config{})

	updated, results, err := engine.Approve(context.Background(), 1, 9)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if gateway.callCount() != 2 {
		t.Fatalf("expected 2 gateway calls, got %d", gateway.callCount())
	}
	// seller 100 grossed 600, seller 200 grossed 400; each keeps 90%
	if gateway.calls[0].amount != "540" || gateway.calls[1].amount != "360" {
		t.Errorf("unexpected payout amounts: %s, %s", gateway.calls[0].amount, gateway.calls[1].amount)
	}
	if gateway.calls[0].card != "4111111111111111" {
		t.Errorf("unexpected card for first seller: %s", gateway.calls[0].card)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].PayoutID == "" || results[1].PayoutID == "" {
		t.Errorf("expected payout ids in results: %+v", results)
	}

	if !updated.AdminApproved || updated.Status != order.StatusCompleted {
		t.Errorf("order not completed: %+v", updated)
	}
	if updated.PayoutStatus != order.PayoutStatusSucceeded {
		t.Errorf("expected payoutStatus succeeded, got %s", updated.PayoutStatus)
	}
	if updated.PayoutID != results[0].PayoutID {
		t.Errorf("expected first payout id %s saved on order, got %s", results[0].PayoutID, updated.PayoutID)
	}

	if len(publisher.events) != 1 || publisher.events[0].Type != events.TypeSettlementApproved {
		t.Errorf("expected one approved event, got %+v", publisher.events)
	}
	if len(shops.sales) != 2 {
		t.Errorf("expected 2 recorded sales, got %d", len(shops.sales))
	}
}

func TestApprove_RoundsGroupSum(t *testing.T) {
	ord := paidOrder()
	ord.Items = []order.Item{
		{ProductID: 10, SellerID: 100, Name: "Sticker", Price: 33.33, Quantity: 1},
		{ProductID: 11, SellerID: 100, Name: "Pin", Price: 21.67, Quantity: 1},
	}
	orders := newFakeOrders(ord)
	users, shops := testDirectories()
	gateway := &fakeGateway{}
	engine := NewEngine(orders, users, shops, gateway, nil, nil, Config{})

	_, _, err := engine.Approve(context.Background(), 1, 9)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	// 0.9 * 55.00 = 49.5, rounded half away from zero
	if gateway.callCount() != 1 || gateway.calls[0].amount != "50" {
		t.Fatalf("expected single payout of 50, got %+v", gateway.calls)
	}
}

func TestApprove_AlreadyDecided(t *testing.T) {
	ord := paidOrder()
	ord.AdminApproved = true
	ord.Status = order.StatusCompleted
	orders := newFakeOrders(ord)
	users, shops := testDirectories()
	gateway := &fakeGateway{}
	engine := NewEngine(orders, users, shops, gateway, nil, nil, Config{})

	_, _, err := engine.Approve(context.Background(), 1, 9)
	if err != order.ErrAlreadyDecided {
		t.Fatalf("expected ErrAlreadyDecided, got %v", err)
	}
	if gateway.callCount() != 0 {
		t.Fatalf("expected no gateway calls, got %d", gateway.callCount())
	}
}

func TestApprove_NotPaid(t *testing.T) {
	ord := paidOrder()
	ord.Status = order.StatusPending
	ord.PaymentStatus = order.PaymentStatusPending
	orders := newFakeOrders(ord)
	users, shops := testDirectories()
	gateway := &fakeGateway{}
	engine := NewEngine(orders, users, shops, gateway, nil, nil, Config{})

	_, _, err := engine.Approve(context.Background(), 1, 9)
	if err != order.ErrNotPaid {
		t.Fatalf("expected ErrNotPaid, got %v", err)
	}
	if gateway.callCount() != 0 {
		t.Fatalf("expected no gateway calls, got %d", gateway.callCount())
	}
}

func TestApprove_NotFound(t *testing.T) {
	orders := newFakeOrders()
	users, shops := testDirectories()
	engine := NewEngine(orders, users, shops, &fakeGateway{}, nil, nil, Config{})

	_, _, err := engine.Approve(context.Background(), 404, 9)
	if err != order.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApprove_OneFailureDoesNotBlockSiblings(t *testing.T) {
	orders := newFakeOrders(paidOrder())
	users, shops := testDirectories()
	gateway := &fakeGateway{failCard: "4111111111111111"}
	engine := NewEngine(orders, users, shops, gateway, nil, nil, Config{})

	updated, results, err := engine.Approve(context.Background(), 1, 9)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if gateway.callCount() != 2 {
		t.Fatalf("expected both sellers attempted, got %d calls", gateway.callCount())
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Error == "" {
		t.Errorf("expected error for first seller, got %+v", results[0])
	}
	if results[1].PayoutID == "" || results[1].Error != "" {
		t.Errorf("expected clean payout for second seller, got %+v", results[1])
	}

	// partial failure still commits the approval; saved id is the first
	// successful payout
	if !updated.AdminApproved || updated.PayoutStatus != order.PayoutStatusSucceeded {
		t.Errorf("approval not committed: %+v", updated)
	}
	if updated.PayoutID != results[1].PayoutID {
		t.Errorf("expected payout id %s, got %s", results[1].PayoutID, updated.PayoutID)
	}
}

func TestApprove_SellerWithoutShopFailsOnlyThatGroup(t *testing.T) {
	orders := newFakeOrders(paidOrder())
	users, shops := testDirectories()
	users.users[100] = user.User{ID: 100, Role: user.RoleSeller} // no shop attached
	gateway := &fakeGateway{}
	engine := NewEngine(orders, users, shops, gateway, nil, nil, Config{})

	_, results, err := engine.Approve(context.Background(), 1, 9)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if gateway.callCount() != 1 {
		t.Fatalf("expected one gateway call, got %d", gateway.callCount())
	}
	if results[0].Error == "" || results[1].Error != "" {
		t.Errorf("unexpected results: %+v", results)
	}
}

// hangingGateway blocks on the configured card until the per-call
// context expires.
type hangingGateway struct {
	fakeGateway
	hangCard string
}

func (g *hangingGateway) CreatePayout(ctx context.Context, amount, cardNumber, description string) (yookassa.Payout, error) {
	if cardNumber == g.hangCard {
		<-ctx.Done()
		return yookassa.Payout{}, ctx.Err()
	}
	return g.fakeGateway.CreatePayout(ctx, amount, cardNumber, description)
}

func TestApprove_PayoutTimeoutIsPerSellerFailure(t *testing.T) {
	orders := newFakeOrders(paidOrder())
	users, shops := testDirectories()
	gateway := &hangingGateway{hangCard: "4111111111111111"}
	engine := NewEngine(orders, users, shops, gateway, nil, nil, Config{PayoutTimeout: 20 * time.Millisecond})

	updated, results, err := engine.Approve(context.Background(), 1, 9)
	if err != nil {
		t.Fatalf("a hung gateway call must not fail the approval: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !strings.Contains(results[0].Error, "deadline") {
		t.Errorf("expected a timeout error for the hung seller, got %+v", results[0])
	}
	if results[1].PayoutID == "" || results[1].Error != "" {
		t.Errorf("sibling seller must still be paid: %+v", results[1])
	}
	if !updated.AdminApproved || updated.Status != order.StatusCompleted {
		t.Errorf("approval must still commit after a timeout: %+v", updated)
	}
}

func TestApprove_SkipsMalformedItems(t *testing.T) {
	ord := paidOrder()
	ord.Items = append(ord.Items, order.Item{ProductID: 12, SellerID: 0, Price: 50, Quantity: 1})
	orders := newFakeOrders(ord)
	users, shops := testDirectories()
	gateway := &fakeGateway{}
	engine := NewEngine(orders, users, shops, gateway, nil, nil, Config{})

	_, results, err := engine.Approve(context.Background(), 1, 9)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("malformed item should not form a group: %+v", results)
	}
}

func TestApprove_ConcurrentOnlyOnePaysOut(t *testing.T) {
	orders := newFakeOrders(paidOrder())
	users, shops := testDirectories()
	gateway := &fakeGateway{}
	engine := NewEngine(orders, users, shops, gateway, nil, nil, Config{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = engine.Approve(context.Background(), 1, 9)
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch err {
		case nil:
			won++
		case order.ErrAlreadyDecided:
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("expected exactly one winner, got won=%d lost=%d", won, lost)
	}
	if gateway.callCount() != 2 {
		t.Fatalf("expected one payout per seller in total, got %d", gateway.callCount())
	}
}

func TestReject_CancelsWithoutPayouts(t *testing.T) {
	orders := newFakeOrders(paidOrder())
	users, shops := testDirectories()
	gateway := &fakeGateway{}
	publisher := &fakePublisher{}
	engine := NewEngine(orders, users, shops, gateway, publisher, nil, Config{})

	updated, err := engine.Reject(context.Background(), 1, 9, "item out of stock")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if updated.Status != order.StatusCancelled {
		t.Errorf("expected cancelled, got %s", updated.Status)
	}
	if updated.RejectionReason != "item out of stock" || updated.RejectedAt == nil {
		t.Errorf("rejection not recorded: %+v", updated)
	}
	if gateway.callCount() != 0 {
		t.Fatalf("reject must not issue payouts, got %d calls", gateway.callCount())
	}
	if len(publisher.events) != 1 || publisher.events[0].Type != events.TypeSettlementRejected {
		t.Errorf("expected one rejected event, got %+v", publisher.events)
	}
	if publisher.events[0].Reason != "item out of stock" {
		t.Errorf("event missing reason: %+v", publisher.events[0])
	}
}

func TestReject_AfterApproveConflicts(t *testing.T) {
	orders := newFakeOrders(paidOrder())
	users, shops := testDirectories()
	engine := NewEngine(orders, users, shops, &fakeGateway{}, nil, nil, Config{})

	if _, _, err := engine.Approve(context.Background(), 1, 9); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	_, err := engine.Reject(context.Background(), 1, 9, "changed my mind")
	if err != order.ErrAlreadyDecided {
		t.Fatalf("expected ErrAlreadyDecided, got %v", err)
	}

	ord, _ := orders.GetByID(1)
	if ord.Status != order.StatusCompleted || !ord.AdminApproved {
		t.Errorf("approval outcome must survive a late reject: %+v", ord)
	}
}

func TestApprove_AfterRejectConflicts(t *testing.T) {
	orders := newFakeOrders(paidOrder())
	users, shops := testDirectories()
	gateway := &fakeGateway{}
	engine := NewEngine(orders, users, shops, gateway, nil, nil, Config{})

	if _, err := engine.Reject(context.Background(), 1, 9, "fraud check"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	_, _, err := engine.Approve(context.Background(), 1, 9)
	if err != order.ErrAlreadyDecided {
		t.Fatalf("expected ErrAlreadyDecided, got %v", err)
	}
	if gateway.callCount() != 0 {
		t.Fatalf("expected no payouts after reject, got %d", gateway.callCount())
	}
}
