package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/khanzele16/berri-market-backend/internal/cart"
	"github.com/khanzele16/berri-market-backend/internal/order"
	"github.com/khanzele16/berri-market-backend/internal/user"
	"github.com/khanzele16/berri-market-backend/internal/yookassa"
)

type fakeCarts struct {
	items   []cart.CartItem
	cleared bool
}

func (f *fakeCarts) GetCart(userID int) ([]cart.CartItem, error) { return f.items, nil }

func (f *fakeCarts) ClearCart(userID int) error {
	f.cleared = true
	return nil
}

type fakeGateway struct {
	params  []yookassa.CreatePaymentParams
	failure error
}

func (f *fakeGateway) CreatePayment(ctx context.Context, params yookassa.CreatePaymentParams) (yookassa.Payment, error) {
	f.params = append(f.params, params)
	if f.failure != nil {
		return yookassa.Payment{}, f.failure
	}
	return yookassa.Payment{
		ID:     "pay-1",
		Status: "pending",
		Confirmation: &yookassa.Confirmation{
			Type:            "redirect",
			ConfirmationURL: "https://pay.example/confirm",
		},
	}, nil
}

type fakeOrders struct {
	order.Repository
	created []order.Order
}

func (f *fakeOrders) Create(o order.Order) (order.Order, error) {
	o.ID = len(f.created) + 1
	f.created = append(f.created, o)
	return o, nil
}

func buyer() user.User {
	return user.User{ID: 7, TelegramID: 424242, Role: user.RoleBuyer}
}

func twoSellerCart() []cart.CartItem {
	return []cart.CartItem{
		{ProductID: 10, SellerID: 100, Name: "Berry jam", Price: 300, Quantity: 2},
		{ProductID: 11, SellerID: 200, Name: "Honey", Price: 400, Quantity: 1},
	}
}

func TestCheckout_CreatesPendingOrder(t *testing.T) {
	carts := &fakeCarts{items: twoSellerCart()}
	gateway := &fakeGateway{}
	orders := &fakeOrders{}
	svc := NewService(carts, orders, gateway, Config{ReturnURL: "https://t.me/bot"})

	created, err := svc.Checkout(context.Background(), buyer())
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if created.TotalAmount != 1000 {
		t.Errorf("expected total 1000, got %v", created.TotalAmount)
	}
	if created.CommissionAmount != 100 || created.SellerAmount != 900 {
		t.Errorf("unexpected commission split: %v / %v", created.CommissionAmount, created.SellerAmount)
	}
	if created.Status != order.StatusPending || created.PaymentStatus != order.PaymentStatusPending {
		t.Errorf("expected pending order, got %s/%s", created.Status, created.PaymentStatus)
	}
	if created.PaymentID != "pay-1" || created.PaymentURL != "https://pay.example/confirm" {
		t.Errorf("payment not attached: %+v", created)
	}
	if len(created.Items) != 2 || created.Items[0].SellerID != 100 {
		t.Errorf("item snapshot missing seller ids: %+v", created.Items)
	}
	if !strings.HasPrefix(created.OrderNumber, "ORD-") || !strings.HasSuffix(created.OrderNumber, "-424242") {
		t.Errorf("unexpected order number %q", created.OrderNumber)
	}
	if !carts.cleared {
		t.Error("expected cart cleared after checkout")
	}

	if len(gateway.params) != 1 {
		t.Fatalf("expected one payment, got %d", len(gateway.params))
	}
	p := gateway.params[0]
	if p.Amount.Value != "1000.00" || p.Amount.Currency != "RUB" {
		t.Errorf("unexpected payment amount: %+v", p.Amount)
	}
	if !p.Capture || p.Metadata["orderNumber"] != created.OrderNumber {
		t.Errorf("unexpected payment params: %+v", p)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc := NewService(&fakeCarts{}, &fakeOrders{}, &fakeGateway{}, Config{})

	_, err := svc.Checkout(context.Background(), buyer())
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckout_BelowMinimum(t *testing.T) {
	carts := &fakeCarts{items: []cart.CartItem{{ProductID: 1, SellerID: 100, Name: "Sticker", Price: 20, Quantity: 1}}}
	gateway := &fakeGateway{}
	orders := &fakeOrders{}
	svc := NewService(carts, orders, gateway, Config{})

	_, err := svc.Checkout(context.Background(), buyer())
	if !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum, got %v", err)
	}
	if len(gateway.params) != 0 || len(orders.created) != 0 {
		t.Error("no payment or order may exist for an under-minimum cart")
	}
	if carts.cleared {
		t.Error("cart must survive a failed checkout")
	}
}

func TestCheckout_GatewayFailureKeepsCart(t *testing.T) {
	carts := &fakeCarts{items: twoSellerCart()}
	gateway := &fakeGateway{failure: errors.New("gateway down")}
	orders := &fakeOrders{}
	svc := NewService(carts, orders, gateway, Config{})

	_, err := svc.Checkout(context.Background(), buyer())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(orders.created) != 0 {
		t.Error("no order may be created when payment creation fails")
	}
	if carts.cleared {
		t.Error("cart must survive a failed checkout")
	}
}

func TestCheckout_CommissionRounding(t *testing.T) {
	carts := &fakeCarts{items: []cart.CartItem{{ProductID: 1, SellerID: 100, Name: "Jam", Price: 33.33, Quantity: 3}}}
	orders := &fakeOrders{}
	svc := NewService(carts, orders, &fakeGateway{}, Config{})
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	created, err := svc.Checkout(context.Background(), buyer())
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	// 10% of 99.99 is 9.999, rounded to 10
	if created.CommissionAmount != 10 {
		t.Errorf("expected commission 10, got %v", created.CommissionAmount)
	}
	if created.OrderNumber != "ORD-1700000000000-424242" {
		t.Errorf("unexpected order number %q", created.OrderNumber)
	}
}
