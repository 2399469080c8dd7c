package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/khanzele16/berri-market-backend/internal/cart"
	"github.com/khanzele16/berri-market-backend/internal/order"
	"github.com/khanzele16/berri-market-backend/internal/user"
	"github.com/khanzele16/berri-market-backend/internal/yookassa"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "checkout").Logger()

var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrBelowMinimum = errors.New("order total is below the payment minimum")
)

type CartService interface {
	GetCart(userID int) ([]cart.CartItem, error)
	ClearCart(userID int) error
}

type PaymentGateway interface {
	CreatePayment(ctx context.Context, params yookassa.CreatePaymentParams) (yookassa.Payment, error)
}

type Config struct {
	// MinAmount is the smallest order total the gateway will accept.
	MinAmount float64
	// CommissionPercent is the platform's checkout-time commission.
	CommissionPercent int
	// ReturnURL is where the gateway redirects the buyer after payment.
	ReturnURL string
}

const (
	DefaultMinAmount         = 60
	DefaultCommissionPercent = 10
)

// Service turns a buyer's cart into a pending order with a gateway
// payment attached.
type Service struct {
	carts   CartService
	orders  order.Repository
	gateway PaymentGateway
	cfg     Config
	now     func() time.Time
}

func NewService(carts CartService, orders order.Repository, gateway PaymentGateway, cfg Config) *Service {
	if cfg.MinAmount <= 0 {
		cfg.MinAmount = DefaultMinAmount
	}
	if cfg.CommissionPercent <= 0 {
		cfg.CommissionPercent = DefaultCommissionPercent
	}
	return &Service{carts: carts, orders: orders, gateway: gateway, cfg: cfg, now: time.Now}
}

// Checkout creates the order and its payment. The cart is cleared only
// after both succeeded.
func (s *Service) Checkout(ctx context.Context, buyer user.User) (order.Order, error) {
	items, err := s.carts.GetCart(buyer.ID)
	if err != nil {
		return order.Order{}, err
	}
	if len(items) == 0 {
		return order.Order{}, ErrEmptyCart
	}

	total := cart.Total(items)
	if total < s.cfg.MinAmount {
		return order.Order{}, fmt.Errorf("%w: %v < %v", ErrBelowMinimum, total, s.cfg.MinAmount)
	}

	commission := math.Round(total * float64(s.cfg.CommissionPercent) / 100)
	orderNumber := fmt.Sprintf("ORD-%d-%d", s.now().UnixMilli(), buyer.TelegramID)

	description := fmt.Sprintf("Order %s: %d items, total %v", orderNumber, len(items), total)
	payment, err := s.gateway.CreatePayment(ctx, yookassa.CreatePaymentParams{
		Amount:      yookassa.Amount{Value: formatAmount(total), Currency: "RUB"},
		Description: description,
		ReturnURL:   s.cfg.ReturnURL,
		Capture:     true,
		Metadata:    map[string]string{"orderNumber": orderNumber},
	})
	if err != nil {
		return order.Order{}, err
	}

	orderItems := make([]order.Item, 0, len(items))
	for _, it := range items {
		orderItems = append(orderItems, order.Item{
			ProductID: it.ProductID,
			SellerID:  it.SellerID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	now := s.now()
	paymentURL := ""
	if payment.Confirmation != nil {
		paymentURL = payment.Confirmation.ConfirmationURL
	}

	created, err := s.orders.Create(order.Order{
		OrderNumber:       orderNumber,
		BuyerID:           buyer.ID,
		Items:             orderItems,
		TotalAmount:       total,
		CommissionAmount:  commission,
		SellerAmount:      total - commission,
		CommissionPercent: s.cfg.CommissionPercent,
		PaymentID:         payment.ID,
		PaymentURL:        paymentURL,
		PaymentStatus:     order.PaymentStatusPending,
		Status:            order.StatusPending,
		PayoutStatus:      order.PayoutStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		return order.Order{}, err
	}

	if err := s.carts.ClearCart(buyer.ID); err != nil {
		logger.Warn().Err(err).Int("user_id", buyer.ID).Msg("could not clear cart after checkout")
	}

	return created, nil
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
