package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/khanzele16/berri-market-backend/internal/order"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "webhook").Logger()

// SignatureValidator checks the gateway's HMAC signature over the raw
// notification body.
type SignatureValidator interface {
	ValidateWebhookSignature(body []byte, signature string) bool
}

const signatureHeader = "X-Payment-Signature"

// Deduper remembers delivered notifications so redeliveries can be
// acknowledged without reprocessing.
type Deduper interface {
	MarkSeen(ctx context.Context, key string) (bool, error)
}

// RedisDeduper keeps delivery markers in redis with a 24h TTL, long
// enough to outlive the gateway's retry window.
type RedisDeduper struct {
	rdb *redis.Client
}

func NewRedisDeduper(rdb *redis.Client) *RedisDeduper {
	return &RedisDeduper{rdb: rdb}
}

func (d *RedisDeduper) MarkSeen(ctx context.Context, key string) (bool, error) {
	return d.rdb.SetNX(ctx, key, "seen", 24*time.Hour).Result()
}

// Handler receives payment notifications from the gateway and moves
// orders to paid/canceled accordingly.
type Handler struct {
	orders    order.Repository
	validator SignatureValidator
	dedupe    Deduper
}

func NewHandler(orders order.Repository, validator SignatureValidator, dedupe Deduper) *Handler {
	return &Handler{orders: orders, validator: validator, dedupe: dedupe}
}

func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Post("/webhooks/yookassa", h.handleNotification)
}

type notification struct {
	Event  string `json:"event"`
	Object struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"object"`
}

func (h *Handler) handleNotification(c *fiber.Ctx) error {
	body := c.Body()

	if h.validator != nil && !h.validator.ValidateWebhookSignature(body, c.Get(signatureHeader)) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "invalid signature"})
	}

	var n notification
	if err := json.Unmarshal(body, &n); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "malformed notification"})
	}
	if n.Object.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "missing payment id"})
	}

	// gateways redeliver notifications; the first delivery wins
	fresh, err := h.markSeen(c.Context(), n)
	if err != nil {
		logger.Error().Err(err).Msg("webhook dedupe check failed")
	} else if !fresh {
		return c.SendStatus(fiber.StatusOK)
	}

	ord, err := h.orders.GetByPaymentID(n.Object.ID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			// acknowledge unknown payments so the gateway stops retrying
			logger.Warn().Str("payment_id", n.Object.ID).Msg("notification for unknown payment")
			return c.SendStatus(fiber.StatusOK)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}

	now := time.Now().UTC()
	switch n.Event {
	case "payment.succeeded":
		if err := h.orders.MarkPaid(ord.ID, now); err != nil && !errors.Is(err, order.ErrNotFound) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	case "payment.waiting_for_capture":
		if err := h.orders.SetPaymentStatus(ord.ID, order.PaymentStatusWaitingForCapture, now); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	case "payment.canceled":
		if err := h.orders.SetPaymentStatus(ord.ID, order.PaymentStatusCanceled, now); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	default:
		logger.Info().Str("event", n.Event).Msg("ignoring webhook event")
	}

	return c.SendStatus(fiber.StatusOK)
}

// markSeen reports whether this delivery is the first one. A dedupe
// store error never blocks processing.
func (h *Handler) markSeen(ctx context.Context, n notification) (bool, error) {
	if h.dedupe == nil {
		return true, nil
	}
	key := fmt.Sprintf("webhook-event:%s:%s", n.Object.ID, n.Event)
	ok, err := h.dedupe.MarkSeen(ctx, key)
	if err != nil {
		return true, err
	}
	return ok, nil
}
