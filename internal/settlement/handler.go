package settlement

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/khanzele16/berri-market-backend/internal/order"
	"github.com/khanzele16/berri-market-backend/internal/user"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) RegisterAdminRoutes(app *fiber.App, requireAdmin fiber.Handler) {
	app.Post("/api/v1/admin/orders/:id/approve", requireAdmin, h.approveOrder)
	app.Post("/api/v1/admin/orders/:id/reject", requireAdmin, h.rejectOrder)
}

func (h *Handler) approveOrder(c *fiber.Ctx) error {
	adminID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid order id"})
	}

	ord, payouts, err := h.engine.Approve(c.Context(), id, adminID)
	if err != nil {
		return settlementError(c, err)
	}

	// every seller group is listed, success or failure, so the admin can
	// follow up on unpaid sellers manually
	return c.JSON(fiber.Map{
		"order":   ord,
		"payouts": payouts,
	})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) rejectOrder(c *fiber.Ctx) error {
	adminID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid order id"})
	}

	payload := new(rejectRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "reason is required"})
	}

	ord, err := h.engine.Reject(c.Context(), id, adminID, payload.Reason)
	if err != nil {
		return settlementError(c, err)
	}

	return c.JSON(fiber.Map{"order": ord})
}

func settlementError(c *fiber.Ctx, err error) error {
	switch err {
	case order.ErrNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "order not found"})
	case order.ErrAlreadyDecided:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case order.ErrNotPaid:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
