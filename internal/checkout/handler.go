package checkout

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/khanzele16/berri-market-backend/internal/cart"
	"github.com/khanzele16/berri-market-backend/internal/user"
)

// UserService resolves the authenticated buyer.
type UserService interface {
	GetByID(id int) (user.User, error)
}

type Handler struct {
	service     *Service
	userService UserService
}

func NewHandler(service *Service, userService UserService) *Handler {
	return &Handler{service: service, userService: userService}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/checkout", h.checkout)
}

func (h *Handler) checkout(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	buyer, err := h.userService.GetByID(userID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	ord, err := h.service.Checkout(c.Context(), buyer)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyCart):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "cart is empty"})
		case errors.Is(err, ErrBelowMinimum):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		case errors.Is(err, cart.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "user not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order":      ord,
		"paymentUrl": ord.PaymentURL,
	})
}
