package shop

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/khanzele16/berri-market-backend/internal/user"
)

// UserService is the slice of the user service the shop handler needs.
type UserService interface {
	GetByID(id int) (user.User, error)
	AttachShop(userID int, shopID int, updatedAt string) (user.User, error)
}

type Handler struct {
	service     *Service
	userService UserService
}

func NewHandler(service *Service, userService UserService) *Handler {
	return &Handler{service: service, userService: userService}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/shops", h.registerShop)
	app.Get("/api/v1/shops/mine", h.getMyShop)
	app.Put("/api/v1/shops/mine/card", h.updateCard)
	app.Put("/api/v1/shops/mine", h.submitEdit)
}

func (h *Handler) RegisterAdminRoutes(app *fiber.App, requireAdmin fiber.Handler) {
	app.Post("/api/v1/admin/shops/:id/approve", requireAdmin, h.approveShop)
	app.Post("/api/v1/admin/shops/:id/edits/:action", requireAdmin, h.resolveEdit)
}

type registerShopRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CardNumber  string `json:"cardNumber"`
}

func (h *Handler) registerShop(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	payload := new(registerShopRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Name == "" || payload.Description == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "name and description are required"})
	}

	now := time.Now().UTC().Format(time.RFC3339)
	created, err := h.service.Register(userID, payload.Name, payload.Description, payload.CardNumber, now)
	if err != nil {
		switch err {
		case ErrOwnerExists:
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
		case ErrInvalidCard:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}

	if _, err := h.userService.AttachShop(userID, created.ID, now); err != nil {
		// shop exists but the owner link failed; surface it rather than
		// leaving the caller guessing
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "shop created but owner link failed: " + err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) getMyShop(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	sh, err := h.service.GetByOwnerID(userID)
	if err != nil {
		if err == ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "shop not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(sh)
}

type updateCardRequest struct {
	CardNumber string `json:"cardNumber"`
}

func (h *Handler) updateCard(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	payload := new(updateCardRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	sh, err := h.service.UpdateCard(userID, payload.CardNumber, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		switch err {
		case ErrInvalidCard:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		case ErrNotFound:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "shop not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}
	return c.JSON(sh)
}

type editShopRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (h *Handler) submitEdit(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	payload := new(editShopRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Name == nil && payload.Description == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "nothing to change"})
	}

	sh, err := h.service.SubmitEdit(userID, payload.Name, payload.Description, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if err == ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "shop not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(sh)
}

func (h *Handler) approveShop(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid shop id"})
	}

	sh, err := h.service.Approve(id, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if err == ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "shop not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(sh)
}

func (h *Handler) resolveEdit(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid shop id"})
	}

	action := c.Params("action")
	if action != "approve" && action != "reject" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "action must be approve or reject"})
	}

	sh, err := h.service.ResolveEdit(id, action == "approve", time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if err == ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "shop not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(sh)
}
