package product

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/khanzele16/berri-market-backend/internal/user"
)

// UserService is the slice of the user service the product handler needs
// to map the authenticated seller onto their shop.
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

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/products", h.listProducts)
	app.Get("/api/v1/products/:id<[0-9]+>", h.getProduct)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/products", h.createProduct)
	app.Get("/api/v1/shops/mine/products", h.listMyProducts)
}

func (h *Handler) RegisterAdminRoutes(app *fiber.App, requireAdmin fiber.Handler) {
	app.Post("/api/v1/admin/products/:id/approve", requireAdmin, h.approveProduct)
}

func (h *Handler) listProducts(c *fiber.Ctx) error {
	var categoryID *int
	if raw := c.Query("categoryId"); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil {
			categoryID = &id
		}
	}
	limit := c.QueryInt("limit", 50)

	products, err := h.service.List(categoryID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(products)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}

	p, err := h.service.GetByID(id)
	if err != nil {
		if err == ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(p)
}

type createProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	CategoryID  *int     `json:"categoryId,omitempty"`
	Sizes       []string `json:"sizes,omitempty"`
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	seller, err := h.userService.GetByID(userID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	if seller.ShopID == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "register a shop first"})
	}

	payload := new(createProductRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "name is required"})
	}

	now := time.Now().UTC().Format(time.RFC3339)
	created, err := h.service.Create(Product{
		ShopID:      *seller.ShopID,
		SellerID:    seller.ID,
		CategoryID:  payload.CategoryID,
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price,
		Sizes:       payload.Sizes,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		switch err {
		case ErrInvalidPrice, ErrNoShop:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) listMyProducts(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	seller, err := h.userService.GetByID(userID)
	if err != nil || seller.ShopID == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "shop not found"})
	}

	products, err := h.service.ListByShopID(*seller.ShopID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(products)
}

func (h *Handler) approveProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}

	p, err := h.service.Approve(id, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if err == ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(p)
}
