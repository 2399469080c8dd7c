package settlement

import (
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/khanzele16/berri-market-backend/internal/order"
)

func makeAppWithEngine(engine *Engine) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			id, err := strconv.Atoi(v)
			if err == nil {
				claims := jwt.MapClaims{"user_id": id}
				tok := &jwt.Token{Claims: claims}
				c.Locals("user", tok)
			}
		}
		return c.Next()
	})
	h := NewHandler(engine)
	passThrough := func(c *fiber.Ctx) error { return c.Next() }
	h.RegisterAdminRoutes(app, passThrough)
	return app
}

func TestApproveEndpoint_ListsPayouts(t *testing.T) {
	orders := newFakeOrders(paidOrder())
	users, shops := testDirectories()
	engine := NewEngine(orders, users, shops, &fakeGateway{}, nil, nil, Config{})
	app := makeAppWithEngine(engine)

	req := httptest.NewRequest("POST", "/api/v1/admin/orders/1/approve", nil)
	req.Header.Set("X-User-ID", "9")
	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	var body struct {
		Order   order.Order    `json:"order"`
		Payouts []PayoutResult `json:"payouts"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Payouts) != 2 {
		t.Fatalf("expected 2 payouts in response, got %d", len(body.Payouts))
	}
	if !body.Order.AdminApproved {
		t.Errorf("expected approved order in response: %+v", body.Order)
	}
}

func TestApproveEndpoint_Conflicts(t *testing.T) {
	ord := paidOrder()
	ord.AdminApproved = true
	ord.Status = order.StatusCompleted
	orders := newFakeOrders(ord)
	users, shops := testDirectories()
	engine := NewEngine(orders, users, shops, &fakeGateway{}, nil, nil, Config{})
	app := makeAppWithEngine(engine)

	req := httptest.NewRequest("POST", "/api/v1/admin/orders/1/approve", nil)
	req.Header.Set("X-User-ID", "9")
	res, _ := app.Test(req, -1)
	if res.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d", res.StatusCode)
	}
}

func TestApproveEndpoint_NotFound(t *testing.T) {
	engine := NewEngine(newFakeOrders(), &fakeUsers{}, &fakeShops{}, &fakeGateway{}, nil, nil, Config{})
	app := makeAppWithEngine(engine)

	req := httptest.NewRequest("POST", "/api/v1/admin/orders/999/approve", nil)
	req.Header.Set("X-User-ID", "9")
	res, _ := app.Test(req, -1)
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
}

func TestApproveEndpoint_Unauthorized(t *testing.T) {
	engine := NewEngine(newFakeOrders(), &fakeUsers{}, &fakeShops{}, &fakeGateway{}, nil, nil, Config{})
	app := makeAppWithEngine(engine)

	req := httptest.NewRequest("POST", "/api/v1/admin/orders/1/approve", nil)
	res, _ := app.Test(req, -1)
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}
}

func TestRejectEndpoint_RequiresReason(t *testing.T) {
	orders := newFakeOrders(paidOrder())
	users, shops := testDirectories()
	engine := NewEngine(orders, users, shops, &fakeGateway{}, nil, nil, Config{})
	app := makeAppWithEngine(engine)

	req := httptest.NewRequest("POST", "/api/v1/admin/orders/1/reject", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "9")
	res, _ := app.Test(req, -1)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 without reason, got %d", res.StatusCode)
	}
}

func TestRejectEndpoint_Cancels(t *testing.T) {
	orders := newFakeOrders(paidOrder())
	users, shops := testDirectories()
	engine := NewEngine(orders, users, shops, &fakeGateway{}, nil, nil, Config{})
	app := makeAppWithEngine(engine)

	req := httptest.NewRequest("POST", "/api/v1/admin/orders/1/reject", strings.NewReader(`{"reason":"out of stock"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "9")
	res, _ := app.Test(req, -1)
	if res.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	ord, _ := orders.GetByID(1)
	if ord.Status != order.StatusCancelled || ord.RejectionReason != "out of stock" {
		t.Errorf("rejection not applied: %+v", ord)
	}
}
