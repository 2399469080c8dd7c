package auth

import (
	"os"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/khanzele16/berri-market-backend/internal/user"
)

// Policy decides whether an account may perform moderation actions
// (shop approval, order settlement). Injected so settlement logic never
// reads identity configuration itself.
type Policy interface {
	IsAdmin(u user.User) bool
}

// RolePolicy grants moderation to accounts with the ADMIN role and,
// as a migration path for installs configured through the environment,
// to the Telegram ids listed in ADMIN_TELEGRAM_IDS.
type RolePolicy struct {
	telegramIDs map[int64]bool
}

func NewRolePolicy() *RolePolicy {
	ids := make(map[int64]bool)
	for _, raw := range strings.Split(os.Getenv("ADMIN_TELEGRAM_IDS"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			ids[id] = true
		}
	}
	return &RolePolicy{telegramIDs: ids}
}

func (p *RolePolicy) IsAdmin(u user.User) bool {
	if u.Role == user.RoleAdmin {
		return true
	}
	return u.TelegramID != 0 && p.telegramIDs[u.TelegramID]
}

// UserLoader resolves the authenticated account for middleware checks.
type UserLoader interface {
	GetByID(id int) (user.User, error)
}

// RequireAdmin builds a fiber middleware that rejects non-admin callers
// before the protected handler runs.
func RequireAdmin(policy Policy, users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := user.GetUserIDFromCtx(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		}
		u, err := users.GetByID(userID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		}
		if !policy.IsAdmin(u) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "admin access required"})
		}
		return c.Next()
	}
}
