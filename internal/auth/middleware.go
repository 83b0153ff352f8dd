package auth

import (
	"strings"

	"porkorder/internal/config"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxSubjectKey = "auth_subject"
	CtxRoleKey    = "auth_role"

	// TokenCookie carries the token for browser pages that cannot set headers.
	TokenCookie = "porkorder_token"
)

// AdminOnly rejects the request with 403 unless it carries a valid admin token.
func AdminOnly(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !authenticate(c, cfg) {
			return fiber.NewError(fiber.StatusForbidden, "forbidden")
		}
		if role, _ := c.Locals(CtxRoleKey).(string); role != RoleAdmin {
			return fiber.NewError(fiber.StatusForbidden, "forbidden")
		}
		return c.Next()
	}
}

// IsAdmin reports whether the request carries a valid admin token.
func IsAdmin(c *fiber.Ctx, cfg *config.Config) bool {
	if !authenticate(c, cfg) {
		return false
	}
	role, _ := c.Locals(CtxRoleKey).(string)
	return role == RoleAdmin
}

// Actor names whoever the request was authenticated as, for audit logs.
func Actor(c *fiber.Ctx) string {
	if s, ok := c.Locals(CtxSubjectKey).(string); ok && s != "" {
		return s
	}
	return "anonymous"
}

func authenticate(c *fiber.Ctx, cfg *config.Config) bool {
	tokenStr := bearerToken(c)
	if tokenStr == "" {
		return false
	}
	claims, err := ParseToken(cfg.JWTSecret, tokenStr)
	if err != nil {
		return false
	}
	c.Locals(CtxSubjectKey, claims.Subject)
	c.Locals(CtxRoleKey, claims.Role)
	return true
}

func bearerToken(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Cookies(TokenCookie)
}
