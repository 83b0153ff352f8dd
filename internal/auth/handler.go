package auth

import (
	"strings"
	"time"

	"porkorder/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Password string `json:"password"`
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		pwd := strings.TrimSpace(body.Password)
		if pwd == "" || bcrypt.CompareHashAndPassword([]byte(cfg.AdminPasswordHash), []byte(pwd)) != nil {
			log.Warn().Str("ip", c.IP()).Msg("admin login rejected")
			return fiber.NewError(fiber.StatusUnauthorized, "bad password")
		}

		now := time.Now()
		token, err := GenerateToken(cfg.JWTSecret, cfg.TokenTTL, now)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not issue token")
		}

		c.Cookie(&fiber.Cookie{
			Name:     TokenCookie,
			Value:    token,
			Expires:  now.Add(cfg.TokenTTL),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.JSON(fiber.Map{"ok": true, "token": token})
	}
}

// POST /api/auth/logout
func LogoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.ClearCookie(TokenCookie)
		return c.JSON(fiber.Map{"ok": true})
	}
}

// GET /api/auth/status
func StatusHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true, "admin": IsAdmin(c, cfg)})
	}
}
