package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperr "github.com/leksBezdar/AsQi-API/internal/errors"
	"github.com/leksBezdar/AsQi-API/pkg/constant"
)

const currentUserKey = "current_user"

// RequireActiveUser authenticates the request and requires a live session.
// The resolved user lands in c.Locals for downstream handlers.
func (h *AuthHandler) RequireActiveUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := accessTokenFromRequest(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": apperr.ErrInvalidToken.Error()})
		}

		user, err := h.userService.CurrentActiveUser(c.Context(), token)
		if err != nil {
			return errorResponse(c, err)
		}

		c.Locals(currentUserKey, user)

		return c.Next()
	}
}

// RequireSuperuser layers the superuser check on top of RequireActiveUser.
func (h *AuthHandler) RequireSuperuser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := accessTokenFromRequest(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": apperr.ErrInvalidToken.Error()})
		}

		user, err := h.userService.CurrentSuperuser(c.Context(), token)
		if err != nil {
			return errorResponse(c, err)
		}

		c.Locals(currentUserKey, user)

		return c.Next()
	}
}

// accessTokenFromRequest prefers the Authorization header, then falls back to
// the cookie set at login.
func accessTokenFromRequest(c *fiber.Ctx) string {
	authz := c.Get(fiber.HeaderAuthorization)
	if authz != "" {
		parts := strings.Fields(authz)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}

	return c.Cookies(constant.AccessTokenCookie)
}
