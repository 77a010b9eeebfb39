package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/leksBezdar/AsQi-API/internal/auth/domain"
	"github.com/leksBezdar/AsQi-API/internal/auth/dto"
	"github.com/leksBezdar/AsQi-API/internal/auth/service"
	apperr "github.com/leksBezdar/AsQi-API/internal/errors"
	"github.com/leksBezdar/AsQi-API/pkg/constant"
)

type AuthHandler struct {
	userService *service.UserService
}

func NewAuthHandler(userService *service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	user, err := h.userService.Register(c.Context(), input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	pair, cookies, err := h.userService.Login(c.Context(), input)
	if err != nil {
		return errorResponse(c, err)
	}

	applyCookies(c, cookies)

	return c.Status(fiber.StatusOK).JSON(pair)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil || input.RefreshToken == "" {
		// Fall back to the cookie the login flow set.
		input.RefreshToken = c.Cookies(constant.RefreshTokenCookie)
	}
	if input.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "refresh token required"})
	}

	pair, cookies, err := h.userService.Refresh(c.Context(), input.RefreshToken)
	if err != nil {
		return errorResponse(c, err)
	}

	applyCookies(c, cookies)

	return c.Status(fiber.StatusOK).JSON(pair)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input dto.LogoutInput
	if err := c.BodyParser(&input); err != nil || input.RefreshToken == "" {
		input.RefreshToken = c.Cookies(constant.RefreshTokenCookie)
	}

	cookies, err := h.userService.Logout(c.Context(), input.RefreshToken)
	if err != nil {
		return errorResponse(c, err)
	}

	applyCookies(c, cookies)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "logged out"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := c.Locals(currentUserKey).(*domain.User)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": apperr.ErrInvalidToken.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":           user.ID,
		"email":        user.Email,
		"username":     user.Username,
		"role_name":    user.RoleName,
		"is_active":    user.IsActive,
		"is_superuser": user.IsSuperuser,
		"is_verified":  user.IsVerified,
	})
}

func (h *AuthHandler) GetAllUsers(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 100)

	users, err := h.userService.GetAllUsers(c.Context(), offset, limit)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(users)
}

func (h *AuthHandler) CreateRole(c *fiber.Ctx) error {
	var input dto.RoleInput
	if err := c.BodyParser(&input); err != nil || input.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	role, err := h.userService.CreateRole(c.Context(), input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": role.ID, "name": role.Name})
}

func (h *AuthHandler) UpdateUserRole(c *fiber.Ctx) error {
	var input dto.UpdateRoleInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	role, err := h.userService.UpdateUserRole(c.Context(), c.Params("id"), input.RoleID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"id": role.ID, "name": role.Name})
}

func (h *AuthHandler) GetUserSessions(c *fiber.Ctx) error {
	sessions, err := h.userService.GetUserSessions(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(sessions)
}

func (h *AuthHandler) ForceLogout(c *fiber.Ctx) error {
	if err := h.userService.ForceLogout(c.Context(), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "sessions revoked"})
}

func (h *AuthHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.userService.DeleteUser(c.Context(), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "user deactivated"})
}

func applyCookies(c *fiber.Ctx, instructions []dto.CookieInstruction) {
	for _, in := range instructions {
		cookie := &fiber.Cookie{
			Name:     in.Name,
			Value:    in.Value,
			MaxAge:   in.MaxAge,
			HTTPOnly: true,
			Secure:   true,
			SameSite: fiber.CookieSameSiteStrictMode,
		}
		if in.Delete {
			cookie.Value = ""
			cookie.MaxAge = -1
		}
		c.Cookie(cookie)
	}
}

// errorResponse maps the error taxonomy to status codes in one place.
func errorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	switch {
	case errors.Is(err, apperr.ErrInvalidCredentials),
		errors.Is(err, apperr.ErrInvalidToken),
		errors.Is(err, apperr.ErrTokenExpired):
		status = fiber.StatusUnauthorized
	case errors.Is(err, apperr.ErrInactiveUser),
		errors.Is(err, apperr.ErrNotEnoughPermissions):
		status = fiber.StatusForbidden
	case errors.Is(err, apperr.ErrUserDoesNotExist),
		errors.Is(err, apperr.ErrRoleDoesNotExist):
		status = fiber.StatusNotFound
	case errors.Is(err, apperr.ErrUserAlreadyExists),
		errors.Is(err, apperr.ErrRoleAlreadyExists):
		status = fiber.StatusConflict
	case errors.Is(err, apperr.ErrUsernameLength),
		errors.Is(err, apperr.ErrPasswordLength):
		status = fiber.StatusBadRequest
	}

	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{"error": "internal error"})
	}

	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
