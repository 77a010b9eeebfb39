package handler

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	api := app.Group("/api/v1")
	api.Post("/register", h.Register)
	api.Post("/login", h.Login)
	api.Post("/refresh", h.Refresh)
	api.Delete("/session", h.Logout)
	api.Get("/me", h.RequireActiveUser(), h.Me)

	// Superuser-only endpoints
	admin := api.Group("/admin", h.RequireSuperuser())
	admin.Get("/users", h.GetAllUsers)
	admin.Post("/role", h.CreateRole)
	admin.Patch("/user/:id/role", h.UpdateUserRole)
	admin.Get("/user/:id/sessions", h.GetUserSessions)
	admin.Delete("/user/:id/sessions", h.ForceLogout)
	admin.Delete("/user/:id", h.DeleteUser)
}
