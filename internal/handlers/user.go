package handlers

import (
	"strconv"

	"github.com/ggorockee/storemaps/internal/database"
	"github.com/ggorockee/storemaps/internal/middleware"
	"github.com/ggorockee/storemaps/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	service *services.UserService
	history *services.SearchHistoryService
}

func NewUserHandler(db *database.DB, history *services.SearchHistoryService) *UserHandler {
	return &UserHandler{
		service: services.NewUserService(db),
		history: history,
	}
}

func SetupUserRoutes(router fiber.Router, h *UserHandler) {
	router.Patch("/me", h.UpdateProfile)
	router.Delete("/me", h.Deactivate)
	router.Get("/me/searches", h.ListSearchHistory)
}

// UpdateProfile godoc
// @Summary Update own profile
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body services.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} models.User
// @Router /users/me [patch]
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var req services.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.service.UpdateProfile(middleware.UserID(c), &req)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(user)
}

// Deactivate godoc
// @Summary Deactivate own account
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /users/me [delete]
func (h *UserHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.service.Deactivate(middleware.UserID(c)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Account deactivated"})
}

// ListSearchHistory godoc
// @Summary Own search history
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} services.HistoryListResponse
// @Router /users/me/searches [get]
func (h *UserHandler) ListSearchHistory(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	resp, err := h.history.ListByUser(middleware.UserID(c), page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(resp)
}
