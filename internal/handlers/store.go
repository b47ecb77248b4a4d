package handlers

import (
	"errors"
	"strconv"

	"github.com/ggorockee/storemaps/internal/middleware"
	"github.com/ggorockee/storemaps/internal/models"
	"github.com/ggorockee/storemaps/internal/services"
	"github.com/gofiber/fiber/v2"
)

type StoreHandler struct {
	service *services.StoreService
}

func NewStoreHandler(service *services.StoreService) *StoreHandler {
	return &StoreHandler{service: service}
}

func SetupStoreRoutes(public fiber.Router, authed fiber.Router, h *StoreHandler) {
	public.Get("/", h.List)
	public.Get("/:id", h.Get)

	authed.Post("/", h.Create)
	authed.Put("/:id", h.Update)
	authed.Delete("/:id", h.Delete)
}

// List godoc
// @Summary List stores
// @Tags stores
// @Accept json
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param q query string false "Free-text filter"
// @Param category query string false "Category prefix filter"
// @Param country query string false "Country filter"
// @Param lat query number false "Latitude for radius filter"
// @Param lng query number false "Longitude for radius filter"
// @Param radius query number false "Radius in meters"
// @Success 200 {object} services.StoreListResponse
// @Router /stores [get]
func (h *StoreHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	lat, _ := strconv.ParseFloat(c.Query("lat", "0"), 64)
	lng, _ := strconv.ParseFloat(c.Query("lng", "0"), 64)
	radius, _ := strconv.ParseFloat(c.Query("radius", "0"), 64)

	filter := services.StoreFilter{
		Page:     page,
		Limit:    limit,
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Country:  c.Query("country"),
		Source:   c.Query("source"),
		Lat:      lat,
		Lng:      lng,
		RadiusM:  radius,
	}

	response, err := h.service.List(&filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(response)
}

// Get godoc
// @Summary Get store by ID
// @Tags stores
// @Accept json
// @Produce json
// @Param id path int true "Store ID"
// @Success 200 {object} models.Store
// @Failure 404 {object} ErrorResponse
// @Router /stores/{id} [get]
func (h *StoreHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid store ID"})
	}

	store, err := h.service.GetByID(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Store not found"})
	}

	return c.JSON(store)
}

// Create godoc
// @Summary Create a store
// @Tags stores
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.Store true "Store data"
// @Success 201 {object} models.Store
// @Failure 400 {object} ErrorResponse
// @Router /stores [post]
func (h *StoreHandler) Create(c *fiber.Ctx) error {
	var store models.Store
	if err := c.BodyParser(&store); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if store.Name == "" || store.Address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and address are required"})
	}

	if err := h.service.Create(middleware.UserID(c), &store); err != nil {
		if errors.Is(err, services.ErrInvalidCoordinates) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(store)
}

// Update godoc
// @Summary Update a store (owner or staff)
// @Tags stores
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Store ID"
// @Param request body models.Store true "Store fields"
// @Success 200 {object} models.Store
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /stores/{id} [put]
func (h *StoreHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid store ID"})
	}

	var updates models.Store
	if err := c.BodyParser(&updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	store, err := h.service.Update(middleware.UserID(c), middleware.IsStaff(c), uint(id), &updates)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotOwner):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrInvalidCoordinates):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Store not found"})
		}
	}

	return c.JSON(store)
}

// Delete godoc
// @Summary Delete a store (owner or staff)
// @Tags stores
// @Security BearerAuth
// @Produce json
// @Param id path int true "Store ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} ErrorResponse
// @Router /stores/{id} [delete]
func (h *StoreHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid store ID"})
	}

	if err := h.service.Delete(middleware.UserID(c), middleware.IsStaff(c), uint(id)); err != nil {
		if errors.Is(err, services.ErrNotOwner) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Store not found"})
	}

	return c.JSON(fiber.Map{"message": "Store deleted"})
}
