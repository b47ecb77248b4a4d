package handlers

import (
	"strconv"

	"github.com/ggorockee/storemaps/internal/cache"
	"github.com/ggorockee/storemaps/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler exposes the analytics dashboard data and the cache
// administration surface. All routes require staff.
type AdminHandler struct {
	cache   *cache.ResultCache
	history *services.SearchHistoryService
}

func NewAdminHandler(c *cache.ResultCache, history *services.SearchHistoryService) *AdminHandler {
	return &AdminHandler{
		cache:   c,
		history: history,
	}
}

func SetupAdminRoutes(router fiber.Router, h *AdminHandler) {
	router.Get("/analytics", h.Analytics)
	router.Get("/cache/stats", h.CacheStats)
	router.Get("/cache/popular", h.PopularSearches)
	router.Post("/cache/invalidate", h.InvalidateCache)
	router.Post("/cache/cleanup", h.CleanupCache)
}

// Analytics godoc
// @Summary Search analytics for the admin dashboard
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param days query int false "Trailing window in days (default 30)"
// @Success 200 {object} map[string]interface{}
// @Router /admin/analytics [get]
func (h *AdminHandler) Analytics(c *fiber.Ctx) error {
	days, _ := strconv.Atoi(c.Query("days", "30"))

	topQueries, err := h.history.TopQueries(10, days)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	sources, err := h.history.SourceBreakdown(days)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	daily, err := h.history.DailyCounts(days)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"top_queries":      topQueries,
		"source_breakdown": sources,
		"daily_counts":     daily,
		"cache":            h.cache.Stats(),
	})
}

// CacheStats godoc
// @Summary Result cache statistics
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} cache.Stats
// @Router /admin/cache/stats [get]
func (h *AdminHandler) CacheStats(c *fiber.Ctx) error {
	return c.JSON(h.cache.Stats())
}

// PopularSearches godoc
// @Summary Most repeated live cache entries
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Max entries (default 10)"
// @Success 200 {array} cache.PopularSearch
// @Router /admin/cache/popular [get]
func (h *AdminHandler) PopularSearches(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	return c.JSON(h.cache.PopularSearches(limit))
}

// InvalidateCache godoc
// @Summary Clear all cache entries and counters
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /admin/cache/invalidate [post]
func (h *AdminHandler) InvalidateCache(c *fiber.Ctx) error {
	h.cache.Clear()
	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": "Cache invalidated",
	})
}

// CleanupCache godoc
// @Summary Remove expired cache entries now
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]int
// @Router /admin/cache/cleanup [post]
func (h *AdminHandler) CleanupCache(c *fiber.Ctx) error {
	removed := h.cache.Cleanup()
	return c.JSON(fiber.Map{
		"removed": removed,
	})
}
