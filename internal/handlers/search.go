package handlers

import (
	"context"
	"errors"

	"github.com/ggorockee/storemaps/internal/middleware"
	"github.com/ggorockee/storemaps/internal/places"
	"github.com/ggorockee/storemaps/internal/services"
	"github.com/gofiber/fiber/v2"
)

type SearchHandler struct {
	search  *services.SearchService
	history *services.SearchHistoryService
}

func NewSearchHandler(search *services.SearchService, history *services.SearchHistoryService) *SearchHandler {
	return &SearchHandler{
		search:  search,
		history: history,
	}
}

func SetupSearchRoutes(router fiber.Router, h *SearchHandler) {
	router.Get("/", h.Search)
}

type SearchResponse struct {
	Stores           interface{} `json:"stores"`
	Source           string      `json:"source"`
	Cached           bool        `json:"cached"`
	SyncedToDatabase bool        `json:"synced_to_database"`
	Count            int         `json:"count"`
}

// Search godoc
// @Summary Search stores with cache/database/places fallback
// @Tags search
// @Accept json
// @Produce json
// @Param q query string true "Search query"
// @Param location query string true "Location text"
// @Param category query string false "Category filter (overrides mapped category)"
// @Success 200 {object} SearchResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /search [get]
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	location := c.Query("location")
	category := c.Query("category")

	if query == "" || location == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "q and location query parameters are required",
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), services.SearchTimeout)
	defer cancel()

	result, err := h.search.SearchWithFallback(ctx, query, location, category)
	if err != nil {
		return searchErrorResponse(c, err)
	}

	// Ranking is the API's job, not the orchestrator's.
	services.SortByRelevance(query, result.Stores)

	var userID *uint
	if id := middleware.UserID(c); id > 0 {
		userID = &id
	}
	h.history.Record(userID, query, location, category, len(result.Stores), result.Source)

	return c.JSON(SearchResponse{
		Stores:           result.Stores,
		Source:           result.Source,
		Cached:           result.Cached,
		SyncedToDatabase: result.SyncedToDatabase,
		Count:            len(result.Stores),
	})
}

// searchErrorResponse maps the places error taxonomy onto HTTP statuses:
// missing configuration is a server fault, provider/transport failures are
// bad-gateway.
func searchErrorResponse(c *fiber.Ctx, err error) error {
	var providerErr *places.ProviderError

	switch {
	case errors.Is(err, places.ErrAPIKeyMissing):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "search provider not configured",
		})
	case errors.As(err, &providerErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": providerErr.Error(),
		})
	case errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
			"error": "search timed out",
		})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
