package services

import (
	"context"
	"strings"
	"time"

	"github.com/ggorockee/storemaps/internal/cache"
	"github.com/ggorockee/storemaps/internal/logger"
	"github.com/ggorockee/storemaps/internal/models"
	"github.com/ggorockee/storemaps/internal/places"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

const (
	// proximityRadiusM write-back이 기존 row로 간주하는 좌표 드리프트 거리
	proximityRadiusM = 50.0
	// syncConcurrency 검색 1건당 동시 write-back 수 제한
	syncConcurrency = 4
)

var searchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storemaps_searches_total",
		Help: "Total searches resolved, by answering source",
	},
	[]string{"source"},
)

// StoreFinder is the database collaborator consumed by the search chain.
type StoreFinder interface {
	SearchStores(ctx context.Context, query, location, category string) ([]models.Store, error)
	FindByPlaceID(ctx context.Context, placeID string) (*models.Store, error)
	FindNearby(ctx context.Context, lat, lng, radiusM float64) (*models.Store, error)
	CreateStore(ctx context.Context, store *models.Store) error
	UpdateStore(ctx context.Context, id uint, store *models.Store) error
}

// PlacesSearcher is the external places API collaborator.
type PlacesSearcher interface {
	SearchPlaces(ctx context.Context, query, location string, radiusMeters int) ([]places.Place, error)
	GetPlaceDetails(ctx context.Context, placeID string) (*places.PlaceDetails, error)
}

// SearchResult is the answer to one search request.
type SearchResult struct {
	Stores           []models.Store `json:"stores"`
	Source           string         `json:"source"`
	Cached           bool           `json:"cached"`
	SyncedToDatabase bool           `json:"synced_to_database"`
}

// SyncOutcome records the write-back result for one store.
type SyncOutcome struct {
	StoreName string
	Created   bool
	Updated   bool
	Err       error
}

// SearchService resolves a search at the cheapest sufficient source:
// cache, then database, then the external places API, writing externally
// fetched results back into both the cache and the database.
type SearchService struct {
	cache        *cache.ResultCache
	stores       StoreFinder
	places       PlacesSearcher
	radiusMeters int
}

func NewSearchService(c *cache.ResultCache, stores StoreFinder, placesAPI PlacesSearcher, radiusMeters int) *SearchService {
	return &SearchService{
		cache:        c,
		stores:       stores,
		places:       placesAPI,
		radiusMeters: radiusMeters,
	}
}

// SearchWithFallback runs the ordered fallback chain, short-circuiting on
// the first non-empty answer.
//
// Database errors are swallowed (the chain falls through to the places
// API); places API errors propagate since no source remains. All three
// sources empty is a valid empty answer, not an error. Empty result sets
// are never cached, so a cache hit always carries at least one store.
func (s *SearchService) SearchWithFallback(ctx context.Context, query, location, category string) (*SearchResult, error) {
	log := logger.GetLogger("search")

	// 1. Cache probe
	if stores, ok := s.cache.Get(query, location, category); ok {
		searchesTotal.WithLabelValues("cache").Inc()
		return &SearchResult{
			Stores: stores,
			Source: "cache",
			Cached: true,
		}, nil
	}

	// 2. Database probe. A transient database failure must not kill the
	// chain; treat it as an empty result.
	stores, err := s.stores.SearchStores(ctx, query, location, category)
	if err != nil {
		log.Warnf("database search failed, falling through to places API: %v", err)
		stores = nil
	}
	if len(stores) > 0 {
		s.cache.Set(query, location, category, stores, 0)
		searchesTotal.WithLabelValues(models.SourceDatabase).Inc()
		return &SearchResult{
			Stores: stores,
			Source: models.SourceDatabase,
		}, nil
	}

	// 3. External API probe. At this point every fallback is exhausted, so
	// failures propagate to the caller.
	raw, err := s.places.SearchPlaces(ctx, query, location, s.radiusMeters)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		searchesTotal.WithLabelValues(models.SourceDatabase).Inc()
		return &SearchResult{
			Stores: []models.Store{},
			Source: models.SourceDatabase,
		}, nil
	}

	fetched := make([]models.Store, 0, len(raw))
	for _, p := range raw {
		fetched = append(fetched, s.toStore(ctx, p, category))
	}

	s.cache.Set(query, location, category, fetched, 0)

	// 4. Write-back. Per-store failures are logged and skipped; a partial
	// sync still reports success to the caller.
	outcomes := s.syncStores(ctx, fetched)
	for _, o := range outcomes {
		if o.Err != nil {
			log.Warnf("write-back failed for store '%s': %v", o.StoreName, o.Err)
		}
	}

	searchesTotal.WithLabelValues(models.SourceGoogleAPI).Inc()
	return &SearchResult{
		Stores:           fetched,
		Source:           models.SourceGoogleAPI,
		Cached:           true,
		SyncedToDatabase: true,
	}, nil
}

// toStore transforms one raw place into the local store shape, fetching
// details best-effort. A caller-supplied category overrides the mapped one.
func (s *SearchService) toStore(ctx context.Context, p places.Place, categoryOverride string) models.Store {
	log := logger.GetLogger("search")

	mapped := places.MapPlaceTypes(p.Types)
	if c := strings.TrimSpace(categoryOverride); c != "" {
		mapped = strings.ToLower(c)
	}

	lat, lng := p.Lat, p.Lng
	placeID := p.PlaceID
	store := models.Store{
		Name:      p.Name,
		StoreType: mapped,
		Category:  mapped,
		Address:   p.FormattedAddress,
		Country:   countryFromAddress(p.FormattedAddress),
		Lat:       &lat,
		Lng:       &lng,
		Rating:    p.Rating,
		Source:    models.SourceGoogleAPI,
		PlaceID:   &placeID,
	}

	details, err := s.places.GetPlaceDetails(ctx, p.PlaceID)
	if err != nil {
		// Details are enrichment only; the search result stands without them.
		log.Warnf("place details fetch failed for %s: %v", p.PlaceID, err)
		return store
	}
	store.Phone = details.Phone
	store.Website = details.Website
	store.Hours = details.OpeningHours
	return store
}

// syncStores persists externally fetched stores, matching existing rows by
// place ID first, then by coordinate proximity. Runs with bounded
// concurrency on a context detached from the caller's cancellation.
func (s *SearchService) syncStores(ctx context.Context, stores []models.Store) []SyncOutcome {
	syncCtx := context.WithoutCancel(ctx)
	outcomes := make([]SyncOutcome, len(stores))

	g := new(errgroup.Group)
	g.SetLimit(syncConcurrency)
	for i := range stores {
		i := i
		g.Go(func() error {
			outcomes[i] = s.syncOne(syncCtx, &stores[i])
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (s *SearchService) syncOne(ctx context.Context, store *models.Store) SyncOutcome {
	out := SyncOutcome{StoreName: store.Name}

	var existing *models.Store
	var err error
	if store.PlaceID != nil && *store.PlaceID != "" {
		existing, err = s.stores.FindByPlaceID(ctx, *store.PlaceID)
		if err != nil {
			out.Err = err
			return out
		}
	}
	if existing == nil && store.HasCoordinates() {
		existing, err = s.stores.FindNearby(ctx, *store.Lat, *store.Lng, proximityRadiusM)
		if err != nil {
			out.Err = err
			return out
		}
	}

	if existing != nil {
		if err := s.stores.UpdateStore(ctx, existing.ID, store); err != nil {
			out.Err = err
			return out
		}
		out.Updated = true
		return out
	}

	if err := s.stores.CreateStore(ctx, store); err != nil {
		out.Err = err
		return out
	}
	out.Created = true
	return out
}

// countryFromAddress takes the last comma-separated component of a
// formatted address as the country.
func countryFromAddress(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-1])
}

// SearchTimeout is the default deadline handlers put on one search
// resolution, covering the database leg, the places calls, and write-back.
const SearchTimeout = 15 * time.Second
