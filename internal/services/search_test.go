package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ggorockee/storemaps/internal/cache"
	"github.com/ggorockee/storemaps/internal/models"
	"github.com/ggorockee/storemaps/internal/places"
)

type fakeStoreFinder struct {
	mu sync.Mutex

	searchResults []models.Store
	searchErr     error
	searchCalls   int

	byPlaceID map[string]*models.Store
	nearby    *models.Store

	createErrByName map[string]error
	createCalls     int
	updateCalls     int
	created         []models.Store
}

func (f *fakeStoreFinder) SearchStores(ctx context.Context, query, location, category string) ([]models.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	return f.searchResults, f.searchErr
}

func (f *fakeStoreFinder) FindByPlaceID(ctx context.Context, placeID string) (*models.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.byPlaceID[placeID]; ok {
		return s, nil
	}
	return nil, nil
}

func (f *fakeStoreFinder) FindNearby(ctx context.Context, lat, lng, radiusM float64) (*models.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nearby, nil
}

func (f *fakeStoreFinder) CreateStore(ctx context.Context, store *models.Store) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if err := f.createErrByName[store.Name]; err != nil {
		return err
	}
	f.created = append(f.created, *store)
	return nil
}

func (f *fakeStoreFinder) UpdateStore(ctx context.Context, id uint, store *models.Store) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	return nil
}

type fakePlaces struct {
	mu sync.Mutex

	results   []places.Place
	searchErr error

	details    map[string]*places.PlaceDetails
	detailsErr error

	searchCalls  int
	detailsCalls int
}

func (f *fakePlaces) SearchPlaces(ctx context.Context, query, location string, radiusMeters int) ([]places.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	return f.results, f.searchErr
}

func (f *fakePlaces) GetPlaceDetails(ctx context.Context, placeID string) (*places.PlaceDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailsCalls++
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	if d, ok := f.details[placeID]; ok {
		return d, nil
	}
	return &places.PlaceDetails{}, nil
}

func strPtr(s string) *string { return &s }

func newService(finder *fakeStoreFinder, api *fakePlaces) (*SearchService, *cache.ResultCache) {
	c := cache.New(100, time.Minute)
	return NewSearchService(c, finder, api, 5000), c
}

func dbStores(names ...string) []models.Store {
	out := make([]models.Store, 0, len(names))
	for _, n := range names {
		out = append(out, models.Store{
			Name:    n,
			Address: "1 Test St",
			Country: "USA",
			Source:  models.SourceDatabase,
		})
	}
	return out
}

func rawPlaces(ids ...string) []places.Place {
	out := make([]places.Place, 0, len(ids))
	for i, id := range ids {
		out = append(out, places.Place{
			PlaceID:          id,
			Name:             "Place " + id,
			FormattedAddress: "42 High St, London, UK",
			Lat:              51.5 + float64(i)*0.01,
			Lng:              -0.12,
			Types:            []string{"electronics_store"},
		})
	}
	return out
}

func TestSearchCacheHit(t *testing.T) {
	finder := &fakeStoreFinder{searchResults: dbStores("should-not-be-seen")}
	api := &fakePlaces{results: rawPlaces("p1")}
	svc, c := newService(finder, api)

	c.Set("pizza", "nyc", "", dbStores("Cached Pizza"), 0)

	res, err := svc.SearchWithFallback(context.Background(), "Pizza", " NYC ", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != "cache" || !res.Cached || res.SyncedToDatabase {
		t.Errorf("unexpected result flags: %+v", res)
	}
	if len(res.Stores) != 1 || res.Stores[0].Name != "Cached Pizza" {
		t.Errorf("unexpected stores: %+v", res.Stores)
	}
	if finder.searchCalls != 0 || api.searchCalls != 0 {
		t.Errorf("cache hit must not touch collaborators: db=%d places=%d", finder.searchCalls, api.searchCalls)
	}
}

func TestSearchDatabaseHit(t *testing.T) {
	finder := &fakeStoreFinder{searchResults: dbStores("DB Store")}
	api := &fakePlaces{results: rawPlaces("p1")}
	svc, c := newService(finder, api)

	res, err := svc.SearchWithFallback(context.Background(), "pizza", "nyc", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != models.SourceDatabase || res.Cached || res.SyncedToDatabase {
		t.Errorf("unexpected result flags: %+v", res)
	}
	if api.searchCalls != 0 {
		t.Error("places API must not be called on database hit")
	}
	if !c.Has("pizza", "nyc", "") {
		t.Error("database results should be written into the cache")
	}
}

func TestSearchResultsDoNotAliasCache(t *testing.T) {
	finder := &fakeStoreFinder{searchResults: dbStores("DB Store")}
	api := &fakePlaces{}
	svc, c := newService(finder, api)

	res, err := svc.SearchWithFallback(context.Background(), "pizza", "nyc", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Callers re-rank and annotate the returned stores; none of that may
	// show up in a later cache hit.
	res.Stores[0].Name = "mutated by caller"

	cached, ok := c.Get("pizza", "nyc", "")
	if !ok {
		t.Fatal("expected database results to be cached")
	}
	if cached[0].Name != "DB Store" {
		t.Errorf("cache payload aliased to caller slice: cached name = %q", cached[0].Name)
	}
}

func TestSearchExternalHitSyncs(t *testing.T) {
	finder := &fakeStoreFinder{}
	api := &fakePlaces{
		results: rawPlaces("p1", "p2"),
		details: map[string]*places.PlaceDetails{
			"p1": {Phone: strPtr("+44 20 1234"), Website: strPtr("https://p1.example")},
		},
	}
	svc, c := newService(finder, api)

	res, err := svc.SearchWithFallback(context.Background(), "tv", "london", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != models.SourceGoogleAPI || !res.Cached || !res.SyncedToDatabase {
		t.Errorf("unexpected result flags: %+v", res)
	}
	if len(res.Stores) != 2 {
		t.Fatalf("expected 2 stores, got %d", len(res.Stores))
	}
	if api.detailsCalls != 2 {
		t.Errorf("expected one details fetch per place, got %d", api.detailsCalls)
	}
	if finder.createCalls != 2 {
		t.Errorf("expected one write-back per store, got %d", finder.createCalls)
	}
	if !c.Has("tv", "london", "") {
		t.Error("external results should be written into the cache")
	}

	s := res.Stores[0]
	if s.Source != models.SourceGoogleAPI || s.PlaceID == nil || *s.PlaceID != "p1" {
		t.Errorf("store not tagged as external: %+v", s)
	}
	if s.Phone == nil || *s.Phone != "+44 20 1234" {
		t.Error("details should be merged into the store")
	}
	if s.Category != "electronics" {
		t.Errorf("expected mapped category electronics, got %q", s.Category)
	}
	if s.Country != "UK" {
		t.Errorf("expected country UK from formatted address, got %q", s.Country)
	}
}

func TestSearchCategoryOverride(t *testing.T) {
	finder := &fakeStoreFinder{}
	api := &fakePlaces{results: rawPlaces("p1")}
	svc, _ := newService(finder, api)

	res, err := svc.SearchWithFallback(context.Background(), "tv", "london", " Appliances ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stores[0].Category != "appliances" {
		t.Errorf("caller category must override the mapped one, got %q", res.Stores[0].Category)
	}
}

func TestSearchExhaustion(t *testing.T) {
	finder := &fakeStoreFinder{}
	api := &fakePlaces{}
	svc, c := newService(finder, api)

	res, err := svc.SearchWithFallback(context.Background(), "nothing", "nowhere", "")
	if err != nil {
		t.Fatalf("empty everywhere is not an error, got: %v", err)
	}
	if res.Source != models.SourceDatabase || res.Cached || res.SyncedToDatabase {
		t.Errorf("unexpected result flags: %+v", res)
	}
	if len(res.Stores) != 0 {
		t.Errorf("expected empty stores, got %d", len(res.Stores))
	}
	if c.Has("nothing", "nowhere", "") {
		t.Error("empty results must not be cached")
	}
}

func TestSearchDatabaseErrorFallsThrough(t *testing.T) {
	finder := &fakeStoreFinder{searchErr: errors.New("connection refused")}
	api := &fakePlaces{results: rawPlaces("p1")}
	svc, _ := newService(finder, api)

	res, err := svc.SearchWithFallback(context.Background(), "tv", "london", "")
	if err != nil {
		t.Fatalf("database failure must fall through, got: %v", err)
	}
	if res.Source != models.SourceGoogleAPI {
		t.Errorf("expected google_api source, got %s", res.Source)
	}
}

func TestSearchPlacesErrorPropagates(t *testing.T) {
	finder := &fakeStoreFinder{}
	api := &fakePlaces{searchErr: &places.ProviderError{Status: "OVER_QUERY_LIMIT"}}
	svc, _ := newService(finder, api)

	_, err := svc.SearchWithFallback(context.Background(), "tv", "london", "")
	if err == nil {
		t.Fatal("expected provider error to propagate")
	}
	var providerErr *places.ProviderError
	if !errors.As(err, &providerErr) {
		t.Errorf("expected *places.ProviderError, got %T", err)
	}
}

func TestPartialWriteBackIsolation(t *testing.T) {
	finder := &fakeStoreFinder{
		createErrByName: map[string]error{"Place p2": errors.New("constraint violation")},
	}
	api := &fakePlaces{results: rawPlaces("p1", "p2", "p3")}
	svc, _ := newService(finder, api)

	res, err := svc.SearchWithFallback(context.Background(), "tv", "london", "")
	if err != nil {
		t.Fatalf("a single write-back failure must not fail the search: %v", err)
	}
	if len(res.Stores) != 3 {
		t.Errorf("all fetched stores must be returned, got %d", len(res.Stores))
	}
	if !res.SyncedToDatabase {
		t.Error("partial sync still reports synced_to_database=true")
	}
	if finder.createCalls != 3 {
		t.Errorf("expected one create attempt per store, got %d", finder.createCalls)
	}
}

func TestWriteBackUpdatesExisting(t *testing.T) {
	finder := &fakeStoreFinder{
		byPlaceID: map[string]*models.Store{
			"p1": {ID: 7, Name: "Existing", Source: models.SourceGoogleAPI},
		},
	}
	api := &fakePlaces{results: rawPlaces("p1")}
	svc, _ := newService(finder, api)

	if _, err := svc.SearchWithFallback(context.Background(), "tv", "london", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if finder.updateCalls != 1 || finder.createCalls != 0 {
		t.Errorf("expected 1 update / 0 creates, got %d / %d", finder.updateCalls, finder.createCalls)
	}
}

func TestWriteBackMatchesByProximity(t *testing.T) {
	finder := &fakeStoreFinder{
		nearby: &models.Store{ID: 3, Name: "Close By", Source: models.SourceDatabase},
	}
	api := &fakePlaces{results: rawPlaces("p-unknown")}
	svc, _ := newService(finder, api)

	if _, err := svc.SearchWithFallback(context.Background(), "tv", "london", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if finder.updateCalls != 1 || finder.createCalls != 0 {
		t.Errorf("proximity match should update, got %d updates / %d creates", finder.updateCalls, finder.createCalls)
	}
}

func TestDetailsFailureIsNonFatal(t *testing.T) {
	finder := &fakeStoreFinder{}
	api := &fakePlaces{
		results:    rawPlaces("p1"),
		detailsErr: errors.New("timeout"),
	}
	svc, _ := newService(finder, api)

	res, err := svc.SearchWithFallback(context.Background(), "tv", "london", "")
	if err != nil {
		t.Fatalf("details failure must not fail the search: %v", err)
	}
	if len(res.Stores) != 1 || res.Stores[0].Phone != nil {
		t.Errorf("store should be returned without details, got %+v", res.Stores)
	}
}
