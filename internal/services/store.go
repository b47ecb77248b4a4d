package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ggorockee/storemaps/internal/database"
	"github.com/ggorockee/storemaps/internal/models"
	"gorm.io/gorm"
)

// ErrInvalidCoordinates is returned when a user-supplied store carries
// out-of-range coordinates.
var ErrInvalidCoordinates = errors.New("coordinates out of range")

// ErrNotOwner is returned when a non-staff user mutates a store they did
// not create.
var ErrNotOwner = errors.New("not the store owner")

type StoreService struct {
	db *database.DB
}

func NewStoreService(db *database.DB) *StoreService {
	return &StoreService{db: db}
}

type StoreFilter struct {
	Page     int
	Limit    int
	Query    string
	Category string
	Country  string
	Source   string
	// Geo filter (optional): all three must be set
	Lat     float64
	Lng     float64
	RadiusM float64
}

type StoreListResponse struct {
	Items      []models.Store `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

// List retrieves stores with filtering and pagination.
func (s *StoreService) List(filter *StoreFilter) (*StoreListResponse, error) {
	var stores []models.Store
	var total int64

	query := s.db.Model(&models.Store{})

	if filter.Query != "" {
		searchTerm := "%" + filter.Query + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ? OR tags ILIKE ?",
			searchTerm, searchTerm, searchTerm)
	}
	if filter.Category != "" {
		query = query.Where("category ILIKE ?", filter.Category+"%")
	}
	if filter.Country != "" {
		query = query.Where("country ILIKE ?", "%"+filter.Country+"%")
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.RadiusM > 0 && (filter.Lat != 0 || filter.Lng != 0) {
		query = query.Where(haversineWhere(filter.Lat, filter.Lng, filter.RadiusM))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit
	query = query.Order("created_at DESC").Offset(offset).Limit(filter.Limit)

	if err := query.Find(&stores).Error; err != nil {
		return nil, err
	}

	totalPages := int(total) / filter.Limit
	if int(total)%filter.Limit > 0 {
		totalPages++
	}

	return &StoreListResponse{
		Items:      stores,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

// SearchStores is the database leg of the search fallback chain: free-text
// match over name/description/tags/type, category prefix, and location
// matched as an address/country substring. Nothing matching is an empty
// result, not an error.
func (s *StoreService) SearchStores(ctx context.Context, query, location, category string) ([]models.Store, error) {
	var stores []models.Store

	q := s.db.WithContext(ctx).Model(&models.Store{})

	if query != "" {
		searchTerm := "%" + query + "%"
		q = q.Where("name ILIKE ? OR description ILIKE ? OR tags ILIKE ? OR store_type ILIKE ?",
			searchTerm, searchTerm, searchTerm, searchTerm)
	}
	if location != "" {
		locTerm := "%" + location + "%"
		q = q.Where("address ILIKE ? OR country ILIKE ?", locTerm, locTerm)
	}
	if category != "" {
		q = q.Where("category ILIKE ?", category+"%")
	}

	if err := q.Order("rating DESC NULLS LAST, created_at DESC").Limit(20).Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// GetByID retrieves a store by ID.
func (s *StoreService) GetByID(id uint) (*models.Store, error) {
	var store models.Store
	if err := s.db.First(&store, id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// Create inserts a user-created store after validating its coordinates.
func (s *StoreService) Create(userID uint, store *models.Store) error {
	if err := validateCoordinates(store); err != nil {
		return err
	}
	store.Source = models.SourceUserCreated
	store.CreatedByID = &userID
	store.LastUpdated = time.Now()
	return s.db.Create(store).Error
}

// Update applies changes to a store owned by userID (staff may edit any).
func (s *StoreService) Update(userID uint, isStaff bool, id uint, updates *models.Store) (*models.Store, error) {
	var store models.Store
	if err := s.db.First(&store, id).Error; err != nil {
		return nil, err
	}
	if !isStaff && (store.CreatedByID == nil || *store.CreatedByID != userID) {
		return nil, ErrNotOwner
	}
	if err := validateCoordinates(updates); err != nil {
		return nil, err
	}

	updates.ID = store.ID
	updates.Source = store.Source
	updates.CreatedByID = store.CreatedByID
	updates.LastUpdated = time.Now()
	if err := s.db.Model(&store).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// Delete soft-deletes a store owned by userID (staff may delete any).
func (s *StoreService) Delete(userID uint, isStaff bool, id uint) error {
	var store models.Store
	if err := s.db.First(&store, id).Error; err != nil {
		return err
	}
	if !isStaff && (store.CreatedByID == nil || *store.CreatedByID != userID) {
		return ErrNotOwner
	}
	return s.db.Delete(&store).Error
}

// FindByPlaceID looks up a store by its external place identifier.
// Returns (nil, nil) when no row matches.
func (s *StoreService) FindByPlaceID(ctx context.Context, placeID string) (*models.Store, error) {
	var store models.Store
	err := s.db.WithContext(ctx).Where("place_id = ?", placeID).First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// FindNearby returns the closest store within radiusM meters of the given
// point, or (nil, nil) when none is close enough. Used by write-back to
// detect an existing row for an externally fetched store.
func (s *StoreService) FindNearby(ctx context.Context, lat, lng, radiusM float64) (*models.Store, error) {
	var store models.Store
	err := s.db.WithContext(ctx).
		Where(haversineWhere(lat, lng, radiusM)).
		Order(haversineOrder(lat, lng)).
		First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// CreateStore inserts a row as-is (write-back path; data from the provider
// is trusted, see the collaborator contract).
func (s *StoreService) CreateStore(ctx context.Context, store *models.Store) error {
	store.LastUpdated = time.Now()
	return s.db.WithContext(ctx).Create(store).Error
}

// UpdateStore refreshes an existing row's fields in place and advances
// last_updated.
func (s *StoreService) UpdateStore(ctx context.Context, id uint, store *models.Store) error {
	store.ID = id
	store.LastUpdated = time.Now()
	return s.db.WithContext(ctx).Model(&models.Store{ID: id}).Updates(store).Error
}

func validateCoordinates(store *models.Store) error {
	if store.Lat != nil && (*store.Lat < -90 || *store.Lat > 90) {
		return ErrInvalidCoordinates
	}
	if store.Lng != nil && (*store.Lng < -180 || *store.Lng > 180) {
		return ErrInvalidCoordinates
	}
	return nil
}

// haversineWhere filters rows within radiusM meters of (lat, lng).
// Haversine 공식을 PostgreSQL 삼각함수로 계산
func haversineWhere(lat, lng, radiusM float64) string {
	return fmt.Sprintf(`lat IS NOT NULL AND lng IS NOT NULL AND
		2 * 6371000 * asin(sqrt(
			power(sin(radians(lat - %f) / 2), 2) +
			cos(radians(%f)) * cos(radians(lat)) * power(sin(radians(lng - %f) / 2), 2)
		)) <= %f`, lat, lat, lng, radiusM)
}

func haversineOrder(lat, lng float64) string {
	return fmt.Sprintf(`2 * 6371000 * asin(sqrt(
		power(sin(radians(lat - %f) / 2), 2) +
		cos(radians(%f)) * cos(radians(lat)) * power(sin(radians(lng - %f) / 2), 2)
	)) ASC`, lat, lat, lng)
}
