package services

import (
	"time"

	"github.com/ggorockee/storemaps/internal/database"
	"github.com/ggorockee/storemaps/internal/logger"
	"github.com/ggorockee/storemaps/internal/models"
)

type SearchHistoryService struct {
	db *database.DB
}

func NewSearchHistoryService(db *database.DB) *SearchHistoryService {
	return &SearchHistoryService{db: db}
}

// Record logs one resolved search. Failures are logged and dropped; history
// is never allowed to fail a search response.
func (s *SearchHistoryService) Record(userID *uint, query, location, category string, resultCount int, source string) {
	entry := models.SearchHistory{
		UserID:      userID,
		Query:       query,
		Location:    location,
		Category:    category,
		ResultCount: resultCount,
		Source:      source,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		logger.GetLogger("history").Warnf("failed to record search: %v", err)
	}
}

type HistoryListResponse struct {
	Items      []models.SearchHistory `json:"items"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// ListByUser returns one user's search history, newest first.
func (s *SearchHistoryService) ListByUser(userID uint, page, limit int) (*HistoryListResponse, error) {
	var items []models.SearchHistory
	var total int64

	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	query := s.db.Model(&models.SearchHistory{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return &HistoryListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

type DailyCount struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// TopQueries returns the most frequent queries over the trailing window.
func (s *SearchHistoryService) TopQueries(limit, days int) ([]QueryCount, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []QueryCount
	err := s.db.Model(&models.SearchHistory{}).
		Select("lower(query) AS query, count(*) AS count").
		Where("created_at > ?", since(days)).
		Group("lower(query)").
		Order("count DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

// SourceBreakdown returns how many searches each source answered.
func (s *SearchHistoryService) SourceBreakdown(days int) ([]SourceCount, error) {
	var out []SourceCount
	err := s.db.Model(&models.SearchHistory{}).
		Select("source, count(*) AS count").
		Where("created_at > ?", since(days)).
		Group("source").
		Order("count DESC").
		Scan(&out).Error
	return out, err
}

// DailyCounts returns per-day search volumes for the dashboard chart.
func (s *SearchHistoryService) DailyCounts(days int) ([]DailyCount, error) {
	var out []DailyCount
	err := s.db.Model(&models.SearchHistory{}).
		Select("date_trunc('day', created_at) AS day, count(*) AS count").
		Where("created_at > ?", since(days)).
		Group("date_trunc('day', created_at)").
		Order("day ASC").
		Scan(&out).Error
	return out, err
}

func since(days int) time.Time {
	if days <= 0 {
		days = 30
	}
	return time.Now().AddDate(0, 0, -days)
}
