package services

import (
	"sort"
	"strings"

	"github.com/ggorockee/storemaps/internal/models"
)

// RelevanceScore rates how well a store matches the query by keyword
// overlap: a name containing the full query scores 100, then every query
// token found in the name adds 20 and every token found in the category or
// type adds 10.
func RelevanceScore(query string, store *models.Store) int {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}

	name := strings.ToLower(store.Name)
	category := strings.ToLower(store.Category + " " + store.StoreType)

	score := 0
	if strings.Contains(name, q) {
		score += 100
	}
	for _, token := range strings.Fields(q) {
		if strings.Contains(name, token) {
			score += 20
		}
		if strings.Contains(category, token) {
			score += 10
		}
	}
	return score
}

// SortByRelevance orders stores by descending relevance to the query,
// keeping the source order for ties.
func SortByRelevance(query string, stores []models.Store) {
	sort.SliceStable(stores, func(i, j int) bool {
		return RelevanceScore(query, &stores[i]) > RelevanceScore(query, &stores[j])
	})
}
