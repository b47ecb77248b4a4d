package services

import (
	"testing"

	"github.com/ggorockee/storemaps/internal/models"
)

func TestRelevanceScore(t *testing.T) {
	tests := []struct {
		name  string
		query string
		store models.Store
		want  int
	}{
		{
			name:  "full name match plus token",
			query: "pizza",
			store: models.Store{Name: "Pizza Palace", Category: "restaurant"},
			want:  120, // contains full query (100) + token in name (20)
		},
		{
			name:  "token in name and category",
			query: "italian pizza",
			store: models.Store{Name: "Pizza Palace", Category: "italian restaurant"},
			want:  30, // "pizza" in name (20) + "italian" in category (10)
		},
		{
			name:  "category only",
			query: "restaurant",
			store: models.Store{Name: "Mario's", Category: "restaurant"},
			want:  10,
		},
		{
			name:  "no overlap",
			query: "pharmacy",
			store: models.Store{Name: "Pizza Palace", Category: "restaurant"},
			want:  0,
		},
		{
			name:  "empty query",
			query: "   ",
			store: models.Store{Name: "Pizza Palace", Category: "restaurant"},
			want:  0,
		},
		{
			name:  "type counts as category",
			query: "grocery",
			store: models.Store{Name: "Corner Shop", StoreType: "grocery"},
			want:  10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RelevanceScore(tt.query, &tt.store); got != tt.want {
				t.Errorf("RelevanceScore(%q, %q) = %d, want %d", tt.query, tt.store.Name, got, tt.want)
			}
		})
	}
}

func TestSortByRelevance(t *testing.T) {
	stores := []models.Store{
		{Name: "Corner Shop", Category: "grocery"},
		{Name: "Pizza Palace", Category: "restaurant"},
		{Name: "Pizza Express", Category: "restaurant"},
	}

	SortByRelevance("pizza", stores)

	if stores[0].Name != "Pizza Palace" && stores[0].Name != "Pizza Express" {
		t.Errorf("expected a pizza store first, got %s", stores[0].Name)
	}
	if stores[2].Name != "Corner Shop" {
		t.Errorf("expected the non-match last, got %s", stores[2].Name)
	}

	// Equal scores keep their source order.
	if stores[0].Name != "Pizza Palace" {
		t.Errorf("sort must be stable, got %s first", stores[0].Name)
	}
}
