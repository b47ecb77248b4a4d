package places

import "testing"

func TestMapPlaceTypes(t *testing.T) {
	tests := []struct {
		name  string
		types []string
		want  string
	}{
		{"first match wins", []string{"supermarket", "store"}, "grocery"},
		{"skips unmapped types", []string{"point_of_interest", "cafe"}, "cafe"},
		{"restaurant", []string{"restaurant", "food"}, "restaurant"},
		{"generic store", []string{"store"}, "shopping"},
		{"nothing mapped", []string{"point_of_interest", "establishment"}, CategoryOther},
		{"empty list", nil, CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapPlaceTypes(tt.types); got != tt.want {
				t.Errorf("MapPlaceTypes(%v) = %q, want %q", tt.types, got, tt.want)
			}
		})
	}
}
