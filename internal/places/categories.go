package places

// typeToCategory maps the provider's place-type taxonomy onto the local
// category set. First matching type wins; unmapped types fall back to
// CategoryOther.
var typeToCategory = map[string]string{
	"restaurant":             "restaurant",
	"meal_takeaway":          "restaurant",
	"meal_delivery":          "restaurant",
	"food":                   "restaurant",
	"cafe":                   "cafe",
	"bakery":                 "cafe",
	"bar":                    "bar",
	"night_club":             "bar",
	"supermarket":            "grocery",
	"grocery_or_supermarket": "grocery",
	"convenience_store":      "grocery",
	"pharmacy":               "pharmacy",
	"drugstore":              "pharmacy",
	"hospital":               "health",
	"doctor":                 "health",
	"dentist":                "health",
	"clothing_store":         "clothing",
	"shoe_store":             "clothing",
	"jewelry_store":          "clothing",
	"electronics_store":      "electronics",
	"hardware_store":         "hardware",
	"home_goods_store":       "home",
	"furniture_store":        "home",
	"book_store":             "books",
	"pet_store":              "pets",
	"veterinary_care":        "pets",
	"gas_station":            "automotive",
	"car_repair":             "automotive",
	"car_dealer":             "automotive",
	"gym":                    "fitness",
	"beauty_salon":           "beauty",
	"hair_care":              "beauty",
	"spa":                    "beauty",
	"bank":                   "finance",
	"atm":                    "finance",
	"lodging":                "lodging",
	"shopping_mall":          "shopping",
	"department_store":       "shopping",
	"store":                  "shopping",
	"florist":                "florist",
	"liquor_store":           "liquor",
}

// CategoryOther is assigned when no provider type maps to a local category.
const CategoryOther = "other"

// MapPlaceTypes resolves a provider type list to a local category.
func MapPlaceTypes(types []string) string {
	for _, t := range types {
		if category, ok := typeToCategory[t]; ok {
			return category
		}
	}
	return CategoryOther
}
