package models

// UncategorizedName is the display fallback for expenses whose category
// cannot be resolved. Also used by the OCR service as the "no suggestion"
// sentinel.
const UncategorizedName = "Sin categoría"

// Category is reference data: slowly changing, cached with a TTL.
type Category struct {
	DefaultModel
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Uncategorized returns the fallback category used when a category ID
// does not resolve. It carries no ID on purpose.
func Uncategorized() Category {
	return Category{
		Name:  UncategorizedName,
		Icon:  "pricetag-outline",
		Color: "#9E9E9E",
	}
}
