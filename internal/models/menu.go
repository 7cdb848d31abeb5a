package models

// Category groups menu items
type Category string

// Category constants
const (
	CategoryStarter Category = "starter"
	CategoryMain    Category = "main"
	CategoryDessert Category = "dessert"
	CategoryDrink   Category = "drink"
)

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case CategoryStarter, CategoryMain, CategoryDessert, CategoryDrink:
		return true
	}
	return false
}

// MenuItem is a catalog entry as handed over by the menu UI. Price is the
// localized display text, e.g. "8.50€".
type MenuItem struct {
	ID          string   `json:"id" binding:"required"`
	Name        string   `json:"name" binding:"required"`
	Price       string   `json:"price" binding:"required"`
	Description string   `json:"description"`
	ImageRef    string   `json:"image_ref,omitempty"`
	Category    Category `json:"category" binding:"required,oneof=starter main dessert drink"`
}
