package shopping

import (
	"time"

	"github.com/google/uuid"
)

// Item is a single ingredient with a sized quantity.
type Item struct {
	Ingredient string  `json:"ingredient"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
}

// ShoppingList is the generated list for one confirmed menu plan.
type ShoppingList struct {
	ID         uuid.UUID `json:"id"`
	MenuPlanID uuid.UUID `json:"menu_plan_id"`
	Items      []Item    `json:"items"`
	CreatedAt  time.Time `json:"created_at"`
}
