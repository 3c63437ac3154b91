package diner

import (
	"family-meal-planner/internal/apperr"
)

// MealType identifies which meal of the day a selection or meal refers to.
type MealType string

const (
	MealTypeLunch  MealType = "lunch"
	MealTypeDinner MealType = "dinner"
)

// MealTypes lists all valid meal types in serving order.
var MealTypes = []MealType{MealTypeLunch, MealTypeDinner}

// ParseMealType validates a raw meal type string.
func ParseMealType(s string) (MealType, error) {
	switch MealType(s) {
	case MealTypeLunch, MealTypeDinner:
		return MealType(s), nil
	default:
		return "", apperr.Validation("invalid meal type '%s': must be 'lunch' or 'dinner'", s)
	}
}
