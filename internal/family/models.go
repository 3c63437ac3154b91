package family

import (
	"strings"
	"time"

	"family-meal-planner/internal/apperr"

	"github.com/google/uuid"
)

const (
	maxNameLength        = 100
	maxPreferencesLength = 500
)

// User is an account that owns family members, menu plans and bulk
// diner preferences.
type User struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Name          string    `json:"name"`
	DefaultDiners int       `json:"default_diners"`
	Preferences   string    `json:"preferences"`
	CreatedAt     time.Time `json:"created_at"`
}

// Member is a person in a user's household who can be assigned to meals.
type Member struct {
	ID                  uuid.UUID `json:"id"`
	UserID              uuid.UUID `json:"user_id"`
	Name                string    `json:"name"`
	Preferences         string    `json:"preferences"`
	DietaryRestrictions string    `json:"dietary_restrictions"`
	CreatedAt           time.Time `json:"created_at"`
}

// ValidateMember checks the field constraints shared by create and update.
func ValidateMember(name, preferences, dietaryRestrictions string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("member name is required")
	}
	if len(name) > maxNameLength {
		return apperr.Validation("member name must be at most %d characters", maxNameLength)
	}
	if len(preferences) > maxPreferencesLength {
		return apperr.Validation("member preferences must be at most %d characters", maxPreferencesLength)
	}
	if len(dietaryRestrictions) > maxPreferencesLength {
		return apperr.Validation("member dietary restrictions must be at most %d characters", maxPreferencesLength)
	}
	return nil
}
