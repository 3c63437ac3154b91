package diner

import (
	"context"
	"database/sql"
	"errors"

	"family-meal-planner/internal/apperr"
	"family-meal-planner/internal/family"

	"github.com/google/uuid"
)

// ResolvedMeal is a meal record with its effective diner list populated.
type ResolvedMeal struct {
	ID              uuid.UUID       `json:"id"`
	MenuPlanID      uuid.UUID       `json:"menu_plan_id"`
	UserID          uuid.UUID       `json:"user_id"`
	DayOfWeek       string          `json:"day_of_week"`
	MealType        MealType        `json:"meal_type"`
	HasCustomDiners bool            `json:"has_custom_diners"`
	Diners          []family.Member `json:"diners"`
}

// ResolveMealDiners is the single source of truth for "who eats this meal".
//
// has_custom_diners=1: the diners are the meal's own meal_diners rows, a
// snapshot of what was explicitly chosen, unaffected by later bulk changes.
// has_custom_diners=0: the diners are whatever the user's bulk selection for
// this meal type is right now; nothing is cached, so editing the bulk
// selection retroactively changes every non-overridden meal.
//
// An empty diner list is a valid result and must propagate as zero diners,
// never be defaulted to one.
func (s *Store) ResolveMealDiners(ctx context.Context, mealID uuid.UUID) (*ResolvedMeal, error) {
	var m ResolvedMeal
	var id, planID, userID, mealType string
	var customFlag int
	err := s.db.QueryRowContext(ctx, `
		SELECT m.id, m.menu_plan_id, mp.user_id, m.day_of_week, m.meal_type, m.has_custom_diners
		FROM meals m
		JOIN menu_plans mp ON mp.id = m.menu_plan_id
		WHERE m.id = ?`,
		mealID.String(),
	).Scan(&id, &planID, &userID, &m.DayOfWeek, &mealType, &customFlag)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("meal not found")
		}
		return nil, apperr.Database(err, "failed to load meal")
	}

	m.ID = uuid.MustParse(id)
	m.MenuPlanID = uuid.MustParse(planID)
	m.UserID = uuid.MustParse(userID)
	m.MealType = MealType(mealType)
	m.HasCustomDiners = customFlag != 0

	if m.HasCustomDiners {
		m.Diners, err = s.GetMealDiners(ctx, mealID)
	} else {
		m.Diners, err = s.resolveBulk(ctx, m.UserID, m.MealType)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// resolveBulk fetches the member records behind the live bulk selection.
func (s *Store) resolveBulk(ctx context.Context, userID uuid.UUID, mealType MealType) ([]family.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fm.id, fm.user_id, fm.name, fm.preferences, fm.dietary_restrictions, fm.created_at
		FROM bulk_diner_preferences bp
		JOIN family_members fm ON fm.id = bp.family_member_id
		WHERE bp.user_id = ? AND bp.meal_type = ?
		ORDER BY fm.id`,
		userID.String(), string(mealType))
	if err != nil {
		return nil, apperr.Database(err, "failed to resolve bulk diners")
	}
	defer rows.Close()
	return scanMembers(rows)
}
