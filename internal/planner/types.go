package planner

import (
	"time"

	"family-meal-planner/internal/apperr"
	"family-meal-planner/internal/diner"

	"github.com/google/uuid"
)

// PlanStatus represents the lifecycle state of a menu plan.
type PlanStatus string

const (
	StatusDraft     PlanStatus = "draft"
	StatusConfirmed PlanStatus = "confirmed"
)

// Course tags a dish's place in the meal.
type Course string

const (
	CourseStarter Course = "starter"
	CourseMain    Course = "main"
	CourseDessert Course = "dessert"
)

const (
	minDishCount     = 1
	maxDishCount     = 4
	defaultDishCount = 2
	maxPlanDays      = 14
)

// Dish is a single generated or imported dish on a meal.
type Dish struct {
	Name        string `json:"name"`
	Course      Course `json:"course"`
	Description string `json:"description,omitempty"`
}

// Meal is one meal slot in a menu plan. Diners are never stored on the meal
// row itself; they are resolved through the diner store on every read.
type Meal struct {
	ID              uuid.UUID      `json:"id"`
	MenuPlanID      uuid.UUID      `json:"menu_plan_id"`
	DayOfWeek       string         `json:"day_of_week"`
	MealType        diner.MealType `json:"meal_type"`
	HasCustomDiners bool           `json:"has_custom_diners"`
	Dishes          []Dish         `json:"dishes"`
	CreatedAt       time.Time      `json:"created_at"`
}

// MenuPlan is a dated set of meals. Once confirmed it is immutable.
type MenuPlan struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	Status    PlanStatus `json:"status"`
	Meals     []Meal     `json:"meals,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// DinerSelection is the tagged creation-time diner parameter: either a bare
// head count or an explicit member list, never both. It only informs dish
// generation at plan creation; meals are always created in the bulk state.
type DinerSelection struct {
	Count     int         `json:"count,omitempty"`
	MemberIDs []uuid.UUID `json:"member_ids,omitempty"`
}

// Validate rejects a selection that sets both variants or an out-of-range
// count. A zero count with no member list means "no selection" and is valid;
// sizing then falls through to bulk preferences or the user default.
func (s DinerSelection) Validate() error {
	if s.Count > 0 && len(s.MemberIDs) > 0 {
		return apperr.Validation("diner selection must be either a count or an explicit member list, not both")
	}
	if s.Count < 0 {
		return apperr.Validation("diner count must not be negative")
	}
	if s.Count > 20 || len(s.MemberIDs) > 20 {
		return apperr.Validation("at most 20 diners may be selected")
	}
	return nil
}

// IsZero reports whether no selection was made at all.
func (s DinerSelection) IsZero() bool {
	return s.Count == 0 && len(s.MemberIDs) == 0
}

// CreatePlanInput carries the parameters for plan generation.
type CreatePlanInput struct {
	StartDate time.Time
	EndDate   time.Time
	MealTypes []diner.MealType
	DishCount int
	Diners    DinerSelection
}

func (in *CreatePlanInput) validate() error {
	if in.EndDate.Before(in.StartDate) {
		return apperr.Validation("end date must not be before start date")
	}
	days := int(in.EndDate.Sub(in.StartDate).Hours()/24) + 1
	if days > maxPlanDays {
		return apperr.Validation("a plan may cover at most %d days", maxPlanDays)
	}
	if len(in.MealTypes) == 0 {
		return apperr.Validation("at least one meal type is required")
	}
	seen := map[diner.MealType]bool{}
	for _, mt := range in.MealTypes {
		if _, err := diner.ParseMealType(string(mt)); err != nil {
			return err
		}
		if seen[mt] {
			return apperr.Validation("duplicate meal type '%s'", mt)
		}
		seen[mt] = true
	}
	if in.DishCount == 0 {
		in.DishCount = defaultDishCount
	}
	if in.DishCount < minDishCount || in.DishCount > maxDishCount {
		return apperr.Validation("dish count must be between %d and %d", minDishCount, maxDishCount)
	}
	return in.Diners.Validate()
}

// normalizeCourse coerces whatever course label the model produced into one
// of the three valid values.
func normalizeCourse(raw string) Course {
	switch Course(raw) {
	case CourseStarter, CourseMain, CourseDessert:
		return Course(raw)
	default:
		return CourseMain
	}
}
