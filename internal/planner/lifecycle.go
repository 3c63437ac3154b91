package planner

import (
	"context"
	"time"

	"family-meal-planner/internal/apperr"
	"family-meal-planner/internal/clipper"
	"family-meal-planner/internal/diner"
	"family-meal-planner/internal/family"
	"family-meal-planner/internal/llm"
	"family-meal-planner/internal/metrics"
	"family-meal-planner/internal/shared"

	"github.com/google/uuid"
)

// Manager orchestrates the meal lifecycle: plan creation, per-meal diner
// overrides, dish regeneration, revert-to-bulk and confirmation.
//
// Per meal there are two states. Bulk (has_custom_diners=false): diners come
// from the user's live bulk selection. Custom (has_custom_diners=true):
// diners are the meal's own frozen override. All mutating transitions are
// rejected once the owning plan is confirmed.
type Manager struct {
	plans        *Repository
	members      *family.Repository
	diners       *diner.Store
	textGen      llm.TextGenerator
	clip         *clipper.Clipper
	metricsStore *metrics.Store
}

// NewManager creates a new Manager. metricsStore and clip may be nil, which
// disables usage recording and dish import respectively.
func NewManager(
	plans *Repository,
	members *family.Repository,
	diners *diner.Store,
	textGen llm.TextGenerator,
	clip *clipper.Clipper,
	metricsStore *metrics.Store,
) *Manager {
	return &Manager{
		plans:        plans,
		members:      members,
		diners:       diners,
		textGen:      textGen,
		clip:         clip,
		metricsStore: metricsStore,
	}
}

func (m *Manager) recordMetrics(meta shared.GenerationMeta) {
	if m.metricsStore == nil {
		return
	}
	// Metrics are best-effort; a failed insert never fails the operation.
	_ = m.metricsStore.RecordMeta(meta)
}

// CreatePlan generates a draft plan with one meal per (day, meal type).
// Every meal starts in the bulk state; the diner list used here only sizes
// the generation prompt and is never locked in. All dishes are generated
// before anything is persisted, so an AI failure aborts the whole creation
// without leaving a partial plan behind.
func (m *Manager) CreatePlan(ctx context.Context, userID uuid.UUID, input CreatePlanInput) (*MenuPlan, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	user, err := m.members.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Normalize the creation-time diner selection to a single list up front.
	var selected []dinerInfo
	if len(input.Diners.MemberIDs) > 0 {
		members, err := m.members.GetMembersByIDs(ctx, userID, input.Diners.MemberIDs)
		if err != nil {
			return nil, err
		}
		selected = toDinerInfo(members)
	} else if input.Diners.Count > 0 {
		selected = anonymousDiners(input.Diners.Count)
	}

	plan := &MenuPlan{
		ID:        uuid.New(),
		UserID:    userID,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Status:    StatusDraft,
		CreatedAt: time.Now().UTC(),
	}

	for day := input.StartDate; !day.After(input.EndDate); day = day.AddDate(0, 0, 1) {
		for _, mealType := range input.MealTypes {
			diners := selected
			if diners == nil {
				diners, err = m.promptDiners(ctx, userID, mealType, user.DefaultDiners)
				if err != nil {
					return nil, err
				}
			}

			dishes, err := m.generateDishes(ctx, user.Preferences, diners, input.DishCount, day.Weekday().String(), mealType)
			if err != nil {
				return nil, err
			}

			plan.Meals = append(plan.Meals, Meal{
				ID:         uuid.New(),
				MenuPlanID: plan.ID,
				DayOfWeek:  day.Weekday().String(),
				MealType:   mealType,
				Dishes:     dishes,
				CreatedAt:  plan.CreatedAt,
			})
		}
	}

	if err := m.plans.CreatePlanWithMeals(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// promptDiners computes the diner list used to size a creation prompt: the
// live bulk selection if there is one, otherwise the user's default diner
// count as anonymous placeholders.
func (m *Manager) promptDiners(ctx context.Context, userID uuid.UUID, mealType diner.MealType, defaultDiners int) ([]dinerInfo, error) {
	ids, err := m.diners.GetBulkPreferences(ctx, userID, mealType)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		if defaultDiners < 1 {
			defaultDiners = 1
		}
		return anonymousDiners(defaultDiners), nil
	}
	members, err := m.members.GetMembersByIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	return toDinerInfo(members), nil
}

// GetPlan returns a plan with meals.
func (m *Manager) GetPlan(ctx context.Context, userID, planID uuid.UUID) (*MenuPlan, error) {
	return m.plans.GetPlan(ctx, userID, planID)
}

// ListPlans returns a user's plans without meals.
func (m *Manager) ListPlans(ctx context.Context, userID uuid.UUID) ([]MenuPlan, error) {
	return m.plans.ListPlans(ctx, userID)
}

// DeletePlan removes a plan and everything under it.
func (m *Manager) DeletePlan(ctx context.Context, userID, planID uuid.UUID) error {
	return m.plans.DeletePlan(ctx, userID, planID)
}

// ConfirmPlan transitions a draft plan to confirmed, irreversibly.
func (m *Manager) ConfirmPlan(ctx context.Context, userID, planID uuid.UUID) error {
	return m.plans.ConfirmPlan(ctx, userID, planID)
}

// UpdateMealDiners stores an explicit diner override for a meal (Bulk or
// Custom → Custom) and regenerates its dishes sized to the new set. The dish
// generation happens first: if the AI call fails, the meal keeps its previous
// diners, flag and dishes untouched.
func (m *Manager) UpdateMealDiners(ctx context.Context, userID, mealID uuid.UUID, memberIDs []uuid.UUID, dishCount int) (*Meal, error) {
	mc, err := m.mutableMeal(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}
	if len(memberIDs) == 0 {
		return nil, apperr.Validation("at least one diner is required")
	}

	members, err := m.members.GetMembersByIDs(ctx, userID, memberIDs)
	if err != nil {
		return nil, err
	}

	if dishCount == 0 {
		dishCount = len(mc.Meal.Dishes)
		if dishCount == 0 {
			dishCount = defaultDishCount
		}
	}
	if dishCount < minDishCount || dishCount > maxDishCount {
		return nil, apperr.Validation("dish count must be between %d and %d", minDishCount, maxDishCount)
	}

	user, err := m.members.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	dishes, err := m.generateDishes(ctx, user.Preferences, toDinerInfo(members), dishCount, mc.Meal.DayOfWeek, mc.Meal.MealType)
	if err != nil {
		return nil, err
	}

	if err := m.diners.MarkCustom(ctx, mealID, memberIDs); err != nil {
		return nil, err
	}
	if err := m.plans.UpdateMealDishes(ctx, mealID, dishes); err != nil {
		return nil, err
	}

	updated, err := m.plans.getMealContext(ctx, mealID)
	if err != nil {
		return nil, err
	}
	return &updated.Meal, nil
}

// RegenerateMeal re-generates a meal's dishes from its currently resolved
// diners without changing the flag or the stored diner set.
func (m *Manager) RegenerateMeal(ctx context.Context, userID, mealID uuid.UUID, dishCount int) (*Meal, error) {
	mc, err := m.mutableMeal(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}

	resolved, err := m.diners.ResolveMealDiners(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if len(resolved.Diners) == 0 {
		return nil, apperr.Validation("meal has no diners; set bulk preferences or custom diners first")
	}

	if dishCount == 0 {
		dishCount = len(mc.Meal.Dishes)
		if dishCount == 0 {
			dishCount = defaultDishCount
		}
	}
	if dishCount < minDishCount || dishCount > maxDishCount {
		return nil, apperr.Validation("dish count must be between %d and %d", minDishCount, maxDishCount)
	}

	user, err := m.members.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	dishes, err := m.generateDishes(ctx, user.Preferences, toDinerInfo(resolved.Diners), dishCount, mc.Meal.DayOfWeek, mc.Meal.MealType)
	if err != nil {
		return nil, err
	}
	if err := m.plans.UpdateMealDishes(ctx, mealID, dishes); err != nil {
		return nil, err
	}

	mc.Meal.Dishes = dishes
	return &mc.Meal, nil
}

// RevertMealToBulk clears a meal's override (Custom → Bulk). Dishes stay as
// they are until the next regenerate or update.
func (m *Manager) RevertMealToBulk(ctx context.Context, userID, mealID uuid.UUID) (*Meal, error) {
	if _, err := m.mutableMeal(ctx, userID, mealID); err != nil {
		return nil, err
	}
	if err := m.diners.RevertToBulk(ctx, mealID); err != nil {
		return nil, err
	}
	mc, err := m.plans.getMealContext(ctx, mealID)
	if err != nil {
		return nil, err
	}
	return &mc.Meal, nil
}

// ImportDish extracts a dish from a recipe URL and appends it to the meal.
func (m *Manager) ImportDish(ctx context.Context, userID, mealID uuid.UUID, url string) (*Meal, error) {
	if m.clip == nil {
		return nil, apperr.Validation("dish import is not enabled")
	}
	mc, err := m.mutableMeal(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}
	if len(mc.Meal.Dishes) >= maxDishCount {
		return nil, apperr.Validation("meal already has the maximum of %d dishes", maxDishCount)
	}

	extracted, meta, err := m.clip.ExtractDish(ctx, url)
	m.recordMetrics(meta)
	if err != nil {
		return nil, err
	}

	dishes := append(mc.Meal.Dishes, Dish{
		Name:        extracted.Name,
		Course:      normalizeCourse(extracted.Course),
		Description: extracted.Description,
	})
	if err := m.plans.UpdateMealDishes(ctx, mealID, dishes); err != nil {
		return nil, err
	}

	mc.Meal.Dishes = dishes
	return &mc.Meal, nil
}

// ResolveMeal returns the meal with its effective diners, for read paths.
func (m *Manager) ResolveMeal(ctx context.Context, userID, mealID uuid.UUID) (*diner.ResolvedMeal, error) {
	mc, err := m.plans.getMealContext(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if mc.UserID != userID {
		return nil, apperr.Forbidden("meal belongs to another user")
	}
	return m.diners.ResolveMealDiners(ctx, mealID)
}

// mutableMeal loads a meal and enforces the two guards shared by every
// mutating transition: ownership and draft status.
func (m *Manager) mutableMeal(ctx context.Context, userID, mealID uuid.UUID) (*mealContext, error) {
	mc, err := m.plans.getMealContext(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if mc.UserID != userID {
		return nil, apperr.Forbidden("meal belongs to another user")
	}
	if mc.PlanStatus == StatusConfirmed {
		return nil, apperr.Forbidden("menu plan is confirmed and can no longer be changed")
	}
	return mc, nil
}
