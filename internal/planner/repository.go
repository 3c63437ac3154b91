package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"family-meal-planner/internal/apperr"
	"family-meal-planner/internal/diner"

	"github.com/google/uuid"
)

// Repository persists menu plans and meals.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// mealContext is a meal row together with the owning plan's identity and
// status, used for ownership and immutability guards.
type mealContext struct {
	Meal       Meal
	UserID     uuid.UUID
	PlanStatus PlanStatus
}

// CreatePlanWithMeals inserts the plan and all of its meals in one
// transaction so a failed creation leaves no orphan rows behind.
func (r *Repository) CreatePlanWithMeals(ctx context.Context, plan *MenuPlan) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Database(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO menu_plans (id, user_id, start_date, end_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		plan.ID.String(), plan.UserID.String(), plan.StartDate, plan.EndDate, string(plan.Status), plan.CreatedAt,
	)
	if err != nil {
		return apperr.Database(err, "failed to insert menu plan")
	}

	for i := range plan.Meals {
		m := &plan.Meals[i]
		dishesJSON, err := json.Marshal(m.Dishes)
		if err != nil {
			return apperr.Database(err, "failed to marshal dishes")
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO meals (id, menu_plan_id, day_of_week, meal_type, position, has_custom_diners, dishes, created_at)
			VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
			m.ID.String(), plan.ID.String(), m.DayOfWeek, string(m.MealType), i, string(dishesJSON), m.CreatedAt,
		)
		if err != nil {
			return apperr.Database(err, "failed to insert meal")
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Database(err, "failed to commit menu plan")
	}
	return nil
}

// GetPlan retrieves a plan with its meals, scoped to the owning user.
func (r *Repository) GetPlan(ctx context.Context, userID, planID uuid.UUID) (*MenuPlan, error) {
	var p MenuPlan
	var id, uid, status string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, start_date, end_date, status, created_at
		FROM menu_plans WHERE id = ? AND user_id = ?`,
		planID.String(), userID.String(),
	).Scan(&id, &uid, &p.StartDate, &p.EndDate, &status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("menu plan not found")
		}
		return nil, apperr.Database(err, "failed to get menu plan")
	}
	p.ID = uuid.MustParse(id)
	p.UserID = uuid.MustParse(uid)
	p.Status = PlanStatus(status)

	p.Meals, err = r.listMeals(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPlans returns a user's plans, newest first, without meals.
func (r *Repository) ListPlans(ctx context.Context, userID uuid.UUID) ([]MenuPlan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, start_date, end_date, status, created_at
		FROM menu_plans WHERE user_id = ? ORDER BY created_at DESC`,
		userID.String())
	if err != nil {
		return nil, apperr.Database(err, "failed to list menu plans")
	}
	defer rows.Close()

	var plans []MenuPlan
	for rows.Next() {
		var p MenuPlan
		var id, uid, status string
		if err := rows.Scan(&id, &uid, &p.StartDate, &p.EndDate, &status, &p.CreatedAt); err != nil {
			return nil, apperr.Database(err, "failed to scan menu plan")
		}
		p.ID = uuid.MustParse(id)
		p.UserID = uuid.MustParse(uid)
		p.Status = PlanStatus(status)
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Database(err, "failed to read menu plans")
	}
	return plans, nil
}

// DeletePlan removes a plan; meals, diner overrides and shopping lists go
// away by cascade.
func (r *Repository) DeletePlan(ctx context.Context, userID, planID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM menu_plans WHERE id = ? AND user_id = ?`,
		planID.String(), userID.String())
	if err != nil {
		return apperr.Database(err, "failed to delete menu plan")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Database(err, "failed to delete menu plan")
	}
	if affected == 0 {
		return apperr.NotFound("menu plan not found")
	}
	return nil
}

// ConfirmPlan transitions a draft plan to confirmed. The transition happens
// once; confirming an already-confirmed plan is rejected.
func (r *Repository) ConfirmPlan(ctx context.Context, userID, planID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE menu_plans SET status = ? WHERE id = ? AND user_id = ? AND status = ?`,
		string(StatusConfirmed), planID.String(), userID.String(), string(StatusDraft))
	if err != nil {
		return apperr.Database(err, "failed to confirm menu plan")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Database(err, "failed to confirm menu plan")
	}
	if affected == 0 {
		// Either the plan does not exist for this user or it is already confirmed.
		if _, err := r.GetPlan(ctx, userID, planID); err != nil {
			return err
		}
		return apperr.Validation("menu plan is already confirmed")
	}
	return nil
}

// getMealContext loads a meal together with its owning plan's user and status.
func (r *Repository) getMealContext(ctx context.Context, mealID uuid.UUID) (*mealContext, error) {
	var mc mealContext
	var id, planID, uid, mealType, status, dishesJSON string
	var customFlag int
	err := r.db.QueryRowContext(ctx, `
		SELECT m.id, m.menu_plan_id, mp.user_id, mp.status, m.day_of_week, m.meal_type, m.has_custom_diners, m.dishes, m.created_at
		FROM meals m
		JOIN menu_plans mp ON mp.id = m.menu_plan_id
		WHERE m.id = ?`,
		mealID.String(),
	).Scan(&id, &planID, &uid, &status, &mc.Meal.DayOfWeek, &mealType, &customFlag, &dishesJSON, &mc.Meal.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("meal not found")
		}
		return nil, apperr.Database(err, "failed to get meal")
	}

	mc.Meal.ID = uuid.MustParse(id)
	mc.Meal.MenuPlanID = uuid.MustParse(planID)
	mc.Meal.MealType = diner.MealType(mealType)
	mc.Meal.HasCustomDiners = customFlag != 0
	mc.UserID = uuid.MustParse(uid)
	mc.PlanStatus = PlanStatus(status)

	if err := json.Unmarshal([]byte(dishesJSON), &mc.Meal.Dishes); err != nil {
		return nil, apperr.Database(err, "failed to unmarshal dishes")
	}
	return &mc, nil
}

// UpdateMealDishes replaces a meal's dish list.
func (r *Repository) UpdateMealDishes(ctx context.Context, mealID uuid.UUID, dishes []Dish) error {
	dishesJSON, err := json.Marshal(dishes)
	if err != nil {
		return apperr.Database(err, "failed to marshal dishes")
	}
	res, err := r.db.ExecContext(ctx, `UPDATE meals SET dishes = ? WHERE id = ?`,
		string(dishesJSON), mealID.String())
	if err != nil {
		return apperr.Database(err, "failed to update meal dishes")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Database(err, "failed to update meal dishes")
	}
	if affected == 0 {
		return apperr.NotFound("meal not found")
	}
	return nil
}

func (r *Repository) listMeals(ctx context.Context, planID uuid.UUID) ([]Meal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, menu_plan_id, day_of_week, meal_type, has_custom_diners, dishes, created_at
		FROM meals WHERE menu_plan_id = ? ORDER BY position`,
		planID.String())
	if err != nil {
		return nil, apperr.Database(err, "failed to list meals")
	}
	defer rows.Close()

	var meals []Meal
	for rows.Next() {
		var m Meal
		var id, pid, mealType, dishesJSON string
		var customFlag int
		if err := rows.Scan(&id, &pid, &m.DayOfWeek, &mealType, &customFlag, &dishesJSON, &m.CreatedAt); err != nil {
			return nil, apperr.Database(err, "failed to scan meal")
		}
		m.ID = uuid.MustParse(id)
		m.MenuPlanID = uuid.MustParse(pid)
		m.MealType = diner.MealType(mealType)
		m.HasCustomDiners = customFlag != 0
		if err := json.Unmarshal([]byte(dishesJSON), &m.Dishes); err != nil {
			return nil, apperr.Database(err, "failed to unmarshal dishes")
		}
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Database(err, "failed to read meals")
	}
	return meals, nil
}
