package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"family-meal-planner/internal/apperr"

	"github.com/google/uuid"
)

// Repository handles persistence of shopping lists.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save stores a shopping list for a plan, replacing any previous one. The
// delete and insert commit together so readers never see the plan without a
// list mid-replace.
func (r *Repository) Save(ctx context.Context, list *ShoppingList) error {
	itemsJSON, err := json.Marshal(list.Items)
	if err != nil {
		return apperr.Database(err, "failed to marshal shopping list items")
	}
	if list.ID == uuid.Nil {
		list.ID = uuid.New()
	}
	list.CreatedAt = time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Database(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM shopping_lists WHERE menu_plan_id = ?`, list.MenuPlanID.String())
	if err != nil {
		return apperr.Database(err, "failed to replace shopping list")
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO shopping_lists (id, menu_plan_id, items, created_at)
		VALUES (?, ?, ?, ?)`,
		list.ID.String(), list.MenuPlanID.String(), string(itemsJSON), list.CreatedAt)
	if err != nil {
		return apperr.Database(err, "failed to insert shopping list")
	}

	if err := tx.Commit(); err != nil {
		return apperr.Database(err, "failed to commit shopping list")
	}
	return nil
}

// GetByPlanID retrieves the shopping list for a menu plan.
func (r *Repository) GetByPlanID(ctx context.Context, menuPlanID uuid.UUID) (*ShoppingList, error) {
	var list ShoppingList
	var id, planID, itemsJSON string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, menu_plan_id, items, created_at
		FROM shopping_lists WHERE menu_plan_id = ?`,
		menuPlanID.String(),
	).Scan(&id, &planID, &itemsJSON, &list.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("no shopping list for this plan")
		}
		return nil, apperr.Database(err, "failed to get shopping list")
	}

	list.ID = uuid.MustParse(id)
	list.MenuPlanID = uuid.MustParse(planID)
	if err := json.Unmarshal([]byte(itemsJSON), &list.Items); err != nil {
		return nil, apperr.Database(err, "failed to unmarshal shopping list items")
	}
	return &list, nil
}
