// Package diner owns the diner-resolution model: per-user bulk diner
// preferences, per-meal custom overrides, and the resolver that decides who
// eats a given meal.
//
// A meal with has_custom_diners=0 resolves against the live bulk selection
// for its (user, meal type); a meal with has_custom_diners=1 resolves against
// its own meal_diners rows, frozen at the moment the override was stored.
package diner

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"family-meal-planner/internal/apperr"
	"family-meal-planner/internal/family"

	"github.com/google/uuid"
)

const maxDinersPerSelection = 20

// Store persists bulk diner preferences and per-meal overrides.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetBulkPreferences returns the current default diner member ids for a
// (user, meal type), in stable id order. An empty result is a valid state
// meaning "no one eats this meal type by default".
func (s *Store) GetBulkPreferences(ctx context.Context, userID uuid.UUID, mealType MealType) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT family_member_id FROM bulk_diner_preferences
		WHERE user_id = ? AND meal_type = ?
		ORDER BY family_member_id`,
		userID.String(), string(mealType))
	if err != nil {
		return nil, apperr.Database(err, "failed to get bulk preferences")
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, apperr.Database(err, "failed to scan bulk preference")
		}
		ids = append(ids, uuid.MustParse(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Database(err, "failed to read bulk preferences")
	}
	return ids, nil
}

// SetBulkPreferences replaces the default diner set for a (user, meal type)
// wholesale. Duplicate ids collapse to one row; every id must belong to the
// user. The delete and reinsert happen in a single transaction so a
// concurrent reader never observes a half-replaced set.
func (s *Store) SetBulkPreferences(ctx context.Context, userID uuid.UUID, mealType MealType, memberIDs []uuid.UUID) error {
	memberIDs = dedupe(memberIDs)
	if len(memberIDs) > maxDinersPerSelection {
		return apperr.Validation("at most %d diners may be selected", maxDinersPerSelection)
	}
	if err := s.verifyOwnership(ctx, userID, memberIDs); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Database(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM bulk_diner_preferences WHERE user_id = ? AND meal_type = ?`,
		userID.String(), string(mealType))
	if err != nil {
		return apperr.Database(err, "failed to clear bulk preferences")
	}

	for _, id := range memberIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bulk_diner_preferences (user_id, meal_type, family_member_id)
			VALUES (?, ?, ?)`,
			userID.String(), string(mealType), id.String())
		if err != nil {
			return apperr.Database(err, "failed to insert bulk preference")
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Database(err, "failed to commit bulk preferences")
	}
	return nil
}

// DeleteBulkPreferences clears the default diner set for a (user, meal type).
func (s *Store) DeleteBulkPreferences(ctx context.Context, userID uuid.UUID, mealType MealType) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM bulk_diner_preferences WHERE user_id = ? AND meal_type = ?`,
		userID.String(), string(mealType))
	if err != nil {
		return apperr.Database(err, "failed to delete bulk preferences")
	}
	return nil
}

// GetMealDiners returns the family members explicitly attached to a meal via
// the meal_diners join table, in stable id order.
func (s *Store) GetMealDiners(ctx context.Context, mealID uuid.UUID) ([]family.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fm.id, fm.user_id, fm.name, fm.preferences, fm.dietary_restrictions, fm.created_at
		FROM meal_diners md
		JOIN family_members fm ON fm.id = md.family_member_id
		WHERE md.meal_id = ?
		ORDER BY fm.id`,
		mealID.String())
	if err != nil {
		return nil, apperr.Database(err, "failed to get meal diners")
	}
	defer rows.Close()
	return scanMembers(rows)
}

// MarkCustom stores an explicit diner set for a meal and flips it to the
// custom state. The meal_diners replace and the flag write commit together,
// so the meal is always either fully bulk or fully custom.
func (s *Store) MarkCustom(ctx context.Context, mealID uuid.UUID, memberIDs []uuid.UUID) error {
	memberIDs = dedupe(memberIDs)
	if len(memberIDs) == 0 {
		return apperr.Validation("at least one diner is required for a custom selection")
	}
	if len(memberIDs) > maxDinersPerSelection {
		return apperr.Validation("at most %d diners may be selected", maxDinersPerSelection)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Database(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := replaceMealDiners(ctx, tx, mealID, memberIDs); err != nil {
		return err
	}
	if err := setCustomFlag(ctx, tx, mealID, true); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperr.Database(err, "failed to commit custom diners")
	}
	return nil
}

// RevertToBulk clears a meal's override. The flag flip and the meal_diners
// delete commit together; subsequent resolution falls through to the live
// bulk selection.
func (s *Store) RevertToBulk(ctx context.Context, mealID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Database(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM meal_diners WHERE meal_id = ?`, mealID.String())
	if err != nil {
		return apperr.Database(err, "failed to clear meal diners")
	}
	if err := setCustomFlag(ctx, tx, mealID, false); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperr.Database(err, "failed to commit revert")
	}
	return nil
}

func replaceMealDiners(ctx context.Context, tx *sql.Tx, mealID uuid.UUID, memberIDs []uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM meal_diners WHERE meal_id = ?`, mealID.String())
	if err != nil {
		return apperr.Database(err, "failed to clear meal diners")
	}
	for _, id := range memberIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO meal_diners (meal_id, family_member_id) VALUES (?, ?)`,
			mealID.String(), id.String())
		if err != nil {
			return apperr.Database(err, "failed to insert meal diner")
		}
	}
	return nil
}

func setCustomFlag(ctx context.Context, tx *sql.Tx, mealID uuid.UUID, custom bool) error {
	flag := 0
	if custom {
		flag = 1
	}
	res, err := tx.ExecContext(ctx, `UPDATE meals SET has_custom_diners = ? WHERE id = ?`, flag, mealID.String())
	if err != nil {
		return apperr.Database(err, "failed to set custom diners flag")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Database(err, "failed to set custom diners flag")
	}
	if affected == 0 {
		return apperr.NotFound("meal not found")
	}
	return nil
}

func (s *Store) verifyOwnership(ctx context.Context, userID uuid.UUID, memberIDs []uuid.UUID) error {
	if len(memberIDs) == 0 {
		return nil
	}
	placeholders := make([]string, len(memberIDs))
	args := make([]any, 0, len(memberIDs)+1)
	args = append(args, userID.String())
	for i, id := range memberIDs {
		placeholders[i] = "?"
		args = append(args, id.String())
	}
	var count int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*) FROM family_members WHERE user_id = ? AND id IN (%s)`,
		strings.Join(placeholders, ", ")), args...,
	).Scan(&count)
	if err != nil {
		return apperr.Database(err, "failed to verify member ownership")
	}
	if count != len(memberIDs) {
		return apperr.NotFound("one or more family members not found")
	}
	return nil
}

func scanMembers(rows *sql.Rows) ([]family.Member, error) {
	var members []family.Member
	for rows.Next() {
		var m family.Member
		var id, uid string
		if err := rows.Scan(&id, &uid, &m.Name, &m.Preferences, &m.DietaryRestrictions, &m.CreatedAt); err != nil {
			return nil, apperr.Database(err, "failed to scan meal diner")
		}
		m.ID = uuid.MustParse(id)
		m.UserID = uuid.MustParse(uid)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Database(err, "failed to read meal diners")
	}
	return members, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	var out []uuid.UUID
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
