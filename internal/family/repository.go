package family

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"family-meal-planner/internal/apperr"

	"github.com/google/uuid"
)

// Repository provides access to users and family members.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a new user account.
func (r *Repository) CreateUser(ctx context.Context, user *User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, default_diners, preferences, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID.String(), user.Email, user.PasswordHash, user.Name, user.DefaultDiners, user.Preferences, user.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperr.Validation("email '%s' is already registered", user.Email)
		}
		return apperr.Database(err, "failed to create user")
	}
	return nil
}

// GetUserByEmail retrieves a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, default_diners, preferences, created_at
		FROM users WHERE email = ?`, email))
}

// GetUser retrieves a user by id.
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, default_diners, preferences, created_at
		FROM users WHERE id = ?`, id.String()))
}

func (r *Repository) scanUser(row *sql.Row) (*User, error) {
	var u User
	var id string
	err := row.Scan(&id, &u.Email, &u.PasswordHash, &u.Name, &u.DefaultDiners, &u.Preferences, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Database(err, "failed to get user")
	}
	u.ID = uuid.MustParse(id)
	return &u, nil
}

// CreateMember inserts a new family member for a user.
func (r *Repository) CreateMember(ctx context.Context, member *Member) error {
	if err := ValidateMember(member.Name, member.Preferences, member.DietaryRestrictions); err != nil {
		return err
	}
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	member.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO family_members (id, user_id, name, preferences, dietary_restrictions, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		member.ID.String(), member.UserID.String(), member.Name, member.Preferences, member.DietaryRestrictions, member.CreatedAt,
	)
	if err != nil {
		return apperr.Database(err, "failed to create family member")
	}
	return nil
}

// ListMembers returns all family members of a user ordered by id.
func (r *Repository) ListMembers(ctx context.Context, userID uuid.UUID) ([]Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, preferences, dietary_restrictions, created_at
		FROM family_members WHERE user_id = ? ORDER BY id`, userID.String())
	if err != nil {
		return nil, apperr.Database(err, "failed to list family members")
	}
	defer rows.Close()
	return scanMembers(rows)
}

// GetMember retrieves a family member scoped to its owning user.
func (r *Repository) GetMember(ctx context.Context, userID, memberID uuid.UUID) (*Member, error) {
	var m Member
	var id, uid string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, preferences, dietary_restrictions, created_at
		FROM family_members WHERE id = ? AND user_id = ?`,
		memberID.String(), userID.String(),
	).Scan(&id, &uid, &m.Name, &m.Preferences, &m.DietaryRestrictions, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("family member not found")
		}
		return nil, apperr.Database(err, "failed to get family member")
	}
	m.ID = uuid.MustParse(id)
	m.UserID = uuid.MustParse(uid)
	return &m, nil
}

// GetMembersByIDs retrieves the given members, verifying every id belongs to
// the user. A missing or foreign id fails the whole lookup.
func (r *Repository) GetMembersByIDs(ctx context.Context, userID uuid.UUID, memberIDs []uuid.UUID) ([]Member, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(memberIDs))
	args := make([]any, 0, len(memberIDs)+1)
	args = append(args, userID.String())
	for i, id := range memberIDs {
		placeholders[i] = "?"
		args = append(args, id.String())
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, name, preferences, dietary_restrictions, created_at
		FROM family_members WHERE user_id = ? AND id IN (%s) ORDER BY id`,
		strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Database(err, "failed to get family members")
	}
	defer rows.Close()

	members, err := scanMembers(rows)
	if err != nil {
		return nil, err
	}
	if len(members) != len(dedupeIDs(memberIDs)) {
		return nil, apperr.NotFound("one or more family members not found")
	}
	return members, nil
}

// UpdateMember updates a family member's editable fields.
func (r *Repository) UpdateMember(ctx context.Context, member *Member) error {
	if err := ValidateMember(member.Name, member.Preferences, member.DietaryRestrictions); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE family_members SET name = ?, preferences = ?, dietary_restrictions = ?
		WHERE id = ? AND user_id = ?`,
		member.Name, member.Preferences, member.DietaryRestrictions,
		member.ID.String(), member.UserID.String(),
	)
	if err != nil {
		return apperr.Database(err, "failed to update family member")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Database(err, "failed to update family member")
	}
	if affected == 0 {
		return apperr.NotFound("family member not found")
	}
	return nil
}

// DeleteMember removes a family member. Deletion is blocked while any meal
// still references the member in a custom diner set, so a frozen override can
// never silently lose a diner. Bulk preference rows go away by cascade.
func (r *Repository) DeleteMember(ctx context.Context, userID, memberID uuid.UUID) error {
	var refs int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM meal_diners WHERE family_member_id = ?`,
		memberID.String(),
	).Scan(&refs)
	if err != nil {
		return apperr.Database(err, "failed to check member references")
	}
	if refs > 0 {
		return apperr.Validation("family member is part of %d meal(s) with custom diners; update those meals first", refs)
	}

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM family_members WHERE id = ? AND user_id = ?`,
		memberID.String(), userID.String(),
	)
	if err != nil {
		return apperr.Database(err, "failed to delete family member")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Database(err, "failed to delete family member")
	}
	if affected == 0 {
		return apperr.NotFound("family member not found")
	}
	return nil
}

func scanMembers(rows *sql.Rows) ([]Member, error) {
	var members []Member
	for rows.Next() {
		var m Member
		var id, uid string
		if err := rows.Scan(&id, &uid, &m.Name, &m.Preferences, &m.DietaryRestrictions, &m.CreatedAt); err != nil {
			return nil, apperr.Database(err, "failed to scan family member")
		}
		m.ID = uuid.MustParse(id)
		m.UserID = uuid.MustParse(uid)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Database(err, "failed to read family members")
	}
	return members, nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
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
