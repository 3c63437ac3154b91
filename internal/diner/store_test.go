package diner

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"family-meal-planner/internal/apperr"
	"family-meal-planner/internal/database"
	"family-meal-planner/internal/family"

	"github.com/google/uuid"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, repo *family.Repository, email string) *family.User {
	t.Helper()
	user := &family.User{Email: email, PasswordHash: "x", Name: "Test User", DefaultDiners: 2}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func seedMember(t *testing.T, repo *family.Repository, userID uuid.UUID, name string) *family.Member {
	t.Helper()
	m := &family.Member{UserID: userID, Name: name}
	if err := repo.CreateMember(context.Background(), m); err != nil {
		t.Fatalf("Failed to create member %s: %v", name, err)
	}
	return m
}

func seedMeal(t *testing.T, db *database.DB, userID uuid.UUID, mealType MealType) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	planID := uuid.New()
	_, err := db.SQL.ExecContext(ctx, `
		INSERT INTO menu_plans (id, user_id, start_date, end_date, status, created_at)
		VALUES (?, ?, ?, ?, 'draft', ?)`,
		planID.String(), userID.String(), time.Now(), time.Now(), time.Now())
	if err != nil {
		t.Fatalf("Failed to insert plan: %v", err)
	}
	mealID := uuid.New()
	_, err = db.SQL.ExecContext(ctx, `
		INSERT INTO meals (id, menu_plan_id, day_of_week, meal_type, has_custom_diners, dishes, created_at)
		VALUES (?, ?, 'Monday', ?, 0, '[]', ?)`,
		mealID.String(), planID.String(), string(mealType), time.Now())
	if err != nil {
		t.Fatalf("Failed to insert meal: %v", err)
	}
	return mealID
}

func memberIDs(members []family.Member) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestBulkPreferencesRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	members := family.NewRepository(db.SQL)
	store := NewStore(db.SQL)

	user := seedUser(t, members, "roundtrip@test.local")
	m1 := seedMember(t, members, user.ID, "Alice")
	m2 := seedMember(t, members, user.ID, "Bob")

	t.Run("SetThenGet", func(t *testing.T) {
		if err := store.SetBulkPreferences(ctx, user.ID, MealTypeLunch, []uuid.UUID{m1.ID, m2.ID}); err != nil {
			t.Fatalf("SetBulkPreferences failed: %v", err)
		}
		got, err := store.GetBulkPreferences(ctx, user.ID, MealTypeLunch)
		if err != nil {
			t.Fatalf("GetBulkPreferences failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Expected 2 member ids, got %d", len(got))
		}
	})

	t.Run("DuplicatesCollapse", func(t *testing.T) {
		if err := store.SetBulkPreferences(ctx, user.ID, MealTypeLunch, []uuid.UUID{m1.ID, m1.ID, m1.ID}); err != nil {
			t.Fatalf("SetBulkPreferences with duplicates failed: %v", err)
		}
		got, err := store.GetBulkPreferences(ctx, user.ID, MealTypeLunch)
		if err != nil {
			t.Fatalf("GetBulkPreferences failed: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("Expected duplicates to collapse to 1 row, got %d", len(got))
		}
		if got[0] != m1.ID {
			t.Errorf("Expected member %s, got %s", m1.ID, got[0])
		}
	})

	t.Run("ReplaceIsWholesale", func(t *testing.T) {
		if err := store.SetBulkPreferences(ctx, user.ID, MealTypeLunch, []uuid.UUID{m2.ID}); err != nil {
			t.Fatalf("SetBulkPreferences failed: %v", err)
		}
		got, _ := store.GetBulkPreferences(ctx, user.ID, MealTypeLunch)
		if len(got) != 1 || got[0] != m2.ID {
			t.Errorf("Expected only %s after replace, got %v", m2.ID, got)
		}
	})

	t.Run("EmptySetIsValid", func(t *testing.T) {
		if err := store.SetBulkPreferences(ctx, user.ID, MealTypeLunch, nil); err != nil {
			t.Fatalf("SetBulkPreferences with empty set failed: %v", err)
		}
		got, _ := store.GetBulkPreferences(ctx, user.ID, MealTypeLunch)
		if len(got) != 0 {
			t.Errorf("Expected empty set, got %v", got)
		}
	})

	t.Run("ForeignMemberRejected", func(t *testing.T) {
		other := seedUser(t, members, "other@test.local")
		foreign := seedMember(t, members, other.ID, "Mallory")
		err := store.SetBulkPreferences(ctx, user.ID, MealTypeLunch, []uuid.UUID{foreign.ID})
		if !apperr.IsKind(err, apperr.KindNotFound) {
			t.Errorf("Expected not_found for foreign member, got %v", err)
		}
	})
}

func TestBulkPreferencesIsolation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	members := family.NewRepository(db.SQL)
	store := NewStore(db.SQL)

	userA := seedUser(t, members, "a@test.local")
	userB := seedUser(t, members, "b@test.local")
	mA := seedMember(t, members, userA.ID, "Alice")
	mB := seedMember(t, members, userB.ID, "Bruno")

	if err := store.SetBulkPreferences(ctx, userB.ID, MealTypeLunch, []uuid.UUID{mB.ID}); err != nil {
		t.Fatalf("SetBulkPreferences for B failed: %v", err)
	}
	if err := store.SetBulkPreferences(ctx, userA.ID, MealTypeLunch, []uuid.UUID{mA.ID}); err != nil {
		t.Fatalf("SetBulkPreferences for A failed: %v", err)
	}

	got, err := store.GetBulkPreferences(ctx, userB.ID, MealTypeLunch)
	if err != nil {
		t.Fatalf("GetBulkPreferences for B failed: %v", err)
	}
	if len(got) != 1 || got[0] != mB.ID {
		t.Errorf("User A's write leaked into user B's preferences: %v", got)
	}
}

func TestResolveMealDiners(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	members := family.NewRepository(db.SQL)
	store := NewStore(db.SQL)

	user := seedUser(t, members, "resolve@test.local")
	m1 := seedMember(t, members, user.ID, "Alice")
	m2 := seedMember(t, members, user.ID, "Bob")
	mealID := seedMeal(t, db, user.ID, MealTypeLunch)

	t.Run("BulkIsLive", func(t *testing.T) {
		if err := store.SetBulkPreferences(ctx, user.ID, MealTypeLunch, []uuid.UUID{m1.ID}); err != nil {
			t.Fatalf("SetBulkPreferences failed: %v", err)
		}
		resolved, err := store.ResolveMealDiners(ctx, mealID)
		if err != nil {
			t.Fatalf("ResolveMealDiners failed: %v", err)
		}
		if resolved.HasCustomDiners {
			t.Error("Expected meal to be in the bulk state")
		}
		if len(resolved.Diners) != 1 || resolved.Diners[0].ID != m1.ID {
			t.Fatalf("Expected [Alice], got %v", memberIDs(resolved.Diners))
		}

		// Changing the bulk selection must be reflected immediately.
		if err := store.SetBulkPreferences(ctx, user.ID, MealTypeLunch, []uuid.UUID{m1.ID, m2.ID}); err != nil {
			t.Fatalf("SetBulkPreferences failed: %v", err)
		}
		resolved, err = store.ResolveMealDiners(ctx, mealID)
		if err != nil {
			t.Fatalf("ResolveMealDiners failed: %v", err)
		}
		if len(resolved.Diners) != 2 {
			t.Errorf("Expected live bulk resolution to see 2 diners, got %d", len(resolved.Diners))
		}
	})

	t.Run("CustomIsFrozen", func(t *testing.T) {
		if err := store.MarkCustom(ctx, mealID, []uuid.UUID{m2.ID}); err != nil {
			t.Fatalf("MarkCustom failed: %v", err)
		}

		// Bulk changes no longer affect this meal.
		if err := store.SetBulkPreferences(ctx, user.ID, MealTypeLunch, []uuid.UUID{m1.ID}); err != nil {
			t.Fatalf("SetBulkPreferences failed: %v", err)
		}
		resolved, err := store.ResolveMealDiners(ctx, mealID)
		if err != nil {
			t.Fatalf("ResolveMealDiners failed: %v", err)
		}
		if !resolved.HasCustomDiners {
			t.Error("Expected meal to be in the custom state")
		}
		if len(resolved.Diners) != 1 || resolved.Diners[0].ID != m2.ID {
			t.Errorf("Expected frozen [Bob], got %v", memberIDs(resolved.Diners))
		}
	})

	t.Run("RevertRestoresLiveness", func(t *testing.T) {
		if err := store.RevertToBulk(ctx, mealID); err != nil {
			t.Fatalf("RevertToBulk failed: %v", err)
		}
		if err := store.SetBulkPreferences(ctx, user.ID, MealTypeLunch, []uuid.UUID{m1.ID, m2.ID}); err != nil {
			t.Fatalf("SetBulkPreferences failed: %v", err)
		}
		resolved, err := store.ResolveMealDiners(ctx, mealID)
		if err != nil {
			t.Fatalf("ResolveMealDiners failed: %v", err)
		}
		if resolved.HasCustomDiners {
			t.Error("Expected meal back in the bulk state after revert")
		}
		if len(resolved.Diners) != 2 {
			t.Errorf("Expected revert to track the new bulk set of 2, got %d", len(resolved.Diners))
		}

		// meal_diners rows must be gone.
		leftover, err := store.GetMealDiners(ctx, mealID)
		if err != nil {
			t.Fatalf("GetMealDiners failed: %v", err)
		}
		if len(leftover) != 0 {
			t.Errorf("Expected no meal_diners rows after revert, got %d", len(leftover))
		}
	})

	t.Run("ZeroDinersIsValid", func(t *testing.T) {
		if err := store.DeleteBulkPreferences(ctx, user.ID, MealTypeLunch); err != nil {
			t.Fatalf("DeleteBulkPreferences failed: %v", err)
		}
		resolved, err := store.ResolveMealDiners(ctx, mealID)
		if err != nil {
			t.Fatalf("ResolveMealDiners failed: %v", err)
		}
		if len(resolved.Diners) != 0 {
			t.Errorf("Expected zero diners, got %d", len(resolved.Diners))
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.ResolveMealDiners(ctx, uuid.New())
		if !apperr.IsKind(err, apperr.KindNotFound) {
			t.Errorf("Expected not_found for missing meal, got %v", err)
		}
	})
}

func TestMarkCustomValidation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	members := family.NewRepository(db.SQL)
	store := NewStore(db.SQL)

	user := seedUser(t, members, "validation@test.local")
	mealID := seedMeal(t, db, user.ID, MealTypeDinner)

	if err := store.MarkCustom(ctx, mealID, nil); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("Expected validation error for empty custom set, got %v", err)
	}
}

func TestParseMealType(t *testing.T) {
	for _, valid := range []string{"lunch", "dinner"} {
		if _, err := ParseMealType(valid); err != nil {
			t.Errorf("Expected '%s' to be valid: %v", valid, err)
		}
	}
	if _, err := ParseMealType("brunch"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("Expected validation error for 'brunch', got %v", err)
	}
}
