package planner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"family-meal-planner/internal/apperr"
	"family-meal-planner/internal/database"
	"family-meal-planner/internal/diner"
	"family-meal-planner/internal/family"
	"family-meal-planner/internal/llm"

	"github.com/google/uuid"
)

type MockTextGenerator struct {
	Content string
	Err     error
	Calls   int
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.Calls++
	if m.Err != nil {
		return llm.ContentResponse{}, m.Err
	}
	content := m.Content
	if content == "" {
		content = `{"dishes": [{"name": "Grilled Salmon", "course": "main", "description": "With lemon"}, {"name": "Fruit Salad", "course": "dessert"}]}`
	}
	return llm.ContentResponse{Content: content}, nil
}

type testEnv struct {
	db      *database.DB
	members *family.Repository
	diners  *diner.Store
	plans   *Repository
	gen     *MockTextGenerator
	mgr     *Manager
	user    *family.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:      db,
		members: family.NewRepository(db.SQL),
		diners:  diner.NewStore(db.SQL),
		plans:   NewRepository(db.SQL),
		gen:     &MockTextGenerator{},
	}
	env.mgr = NewManager(env.plans, env.members, env.diners, env.gen, nil, nil)

	env.user = &family.User{Email: "cook@test.local", PasswordHash: "x", Name: "Cook", DefaultDiners: 2}
	if err := env.members.CreateUser(context.Background(), env.user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return env
}

func (e *testEnv) addMember(t *testing.T, name string) *family.Member {
	t.Helper()
	m := &family.Member{UserID: e.user.ID, Name: name}
	if err := e.members.CreateMember(context.Background(), m); err != nil {
		t.Fatalf("Failed to create member %s: %v", name, err)
	}
	return m
}

func oneDayInput() CreatePlanInput {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday
	return CreatePlanInput{
		StartDate: day,
		EndDate:   day,
		MealTypes: []diner.MealType{diner.MealTypeLunch, diner.MealTypeDinner},
	}
}

func TestCreatePlan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("OneMealPerSlot", func(t *testing.T) {
		in := oneDayInput()
		in.EndDate = in.StartDate.AddDate(0, 0, 2)
		plan, err := env.mgr.CreatePlan(ctx, env.user.ID, in)
		if err != nil {
			t.Fatalf("CreatePlan failed: %v", err)
		}
		if len(plan.Meals) != 6 {
			t.Errorf("Expected 3 days x 2 meal types = 6 meals, got %d", len(plan.Meals))
		}
		for _, meal := range plan.Meals {
			if meal.HasCustomDiners {
				t.Errorf("Meal %s created in the custom state", meal.ID)
			}
			if len(meal.Dishes) == 0 {
				t.Errorf("Meal %s has no dishes", meal.ID)
			}
		}
	})

	t.Run("MealOrderIsStable", func(t *testing.T) {
		in := oneDayInput()
		plan, err := env.mgr.CreatePlan(ctx, env.user.ID, in)
		if err != nil {
			t.Fatalf("CreatePlan failed: %v", err)
		}
		got, err := env.mgr.GetPlan(ctx, env.user.ID, plan.ID)
		if err != nil {
			t.Fatalf("GetPlan failed: %v", err)
		}
		for i := range plan.Meals {
			if got.Meals[i].ID != plan.Meals[i].ID {
				t.Fatalf("Meal %d out of order: expected %s, got %s", i, plan.Meals[i].ID, got.Meals[i].ID)
			}
		}
	})

	t.Run("AIFailureLeavesNoPartialPlan", func(t *testing.T) {
		env := newTestEnv(t)
		env.gen.Err = errors.New("model unavailable")
		_, err := env.mgr.CreatePlan(ctx, env.user.ID, oneDayInput())
		if !apperr.IsKind(err, apperr.KindAIService) {
			t.Fatalf("Expected ai_service error, got %v", err)
		}
		plans, err := env.mgr.ListPlans(ctx, env.user.ID)
		if err != nil {
			t.Fatalf("ListPlans failed: %v", err)
		}
		if len(plans) != 0 {
			t.Errorf("Expected no plans after aborted creation, got %d", len(plans))
		}
	})

	t.Run("RejectsBothDinerVariants", func(t *testing.T) {
		in := oneDayInput()
		in.Diners = DinerSelection{Count: 2, MemberIDs: []uuid.UUID{uuid.New()}}
		_, err := env.mgr.CreatePlan(ctx, env.user.ID, in)
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("Expected validation error, got %v", err)
		}
	})

	t.Run("RejectsOverlongRange", func(t *testing.T) {
		in := oneDayInput()
		in.EndDate = in.StartDate.AddDate(0, 0, 14)
		_, err := env.mgr.CreatePlan(ctx, env.user.ID, in)
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("Expected validation error for 15-day range, got %v", err)
		}
	})
}

// TestDinerLifecycle walks a meal through the full Bulk -> Custom -> Bulk
// cycle and checks the resolved diners at every step.
func TestDinerLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.addMember(t, "Alice")
	bob := env.addMember(t, "Bob")

	if err := env.diners.SetBulkPreferences(ctx, env.user.ID, diner.MealTypeLunch, []uuid.UUID{alice.ID}); err != nil {
		t.Fatalf("SetBulkPreferences failed: %v", err)
	}
	if err := env.diners.SetBulkPreferences(ctx, env.user.ID, diner.MealTypeDinner, []uuid.UUID{alice.ID, bob.ID}); err != nil {
		t.Fatalf("SetBulkPreferences failed: %v", err)
	}

	plan, err := env.mgr.CreatePlan(ctx, env.user.ID, oneDayInput())
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}
	var lunch, dinner Meal
	for _, m := range plan.Meals {
		switch m.MealType {
		case diner.MealTypeLunch:
			lunch = m
		case diner.MealTypeDinner:
			dinner = m
		}
	}

	t.Run("BulkResolution", func(t *testing.T) {
		resolved, err := env.mgr.ResolveMeal(ctx, env.user.ID, lunch.ID)
		if err != nil {
			t.Fatalf("ResolveMeal failed: %v", err)
		}
		if len(resolved.Diners) != 1 || resolved.Diners[0].ID != alice.ID {
			t.Errorf("Expected lunch to resolve to [Alice], got %d diners", len(resolved.Diners))
		}
		resolved, err = env.mgr.ResolveMeal(ctx, env.user.ID, dinner.ID)
		if err != nil {
			t.Fatalf("ResolveMeal failed: %v", err)
		}
		if len(resolved.Diners) != 2 {
			t.Errorf("Expected dinner to resolve to 2 diners, got %d", len(resolved.Diners))
		}
	})

	t.Run("UpdateMealDinersFreezes", func(t *testing.T) {
		env.gen.Content = `{"dishes": [{"name": "Soup", "course": "starter"}, {"name": "Steak", "course": "main"}, {"name": "Cake", "course": "dessert"}]}`
		updated, err := env.mgr.UpdateMealDiners(ctx, env.user.ID, lunch.ID, []uuid.UUID{alice.ID, bob.ID}, 3)
		if err != nil {
			t.Fatalf("UpdateMealDiners failed: %v", err)
		}
		if !updated.HasCustomDiners {
			t.Error("Expected meal to be in the custom state after update")
		}
		if len(updated.Dishes) != 3 {
			t.Errorf("Expected 3 regenerated dishes, got %d", len(updated.Dishes))
		}

		// Shrinking the bulk selection must not touch the frozen meal.
		if err := env.diners.SetBulkPreferences(ctx, env.user.ID, diner.MealTypeLunch, nil); err != nil {
			t.Fatalf("SetBulkPreferences failed: %v", err)
		}
		resolved, err := env.mgr.ResolveMeal(ctx, env.user.ID, lunch.ID)
		if err != nil {
			t.Fatalf("ResolveMeal failed: %v", err)
		}
		if len(resolved.Diners) != 2 {
			t.Errorf("Expected frozen set of 2 diners, got %d", len(resolved.Diners))
		}
	})

	t.Run("AIFailureLeavesMealUntouched", func(t *testing.T) {
		before, err := env.mgr.ResolveMeal(ctx, env.user.ID, dinner.ID)
		if err != nil {
			t.Fatalf("ResolveMeal failed: %v", err)
		}
		env.gen.Err = errors.New("model unavailable")
		_, err = env.mgr.UpdateMealDiners(ctx, env.user.ID, dinner.ID, []uuid.UUID{bob.ID}, 0)
		env.gen.Err = nil
		if !apperr.IsKind(err, apperr.KindAIService) {
			t.Fatalf("Expected ai_service error, got %v", err)
		}
		after, err := env.mgr.ResolveMeal(ctx, env.user.ID, dinner.ID)
		if err != nil {
			t.Fatalf("ResolveMeal failed: %v", err)
		}
		if after.HasCustomDiners != before.HasCustomDiners || len(after.Diners) != len(before.Diners) {
			t.Error("Failed diner update must not change the meal's diner state")
		}
	})

	t.Run("RegenerateKeepsState", func(t *testing.T) {
		env.gen.Content = ""
		meal, err := env.mgr.RegenerateMeal(ctx, env.user.ID, lunch.ID, 0)
		if err != nil {
			t.Fatalf("RegenerateMeal failed: %v", err)
		}
		resolved, err := env.mgr.ResolveMeal(ctx, env.user.ID, meal.ID)
		if err != nil {
			t.Fatalf("ResolveMeal failed: %v", err)
		}
		if !resolved.HasCustomDiners {
			t.Error("Regenerate must not change the custom flag")
		}
	})

	t.Run("RevertRestoresBulk", func(t *testing.T) {
		meal, err := env.mgr.RevertMealToBulk(ctx, env.user.ID, lunch.ID)
		if err != nil {
			t.Fatalf("RevertMealToBulk failed: %v", err)
		}
		if meal.HasCustomDiners {
			t.Error("Expected meal back in the bulk state")
		}
		if len(meal.Dishes) == 0 {
			t.Error("Revert must keep the dishes as they are")
		}

		// Bulk lunch is now empty, so the meal resolves to zero diners and
		// regeneration is rejected.
		resolved, err := env.mgr.ResolveMeal(ctx, env.user.ID, lunch.ID)
		if err != nil {
			t.Fatalf("ResolveMeal failed: %v", err)
		}
		if len(resolved.Diners) != 0 {
			t.Errorf("Expected zero diners from the emptied bulk selection, got %d", len(resolved.Diners))
		}
		if _, err := env.mgr.RegenerateMeal(ctx, env.user.ID, lunch.ID, 0); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("Expected validation error regenerating a zero-diner meal, got %v", err)
		}
	})

	t.Run("ConfirmedPlanIsImmutable", func(t *testing.T) {
		if err := env.mgr.ConfirmPlan(ctx, env.user.ID, plan.ID); err != nil {
			t.Fatalf("ConfirmPlan failed: %v", err)
		}
		if err := env.mgr.ConfirmPlan(ctx, env.user.ID, plan.ID); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("Expected validation error confirming twice, got %v", err)
		}

		if _, err := env.mgr.UpdateMealDiners(ctx, env.user.ID, lunch.ID, []uuid.UUID{alice.ID}, 0); !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("Expected forbidden updating a confirmed meal, got %v", err)
		}
		if _, err := env.mgr.RegenerateMeal(ctx, env.user.ID, dinner.ID, 0); !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("Expected forbidden regenerating a confirmed meal, got %v", err)
		}
		if _, err := env.mgr.RevertMealToBulk(ctx, env.user.ID, dinner.ID); !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("Expected forbidden reverting a confirmed meal, got %v", err)
		}

		// Reads still work, and stay live for bulk meals.
		if err := env.diners.SetBulkPreferences(ctx, env.user.ID, diner.MealTypeLunch, []uuid.UUID{bob.ID}); err != nil {
			t.Fatalf("SetBulkPreferences failed: %v", err)
		}
		resolved, err := env.mgr.ResolveMeal(ctx, env.user.ID, lunch.ID)
		if err != nil {
			t.Fatalf("ResolveMeal failed: %v", err)
		}
		if len(resolved.Diners) != 1 || resolved.Diners[0].ID != bob.ID {
			t.Error("Bulk meals stay live for reads even after confirmation")
		}
	})
}

func TestMealOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	plan, err := env.mgr.CreatePlan(ctx, env.user.ID, oneDayInput())
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	intruder := &family.User{Email: "intruder@test.local", PasswordHash: "x", Name: "Intruder", DefaultDiners: 1}
	if err := env.members.CreateUser(ctx, intruder); err != nil {
		t.Fatalf("Failed to create second user: %v", err)
	}

	mealID := plan.Meals[0].ID
	if _, err := env.mgr.ResolveMeal(ctx, intruder.ID, mealID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("Expected forbidden resolving another user's meal, got %v", err)
	}
	if _, err := env.mgr.RegenerateMeal(ctx, intruder.ID, mealID, 0); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("Expected forbidden regenerating another user's meal, got %v", err)
	}
	if _, err := env.mgr.GetPlan(ctx, intruder.ID, plan.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("Expected not_found reading another user's plan, got %v", err)
	}
}

func TestDinerSelectionValidate(t *testing.T) {
	t.Run("UnsetIsValid", func(t *testing.T) {
		if err := (DinerSelection{}).Validate(); err != nil {
			t.Errorf("Expected an unset selection to be valid, got %v", err)
		}
	})

	t.Run("NegativeCount", func(t *testing.T) {
		err := DinerSelection{Count: -1}.Validate()
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("Expected validation error, got %v", err)
		}
		if apperr.Message(err) != "diner count must not be negative" {
			t.Errorf("Unexpected message: %q", apperr.Message(err))
		}
	})

	t.Run("CountTooLarge", func(t *testing.T) {
		if err := (DinerSelection{Count: 21}).Validate(); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("Expected validation error, got %v", err)
		}
	})

	t.Run("ZeroCountFallsThroughToBulk", func(t *testing.T) {
		env := newTestEnv(t)
		in := oneDayInput()
		in.Diners = DinerSelection{Count: 0}
		plan, err := env.mgr.CreatePlan(context.Background(), env.user.ID, in)
		if err != nil {
			t.Fatalf("CreatePlan with zero count failed: %v", err)
		}
		if len(plan.Meals) != 2 {
			t.Errorf("Expected 2 meals, got %d", len(plan.Meals))
		}
	})
}

func TestNormalizeCourse(t *testing.T) {
	cases := map[string]Course{
		"starter": CourseStarter,
		"main":    CourseMain,
		"dessert": CourseDessert,
		"entree":  CourseMain,
		"":        CourseMain,
	}
	for raw, want := range cases {
		if got := normalizeCourse(raw); got != want {
			t.Errorf("normalizeCourse(%q) = %q, want %q", raw, got, want)
		}
	}
}
