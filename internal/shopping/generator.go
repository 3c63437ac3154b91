package shopping

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"family-meal-planner/internal/apperr"
	"family-meal-planner/internal/diner"
	"family-meal-planner/internal/llm"
	"family-meal-planner/internal/metrics"
	"family-meal-planner/internal/planner"
	"family-meal-planner/internal/shared"

	"github.com/google/uuid"
)

// Generator builds shopping lists from a confirmed plan's meals.
//
// Diners are resolved through the diner store at generation time, never read
// from a cached value, so two generations of the same plan can legitimately
// produce different quantities if the bulk selection changed in between.
type Generator struct {
	plans        *planner.Repository
	diners       *diner.Store
	textGen      llm.TextGenerator
	repo         *Repository
	metricsStore *metrics.Store
}

// NewGenerator creates a new Generator. metricsStore may be nil.
func NewGenerator(
	plans *planner.Repository,
	diners *diner.Store,
	textGen llm.TextGenerator,
	repo *Repository,
	metricsStore *metrics.Store,
) *Generator {
	return &Generator{
		plans:        plans,
		diners:       diners,
		textGen:      textGen,
		repo:         repo,
		metricsStore: metricsStore,
	}
}

// mealPortion pairs a meal's dishes with its resolved diner count for the
// quantity prompt.
type mealPortion struct {
	DayOfWeek  string
	MealType   diner.MealType
	Dishes     []planner.Dish
	DinerCount int
}

// Generate produces and persists the shopping list for a confirmed plan.
// Zero-diner meals contribute nothing; a plan where every meal resolves to
// zero diners yields an empty list without touching the AI boundary.
func (g *Generator) Generate(ctx context.Context, userID, planID uuid.UUID) (*ShoppingList, error) {
	plan, err := g.plans.GetPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != planner.StatusConfirmed {
		return nil, apperr.Forbidden("shopping lists can only be generated for confirmed plans")
	}

	var portions []mealPortion
	for _, meal := range plan.Meals {
		resolved, err := g.diners.ResolveMealDiners(ctx, meal.ID)
		if err != nil {
			return nil, err
		}
		if len(resolved.Diners) == 0 {
			continue
		}
		portions = append(portions, mealPortion{
			DayOfWeek:  meal.DayOfWeek,
			MealType:   meal.MealType,
			Dishes:     meal.Dishes,
			DinerCount: len(resolved.Diners),
		})
	}

	list := &ShoppingList{MenuPlanID: planID}
	if len(portions) > 0 {
		list.Items, err = g.generateItems(ctx, portions)
		if err != nil {
			return nil, err
		}
	}

	if err := g.repo.Save(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (g *Generator) generateItems(ctx context.Context, portions []mealPortion) ([]Item, error) {
	start := time.Now()
	prompt := buildShoppingPrompt(portions)

	resp, err := g.textGen.GenerateContent(ctx, prompt)
	if g.metricsStore != nil {
		_ = g.metricsStore.RecordMeta(shared.GenerationMeta{
			Task:    "shopping_list",
			Usage:   resp.Usage,
			Latency: time.Since(start),
		})
	}
	if err != nil {
		return nil, apperr.AIService(err, "shopping list generation failed")
	}

	var parsed struct {
		Items []Item `json:"items"`
	}
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
		return nil, apperr.AIService(err, "failed to parse shopping list")
	}
	return parsed.Items, nil
}

func buildShoppingPrompt(portions []mealPortion) string {
	var mealsBuilder strings.Builder
	for i, p := range portions {
		fmt.Fprintf(&mealsBuilder, "Meal %d (%s %s, %d diner(s)):\n", i+1, p.DayOfWeek, p.MealType, p.DinerCount)
		for _, d := range p.Dishes {
			fmt.Fprintf(&mealsBuilder, "- %s (%s): %s\n", d.Name, d.Course, d.Description)
		}
		mealsBuilder.WriteString("\n")
	}

	return fmt.Sprintf(`
You are an expert grocery planner. Build a consolidated shopping list for the meals below.
Size every quantity to the number of diners given for each meal.

Meals:
%s
Instructions:
1. Aggregate ingredients shared across meals into single entries.
2. Use sensible metric units (g, kg, ml, l) or counts (pcs).
3. Return the result strictly as a JSON object with this structure:
{
  "items": [
    {"ingredient": "Tomatoes", "quantity": 500, "unit": "g"},
    ...
  ]
}

Do not include any other text or formatting in your response.
`, mealsBuilder.String())
}
