package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"family-meal-planner/internal/apperr"
	"family-meal-planner/internal/diner"
	"family-meal-planner/internal/family"
	"family-meal-planner/internal/shared"
)

// dinerInfo is the slice of a family member the dish prompt needs.
type dinerInfo struct {
	Name        string
	Preferences string
	Dietary     string
}

func toDinerInfo(members []family.Member) []dinerInfo {
	infos := make([]dinerInfo, 0, len(members))
	for _, m := range members {
		infos = append(infos, dinerInfo{Name: m.Name, Preferences: m.Preferences, Dietary: m.DietaryRestrictions})
	}
	return infos
}

// anonymousDiners produces placeholder diners used only to size generation
// when no concrete member list is available.
func anonymousDiners(n int) []dinerInfo {
	infos := make([]dinerInfo, 0, n)
	for i := 0; i < n; i++ {
		infos = append(infos, dinerInfo{Name: fmt.Sprintf("Guest %d", i+1)})
	}
	return infos
}

// generateDishes asks the AI boundary for a dish list sized to the given
// diners and records usage metrics.
func (m *Manager) generateDishes(
	ctx context.Context,
	userPreferences string,
	diners []dinerInfo,
	dishCount int,
	dayOfWeek string,
	mealType diner.MealType,
) ([]Dish, error) {
	start := time.Now()
	prompt := buildDishPrompt(userPreferences, diners, dishCount, dayOfWeek, mealType)

	resp, err := m.textGen.GenerateContent(ctx, prompt)
	m.recordMetrics(shared.GenerationMeta{
		Task:    "dish_generation",
		Usage:   resp.Usage,
		Latency: time.Since(start),
	})
	if err != nil {
		return nil, apperr.AIService(err, "dish generation failed")
	}

	var parsed struct {
		Dishes []struct {
			Name        string `json:"name"`
			Course      string `json:"course"`
			Description string `json:"description"`
		} `json:"dishes"`
	}
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
		return nil, apperr.AIService(err, "failed to parse generated dishes")
	}
	if len(parsed.Dishes) == 0 {
		return nil, apperr.AIService(nil, "no dishes generated")
	}

	dishes := make([]Dish, 0, len(parsed.Dishes))
	for _, d := range parsed.Dishes {
		if d.Name == "" {
			continue
		}
		dishes = append(dishes, Dish{
			Name:        d.Name,
			Course:      normalizeCourse(d.Course),
			Description: d.Description,
		})
		if len(dishes) == maxDishCount {
			break
		}
	}
	if len(dishes) == 0 {
		return nil, apperr.AIService(nil, "no usable dishes generated")
	}
	return dishes, nil
}

func buildDishPrompt(userPreferences string, diners []dinerInfo, dishCount int, dayOfWeek string, mealType diner.MealType) string {
	var dinersBuilder strings.Builder
	for i, d := range diners {
		fmt.Fprintf(&dinersBuilder, "Diner %d: %s", i+1, d.Name)
		if d.Preferences != "" {
			fmt.Fprintf(&dinersBuilder, " (likes: %s)", d.Preferences)
		}
		if d.Dietary != "" {
			fmt.Fprintf(&dinersBuilder, " (dietary restrictions: %s)", d.Dietary)
		}
		dinersBuilder.WriteString("\n")
	}

	return fmt.Sprintf(`
You are an expert home cook. Plan the dishes for one %s on %s for the diners below.

Household preferences: "%s"

Diners (%d):
%s
Instructions:
1. Produce exactly %d dish(es).
2. Tag each dish with a course: "starter", "main" or "dessert".
3. Respect every dietary restriction listed.
4. Return the result strictly as a JSON object with this structure:
{
  "dishes": [
    {"name": "Dish name", "course": "main", "description": "One sentence"},
    ...
  ]
}

Do not include any other text or formatting in your response.
`, mealType, dayOfWeek, userPreferences, len(diners), dinersBuilder.String(), dishCount)
}
