package clipper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"family-meal-planner/internal/apperr"
	"family-meal-planner/internal/llm"
	"family-meal-planner/internal/shared"

	"github.com/PuerkitoBio/goquery"
)

// Clipper fetches a recipe web page and extracts a dish from it via the AI
// boundary, so users can pull a dish they found online into a meal.
type Clipper struct {
	textGen    llm.TextGenerator
	httpClient *http.Client
}

// ExtractedDish is the dish data structured by the AI.
type ExtractedDish struct {
	Name        string   `json:"name"`
	Course      string   `json:"course"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
}

// NewClipper creates a new Clipper instance.
func NewClipper(textGen llm.TextGenerator) *Clipper {
	return &Clipper{
		textGen: textGen,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ExtractDish fetches the URL and extracts a single dish using AI.
func (c *Clipper) ExtractDish(ctx context.Context, url string) (*ExtractedDish, shared.GenerationMeta, error) {
	start := time.Now()
	meta := shared.GenerationMeta{Task: "dish_extraction"}

	content, err := c.fetchAndCleanHTML(url)
	if err != nil {
		return nil, meta, apperr.Validation("failed to fetch page content: %v", err)
	}

	prompt := fmt.Sprintf(`
You are a recipe extraction expert. Extract a single dish from the following page content.
Return the result strictly as a JSON object with this structure:
{
  "name": "Dish name",
  "course": "starter" | "main" | "dessert",
  "description": "One sentence describing the dish",
  "ingredients": ["item 1", "item 2", ...]
}

Page Content:
%s
`, content)

	resp, err := c.textGen.GenerateContent(ctx, prompt)
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)
	if err != nil {
		return nil, meta, apperr.AIService(err, "dish extraction failed")
	}

	var extracted ExtractedDish
	if err := json.Unmarshal([]byte(resp.Content), &extracted); err != nil {
		return nil, meta, apperr.AIService(err, "failed to parse extracted dish")
	}
	if extracted.Name == "" {
		return nil, meta, apperr.AIService(nil, "no dish found on page")
	}

	return &extracted, meta, nil
}

func (c *Clipper) fetchAndCleanHTML(url string) (string, error) {
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	return doc.Find("body").Text(), nil
}
