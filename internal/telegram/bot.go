// Package telegram provides a read-only bot surface over one user's plans.
package telegram

import (
	"context"
	"fmt"
	"strings"

	"family-meal-planner/internal/diner"
	"family-meal-planner/internal/planner"
	"family-meal-planner/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Bot answers plan and shopping-list queries for a single configured user.
type Bot struct {
	api       *tgbotapi.BotAPI
	plans     *planner.Repository
	diners    *diner.Store
	lists     *shopping.Repository
	ownerID   uuid.UUID
	allowChat int64
	log       *logrus.Logger
}

// NewBot initializes the Telegram bot with long polling.
func NewBot(
	token string,
	plans *planner.Repository,
	diners *diner.Store,
	lists *shopping.Repository,
	ownerID uuid.UUID,
	allowChat int64,
	log *logrus.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.WithField("account", api.Self.UserName).Info("telegram bot authorized")

	return &Bot{
		api:       api,
		plans:     plans,
		diners:    diners,
		lists:     lists,
		ownerID:   ownerID,
		allowChat: allowChat,
		log:       log,
	}, nil
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			if b.allowChat != 0 && update.Message.Chat.ID != b.allowChat {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	var reply string
	switch {
	case strings.HasPrefix(msg.Text, "/plans"):
		reply = b.renderPlans(ctx)
	case strings.HasPrefix(msg.Text, "/meals"):
		reply = b.renderMeals(ctx, argOf(msg.Text))
	case strings.HasPrefix(msg.Text, "/shopping"):
		reply = b.renderShopping(ctx, argOf(msg.Text))
	default:
		reply = "Commands:\n/plans - list your menu plans\n/meals <plan id> - show a plan's meals\n/shopping <plan id> - show a plan's shopping list"
	}

	if _, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
		b.log.WithError(err).Warn("failed to send telegram reply")
	}
}

func argOf(text string) string {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func (b *Bot) renderPlans(ctx context.Context) string {
	plans, err := b.plans.ListPlans(ctx, b.ownerID)
	if err != nil {
		return "Could not load plans."
	}
	if len(plans) == 0 {
		return "No menu plans yet."
	}

	var sb strings.Builder
	sb.WriteString("Your menu plans:\n")
	for _, p := range plans {
		fmt.Fprintf(&sb, "%s: %s to %s (%s)\n",
			p.ID, p.StartDate.Format("Mon 02 Jan"), p.EndDate.Format("Mon 02 Jan"), p.Status)
	}
	return sb.String()
}

func (b *Bot) renderMeals(ctx context.Context, rawID string) string {
	planID, err := uuid.Parse(rawID)
	if err != nil {
		return "Usage: /meals <plan id>"
	}
	plan, err := b.plans.GetPlan(ctx, b.ownerID, planID)
	if err != nil {
		return "Plan not found."
	}

	var sb strings.Builder
	for _, meal := range plan.Meals {
		resolved, err := b.diners.ResolveMealDiners(ctx, meal.ID)
		if err != nil {
			continue
		}
		names := make([]string, 0, len(resolved.Diners))
		for _, d := range resolved.Diners {
			names = append(names, d.Name)
		}
		dinersLabel := "no one"
		if len(names) > 0 {
			dinersLabel = strings.Join(names, ", ")
		}
		fmt.Fprintf(&sb, "%s %s, eating: %s\n", meal.DayOfWeek, meal.MealType, dinersLabel)
		for _, dish := range meal.Dishes {
			fmt.Fprintf(&sb, "  • %s (%s)\n", dish.Name, dish.Course)
		}
	}
	if sb.Len() == 0 {
		return "This plan has no meals."
	}
	return sb.String()
}

func (b *Bot) renderShopping(ctx context.Context, rawID string) string {
	planID, err := uuid.Parse(rawID)
	if err != nil {
		return "Usage: /shopping <plan id>"
	}
	if _, err := b.plans.GetPlan(ctx, b.ownerID, planID); err != nil {
		return "Plan not found."
	}
	list, err := b.lists.GetByPlanID(ctx, planID)
	if err != nil {
		return "No shopping list for this plan yet."
	}

	var sb strings.Builder
	sb.WriteString("Shopping list:\n")
	for _, item := range list.Items {
		fmt.Fprintf(&sb, "- %s: %g %s\n", item.Ingredient, item.Quantity, item.Unit)
	}
	if len(list.Items) == 0 {
		sb.WriteString("(empty)")
	}
	return sb.String()
}
