package config

import (
	"fmt"
	"os"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string
	JWTSecret    string

	// AI provider config. AIProvider selects "gemini" or "groq".
	AIProvider   string
	GeminiAPIKey string
	GroqAPIKey   string

	// HTTP server
	Port string

	// Telegram bot (optional, required only for the bot binary)
	TelegramBotToken   string
	TelegramAllowChat  int64
	TelegramOwnerEmail string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "data/meal-planner.db"
	}

	provider := os.Getenv("AI_PROVIDER")
	if provider == "" {
		provider = "gemini"
	}
	if provider != "gemini" && provider != "groq" {
		return nil, fmt.Errorf("AI_PROVIDER must be 'gemini' or 'groq', got '%s'", provider)
	}

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	groqAPIKey := os.Getenv("GROQ_API_KEY")
	if provider == "gemini" && geminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	if provider == "groq" && groqAPIKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Telegram config (optional for the API server, required for the bot)
	telegramBotToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	telegramOwnerEmail := os.Getenv("TELEGRAM_OWNER_EMAIL")
	var telegramAllowChat int64
	if v := os.Getenv("TELEGRAM_ALLOW_CHAT_ID"); v != "" {
		fmt.Sscanf(v, "%d", &telegramAllowChat)
	}

	return &Config{
		DatabasePath:       dbPath,
		JWTSecret:          jwtSecret,
		AIProvider:         provider,
		GeminiAPIKey:       geminiAPIKey,
		GroqAPIKey:         groqAPIKey,
		Port:               port,
		TelegramBotToken:   telegramBotToken,
		TelegramAllowChat:  telegramAllowChat,
		TelegramOwnerEmail: telegramOwnerEmail,
	}, nil
}
