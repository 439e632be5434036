package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultWelcomeImage is used for greeting and poll cards when a chat has not
// configured its own image.
const DefaultWelcomeImage = "https://graph.org/file/a00fd3a852b79eb8f17e8-68ab656cb3a31269fe.jpg"

type Config struct {
	TelegramToken string
	BotUsername   string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	MaxTokens     int

	DatabasePath string
	Port         string

	WelcomeImage string
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	maxTokens := 500
	if tokensStr := getEnv("OPENAI_MAX_TOKENS", ""); tokensStr != "" {
		if parsed, err := strconv.Atoi(tokensStr); err == nil && parsed > 0 {
			maxTokens = parsed
		}
	}

	return &Config{
		TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		BotUsername:   getEnv("BOT_USERNAME", "groupwarden_bot"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		MaxTokens:     maxTokens,
		DatabasePath:  getEnv("DATABASE_PATH", "./groupwarden.db"),
		Port:          getEnv("PORT", "8080"),
		WelcomeImage:  getEnv("WELCOME_IMAGE_URL", DefaultWelcomeImage),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
