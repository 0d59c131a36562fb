package config

import (
	"errors"
	"log"
	"os"

	"modbot/model"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from the environment (secrets) and an optional
// config.yaml (tunables with defaults).
func Load() (*model.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: .env file not found, relying on environment variables")
	}

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		log.Fatal("Error: BOT_TOKEN environment variable not set")
	}

	appID := os.Getenv("APP_ID")
	if appID == "" {
		log.Fatal("Error: APP_ID environment variable not set")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./data")

	v.SetDefault("database_path", "./data/modbot.db")
	v.SetDefault("reconcile_interval", "1m")
	v.SetDefault("audit_window", "30s")
	v.SetDefault("audit_fetch_timeout", "10s")
	v.SetDefault("new_member_grace", "15m")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		log.Println("Info: config.yaml not found, using defaults")
	}

	return &model.Config{
		BotToken:          token,
		AppID:             appID,
		DatabasePath:      v.GetString("database_path"),
		ReconcileInterval: v.GetDuration("reconcile_interval"),
		AuditWindow:       v.GetDuration("audit_window"),
		AuditFetchTimeout: v.GetDuration("audit_fetch_timeout"),
		NewMemberGrace:    v.GetDuration("new_member_grace"),
	}, nil
}
