package config

import (
	"os"
	"path/filepath"

	"github.com/subosito/gotenv"
)

// EnvFiles lists the .env files LoadEnvFiles reads, most specific first
func EnvFiles() []string {
	files := []string{".env"}
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files,
			filepath.Join(home, ".config", "medreminder", ".env"),
			filepath.Join(home, ".medreminder", ".env"),
		)
	}
	return files
}

// LoadEnvFiles exports variables from every existing file in EnvFiles.
// Variables already in the environment are kept, so earlier files win.
func LoadEnvFiles() error {
	var found []string
	for _, path := range EnvFiles() {
		if _, err := os.Stat(path); err == nil {
			found = append(found, path)
		}
	}
	if len(found) == 0 {
		return nil
	}
	return gotenv.Load(found...)
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// secrets read from the unprefixed names other tools already use
var envAliases = map[string][]string{
	"MEDREMINDER_LLM_API_KEY":                  {"OPENAI_API_KEY"},
	"MEDREMINDER_REMINDERS_TELEGRAM_BOT_TOKEN": {"TELEGRAM_BOT_TOKEN"},
	"MEDREMINDER_REMINDERS_DISCORD_TOKEN":      {"DISCORD_BOT_TOKEN", "DISCORD_TOKEN"},
	"MEDREMINDER_SECURITY_JWT_SECRET":          {"MEDREMINDER_JWT_SECRET"},
}

// lookupEnv returns key's value, falling back to its aliases in order
func lookupEnv(key string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	for _, alias := range envAliases[key] {
		if val := os.Getenv(alias); val != "" {
			return val
		}
	}
	return ""
}
