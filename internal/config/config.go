package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for medreminder
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Voice     VoiceConfig     `mapstructure:"voice"`
	Reminders RemindersConfig `mapstructure:"reminders"`
	Security  SecurityConfig  `mapstructure:"security"`
	Log       LogConfig       `mapstructure:"log"`

	path  string
	viper *viper.Viper
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address      string `mapstructure:"address"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// LLMConfig holds the completion and speech endpoint settings
type LLMConfig struct {
	APIKey        string `mapstructure:"api_key"`
	BaseURL       string `mapstructure:"base_url"`
	Model         string `mapstructure:"model"`
	SpeechModel   string `mapstructure:"speech_model"`
	Timeout       int    `mapstructure:"timeout"`
	MaxTokens     int    `mapstructure:"max_tokens"`
	RatePerMinute int    `mapstructure:"rate_per_minute"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
	BadgerPath string `mapstructure:"badger_path"`
}

// VoiceConfig holds speech settings
type VoiceConfig struct {
	Theme      string  `mapstructure:"theme"`
	ScratchDir string  `mapstructure:"scratch_dir"`
	Speaker    string  `mapstructure:"speaker"` // remote, piper, command
	PiperModel string  `mapstructure:"piper_model"`
	Rate       float64 `mapstructure:"rate"`
}

// RemindersConfig holds reminder dispatch settings
type RemindersConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Timezone string         `mapstructure:"timezone"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Discord  DiscordConfig  `mapstructure:"discord"`
}

// TelegramConfig holds Telegram delivery settings
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// DiscordConfig holds Discord delivery settings
type DiscordConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Token     string `mapstructure:"token"`
	ChannelID string `mapstructure:"channel_id"`
}

// SecurityConfig holds API security settings
type SecurityConfig struct {
	JWTSecret     string   `mapstructure:"jwt_secret"`
	AdminPassword string   `mapstructure:"admin_password"`
	AllowOrigins  []string `mapstructure:"allow_origins"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console, json
}

// Load loads configuration from file, env, and defaults
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if dataDir == "" {
		dataDir = envOr("MEDREMINDER_STORAGE_DATA_DIR", getDefaultDataDir())
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.SetDefault("storage.data_dir", dataDir)
	v.SetDefault("storage.sqlite_path", filepath.Join(dataDir, "medication_manager.db"))
	v.SetDefault("storage.badger_path", filepath.Join(dataDir, "prefs"))
	v.SetDefault("voice.scratch_dir", filepath.Join(dataDir, "scratch"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "medreminder.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// MEDREMINDER_SERVER_PORT, MEDREMINDER_LLM_API_KEY, ...
	v.SetEnvPrefix("MEDREMINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.path = configPath
	cfg.viper = v

	loadEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	if cfg.Security.JWTSecret == "" {
		secret, err := generateSecret(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		cfg.Security.JWTSecret = secret
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-3.5-turbo")
	v.SetDefault("llm.speech_model", "tts-1")
	v.SetDefault("llm.timeout", 30)
	v.SetDefault("llm.max_tokens", 300)
	v.SetDefault("llm.rate_per_minute", 20)

	v.SetDefault("voice.theme", "alloy")
	v.SetDefault("voice.speaker", "remote")
	v.SetDefault("voice.rate", 0.9)

	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.timezone", "Local")

	v.SetDefault("security.allow_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

func getDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "medreminder")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "medreminder")
}

// loadEnvOverrides fills secrets from well-known env names that don't carry our prefix
func loadEnvOverrides(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = lookupEnv("MEDREMINDER_LLM_API_KEY")
	}
	if cfg.Reminders.Telegram.BotToken == "" {
		cfg.Reminders.Telegram.BotToken = lookupEnv("MEDREMINDER_REMINDERS_TELEGRAM_BOT_TOKEN")
	}
	if cfg.Reminders.Discord.Token == "" {
		cfg.Reminders.Discord.Token = lookupEnv("MEDREMINDER_REMINDERS_DISCORD_TOKEN")
	}
	if cfg.Security.JWTSecret == "" {
		cfg.Security.JWTSecret = lookupEnv("MEDREMINDER_SECURITY_JWT_SECRET")
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive")
	}
	if !IsVoiceTheme(cfg.Voice.Theme) {
		return fmt.Errorf("voice.theme %q is not one of %v", cfg.Voice.Theme, VoiceThemes)
	}
	if cfg.Reminders.Telegram.Enabled && (cfg.Reminders.Telegram.BotToken == "" || cfg.Reminders.Telegram.ChatID == 0) {
		return fmt.Errorf("reminders.telegram requires bot_token and chat_id")
	}
	if cfg.Reminders.Discord.Enabled && (cfg.Reminders.Discord.Token == "" || cfg.Reminders.Discord.ChannelID == "") {
		return fmt.Errorf("reminders.discord requires token and channel_id")
	}

	return nil
}

// generateSecret returns n random bytes, hex encoded
func generateSecret(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Path returns the config file path that was (or would be) read
func (c *Config) Path() string {
	return c.path
}

// Watch calls onChange with the reloaded config whenever the config file changes.
// It is a no-op when no config file was found at load time.
func (c *Config) Watch(onChange func(*Config)) {
	if c.viper == nil || c.viper.ConfigFileUsed() == "" {
		return
	}
	c.viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := c.reload()
		if err != nil {
			return
		}
		onChange(next)
	})
	c.viper.WatchConfig()
}

// reload re-reads the watched settings into a fresh Config
func (c *Config) reload() (*Config, error) {
	var next Config
	if err := c.viper.Unmarshal(&next); err != nil {
		return nil, err
	}
	next.path = c.path
	next.viper = c.viper
	loadEnvOverrides(&next)
	if err := validate(&next); err != nil {
		return nil, err
	}
	// a generated secret has to survive reloads or issued tokens stop verifying
	if next.Security.JWTSecret == "" {
		next.Security.JWTSecret = c.Security.JWTSecret
	}
	return &next, nil
}

// VoiceThemes lists the selectable speech voices
var VoiceThemes = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

// IsVoiceTheme reports whether name is a known voice theme
func IsVoiceTheme(name string) bool {
	for _, v := range VoiceThemes {
		if v == name {
			return true
		}
	}
	return false
}
