package conf

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration
type Config struct {
	// Telegram configuration
	Telegram TelegramConfig

	// Google Sheets configuration
	Sheets SheetsConfig

	// Reddit configuration
	Reddit RedditConfig

	// OpenAI configuration
	OpenAI OpenAIConfig

	// Polling and digest scheduling
	Schedule ScheduleConfig

	// Cursor persistence
	State StateConfig

	// Prompts configuration (loaded from YAML)
	Prompts *PromptsConfig

	// AdminMember is the roster member escalations are sent to
	AdminMember string

	// AdminAddr enables the HTTP admin surface when non-empty
	AdminAddr string

	// DryRun prints every outbound message instead of sending it and
	// suppresses all sheet/state writes
	DryRun bool
}

// TelegramConfig contains Telegram configuration
type TelegramConfig struct {
	BotToken string
}

// SheetsConfig contains Google Sheets configuration
type SheetsConfig struct {
	SpreadsheetID      string
	ServiceAccountPath string
	ServiceAccountJSON string // inline JSON, takes precedence over the path

	TeamsTab      string
	PostsTab      string
	ReplyQueueTab string
	StateTab      string
}

// RedditConfig contains Reddit configuration
type RedditConfig struct {
	BaseURL   string
	UserAgent string
}

// OpenAIConfig contains completion endpoint configuration
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// ScheduleConfig contains polling and digest scheduling configuration
type ScheduleConfig struct {
	Timezone            string
	DailyHour           int
	DailyMinute         int
	PollIntervalMinutes int
}

// StateConfig contains cursor persistence configuration
type StateConfig struct {
	Backend       string // "sheet" or "sqlite"
	DBPath        string // sqlite backend only
	RetentionDays int    // dedup record retention
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	dbPath := os.Getenv("BOT_STATE_DB_PATH")
	if dbPath == "" {
		dbPath = "data/replyrota.db"
	}

	return &Config{
		Telegram: TelegramConfig{
			BotToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:      strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID")),
			ServiceAccountPath: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_PATH")),
			ServiceAccountJSON: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
			TeamsTab:           envTab("BOT_TEAMS_TAB", "Teams"),
			PostsTab:           envTab("BOT_POSTING_TAB", "PostingPlan"),
			ReplyQueueTab:      envTab("BOT_REPLY_QUEUE_TAB", "ReplyQueue"),
			StateTab:           envTab("BOT_STATE_TAB", "State"),
		},
		Reddit: RedditConfig{
			BaseURL:   envDefault("REDDIT_BASE_URL", "https://www.reddit.com"),
			UserAgent: envDefault("REDDIT_USER_AGENT", "replyrota/reply-rotation-bot"),
		},
		OpenAI: OpenAIConfig{
			APIKey: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			Model:  envDefault("BOT_REPLY_MODEL", "gpt-4o-mini"),
		},
		Schedule: ScheduleConfig{
			Timezone:            envDefault("BOT_TIMEZONE", "Africa/Addis_Ababa"),
			DailyHour:           envInt("BOT_DAILY_HOUR", 8),
			DailyMinute:         envInt("BOT_DAILY_MINUTE", 0),
			PollIntervalMinutes: envInt("BOT_POLL_INTERVAL_MINUTES", 10),
		},
		State: StateConfig{
			Backend:       envDefault("BOT_STATE_BACKEND", "sheet"),
			DBPath:        dbPath,
			RetentionDays: envInt("BOT_SEEN_RETENTION_DAYS", 14),
		},
		AdminMember: envDefault("BOT_ADMIN_MEMBER", "Alpha"),
		AdminAddr:   strings.TrimSpace(os.Getenv("ADMIN_ADDR")),
		DryRun:      envBool("BOT_DRY_RUN"),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return &ConfigError{Field: "TELEGRAM_BOT_TOKEN", Message: "required"}
	}
	if c.Sheets.SpreadsheetID == "" {
		return &ConfigError{Field: "GOOGLE_SHEETS_SPREADSHEET_ID", Message: "required"}
	}
	if c.Sheets.ServiceAccountPath == "" && c.Sheets.ServiceAccountJSON == "" {
		return &ConfigError{Field: "GOOGLE_SERVICE_ACCOUNT_PATH/GOOGLE_SERVICE_ACCOUNT_JSON", Message: "one required"}
	}
	switch c.State.Backend {
	case "sheet", "sqlite":
	default:
		return &ConfigError{Field: "BOT_STATE_BACKEND", Message: "must be sheet or sqlite"}
	}
	return nil
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Schedule.Timezone)
}

// PollInterval returns the poll interval as a duration, floored at 1 minute
func (c *Config) PollInterval() time.Duration {
	minutes := c.Schedule.PollIntervalMinutes
	if minutes < 1 {
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}

// SeenRetention returns the dedup record retention as a duration
func (c *Config) SeenRetention() time.Duration {
	days := c.State.RetentionDays
	if days < 1 {
		days = 1
	}
	return time.Duration(days) * 24 * time.Hour
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

func envDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envTab treats an empty or blank tab name as unset
func envTab(key, def string) string {
	return envDefault(key, def)
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
