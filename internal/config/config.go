// Package config loads the process configuration once at startup.
// The returned Config is never mutated afterwards.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"project_sheetbot/internal/entities"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingConfig = errors.New("missing required configuration")

// DefaultContextRanges is the hand-maintained list of ranges embedded into
// free-form question prompts, in prompt order.
var DefaultContextRanges = []entities.SheetRange{
	{Sheet: "JUMLAH", Range: "C4:D"},
	{Sheet: "OFFLINE", Range: "A2:Z"},
	{Sheet: "RUSUNAWA", Range: "A2:Z"},
	{Sheet: "JOBDESK", Range: "A2:Z"},
	{Sheet: "AKUN", Range: "A2:Z"},
	{Sheet: "STOCK", Range: "A2:Z"},
	{Sheet: "JUNI 2025", Range: "A2:Z"},
}

type Config struct {
	AllowedNumbers     []string
	SpreadsheetID      string
	GeminiAPIKey       string
	GeminiModel        string
	ServiceAccountJSON []byte

	StockNamesRange      entities.SheetRange
	StockQuantitiesRange entities.SheetRange
	ContextRanges        []entities.SheetRange

	WhatsApp WhatsAppConfig
	Telegram TelegramConfig
	HTTP     HTTPConfig

	LogLevel string
}

type WhatsAppConfig struct {
	SessionDBPath        string
	SessionDatabaseURL   string // Postgres; takes precedence over SessionDBPath
	ReconnectBackoff     time.Duration
	MaxReconnectAttempts int // 0 = unbounded
}

type TelegramConfig struct {
	BotToken       string
	AllowedUserIDs []string
}

func (t TelegramConfig) Enabled() bool {
	return t.BotToken != ""
}

type HTTPConfig struct {
	Addr              string
	AdminUsername     string
	AdminPasswordHash string
	JWTSecret         string
}

func (h HTTPConfig) Enabled() bool {
	return h.Addr != ""
}

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from a lookup function such as os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	var missing []string
	require := func(key string) string {
		v := get(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{
		AllowedNumbers:     splitList(require("ALLOWED_NUMBERS"), ","),
		SpreadsheetID:      require("SPREADSHEET_ID"),
		GeminiAPIKey:       require("GEMINI_API_KEY"),
		ServiceAccountJSON: []byte(require("GOOGLE_SERVICE_ACCOUNT_CREDENTIALS")),
		GeminiModel:        withDefault(get("GEMINI_MODEL"), "gemini-2.0-flash"),
		LogLevel:           withDefault(get("LOG_LEVEL"), "info"),
		WhatsApp: WhatsAppConfig{
			SessionDBPath:      withDefault(get("WHATSAPP_SESSION_DB"), "whatsapp_session.db"),
			SessionDatabaseURL: get("SESSION_DATABASE_URL"),
		},
		Telegram: TelegramConfig{
			BotToken:       get("TELEGRAM_BOT_TOKEN"),
			AllowedUserIDs: splitList(get("TELEGRAM_ALLOWED_USER_IDS"), ","),
		},
		HTTP: HTTPConfig{
			Addr:              get("HTTP_ADDR"),
			AdminUsername:     get("ADMIN_USERNAME"),
			AdminPasswordHash: get("ADMIN_PASSWORD_HASH"),
			JWTSecret:         get("JWT_SECRET"),
		},
	}

	if get("ALLOWED_NUMBERS") != "" && len(cfg.AllowedNumbers) == 0 {
		missing = append(missing, "ALLOWED_NUMBERS")
	}
	if cfg.Telegram.Enabled() && len(cfg.Telegram.AllowedUserIDs) == 0 {
		missing = append(missing, "TELEGRAM_ALLOWED_USER_IDS")
	}
	if cfg.HTTP.Enabled() {
		for key, v := range map[string]string{
			"ADMIN_USERNAME":      cfg.HTTP.AdminUsername,
			"ADMIN_PASSWORD_HASH": cfg.HTTP.AdminPasswordHash,
			"JWT_SECRET":          cfg.HTTP.JWTSecret,
		} {
			if v == "" {
				missing = append(missing, key)
			}
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(sortedUnique(missing), ", "))
	}

	var err error
	if cfg.StockNamesRange, err = rangeOrDefault(get("STOCK_NAMES_RANGE"), "JUMLAH!C4:C"); err != nil {
		return nil, fmt.Errorf("STOCK_NAMES_RANGE: %w", err)
	}
	if cfg.StockQuantitiesRange, err = rangeOrDefault(get("STOCK_QUANTITIES_RANGE"), "JUMLAH!D4:D"); err != nil {
		return nil, fmt.Errorf("STOCK_QUANTITIES_RANGE: %w", err)
	}
	if cfg.ContextRanges, err = parseRanges(get("CONTEXT_RANGES")); err != nil {
		return nil, fmt.Errorf("CONTEXT_RANGES: %w", err)
	}

	if cfg.WhatsApp.ReconnectBackoff, err = time.ParseDuration(withDefault(get("RECONNECT_BACKOFF"), "5s")); err != nil {
		return nil, fmt.Errorf("RECONNECT_BACKOFF: %w", err)
	}
	if cfg.WhatsApp.ReconnectBackoff <= 0 {
		return nil, fmt.Errorf("RECONNECT_BACKOFF must be positive")
	}
	if cfg.WhatsApp.MaxReconnectAttempts, err = strconv.Atoi(withDefault(get("MAX_RECONNECT_ATTEMPTS"), "0")); err != nil {
		return nil, fmt.Errorf("MAX_RECONNECT_ATTEMPTS: %w", err)
	}
	if cfg.WhatsApp.MaxReconnectAttempts < 0 {
		return nil, fmt.Errorf("MAX_RECONNECT_ATTEMPTS must not be negative")
	}

	return cfg, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func rangeOrDefault(v, def string) (entities.SheetRange, error) {
	return entities.ParseSheetRange(withDefault(v, def))
}

func parseRanges(v string) ([]entities.SheetRange, error) {
	if v == "" {
		out := make([]entities.SheetRange, len(DefaultContextRanges))
		copy(out, DefaultContextRanges)
		return out, nil
	}
	var out []entities.SheetRange
	for _, part := range splitList(v, ";") {
		rng, err := entities.ParseSheetRange(part)
		if err != nil {
			return nil, err
		}
		out = append(out, rng)
	}
	return out, nil
}

func sortedUnique(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}
