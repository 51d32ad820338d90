package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"barstock/internal"
	"barstock/internal/headers"
)

const (
	SourceExport    = "export"
	SourceSheetsAPI = "sheetsapi"
	SourceFile      = "file"
)

type Config struct {
	DBPath    string
	RawDir    string
	OutputDir string

	SheetSource string
	SheetURL    string
	SheetID     string
	SheetGIDs   []string
	SheetFormat string
	SheetTabs   []string
	SheetRanges []string
	SheetFile   string

	GoogleAPIKey       string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string

	FetchTimeoutMs    int
	FetchRateLimitRPS int
	FetchMaxAttempts  int
	ArchiveRaw        bool

	HeaderTableFile string
	HeaderOverrides string

	USDToJMDRate     float64
	RequireDrinkName bool
	SearchFields     []string

	LogLevel  string
	LogFormat string

	HTTPAddr           string
	RefreshIntervalSec int
	RefreshOnStart     bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "barstock.db")),
		RawDir:    getEnv("SHEET_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		SheetSource: strings.ToLower(strings.TrimSpace(getEnv("SHEET_SOURCE", SourceExport))),
		SheetURL:    getEnv("SHEET_URL", ""),
		SheetID:     getEnv("SHEET_ID", ""),
		SheetGIDs:   getEnvList("SHEET_GIDS", ","),
		SheetFormat: getEnv("SHEET_FORMAT", "csv"),
		SheetTabs:   getEnvList("SHEET_TABS", ","),
		SheetRanges: getEnvList("SHEET_RANGES", ";"),
		SheetFile:   getEnv("SHEET_FILE", ""),

		GoogleAPIKey:       getEnv("GOOGLE_API_KEY", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),

		FetchTimeoutMs:    getEnvInt("FETCH_TIMEOUT_MS", 15000),
		FetchRateLimitRPS: getEnvInt("FETCH_RATE_LIMIT_RPS", 2),
		FetchMaxAttempts:  getEnvInt("FETCH_MAX_ATTEMPTS", 4),
		ArchiveRaw:        getEnvBool("SHEET_ARCHIVE_RAW", true),

		HeaderTableFile: getEnv("HEADER_TABLE_FILE", ""),
		HeaderOverrides: getEnv("HEADER_OVERRIDES", ""),

		USDToJMDRate:     getEnvFloat("USD_TO_JMD_RATE", 155.0),
		RequireDrinkName: getEnvBool("REQUIRE_DRINK_NAME", false),
		SearchFields:     getEnvList("SEARCH_FIELDS", ","),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		RefreshIntervalSec: getEnvInt("REFRESH_INTERVAL_SEC", 300),
		RefreshOnStart:     getEnvBool("REFRESH_ON_START", true),
	}

	if len(cfg.SearchFields) == 0 {
		cfg.SearchFields = []string{string(internal.FieldDrinkName), string(internal.FieldCategory), string(internal.FieldSupplier)}
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// HeaderTable returns the header variant table with HEADER_OVERRIDES applied.
// HEADER_TABLE_FILE replaces the built-in table when set.
func (c Config) HeaderTable() (headers.Table, error) {
	table := headers.DefaultTable()
	if path := strings.TrimSpace(c.HeaderTableFile); path != "" {
		loaded, err := headers.LoadTableFile(path)
		if err != nil {
			return headers.Table{}, err
		}
		table = loaded
	}
	overrides, err := headers.ParseOverrides(c.HeaderOverrides)
	if err != nil {
		return headers.Table{}, err
	}
	table = table.WithOverrides(overrides)
	if err := table.Validate(); err != nil {
		return headers.Table{}, err
	}
	return table, nil
}

// SearchLogicalFields parses SEARCH_FIELDS, rejecting unknown names.
func (c Config) SearchLogicalFields() ([]internal.LogicalField, error) {
	out := make([]internal.LogicalField, 0, len(c.SearchFields))
	for _, name := range c.SearchFields {
		f, ok := internal.ParseLogicalField(name)
		if !ok {
			return nil, fmt.Errorf("SEARCH_FIELDS: unknown field %q", name)
		}
		out = append(out, f)
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

func getEnvList(key, sep string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
