package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultTrackingStatuses sind die Status, die als "in Arbeit" gelten,
// wenn TRACKING_STATUSES nicht gesetzt ist.
var DefaultTrackingStatuses = []string{"in progress", "active", "working", "in-progress"}

type Config struct {
	Token            string
	TeamID           string
	APIBaseURL       string
	TrackingStatuses []string
	AutoRefresh      bool
	Verbose          bool
}

func NewConfig() (*Config, error) {
	// .env laden (ignoriere Fehler wenn Datei nicht existiert)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("⚠️  Warnung beim Laden der .env: %v\n", err)
	}

	cfg := &Config{
		Token:            getEnv("CLICKUP_TOKEN", ""),
		TeamID:           getEnv("CLICKUP_TEAM_ID", ""),
		APIBaseURL:       getEnv("CLICKUP_API_URL", "https://api.clickup.com/api/v2"),
		TrackingStatuses: getListEnv("TRACKING_STATUSES", DefaultTrackingStatuses),
		AutoRefresh:      getBoolEnv("AUTO_REFRESH", true),
		Verbose:          getBoolEnv("VERBOSE", false),
	}

	if cfg.Verbose {
		cfg.printDebugInfo()
	}

	return cfg, nil
}

func (c *Config) printDebugInfo() {
	fmt.Printf("🔧 Configuration loaded:\n")
	fmt.Printf("   Has ClickUp Token: %t (length: %d)\n",
		c.Token != "", len(c.Token))
	fmt.Printf("   Team ID: %s\n", valueOrDefaultHint(c.TeamID))
	fmt.Printf("   Tracking Statuses: %s\n", strings.Join(c.TrackingStatuses, ", "))
	fmt.Printf("   Auto Refresh: %t\n", c.AutoRefresh)
}

func valueOrDefaultHint(v string) string {
	if v == "" {
		return "(erstes Team)"
	}
	return v
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getListEnv liest eine kommagetrennte Liste; leere Einträge werden verworfen.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}

	if len(items) == 0 {
		return defaultValue
	}
	return items
}

func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("ClickUp Token fehlt (CLICKUP_TOKEN)")
	}
	if len(c.TrackingStatuses) == 0 {
		return fmt.Errorf("keine Tracking-Status konfiguriert (TRACKING_STATUSES)")
	}
	return nil
}

func (c *Config) GetAPIBaseURL() string {
	if c.APIBaseURL == "" {
		return "https://api.clickup.com/api/v2"
	}
	return strings.TrimSuffix(c.APIBaseURL, "/")
}
