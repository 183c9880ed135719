package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for surfacebridge.
type Config struct {
	// CDP connection settings
	CDPAddress string
	CDPPort    int

	// Local browser launch
	LaunchBrowser     bool
	BrowserPath       string
	BrowserProfileDir string
	BrowserHeadless   bool

	// HTTP listener
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	// Surface defaults
	StartURL         string
	MessagingModule  string
	MessagingEnabled bool
	MenuItemsFile    string
	SelectionTimeout time.Duration
	PrintCommand     string

	// Storage settings
	PrintDir       string
	JournalEnabled bool
	JournalDir     string
	JournalMaxMB   int
	JournalBuffer  int

	// Print notifications
	NotifyURL string

	// Logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables and an optional
// .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		CDPAddress:        getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:           getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9220),
		LaunchBrowser:     getEnvBoolOrDefault("CHROMIUM_LAUNCH", false),
		BrowserPath:       getEnvOrDefault("CHROMIUM_BINARY", ""),
		BrowserProfileDir: getEnvOrDefault("CHROMIUM_PROFILE_DIR", "./chromium-profile"),
		BrowserHeadless:   getEnvBoolOrDefault("CHROMIUM_HEADLESS", true),
		BindAddr:          getEnvOrDefault("SURFACE_BIND_ADDR", "127.0.0.1:8190"),
		PortCandidates:    parseList(getEnvOrDefault("SURFACE_PORT_CANDIDATES", "127.0.0.1:8191,127.0.0.1:8192,127.0.0.1:8193")),
		PortAutoFallback:  getEnvBoolOrDefault("SURFACE_PORT_AUTO_FALLBACK", true),
		StartURL:          getEnvOrDefault("SURFACE_START_URL", "about:blank"),
		MessagingModule:   getEnvOrDefault("SURFACE_MESSAGING_MODULE", "SurfaceMessagingModule"),
		MessagingEnabled:  getEnvBoolOrDefault("SURFACE_MESSAGING_ENABLED", false),
		MenuItemsFile:     getEnvOrDefault("SURFACE_MENU_ITEMS_FILE", "./config/menu_items.yaml"),
		SelectionTimeout:  time.Duration(getEnvIntOrDefault("SURFACE_SELECTION_TIMEOUT_MS", 0)) * time.Millisecond,
		PrintCommand:      getEnvOrDefault("SURFACE_PRINT_COMMAND", "android-print"),
		PrintDir:          getEnvOrDefault("SURFACE_PRINT_DIR", "./prints"),
		JournalEnabled:    getEnvBoolOrDefault("SURFACE_JOURNAL_ENABLED", true),
		JournalDir:        getEnvOrDefault("SURFACE_JOURNAL_DIR", "./journal"),
		JournalMaxMB:      getEnvIntOrDefault("SURFACE_JOURNAL_MAX_MB", 50),
		JournalBuffer:     getEnvIntOrDefault("SURFACE_JOURNAL_BUFFER", 5000),
		NotifyURL:         getEnvOrDefault("SURFACE_NOTIFY_URL", ""),
		LogLevel:          strings.ToLower(getEnvOrDefault("SURFACE_LOG_LEVEL", "info")),
		LogFile:           getEnvOrDefault("SURFACE_LOG_FILE", "logs/surfacebridge.log"),
	}

	if cfg.SelectionTimeout < 0 {
		return nil, fmt.Errorf("SURFACE_SELECTION_TIMEOUT_MS must not be negative")
	}
	if cfg.JournalMaxMB < 1 {
		cfg.JournalMaxMB = 1
	}
	if cfg.JournalBuffer < 1 {
		cfg.JournalBuffer = 1
	}
	return cfg, nil
}

// CDPURL returns the CDP HTTP endpoint used by the chromedp remote allocator.
func (c *Config) CDPURL() string {
	return fmt.Sprintf("http://%s:%d", c.CDPAddress, c.CDPPort)
}

func parseList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
