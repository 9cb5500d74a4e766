package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Addr             string
	DBPath           string // subscribers, notifications, audit
	RecordsDBPath    string // vulnerability records
	FeedURL          string
	FeedInterval     time.Duration // minimum spacing between feed requests
	ScheduleInterval time.Duration // scheduled collection cadence
	Debug            bool
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() *Config {
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.Addr = getEnv("CVEWATCH_ADDR", ":8080")
	cfg.DBPath = getEnv("CVEWATCH_DB", defaultDataPath("cvewatch.db"))
	cfg.RecordsDBPath = getEnv("CVEWATCH_RECORDS_DB", defaultDataPath("records.db"))
	cfg.FeedURL = getEnv("CVEWATCH_FEED_URL", "https://services.nvd.nist.gov/rest/json/cves/2.0")
	cfg.FeedInterval = getEnvDuration("CVEWATCH_FEED_INTERVAL", 6*time.Second)
	cfg.ScheduleInterval = getEnvDuration("CVEWATCH_SCHEDULE_INTERVAL", 24*time.Hour)

	// Command Line Flags (Override Env)
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP server address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to subscriber SQLite database")
	flag.StringVar(&cfg.RecordsDBPath, "records-db", cfg.RecordsDBPath, "Path to vulnerability record SQLite database")
	flag.StringVar(&cfg.FeedURL, "feed-url", cfg.FeedURL, "Vulnerability feed base URL")
	flag.DurationVar(&cfg.FeedInterval, "feed-interval", cfg.FeedInterval, "Minimum spacing between feed requests")
	flag.DurationVar(&cfg.ScheduleInterval, "schedule", cfg.ScheduleInterval, "Scheduled collection interval")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")

	flag.Parse()

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// defaultDataPath returns a path under ~/.cvewatch, creating the directory
// if needed. Falls back to the working directory.
func defaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return name
	}

	dataDir := filepath.Join(home, ".cvewatch")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Printf("Warning: Could not create .cvewatch directory, using current dir: %v", err)
		return name
	}

	return filepath.Join(dataDir, name)
}
