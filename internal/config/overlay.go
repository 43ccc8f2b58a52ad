package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Overlay applies environment overrides on top of a loaded config. getenv is
// os.Getenv in production.
func Overlay(cfg *Config, getenv func(string) string) error {
	if v := strings.TrimSpace(getenv("LEADSCOUT_EXA_API_KEY")); v != "" {
		cfg.Origins.Exa.APIKey = v
	}
	if v := strings.TrimSpace(getenv("LEADSCOUT_BRAVE_API_KEY")); v != "" {
		cfg.Origins.Brave.APIKey = v
	}
	if v := strings.TrimSpace(getenv("LEADSCOUT_STALE_DAYS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("LEADSCOUT_STALE_DAYS=%q: want a positive integer", v)
		}
		cfg.Run.StalenessDays = n
	}
	if v := strings.TrimSpace(getenv("LEADSCOUT_OUTPUT_DIR")); v != "" {
		cfg.Output.Dir = v
	}
	return nil
}
