// Package daemon wires the engine together: configuration, storage,
// state hydration from the submission log, the HTTP server, and the
// nightly trust recompute.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration, loaded from TOML.
type Config struct {
	API        APIConfig        `toml:"api"`
	Engine     EngineConfig     `toml:"engine"`
	Suspension SuspensionConfig `toml:"suspension"`
	Storage    StorageConfig    `toml:"storage"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	EnableMetrics bool   `toml:"enable_metrics"`
}

// EngineConfig configures the policy engine.
type EngineConfig struct {
	// Timezone anchors quota periods and cooldown days. All ledger keys
	// use this location, never the server's local zone.
	Timezone string `toml:"timezone"`

	// ClaimTTL is how long an exclusive listing claim lasts, e.g. "30m".
	ClaimTTL string `toml:"claim_ttl"`

	// PayoutCents is the contributor payout per validated review.
	PayoutCents int64 `toml:"payout_cents"`
}

// SuspensionConfig configures the automatic suspension policy defaults.
// A versioned config stored by the operator console overrides these.
type SuspensionConfig struct {
	Enabled                  bool     `toml:"enabled"`
	AutoSuspendEnabled       bool     `toml:"auto_suspend_enabled"`
	MaxWarningsBeforeSuspend int      `toml:"max_warnings_before_suspend"`
	ExemptedCountries        []string `toml:"exempted_countries"`
	BlockedCountries         []string `toml:"blocked_countries"`
}

// StorageConfig configures the persistent store.
type StorageConfig struct {
	Dir string `toml:"dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:          "127.0.0.1",
			Port:          8820,
			EnableMetrics: true,
		},
		Engine: EngineConfig{
			Timezone:    "Europe/Paris",
			ClaimTTL:    "30m",
			PayoutCents: 250,
		},
		Suspension: SuspensionConfig{
			Enabled:                  true,
			AutoSuspendEnabled:       true,
			MaxWarningsBeforeSuspend: 3,
		},
		Storage: StorageConfig{
			Dir: defaultDataDir(),
		},
	}
}

// ConfigPath returns the path of the daemon config file.
func ConfigPath() string {
	return filepath.Join(homeDir(), "config.toml")
}

// Load reads the config file, creating it with defaults when absent.
func Load() (Config, error) {
	path := ConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := Save(cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config file.
func Save(cfg Config) error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// ParseClaimTTL parses the claim TTL, falling back to 30 minutes on a
// missing or malformed value.
func ParseClaimTTL(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// Location resolves the configured timezone, falling back to UTC.
func (c EngineConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func homeDir() string {
	if dir := os.Getenv("LOCALBOOST_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".localboost"
	}
	return filepath.Join(home, ".localboost")
}

func defaultDataDir() string {
	return filepath.Join(homeDir(), "data")
}

// toStringSet converts a TOML list into the set form the domain config
// uses.
func toStringSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}
