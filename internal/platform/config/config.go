package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	FileName              = "bnk.yaml"
	DefaultAdminAPIURL    = "https://bnk-api.up.railway.app/v1"
	DefaultUserID         = "user-1"
	DefaultBalance        = 28246
	DefaultRequestTimeout = 10 * time.Second
)

type Config struct {
	DataDir          string        `yaml:"-"`
	DBPath           string        `yaml:"db_path" env:"DB_PATH"`
	APIBaseURL       string        `yaml:"api_url" env:"API_URL"`
	AdminAPIBaseURL  string        `yaml:"admin_api_url" env:"ADMIN_API_URL"`
	AdminToken       string        `yaml:"admin_token" env:"ADMIN_TOKEN"`
	UserID           string        `yaml:"user_id" env:"USER_ID"`
	StartingBalance  int           `yaml:"starting_balance" env:"STARTING_BALANCE"`
	HostBridgeBinary string        `yaml:"host_bridge" env:"HOST_BRIDGE"`
	GPSDAddr         string        `yaml:"gpsd_addr" env:"GPSD_ADDR"`
	FixedLocation    string        `yaml:"fixed_location" env:"FIXED_LOCATION"`
	RedisAddr        string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RequestTimeout   time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	LogLevel         string        `yaml:"log_level" env:"LOG_LEVEL"`
}

// New resolves configuration for dataDir: defaults, then dataDir/bnk.yaml,
// then BNK_* environment variables.
func New(dataDir string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	cfg := Config{
		DataDir:         dataDir,
		AdminAPIBaseURL: DefaultAdminAPIURL,
		UserID:          DefaultUserID,
		StartingBalance: DefaultBalance,
		RequestTimeout:  DefaultRequestTimeout,
		LogLevel:        "warn",
	}
	if err := cfg.loadFile(filepath.Join(dataDir, FileName)); err != nil {
		return Config{}, err
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "BNK_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(dataDir, ".bnk", "bnk.db")
	} else if !filepath.IsAbs(cfg.DBPath) {
		cfg.DBPath = filepath.Join(dataDir, cfg.DBPath)
	}
	if cfg.AdminToken == "" {
		cfg.AdminToken = "Bearer " + cfg.UserID
	}
	if cfg.FixedLocation != "" {
		if _, _, err := ParseCoordinate(cfg.FixedLocation); err != nil {
			return Config{}, fmt.Errorf("fixed_location: %w", err)
		}
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ParseCoordinate parses "lat,lng" in degrees.
func ParseCoordinate(raw string) (float64, float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected lat,lng: %q", raw)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("coordinate out of range: %q", raw)
	}
	return lat, lng, nil
}
