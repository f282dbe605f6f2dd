// Package config loads civicsync settings: built-in defaults, then an optional
// YAML file, then CIVIC_* environment variables.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/mkoziy/civic/exporter/internal/database"
	"github.com/mkoziy/civic/exporter/internal/logging"
	"github.com/mkoziy/civic/exporter/internal/models"
	"github.com/mkoziy/civic/exporter/internal/parse"
	"github.com/mkoziy/civic/exporter/internal/ratelimit"
)

const (
	// PathEnvVar overrides the config file location.
	PathEnvVar = "CIVIC_CONFIG"
	// DefaultPath is read when present and PathEnvVar is unset.
	DefaultPath = "civicsync.yaml"

	envPrefix = "CIVIC_"
)

//go:embed rate_limits.yaml
var rateLimitsYAML []byte

// Config is the complete process configuration.
type Config struct {
	Database database.Config    `koanf:"database"`
	HTTP     HTTPConfig         `koanf:"http"`
	Logging  logging.Config     `koanf:"logging"`
	Fetch    FetchConfig        `koanf:"fetch"`
	Schedule ScheduleConfig     `koanf:"schedule"`
	Datasets map[string]Dataset `koanf:"datasets" validate:"dive"`
}

// HTTPConfig configures the admin surface.
type HTTPConfig struct {
	Addr string `koanf:"addr" validate:"required"`
	// AdminToken is the shared secret expected in X-Admin-Token. Empty disables triggers.
	AdminToken        string        `koanf:"admin_token" validate:"omitempty,min=16"`
	RequestsPerMinute int           `koanf:"requests_per_minute" validate:"gte=0"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// FetchConfig configures upstream downloads.
type FetchConfig struct {
	Timeout    time.Duration `koanf:"timeout" validate:"gt=0"`
	ScratchDir string        `koanf:"scratch_dir"`
	UserAgent  string        `koanf:"user_agent"`
}

// ScheduleConfig configures unattended runs under `civicsync serve`.
type ScheduleConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
	// Datasets restricts scheduled runs; empty means every configured dataset.
	Datasets []string `koanf:"datasets"`
}

// Dataset locates one upstream and describes how to read it.
type Dataset struct {
	URL       string           `koanf:"url" validate:"omitempty,url"`
	Format    parse.Config     `koanf:"format"`
	RateLimit ratelimit.Config `koanf:"rate_limit"`
}

// Default returns the built-in configuration.
func Default() *Config {
	limits, err := ratelimit.LoadSourceConfigs(rateLimitsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded rate_limits.yaml: %v", err))
	}
	rl := func(name models.DatasetType) ratelimit.Config {
		cfg, err := limits.Get(string(name))
		if err != nil {
			return ratelimit.DefaultConfig()
		}
		return cfg
	}

	return &Config{
		Database: database.Config{DSN: "file:civic.db"},
		HTTP: HTTPConfig{
			Addr:              ":8080",
			RequestsPerMinute: 30,
			ReadTimeout:       15 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Logging: logging.Config{Level: "info", Format: "json"},
		Fetch: FetchConfig{
			Timeout: 2 * time.Minute,
		},
		Schedule: ScheduleConfig{Interval: 24 * time.Hour},
		Datasets: map[string]Dataset{
			string(models.DatasetDeputies): {
				URL:       "https://www.nosdeputes.fr/deputes/json",
				Format:    parse.Config{Kind: parse.KindJSON, Field: "deputes", Unwrap: "depute"},
				RateLimit: rl(models.DatasetDeputies),
			},
			string(models.DatasetSenators): {
				URL:       "https://data.senat.fr/data/senateurs/ODSEN_GENERAL.zip",
				Format:    parse.Config{Kind: parse.KindArchive, RecordElement: "senateur"},
				RateLimit: rl(models.DatasetSenators),
			},
			string(models.DatasetMunicipalOfficers): {
				URL:       "https://www.data.gouv.fr/fr/datasets/r/2876a346-d50c-4911-934e-19ee07b0e503",
				Format:    parse.Config{Kind: parse.KindDelimited, Delimiter: ";"},
				RateLimit: rl(models.DatasetMunicipalOfficers),
			},
			string(models.DatasetCommunes): {
				URL:       "https://geo.api.gouv.fr/communes?fields=nom,code,codesPostaux,codeDepartement,codeRegion,population&format=json",
				Format:    parse.Config{Kind: parse.KindJSON},
				RateLimit: rl(models.DatasetCommunes),
			},
			string(models.DatasetVotes): {
				URL:       "https://data.assemblee-nationale.fr/static/openData/repository/17/loi/scrutins/Scrutins.json.zip",
				Format:    parse.Config{Kind: parse.KindArchive},
				RateLimit: rl(models.DatasetVotes),
			},
		},
	}
}

// Load builds the configuration from defaults, the config file and the environment.
// path overrides the file lookup when not empty.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	splitList(k, "schedule.datasets")

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}
	return ""
}

// envTransformFunc maps CIVIC_HTTP__ADMIN_TOKEN to http.admin_token.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// splitList turns a comma-separated env value into a list.
func splitList(k *koanf.Koanf, path string) {
	s, ok := k.Get(path).(string)
	if !ok {
		return
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	_ = k.Set(path, out)
}

var validate = validator.New()

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	var errs []error
	if c.Schedule.Enabled && c.Schedule.Interval < time.Minute {
		errs = append(errs, fmt.Errorf("schedule.interval must be at least 1m, got %s", c.Schedule.Interval))
	}
	for name := range c.Datasets {
		if !known(name) {
			errs = append(errs, fmt.Errorf("datasets.%s: unknown dataset", name))
		}
	}
	for _, name := range c.Schedule.Datasets {
		if _, ok := c.Datasets[name]; !ok {
			errs = append(errs, fmt.Errorf("schedule.datasets: %s is not configured", name))
		}
	}
	return errors.Join(errs...)
}

func known(name string) bool {
	for _, t := range models.AllDatasets() {
		if string(t) == name {
			return true
		}
	}
	return false
}
