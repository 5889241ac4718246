// Package config provides centralized configuration management.
// This is the single source of truth for match tuning and service settings.
//
// Values are resolved in layers: Go defaults, then an optional YAML file,
// then environment variables. Commands apply their flags last.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// MATCH CONFIGURATION
// =============================================================================

// MatchConfig holds every tunable the match engine reads.
// The first six fields are the recognised public options; the rest tune
// tactical and timing details and have sensible defaults.
type MatchConfig struct {
	TickRate                 int           `yaml:"tick_rate" env:"TICK_RATE"`                                   // Ticks per simulated second
	MatchDuration            time.Duration `yaml:"match_duration" env:"MATCH_DURATION"`                         // Regulation time, both halves
	PressingIntensityDefault float64       `yaml:"pressing_intensity_default" env:"PRESSING_INTENSITY_DEFAULT"` // 0..1, used when a team sets none
	CompactnessMaxDistance   float64       `yaml:"compactness_max_distance" env:"COMPACTNESS_MAX_DISTANCE"`     // Metres from the outfield centroid
	MaxConcurrentPressers    int           `yaml:"max_concurrent_pressers" env:"MAX_CONCURRENT_PRESSERS"`
	RandomSeed               int64         `yaml:"random_seed" env:"RANDOM_SEED"`

	PressDistance     float64       `yaml:"press_distance" env:"PRESS_DISTANCE"`       // Metres from ball to an eligible presser
	PressThreshold    float64       `yaml:"press_threshold" env:"PRESS_THRESHOLD"`     // Minimum intensity that triggers a press
	PressMinStamina   float64       `yaml:"press_min_stamina" env:"PRESS_MIN_STAMINA"` // Tired players do not press
	TacticsEnabled    bool          `yaml:"tactics_enabled" env:"TACTICS_ENABLED"`
	Workers           int           `yaml:"workers" env:"DECISION_WORKERS"` // Decision goroutines; 0 = GOMAXPROCS
	DispossessedTicks int           `yaml:"dispossessed_ticks" env:"DISPOSSESSED_TICKS"`
	StoppagePerGoal   time.Duration `yaml:"stoppage_per_goal" env:"STOPPAGE_PER_GOAL"`
	StoppagePerFoul   time.Duration `yaml:"stoppage_per_foul" env:"STOPPAGE_PER_FOUL"`
	MaxStoppage       time.Duration `yaml:"max_stoppage" env:"MAX_STOPPAGE"` // Cap per half
	HalfTimeTicks     int           `yaml:"half_time_ticks" env:"HALF_TIME_TICKS"`
}

// DefaultMatch returns the default match configuration.
func DefaultMatch() MatchConfig {
	return MatchConfig{
		TickRate:                 10,
		MatchDuration:            90 * time.Minute,
		PressingIntensityDefault: 0.6,
		CompactnessMaxDistance:   35,
		MaxConcurrentPressers:    2,
		RandomSeed:               0,

		PressDistance:     15,
		PressThreshold:    0.5,
		PressMinStamina:   0.3,
		TacticsEnabled:    true,
		Workers:           0,
		DispossessedTicks: 8,
		StoppagePerGoal:   30 * time.Second,
		StoppagePerFoul:   10 * time.Second,
		MaxStoppage:       5 * time.Minute,
		HalfTimeTicks:     1,
	}
}

// TickDuration is the simulated time covered by one tick.
func (c MatchConfig) TickDuration() time.Duration {
	if c.TickRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.TickRate)
}

// DecisionWorkers resolves the worker count, defaulting to GOMAXPROCS.
func (c MatchConfig) DecisionWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Validate reports every invalid field as a *ConfigurationError.
func (c MatchConfig) Validate() error {
	var errs []error
	add := func(field string, value any, reason string) {
		errs = append(errs, &ConfigurationError{Field: field, Value: value, Reason: reason})
	}

	if c.TickRate < 1 || c.TickRate > 1000 {
		add("tick_rate", c.TickRate, "must be between 1 and 1000")
	}
	if c.MatchDuration <= 0 {
		add("match_duration", c.MatchDuration, "must be positive")
	} else if c.TickRate > 0 && c.MatchDuration < 2*c.TickDuration() {
		add("match_duration", c.MatchDuration, "must cover at least one tick per half")
	}
	if !inUnit(c.PressingIntensityDefault) {
		add("pressing_intensity_default", c.PressingIntensityDefault, "must be within [0, 1]")
	}
	if !(c.CompactnessMaxDistance > 0) {
		add("compactness_max_distance", c.CompactnessMaxDistance, "must be positive")
	}
	if c.MaxConcurrentPressers < 0 || c.MaxConcurrentPressers > 10 {
		add("max_concurrent_pressers", c.MaxConcurrentPressers, "must be between 0 and 10")
	}
	if c.PressDistance < 0 {
		add("press_distance", c.PressDistance, "must not be negative")
	}
	if !inUnit(c.PressThreshold) {
		add("press_threshold", c.PressThreshold, "must be within [0, 1]")
	}
	if !inUnit(c.PressMinStamina) {
		add("press_min_stamina", c.PressMinStamina, "must be within [0, 1]")
	}
	if c.Workers < 0 {
		add("workers", c.Workers, "must not be negative")
	}
	if c.DispossessedTicks < 1 {
		add("dispossessed_ticks", c.DispossessedTicks, "must be at least 1")
	}
	if c.StoppagePerGoal < 0 || c.StoppagePerFoul < 0 || c.MaxStoppage < 0 {
		add("stoppage", []time.Duration{c.StoppagePerGoal, c.StoppagePerFoul, c.MaxStoppage}, "must not be negative")
	}
	if c.HalfTimeTicks < 1 {
		add("half_time_ticks", c.HalfTimeTicks, "must be at least 1")
	}

	return errors.Join(errs...)
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings for the live match server.
type ServerConfig struct {
	Addr           string   `yaml:"addr" env:"SERVER_ADDR"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
	AdminToken     string   `yaml:"admin_token" env:"ADMIN_TOKEN"`
	Pace           float64  `yaml:"pace" env:"MATCH_PACE"` // Simulated seconds per wall second
	BroadcastHz    float64  `yaml:"broadcast_hz" env:"BROADCAST_HZ"`
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Addr:           ":3000",
		AllowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		Pace:           1,
		BroadcastHz:    10,
	}
}

// =============================================================================
// OBSERVABILITY CONFIGURATION
// =============================================================================

// ObservabilityConfig holds metrics, profiling and tracing settings.
type ObservabilityConfig struct {
	DebugAddr     string `yaml:"debug_addr" env:"DEBUG_ADDR"` // Forced onto localhost
	EnableDebug   bool   `yaml:"enable_debug" env:"ENABLE_DEBUG"`
	TraceEndpoint string `yaml:"trace_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName   string `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
}

// DefaultObservability returns the default observability configuration.
func DefaultObservability() ObservabilityConfig {
	return ObservabilityConfig{
		DebugAddr:   "localhost:6060",
		EnableDebug: true,
		ServiceName: "pitchside",
	}
}

// =============================================================================
// STORAGE CONFIGURATION
// =============================================================================

// StorageConfig holds output locations for event logs and the match archive.
type StorageConfig struct {
	EventLogPath string `yaml:"event_log_path" env:"EVENT_LOG_PATH"` // NDJSON, empty disables
	ArchivePath  string `yaml:"archive_path" env:"ARCHIVE_PATH"`     // SQLite, empty disables
}

// DefaultStorage returns the default storage configuration.
func DefaultStorage() StorageConfig {
	return StorageConfig{
		EventLogPath: "events.jsonl",
	}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Match         MatchConfig         `yaml:"match"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
	Storage       StorageConfig       `yaml:"storage"`
}

// Default returns the complete default configuration.
func Default() AppConfig {
	return AppConfig{
		Match:         DefaultMatch(),
		Server:        DefaultServer(),
		Observability: DefaultObservability(),
		Storage:       DefaultStorage(),
	}
}

// Load returns the configuration built from defaults, the optional YAML file
// at path (skipped when empty) and environment overrides, then validates it.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := FromEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Match.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile decodes a YAML file over target. Unknown keys are rejected so
// typos surface before kickoff.
func LoadFile(path string, target *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil {
		return &ConfigurationError{Field: path, Value: nil, Reason: err.Error()}
	}
	return nil
}

// FromEnv overlays environment variables onto target. Unset variables keep
// the value already in target.
func FromEnv(target *AppConfig) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
