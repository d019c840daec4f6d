// Package config provides configuration loading and access for the localizer.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all localizer configuration parameters.
type Config struct {
	Screen        ScreenConfig        `yaml:"screen"`
	Map           MapConfig           `yaml:"map"`
	Filter        FilterConfig        `yaml:"filter"`
	Motion        MotionConfig        `yaml:"motion"`
	Measurement   MeasurementConfig   `yaml:"measurement"`
	Lidar         LidarConfig         `yaml:"lidar"`
	DistanceField DistanceFieldConfig `yaml:"distance_field"`
	Odometry      OdometryConfig      `yaml:"odometry"`
	Agent         AgentConfig         `yaml:"agent"`
	Planner       PlannerConfig       `yaml:"planner"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
	Display       DisplayConfig       `yaml:"display"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// MapConfig selects the environment: a builtin name or a YAML map file.
type MapConfig struct {
	Name string `yaml:"name"`
}

// FilterConfig holds particle filter sizing.
type FilterConfig struct {
	Particles int    `yaml:"particles"`
	Workers   int    `yaml:"workers"` // 0 = GOMAXPROCS
	Streams   int    `yaml:"streams"` // independent random streams
	Seed      uint64 `yaml:"seed"`
	// Global relocalization when the filter looks lost.
	RecoverBelowESS float64 `yaml:"recover_below_ess"` // fraction of N; 0 disables
}

// MotionConfig holds the odometry noise coefficients.
type MotionConfig struct {
	A1 float64 `yaml:"a1"` // rotation noise from rotation
	A2 float64 `yaml:"a2"` // rotation noise from translation
	A3 float64 `yaml:"a3"` // translation noise from translation
	A4 float64 `yaml:"a4"` // translation noise from rotation
}

// MeasurementConfig holds likelihood field parameters.
type MeasurementConfig struct {
	Sigma float64 `yaml:"sigma"`
	Scale float64 `yaml:"scale"`
}

// LidarConfig describes the simulated range sensor.
type LidarConfig struct {
	AngularResolution float64 `yaml:"angular_resolution"` // degrees between rays
	Noise             float64 `yaml:"noise"`              // range std dev
}

// DistanceFieldConfig controls the distance grid and its cache.
type DistanceFieldConfig struct {
	ResamplingFactor float64 `yaml:"resampling_factor"`
	Store            string  `yaml:"store"` // memory, file, sqlite, none
	CacheDir         string  `yaml:"cache_dir"`
	SQLitePath       string  `yaml:"sqlite_path"`
}

// OdometryConfig controls the simulated wheel odometry.
type OdometryConfig struct {
	NoiseFraction float64 `yaml:"noise_fraction"` // std dev as a fraction of each delta
}

// AgentConfig holds the simulated robot's kinematics.
type AgentConfig struct {
	Speed    float64 `yaml:"speed"`     // map units per second
	TurnRate float64 `yaml:"turn_rate"` // radians per second
	Radius   float64 `yaml:"radius"`
	DT       float64 `yaml:"dt"` // fixed step for headless runs
}

// PlannerConfig controls the A* planner used by the autopilot.
type PlannerConfig struct {
	Enabled  bool    `yaml:"enabled"`
	CellSize float64 `yaml:"cell_size"`
	// Extra clearance beyond the agent radius.
	Clearance     float64 `yaml:"clearance"`
	WaypointReach float64 `yaml:"waypoint_reach"`
}

// TelemetryConfig holds telemetry collection parameters.
type TelemetryConfig struct {
	StatsWindow         int     `yaml:"stats_window"` // steps per window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	DivergedError       float64 `yaml:"diverged_error"`  // position error that counts as lost
	ConvergedError      float64 `yaml:"converged_error"` // position error that counts as found
	EventHistorySize    int     `yaml:"event_history_size"`
}

// DisplayConfig holds initial overlay toggles for the graphical demo.
type DisplayConfig struct {
	Particles bool `yaml:"particles"`
	Rays      bool `yaml:"rays"`
	Path      bool `yaml:"path"`
	Field     bool `yaml:"field"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	ScreenW32 float32
	ScreenH32 float32
	NumRays   int // from lidar angular resolution
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from path and sets it as the global config.
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults,
// then applies environment overrides. If path is empty, only embedded
// defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

// applyEnv applies the environment variable overrides.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"MAX_PARTICLES", &c.Filter.Particles},
		{"SCREEN_WIDTH", &c.Screen.Width},
		{"SCREEN_HEIGHT", &c.Screen.Height},
		{"MAX_FPS", &c.Screen.TargetFPS},
	}
	for _, e := range ints {
		if v, ok := lookup(e.key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("env %s: %w", e.key, err)
			}
			*e.dst = n
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"USE_PATHFINDER", &c.Planner.Enabled},
		{"DRAW_PARTICLES", &c.Display.Particles},
	}
	for _, e := range bools {
		if v, ok := lookup(e.key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("env %s: %w", e.key, err)
			}
			*e.dst = b
		}
	}

	if v, ok := lookup("MAP"); ok && v != "" {
		c.Map.Name = v
	}
	return nil
}

// Validate reports parameter combinations the filter cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Filter.Particles <= 0 {
		errs = append(errs, fmt.Errorf("filter.particles must be positive, got %d", c.Filter.Particles))
	}
	if c.Lidar.AngularResolution <= 0 || c.Lidar.AngularResolution > 360 {
		errs = append(errs, fmt.Errorf("lidar.angular_resolution must be in (0, 360], got %v", c.Lidar.AngularResolution))
	}
	if c.Lidar.Noise < 0 {
		errs = append(errs, fmt.Errorf("lidar.noise must not be negative, got %v", c.Lidar.Noise))
	}
	if !(c.Measurement.Sigma > 0) {
		errs = append(errs, fmt.Errorf("measurement.sigma must be positive, got %v", c.Measurement.Sigma))
	}
	if !(c.DistanceField.ResamplingFactor > 0) {
		errs = append(errs, fmt.Errorf("distance_field.resampling_factor must be positive, got %v", c.DistanceField.ResamplingFactor))
	}
	for name, a := range map[string]float64{"a1": c.Motion.A1, "a2": c.Motion.A2, "a3": c.Motion.A3, "a4": c.Motion.A4} {
		if a < 0 {
			errs = append(errs, fmt.Errorf("motion.%s must not be negative, got %v", name, a))
		}
	}
	if c.Map.Name == "" {
		errs = append(errs, errors.New("map.name is required"))
	}
	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.NumRays = int(2*math.Pi/(c.Lidar.AngularResolution*math.Pi/180) + 1e-9)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
