// Package config provides configuration loading and access for the follow controller and its sandbox.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all controller and sandbox configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	Sim         SimConfig         `yaml:"sim"`
	World       WorldConfig       `yaml:"world"`
	Physics     PhysicsConfig     `yaml:"physics"`
	Pathfinding PathfindingConfig `yaml:"pathfinding"`
	Targets     TargetsConfig     `yaml:"targets"`
	Follow      FollowConfig      `yaml:"follow"`
	Anchor      AnchorConfig      `yaml:"anchor"`
	Gait        GaitConfig        `yaml:"gait"`
	Navigation  NavigationConfig  `yaml:"navigation"`
	Safety      SafetyConfig      `yaml:"safety"`
	Rotation    RotationConfig    `yaml:"rotation"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SimConfig holds tick rate and population settings for the sandbox.
type SimConfig struct {
	TickRate int `yaml:"tick_rate"` // Simulation ticks per second
	Agents   int `yaml:"agents"`    // Companion agents to spawn
	Targets  int `yaml:"targets"`   // Target actors to spawn
}

// WorldConfig holds sandbox terrain generation parameters.
type WorldConfig struct {
	Width         int     `yaml:"width"`          // Cells along X
	Depth         int     `yaml:"depth"`          // Cells along Z
	BaseHeight    float64 `yaml:"base_height"`    // Mean ground height
	Relief        float64 `yaml:"relief"`         // Max deviation from base height
	NoiseScale    float64 `yaml:"noise_scale"`    // Terrain noise frequency
	WaterLevel    float64 `yaml:"water_level"`    // Liquid surface height (0 = none)
	WallDensity   float64 `yaml:"wall_density"`   // Noise threshold for wall ridges (1 = none)
	WallHeight    float64 `yaml:"wall_height"`    // Height added to ridge columns
	RoofDensity   float64 `yaml:"roof_density"`   // Noise threshold for overhead slabs (1 = none)
	RoofClearance float64 `yaml:"roof_clearance"` // Slab bottom above ground
}

// PhysicsConfig holds sandbox movement physics.
type PhysicsConfig struct {
	Gravity        float64 `yaml:"gravity"`         // Downward acceleration per tick
	JumpImpulse    float64 `yaml:"jump_impulse"`    // Upward velocity on jump
	StepHeight     float64 `yaml:"step_height"`     // Max ledge climbed without jumping
	LiquidDrag     float64 `yaml:"liquid_drag"`     // Velocity multiplier while submerged
	GroundFriction float64 `yaml:"ground_friction"` // Horizontal velocity retained when not driven
}

// PathfindingConfig holds the sandbox A* backend limits.
type PathfindingConfig struct {
	MaxClimb        float64 `yaml:"max_climb"`         // Max height difference between neighbor cells
	MaxWaterDepth   float64 `yaml:"max_water_depth"`   // Deeper liquid is not walkable
	MaxSearchNodes  int     `yaml:"max_search_nodes"`  // Expansion limit per search
	SearchesPerTick int     `yaml:"searches_per_tick"` // Global search budget per tick (0 = unlimited)
	ReachTolerance  float64 `yaml:"reach_tolerance"`   // Path end within this of goal counts as reaching
	WaypointArrive  float64 `yaml:"waypoint_arrive"`   // Waypoint advance radius
}

// TargetsConfig holds target actor motion parameters.
type TargetsConfig struct {
	Script      string  `yaml:"script"`       // wander, stationary, flee, loop
	WalkSpeed   float64 `yaml:"walk_speed"`   // Units per tick
	SprintSpeed float64 `yaml:"sprint_speed"` // Units per tick
	TurnNoise   float64 `yaml:"turn_noise"`   // Heading noise frequency
	PhaseNoise  float64 `yaml:"phase_noise"`  // Idle/walk/sprint phase noise frequency
	IdleBelow   float64 `yaml:"idle_below"`   // Phase noise below this = idle
	SprintAbove float64 `yaml:"sprint_above"` // Phase noise above this = sprint
	FleeRadius  float64 `yaml:"flee_radius"`  // Flee script keeps this far from agents
}

// FollowConfig holds engagement arbitration parameters.
type FollowConfig struct {
	EngageRadius        float64 `yaml:"engage_radius"`
	ContinueRadius      float64 `yaml:"continue_radius"`   // >= engage radius (hysteresis band)
	StopDistance        float64 `yaml:"stop_distance"`     // Settled when closer than this
	IdleTargetSpeed     float64 `yaml:"idle_target_speed"` // Target counts as resting below this
	TargetEyeHeight     float64 `yaml:"target_eye_height"`
	AgentShoulderHeight float64 `yaml:"agent_shoulder_height"`
}

// AnchorConfig holds follow-anchor planning parameters.
type AnchorConfig struct {
	BehindDistance        float64 `yaml:"behind_distance"`
	SideDistance          float64 `yaml:"side_distance"`
	SideBias              int     `yaml:"side_bias"` // -1 left, +1 right, 0 = seeded per agent
	RecomputeTicks        int     `yaml:"recompute_ticks"`
	DisplacementThreshold float64 `yaml:"displacement_threshold"`
	StagnationTicks       int     `yaml:"stagnation_ticks"`
	BandMin               float64 `yaml:"band_min"`
	BandMax               float64 `yaml:"band_max"`
	ProgressEpsilon       float64 `yaml:"progress_epsilon"`
	ArriveDistance        float64 `yaml:"arrive_distance"`
	MinTargetSpeed        float64 `yaml:"min_target_speed"` // Velocity below this is not a heading source
	GroundScanUp          int     `yaml:"ground_scan_up"`
	GroundScanDown        int     `yaml:"ground_scan_down"`
}

// GaitConfig holds gait state machine and speed smoothing parameters.
type GaitConfig struct {
	WalkSpeed         float64 `yaml:"walk_speed"`
	RunSpeed          float64 `yaml:"run_speed"`
	SprintBoost       float64 `yaml:"sprint_boost"` // Desired speed multiplier in RUN_JUMP
	SpeedCap          float64 `yaml:"speed_cap"`
	WalkCeiling       float64 `yaml:"walk_ceiling"`
	RunCeiling        float64 `yaml:"run_ceiling"`
	JumpCeiling       float64 `yaml:"jump_ceiling"`
	NearDistance      float64 `yaml:"near_distance"`
	RunDistance       float64 `yaml:"run_distance"`
	JumpDistance      float64 `yaml:"jump_distance"`
	CatchUpDistance   float64 `yaml:"catch_up_distance"`
	LockTicks         int     `yaml:"lock_ticks"`
	AccelStep         float64 `yaml:"accel_step"`
	DecelStep         float64 `yaml:"decel_step"`
	JumpCooldownTicks int     `yaml:"jump_cooldown_ticks"`
}

// NavigationConfig holds path issuance pacing.
type NavigationConfig struct {
	RecomputeTicks int     `yaml:"recompute_ticks"`
	AnchorEpsilon  float64 `yaml:"anchor_epsilon"`
}

// SafetyConfig holds terrain probe parameters.
type SafetyConfig struct {
	Enabled           bool    `yaml:"enabled"`
	ProbeDistance     float64 `yaml:"probe_distance"`
	ScanUp            int     `yaml:"scan_up"`
	ScanDown          int     `yaml:"scan_down"`
	CautionThreshold  float64 `yaml:"caution_threshold"`
	DangerThreshold   float64 `yaml:"danger_threshold"`
	CautionSpeedScale float64 `yaml:"caution_speed_scale"`
}

// RotationConfig holds yaw smoothing parameters (radians).
type RotationConfig struct {
	LookStep      float64 `yaml:"look_step"`
	RunStep       float64 `yaml:"run_step"`
	Deadzone      float64 `yaml:"deadzone"`
	MinAlignSpeed float64 `yaml:"min_align_speed"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // Seconds of sim time per window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT               float64 // Seconds per tick
	TicksPerWindow   int32   // Telemetry window length in ticks
	StopDistanceSq   float64
	EngageRadiusSq   float64
	ContinueRadiusSq float64
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
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

// Set replaces the global configuration (used by hot reload).
func Set(cfg *Config) {
	global = cfg
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
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
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	cfg.computeDerived()

	return cfg, nil
}

// Validate checks that thresholds are mutually consistent.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Sim.TickRate > 0, "sim.tick_rate must be positive, got %d", c.Sim.TickRate)
	check(c.Follow.ContinueRadius >= c.Follow.EngageRadius,
		"follow.continue_radius (%v) must be >= follow.engage_radius (%v)", c.Follow.ContinueRadius, c.Follow.EngageRadius)
	check(c.Follow.StopDistance > 0, "follow.stop_distance must be positive")
	check(c.Anchor.SideBias >= -1 && c.Anchor.SideBias <= 1, "anchor.side_bias must be -1, 0 or 1, got %d", c.Anchor.SideBias)
	check(c.Anchor.BandMin <= c.Anchor.BandMax, "anchor.band_min must be <= anchor.band_max")
	check(c.Anchor.RecomputeTicks > 0, "anchor.recompute_ticks must be positive")
	check(c.Gait.NearDistance <= c.Gait.RunDistance, "gait.near_distance must be <= gait.run_distance")
	check(c.Gait.RunDistance <= c.Gait.CatchUpDistance, "gait.run_distance must be <= gait.catch_up_distance")
	check(c.Gait.WalkSpeed <= c.Gait.RunSpeed, "gait.walk_speed must be <= gait.run_speed")
	check(c.Gait.AccelStep > 0 && c.Gait.DecelStep > 0, "gait.accel_step and gait.decel_step must be positive")
	check(c.Gait.LockTicks >= 0, "gait.lock_ticks must not be negative")
	check(c.Navigation.RecomputeTicks > 0, "navigation.recompute_ticks must be positive")
	check(c.Safety.CautionThreshold < c.Safety.DangerThreshold,
		"safety.caution_threshold (%v) must be < safety.danger_threshold (%v)", c.Safety.CautionThreshold, c.Safety.DangerThreshold)

	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT = 1.0 / float64(c.Sim.TickRate)
	c.Derived.TicksPerWindow = int32(c.Telemetry.StatsWindow * float64(c.Sim.TickRate))
	if c.Derived.TicksPerWindow < 1 {
		c.Derived.TicksPerWindow = 1
	}
	c.Derived.StopDistanceSq = c.Follow.StopDistance * c.Follow.StopDistance
	c.Derived.EngageRadiusSq = c.Follow.EngageRadius * c.Follow.EngageRadius
	c.Derived.ContinueRadiusSq = c.Follow.ContinueRadius * c.Follow.ContinueRadius
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
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
