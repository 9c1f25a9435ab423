package locomotion

import "github.com/pthm-cable/companion/config"

// FollowParams holds engagement arbitration thresholds.
type FollowParams struct {
	EngageRadius        float64
	ContinueRadius      float64 // >= EngageRadius so the boundary does not flicker
	StopDistance        float64
	IdleTargetSpeed     float64
	TargetEyeHeight     float64
	AgentShoulderHeight float64
}

// AnchorParams holds follow-anchor planning parameters.
type AnchorParams struct {
	BehindDistance        float64
	SideDistance          float64
	SideBias              int // -1, +1, or 0 to draw from the agent's seed
	RecomputeTicks        int64
	DisplacementThreshold float64
	StagnationTicks       int64
	BandMin               float64
	BandMax               float64
	ProgressEpsilon       float64
	ArriveDistance        float64
	MinTargetSpeed        float64
	GroundScanUp          int
	GroundScanDown        int
}

// GaitParams holds gait state machine and speed smoothing parameters.
type GaitParams struct {
	WalkSpeed         float64
	RunSpeed          float64
	SprintBoost       float64
	SpeedCap          float64
	WalkCeiling       float64
	RunCeiling        float64
	JumpCeiling       float64
	NearDistance      float64
	RunDistance       float64
	JumpDistance      float64
	CatchUpDistance   float64
	LockTicks         int64
	AccelStep         float64
	DecelStep         float64
	JumpCooldownTicks int64
}

// NavParams holds path issuance pacing.
type NavParams struct {
	RecomputeTicks int64
	AnchorEpsilon  float64
}

// SafetyParams holds terrain probe parameters.
type SafetyParams struct {
	Enabled           bool
	ProbeDistance     float64
	ScanUp            int
	ScanDown          int
	CautionThreshold  float64
	DangerThreshold   float64
	CautionSpeedScale float64
}

// RotationParams holds yaw smoothing parameters in radians.
type RotationParams struct {
	LookStep      float64
	RunStep       float64
	Deadzone      float64
	MinAlignSpeed float64
}

// Params bundles every tunable of the follow controller.
type Params struct {
	Follow   FollowParams
	Anchor   AnchorParams
	Gait     GaitParams
	Nav      NavParams
	Safety   SafetyParams
	Rotation RotationParams
}

// DefaultParams returns the tuning shipped in config/defaults.yaml.
func DefaultParams() Params {
	return Params{
		Follow: FollowParams{
			EngageRadius:        24,
			ContinueRadius:      32,
			StopDistance:        3.5,
			IdleTargetSpeed:     0.02,
			TargetEyeHeight:     1.62,
			AgentShoulderHeight: 1.2,
		},
		Anchor: AnchorParams{
			BehindDistance:        2.5,
			SideDistance:          1.5,
			SideBias:              0,
			RecomputeTicks:        10,
			DisplacementThreshold: 2,
			StagnationTicks:       40,
			BandMin:               1,
			BandMax:               4.5,
			ProgressEpsilon:       0.05,
			ArriveDistance:        0.75,
			MinTargetSpeed:        0.03,
			GroundScanUp:          3,
			GroundScanDown:        4,
		},
		Gait: GaitParams{
			WalkSpeed:         0.18,
			RunSpeed:          0.28,
			SprintBoost:       1.25,
			SpeedCap:          0.4,
			WalkCeiling:       0.28,
			RunCeiling:        0.3,
			JumpCeiling:       0.4,
			NearDistance:      4,
			RunDistance:       8,
			JumpDistance:      10,
			CatchUpDistance:   20,
			LockTicks:         10,
			AccelStep:         0.03,
			DecelStep:         0.015,
			JumpCooldownTicks: 15,
		},
		Nav: NavParams{
			RecomputeTicks: 10,
			AnchorEpsilon:  0.5,
		},
		Safety: SafetyParams{
			Enabled:           true,
			ProbeDistance:     1.5,
			ScanUp:            2,
			ScanDown:          4,
			CautionThreshold:  1.1,
			DangerThreshold:   3,
			CautionSpeedScale: 0.6,
		},
		Rotation: RotationParams{
			LookStep:      0.17,
			RunStep:       0.35,
			Deadzone:      0.09,
			MinAlignSpeed: 0.05,
		},
	}
}

// NewParams converts loaded configuration into controller parameters.
func NewParams(cfg *config.Config) Params {
	return Params{
		Follow: FollowParams{
			EngageRadius:        cfg.Follow.EngageRadius,
			ContinueRadius:      cfg.Follow.ContinueRadius,
			StopDistance:        cfg.Follow.StopDistance,
			IdleTargetSpeed:     cfg.Follow.IdleTargetSpeed,
			TargetEyeHeight:     cfg.Follow.TargetEyeHeight,
			AgentShoulderHeight: cfg.Follow.AgentShoulderHeight,
		},
		Anchor: AnchorParams{
			BehindDistance:        cfg.Anchor.BehindDistance,
			SideDistance:          cfg.Anchor.SideDistance,
			SideBias:              cfg.Anchor.SideBias,
			RecomputeTicks:        int64(cfg.Anchor.RecomputeTicks),
			DisplacementThreshold: cfg.Anchor.DisplacementThreshold,
			StagnationTicks:       int64(cfg.Anchor.StagnationTicks),
			BandMin:               cfg.Anchor.BandMin,
			BandMax:               cfg.Anchor.BandMax,
			ProgressEpsilon:       cfg.Anchor.ProgressEpsilon,
			ArriveDistance:        cfg.Anchor.ArriveDistance,
			MinTargetSpeed:        cfg.Anchor.MinTargetSpeed,
			GroundScanUp:          cfg.Anchor.GroundScanUp,
			GroundScanDown:        cfg.Anchor.GroundScanDown,
		},
		Gait: GaitParams{
			WalkSpeed:         cfg.Gait.WalkSpeed,
			RunSpeed:          cfg.Gait.RunSpeed,
			SprintBoost:       cfg.Gait.SprintBoost,
			SpeedCap:          cfg.Gait.SpeedCap,
			WalkCeiling:       cfg.Gait.WalkCeiling,
			RunCeiling:        cfg.Gait.RunCeiling,
			JumpCeiling:       cfg.Gait.JumpCeiling,
			NearDistance:      cfg.Gait.NearDistance,
			RunDistance:       cfg.Gait.RunDistance,
			JumpDistance:      cfg.Gait.JumpDistance,
			CatchUpDistance:   cfg.Gait.CatchUpDistance,
			LockTicks:         int64(cfg.Gait.LockTicks),
			AccelStep:         cfg.Gait.AccelStep,
			DecelStep:         cfg.Gait.DecelStep,
			JumpCooldownTicks: int64(cfg.Gait.JumpCooldownTicks),
		},
		Nav: NavParams{
			RecomputeTicks: int64(cfg.Navigation.RecomputeTicks),
			AnchorEpsilon:  cfg.Navigation.AnchorEpsilon,
		},
		Safety: SafetyParams{
			Enabled:           cfg.Safety.Enabled,
			ProbeDistance:     cfg.Safety.ProbeDistance,
			ScanUp:            cfg.Safety.ScanUp,
			ScanDown:          cfg.Safety.ScanDown,
			CautionThreshold:  cfg.Safety.CautionThreshold,
			DangerThreshold:   cfg.Safety.DangerThreshold,
			CautionSpeedScale: cfg.Safety.CautionSpeedScale,
		},
		Rotation: RotationParams{
			LookStep:      cfg.Rotation.LookStep,
			RunStep:       cfg.Rotation.RunStep,
			Deadzone:      cfg.Rotation.Deadzone,
			MinAlignSpeed: cfg.Rotation.MinAlignSpeed,
		},
	}
}
