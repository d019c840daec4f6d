package components

import "github.com/pthm-cable/mcl/config"

// Body holds physical properties of an entity.
type Body struct {
	Radius float64
}

// Kinematics bounds how fast an entity may move.
type Kinematics struct {
	Speed    float64 // map units per second
	TurnRate float64 // radians per second
}

// KinematicsFromConfig returns the agent limits from an agent config.
func KinematicsFromConfig(cfg config.AgentConfig) Kinematics {
	return Kinematics{Speed: cfg.Speed, TurnRate: cfg.TurnRate}
}
