package swarm

import "github.com/copyleftdev/disperse/internal/optimization"

// Boundary selects how a particle that leaves the region is brought back.
type Boundary string

const (
	// BoundaryResample replaces every escaped point with a fresh feasible draw.
	BoundaryResample Boundary = "resample"
	// BoundaryClamp moves every escaped point to the nearest point of the region.
	BoundaryClamp Boundary = "clamp"
)

// Config holds the swarm parameters.
type Config struct {
	Particles  int     `json:"particles"`
	Iterations int     `json:"iterations"`
	Inertia    float64 `json:"inertia"`
	Cognitive  float64 `json:"cognitive"`
	Social     float64 `json:"social"`

	// MaxVelocity clamps every velocity coordinate to [-MaxVelocity, MaxVelocity].
	// Zero disables the clamp.
	MaxVelocity float64 `json:"max_velocity"`

	Boundary Boundary `json:"boundary"`
}

func DefaultConfig() Config {
	return Config{
		Particles:  30,
		Iterations: 100,
		Inertia:    0.7,
		Cognitive:  1.5,
		Social:     1.5,
		Boundary:   BoundaryResample,
	}
}

func (c Config) Validate() error {
	if c.Particles <= 0 {
		return optimization.NewInvalidParameterError(Name, "particles must be > 0 (got %d)", c.Particles)
	}
	if c.Iterations <= 0 {
		return optimization.NewInvalidParameterError(Name, "iterations must be > 0 (got %d)", c.Iterations)
	}
	if c.Inertia < 0 {
		return optimization.NewInvalidParameterError(Name, "inertia must be >= 0 (got %f)", c.Inertia)
	}
	if c.Cognitive < 0 || c.Social < 0 {
		return optimization.NewInvalidParameterError(Name,
			"cognitive and social weights must be >= 0 (got %f, %f)", c.Cognitive, c.Social)
	}
	if c.MaxVelocity < 0 {
		return optimization.NewInvalidParameterError(Name, "max_velocity must be >= 0 (got %f)", c.MaxVelocity)
	}
	switch c.Boundary {
	case BoundaryResample, BoundaryClamp, "":
	default:
		return optimization.NewInvalidParameterError(Name, "unknown boundary mode %q", c.Boundary)
	}
	return nil
}
