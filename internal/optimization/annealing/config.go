package annealing

import "github.com/copyleftdev/disperse/internal/optimization"

// Config holds the annealing schedule.
type Config struct {
	Iterations         int     `json:"iterations"`
	InitialTemperature float64 `json:"initial_temperature"`
	// CoolingRate multiplies the temperature after every iteration.
	CoolingRate float64 `json:"cooling_rate"`
	// StepSize is the standard deviation of the Gaussian proposal noise.
	StepSize float64 `json:"step_size"`
}

func DefaultConfig() Config {
	return Config{
		Iterations:         2000,
		InitialTemperature: 1.0,
		CoolingRate:        0.995,
		StepSize:           0.01,
	}
}

func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return optimization.NewInvalidParameterError(Name, "iterations must be > 0 (got %d)", c.Iterations)
	}
	if c.InitialTemperature <= 0 {
		return optimization.NewInvalidParameterError(Name, "initial_temperature must be > 0 (got %f)", c.InitialTemperature)
	}
	if c.CoolingRate <= 0 || c.CoolingRate > 1 {
		return optimization.NewInvalidParameterError(Name, "cooling_rate must be in (0, 1] (got %f)", c.CoolingRate)
	}
	if c.StepSize <= 0 {
		return optimization.NewInvalidParameterError(Name, "step_size must be > 0 (got %f)", c.StepSize)
	}
	return nil
}
