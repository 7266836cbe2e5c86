package colony

import "github.com/copyleftdev/disperse/internal/optimization"

// Config holds the ant colony parameters.
type Config struct {
	Ants       int `json:"ants"`
	Iterations int `json:"iterations"`

	// Alpha and Beta weight pheromone and heuristic desirability.
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`

	// Evaporation is the share of pheromone lost every iteration.
	Evaporation float64 `json:"evaporation"`
	// Deposit is the pheromone quantity Q laid by a top ant.
	Deposit float64 `json:"deposit"`

	// Candidates is the size of the pre-sampled location pool.
	Candidates int `json:"candidates"`
	// Exploration is the probability of picking a uniform candidate.
	Exploration float64 `json:"exploration"`
	// Elite is the number of best ants that deposit pheromone.
	Elite int `json:"elite"`
}

func DefaultConfig() Config {
	return Config{
		Ants:        50,
		Iterations:  100,
		Alpha:       1,
		Beta:        2,
		Evaporation: 0.5,
		Deposit:     100,
		Candidates:  500,
		Exploration: 0.1,
		Elite:       5,
	}
}

func (c Config) Validate() error {
	if c.Ants <= 0 {
		return optimization.NewInvalidParameterError(Name, "ants must be > 0 (got %d)", c.Ants)
	}
	if c.Iterations <= 0 {
		return optimization.NewInvalidParameterError(Name, "iterations must be > 0 (got %d)", c.Iterations)
	}
	if c.Alpha < 0 || c.Beta < 0 {
		return optimization.NewInvalidParameterError(Name, "alpha and beta must be >= 0 (got %f, %f)", c.Alpha, c.Beta)
	}
	if c.Evaporation < 0 || c.Evaporation > 1 {
		return optimization.NewInvalidParameterError(Name, "evaporation must be in [0, 1] (got %f)", c.Evaporation)
	}
	if c.Deposit < 0 {
		return optimization.NewInvalidParameterError(Name, "deposit must be >= 0 (got %f)", c.Deposit)
	}
	if c.Candidates <= 0 {
		return optimization.NewInvalidParameterError(Name, "candidates must be > 0 (got %d)", c.Candidates)
	}
	if c.Exploration < 0 || c.Exploration > 1 {
		return optimization.NewInvalidParameterError(Name, "exploration must be in [0, 1] (got %f)", c.Exploration)
	}
	if c.Elite < 0 {
		return optimization.NewInvalidParameterError(Name, "elite must be >= 0 (got %d)", c.Elite)
	}
	return nil
}
