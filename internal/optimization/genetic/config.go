package genetic

import "github.com/copyleftdev/disperse/internal/optimization"

// Config holds the genetic search parameters. Rates are named fields so
// crossover and mutation can never be passed in the wrong order.
type Config struct {
	Population  int `json:"population"`
	Generations int `json:"generations"`

	// CrossoverRate is the probability that a parent pair is recombined.
	CrossoverRate float64 `json:"crossover_rate"`
	// MutationRate is the per-point probability of displacement.
	MutationRate float64 `json:"mutation_rate"`
	// MutationStep bounds the uniform displacement applied per coordinate.
	MutationStep float64 `json:"mutation_step"`
}

func DefaultConfig() Config {
	return Config{
		Population:    50,
		Generations:   200,
		CrossoverRate: 0.8,
		MutationRate:  0.1,
		MutationStep:  0.1,
	}
}

func (c Config) Validate() error {
	if c.Population <= 0 {
		return optimization.NewInvalidParameterError(Name, "population must be > 0 (got %d)", c.Population)
	}
	if c.Generations <= 0 {
		return optimization.NewInvalidParameterError(Name, "generations must be > 0 (got %d)", c.Generations)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return optimization.NewInvalidParameterError(Name, "crossover_rate must be in [0, 1] (got %f)", c.CrossoverRate)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return optimization.NewInvalidParameterError(Name, "mutation_rate must be in [0, 1] (got %f)", c.MutationRate)
	}
	if c.MutationStep <= 0 {
		return optimization.NewInvalidParameterError(Name, "mutation_step must be > 0 (got %f)", c.MutationStep)
	}
	return nil
}
