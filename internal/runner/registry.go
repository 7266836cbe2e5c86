// Package runner builds strategies by name and executes instrumented runs
// and multi-strategy comparisons.
package runner

import (
	"bytes"
	"encoding/json"

	"github.com/copyleftdev/disperse/internal/optimization"
	"github.com/copyleftdev/disperse/internal/optimization/annealing"
	"github.com/copyleftdev/disperse/internal/optimization/colony"
	"github.com/copyleftdev/disperse/internal/optimization/genetic"
	"github.com/copyleftdev/disperse/internal/optimization/swarm"
)

// Defaults holds the base configuration of every strategy. Request
// parameters are decoded on top of these values.
type Defaults struct {
	PSO swarm.Config     `json:"pso"`
	GA  genetic.Config   `json:"ga"`
	ACO colony.Config    `json:"aco"`
	SA  annealing.Config `json:"sa"`
}

// DefaultConfigs returns the built-in configuration of each strategy.
func DefaultConfigs() Defaults {
	return Defaults{
		PSO: swarm.DefaultConfig(),
		GA:  genetic.DefaultConfig(),
		ACO: colony.DefaultConfig(),
		SA:  annealing.DefaultConfig(),
	}
}

// Validate checks every strategy configuration.
func (d Defaults) Validate() error {
	for _, err := range []error{d.PSO.Validate(), d.GA.Validate(), d.ACO.Validate(), d.SA.Validate()} {
		if err != nil {
			return err
		}
	}
	return nil
}

// Names returns the registered strategy names in their canonical order.
func Names() []string {
	return []string{swarm.Name, genetic.Name, colony.Name, annealing.Name}
}

// Info describes a registered strategy.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Defaults    any    `json:"defaults"`
}

// Strategies lists every strategy with its default parameters.
func (d Defaults) Strategies() []Info {
	return []Info{
		{Name: swarm.Name, Description: "particle swarm over flattened coordinates", Defaults: d.PSO},
		{Name: genetic.Name, Description: "genetic search from a start point set", Defaults: d.GA},
		{Name: colony.Name, Description: "ant colony over a sampled candidate pool", Defaults: d.ACO},
		{Name: annealing.Name, Description: "simulated annealing with Gaussian moves", Defaults: d.SA},
	}
}

// NewStrategy builds the named strategy. params is an optional JSON object
// whose fields override the defaults; unknown fields are rejected.
func (d Defaults) NewStrategy(name string, params json.RawMessage, opts ...optimization.Option) (optimization.Strategy, error) {
	switch name {
	case swarm.Name:
		cfg, err := overlay(name, d.PSO, params)
		if err != nil {
			return nil, err
		}
		return swarm.New(cfg, opts...)
	case genetic.Name:
		cfg, err := overlay(name, d.GA, params)
		if err != nil {
			return nil, err
		}
		return genetic.New(cfg, opts...)
	case colony.Name:
		cfg, err := overlay(name, d.ACO, params)
		if err != nil {
			return nil, err
		}
		return colony.New(cfg, opts...)
	case annealing.Name:
		cfg, err := overlay(name, d.SA, params)
		if err != nil {
			return nil, err
		}
		return annealing.New(cfg, opts...)
	default:
		return nil, optimization.NewInvalidParameterError("runner", "unknown strategy %q", name)
	}
}

func overlay[T any](name string, base T, params json.RawMessage) (T, error) {
	if len(bytes.TrimSpace(params)) == 0 {
		return base, nil
	}
	dec := json.NewDecoder(bytes.NewReader(params))
	dec.DisallowUnknownFields()
	cfg := base
	if err := dec.Decode(&cfg); err != nil {
		return base, optimization.NewInvalidParameterError(name, "decode params: %v", err)
	}
	return cfg, nil
}
