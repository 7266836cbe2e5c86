package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/copyleftdev/disperse/internal/logging"
	"github.com/copyleftdev/disperse/internal/optimization/annealing"
	"github.com/copyleftdev/disperse/internal/optimization/colony"
	"github.com/copyleftdev/disperse/internal/optimization/genetic"
	"github.com/copyleftdev/disperse/internal/optimization/swarm"
	"github.com/copyleftdev/disperse/internal/runner"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Optimization struct {
		WorkerCount int `env:"OPT_WORKER_COUNT" envDefault:"4"`
		// Seed fixes the seed of runs that do not bring their own. Zero
		// leaves them time-seeded.
		Seed           int64 `env:"OPT_SEED" envDefault:"0"`
		SampleAttempts int   `env:"OPT_SAMPLE_ATTEMPTS" envDefault:"100000"`
		ProgressEvery  int   `env:"OPT_PROGRESS_EVERY" envDefault:"100"`
		MaxJobs        int   `env:"OPT_MAX_JOBS" envDefault:"16"`
		CompareRuns    int   `env:"OPT_COMPARE_RUNS" envDefault:"5"`
	}
	PSO struct {
		Particles   int     `env:"PSO_PARTICLES" envDefault:"30"`
		Iterations  int     `env:"PSO_ITERATIONS" envDefault:"100"`
		Inertia     float64 `env:"PSO_INERTIA" envDefault:"0.7"`
		Cognitive   float64 `env:"PSO_COGNITIVE" envDefault:"1.5"`
		Social      float64 `env:"PSO_SOCIAL" envDefault:"1.5"`
		MaxVelocity float64 `env:"PSO_MAX_VELOCITY" envDefault:"0"`
		Boundary    string  `env:"PSO_BOUNDARY" envDefault:"resample"`
	}
	GA struct {
		Population    int     `env:"GA_POPULATION" envDefault:"50"`
		Generations   int     `env:"GA_GENERATIONS" envDefault:"200"`
		CrossoverRate float64 `env:"GA_CROSSOVER_RATE" envDefault:"0.8"`
		MutationRate  float64 `env:"GA_MUTATION_RATE" envDefault:"0.1"`
		MutationStep  float64 `env:"GA_MUTATION_STEP" envDefault:"0.1"`
	}
	ACO struct {
		Ants        int     `env:"ACO_ANTS" envDefault:"50"`
		Iterations  int     `env:"ACO_ITERATIONS" envDefault:"100"`
		Alpha       float64 `env:"ACO_ALPHA" envDefault:"1"`
		Beta        float64 `env:"ACO_BETA" envDefault:"2"`
		Evaporation float64 `env:"ACO_EVAPORATION" envDefault:"0.5"`
		Deposit     float64 `env:"ACO_DEPOSIT" envDefault:"100"`
		Candidates  int     `env:"ACO_CANDIDATES" envDefault:"500"`
		Exploration float64 `env:"ACO_EXPLORATION" envDefault:"0.1"`
		Elite       int     `env:"ACO_ELITE" envDefault:"5"`
	}
	SA struct {
		Iterations         int     `env:"SA_ITERATIONS" envDefault:"2000"`
		InitialTemperature float64 `env:"SA_INITIAL_TEMPERATURE" envDefault:"1"`
		CoolingRate        float64 `env:"SA_COOLING_RATE" envDefault:"0.995"`
		StepSize           float64 `env:"SA_STEP_SIZE" envDefault:"0.01"`
	}
	Metrics struct {
		Namespace string `env:"METRICS_NAMESPACE" envDefault:"disperse"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Set default logging level based on environment
	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first out-of-range setting.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: HTTP_PORT must be in 1..65535, got %d", c.HTTP.Port)
	}
	if err := c.LoggerConfig().Validate(); err != nil {
		return fmt.Errorf("config: LOG_LEVEL/LOG_FORMAT: %w", err)
	}
	if c.Optimization.WorkerCount < 1 {
		return fmt.Errorf("config: OPT_WORKER_COUNT must be >= 1, got %d", c.Optimization.WorkerCount)
	}
	if c.Optimization.SampleAttempts < 1 {
		return fmt.Errorf("config: OPT_SAMPLE_ATTEMPTS must be >= 1, got %d", c.Optimization.SampleAttempts)
	}
	if c.Optimization.ProgressEvery < 0 {
		return fmt.Errorf("config: OPT_PROGRESS_EVERY must be >= 0, got %d", c.Optimization.ProgressEvery)
	}
	if c.Optimization.MaxJobs < 1 {
		return fmt.Errorf("config: OPT_MAX_JOBS must be >= 1, got %d", c.Optimization.MaxJobs)
	}
	if c.Optimization.CompareRuns < 1 {
		return fmt.Errorf("config: OPT_COMPARE_RUNS must be >= 1, got %d", c.Optimization.CompareRuns)
	}
	if err := c.Strategies().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// LoggerConfig returns the logging section in the form the logger takes.
func (c *Config) LoggerConfig() *logging.Config {
	return &logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: c.Logging.Output,
	}
}

// Strategies returns the configured default of every strategy.
func (c *Config) Strategies() runner.Defaults {
	return runner.Defaults{
		PSO: swarm.Config{
			Particles:   c.PSO.Particles,
			Iterations:  c.PSO.Iterations,
			Inertia:     c.PSO.Inertia,
			Cognitive:   c.PSO.Cognitive,
			Social:      c.PSO.Social,
			MaxVelocity: c.PSO.MaxVelocity,
			Boundary:    swarm.Boundary(c.PSO.Boundary),
		},
		GA: genetic.Config{
			Population:    c.GA.Population,
			Generations:   c.GA.Generations,
			CrossoverRate: c.GA.CrossoverRate,
			MutationRate:  c.GA.MutationRate,
			MutationStep:  c.GA.MutationStep,
		},
		ACO: colony.Config{
			Ants:        c.ACO.Ants,
			Iterations:  c.ACO.Iterations,
			Alpha:       c.ACO.Alpha,
			Beta:        c.ACO.Beta,
			Evaporation: c.ACO.Evaporation,
			Deposit:     c.ACO.Deposit,
			Candidates:  c.ACO.Candidates,
			Exploration: c.ACO.Exploration,
			Elite:       c.ACO.Elite,
		},
		SA: annealing.Config{
			Iterations:         c.SA.Iterations,
			InitialTemperature: c.SA.InitialTemperature,
			CoolingRate:        c.SA.CoolingRate,
			StepSize:           c.SA.StepSize,
		},
	}
}

// Runner builds a runner from the optimization settings.
func (c *Config) Runner() *runner.Runner {
	r := runner.New()
	r.Defaults = c.Strategies()
	r.Workers = c.Optimization.WorkerCount
	r.SampleAttempts = c.Optimization.SampleAttempts
	r.ProgressEvery = c.Optimization.ProgressEvery
	return r
}
