// Command compare runs every dispersion strategy on one region several
// times and writes a summary table plus the best point set of each
// strategy as CSV.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/copyleftdev/disperse/internal/config"
	"github.com/copyleftdev/disperse/internal/geometry"
	"github.com/copyleftdev/disperse/internal/optimization"
	"github.com/copyleftdev/disperse/internal/optimization/swarm"
	"github.com/copyleftdev/disperse/internal/runner"
)

const defaultRegion = `{"type":"rectangle","corners":[{"x":0,"y":0},{"x":1,"y":1}]}`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	defs := cfg.Strategies()

	var (
		out        = flag.String("out", "artifacts", "output directory for results.csv and the best point sets")
		regionSpec = flag.String("region", defaultRegion, "region as a JSON shape description")
		regionCSV  = flag.String("region_csv", "", "read the region vertices from a CSV file instead of -region")
		initialCSV = flag.String("initial_csv", "", "start set for the genetic strategy (CSV); random when empty")
		k          = flag.Int("k", 10, "number of points to place")
		algos      = flag.String("algos", strings.Join(runner.Names(), ","), "strategies to compare (comma separated)")
		runs       = flag.Int("runs", cfg.Optimization.CompareRuns, "runs per strategy, each with its own seed")
		baseSeed   = flag.Int64("seed", 1000, "seed of the first run; run i uses seed+i")
		parallel   = flag.Int("parallel", cfg.Optimization.WorkerCount, "runs executed concurrently")
		timeout    = flag.Duration("timeout", 0, "overall time limit; 0 means none")
		verbose    = flag.Bool("v", false, "log optimizer progress to stderr")

		psoParticles = flag.Int("pso_particles", defs.PSO.Particles, "swarm size")
		psoIter      = flag.Int("pso_iter", defs.PSO.Iterations, "swarm iterations")
		psoBoundary  = flag.String("pso_boundary", string(defs.PSO.Boundary), "infeasible move handling: resample | clamp")

		gaPop = flag.Int("ga_pop", defs.GA.Population, "population size")
		gaGen = flag.Int("ga_gen", defs.GA.Generations, "generations")
		gaCx  = flag.Float64("ga_cx", defs.GA.CrossoverRate, "crossover probability")
		gaMut = flag.Float64("ga_mut", defs.GA.MutationRate, "mutation probability")

		acoAnts  = flag.Int("aco_ants", defs.ACO.Ants, "ants per iteration")
		acoIter  = flag.Int("aco_iter", defs.ACO.Iterations, "colony iterations")
		acoRho   = flag.Float64("aco_rho", defs.ACO.Evaporation, "pheromone evaporation rate")
		acoCands = flag.Int("aco_candidates", defs.ACO.Candidates, "candidate points sampled from the region")

		saIter  = flag.Int("sa_iter", defs.SA.Iterations, "annealing iterations")
		saT0    = flag.Float64("sa_t0", defs.SA.InitialTemperature, "initial temperature")
		saAlpha = flag.Float64("sa_alpha", defs.SA.CoolingRate, "cooling rate")
		saStep  = flag.Float64("sa_step", defs.SA.StepSize, "perturbation standard deviation")
	)
	flag.Parse()

	defs.PSO.Particles, defs.PSO.Iterations = *psoParticles, *psoIter
	defs.PSO.Boundary = swarm.Boundary(*psoBoundary)
	defs.GA.Population, defs.GA.Generations = *gaPop, *gaGen
	defs.GA.CrossoverRate, defs.GA.MutationRate = *gaCx, *gaMut
	defs.ACO.Ants, defs.ACO.Iterations = *acoAnts, *acoIter
	defs.ACO.Evaporation, defs.ACO.Candidates = *acoRho, *acoCands
	defs.SA.Iterations, defs.SA.InitialTemperature = *saIter, *saT0
	defs.SA.CoolingRate, defs.SA.StepSize = *saAlpha, *saStep
	if err := defs.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "parameters:", err)
		os.Exit(2)
	}

	region, err := loadRegion(*regionSpec, *regionCSV)
	if err != nil {
		fmt.Fprintln(os.Stderr, "region:", err)
		os.Exit(2)
	}
	var initial optimization.PointSet
	if *initialCSV != "" {
		if initial, err = readPoints(*initialCSV); err != nil {
			fmt.Fprintln(os.Stderr, "initial points:", err)
			os.Exit(2)
		}
	}

	logger := zap.NewNop()
	if *verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintln(os.Stderr, "logger:", err)
			os.Exit(2)
		}
	}
	defer func() { _ = logger.Sync() }()

	r := cfg.Runner()
	r.Defaults = defs
	r.Logger = logger
	// Runs already execute in parallel; keep each run's evaluation serial.
	r.Workers = 1

	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	names := splitList(*algos)
	start := time.Now()
	records, err := r.Compare(ctx, runner.CompareRequest{
		Strategies: names,
		Problem:    optimization.Problem{Region: region, K: *k, Initial: initial},
		Runs:       *runs,
		BaseSeed:   *baseSeed,
		Parallel:   *parallel,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "compare:", err)
		os.Exit(1)
	}

	resultsPath := filepath.Join(*out, "results.csv")
	if err := runner.WriteRecordsCSV(resultsPath, records); err != nil {
		fmt.Fprintln(os.Stderr, "write results:", err)
		os.Exit(1)
	}
	for _, rec := range records {
		if rec.Best == nil {
			continue
		}
		path := filepath.Join(*out, "best_"+rec.Strategy+".csv")
		if err := writePoints(path, rec.Best.Points); err != nil {
			fmt.Fprintln(os.Stderr, "write points:", err)
			os.Exit(1)
		}
	}

	fmt.Printf("k=%d runs=%d elapsed=%s\n", *k, *runs, time.Since(start).Round(time.Millisecond))
	fmt.Printf("%-4s %12s %12s %12s %12s\n", "algo", "best", "mean", "std", "mean_ms")
	for _, rec := range records {
		fmt.Printf("%-4s %12.6f %12.6f %12.6f %12.2f\n",
			rec.Strategy, rec.BestFitness, rec.MeanFitness, rec.StdFitness, rec.MeanDurationMs)
	}
	fmt.Println("results:", resultsPath)
}

func loadRegion(spec, csvPath string) (optimization.Region, error) {
	if csvPath != "" {
		f, err := os.Open(csvPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return geometry.ReadRegion(f)
	}
	var s geometry.Spec
	if err := json.Unmarshal([]byte(spec), &s); err != nil {
		return nil, fmt.Errorf("parse -region: %w", err)
	}
	return s.Build()
}

func readPoints(path string) (optimization.PointSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	points, skipped, err := geometry.ReadPoints(f)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "%s: skipped %d rows\n", path, skipped)
	}
	return points, nil
}

func writePoints(path string, points optimization.PointSet) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := geometry.WritePoints(f, points); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
