package runner

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/copyleftdev/disperse/internal/geometry"
	"github.com/copyleftdev/disperse/internal/optimization"
	"github.com/copyleftdev/disperse/internal/optimization/genetic"
)

// CompareRequest runs several strategies on the same problem.
type CompareRequest struct {
	// Strategies lists the strategies to run. Empty means all of them.
	Strategies []string                   `json:"strategies,omitempty"`
	Params     map[string]json.RawMessage `json:"params,omitempty"`
	Problem    optimization.Problem       `json:"-"`
	// Runs is the number of seeded runs per strategy.
	Runs int `json:"runs"`
	// BaseSeed seeds run i with BaseSeed+i, the same for every strategy.
	// Zero selects a time-based base.
	BaseSeed int64 `json:"base_seed"`
	// Parallel bounds the number of concurrent runs. Values below 1 run
	// them one at a time.
	Parallel int `json:"parallel"`
}

// Record summarises the runs of one strategy.
type Record struct {
	Strategy string `json:"strategy"`
	Runs     int    `json:"runs"`

	BestFitness float64 `json:"best_fitness"`
	MeanFitness float64 `json:"mean_fitness"`
	StdFitness  float64 `json:"std_fitness"`

	MeanDurationMs float64 `json:"mean_duration_ms"`
	StdDurationMs  float64 `json:"std_duration_ms"`

	Best *optimization.Solution `json:"best"`
}

// Compare executes Runs seeded runs of every requested strategy and
// returns one record per strategy, in request order.
func (r *Runner) Compare(ctx context.Context, req CompareRequest) ([]Record, error) {
	names := req.Strategies
	if len(names) == 0 {
		names = Names()
	}
	if req.Runs < 1 {
		return nil, optimization.NewInvalidParameterError("runner", "runs must be >= 1, got %d", req.Runs)
	}
	base := req.BaseSeed
	if base == 0 {
		base = time.Now().UnixNano()
	}

	for _, name := range names {
		if _, err := r.Defaults.NewStrategy(name, req.Params[name]); err != nil {
			return nil, err
		}
	}
	if err := geometry.ValidateRegion(req.Problem.Region); err != nil {
		return nil, err
	}

	problem := req.Problem
	problem.Observer = nil
	// The start set is shared so every genetic run begins from the same points.
	if len(problem.Initial) == 0 && slices.Contains(names, genetic.Name) {
		start, err := r.randomStart(problem, base)
		if err != nil {
			return nil, err
		}
		problem.Initial = start
	}

	results := make([][]*optimization.OptimizationResult, len(names))
	for i := range results {
		results[i] = make([]*optimization.OptimizationResult, req.Runs)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(req.Parallel, 1))
	for si, name := range names {
		for run := 0; run < req.Runs; run++ {
			g.Go(func() error {
				res, err := r.Run(gctx, Request{
					Strategy: name,
					Params:   req.Params[name],
					Problem:  problem,
					Seed:     base + int64(run),
				})
				if err != nil {
					return fmt.Errorf("%s run %d: %w", name, run, err)
				}
				results[si][run] = res
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]Record, len(names))
	for i, name := range names {
		records[i] = summarize(name, results[i])
	}
	return records, nil
}

func summarize(name string, runs []*optimization.OptimizationResult) Record {
	fitness := make([]float64, len(runs))
	durations := make([]float64, len(runs))
	for i, res := range runs {
		fitness[i] = res.BestSolution.Fitness
		durations[i] = float64(res.Duration.Microseconds()) / 1000.0
	}

	rec := Record{Strategy: name, Runs: len(runs)}
	best := floats.MaxIdx(fitness)
	rec.BestFitness = fitness[best]
	rec.Best = runs[best].BestSolution.Clone()
	rec.MeanFitness, rec.StdFitness = meanStd(fitness)
	rec.MeanDurationMs, rec.StdDurationMs = meanStd(durations)
	return rec
}

// meanStd returns the mean and the sample standard deviation, which is
// zero for a single value.
func meanStd(x []float64) (float64, float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}

// WriteRecordsCSV writes the comparison table to path, creating its
// directory if needed.
func WriteRecordsCSV(path string, records []Record) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteRecords(f, records)
}

// WriteRecords writes the comparison table as CSV.
func WriteRecords(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"strategy", "runs",
		"fitness_best", "fitness_mean", "fitness_std",
		"time_mean_ms", "time_std_ms",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Strategy,
			strconv.Itoa(r.Runs),

			ftoa(r.BestFitness),
			ftoa(r.MeanFitness),
			ftoa(r.StdFitness),

			ftoa(r.MeanDurationMs),
			ftoa(r.StdDurationMs),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
