// Package evaluate runs the K-Modes sweeps used to choose a cluster count:
// cost and silhouette per k, cost spread across seeds, and a single labelled fit.
package evaluate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/surveyclust/internal/categorical"
	"github.com/KaramelBytes/surveyclust/internal/dataset"
	"github.com/KaramelBytes/surveyclust/internal/kmodes"
	"github.com/KaramelBytes/surveyclust/internal/logging"
	"github.com/KaramelBytes/surveyclust/internal/silhouette"
)

// ErrInvalidRange is returned for a cluster count or run count out of range.
var ErrInvalidRange = errors.New("evaluate: invalid range")

// Options controls the sweeps.
type Options struct {
	Init    kmodes.InitMethod
	NInit   int
	MaxIter int
	// Seed is used for every k of the evaluation sweep and for ClusterData.
	// The stability sweep seeds run i with i.
	Seed int64
	// Workers > 1 fits independent k values or seeds concurrently.
	Workers     int
	LabelColumn string
	Logger      *zap.Logger
	// Progress, if set, receives each record in ascending k order.
	Progress func(Record)
}

// DefaultOptions returns Huang initialization, 50 restarts and seed 42.
func DefaultOptions() Options {
	return Options{
		Init:        kmodes.InitHuang,
		NInit:       50,
		MaxIter:     100,
		Seed:        42,
		Workers:     1,
		LabelColumn: "cluster",
	}
}

// Record is the outcome of one k of the evaluation sweep.
type Record struct {
	K          int     `dataframe:"k"`
	Cost       float64 `dataframe:"cost"`
	Silhouette float64 `dataframe:"silhouette"`
}

// StabilityResult holds the final cost of each seeded run for one k.
type StabilityResult struct {
	K     int
	Costs []float64
	// Mean and StdDev (population) of Costs.
	Mean   float64
	StdDev float64
}

// Runs returns the number of runs.
func (s *StabilityResult) Runs() int { return len(s.Costs) }

func (o Options) kmodesConfig(k int, seed int64) kmodes.Config {
	return kmodes.Config{
		K:       k,
		Init:    o.Init,
		NInit:   o.NInit,
		MaxIter: o.MaxIter,
		Seed:    seed,
		Logger:  o.Logger,
	}
}

// EvaluateClusters fits K-Modes for k = 2..maxK with the fixed seed and
// scores each labelling by cost and Hamming silhouette.
func EvaluateClusters(ctx context.Context, src dataset.Source, maxK int, opt Options) ([]Record, error) {
	if maxK < 2 {
		return nil, fmt.Errorf("%w: max_k must be at least 2, got %d", ErrInvalidRange, maxK)
	}
	log := logging.OrNop(opt.Logger)
	t, err := src.Load()
	if err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}
	rows := t.Rows()
	_, x, err := categorical.FitTransform(rows)
	if err != nil {
		return nil, fmt.Errorf("encode data: %w", err)
	}

	out := make([]Record, maxK-1)
	err = forEach(ctx, len(out), opt.Workers, func(i int) error {
		k := i + 2
		rec, err := evaluateK(rows, x, opt.kmodesConfig(k, opt.Seed))
		if err != nil {
			return fmt.Errorf("evaluate k=%d: %w", k, err)
		}
		out[i] = rec
		log.Info("evaluated cluster count",
			zap.Int("k", k),
			zap.Float64("cost", rec.Cost),
			zap.Float64("silhouette", rec.Silhouette))
		if opt.Progress != nil && opt.Workers <= 1 {
			opt.Progress(rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if opt.Progress != nil && opt.Workers > 1 {
		for _, rec := range out {
			opt.Progress(rec)
		}
	}
	return out, nil
}

func evaluateK(rows [][]string, x mat.Matrix, cfg kmodes.Config) (Record, error) {
	res, err := kmodes.Fit(rows, cfg)
	if err != nil {
		return Record{}, err
	}
	s, err := silhouette.Score(x, res.Labels)
	if err != nil {
		return Record{}, err
	}
	return Record{K: cfg.K, Cost: res.Cost, Silhouette: s}, nil
}

// EvaluateStability fits K-Modes nRuns times for a fixed k, seeding run i
// with i, and summarizes the spread of the final costs.
func EvaluateStability(ctx context.Context, src dataset.Source, k, nRuns int, opt Options) (*StabilityResult, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", ErrInvalidRange, k)
	}
	if nRuns < 1 {
		return nil, fmt.Errorf("%w: runs must be at least 1, got %d", ErrInvalidRange, nRuns)
	}
	log := logging.OrNop(opt.Logger)
	t, err := src.Load()
	if err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}
	rows := t.Rows()

	costs := make([]float64, nRuns)
	err = forEach(ctx, nRuns, opt.Workers, func(i int) error {
		res, err := kmodes.Fit(rows, opt.kmodesConfig(k, int64(i)))
		if err != nil {
			return fmt.Errorf("stability run %d: %w", i, err)
		}
		costs[i] = res.Cost
		log.Debug("stability run finished", zap.Int("run", i), zap.Float64("cost", res.Cost))
		return nil
	})
	if err != nil {
		return nil, err
	}
	mean, std := stat.PopMeanStdDev(costs, nil)
	log.Info("stability sweep finished",
		zap.Int("k", k),
		zap.Int("runs", nRuns),
		zap.Float64("mean_cost", mean),
		zap.Float64("std_dev", std))
	return &StabilityResult{K: k, Costs: costs, Mean: mean, StdDev: std}, nil
}

// ClusterData fits K-Modes once with the fixed seed and returns the cleaned
// table with a label column appended.
func ClusterData(ctx context.Context, src dataset.Source, k int, opt Options) (*dataset.Table, *kmodes.Result, error) {
	if k < 1 {
		return nil, nil, fmt.Errorf("%w: k must be at least 1, got %d", ErrInvalidRange, k)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	t, err := src.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load data: %w", err)
	}
	res, err := kmodes.Fit(t.Rows(), opt.kmodesConfig(k, opt.Seed))
	if err != nil {
		return nil, nil, fmt.Errorf("cluster data: %w", err)
	}
	name := opt.LabelColumn
	if name == "" {
		name = "cluster"
	}
	labelled, err := t.WithLabels(name, res.Labels)
	if err != nil {
		return nil, nil, err
	}
	logging.OrNop(opt.Logger).Info("clustered dataset",
		zap.Int("k", k),
		zap.Int("rows", labelled.Len()),
		zap.Float64("cost", res.Cost))
	return labelled, res, nil
}

// BestSilhouette returns the record with the highest silhouette, the lowest
// k winning ties.
func BestSilhouette(records []Record) (Record, bool) {
	if len(records) == 0 {
		return Record{}, false
	}
	best := records[0]
	for _, r := range records[1:] {
		if r.Silhouette > best.Silhouette {
			best = r
		}
	}
	return best, true
}

// forEach calls fn for 0..n-1, sequentially unless workers > 1. The context
// is checked before every call.
func forEach(ctx context.Context, n, workers int, fn func(i int) error) error {
	if workers <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	return g.Wait()
}
