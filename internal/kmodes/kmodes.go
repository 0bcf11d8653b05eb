// Package kmodes clusters categorical records with the K-Modes algorithm:
// records are assigned to the cluster whose mode differs from them in the
// fewest attributes, and modes are refined point by point until no record
// moves.
package kmodes

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/KaramelBytes/surveyclust/internal/categorical"
	"github.com/KaramelBytes/surveyclust/internal/logging"
	"go.uber.org/zap"
)

// InitMethod selects how initial modes are chosen.
type InitMethod string

const (
	InitHuang  InitMethod = "Huang"
	InitCao    InitMethod = "Cao"
	InitRandom InitMethod = "random"
)

var (
	ErrInvalidK           = errors.New("kmodes: cluster count must be >= 1")
	ErrInvalidConfig      = errors.New("kmodes: invalid configuration")
	ErrUnknownInit        = errors.New("kmodes: unknown init method")
	ErrTooFewDistinctRows = errors.New("kmodes: fewer distinct rows than clusters")
)

// ParseInit resolves an init method name case-insensitively.
func ParseInit(s string) (InitMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "huang", "":
		return InitHuang, nil
	case "cao":
		return InitCao, nil
	case "random":
		return InitRandom, nil
	default:
		return "", fmt.Errorf("%w: %q (use Huang, Cao or random)", ErrUnknownInit, s)
	}
}

// Config controls a K-Modes fit.
type Config struct {
	K       int
	Init    InitMethod
	NInit   int
	MaxIter int
	Seed    int64
	Logger  *zap.Logger
}

// DefaultConfig returns Huang initialization with 50 restarts, 100 iterations
// per restart and seed 42.
func DefaultConfig(k int) Config {
	return Config{K: k, Init: InitHuang, NInit: 50, MaxIter: 100, Seed: 42}
}

// Result is the best restart of a fit.
type Result struct {
	// Labels holds the cluster of each input row, in [0, K).
	Labels []int
	// Centroids holds the mode of each cluster.
	Centroids [][]string
	// Cost is the summed mismatch count between rows and their modes.
	Cost float64
	// NIter is the number of refinement iterations of the winning restart.
	NIter int
	// Run is the index of the winning restart.
	Run int
}

// Fit clusters rows into cfg.K clusters. Every row must have the same number
// of fields; all values are treated as categories.
func Fit(rows [][]string, cfg Config) (*Result, error) {
	if cfg.K < 1 {
		return nil, ErrInvalidK
	}
	if cfg.NInit < 1 || cfg.MaxIter < 1 {
		return nil, fmt.Errorf("%w: n_init=%d max_iter=%d", ErrInvalidConfig, cfg.NInit, cfg.MaxIter)
	}
	init, err := ParseInit(string(cfg.Init))
	if err != nil {
		return nil, err
	}
	log := logging.OrNop(cfg.Logger)

	enc, err := categorical.Fit(rows)
	if err != nil {
		return nil, fmt.Errorf("encode rows: %w", err)
	}
	X, err := enc.Codes(rows)
	if err != nil {
		return nil, fmt.Errorf("encode rows: %w", err)
	}
	ncats := make([]int, enc.Columns())
	for j, c := range enc.Categories {
		ncats[j] = len(c)
	}

	unique := uniqueRows(X)
	if len(unique) < cfg.K {
		return nil, fmt.Errorf("%w: %d distinct rows, k=%d", ErrTooFewDistinctRows, len(unique), cfg.K)
	}

	var best *fitState
	bestRun := 0
	if len(unique) == cfg.K {
		// Every distinct row is its own mode; nothing to refine.
		best = &fitState{centroids: unique}
		best.labels, best.cost = labelsCost(X, best.centroids)
	} else {
		nInit := cfg.NInit
		if init == InitCao {
			// Cao is deterministic, restarts would repeat the same run.
			nInit = 1
		}
		master := newRand(cfg.Seed)
		seeds := make([]int64, nInit)
		for i := range seeds {
			seeds[i] = master.Int64N(math.MaxInt32)
		}
		for run, seed := range seeds {
			st := fitOnce(X, ncats, cfg.K, init, cfg.MaxIter, newRand(seed))
			log.Debug("kmodes restart finished",
				zap.Int("k", cfg.K),
				zap.Int("run", run),
				zap.Int("iterations", st.iter),
				zap.Float64("cost", st.cost))
			if best == nil || st.cost < best.cost {
				best = st
				bestRun = run
			}
		}
	}

	res := &Result{
		Labels:    best.labels,
		Centroids: make([][]string, len(best.centroids)),
		Cost:      best.cost,
		NIter:     best.iter,
		Run:       bestRun,
	}
	for k, c := range best.centroids {
		row := make([]string, len(c))
		for j, code := range c {
			row[j] = enc.Decode(j, code)
		}
		res.Centroids[k] = row
	}
	return res, nil
}

type fitState struct {
	centroids [][]int
	labels    []int
	cost      float64
	iter      int
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// fitOnce runs a single initialization and refinement.
func fitOnce(X [][]int, ncats []int, k int, init InitMethod, maxIter int, rng *rand.Rand) *fitState {
	var centroids [][]int
	switch init {
	case InitCao:
		centroids = initCao(X, ncats, k)
	case InitRandom:
		centroids = initRandom(X, k, rng)
	default:
		centroids = initHuang(X, ncats, k, rng)
	}

	c := assign(X, ncats, centroids, rng)

	iter := 0
	for iter < maxIter {
		iter++
		if c.iterate(X, centroids, rng) == 0 {
			break
		}
	}
	labels, cost := labelsCost(X, centroids)
	return &fitState{centroids: centroids, labels: labels, cost: cost, iter: iter}
}

// clusters tracks membership and per-attribute category counts.
type clusters struct {
	label  []int
	counts []int
	// freq[cluster][attribute][category]
	freq [][][]int
}

func newClusters(X [][]int, ncats []int, k int) *clusters {
	c := &clusters{
		label:  make([]int, len(X)),
		counts: make([]int, k),
		freq:   make([][][]int, k),
	}
	for ik := range c.freq {
		c.freq[ik] = make([][]int, len(ncats))
		for j, n := range ncats {
			c.freq[ik][j] = make([]int, n)
		}
	}
	return c
}

func (c *clusters) add(i int, x []int, to int) {
	c.label[i] = to
	c.counts[to]++
	for j, v := range x {
		c.freq[to][j][v]++
	}
}

// assign places every row with its nearest seed mode, then replaces the seed
// modes with the modes of that first assignment. A cluster left empty gets
// attributes drawn from random rows.
func assign(X [][]int, ncats []int, centroids [][]int, rng *rand.Rand) *clusters {
	k := len(centroids)
	c := newClusters(X, ncats, k)
	for i, x := range X {
		c.add(i, x, nearest(x, centroids))
	}
	for ik := 0; ik < k; ik++ {
		for j := range ncats {
			if c.counts[ik] == 0 {
				centroids[ik][j] = X[rng.IntN(len(X))][j]
				continue
			}
			centroids[ik][j] = modeOf(c.freq[ik][j])
		}
	}
	return c
}

// iterate reassigns every point to its nearest mode and returns the number
// of moves.
func (c *clusters) iterate(X [][]int, centroids [][]int, rng *rand.Rand) int {
	moves := 0
	for i, x := range X {
		to := nearest(x, centroids)
		from := c.label[i]
		if to == from {
			continue
		}
		moves++
		c.move(X, i, to, from, centroids)
		if c.counts[from] == 0 {
			// Refill the emptied cluster from the largest one.
			big := 0
			for ik, n := range c.counts {
				if n > c.counts[big] {
					big = ik
				}
			}
			members := make([]int, 0, c.counts[big])
			for p, l := range c.label {
				if l == big {
					members = append(members, p)
				}
			}
			r := members[rng.IntN(len(members))]
			c.move(X, r, from, big, centroids)
		}
	}
	return moves
}

// move transfers point i between clusters and patches both modes.
func (c *clusters) move(X [][]int, i, to, from int, centroids [][]int) {
	c.label[i] = to
	c.counts[to]++
	c.counts[from]--
	for j, v := range X[i] {
		toFreq := c.freq[to][j]
		toFreq[v]++
		if toFreq[centroids[to][j]] < toFreq[v] {
			centroids[to][j] = v
		}
		fromFreq := c.freq[from][j]
		fromFreq[v]--
		if centroids[from][j] == v {
			centroids[from][j] = modeOf(fromFreq)
		}
	}
}

// modeOf returns the most frequent code, preferring the smallest on ties.
func modeOf(freq []int) int {
	best := 0
	for code, n := range freq {
		if n > freq[best] {
			best = code
		}
	}
	return best
}

// nearest returns the index of the closest centroid, first on ties.
func nearest(x []int, centroids [][]int) int {
	best, bestD := 0, math.MaxInt
	for k, c := range centroids {
		if d := categorical.Mismatches(x, c); d < bestD {
			best, bestD = k, d
		}
	}
	return best
}

// labelsCost assigns each row to its nearest centroid and sums the distances.
func labelsCost(X [][]int, centroids [][]int) ([]int, float64) {
	labels := make([]int, len(X))
	var cost float64
	for i, x := range X {
		k := nearest(x, centroids)
		labels[i] = k
		cost += float64(categorical.Mismatches(x, centroids[k]))
	}
	return labels, cost
}

func uniqueRows(X [][]int) [][]int {
	seen := make(map[string]struct{}, len(X))
	var out [][]int
	var b strings.Builder
	for _, x := range X {
		b.Reset()
		for _, v := range x {
			fmt.Fprintf(&b, "%d,", v)
		}
		key := b.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, append([]int(nil), x...))
	}
	return out
}
