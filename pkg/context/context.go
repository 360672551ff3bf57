// Package context implements spec.md §6's public library ABI: the
// opaque-handle + free-function surface a thin C/CLI shell calls
// (`context_new`/`context_free`, `configure_context_from_file`,
// `initialize_thread_pool`, `read_hypergraph_from_file`, `partition`).
// Go has no ABI boundary to cross, so the handle collapses to an
// ordinary exported struct and the five C-style functions collapse to
// methods on it -- the same "keep the shape, drop the ceremony" move
// spec.md §9's design notes already make for RAII contraction objects
// (replaced by the explicit pkg/hypergraph.MementoStack).
package context

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/config"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgrio"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/initialpartition"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/logger"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/multilevel"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/refinement/fm"
)

// Context is spec.md §6's opaque handle: the configuration and thread
// count every `partition` call after `configure_context_from_file`/
// `initialize_thread_pool` reads back.
type Context struct {
	cfg     config.Config
	log     *zap.Logger
	threads int
}

// New is `context_new()`.
func New() (*Context, error) {
	log, err := logger.New()
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	return &Context{cfg: config.Defaults(), log: log, threads: 1}, nil
}

// Close is `context_free()`: in Go there is no manual deallocation to
// perform, but the logger's buffered sink still needs flushing before
// the process exits.
func (c *Context) Close() error {
	return c.log.Sync()
}

// ConfigureFromFile is `configure_context_from_file(ctx, path)`. The
// config's `log-level` key is validated here (an unknown level is
// spec.md §7's "invalid input" case) even though the process logger
// c.log was already built by logger.New() before this call; a config
// file changing the logger's own level after the fact is out of scope
// the same way spec.md §1 puts "progress bars, timers/statistics"
// out of scope for the core.
func (c *Context) ConfigureFromFile(path string) error {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// InitializeThreadPool is `initialize_thread_pool(n, interleaved)`.
// Go's goroutine scheduler has no NUMA-interleaving knob to forward;
// `interleaved` is accepted for ABI parity only and otherwise ignored,
// the same way spec.md §6 treats the max-flow solver as a published
// interface without mandating its internals.
func (c *Context) InitializeThreadPool(n int, interleaved bool) {
	if n < 1 {
		n = 1
	}
	c.threads = n
}

// ReadHypergraphFromFile is `read_hypergraph_from_file(path, out...)`:
// Go returns the parsed hypergraph directly rather than filling
// caller-supplied output arrays.
func (c *Context) ReadHypergraphFromFile(path string) (*hypergraph.Hypergraph, error) {
	return hgrio.ReadFile(path, hgtype.Small32)
}

// Result is `partition`'s out-parameters (objective, partition[|V|])
// bundled into a single return value.
type Result struct {
	Partition []hgtype.BlockID
	Objective hgtype.Weight
	Balanced  bool
	Imbalance hgtype.Weight
}

// Partition is `partition(|V|, |E|, ε, k, seed, ..., verbose)`. |V|
// and |E| are read off hg directly rather than passed separately,
// since hg already carries them.
func (c *Context) Partition(hg *hypergraph.Hypergraph, k int, epsilon float64, seed uint64, verbose bool) (*Result, error) {
	log := c.log
	if !verbose {
		log = zap.NewNop()
	}

	mlCfg := multilevel.Config{
		K:                    k,
		Epsilon:              epsilon,
		Seed:                 seed,
		Threads:              c.threads,
		Objective:            c.cfg.Objective,
		ContractionLimit:     c.cfg.ContractionLimit,
		MinShrinkFactor:      c.cfg.MinShrinkFactor,
		MaxClusterWeightPct:  c.cfg.HeavyNodePenalty,
		Rating:               c.cfg.RatingFunction,
		Portfolio:            initialpartition.DefaultPortfolio(),
		RunLabelPropagation:  c.cfg.LPEnabled,
		RunFM:                c.cfg.FMEnabled,
		FM:                   fm.Config{MaxFruitlessMoves: c.cfg.MaxFruitlessMoves},
		RunFlow:              c.cfg.FlowEnabled,
		Logger:               log,
	}

	res, err := multilevel.Partition(hg, mlCfg)
	if err != nil {
		return nil, err
	}

	partition := make([]hgtype.BlockID, hg.NumVertices())
	for u := 0; u < hg.NumVertices(); u++ {
		partition[u] = hg.PartID(hgtype.ID(u))
	}

	return &Result{
		Partition: partition,
		Objective: res.Objective,
		Balanced:  res.Balanced,
		Imbalance: res.Imbalance,
	}, nil
}
