// Package generator simulates single-molecule FRET traces.
//
// A run validates its parameters, then fills NTraces slots. Every attempt at
// a slot draws from its own random stream, so the output depends only on the
// top-level seed and the parameters, never on scheduling:
//
//	resolve parameters -> choose category -> sample states, bleaching,
//	blinking -> intensities + noise -> E, S -> labels
package generator

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"fiddler/adapters/rng"
	"fiddler/domain/core"
	"fiddler/domain/params"
	"fiddler/domain/trace"
	"fiddler/internal"
	"fiddler/ports"
)

var errRetriesExhausted = errors.New("no bleached trace within the retry budget")

// Generator produces trace tables. It holds no per-run state and may be
// shared between goroutines.
type Generator struct {
	logger  *internal.Logger
	workers int
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(l *internal.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithWorkers generates up to n traces concurrently. Output is identical to
// the sequential run for the same seed.
func WithWorkers(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.workers = n
		}
	}
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{logger: internal.DefaultLogger, workers: 1}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.Named("generator")
	return g
}

// Request describes one generation call.
type Request struct {
	Params params.Parameters
	// RNG supplies the random streams. When nil a fresh random seed is drawn
	// and logged.
	RNG ports.RNGPort
	// Progress, if set, is called every CallbackEvery completed traces.
	Progress      ports.ProgressFunc
	CallbackEvery int
}

// Result is a finished run.
type Result struct {
	Table    *trace.Table
	Seed     int64
	Attempts int
	Elapsed  time.Duration
}

// Generate runs a full generation. Invalid parameters fail with a
// *core.ConfigurationError before any sampling. A slot that exhausts its
// retry budget, or a cancelled ctx, fails with a *core.GenerationError
// carrying the number of traces produced so far; no partial table is
// returned.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	p := req.Params
	if err := p.Validate(); err != nil {
		return nil, err
	}

	streams := req.RNG
	if streams == nil {
		streams = rng.NewRandom(true, g.logger)
	}

	start := time.Now()
	g.logger.Info("generating %d traces of %d frames (seed %d, workers %d)",
		p.NTraces, p.TraceLength, streams.Seed(), g.workers)

	tick := func(done int) {
		if req.Progress != nil && req.CallbackEvery > 0 && done%req.CallbackEvery == 0 {
			req.Progress(done, p.NTraces)
		}
	}

	var (
		traces   []*trace.Trace
		attempts int
		err      error
	)
	if g.workers > 1 && p.NTraces > 1 {
		traces, attempts, err = g.runParallel(ctx, p, streams, tick)
	} else {
		traces, attempts, err = g.runSequential(ctx, p, streams, tick)
	}
	if err != nil {
		g.logger.Error("generation stopped: %v", err)
		return nil, err
	}

	elapsed := time.Since(start)
	g.logger.Info("generated %d traces in %s (%d attempts)", len(traces), elapsed.Round(time.Millisecond), attempts)
	return &Result{
		Table:    &trace.Table{Traces: traces},
		Seed:     streams.Seed(),
		Attempts: attempts,
		Elapsed:  elapsed,
	}, nil
}

func (g *Generator) runSequential(ctx context.Context, p params.Parameters, streams ports.RNGPort, tick func(int)) ([]*trace.Trace, int, error) {
	traces := make([]*trace.Trace, p.NTraces)
	attempts := 0
	for slot := range traces {
		if err := ctx.Err(); err != nil {
			return nil, attempts, &core.GenerationError{Requested: p.NTraces, Produced: slot, Attempts: attempts, Cause: err}
		}
		tr, tries, err := g.fillSlot(p, streams, slot)
		attempts += tries
		if err != nil {
			return nil, attempts, &core.GenerationError{Requested: p.NTraces, Produced: slot, Attempts: attempts, Cause: err}
		}
		traces[slot] = tr
		tick(slot + 1)
	}
	return traces, attempts, nil
}

func (g *Generator) runParallel(ctx context.Context, p params.Parameters, streams ports.RNGPort, tick func(int)) ([]*trace.Trace, int, error) {
	traces := make([]*trace.Trace, p.NTraces)
	var attempts atomic.Int64

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)

	done := make(chan struct{}, p.NTraces)
	waitErr := make(chan error, 1)
	go func() {
		for slot := range traces {
			if egCtx.Err() != nil {
				break
			}
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				tr, tries, err := g.fillSlot(p, streams, slot)
				attempts.Add(int64(tries))
				if err != nil {
					return err
				}
				traces[slot] = tr
				done <- struct{}{}
				return nil
			})
		}
		waitErr <- eg.Wait()
		close(done)
	}()

	produced := 0
	for range done {
		produced++
		tick(produced)
	}

	err := <-waitErr
	if err == nil {
		// The group context is only cancelled by a failing slot, so a
		// cancelled parent can still let every slot finish.
		err = ctx.Err()
		if err == nil && produced == p.NTraces {
			return traces, int(attempts.Load()), nil
		}
	}
	return nil, int(attempts.Load()), &core.GenerationError{
		Requested: p.NTraces,
		Produced:  produced,
		Attempts:  int(attempts.Load()),
		Cause:     err,
	}
}

// fillSlot produces the trace for one slot, retrying unbleached traces when
// DiscardUnbleached is set. The returned count includes discarded attempts.
func (g *Generator) fillSlot(p params.Parameters, streams ports.RNGPort, slot int) (*trace.Trace, int, error) {
	budget := 1
	if p.DiscardUnbleached {
		budget = p.MaxRetries
	}
	for attempt := 0; attempt < budget; attempt++ {
		tr := buildTrace(p, slot, streams.Stream(slot, attempt))
		if p.DiscardUnbleached && tr.BleachesAt == nil {
			g.logger.Trace("slot %d attempt %d never bleached, retrying", slot, attempt)
			continue
		}
		if err := tr.Degeneracy(); err != nil {
			g.logger.Debug("slot %d: %v", slot, err)
		}
		if attempt > 0 {
			g.logger.Debug("slot %d filled after %d discarded attempts", slot, attempt)
		}
		return tr, attempt + 1, nil
	}
	return nil, budget, errRetriesExhausted
}
