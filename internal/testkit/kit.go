// Package testkit provides parameter fixtures and table invariant checks
// shared by the generator, exporter and API tests.
package testkit

import (
	"testing"

	"fiddler/adapters/rng"
	"fiddler/domain/params"
	"fiddler/internal"
)

// Seed is the fixed seed fixtures are generated with.
const Seed int64 = 1337

// SmallParams returns a valid, fast configuration exercising every trace
// category: fixed 2-state means, bleaching, blinking, aggregates and
// scrambles.
func SmallParams() params.Parameters {
	p := params.Default()
	p.NTraces = 24
	p.TraceLength = 120
	p.StateMeans = params.FixedMeans(0.25, 0.75)
	p.DonorLifetime = params.Lifetime(80)
	p.AcceptorLifetime = params.Lifetime(80)
	p.AggregationProb = 0.2
	p.MaxAggregateSize = 4
	p.ScrambleProb = 0.2
	return p
}

// QuietParams returns a configuration without bleaching, blinking,
// aggregates, scrambles or noise.
func QuietParams() params.Parameters {
	p := params.Default()
	p.NTraces = 10
	p.TraceLength = 100
	p.StateMeans = params.FixedMeans(0.2, 0.8)
	p.TransProb = params.Fixed(0)
	p.Noise = params.Fixed(0)
	p.DonorLifetime = nil
	p.AcceptorLifetime = nil
	p.BlinkProb = 0
	p.AggregationProb = 0
	p.ScrambleProb = 0
	return p
}

// Streams returns seeded random streams that log to the test.
func Streams(t testing.TB) *rng.Seeded {
	return rng.NewSeeded(Seed, Logger(t))
}

// Logger returns a logger writing through t.Log.
func Logger(t testing.TB) *internal.Logger {
	return internal.NewLoggerTo(testWriter{t}, internal.LogLevelDebug)
}

type testWriter struct{ t testing.TB }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
