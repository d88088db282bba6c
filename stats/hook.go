package stats

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/timing/cache"
)

// Hook turns cache events into counter increments. It can be attached to a
// cache with AcceptHook. A Hook from NewHook may be shared by concurrent
// runs as long as its collector is safe for concurrent use.
type Hook struct {
	collector Collector
	// tick is set for hooks that watch a single run.
	tick bool
}

var _ sim.Hook = (*Hook)(nil)

// NewHook creates a hook that reports to collector. A nil collector discards
// everything.
func NewHook(collector Collector) *Hook {
	if collector == nil {
		collector = NewNoop()
	}
	return &Hook{collector: collector}
}

// NewRunHook is NewHook for a hook attached to one cache only. It also
// keeps MetricTick at the logical time of the latest event, which has no
// meaning once several runs report through the same hook.
func NewRunHook(collector Collector) *Hook {
	h := NewHook(collector)
	h.tick = true
	return h
}

// Func counts one cache event. Run hooks also record the logical time it
// happened at.
func (h *Hook) Func(ctx sim.HookCtx) {
	var name string

	switch ctx.Pos {
	case cache.HookPosReadHit:
		name = MetricReadHits
	case cache.HookPosReadMiss:
		name = MetricReadMisses
	case cache.HookPosWriteHit:
		name = MetricWriteHits
	case cache.HookPosWriteMiss:
		name = MetricWriteMisses
	case cache.HookPosEvict:
		name = MetricEvictions
	default:
		return
	}

	h.collector.IncCounter(name, 1)

	if !h.tick {
		return
	}
	if detail, ok := ctx.Detail.(cache.AccessDetail); ok {
		h.collector.SetGauge(MetricTick, int64(detail.Tick))
	}
}

// Record reports the totals of a finished run.
func Record(collector Collector, r report.Result) {
	collector.IncCounter(MetricRuns, 1)
	collector.SetGauge(MetricInstructions, int64(r.Instructions))

	if rate, ok := r.ReadMissRate(); ok {
		collector.ObserveHistogram(MetricMissRate, rate)
	}
	if rate, ok := r.WriteMissRate(); ok {
		collector.ObserveHistogram(MetricMissRate, rate)
	}
}
