package pipeline

import (
	"context"
	"time"

	"github.com/anno-git/hokuyohub/internal/obslog"
	"github.com/anno-git/hokuyohub/internal/slotmgr"
)

// DefaultRate is the spec §4.3 default aggregation cadence.
const DefaultRate = 30.0

// Sink receives each frame the tick emits. Implementations must be
// non-blocking — the tick never waits on a sink (spec §4.3/§5).
type Sink interface {
	Process(f Frame)
}

// Tick drives the fixed-cadence aggregation loop of spec §4.3.
type Tick struct {
	Manager *slotmgr.Manager
	Rate    float64
	Sink    Sink

	seq uint32
}

// NewTick creates a Tick at the given rate (Hz). A non-positive rate
// falls back to DefaultRate.
func NewTick(mgr *slotmgr.Manager, rateHz float64, sink Sink) *Tick {
	if rateHz <= 0 {
		rateHz = DefaultRate
	}
	return &Tick{Manager: mgr, Rate: rateHz, Sink: sink}
}

// Run executes the aggregation loop until ctx is cancelled. next_tick is
// computed once at loop entry and advanced by one period each iteration
// so drift never accumulates on fast iterations, per spec §4.3 step 1.
func (t *Tick) Run(ctx context.Context) {
	period := time.Duration(float64(time.Second) / t.Rate)
	nextTick := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		t.runOnce()

		nextTick = nextTick.Add(period)
		sleepUntil(ctx, nextTick)
	}
}

// sleepUntil blocks until deadline or ctx cancellation, whichever comes
// first.
func sleepUntil(ctx context.Context, deadline time.Time) {
	d := time.Until(deadline)
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// runOnce performs a single aggregation iteration (spec §4.3 steps 2-4).
func (t *Tick) runOnce() {
	var xy []float32
	var sid []uint8
	var intensities []float32

	for _, slot := range t.Manager.Slots() {
		if !slot.Started() {
			continue
		}
		raw := slot.Latest()
		if len(raw.Ranges) == 0 {
			continue
		}

		pose := slot.Pose
		angleMask := slot.AngleMask
		rangeMask := slot.RangeMask
		index := slot.Index

		for i, rangeMM := range raw.Ranges {
			if rangeMM == 0 {
				continue
			}
			a := raw.StartAngleDeg + float64(i)*raw.StepDeg
			if !angleMask.Admits(a) {
				continue
			}
			rangeM := float64(rangeMM) / 1000.0
			if !rangeMask.Admits(rangeM) {
				continue
			}

			wx, wy := pose.ToWorld(a, float64(rangeMM))
			xy = append(xy, float32(wx), float32(wy))
			sid = append(sid, index)
			if i < len(raw.Intensities) {
				intensities = append(intensities, float32(raw.Intensities[i]))
			} else {
				intensities = append(intensities, 0)
			}
		}
	}

	f := Frame{Seq: t.seq, TimestampNanos: time.Now().UnixNano(), XY: xy, SID: sid, Intensities: intensities}
	t.seq++

	t.dispatch(f)
}

// dispatch invokes the sink, recovering any panic so a single bad frame
// never kills the aggregation loop, per spec §4.3's failure model ("an
// exception thrown by any downstream stage is caught, logged with the
// frame seq, and processing continues with the next frame").
func (t *Tick) dispatch(f Frame) {
	if t.Sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			obslog.L.Error("pipeline: downstream stage panicked", "seq", f.Seq, "panic", r)
		}
	}()
	t.Sink.Process(f)
}
