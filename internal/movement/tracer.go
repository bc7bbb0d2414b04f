package movement

import (
	"math"

	"github.com/l1jgo/rpgcore/internal/geom"
)

// Tracer tunables.
var (
	// FollowDivisor derives the default follow distance from the summed
	// extents of both movables.
	FollowDivisor = 2.5
	// CatchUpFactor: once the follower lags more than followDistance times
	// this factor it consumes two waypoints per tick.
	CatchUpFactor = 1.2
)

// Tracer replays the path of Traced, keeping FollowDistance units behind.
// The follower is hidden while it has nothing to replay.
type Tracer struct {
	base
	Traced         Movable
	FollowDistance float64

	estimate bool
	queue    []geom.Rect
	dist     float64
}

// NewTracer follows traced at followDistance. A distance <= 0 is derived
// from both movables' sizes on the first tick.
func NewTracer(traced Movable, followDistance float64) *Tracer {
	return &Tracer{Traced: traced, FollowDistance: followDistance, estimate: followDistance <= 0}
}

// Lag returns the path length not yet replayed.
func (t *Tracer) Lag() float64 { return t.dist }

func (t *Tracer) TryMove(m Movable, dt float64, _ Trigger) {
	if t.estimate {
		t.FollowDistance = (t.Traced.Width() + t.Traced.Height() + m.Width() + m.Height()) / FollowDivisor
		t.estimate = false
	}
	cur := t.Traced.Bounds()
	if len(t.queue) == 0 {
		t.queue = append(t.queue, cur)
		setVisible(m, false)
		return
	}
	last := t.queue[len(t.queue)-1]
	if cur.X == last.X && cur.Y == last.Y {
		if len(t.queue) > 1 {
			t.consume(m, 1, dt)
		} else {
			setVisible(m, false)
		}
		return
	}
	t.dist += math.Abs(cur.X-last.X) + math.Abs(cur.Y-last.Y)
	t.queue = append(t.queue, cur)
	if t.FollowDistance < t.dist {
		steps := 1
		if t.FollowDistance*CatchUpFactor < t.dist {
			steps = 2
		}
		t.consume(m, steps, dt)
		setVisible(m, true)
	}
}

func (t *Tracer) consume(m Movable, steps int, dt float64) {
	var x, y float64
	for ; steps > 0 && len(t.queue) > 1; steps-- {
		first, second := t.queue[0], t.queue[1]
		x += second.X - first.X
		y += second.Y - first.Y
		t.dist -= math.Abs(second.X-first.X) + math.Abs(second.Y-first.Y)
		t.queue = t.queue[1:]
	}
	m.OfferMove(x, y)
	if a, ok := m.(Animator); ok {
		a.AnimateMove(x, y, dt)
	}
}

func (t *Tracer) Reset() {
	t.base.Reset()
	t.dist = 0
	t.queue = t.queue[:0]
}

func setVisible(m Movable, v bool) {
	if s, ok := m.(Shower); ok {
		s.SetVisible(v)
	}
}
