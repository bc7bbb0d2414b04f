package movement

import "math/rand/v2"

// Policy decides when a Segment is complete.
type Policy int

const (
	// UntilFinished completes after the handler finished Times times.
	UntilFinished Policy = iota
	// ForSeconds completes after Seconds of simulated time.
	ForSeconds
	// ForRandomSeconds re-rolls its duration in [Min, Max) on every reset.
	ForRandomSeconds
)

// Default bounds of a random duration segment, in seconds.
const (
	DefaultRandomMinSeconds = 1
	DefaultRandomMaxSeconds = 5
)

// Segment binds a handler to a completion policy inside a Combined queue.
// Pooled segments go back to the pool when a one-shot segment completes or
// the owning Combined is cleared.
type Segment struct {
	Handler Handler
	Policy  Policy

	Times int
	count int

	Seconds  float64
	elapsed  float64
	Min, Max float64
	// Rand overrides the generator used for random durations.
	Rand *rand.Rand

	forceRemove  bool
	returnToPool bool
	pooled       bool
}

var segmentPool = NewPool(func() *Segment { return &Segment{} })

// Times wraps h so the segment completes after h finished n times.
func Times(h Handler, n int) *Segment {
	s := segmentPool.Get()
	s.Handler = h
	s.Policy = UntilFinished
	s.Times = n
	s.pooled = true
	return s
}

// Once is Times(h, 1).
func Once(h Handler) *Segment { return Times(h, 1) }

// For wraps h so the segment completes after seconds of simulated time. The
// handler keeps running even if it finishes earlier.
func For(h Handler, seconds float64) *Segment {
	s := segmentPool.Get()
	s.Handler = h
	s.Policy = ForSeconds
	s.Seconds = seconds
	s.pooled = true
	return s
}

// ForRandom wraps h for a random duration in [min, max).
func ForRandom(h Handler, min, max float64) *Segment {
	s := segmentPool.Get()
	s.Handler = h
	s.Policy = ForRandomSeconds
	s.Min = min
	s.Max = max
	s.pooled = true
	s.randomize()
	return s
}

// NewTimes, NewOnce, NewFor and NewForRandom allocate outside the pool.
// Map building runs on the loader goroutine and uses these; Free never
// hands their segments to the pool.

func NewTimes(h Handler, n int) *Segment {
	return &Segment{Handler: h, Policy: UntilFinished, Times: n}
}

func NewOnce(h Handler) *Segment { return NewTimes(h, 1) }

func NewFor(h Handler, seconds float64) *Segment {
	return &Segment{Handler: h, Policy: ForSeconds, Seconds: seconds}
}

func NewForRandom(h Handler, min, max float64) *Segment {
	s := &Segment{Handler: h, Policy: ForRandomSeconds, Min: min, Max: max}
	s.randomize()
	return s
}

func (s *Segment) randomize() {
	var f float64
	if s.Rand != nil {
		f = s.Rand.Float64()
	} else {
		f = rand.Float64()
	}
	s.Seconds = s.Min + f*(s.Max-s.Min)
}

// Advance runs one tick of the wrapped handler and reports whether the
// segment is complete.
func (s *Segment) Advance(m Movable, dt float64, t Trigger) bool {
	if s.Handler == nil {
		return s.Policy == UntilFinished
	}
	s.Handler.TryMove(m, dt, t)
	if s.Policy == UntilFinished {
		if !s.Handler.Finished() {
			return false
		}
		s.count++
		if s.count < s.Times {
			s.Handler.Reset()
			return false
		}
		return true
	}
	s.elapsed += dt
	return s.elapsed >= s.Seconds
}

func (s *Segment) MoveBlocked(m Movable) {
	if s.Handler != nil {
		s.Handler.MoveBlocked(m)
	}
}

func (s *Segment) Freeze() {
	if s.Handler != nil {
		s.Handler.Freeze()
	}
}

// Reset restarts the segment and its handler.
func (s *Segment) Reset() {
	if s.Handler != nil {
		s.Handler.Reset()
	}
	s.count = 0
	s.elapsed = 0
	if s.Policy == ForRandomSeconds {
		s.randomize()
	}
}

// Free returns the segment and its handler to their pools.
func (s *Segment) Free() {
	if s.Handler != nil {
		free(s.Handler)
	}
	pooled := s.pooled
	*s = Segment{}
	if pooled {
		segmentPool.Put(s)
	}
}
