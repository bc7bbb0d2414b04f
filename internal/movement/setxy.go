package movement

// SetXY teleports the movable to a fixed point or to the position of Other.
// The move is offered once and checked on the next tick; a blocked jump is
// retried.
type SetXY struct {
	base
	TargetX, TargetY float64
	// Other, when set, overrides TargetX/TargetY with its current position.
	Other Movable

	checked bool
	pooled  bool
}

var setXYPool = NewPool(func() *SetXY { return &SetXY{} })

func NewSetXY(x, y float64) *SetXY { return &SetXY{TargetX: x, TargetY: y} }

// NewSetXYTo follows other.
func NewSetXYTo(other Movable) *SetXY { return &SetXY{Other: other} }

// SetXYPooled returns a pooled SetXY that goes back to the pool when its
// segment is freed.
func SetXYPooled(x, y float64) *SetXY {
	s := setXYPool.Get()
	s.TargetX, s.TargetY = x, y
	s.pooled = true
	return s
}

func (s *SetXY) target() (float64, float64) {
	if s.Other != nil {
		return s.Other.X(), s.Other.Y()
	}
	return s.TargetX, s.TargetY
}

func (s *SetXY) TryMove(m Movable, _ float64, _ Trigger) {
	m.Stop()
	if s.checked || s.finished {
		s.finished = true
		return
	}
	x, y := s.target()
	m.OfferMove(x-m.X(), y-m.Y())
	s.checked = true
}

func (s *SetXY) MoveBlocked(m Movable) {
	s.checked = false
}

func (s *SetXY) Reset() {
	s.base.Reset()
	s.checked = false
}

func (s *SetXY) Free() {
	if !s.pooled {
		return
	}
	*s = SetXY{}
	setXYPool.Put(s)
}
