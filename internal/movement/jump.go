package movement

import "math"

// parabolaHeight scales the vertical lift of a jump.
const parabolaHeight = 10

// Jump is a SetXY that animates the visual offset along a parabola. The
// position is committed at once; only the offset travels from the old spot
// back to zero. Movables that are not Offsetters simply teleport.
type Jump struct {
	SetXY

	landed       bool
	distX, distY float64
	absX, absY   float64
	center       float64
	oldOX, oldOY float64
}

var jumpPool = NewPool(func() *Jump { return &Jump{} })

func NewJump(x, y float64) *Jump {
	return &Jump{SetXY: SetXY{TargetX: x, TargetY: y}}
}

func NewJumpTo(other Movable) *Jump {
	return &Jump{SetXY: SetXY{Other: other}}
}

// JumpPooled returns a pooled Jump.
func JumpPooled(x, y float64) *Jump {
	j := jumpPool.Get()
	j.TargetX, j.TargetY = x, y
	j.pooled = true
	return j
}

func (j *Jump) TryMove(m Movable, dt float64, t Trigger) {
	o, hasOffset := m.(Offsetter)
	if j.landed {
		if j.finished {
			return
		}
		if !hasOffset || (j.distX == 0 && j.distY == 0) {
			if hasOffset {
				o.SetOffset(j.oldOX, j.oldOY)
			}
			j.finished = true
			return
		}
		j.flight(m, o, dt)
		return
	}
	if !j.checked {
		x, y := j.target()
		j.distX = x - m.X()
		j.distY = y - m.Y()
		j.absX = math.Abs(j.distX)
		j.absY = math.Abs(j.distY)
		j.center = (j.absX + j.absY) * .5
		if hasOffset {
			j.oldOX, j.oldOY = o.Offset()
			o.SetOffset(j.oldOX-j.distX, j.oldOY-j.distY)
		}
	}
	j.SetXY.TryMove(m, dt, t)
	if j.finished {
		j.landed = true
		j.finished = false
	}
}

// flight moves the offset one step towards the landing spot.
func (j *Jump) flight(m Movable, o Offsetter, dt float64) {
	var sx, sy float64
	if j.absX > j.absY {
		sx = m.MoveSpeed().StretchJump(dt)
		sy = sx * j.absY / j.absX
	} else {
		sy = m.MoveSpeed().StretchJump(dt)
		sx = sy * j.absX / j.absY
	}
	lift := j.center
	var ox, oy float64
	ox, lift = approach(&j.distX, sx, lift)
	oy, lift = approach(&j.distY, sy, lift)
	if j.center != 0 {
		oy -= lift * parabolaHeight / j.center
	}
	cx, cy := o.Offset()
	o.SetOffset(cx+ox, cy+oy)
}

// approach reduces *dist by up to step and returns the offset delta for this
// tick plus the updated lift.
func approach(dist *float64, step, lift float64) (float64, float64) {
	var d float64
	switch {
	case *dist > 0:
		lift -= *dist
		*dist -= step
		d = step
		if *dist < 0 {
			d += *dist
			*dist = 0
		}
	case *dist < 0:
		lift += *dist
		*dist += step
		d = -step
		if *dist > 0 {
			d += *dist
			*dist = 0
		}
	}
	return d, lift
}

func (j *Jump) MoveBlocked(m Movable) {
	j.SetXY.MoveBlocked(m)
	if o, ok := m.(Offsetter); ok {
		o.SetOffset(j.oldOX, j.oldOY)
	}
}

func (j *Jump) Reset() {
	j.SetXY.Reset()
	j.landed = false
}

func (j *Jump) Free() {
	if !j.pooled {
		return
	}
	*j = Jump{}
	jumpPool.Put(j)
}
