package movement

import "math"

// FadeColor moves the movable's tint, or the world tint, towards To.
type FadeColor struct {
	base
	// Speed nil jumps to the target at once.
	Speed    *Speed
	To       Color
	TintGame bool
}

func NewFadeColor(speed *Speed, to Color, tintGame bool) *FadeColor {
	return &FadeColor{Speed: speed, To: to, TintGame: tintGame}
}

func (f *FadeColor) TryMove(m Movable, dt float64, t Trigger) {
	if f.finished {
		return
	}
	tinter, ok := m.(Tinter)
	var w World
	if t != nil {
		w = t.World()
	}
	if (f.TintGame && w == nil) || (!f.TintGame && !ok) {
		f.finished = true
		return
	}
	step := 1.0
	if f.Speed != nil {
		step = f.Speed.Stretch(dt) * .02
	}
	var from Color
	if f.TintGame {
		from = w.Tint()
	} else {
		from = tinter.Color()
	}
	done := true
	from.R = fadeChannel(from.R, f.To.R, step, &done)
	from.G = fadeChannel(from.G, f.To.G, step, &done)
	from.B = fadeChannel(from.B, f.To.B, step, &done)
	from.A = fadeChannel(from.A, f.To.A, step, &done)
	if f.TintGame {
		w.SetTint(from)
	} else {
		tinter.SetColor(from)
	}
	f.finished = done
}

func fadeChannel(from, to, step float64, done *bool) float64 {
	switch {
	case from < to:
		if from += step; from < to {
			*done = false
			return from
		}
	case from > to:
		if from -= step; from > to {
			*done = false
			return from
		}
	}
	return to
}

// Rotate turns the movable's texture.
type Rotate struct {
	base
	// Speed nil turns 360 degrees per tick.
	Speed *Speed
	Angle AngleSpec

	rotated float64
}

func NewRotate(speed *Speed, angle AngleSpec) *Rotate {
	return &Rotate{Speed: speed, Angle: angle}
}

func (r *Rotate) TryMove(m Movable, dt float64, _ Trigger) {
	rot, ok := m.(Rotator)
	if r.finished || !ok {
		r.finished = true
		return
	}
	step := 360.0
	if r.Speed != nil {
		step = r.Speed.Stretch(dt)
	}
	cur := rot.Rotation()
	switch {
	case r.Angle.Loop() && r.Angle.Clockwise():
		cur -= step
	case r.Angle.Loop():
		cur += step
	case r.Angle.Degrees < 0:
		cur -= step
		r.rotated -= step
		if r.rotated <= r.Angle.Degrees {
			r.finished = true
			cur -= r.rotated - r.Angle.Degrees
		}
	case r.Angle.Degrees > 0:
		cur += step
		r.rotated += step
		if r.rotated >= r.Angle.Degrees {
			r.finished = true
			cur -= r.rotated - r.Angle.Degrees
		}
	default:
		r.finished = true
	}
	rot.SetRotation(math.Mod(cur, 360))
}

func (r *Rotate) Reset() {
	r.base.Reset()
	r.rotated = 0
}

// Animate plays one cycle of an animation row. Row -1 keeps the current row.
type Animate struct {
	base
	Row int
}

func NewAnimate(row int) *Animate { return &Animate{Row: row} }

func (a *Animate) TryMove(m Movable, dt float64, _ Trigger) {
	an, ok := m.(Animator)
	if a.finished || !ok {
		a.finished = true
		return
	}
	if an.Animate(a.Row, dt) {
		a.finished = true
	}
}

// ExecuteScript posts Script to the trigger's queue. With Wait set it also
// waits until the queue drained.
type ExecuteScript struct {
	base
	Script string
	Wait   bool

	posted bool
}

func NewExecuteScript(script string, wait bool) *ExecuteScript {
	return &ExecuteScript{Script: script, Wait: wait}
}

func (e *ExecuteScript) TryMove(m Movable, _ float64, t Trigger) {
	if e.finished {
		return
	}
	if t == nil {
		e.finished = true
		return
	}
	if !e.posted {
		t.PostScript("ExecuteScript", e.Script, "")
		e.posted = true
	}
	if !e.Wait || t.ScriptQueueEmpty() {
		e.finished = true
		e.posted = false
	}
}

func (e *ExecuteScript) Reset() {
	e.base.Reset()
	e.posted = false
}

// ExecuteMethod calls Fn once, unless Cond is set and returns false.
type ExecuteMethod struct {
	base
	Fn   func(m Movable)
	Cond func(m Movable) bool
}

func NewExecuteMethod(fn func(Movable), cond func(Movable) bool) *ExecuteMethod {
	return &ExecuteMethod{Fn: fn, Cond: cond}
}

func (e *ExecuteMethod) TryMove(m Movable, _ float64, _ Trigger) {
	if e.finished {
		return
	}
	if e.Fn != nil && (e.Cond == nil || e.Cond(m)) {
		e.Fn(m)
	}
	e.finished = true
}

// ChangeSpeed sets the move speed and finishes.
type ChangeSpeed struct {
	base
	Speed Speed
}

func NewChangeSpeed(s Speed) *ChangeSpeed { return &ChangeSpeed{Speed: s} }

func (c *ChangeSpeed) TryMove(m Movable, _ float64, _ Trigger) {
	m.SetMoveSpeed(c.Speed)
	c.finished = true
}
