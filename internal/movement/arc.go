package movement

import "math"

// AngleSpec is either a finite angle in degrees or an endless loop in one
// direction. Positive finite angles turn counter-clockwise.
type AngleSpec struct {
	Degrees float64
	loop    int8
}

func FiniteAngle(deg float64) AngleSpec { return AngleSpec{Degrees: deg} }

var (
	LoopClockwise        = AngleSpec{loop: -1}
	LoopCounterClockwise = AngleSpec{loop: 1}
)

func (a AngleSpec) Loop() bool { return a.loop != 0 }

// Clockwise reports the turning direction.
func (a AngleSpec) Clockwise() bool {
	if a.loop != 0 {
		return a.loop < 0
	}
	return a.Degrees < 0
}

// Vec is a plain 2D vector.
type Vec struct{ X, Y float64 }

const twoPi = 2 * math.Pi

// Arc circles around Origin, starting from wherever the movable stands. The
// radius is measured on the first tick; a movable sitting on the origin
// waits until it is moved away.
type Arc struct {
	base
	Origin        Vec
	Angle         AngleSpec
	RotateTexture bool
	// FixedSpeed keeps the perceived speed constant on a stretched ellipse.
	FixedSpeed bool
	Stretch    Vec
	Drift      Vec

	origin     Vec
	radius     float64
	correction float64
	corrX      float64
	corrY      float64
	startArc   float64
	lastArc    float64
	entireArc  float64
}

func NewArc(origin Vec, angle AngleSpec) *Arc {
	return NewArcFull(origin, angle, false, false, Vec{1, 1}, Vec{})
}

func NewArcFull(origin Vec, angle AngleSpec, rotateTexture, fixedSpeed bool, stretch, drift Vec) *Arc {
	if stretch.X == 0 {
		stretch.X = 1
	}
	if stretch.Y == 0 {
		stretch.Y = 1
	}
	return &Arc{
		Origin:        origin,
		Angle:         angle,
		RotateTexture: rotateTexture,
		FixedSpeed:    fixedSpeed,
		Stretch:       stretch,
		Drift:         drift,
		origin:        origin,
		radius:        math.NaN(),
	}
}

// Travelled returns the accumulated arc in radians.
func (a *Arc) Travelled() float64 { return a.entireArc }

func (a *Arc) TryMove(m Movable, dt float64, _ Trigger) {
	limit := math.Abs(a.Angle.Degrees) * math.Pi / 180
	if (!a.Angle.Loop() && a.entireArc >= limit) || a.finished {
		if a.entireArc == 0 {
			m.Stop()
		}
		a.finished = true
		return
	}
	if math.IsNaN(a.radius) && !a.measure(m) {
		return
	}

	arc := m.MoveSpeed().Stretch(dt) * a.correction
	a.lastArc = arc
	clockwise := a.Angle.Clockwise()
	if clockwise {
		arc = math.Mod(a.startArc-a.entireArc-arc, twoPi)
		if arc < 0 {
			arc += twoPi
		}
	} else {
		arc = math.Mod(arc+a.startArc+a.entireArc, twoPi)
	}
	x, y := math.Cos(arc), math.Sin(arc)
	m.OfferMoveTo(a.origin.X+x*a.radius*a.Stretch.X, a.origin.Y+y*a.radius*a.Stretch.Y)
	if a.FixedSpeed {
		a.lastArc *= math.Cbrt(x*x*a.corrX + y*y*a.corrY)
	}
	a.entireArc += a.lastArc
	if a.Angle.Loop() {
		a.entireArc = math.Mod(a.entireArc, twoPi)
	}
	a.origin.X += a.Drift.X * dt
	a.origin.Y += a.Drift.Y * dt

	if r, ok := m.(Rotator); ok && a.RotateTexture {
		deg := math.Atan2(y*a.Stretch.X, x*a.Stretch.Y) * 180 / math.Pi
		if clockwise {
			deg -= 180
		}
		r.SetRotation(deg)
	}
}

func (a *Arc) measure(m Movable) bool {
	dx := m.X() - a.origin.X
	dy := m.Y() - a.origin.Y
	radius := math.Hypot(dx/a.Stretch.X, dy/a.Stretch.Y)
	if radius == 0 {
		return false
	}
	a.radius = radius
	sc := math.Hypot(a.Stretch.X, a.Stretch.Y)
	a.correction = 1 / (radius * sc)
	a.corrX = a.Stretch.X / sc
	a.corrY = a.Stretch.Y / sc
	a.startArc = math.Asin(dy / radius)
	if dx < 0 {
		a.startArc = math.Pi - a.startArc
	} else if a.startArc < 0 {
		a.startArc += twoPi
	}
	return true
}

func (a *Arc) MoveBlocked(m Movable) {
	a.entireArc -= a.lastArc
	m.Stop()
}

func (a *Arc) Reset() {
	a.base.Reset()
	a.origin = a.Origin
	a.radius = math.NaN()
	a.startArc = 0
	a.entireArc = 0
	a.lastArc = 0
}
