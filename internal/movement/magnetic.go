package movement

import "math"

// Attraction strength of a Magnetic walk.
type Attraction int

const (
	AttractionNone    Attraction = 0
	AttractionLow     Attraction = 150
	AttractionMedium  Attraction = 300
	AttractionStrong  Attraction = 500
	AttractionMaximum Attraction = 900
)

// Tunables of the magnetic direction choice.
var (
	// MagneticAxisThreshold is the squared axis distance under which an
	// axis is ignored.
	MagneticAxisThreshold = 10.0
	// MagneticPickThreshold: rolls above it walk towards the target.
	MagneticPickThreshold = 100
	// MagneticKeepAlternate: rolls below it drop the alternate direction.
	MagneticKeepAlternate = 200
	// MagneticWidthBase and MagneticWidthDivisor size the straight walk
	// after a magnetic pick: (slack + base - roll) / divisor.
	MagneticWidthBase    = 1000
	MagneticWidthDivisor = 33
)

// Magnetic is a Random walk biased towards (or away from) a target. The
// closer the target, the more likely a roll picks a direction towards it.
type Magnetic struct {
	Random
	Target     Movable
	Repulsive  bool
	Attraction Attraction
	Radius     int
	// Enabled is the per-instance switch; the world switch must be on too.
	Enabled bool

	attracting []Direction
	alternate  Direction
	hasAlt     bool
}

// NewMagnetic walks N, E, S, W with slackness 128 and a radius equal to
// the attraction.
func NewMagnetic(target Movable, attraction Attraction, repulsive bool) *Magnetic {
	return NewMagneticFull(nil, DefaultSlackness, target, int(attraction), attraction, repulsive)
}

func NewMagneticFull(dirs []Direction, slackness int, target Movable, radius int, attraction Attraction, repulsive bool) *Magnetic {
	m := &Magnetic{
		Target:     target,
		Repulsive:  repulsive,
		Attraction: attraction,
		Radius:     radius,
		Enabled:    true,
	}
	m.Random.init(slackness, dirs)
	return m
}

func (g *Magnetic) TryMove(m Movable, dt float64, t Trigger) {
	if !g.tryMagnetic(m, dt, t) {
		g.Random.TryMove(m, dt, t)
	}
}

func (g *Magnetic) tryMagnetic(m Movable, dt float64, t Trigger) bool {
	if !g.Enabled || t == nil || t.World() == nil || !t.World().MagneticEnabled() {
		return false
	}
	if g.hasDir && g.minWidth >= 0 {
		return false
	}
	g.hasAlt = false
	if g.Target == nil || g.Attraction == AttractionNone || g.Radius <= 0 {
		return false
	}
	dx := g.Target.X() - m.X()
	dy := g.Target.Y() - m.Y()
	if g.Repulsive {
		dx, dy = -dx, -dy
	}
	d := math.Hypot(dx, dy)
	if d >= float64(g.Radius) {
		return false
	}
	total := int(100-100*d/float64(g.Radius)) + int(g.Attraction)
	n := randIntN(g.Rand, t, total)
	if n <= MagneticPickThreshold {
		return false
	}
	g.computeAttracting(dx, dy)
	if len(g.attracting) == 0 {
		return false
	}
	if n < MagneticKeepAlternate {
		g.hasAlt = false
	}
	g.lastDir = g.attracting[n%len(g.attracting)]
	g.hasDir = true
	g.minWidth = float64((g.Slackness + MagneticWidthBase - n) / MagneticWidthDivisor)
	m.OfferMoveDir(g.lastDir, dt)
	return true
}

func (g *Magnetic) computeAttracting(dx, dy float64) {
	g.attracting = g.attracting[:0]
	xx, yy := dx*dx, dy*dy
	if xx <= MagneticAxisThreshold {
		if d := FromMovement(0, dy); g.allowed(d) {
			g.attracting = append(g.attracting, d)
		}
		return
	}
	dirX := FromMovement(dx, 0)
	if yy <= MagneticAxisThreshold {
		if g.allowed(dirX) {
			g.attracting = append(g.attracting, dirX)
		}
		return
	}
	dirY := FromMovement(0, dy)
	switch {
	case g.allowed(dirX):
		if g.allowed(dirY) && yy > xx {
			g.attracting = append(g.attracting, dirY)
			g.setAlternate(dirX)
		} else {
			g.attracting = append(g.attracting, dirX)
			if g.allowed(dirY) {
				g.setAlternate(dirY)
			}
		}
	case g.allowed(dirY):
		g.attracting = append(g.attracting, dirY)
	}
	if diag := FromMovement(dx, dy); g.allowed(diag) {
		g.attracting = append(g.attracting, diag)
	}
}

func (g *Magnetic) setAlternate(d Direction) {
	g.alternate = d
	g.hasAlt = true
}

func (g *Magnetic) MoveBlocked(m Movable) {
	if g.hasAlt {
		g.lastDir = g.alternate
		g.hasAlt = false
		return
	}
	g.hasDir = false
}

func (g *Magnetic) Reset() {
	g.Random.Reset()
	g.hasAlt = false
}
