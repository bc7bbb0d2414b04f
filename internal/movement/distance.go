package movement

// Distance walks towards Dir until Target units were covered.
type Distance struct {
	base
	Target float64
	Dir    Direction

	count float64
	last  float64
}

func NewDistance(target float64, dir Direction) *Distance {
	return &Distance{Target: target, Dir: dir}
}

// Covered returns the distance walked so far.
func (d *Distance) Covered() float64 { return d.count }

func (d *Distance) TryMove(m Movable, dt float64, _ Trigger) {
	if d.count >= d.Target || d.finished {
		if d.count == 0 {
			m.Stop()
		}
		d.finished = true
		return
	}
	d.last = m.OfferMoveDir(d.Dir, dt)
	d.count += d.last
}

func (d *Distance) MoveBlocked(m Movable) {
	d.count -= d.last
	d.last = 0
	m.Stop()
}

func (d *Distance) Reset() {
	d.base.Reset()
	d.count = 0
	d.last = 0
}
