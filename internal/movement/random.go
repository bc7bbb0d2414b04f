package movement

import "math/rand/v2"

// DefaultSlackness is the default direction change slackness of Random.
const DefaultSlackness = 128

var defaultRandomDirs = []Direction{N, E, S, W}

// Random wanders in randomly chosen directions. Slackness controls how
// often the direction changes: after picking a direction the walk keeps it
// for at least Slackness/2 units, and a roll over the number of directions
// pauses the choice for Slackness/3 units.
type Random struct {
	base
	Dirs      []Direction
	Slackness int
	// Rand overrides the world generator.
	Rand *rand.Rand

	lastDir  Direction
	hasDir   bool
	minWidth float64
	pooled   bool
}

var randomPool = NewPool(func() *Random { return &Random{} })

// NewRandom builds a Random walk. With no dirs it walks N, E, S, W.
func NewRandom(slackness int, dirs ...Direction) *Random {
	r := &Random{}
	r.init(slackness, dirs)
	return r
}

// RandomPooled is NewRandom backed by a pool.
func RandomPooled(slackness int, dirs ...Direction) *Random {
	r := randomPool.Get()
	r.init(slackness, dirs)
	r.pooled = true
	return r
}

func (r *Random) init(slackness int, dirs []Direction) {
	if len(dirs) == 0 {
		dirs = defaultRandomDirs
	}
	r.Dirs = dirs
	r.Slackness = max(len(dirs), slackness)
}

func (r *Random) allowed(d Direction) bool {
	for _, a := range r.Dirs {
		if a == d {
			return true
		}
	}
	return false
}

func (r *Random) TryMove(m Movable, dt float64, t Trigger) {
	if !r.hasDir || r.minWidth < 0 {
		n := randIntN(r.Rand, t, r.Slackness)
		if !r.hasDir {
			n %= len(r.Dirs)
		}
		if n < len(r.Dirs) {
			r.lastDir = r.Dirs[n]
			r.hasDir = true
			r.minWidth = float64(r.Slackness / 2)
		} else {
			r.minWidth = float64(r.Slackness / 3)
		}
	}
	r.minWidth -= m.OfferMoveDir(r.lastDir, dt)
}

func (r *Random) MoveBlocked(m Movable) {
	r.hasDir = false
}

func (r *Random) Reset() {
	r.base.Reset()
	r.hasDir = false
	r.minWidth = 0
}

func (r *Random) Free() {
	if !r.pooled {
		return
	}
	*r = Random{}
	randomPool.Put(r)
}
