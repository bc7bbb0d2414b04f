package movement

import (
	"math"
	"math/rand/v2"

	"github.com/l1jgo/rpgcore/internal/geom"
)

// tick of 1/100s; at SpeedSlow (100 px/s) every offer covers one unit.
const dt = .01

type post struct {
	desc, script, fn string
	params           []any
}

type fakeWorld struct {
	tint     Color
	magnetic bool
	rnd      *rand.Rand
	polygons map[string]*geom.Polygon
	keys     *KeyState
}

func (w *fakeWorld) Tint() Color           { return w.tint }
func (w *fakeWorld) SetTint(c Color)       { w.tint = c }
func (w *fakeWorld) MagneticEnabled() bool { return w.magnetic }
func (w *fakeWorld) Rand() *rand.Rand      { return w.rnd }
func (w *fakeWorld) FindPolygon(name string) *geom.Polygon {
	return w.polygons[name]
}

func (w *fakeWorld) Input() Input {
	if w.keys == nil {
		return nil
	}
	return w.keys
}

type fakeTrigger struct {
	world   *fakeWorld
	posts   []post
	pending int
}

func newTrigger() *fakeTrigger {
	return &fakeTrigger{world: &fakeWorld{tint: White, magnetic: true, rnd: rand.New(rand.NewPCG(1, 2))}}
}

func (t *fakeTrigger) PostScript(desc, script, fn string, params ...any) {
	t.posts = append(t.posts, post{desc, script, fn, params})
	t.pending++
}

func (t *fakeTrigger) ScriptQueueEmpty() bool { return t.pending == 0 }
func (t *fakeTrigger) World() World           { return t.world }

// maxSource makes every IntN(n) return n-1.
type maxSource struct{}

func (maxSource) Uint64() uint64 { return math.MaxUint64 }

// sprite is a Body with the optional visual interfaces.
type sprite struct {
	Body
	ox, oy  float64
	visible bool
	rot     float64
	color   Color
	cycles  int
	frames  int
}

func newSprite(x, y float64) *sprite {
	s := &sprite{visible: true, color: White}
	s.InitBody(x, y, 10, 10)
	s.SetMoveSpeed(SpeedSlow)
	return s
}

func (s *sprite) Offset() (float64, float64) { return s.ox, s.oy }
func (s *sprite) SetOffset(x, y float64)     { s.ox, s.oy = x, y }
func (s *sprite) IsVisible() bool            { return s.visible }
func (s *sprite) SetVisible(v bool)          { s.visible = v }
func (s *sprite) Rotation() float64          { return s.rot }
func (s *sprite) SetRotation(deg float64)    { s.rot = deg }
func (s *sprite) Color() Color               { return s.color }
func (s *sprite) SetColor(c Color)           { s.color = c }

// Animate completes a cycle every third frame.
func (s *sprite) Animate(row int, dt float64) bool {
	s.frames++
	if s.frames%3 == 0 {
		s.cycles++
		return true
	}
	return false
}

func (s *sprite) AnimateMove(dx, dy, dt float64) {}

// run drives h for n ticks and commits every offer.
func run(m Movable, h Handler, tr Trigger, n int) {
	for i := 0; i < n; i++ {
		h.TryMove(m, dt, tr)
		m.CommitMove()
	}
}

// runUntilFinished returns the number of ticks it took, or -1.
func runUntilFinished(m Movable, h Handler, tr Trigger, limit int) int {
	for i := 1; i <= limit; i++ {
		h.TryMove(m, dt, tr)
		m.CommitMove()
		if h.Finished() {
			return i
		}
	}
	return -1
}
