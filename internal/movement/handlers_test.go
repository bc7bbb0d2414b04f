package movement

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/rpgcore/internal/geom"
)

func TestSetXY_RetriesWhileBlocked(t *testing.T) {
	b := NewBody(0, 0, 1, 1)
	s := NewSetXY(5, 5)

	for i := 0; i < 3; i++ {
		s.TryMove(b, dt, nil)
		require.True(t, b.Moving())
		b.CancelMove()
		s.MoveBlocked(b)
		assert.False(t, s.Finished())
	}

	s.TryMove(b, dt, nil)
	b.CommitMove()
	s.TryMove(b, dt, nil)
	assert.True(t, s.Finished())
	assert.Equal(t, 5.0, b.X())
	assert.Equal(t, 5.0, b.Y())
}

func TestSetXY_FollowsOther(t *testing.T) {
	other := NewBody(3, 4, 1, 1)
	b := NewBody(0, 0, 1, 1)
	s := NewSetXYTo(other)

	other.ForceMoveTo(8, 9)
	s.TryMove(b, dt, nil)
	b.CommitMove()
	assert.Equal(t, 8.0, b.X())
	assert.Equal(t, 9.0, b.Y())
}

func TestJump(t *testing.T) {
	s := newSprite(0, 0)
	j := NewJump(30, 40)

	j.TryMove(s, dt, nil)
	s.CommitMove()
	assert.Equal(t, 30.0, s.X())
	assert.Equal(t, 40.0, s.Y())
	ox, oy := s.Offset()
	assert.Equal(t, -30.0, ox, "the sprite stays put while the bound jumps")
	assert.Equal(t, -40.0, oy)

	ticks := runUntilFinished(s, j, nil, 1000)
	require.Greater(t, ticks, 1)
	ox, oy = s.Offset()
	assert.Equal(t, 0.0, ox)
	assert.Equal(t, 0.0, oy)
	assert.Equal(t, 30.0, s.X())
}

func TestJump_BlockedRestoresOffset(t *testing.T) {
	s := newSprite(0, 0)
	s.SetOffset(1, 2)
	j := NewJump(10, 0)

	j.TryMove(s, dt, nil)
	s.CancelMove()
	j.MoveBlocked(s)

	ox, oy := s.Offset()
	assert.Equal(t, 1.0, ox)
	assert.Equal(t, 2.0, oy)
	assert.Equal(t, 0.0, s.X())

	j.TryMove(s, dt, nil)
	assert.True(t, s.Moving(), "a blocked jump is retried")
}

func TestArc_StaysOnCircle(t *testing.T) {
	b := NewBody(10, 0, 1, 1)
	b.SetMoveSpeed(SpeedSlow)
	a := NewArc(Vec{}, FiniteAngle(90))

	ticks := runUntilFinished(b, a, nil, 10000)
	require.Greater(t, ticks, 0)
	assert.InDelta(t, 10.0, math.Hypot(b.X(), b.Y()), 1e-9)

	angle := math.Atan2(b.Y(), b.X())
	step := 1 / (10 * math.Sqrt2)
	assert.GreaterOrEqual(t, angle, math.Pi/2-1e-9)
	assert.Less(t, angle, math.Pi/2+step)
}

func TestArc_Direction(t *testing.T) {
	ccw := NewBody(10, 0, 1, 1)
	ccw.SetMoveSpeed(SpeedSlow)
	run(ccw, NewArc(Vec{}, LoopCounterClockwise), nil, 5)
	assert.Greater(t, ccw.Y(), 0.0)

	cw := NewBody(10, 0, 1, 1)
	cw.SetMoveSpeed(SpeedSlow)
	a := NewArc(Vec{}, LoopClockwise)
	run(cw, a, nil, 5)
	assert.Less(t, cw.Y(), 0.0)
	assert.False(t, a.Finished())
}

func TestArc_WaitsOnOrigin(t *testing.T) {
	b := NewBody(0, 0, 1, 1)
	b.SetMoveSpeed(SpeedSlow)
	a := NewArc(Vec{}, LoopClockwise)

	a.TryMove(b, dt, nil)
	assert.False(t, b.Moving())
	assert.False(t, a.Finished())
}

func TestEllipse_FollowsStretchedPath(t *testing.T) {
	b := NewBody(50, 50, 1, 1)
	b.SetMoveSpeed(SpeedSlow)
	e := NewDefaultEllipse(geom.Rect{X: 0, Y: 0, W: 20, H: 10})

	e.TryMove(b, dt, nil)
	b.CommitMove()
	assert.Equal(t, 10.0, b.X())
	assert.Equal(t, 0.0, b.Y())

	for i := 0; i < 20; i++ {
		e.TryMove(b, dt, nil)
		b.CommitMove()
		ex := (b.X() - 10) / 2
		ey := b.Y() - 5
		assert.InDelta(t, 25.0, ex*ex+ey*ey, 1e-6)
	}
	assert.Less(t, b.X(), 10.0, "clockwise from the bottom heads west")
	assert.False(t, e.Finished())
}

func TestRectangle(t *testing.T) {
	b := NewBody(5, 5, 1, 1)
	b.SetMoveSpeed(SpeedSlow)
	r := NewRectangle(geom.Rect{X: 0, Y: 0, W: 3, H: 2}, BottomLeft, true)

	seen := map[[2]float64]bool{}
	for i := 0; i < 100 && !r.Finished(); i++ {
		r.TryMove(b, dt, nil)
		b.CommitMove()
		seen[[2]float64{math.Round(b.X()), math.Round(b.Y())}] = true
	}
	require.True(t, r.Finished())
	assert.True(t, seen[[2]float64{0, 2}])
	assert.True(t, seen[[2]float64{3, 2}])
	assert.True(t, seen[[2]float64{3, 0}])
	assert.InDelta(t, 0.0, b.X(), 1e-9)
	assert.InDelta(t, 0.0, b.Y(), 1e-9)
}

func TestRandom_Deterministic(t *testing.T) {
	walk := func() []float64 {
		b := NewBody(0, 0, 1, 1)
		b.SetMoveSpeed(SpeedSlow)
		r := NewRandom(16)
		r.Rand = rand.New(rand.NewPCG(7, 7))
		var out []float64
		for i := 0; i < 100; i++ {
			r.TryMove(b, dt, nil)
			b.CommitMove()
			out = append(out, b.X(), b.Y())
		}
		return out
	}
	assert.Equal(t, walk(), walk())
}

func TestRandom_FirstPickAlwaysMoves(t *testing.T) {
	b := NewBody(0, 0, 1, 1)
	b.SetMoveSpeed(SpeedSlow)
	r := NewRandom(DefaultSlackness)
	r.Rand = rand.New(maxSource{})

	r.TryMove(b, dt, nil)
	b.CommitMove()
	assert.Equal(t, -1.0, b.X(), "roll 127 mod 4 picks W")

	r.MoveBlocked(b)
	r.TryMove(b, dt, nil)
	assert.True(t, b.Moving())
}

func TestRandom_RestrictedDirections(t *testing.T) {
	b := NewBody(0, 0, 1, 1)
	b.SetMoveSpeed(SpeedSlow)
	r := NewRandom(DefaultSlackness, E)
	tr := newTrigger()

	run(b, r, tr, 50)
	assert.InDelta(t, 50.0, b.X(), 1e-9)
	assert.Equal(t, 0.0, b.Y())
}

func TestMagnetic_WalksTowardsTarget(t *testing.T) {
	target := NewBody(100, 0, 1, 1)
	b := NewBody(0, 0, 1, 1)
	b.SetMoveSpeed(SpeedSlow)
	g := NewMagnetic(target, AttractionMaximum, false)
	g.Rand = rand.New(maxSource{})
	tr := newTrigger()

	run(b, g, tr, 50)
	assert.InDelta(t, 50.0, b.X(), 1e-9)
}

func TestMagnetic_WorldSwitch(t *testing.T) {
	target := NewBody(100, 0, 1, 1)
	b := NewBody(0, 0, 1, 1)
	b.SetMoveSpeed(SpeedSlow)
	g := NewMagnetic(target, AttractionMaximum, false)
	g.Rand = rand.New(maxSource{})
	tr := newTrigger()
	tr.world.magnetic = false

	run(b, g, tr, 10)
	assert.InDelta(t, -10.0, b.X(), 1e-9, "plain random walk picks W")
}

func TestMagnetic_AttractingDirections(t *testing.T) {
	g := NewMagneticFull([]Direction{N, E, S, W, NE, SE, NW, SW}, DefaultSlackness, nil, 300, AttractionMedium, false)

	g.computeAttracting(100, 0)
	assert.Equal(t, []Direction{E}, g.attracting)

	g.computeAttracting(50, 80)
	assert.Equal(t, []Direction{N, NE}, g.attracting)
	require.True(t, g.hasAlt)
	assert.Equal(t, E, g.alternate)

	g.lastDir, g.hasDir = N, true
	g.MoveBlocked(nil)
	assert.Equal(t, E, g.lastDir, "blocked walks fall back to the alternate")
	g.MoveBlocked(nil)
	assert.False(t, g.hasDir)
}

func TestTracer(t *testing.T) {
	leader := newSprite(0, 0)
	f := newSprite(0, 0)
	tr := NewTracer(leader, 5)

	tr.TryMove(f, dt, nil)
	assert.False(t, f.IsVisible())

	for i := 1; i <= 5; i++ {
		leader.ForceMoveTo(float64(i), 0)
		tr.TryMove(f, dt, nil)
		f.CommitMove()
	}
	assert.Equal(t, 0.0, f.X(), "no replay within the follow distance")

	leader.ForceMoveTo(6, 0)
	tr.TryMove(f, dt, nil)
	f.CommitMove()
	assert.Equal(t, 1.0, f.X())
	assert.True(t, f.IsVisible())

	for i := 0; i < 20; i++ {
		tr.TryMove(f, dt, nil)
		f.CommitMove()
	}
	assert.Equal(t, 6.0, f.X(), "a resting leader is caught up with")
	assert.False(t, f.IsVisible())
}

func TestTracer_EstimatesDistance(t *testing.T) {
	leader := newSprite(0, 0)
	f := newSprite(0, 0)
	tr := NewTracer(leader, 0)

	tr.TryMove(f, dt, nil)
	assert.InDelta(t, 40/FollowDivisor, tr.FollowDistance, 1e-9)
}

func TestFadeColor(t *testing.T) {
	s := newSprite(0, 0)
	black := Color{0, 0, 0, 1}

	f := NewFadeColor(nil, black, false)
	f.TryMove(s, dt, nil)
	assert.True(t, f.Finished())
	assert.Equal(t, black, s.Color())

	s.SetColor(White)
	speed := SpeedSlow
	f = NewFadeColor(&speed, black, false)
	f.TryMove(s, dt, nil)
	assert.False(t, f.Finished())
	assert.InDelta(t, .98, s.Color().R, 1e-9)
	assert.Equal(t, 1.0, s.Color().A)

	ticks := runUntilFinished(s, f, nil, 1000)
	assert.Greater(t, ticks, 40)
	assert.Equal(t, black, s.Color())
}

func TestFadeColor_TintsWorld(t *testing.T) {
	tr := newTrigger()
	b := NewBody(0, 0, 1, 1)
	red := Color{1, 0, 0, 1}

	f := NewFadeColor(nil, red, true)
	f.TryMove(b, dt, tr)
	assert.True(t, f.Finished())
	assert.Equal(t, red, tr.world.tint)
}

func TestRotate(t *testing.T) {
	s := newSprite(0, 0)
	r := NewRotate(nil, FiniteAngle(90))
	r.TryMove(s, dt, nil)
	assert.True(t, r.Finished())
	assert.Equal(t, 90.0, s.Rotation())

	s.SetRotation(0)
	speed := SpeedSlow
	loop := NewRotate(&speed, LoopClockwise)
	run(s, loop, nil, 10)
	assert.InDelta(t, -10.0, s.Rotation(), 1e-9)
	assert.False(t, loop.Finished())
}

func TestAnimate(t *testing.T) {
	s := newSprite(0, 0)
	a := NewAnimate(2)

	ticks := runUntilFinished(s, a, nil, 10)
	assert.Equal(t, 3, ticks)
	assert.Equal(t, 1, s.cycles)

	b := NewBody(0, 0, 1, 1)
	a = NewAnimate(0)
	a.TryMove(b, dt, nil)
	assert.True(t, a.Finished(), "nothing to animate")
}

func TestExecuteScript(t *testing.T) {
	tr := newTrigger()
	b := NewBody(0, 0, 1, 1)

	e := NewExecuteScript("x = 1", true)
	e.TryMove(b, dt, tr)
	require.Len(t, tr.posts, 1)
	assert.Equal(t, "x = 1", tr.posts[0].script)
	assert.False(t, e.Finished(), "waits for the queue")

	e.TryMove(b, dt, tr)
	assert.Len(t, tr.posts, 1, "posted only once")

	tr.pending = 0
	e.TryMove(b, dt, tr)
	assert.True(t, e.Finished())

	nowait := NewExecuteScript("y = 2", false)
	nowait.TryMove(b, dt, tr)
	assert.True(t, nowait.Finished())
}

func TestExecuteMethod_Condition(t *testing.T) {
	calls := 0
	b := NewBody(0, 0, 1, 1)
	e := NewExecuteMethod(func(Movable) { calls++ }, func(Movable) bool { return false })

	e.TryMove(b, dt, nil)
	assert.True(t, e.Finished())
	assert.Equal(t, 0, calls)
}

func TestPolygon_WalksAndPostsNodeScript(t *testing.T) {
	poly, err := geom.NewPolygon("path", []float64{0, 10}, []float64{0, 0}, false)
	require.NoError(t, err)
	poly.SetNodeScript(1, "arrived()")
	tr := newTrigger()
	tr.world.polygons = map[string]*geom.Polygon{"path": poly}

	b := NewBody(0, 0, 1, 1)
	b.SetMoveSpeed(SpeedSlow)
	h := NewPolygonByName("path", false, true)

	run(b, h, tr, 10)
	assert.InDelta(t, 10.0, b.X(), 1e-9)
	assert.False(t, h.Finished())

	h.TryMove(b, dt, tr)
	require.Len(t, tr.posts, 1)
	assert.Equal(t, "arrived()", tr.posts[0].script)
	assert.Equal(t, NodeCallback, tr.posts[0].fn)
	assert.False(t, h.Finished(), "crop waits for the script queue")

	tr.pending = 0
	h.TryMove(b, dt, tr)
	assert.True(t, h.Finished())
}

func TestPolygon_UnknownNameWaits(t *testing.T) {
	tr := newTrigger()
	b := NewBody(0, 0, 1, 1)
	h := NewPolygonByName("missing", false, false)

	h.TryMove(b, dt, tr)
	assert.False(t, b.Moving())
	assert.Nil(t, h.Current())
}

func TestChangeSpeed(t *testing.T) {
	b := NewBody(0, 0, 1, 1)
	c := NewChangeSpeed(SpeedLight)
	c.TryMove(b, dt, nil)
	assert.True(t, c.Finished())
	assert.Equal(t, SpeedLight, b.MoveSpeed())
}
