package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/rpgcore/internal/geom"
	"github.com/l1jgo/rpgcore/internal/movement"
)

func TestNewEventDefaults(t *testing.T) {
	ev := New("npc", 1, 2, 16, 16)
	assert.Equal(t, Unassigned, ev.ID)
	assert.Equal(t, BlockBuildingLow, ev.Blocking)
	assert.Equal(t, float64(DefaultOutreach), ev.Outreach)
	assert.Equal(t, movement.White, ev.Color())
	assert.False(t, ev.IsGlobal())
	assert.Equal(t, movement.Idle(), ev.Handler())
}

func TestIsGlobalNeedsName(t *testing.T) {
	ev := New("", 0, 0, 1, 1)
	ev.Type = TypeGlobal
	assert.False(t, ev.IsGlobal())
	ev.Name = "hero"
	assert.True(t, ev.IsGlobal())
	ev.Type = TypePlayer
	assert.True(t, ev.IsGlobal())
	assert.True(t, ev.IsPlayer())
}

func TestIntersectsUsesPendingMove(t *testing.T) {
	a := New("a", 0, 0, 10, 10)
	b := New("b", 15, 0, 10, 10)
	assert.False(t, a.Intersects(b))

	a.OfferMove(6, 0)
	assert.True(t, a.Intersects(b))
	assert.True(t, b.Intersects(a))

	a.HoldMove()
	assert.False(t, a.Intersects(b))
	a.ResumeMove()
	assert.True(t, a.Intersects(b))

	a.CancelMove()
	assert.False(t, a.Intersects(b))
}

func TestReaches(t *testing.T) {
	a := New("a", 0, 0, 10, 10)
	b := New("b", 19, 0, 10, 10)
	assert.True(t, a.Reaches(b))

	b.SetPosition(21, 0)
	assert.False(t, a.Reaches(b))

	a.Outreach = 12
	assert.True(t, a.Reaches(b))
}

func TestIntersectsPolygon(t *testing.T) {
	p, err := geom.NewPolygon("wall", []float64{0, 100}, []float64{50, 50}, false)
	require.NoError(t, err)
	po := NewPolygonObject(p)

	ev := New("a", 10, 30, 10, 10)
	assert.False(t, ev.IntersectsPolygon(po))
	ev.OfferMove(0, 15)
	assert.True(t, ev.IntersectsPolygon(po))
}

func TestCollisionBookkeeping(t *testing.T) {
	ev := New("a", 0, 0, 1, 1)
	h1 := NewAdapter("h1")
	h2 := NewAdapter("h2")

	ev.AddCollision(h1)
	ev.AddCollision(h2)
	assert.Len(t, ev.Collisions(), 2)
	ev.ResetCollisions()
	assert.Empty(t, ev.Collisions())

	ev.AddReachable(h1)
	ev.AddReachable(h1)
	assert.Len(t, ev.Reachable(), 1)
	ev.RemoveReachable(h1)
	assert.Empty(t, ev.Reachable())

	ev.AddJustTouching(h2)
	assert.True(t, ev.IsJustTouching(h2))
	assert.False(t, ev.IsJustTouching(h1))
	ev.RemoveJustTouching(h2)
	assert.False(t, ev.IsJustTouching(h2))
}

type countingHandler struct {
	*Adapter
	inits, loads, disposed int
}

func (c *countingHandler) Init()    { c.inits++ }
func (c *countingHandler) OnLoad()  { c.loads++ }
func (c *countingHandler) Dispose() { c.disposed++ }

func TestInitAndDispose(t *testing.T) {
	ev := New("a", 0, 0, 1, 1)
	h := &countingHandler{Adapter: NewAdapter(ev)}
	ev.SetEventHandler(h)
	ev.AddMoveHandler(0, movement.NewDistance(5, movement.E))

	ev.Init()
	assert.Equal(t, 1, h.inits)
	assert.Equal(t, 1, h.loads)
	_, isCombined := ev.Handler().(*movement.Combined)
	assert.True(t, isCombined)

	ev.Visible = true
	ev.Dispose()
	assert.Equal(t, 1, h.disposed)
	assert.Nil(t, ev.EventHandler())
	assert.Equal(t, movement.Idle(), ev.Handler())
	assert.False(t, ev.Visible)
}

func TestAnimationFollowsWalk(t *testing.T) {
	ev := New("a", 0, 0, 1, 1)
	ev.Anim = NewAnimation(4, 4)
	ev.SetMoveSpeed(movement.SpeedNormal)
	moved := false
	for range 20 {
		ev.OfferMoveDir(movement.N, .05)
		ev.CommitMove()
		if _, col := ev.Anim.Frame(); col != 0 {
			moved = true
		}
	}
	assert.True(t, moved)
	ev.Stop()
	_, col := ev.Anim.Frame()
	assert.Zero(t, col)
}
