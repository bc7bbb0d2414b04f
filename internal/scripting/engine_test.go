package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/l1jgo/rpgcore/internal/entity"
	"github.com/l1jgo/rpgcore/internal/geom"
	"github.com/l1jgo/rpgcore/internal/movement"
	"github.com/l1jgo/rpgcore/internal/state"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine("", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func newObservedEngine(t *testing.T) (*Engine, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	e, err := NewEngine("", zap.New(core))
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e, logs
}

type fakeHost struct {
	keys    *movement.KeyState
	global  *state.ObjectState
	events  map[string]*entity.EventObject
	changed []string
	fired   [][2]int
}

func (h *fakeHost) GlobalState() *state.ObjectState { return h.global }

func (h *fakeHost) FindEvent(name string) *entity.EventObject { return h.events[name] }

func (h *fakeHost) ChangeMap(path string) { h.changed = append(h.changed, path) }

func (h *fakeHost) Keys() *movement.KeyState { return h.keys }

func (h *fakeHost) FireCustom(id, triggerID int) bool {
	h.fired = append(h.fired, [2]int{id, triggerID})
	return true
}

func TestFragmentsRunInIndexOrder(t *testing.T) {
	e := newTestEngine(t)
	ev := entity.New("door", 0, 0, 1, 1)
	h := e.NewHandler(ev)
	h.AddFragment(entity.HookTouch, 2, `state:setString(0, state:string(0) .. "b")`)
	h.AddFragment(entity.HookTouch, 1, `state:setString(0, state:string(0) .. "a")`)
	h.AddFragment(entity.HookTouch, 3, `return trigger:name() == "hero"`)
	h.Init()

	hero := entity.New("hero", 0, 0, 1, 1)
	assert.True(t, h.OnTouch(hero))
	assert.Equal(t, "ab", h.State().String(0))

	other := entity.New("cat", 0, 0, 1, 1)
	assert.False(t, h.OnTouch(other))
	assert.Equal(t, "abab", h.State().String(0))
}

func TestSameIndexReplaces(t *testing.T) {
	e := newTestEngine(t)
	h := e.NewHandler(entity.New("a", 0, 0, 1, 1))
	h.AddFragment(entity.HookCustomTrigger, 0, `return false`)
	h.AddFragment(entity.HookCustomTrigger, 0, `return id == 7`)
	h.Init()
	assert.True(t, h.OnCustomTrigger(7))
	assert.False(t, h.OnCustomTrigger(8))
}

func TestHooksWithoutCodeReturnFalse(t *testing.T) {
	e := newTestEngine(t)
	h := e.NewHandler(entity.New("a", 0, 0, 1, 1))
	h.AddFragment(entity.HookTimer, 0, "   ")
	h.Init()
	assert.False(t, h.OnTimer(1))
	assert.False(t, h.OnPush(nil))
	assert.False(t, h.(*Handler).HasHook(entity.HookTimer))
}

func TestRuntimeErrorIsLogged(t *testing.T) {
	e, logs := newObservedEngine(t)
	ev := entity.New("npc", 0, 0, 1, 1)
	h := e.NewHandler(ev)
	h.AddFragment(entity.HookPush, 0, `error("boom")`)
	h.Init()

	assert.False(t, h.OnPush(ev))
	entries := logs.FilterMessage("lua hook error").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "push", fields["hook"])
	assert.Equal(t, ev.String(), fields["entity"])
}

func TestCompileErrorLeavesHookEmpty(t *testing.T) {
	e, logs := newObservedEngine(t)
	h := e.NewHandler(entity.New("npc", 0, 0, 1, 1))
	h.AddFragment(entity.HookTimer, 0, `if then`)
	h.AddFragment(entity.HookLoad, 0, `state:setBool(1, true)`)
	h.Init()

	assert.False(t, h.OnTimer(.1))
	h.OnLoad()
	assert.True(t, h.State().Bool(1))
	assert.Equal(t, 1, logs.FilterMessage("lua hook error").Len())
}

func TestNamedHandler(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.DoString(`
Guard = {
	push = function(self, trigger, state)
		state:setInt(1, state:int(1) + 1)
		return true
	end,
	timer = function(self, dt, state)
		return dt > 1
	end,
}`))
	ev := entity.New("guard", 0, 0, 1, 1)
	h, err := e.Lookup("Guard", ev)
	require.NoError(t, err)
	h.Init()

	assert.True(t, h.OnPush(ev))
	assert.True(t, h.OnPush(ev))
	assert.Equal(t, 2, h.State().Int(1))
	assert.False(t, h.OnTimer(.5))
	assert.True(t, h.OnTimer(2))

	// fragments take precedence over the table
	h.AddFragment(entity.HookTimer, 0, `return true`)
	h.Init()
	assert.True(t, h.OnTimer(.5))
}

func TestLookupErrors(t *testing.T) {
	e, logs := newObservedEngine(t)
	_, err := e.Lookup("not a name", nil)
	assert.Error(t, err)
	_, err = e.Lookup("", nil)
	assert.Error(t, err)

	h, err := e.Lookup("Missing", entity.New("a", 0, 0, 1, 1))
	require.NoError(t, err)
	h.Init()
	assert.False(t, h.OnTouch(nil))
	assert.Equal(t, 1, logs.FilterMessage("lua hook error").Len())
}

func TestStateChangeGetsGlobal(t *testing.T) {
	e := newTestEngine(t)
	h := e.NewHandler(entity.New("lamp", 0, 0, 1, 1))
	h.AddFragment(entity.HookStateChange, 0, `state:setBool(0, global:bool(3))`)
	h.Init()

	global := state.New()
	global.SetBool(3, true)
	h.OnStateChange(global)
	assert.True(t, h.State().Bool(0))
}

func TestChildStatePersists(t *testing.T) {
	e := newTestEngine(t)
	h := e.NewHandler(entity.New("chest", 0, 0, 1, 1))
	h.AddFragment(entity.HookLoad, 0, `state:child(2):setInt(0, 5)`)
	h.Init()
	h.OnLoad()
	require.True(t, h.State().HasChild(2))
	assert.Equal(t, 5, h.State().Child(2).Int(0))
}

func TestSelfAndEquality(t *testing.T) {
	e := newTestEngine(t)
	ev := entity.New("mirror", 0, 0, 1, 1)
	h := e.NewHandler(ev)
	h.AddFragment(entity.HookTouch, 0, `return trigger == self`)
	h.Init()
	assert.True(t, h.OnTouch(ev))
	assert.False(t, h.OnTouch(entity.New("other", 0, 0, 1, 1)))
}

func TestEventBindingsDriveMovement(t *testing.T) {
	e := newTestEngine(t)
	ev := entity.New("walker", 0, 0, 1, 1)
	h := e.NewHandler(ev)
	h.AddFragment(entity.HookLoad, 0, `
self:setSpeed("SLOW")
self:setBlocking("flying_low")
self:setProperty("$mood", "happy")
self:exec("distance(2, N)")`)
	ev.SetEventHandler(h)
	ev.Init()

	assert.Equal(t, movement.SpeedSlow, ev.MoveSpeed())
	assert.Equal(t, entity.BlockFlyingLow, ev.Blocking)
	assert.Equal(t, "happy", ev.Properties["$mood"])

	for range 3 {
		ev.Handler().TryMove(ev, .01, nil)
		ev.CommitMove()
	}
	assert.Equal(t, 2.0, ev.Y())
}

func TestBadExecRaises(t *testing.T) {
	e, logs := newObservedEngine(t)
	h := e.NewHandler(entity.New("walker", 0, 0, 1, 1))
	h.AddFragment(entity.HookTouch, 0, `self:exec("fly(1)") return true`)
	h.Init()
	assert.False(t, h.OnTouch(nil))
	assert.Equal(t, 1, logs.FilterMessage("lua hook error").Len())
}

func TestInvokeNodeCallback(t *testing.T) {
	e := newTestEngine(t)
	ev := entity.New("walker", 0, 0, 1, 1)
	p, err := geom.NewPolygon("road", []float64{0, 10}, []float64{0, 0}, false)
	require.NoError(t, err)
	mover := movement.NewPolygonMove(p, false, true)

	script := `self:setProperty("$at", polygon:name() .. polygon:nodes()) mover:setRewind(true)`
	require.NoError(t, e.Invoke(script, movement.NodeCallback, ev, p, mover))
	assert.Equal(t, "road2", ev.Properties["$at"])
	assert.True(t, mover.Rewind)

	// compiled once, run again
	ev.Properties["$at"] = ""
	require.NoError(t, e.Invoke(script, movement.NodeCallback, ev, p, mover))
	assert.Equal(t, "road2", ev.Properties["$at"])
}

func TestInvokeCompilesPerArity(t *testing.T) {
	e := newTestEngine(t)
	ev := entity.New("walker", 0, 0, 1, 1)
	script := `self:setProperty("arg", tostring(arg1))`

	require.NoError(t, e.Invoke(script, "onCustom", ev))
	assert.Equal(t, "nil", ev.Properties["arg"])

	require.NoError(t, e.Invoke(script, "onCustom", ev, 5))
	assert.Equal(t, "5", ev.Properties["arg"], "the extra param gets its own name")
}

func TestEvalErrors(t *testing.T) {
	e := newTestEngine(t)
	assert.NoError(t, e.Eval(`x = 1 + 1`))
	assert.Error(t, e.Eval(`error("nope")`))
	assert.Error(t, e.Eval(`x = = 1`))
}

func TestHostGlobals(t *testing.T) {
	e := newTestEngine(t)
	assert.Error(t, e.Eval(`changeMap("town.yaml")`))

	hero := entity.New("hero", 0, 0, 1, 1)
	host := &fakeHost{
		keys:   movement.NewKeyState(),
		global: state.New(),
		events: map[string]*entity.EventObject{"hero": hero},
	}
	e.Bind(host)

	require.NoError(t, e.Eval(`
globalState():setInt(0, 9)
event("hero"):setVisible(true)
assert(event("nobody") == nil)
assert(fireCustom(3, 4))
changeMap("town.yaml")`))
	assert.Equal(t, 9, host.global.Int(0))
	assert.True(t, hero.Visible)
	assert.Equal(t, []string{"town.yaml"}, host.changed)
	assert.Equal(t, [][2]int{{3, 4}}, host.fired)

	require.NoError(t, e.Eval(`
pressKey("space")
pressKey("UP")
releaseKey("up")
assert(keyDown("Space"))
assert(not keyDown("up"))
event("hero"):setMove("keys(8)")`))
	assert.True(t, host.keys.Pressed(movement.KeySpace))
	_, ok := hero.Handler().(*movement.Keyboard)
	assert.True(t, ok)
	assert.Error(t, e.Eval(`pressKey("F13")`))
}

func TestScriptFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "util.lua"),
		[]byte(`function double(n) return n * 2 end`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "events"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "events", "greet.lua"),
		[]byte(`state:setInt(0, double(21))`), 0o644))

	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	h := e.NewHandler(entity.New("a", 0, 0, 1, 1))
	h.AddFragment(entity.HookLoad, 0, "events/greet.lua")
	h.Init()
	h.OnLoad()
	assert.Equal(t, 42, h.State().Int(0))
}

func TestLoadErrorFailsEngine(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.lua"), []byte(`function (`), 0o644))
	_, err := NewEngine(dir, zap.NewNop())
	assert.Error(t, err)
}
