package mapload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/l1jgo/rpgcore/internal/entity"
	"github.com/l1jgo/rpgcore/internal/movement"
	"github.com/l1jgo/rpgcore/internal/persist"
	"github.com/l1jgo/rpgcore/internal/scripting"
	"github.com/l1jgo/rpgcore/internal/state"
	"github.com/l1jgo/rpgcore/internal/world"
)

const townYAML = `
width: 10
height: 10
object_groups:
  - name: events
    objects:
      - name: chest
        x: 32
        y: 32
        width: 32
        height: 32
        properties:
          ID: "3"
          onLoad: "state:setInt(0, state:int(0) + 1)"
      - name: hero
        type: player
        x: 64
        y: 64
        width: 16
        height: 16
      - name: ghost
        x: 0
        y: 0
        width: 8
        height: 8
        properties:
          display: "false"
      - name: road
        x: 0
        y: 100
        polyline: [{x: 0, y: 0}, {x: 50, y: 0}]
  - name: hidden
    properties:
      Display: "no"
    objects:
      - name: trap
        x: 0
        y: 0
        width: 8
        height: 8
`

type fixture struct {
	dir     string
	world   *world.State
	builder *Builder
	store   *persist.FileStore
	engine  *scripting.Engine
}

func newFixture(t *testing.T, store persist.Store, log *zap.Logger) *fixture {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "town.yaml"), []byte(townYAML), 0o644))

	engine, err := scripting.NewEngine("", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	f := &fixture{dir: dir, world: world.NewState(1, false), engine: engine}
	if store == nil {
		fs, err := persist.NewFileStore(filepath.Join(dir, "state"), zap.NewNop())
		require.NoError(t, err)
		f.store, store = fs, fs
	}
	f.builder = NewBuilder(f.world, entity.NewFactory(engine, zap.NewNop()), store, dir, ".state", log)
	return f
}

func chestCount(t *testing.T, m *world.Map) int {
	t.Helper()
	chest := m.Event("chest")
	require.NotNil(t, chest)
	require.NotNil(t, chest.EventHandler())
	return chest.EventHandler().State().Int(0)
}

func exerciseLoader(t *testing.T, f *fixture, l Loader) {
	l.StartLoadMap("town.yaml")
	m, err := l.EndLoadMap()
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Same(t, m, f.world.Current())
	assert.Equal(t, 320.0, m.Width)
	assert.Equal(t, 3, m.Event("chest").ID)
	assert.Nil(t, m.Event("ghost"))
	assert.Nil(t, m.Event("trap"))
	assert.NotNil(t, m.FindPolygon("road"))
	// chest, hero and the four boundaries
	assert.Equal(t, 6, m.Len())
	assert.Equal(t, 1, chestCount(t, m))

	hero := f.world.Player()
	require.NotNil(t, hero)
	assert.True(t, hero.ConsumesEvent)

	l.StoreMapState(m, true)
	l.StartLoadMap("town.yaml")
	m2, err := l.EndLoadMap()
	require.NoError(t, err)
	assert.True(t, m.Disposed())

	assert.Equal(t, 2, chestCount(t, m2), "stored state is restored before onLoad")
	assert.Same(t, hero, m2.Event("hero"))
	assert.Equal(t, 1, f.world.GlobalEvents())
}

func TestSyncLoader(t *testing.T) {
	f := newFixture(t, nil, zap.NewNop())
	l := NewSync(f.builder)
	exerciseLoader(t, f, l)

	_, err := os.Stat(filepath.Join(f.dir, "state", "town.state"))
	assert.NoError(t, err)

	l.Dispose()
	_, err = l.EndLoadMap()
	assert.ErrorIs(t, err, ErrDisposed)
	assert.Panics(t, l.Dispose)
}

func TestAsyncLoader(t *testing.T) {
	f := newFixture(t, nil, zap.NewNop())
	l := NewAsync(f.builder, zap.NewNop())
	exerciseLoader(t, f, l)

	l.Dispose()
	<-l.Done()
	_, err := l.EndLoadMap()
	assert.ErrorIs(t, err, ErrDisposed)
	assert.Panics(t, l.Dispose)

	// no-ops once disposed
	l.StartLoadMap("town.yaml")
	l.StoreMapState(world.NewMap("x", 1, 1, f.world), false)
}

func TestEndLoadMapErrors(t *testing.T) {
	f := newFixture(t, nil, zap.NewNop())
	for name, l := range map[string]Loader{
		"sync":  NewSync(f.builder),
		"async": NewAsync(f.builder, zap.NewNop()),
	} {
		t.Run(name, func(t *testing.T) {
			defer l.Dispose()
			_, err := l.EndLoadMap()
			assert.ErrorIs(t, err, ErrNoLoad)

			l.StartLoadMap("missing.yaml")
			m, err := l.EndLoadMap()
			assert.Error(t, err)
			assert.Nil(t, m)
		})
	}
}

type failingStore struct{}

func (failingStore) Load(context.Context, string) (state.States, error) {
	return nil, errors.New("boom")
}

func (failingStore) Save(context.Context, string, state.States) error {
	return errors.New("boom")
}

func (failingStore) Close() error { return nil }

func TestStoreFailuresAreLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	f := newFixture(t, failingStore{}, zap.New(core))
	l := NewAsync(f.builder, zap.NewNop())
	defer l.Dispose()

	l.StartLoadMap("town.yaml")
	m, err := l.EndLoadMap()
	require.NoError(t, err)
	assert.Equal(t, 1, chestCount(t, m))

	l.StoreMapState(m, false)
	// waits for the store job
	_, err = l.EndLoadMap()
	assert.ErrorIs(t, err, ErrNoLoad)
	assert.False(t, m.Disposed())

	assert.Equal(t, 1, logs.FilterMessage("讀取地圖狀態失敗，使用預設值").Len())
	assert.Equal(t, 1, logs.FilterMessage("儲存地圖狀態失敗").Len())
}

// blockingStore holds every load until the context ends.
type blockingStore struct {
	entered chan struct{}
}

func (s blockingStore) Load(ctx context.Context, _ string) (state.States, error) {
	close(s.entered)
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingStore) Save(context.Context, string, state.States) error { return nil }
func (blockingStore) Close() error                                     { return nil }

func TestDisposeWakesWaiters(t *testing.T) {
	store := blockingStore{entered: make(chan struct{})}
	f := newFixture(t, store, zap.NewNop())
	l := NewAsync(f.builder, zap.NewNop())

	l.StartLoadMap("town.yaml")
	<-store.entered

	errc := make(chan error, 1)
	go func() {
		_, err := l.EndLoadMap()
		errc <- err
	}()

	l.Dispose()
	assert.ErrorIs(t, <-errc, ErrDisposed)
	<-l.Done()
}

// walkersYAML authors n events that each walk ten units east.
func walkersYAML(n int) string {
	var b strings.Builder
	b.WriteString("width: 100\nheight: 10\nobject_groups:\n  - name: walkers\n    objects:\n")
	for i := range n {
		fmt.Fprintf(&b, "      - name: w%d\n        x: %d\n        y: 0\n        width: 8\n        height: 8\n", i, i*8)
		b.WriteString("        properties:\n          movehandler1: \"distance(10, E)\"\n")
	}
	return b.String()
}

// Run under -race: the simulation keeps recycling pooled segments while the
// worker parses move handlers.
func TestFramesRunDuringAsyncLoad(t *testing.T) {
	f := newFixture(t, nil, zap.NewNop())
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "big.yaml"), []byte(walkersYAML(200)), 0o644))
	l := NewAsync(f.builder, zap.NewNop())
	defer l.Dispose()

	body := movement.NewBody(0, 0, 8, 8)
	l.StartLoadMap("big.yaml")
	for range 2000 {
		movement.Once(movement.Idle()).Free()
		body.Sleep(0)
		body.Handler().TryMove(body, .1, nil)
	}
	m, err := l.EndLoadMap()
	require.NoError(t, err)
	// the walkers and the four boundaries
	assert.Equal(t, 204, m.Len())

	w := m.Event("w0")
	require.NotNil(t, w)
	_, ok := w.Handler().(*movement.Combined)
	assert.True(t, ok, "the authored sequence is installed on activation")
}
