// Package mapload builds maps from their sources and moves map state in and
// out of the state store, optionally on a background worker.
package mapload

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/l1jgo/rpgcore/internal/data"
	"github.com/l1jgo/rpgcore/internal/entity"
	"github.com/l1jgo/rpgcore/internal/persist"
	"github.com/l1jgo/rpgcore/internal/state"
	"github.com/l1jgo/rpgcore/internal/world"
)

// Builder turns a map source into a world.Map. It never touches the script
// VM, so Build may run off the simulation goroutine; the events are
// initialized when the map is activated.
type Builder struct {
	World   *world.State
	Factory *entity.Factory
	Store   persist.Store // nil disables persistence
	Dir     string        // map paths are relative to Dir
	Suffix  string        // appended to the state key

	log *zap.Logger
}

func NewBuilder(w *world.State, f *entity.Factory, store persist.Store, dir, suffix string, log *zap.Logger) *Builder {
	return &Builder{World: w, Factory: f, Store: store, Dir: dir, Suffix: suffix, log: log}
}

func (b *Builder) resolve(path string) string {
	if b.Dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(b.Dir, path)
}

// StateKey returns the store key of the map at path.
func (b *Builder) StateKey(path string) string {
	return persist.StatePath(path, b.Suffix)
}

// Build parses the source at path, creates its events and polygons and
// hands them their stored states. A failing store read is logged and the
// map starts from its authored defaults.
func (b *Builder) Build(ctx context.Context, path string) (*world.Map, error) {
	src, err := data.LoadMapSource(b.resolve(path))
	if err != nil {
		return nil, err
	}
	m := world.NewMap(path, src.PixelWidth(), src.PixelHeight(), b.World)
	for gi := range src.ObjectGroups {
		g := &src.ObjectGroups[gi]
		if data.Hidden(g.Properties) {
			continue
		}
		for oi := range g.Objects {
			o := &g.Objects[oi]
			if data.Hidden(o.Properties) {
				continue
			}
			if o.IsPath() {
				b.addPolygon(m, src, g, o)
				continue
			}
			b.addEvent(m, src, g, o)
		}
	}

	states := b.load(ctx, path)
	n := m.ApplyStates(states)
	b.log.Info("地圖建立完成",
		zap.String("map", path),
		zap.Int("events", m.Len()),
		zap.Int("polygons", len(m.Polygons())),
		zap.Int("states", n))
	return m, nil
}

func (b *Builder) addEvent(m *world.Map, src *data.MapSource, g *data.ObjectGroup, o *data.Object) {
	r := src.Bounds(o)
	ev := entity.New(o.Name, r.X, r.Y, r.W, r.H)
	if o.Type != "" {
		t, err := entity.ParseEventType(o.Type)
		if err != nil {
			b.log.Warn("未知的事件類型", zap.String("event", o.Name), zap.Error(err))
		}
		ev.Type = t
	}
	b.Factory.ParseProps(ev, g.Properties)
	b.Factory.ParseProps(ev, o.Properties)
	if ev.Visible && ev.Z == 0 {
		ev.Z = .1
	}
	m.Insert(ev)
}

func (b *Builder) addPolygon(m *world.Map, src *data.MapSource, g *data.ObjectGroup, o *data.Object) {
	path, err := src.Path(o)
	if err != nil {
		b.log.Warn("忽略無效的多邊形", zap.String("polygon", o.Name), zap.Error(err))
		return
	}
	p := entity.NewPolygonObject(path)
	b.Factory.ParsePolygonProps(p, g.Properties)
	b.Factory.ParsePolygonProps(p, o.Properties)
	m.AddPolygon(p)
}

func (b *Builder) load(ctx context.Context, path string) state.States {
	if b.Store == nil {
		return nil
	}
	key := b.StateKey(path)
	states, err := b.Store.Load(ctx, key)
	if err != nil {
		b.log.Warn("讀取地圖狀態失敗，使用預設值", zap.String("key", key), zap.Error(err))
		return nil
	}
	return states
}

// save writes states under the key of path. Failures are logged only.
func (b *Builder) save(ctx context.Context, path string, states state.States) {
	if b.Store == nil {
		return
	}
	key := b.StateKey(path)
	if err := b.Store.Save(ctx, key, states); err != nil {
		b.log.Error("儲存地圖狀態失敗", zap.String("key", key), zap.Error(err))
	}
}
