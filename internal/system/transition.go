package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/rpgcore/internal/core/event"
	coresys "github.com/l1jgo/rpgcore/internal/core/system"
	"github.com/l1jgo/rpgcore/internal/mapload"
	"github.com/l1jgo/rpgcore/internal/world"
)

// MapTransitionSystem performs the map changes requested by scripts at the
// end of the frame. Phase 5 (Cleanup).
//
// The old map is stored before the new one is loaded, so changing to the
// same map reloads the state just written. If the load fails the old map
// stays active.
type MapTransitionSystem struct {
	world  *world.State
	loader mapload.Loader
	bus    *event.Bus
	log    *zap.Logger

	pending string
}

func NewMapTransitionSystem(ws *world.State, loader mapload.Loader, bus *event.Bus, log *zap.Logger) *MapTransitionSystem {
	s := &MapTransitionSystem{world: ws, loader: loader, bus: bus, log: log}
	event.Subscribe(bus, func(e event.MapChangeRequested) {
		// the last request of a frame wins
		s.pending = e.Path
	})
	return s
}

func (s *MapTransitionSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *MapTransitionSystem) Update(_ time.Duration) {
	if s.pending == "" {
		return
	}
	path := s.pending
	s.pending = ""
	s.Change(path)
}

// Change replaces the active map with the map at path.
func (s *MapTransitionSystem) Change(path string) (*world.Map, error) {
	old := s.world.Current()
	if old != nil {
		s.loader.StoreMapState(old, false)
	}
	s.loader.StartLoadMap(path)
	m, err := s.loader.EndLoadMap()
	if err != nil {
		s.log.Error("切換地圖失敗", zap.String("map", path), zap.Error(err))
		return nil, err
	}
	from := ""
	if old != nil {
		from = old.Path
		old.Dispose()
	}
	event.Emit(s.bus, event.MapChanged{From: from, To: path})
	s.log.Info("地圖切換完成",
		zap.String("from", from),
		zap.String("to", path),
		zap.Int("events", m.Len()))
	return m, nil
}
