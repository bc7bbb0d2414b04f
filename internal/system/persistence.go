package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/rpgcore/internal/core/event"
	coresys "github.com/l1jgo/rpgcore/internal/core/system"
	"github.com/l1jgo/rpgcore/internal/mapload"
	"github.com/l1jgo/rpgcore/internal/world"
)

// PersistenceSystem periodically stores the state of the active map when
// one of its event states changed. Phase 4 (Persist).
type PersistenceSystem struct {
	world     *world.State
	loader    mapload.Loader
	log       *zap.Logger
	tickCount int
	interval  int // auto-save every N ticks, 0 disables

	saved     *world.Map
	lastCount int
}

func NewPersistenceSystem(ws *world.State, loader mapload.Loader, bus *event.Bus, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	s := &PersistenceSystem{
		world:    ws,
		loader:   loader,
		log:      log,
		interval: intervalTicks,
	}
	if bus != nil {
		event.Subscribe(bus, func(event.MapChanged) { s.rebase() })
	}
	return s
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.saveIfDirty()
}

// rebase takes the active map's counters as the saved baseline, so a freshly
// loaded map is not written back unchanged.
func (s *PersistenceSystem) rebase() {
	m := s.world.Current()
	s.saved = m
	s.lastCount = 0
	if m != nil {
		s.lastCount = m.ChangeCount()
	}
	s.tickCount = 0
}

func (s *PersistenceSystem) saveIfDirty() {
	m := s.world.Current()
	if m == nil {
		return
	}
	if m != s.saved {
		s.saved, s.lastCount = m, -1
	}
	count := m.ChangeCount()
	if count == s.lastCount {
		return
	}
	s.lastCount = count
	s.loader.StoreMapState(m, false)
	s.log.Debug("自動存檔", zap.String("map", m.Path), zap.Int("changes", count))
}

// SaveNow stores the active map immediately, ignoring the change counters.
// Called for graceful shutdown.
func (s *PersistenceSystem) SaveNow() {
	m := s.world.Current()
	if m == nil {
		return
	}
	s.loader.StoreMapState(m, false)
	s.saved, s.lastCount = m, m.ChangeCount()
	s.log.Info("地圖狀態已儲存", zap.String("map", m.Path))
}
