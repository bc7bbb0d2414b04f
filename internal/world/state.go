package world

import (
	"math/rand/v2"
	"sync"

	"github.com/l1jgo/rpgcore/internal/entity"
	"github.com/l1jgo/rpgcore/internal/geom"
	"github.com/l1jgo/rpgcore/internal/movement"
	"github.com/l1jgo/rpgcore/internal/state"
)

// FirstGlobalID is the first id handed out to global events.
const FirstGlobalID = 1_000_000_000

// State is everything that outlives a single map: the registry of global
// events, the global ObjectState, the game tint and the shared RNG.
//
// Only the global id counter may be used from the map loader goroutine.
// Everything else belongs to the simulation goroutine.
type State struct {
	// Global is the game wide script state. Its change counter drives the
	// onStateChange hooks.
	Global *state.ObjectState

	idMu           sync.Mutex
	nextGlobalID   int
	reservedGlobal map[int]struct{}

	globals  map[string]*entity.EventObject
	order    []*entity.EventObject // registration order
	tint     movement.Color
	magnetic bool
	rng      *rand.Rand
	keys     *movement.KeyState
	current  *Map
}

// NewState creates the world state. seed 0 picks a random seed.
func NewState(seed uint64, magnetic bool) *State {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &State{
		Global:         state.New(),
		nextGlobalID:   FirstGlobalID,
		reservedGlobal: make(map[int]struct{}),
		globals:        make(map[string]*entity.EventObject),
		tint:           movement.White,
		magnetic:       magnetic,
		rng:            rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		keys:           movement.NewKeyState(),
	}
}

// --- movement.World ---

func (s *State) Tint() movement.Color      { return s.tint }
func (s *State) SetTint(c movement.Color)  { s.tint = c }
func (s *State) MagneticEnabled() bool     { return s.magnetic }
func (s *State) SetMagneticEnabled(v bool) { s.magnetic = v }
func (s *State) Rand() *rand.Rand          { return s.rng }
func (s *State) Input() movement.Input     { return s.keys }

// Keys is the key state behind Input. The host presses and releases keys
// here.
func (s *State) Keys() *movement.KeyState { return s.keys }

// FindPolygon looks the polygon up on the active map.
func (s *State) FindPolygon(name string) *geom.Polygon {
	if s.current == nil {
		return nil
	}
	return s.current.FindPolygon(name)
}

// Current returns the active map, nil between maps.
func (s *State) Current() *Map { return s.current }

// --- global ids ---

// reserveGlobalID marks id as taken by an authored global event.
func (s *State) reserveGlobalID(id int) {
	s.idMu.Lock()
	s.reservedGlobal[id] = struct{}{}
	s.idMu.Unlock()
}

// NextGlobalID hands out the next free global id.
func (s *State) NextGlobalID() int {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	for {
		if _, taken := s.reservedGlobal[s.nextGlobalID]; !taken {
			break
		}
		s.nextGlobalID++
	}
	id := s.nextGlobalID
	s.nextGlobalID++
	return id
}

func (s *State) globalCounter() int {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return s.nextGlobalID
}

// --- global registry ---

// GlobalEvent returns the registered global event with name.
func (s *State) GlobalEvent(name string) *entity.EventObject { return s.globals[name] }

// GlobalEvents returns the number of registered global events.
func (s *State) GlobalEvents() int { return len(s.globals) }

// Player returns the first registered player event.
func (s *State) Player() *entity.EventObject {
	for _, ev := range s.order {
		if ev.IsPlayer() {
			return ev
		}
	}
	return nil
}

// Activate makes m the active map. Freshly loaded global events are
// replaced by their registered instances, new ones are registered and
// initialized, and every other registered global event is carried over.
// Carried events follow the map's own events in registration order, and
// the boundary events are added last.
func (s *State) Activate(m *Map) {
	carried := make(map[string]*entity.EventObject, len(s.globals))
	for name, ev := range s.globals {
		carried[name] = ev
	}

	for _, ev := range m.Events() {
		if !ev.IsGlobal() {
			ev.Init()
			continue
		}
		if reg, ok := carried[ev.Name]; ok {
			delete(carried, ev.Name)
			reg.ClearCollision()
			if old := m.Insert(reg); old != nil {
				old.Dispose()
			}
			continue
		}
		ev.Init()
		s.globals[ev.Name] = ev
		s.order = append(s.order, ev)
		if ev.IsPlayer() {
			ev.ConsumesEvent = true
		}
	}
	for _, p := range m.Polygons() {
		if h := p.EventHandler(); h != nil {
			h.Init()
			h.OnLoad()
		}
	}
	for _, ev := range s.order {
		if _, ok := carried[ev.Name]; !ok {
			continue
		}
		ev.ClearCollision()
		m.Insert(ev)
	}
	m.AddBoundaries()
	s.current = m
}

// Deactivate forgets m if it is the active map.
func (s *State) Deactivate(m *Map) {
	if s.current == m {
		s.current = nil
	}
}

var _ movement.World = (*State)(nil)
