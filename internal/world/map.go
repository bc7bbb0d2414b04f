package world

import (
	"fmt"
	"slices"

	"github.com/l1jgo/rpgcore/internal/entity"
	"github.com/l1jgo/rpgcore/internal/geom"
	"github.com/l1jgo/rpgcore/internal/state"
)

// boundaryDepth is how far the boundary events extend outside the map.
const boundaryDepth = 1000

// Map holds the events and polygons of one loaded map. Events keep their
// insertion order, which is also the order the trigger processes them in.
type Map struct {
	Path          string
	Width, Height float64

	world *State

	events     []*entity.EventObject
	named      map[string]*entity.EventObject
	boundaries []*entity.EventObject

	polygons   []*entity.PolygonObject
	polyByName map[string]*entity.PolygonObject

	nextID   int
	reserved map[int]struct{}
	disposed bool
}

func NewMap(path string, width, height float64, w *State) *Map {
	return &Map{
		Path:       path,
		Width:      width,
		Height:     height,
		world:      w,
		named:      make(map[string]*entity.EventObject),
		polyByName: make(map[string]*entity.PolygonObject),
		reserved:   make(map[int]struct{}),
	}
}

// World returns the world state the map belongs to.
func (m *Map) World() *State { return m.world }

// Events returns the events in processing order. The slice must not be
// modified by the caller.
func (m *Map) Events() []*entity.EventObject { return m.events }

func (m *Map) Len() int { return len(m.events) }

// Event returns the named event.
func (m *Map) Event(name string) *entity.EventObject { return m.named[name] }

// EventByID returns the event with id, nil if none.
func (m *Map) EventByID(id int) *entity.EventObject {
	for _, ev := range m.events {
		if ev.ID == id {
			return ev
		}
	}
	return nil
}

// Insert adds ev and assigns its id. A named event replaces an earlier one
// with the same name at the same position; the replaced event is returned.
// Inserting the same event twice panics.
func (m *Map) Insert(ev *entity.EventObject) *entity.EventObject {
	if slices.Contains(m.events, ev) {
		panic(fmt.Sprintf("world: %s inserted twice", ev))
	}
	m.computeID(ev)
	if ev.Name != "" {
		if old, ok := m.named[ev.Name]; ok {
			m.named[ev.Name] = ev
			m.events[slices.Index(m.events, old)] = ev
			return old
		}
		m.named[ev.Name] = ev
	}
	m.events = append(m.events, ev)
	return nil
}

// Remove takes ev off the map without disposing it.
func (m *Map) Remove(ev *entity.EventObject) bool {
	i := slices.Index(m.events, ev)
	if i < 0 {
		return false
	}
	m.events = slices.Delete(m.events, i, i+1)
	if ev.Name != "" && m.named[ev.Name] == ev {
		delete(m.named, ev.Name)
	}
	return true
}

func (m *Map) computeID(ev *entity.EventObject) {
	global := ev.IsGlobal() && m.world != nil
	if ev.ID == entity.Unassigned {
		m.assignNext(ev, global)
		return
	}
	counter := m.nextID
	if global {
		counter = m.world.globalCounter()
	}
	if ev.ID < counter {
		for _, other := range m.events {
			if other.ID == ev.ID {
				m.assignNext(other, other.IsGlobal() && m.world != nil)
				return
			}
		}
	}
	if global {
		m.world.reserveGlobalID(ev.ID)
	} else {
		m.reserved[ev.ID] = struct{}{}
	}
}

func (m *Map) assignNext(ev *entity.EventObject, global bool) {
	if global {
		ev.ID = m.world.NextGlobalID()
		return
	}
	for {
		if _, taken := m.reserved[m.nextID]; !taken {
			break
		}
		m.nextID++
	}
	ev.ID = m.nextID
	m.nextID++
}

// AddBoundaries surrounds the map with four events of weight ALL so nothing
// leaves it. Calling it again is a no-op.
func (m *Map) AddBoundaries() {
	if len(m.boundaries) > 0 {
		return
	}
	const d = boundaryDepth
	w, h := m.Width, m.Height
	rects := [...]geom.Rect{
		{X: -d, Y: -d, W: w + 2*d, H: d},
		{X: -d, Y: -d, W: d, H: h + 2*d},
		{X: -d, Y: h, W: w + 2*d, H: d},
		{X: w, Y: -d, W: d, H: h + 2*d},
	}
	for _, r := range rects {
		ev := entity.New("", r.X, r.Y, r.W, r.H)
		ev.Blocking = entity.BlockAll
		m.Insert(ev)
		m.boundaries = append(m.boundaries, ev)
	}
}

// IsBoundary reports whether ev is one of the map boundary events.
func (m *Map) IsBoundary(ev *entity.EventObject) bool {
	return slices.Contains(m.boundaries, ev)
}

// --- polygons ---

func (m *Map) AddPolygon(p *entity.PolygonObject) {
	m.polygons = append(m.polygons, p)
	if p.Name != "" {
		m.polyByName[p.Name] = p
	}
}

func (m *Map) Polygons() []*entity.PolygonObject { return m.polygons }

func (m *Map) PolygonObject(name string) *entity.PolygonObject { return m.polyByName[name] }

// FindPolygon returns the path of the named polygon.
func (m *Map) FindPolygon(name string) *geom.Polygon {
	if p := m.polyByName[name]; p != nil {
		return p.Polygon
	}
	return nil
}

// --- persisted state ---

// CollectStates gathers the handler states of the local events by id.
// Global events keep their state in memory and are skipped.
func (m *Map) CollectStates() state.States {
	out := make(state.States)
	for _, ev := range m.events {
		if ev.IsGlobal() || ev.ID < 0 {
			continue
		}
		if h := ev.EventHandler(); h != nil && h.State() != nil {
			out[ev.ID] = h.State()
		}
	}
	return out
}

// ApplyStates hands stored states to the handlers of the matching local
// events. It must run before the events are initialized.
func (m *Map) ApplyStates(states state.States) int {
	n := 0
	for _, ev := range m.events {
		if ev.IsGlobal() {
			continue
		}
		st, ok := states[ev.ID]
		if !ok {
			continue
		}
		if h := ev.EventHandler(); h != nil {
			h.SetState(st)
			n++
		}
	}
	return n
}

// ChangeCount sums the change counters of the local handler states. The
// value only grows while the map is active.
func (m *Map) ChangeCount() int {
	n := 0
	for _, ev := range m.events {
		if ev.IsGlobal() {
			continue
		}
		if h := ev.EventHandler(); h != nil && h.State() != nil {
			n += h.State().ChangeCount()
		}
	}
	return n
}

// Dispose releases every local event and polygon. Global events are only
// detached, they live on in the world registry.
func (m *Map) Dispose() {
	if m.disposed {
		return
	}
	m.disposed = true
	for _, ev := range m.events {
		if ev.IsGlobal() && m.world != nil && m.world.GlobalEvent(ev.Name) == ev {
			ev.ClearCollision()
			continue
		}
		ev.Dispose()
	}
	for _, p := range m.polygons {
		p.Dispose()
	}
	m.events = nil
	m.named = nil
	m.boundaries = nil
	m.polygons = nil
	m.polyByName = nil
	if m.world != nil {
		m.world.Deactivate(m)
	}
}

func (m *Map) Disposed() bool { return m.disposed }
