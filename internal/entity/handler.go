package entity

import "github.com/l1jgo/rpgcore/internal/state"

// EventHandler receives the callbacks of an event or polygon. Callbacks
// returning true consume the current dispatch pass.
type EventHandler interface {
	OnTouch(trigger *EventObject) bool
	OnPush(trigger *EventObject) bool
	OnTimer(dt float64) bool
	OnCustomTrigger(triggerID int) bool
	OnLoad()
	OnStateChange(global *state.ObjectState)

	// State is the persistent state of the owner.
	State() *state.ObjectState
	SetState(s *state.ObjectState)

	Init()
	Dispose()
	// Owner returns the event or polygon the handler belongs to.
	Owner() any
}

// Adapter is an EventHandler that ignores every callback. Embed it to
// implement only the hooks you need.
type Adapter struct {
	state *state.ObjectState
	owner any
}

func NewAdapter(owner any) *Adapter {
	return &Adapter{state: state.New(), owner: owner}
}

func (a *Adapter) OnTouch(*EventObject) bool        { return false }
func (a *Adapter) OnPush(*EventObject) bool         { return false }
func (a *Adapter) OnTimer(float64) bool             { return false }
func (a *Adapter) OnCustomTrigger(int) bool         { return false }
func (a *Adapter) OnLoad()                          {}
func (a *Adapter) OnStateChange(*state.ObjectState) {}
func (a *Adapter) State() *state.ObjectState        { return a.state }
func (a *Adapter) SetState(s *state.ObjectState)    { a.state = s }
func (a *Adapter) Init()                            {}
func (a *Adapter) Dispose()                         { a.state = nil }
func (a *Adapter) Owner() any                       { return a.owner }
func (a *Adapter) SetOwner(owner any)               { a.owner = owner }

// Hook names a scripted callback.
type Hook int

const (
	HookTouch Hook = iota
	HookPush
	HookTimer
	HookCustomTrigger
	HookLoad
	HookStateChange
)

var hookNames = [...]string{"touch", "push", "timer", "customTrigger", "load", "stateChange"}

func (h Hook) String() string {
	if h < 0 || int(h) >= len(hookNames) {
		return "unknown"
	}
	return hookNames[h]
}

// ScriptHandler is an EventHandler assembled from script fragments.
type ScriptHandler interface {
	EventHandler
	// AddFragment registers code for hook. Fragments are joined in index
	// order, a second fragment with the same index replaces the first.
	AddFragment(hook Hook, index int, code string)
}

// Scripts creates script backed handlers for the factory.
type Scripts interface {
	NewHandler(owner any) ScriptHandler
	// Lookup resolves a named handler defined by loaded scripts.
	Lookup(name string, owner any) (ScriptHandler, error)
}
