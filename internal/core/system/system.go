package system

import "time"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseInput      Phase = iota // 0: action key and other input
	PhasePreUpdate               // 1: deliver last frame's bus events
	PhaseUpdate                  // 2: movement, collision, event callbacks
	PhasePostUpdate              // 3: queued scripts
	PhasePersist                 // 4: autosave
	PhaseCleanup                 // 5: map transitions
)

var phaseNames = [...]string{"input", "pre-update", "update", "post-update", "persist", "cleanup"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// System is one step of the frame.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
