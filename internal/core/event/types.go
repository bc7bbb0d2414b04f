package event

// MapChangeRequested asks the map transition to replace the active map.
type MapChangeRequested struct {
	Path string
}

// MapChanged is emitted after a new map became active.
type MapChanged struct {
	From, To string
}

// CustomEventFired is emitted when a custom trigger was consumed.
type CustomEventFired struct {
	EventID   int
	TriggerID int
}
