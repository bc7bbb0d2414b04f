package movement

// Handler is a movement behavior. Every frame the dispatch loop calls
// TryMove, which stages at most one offer on the movable. If the offer is
// rejected by collision the loop calls MoveBlocked so the handler can roll
// back whatever progress it booked for that offer.
type Handler interface {
	TryMove(m Movable, dt float64, t Trigger)
	MoveBlocked(m Movable)
	// Reset restores the initial state so the handler can run again.
	Reset()
	// Freeze is called when the world pauses. Held or pressed state must be
	// dropped.
	Freeze()
	Finished() bool
}

// Freer is implemented by pooled handlers. Free returns the instance to its
// pool; the caller must not use it afterwards.
type Freer interface {
	Free()
}

func free(h Handler) {
	if f, ok := h.(Freer); ok {
		f.Free()
	}
}

// base carries the finished flag and the default no-op hooks.
type base struct {
	finished bool
}

func (b *base) Finished() bool        { return b.finished }
func (b *base) Reset()                { b.finished = false }
func (b *base) Freeze()               {}
func (b *base) MoveBlocked(m Movable) { m.Stop() }

// Null keeps the movable idle.
type Null struct {
	base
}

var nullHandler = &Null{}

// Idle returns the shared idle handler installed when a movable has none.
func Idle() Handler { return nullHandler }

func (n *Null) TryMove(m Movable, _ float64, _ Trigger) { m.Stop() }

// Reset is a no-op so the shared instance never changes.
func (n *Null) Reset() {}
