package movement

// Parallel runs several handlers in the same tick. A member that reports
// finished is dropped; Parallel finishes when no member is left.
//
// All members share the movable, so when more than one of them offers a
// move in the same tick the last offer wins.
type Parallel struct {
	base
	members []Handler
	running []Handler
}

func NewParallel(members ...Handler) *Parallel {
	p := &Parallel{members: members}
	p.running = append([]Handler(nil), members...)
	return p
}

// Add registers h as a permanent member.
func (p *Parallel) Add(h Handler) {
	p.members = append(p.members, h)
	p.running = append(p.running, h)
	p.finished = false
}

func (p *Parallel) TryMove(m Movable, dt float64, t Trigger) {
	if len(p.running) == 0 {
		p.finished = true
		return
	}
	kept := p.running[:0]
	for _, h := range p.running {
		h.TryMove(m, dt, t)
		if !h.Finished() {
			kept = append(kept, h)
		}
	}
	for i := len(kept); i < len(p.running); i++ {
		p.running[i] = nil
	}
	p.running = kept
	if len(p.running) == 0 {
		p.finished = true
	}
}

func (p *Parallel) MoveBlocked(m Movable) {
	for _, h := range p.running {
		h.MoveBlocked(m)
	}
}

func (p *Parallel) Freeze() {
	for _, h := range p.running {
		h.Freeze()
	}
}

func (p *Parallel) Reset() {
	p.base.Reset()
	p.running = p.running[:0]
	for _, h := range p.members {
		h.Reset()
		p.running = append(p.running, h)
	}
}

// Free returns pooled members to their pools.
func (p *Parallel) Free() {
	for _, h := range p.members {
		free(h)
	}
	p.members = nil
	p.running = nil
}
