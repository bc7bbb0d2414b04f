package movement

// maxSegmentRecursion bounds how many segments may complete in a single
// tick, so zero-length segments cannot stall or spin a frame.
const maxSegmentRecursion = 3

// Combined runs a queue of segments one at a time.
//
// With Loop set, completed segments are reset and re-queued so the sequence
// repeats forever. With ResetPosition set, the movable is first moved back to
// the position it had when the sequence started, at the top of every loop.
type Combined struct {
	base

	Loop          bool
	ResetPosition bool

	queue       []*Segment
	resetMoves  []*Segment
	last        *Segment
	initialized bool
}

func NewCombined(loop, resetPosition bool) *Combined {
	return &Combined{Loop: loop, ResetPosition: resetPosition}
}

// AddSegment appends seg to the permanent sequence.
func (c *Combined) AddSegment(seg *Segment) *Segment {
	c.queue = append(c.queue, seg)
	c.resetMoves = append(c.resetMoves, seg)
	return seg
}

// AddToExecute appends h to run until it finished once.
func (c *Combined) AddToExecute(h Handler) *Segment { return c.AddSegment(Once(h)) }

func (c *Combined) AddForTimes(h Handler, times int) *Segment {
	return c.AddSegment(Times(h, times))
}

func (c *Combined) AddForSeconds(h Handler, seconds float64) *Segment {
	return c.AddSegment(For(h, seconds))
}

func (c *Combined) AddForRandom(h Handler, min, max float64) *Segment {
	return c.AddSegment(ForRandom(h, min, max))
}

// ExecOnce puts seg at the head of the queue. It runs before everything
// else, is never re-queued by Loop and is freed once complete.
func (c *Combined) ExecOnce(seg *Segment) {
	seg.forceRemove = true
	seg.returnToPool = true
	c.queue = append(c.queue, nil)
	copy(c.queue[1:], c.queue)
	c.queue[0] = seg
	if c.finished {
		c.finished = false
	}
}

// Len returns the number of queued segments.
func (c *Combined) Len() int { return len(c.queue) }

func (c *Combined) TryMove(m Movable, dt float64, t Trigger) {
	c.tryMove(m, dt, t, maxSegmentRecursion)
}

func (c *Combined) tryMove(m Movable, dt float64, t Trigger, recurse int) {
	if len(c.queue) == 0 {
		if m != nil {
			m.Stop()
		}
		c.last = nil
		c.finished = true
		return
	}
	if !c.initialized {
		c.initialized = true
		if c.ResetPosition && m != nil {
			c.AddToExecute(SetXYPooled(m.X(), m.Y()))
		}
	}
	c.last = c.queue[0]
	if c.last.Advance(m, dt, t) {
		c.nextSegment()
		if recurse > 0 {
			c.tryMove(m, dt, t, recurse-1)
		}
	}
}

func (c *Combined) nextSegment() {
	if len(c.queue) == 0 {
		return
	}
	cur := c.queue[0]
	c.queue[0] = nil
	c.queue = c.queue[1:]
	if c.Loop && !cur.forceRemove {
		cur.Reset()
		c.queue = append(c.queue, cur)
	} else if cur.returnToPool {
		if c.last == cur {
			c.last = nil
		}
		cur.Free()
	}
}

func (c *Combined) MoveBlocked(m Movable) {
	if c.last != nil {
		c.last.MoveBlocked(m)
	}
}

func (c *Combined) Freeze() {
	if c.last != nil {
		c.last.Freeze()
	}
}

// Reset rebuilds the queue from the permanent sequence. Pending one-shot
// segments are dropped.
func (c *Combined) Reset() {
	c.base.Reset()
	for _, seg := range c.queue {
		if seg.forceRemove && seg.returnToPool {
			seg.Free()
		}
	}
	c.queue = c.queue[:0]
	for _, seg := range c.resetMoves {
		seg.Reset()
		c.queue = append(c.queue, seg)
	}
	c.last = nil
}

// Clear frees every segment of the permanent sequence and empties the queue.
func (c *Combined) Clear() {
	for _, seg := range c.queue {
		if seg.forceRemove && seg.returnToPool {
			seg.Free()
		}
	}
	for _, seg := range c.resetMoves {
		seg.Free()
	}
	c.resetMoves = nil
	c.queue = nil
	c.last = nil
}
