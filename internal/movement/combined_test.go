package movement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recorder(log *string, s string) *ExecuteMethod {
	return NewExecuteMethod(func(Movable) { *log += s }, nil)
}

func TestDistance_BlockedUnitIsRolledBack(t *testing.T) {
	b := NewBody(0, 0, 10, 10)
	b.SetMoveSpeed(SpeedSlow)
	d := NewDistance(10, E)
	c := NewCombined(false, false)
	c.AddToExecute(d)

	for tick := 1; tick <= 7; tick++ {
		c.TryMove(b, dt, nil)
		if tick == 7 {
			b.CancelMove()
			c.MoveBlocked(b)
			continue
		}
		b.CommitMove()
	}
	assert.InDelta(t, 6.0, d.Covered(), 1e-9)
	assert.InDelta(t, 6.0, b.X(), 1e-9)
	assert.False(t, c.Finished())

	ticks := runUntilFinished(b, c, nil, 100)
	assert.Equal(t, 5, ticks, "four more units, then one tick to notice")
	assert.InDelta(t, 10.0, b.X(), 1e-9)
}

func TestCombined_LoopCyclesForever(t *testing.T) {
	var log string
	c := NewCombined(true, false)
	c.AddToExecute(recorder(&log, "A"))
	c.AddToExecute(recorder(&log, "B"))
	b := NewBody(0, 0, 1, 1)

	for i := 0; i < 5; i++ {
		c.TryMove(b, dt, nil)
		assert.False(t, c.Finished())
	}
	require.Len(t, log, 20, "four segments per tick within the recursion bound")
	for i := 0; i < len(log); i++ {
		want := "A"
		if i%2 == 1 {
			want = "B"
		}
		assert.Equal(t, want, log[i:i+1])
	}
	assert.Equal(t, 2, c.Len())
}

func TestCombined_NoLoopFinishesOnce(t *testing.T) {
	var log string
	c := NewCombined(false, false)
	c.AddToExecute(recorder(&log, "A"))
	c.AddToExecute(recorder(&log, "B"))
	b := NewBody(0, 0, 1, 1)

	c.TryMove(b, dt, nil)
	assert.True(t, c.Finished())
	c.TryMove(b, dt, nil)
	assert.Equal(t, "AB", log)

	c.Reset()
	assert.False(t, c.Finished())
	c.TryMove(b, dt, nil)
	assert.Equal(t, "ABAB", log)
}

func TestCombined_ExecOnceRunsFirst(t *testing.T) {
	var log string
	c := NewCombined(true, false)
	c.AddToExecute(recorder(&log, "A"))
	c.ExecOnce(Once(recorder(&log, "X")))
	b := NewBody(0, 0, 1, 1)

	c.TryMove(b, dt, nil)
	assert.Equal(t, "XAAA", log)
	assert.Equal(t, 1, c.Len(), "the interrupt is not re-queued")
}

func TestCombined_ResetPosition(t *testing.T) {
	b := NewBody(0, 0, 1, 1)
	b.SetMoveSpeed(SpeedSlow)
	c := NewCombined(true, true)
	c.AddToExecute(NewDistance(3, E))

	var xs []float64
	for i := 0; i < 8; i++ {
		c.TryMove(b, dt, nil)
		b.CommitMove()
		xs = append(xs, b.X())
	}
	assert.InDeltaSlice(t, []float64{1, 2, 3, 0, 1, 2, 3, 0}, xs, 1e-9)
}

func TestSegment_ForSeconds(t *testing.T) {
	seg := For(Idle(), 1)
	b := NewBody(0, 0, 1, 1)

	done := 0
	for i := 1; i <= 10; i++ {
		if seg.Advance(b, .25, nil) {
			done = i
			break
		}
	}
	assert.Equal(t, 4, done)
}

func TestSegment_Times(t *testing.T) {
	var log string
	seg := Times(recorder(&log, "A"), 3)
	b := NewBody(0, 0, 1, 1)

	assert.False(t, seg.Advance(b, dt, nil))
	assert.False(t, seg.Advance(b, dt, nil))
	assert.True(t, seg.Advance(b, dt, nil))
	assert.Equal(t, "AAA", log)
}

func TestSegment_FreeReturnsToPool(t *testing.T) {
	seg := Once(SetXYPooled(1, 2))
	segs, setxys := segmentPool.Len(), setXYPool.Len()

	seg.Free()
	assert.Equal(t, segs+1, segmentPool.Len())
	assert.Equal(t, setxys+1, setXYPool.Len())
}

func TestParsedSegmentsStayOffThePool(t *testing.T) {
	segs := segmentPool.Len()
	for _, expr := range []string{
		"distance(10, E)",
		"sleep(1)",
		"random(64)",
		"ellipse(0, 0, 20, 10)",
		"rectangle(0, 0, 20, 10)",
	} {
		seg, err := ParseSegment(expr)
		require.NoError(t, err, expr)
		seg.Free()
	}
	assert.Equal(t, segs, segmentPool.Len(), "parsing neither takes from nor returns to the pool")

	c := NewCombined(false, false)
	c.AddSegment(NewOnce(NewDistance(1, E)))
	c.AddToExecute(NewDistance(1, W))
	idle := segmentPool.Len()
	c.Clear()
	assert.Equal(t, idle+1, segmentPool.Len(), "only the pooled segment is recycled")
}

func TestParallel(t *testing.T) {
	calls := 0
	b := NewBody(0, 0, 1, 1)
	b.SetMoveSpeed(SpeedSlow)
	p := NewParallel(NewDistance(3, E), NewExecuteMethod(func(Movable) { calls++ }, nil))

	ticks := runUntilFinished(b, p, nil, 100)
	assert.Equal(t, 4, ticks)
	assert.Equal(t, 1, calls, "finished members are dropped")
	assert.InDelta(t, 3.0, b.X(), 1e-9)

	p.Reset()
	assert.False(t, p.Finished())
	p.TryMove(b, dt, nil)
	assert.Equal(t, 2, calls)
}
