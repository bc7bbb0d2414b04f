package entity

import (
	"math"

	"github.com/l1jgo/rpgcore/internal/movement"
)

// Animation tracks which tile of a rows x cols animation sheet is shown.
// Row i holds the frames for direction index i.
type Animation struct {
	Rows, Cols int
	// Speed nil derives the frame rate from the actual movement.
	Speed *movement.Speed

	row, col      int
	timer         float64
	CycleFinished bool
}

func NewAnimation(rows, cols int) *Animation {
	return &Animation{Rows: max(rows, 1), Cols: max(cols, 1), timer: 1.001}
}

// Frame returns the current row and column.
func (a *Animation) Frame() (row, col int) { return a.row, a.col }

// Move advances the walk animation for a displacement.
func (a *Animation) Move(dx, dy, dt float64) {
	a.MoveDir(dx, dy, movement.FromMovementLimited(dx, dy, a.Rows), dt)
}

func (a *Animation) MoveDir(dx, dy float64, dir movement.Direction, dt float64) {
	var pps float64
	switch {
	case dt == 0:
	case a.Speed != nil:
		pps = a.Speed.PixelsPerSecond()
	case dx != 0 && dy != 0:
		pps = math.Hypot(dx, dy) / dt
	default:
		pps = (math.Abs(dx) + math.Abs(dy)) / dt
	}
	a.advance(pps, dir.Index(a.Rows), dt)
}

// Play advances row at the animation speed and reports whether a cycle
// completed. Row -1 plays all rows one after another.
func (a *Animation) Play(row int, dt float64) bool {
	speed := movement.SpeedNormal
	if a.Speed != nil {
		speed = *a.Speed
	}
	a.advance(speed.PixelsPerSecond(), row, dt)
	return a.CycleFinished
}

func (a *Animation) advance(pps float64, row int, dt float64) {
	if dt <= 0 {
		if row > -1 {
			a.row = row % a.Rows
		}
		return
	}
	a.CycleFinished = false
	a.timer += math.Sqrt(pps*.25) * dt
	if math.IsNaN(a.timer) {
		a.timer = 1.01
	}
	cols := float64(a.Cols)
	if row > -1 {
		for a.timer >= cols {
			a.timer -= cols
			a.CycleFinished = true
		}
		a.row = row % a.Rows
	} else {
		for a.timer >= cols {
			a.timer -= cols
			a.row = (a.row + 1) % a.Rows
			if a.row == 0 {
				a.CycleFinished = true
			}
		}
	}
	a.col = int(a.timer)
}

// Stop shows the resting frame of the current row.
func (a *Animation) Stop() {
	a.timer = 1.001
	a.col = 0
}
