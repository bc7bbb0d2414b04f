package movement

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Speed is a movement speed class measured in pixels per second.
type Speed int

const (
	SpeedZero Speed = iota
	SpeedCrawl
	SpeedStroll
	SpeedXXXSlow
	SpeedXXSlow
	SpeedXSlow
	SpeedSlow
	SpeedNormal
	SpeedFast
	SpeedXFast
	SpeedXXFast
	SpeedXXXFast
	SpeedExtreme
	SpeedSound
	SpeedLight
	SpeedRidiculous
)

var speedTable = [...]struct {
	name string
	pps  float64
}{
	{"ZERO", 0},
	{"CRAWL", 12},
	{"STROLL", 20},
	{"XXX_SLOW", 30},
	{"XX_SLOW", 45},
	{"X_SLOW", 68},
	{"SLOW", 100},
	{"NORMAL", 140},
	{"FAST", 190},
	{"X_FAST", 250},
	{"XX_FAST", 320},
	{"XXX_FAST", 420},
	{"EXTREME_SPEED", 600},
	{"SOUND_SPEED", 850},
	{"LIGHT_SPEED", 1200},
	{"RIDICULOUS_SPEED", 2000},
}

// PixelsPerSecond returns the speed in map units per second.
func (s Speed) PixelsPerSecond() float64 {
	if s < 0 || int(s) >= len(speedTable) {
		return 0
	}
	return speedTable[s].pps
}

// Stretch returns the distance covered in dt seconds.
func (s Speed) Stretch(dt float64) float64 {
	return s.PixelsPerSecond() * dt
}

// StretchJump is the jump animation stretch: never slower than 120 px/s.
func (s Speed) StretchJump(dt float64) float64 {
	return math.Max(s.PixelsPerSecond()*1.4, 120) * dt
}

func (s Speed) String() string {
	if s < 0 || int(s) >= len(speedTable) {
		return fmt.Sprintf("Speed(%d)", int(s))
	}
	return speedTable[s].name
}

// ParseSpeed accepts either a numeric class index (strings shorter than three
// characters) or a class name such as "NORMAL" or "S07_NORMAL".
func ParseSpeed(s string) (Speed, error) {
	s = strings.TrimSpace(s)
	if len(s) < 3 {
		i, err := strconv.Atoi(s)
		if err != nil || i < 0 || i >= len(speedTable) {
			return SpeedZero, fmt.Errorf("invalid speed index %q", s)
		}
		return Speed(i), nil
	}
	name := strings.ToUpper(s)
	// "S07_NORMAL" style names carry the index as a prefix.
	if len(name) > 4 && name[0] == 'S' && name[3] == '_' {
		name = name[4:]
	}
	for i, v := range speedTable {
		if v.name == name {
			return Speed(i), nil
		}
	}
	return SpeedZero, fmt.Errorf("unknown speed %q", s)
}
