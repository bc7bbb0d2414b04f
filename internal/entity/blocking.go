package entity

import (
	"fmt"
	"strings"
)

// BlockingBehavior classifies how solid an object is. Two objects block each
// other when the sum of their weights exceeds maxWeight.
type BlockingBehavior int

const (
	BlockNone BlockingBehavior = iota
	BlockFlyingHigh
	BlockFlyingLow
	BlockBarrierLow
	BlockBarrierHigh
	BlockPassesAllBarriers
	BlockPassesLowBarrier
	BlockPassesNoBarrier
	BlockBuildingLow
	BlockBuildingHigh
	BlockAll
)

const maxWeight = 99

var blockingTable = [...]struct {
	name   string
	weight int
}{
	{"NONE", 0},
	{"FLYING_HIGH", 5},
	{"FLYING_LOW", 15},
	{"BARRIER_LOW", 35},
	{"BARRIER_HIGH", 45},
	{"PASSES_ALL_BARRIERS", 50},
	{"PASSES_LOW_BARRIER", 60},
	{"PASSES_NO_BARRIER", 70},
	{"BUILDING_LOW", 80},
	{"BUILDING_HIGH", 90},
	{"ALL", 99},
}

func (b BlockingBehavior) valid() bool { return b >= 0 && int(b) < len(blockingTable) }

// Weight returns the blocking weight in [0, 99].
func (b BlockingBehavior) Weight() int {
	if !b.valid() {
		return 0
	}
	return blockingTable[b].weight
}

// Blocks is symmetric: a.Blocks(b) == b.Blocks(a).
func (b BlockingBehavior) Blocks(o BlockingBehavior) bool {
	return b.Weight()+o.Weight() > maxWeight
}

func (b BlockingBehavior) String() string {
	if !b.valid() {
		return fmt.Sprintf("BlockingBehavior(%d)", int(b))
	}
	return blockingTable[b].name
}

// ParseBlocking accepts "true" (BUILDING_LOW), "false" (FLYING_HIGH) or a
// behavior name in any case.
func ParseBlocking(s string) (BlockingBehavior, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch name {
	case "TRUE":
		return BlockBuildingLow, nil
	case "FALSE":
		return BlockFlyingHigh, nil
	}
	for i, e := range blockingTable {
		if e.name == name {
			return BlockingBehavior(i), nil
		}
	}
	return BlockBuildingLow, fmt.Errorf("unknown blocking behavior %q", s)
}

// EventType decides whether an event survives map changes.
type EventType int

const (
	TypeLocal EventType = iota
	TypeGlobal
	TypePlayer
)

func (t EventType) String() string {
	switch t {
	case TypeGlobal:
		return "GLOBAL"
	case TypePlayer:
		return "PLAYER"
	}
	return "LOCAL"
}

// ParseEventType falls back to LOCAL for empty or unknown names.
func ParseEventType(s string) (EventType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "LOCAL":
		return TypeLocal, nil
	case "GLOBAL":
		return TypeGlobal, nil
	case "PLAYER":
		return TypePlayer, nil
	}
	return TypeLocal, fmt.Errorf("unknown event type %q", s)
}
