package movement

import (
	"fmt"
	"strings"
	"sync"
)

// Key identifies a key of the host's keyboard. KeyNone is never pressed.
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyW
	KeyA
	KeyS
	KeyD
	KeySpace
	KeyEnter
	KeyCtrl
	KeyAlt
)

var keyNames = map[string]Key{
	"UP":    KeyUp,
	"DOWN":  KeyDown,
	"LEFT":  KeyLeft,
	"RIGHT": KeyRight,
	"W":     KeyW,
	"A":     KeyA,
	"S":     KeyS,
	"D":     KeyD,
	"SPACE": KeySpace,
	"ENTER": KeyEnter,
	"CTRL":  KeyCtrl,
	"ALT":   KeyAlt,
}

// ParseKey resolves a key name such as "UP" or "space".
func ParseKey(s string) (Key, error) {
	if k, ok := keyNames[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return KeyNone, fmt.Errorf("unknown key %q", s)
}

// Input is the key state polled by the keyboard handlers and the action
// key check of the dispatch loop.
type Input interface {
	Pressed(k Key) bool
}

// ActionKeys trigger push hooks.
var ActionKeys = []Key{KeySpace, KeyEnter}

// ActionPressed reports whether one of the action keys is down.
func ActionPressed(in Input) bool {
	if in == nil {
		return false
	}
	for _, k := range ActionKeys {
		if in.Pressed(k) {
			return true
		}
	}
	return false
}

// KeyState is an Input the host drives with Press and Release. It may be
// fed from any goroutine.
type KeyState struct {
	mu   sync.RWMutex
	down map[Key]bool
}

func NewKeyState() *KeyState {
	return &KeyState{down: make(map[Key]bool)}
}

func (s *KeyState) Press(k Key) {
	if k == KeyNone {
		return
	}
	s.mu.Lock()
	s.down[k] = true
	s.mu.Unlock()
}

func (s *KeyState) Release(k Key) {
	s.mu.Lock()
	delete(s.down, k)
	s.mu.Unlock()
}

// ReleaseAll lifts every key.
func (s *KeyState) ReleaseAll() {
	s.mu.Lock()
	clear(s.down)
	s.mu.Unlock()
}

func (s *KeyState) Pressed(k Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.down[k]
}

// MovementKeys maps the four walking directions to keys. Several keys may
// share a direction.
type MovementKeys struct {
	Up, Down, Left, Right []Key
}

// DefaultMovementKeys binds the arrow keys and W, A, S, D.
func DefaultMovementKeys() *MovementKeys {
	return &MovementKeys{
		Up:    []Key{KeyUp, KeyW},
		Down:  []Key{KeyDown, KeyS},
		Left:  []Key{KeyLeft, KeyA},
		Right: []Key{KeyRight, KeyD},
	}
}

// firstPressed returns the first pressed key of keys, KeyNone if none is down.
func firstPressed(in Input, keys []Key) Key {
	for _, k := range keys {
		if in.Pressed(k) {
			return k
		}
	}
	return KeyNone
}

// otherPressed reports whether any bound key but k is down.
func (mk *MovementKeys) otherPressed(in Input, k Key) bool {
	for _, keys := range [][]Key{mk.Up, mk.Down, mk.Left, mk.Right} {
		for _, o := range keys {
			if o != k && in.Pressed(o) {
				return true
			}
		}
	}
	return false
}

// Ways selects which directions a Keyboard handler walks.
type Ways int

const (
	TwoWayNS Ways = iota
	TwoWayWE
	FourWay
	EightWay
)

// ParseWays accepts "ns", "we", "4" or "8".
func ParseWays(s string) (Ways, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ns", "2ns":
		return TwoWayNS, nil
	case "we", "2we":
		return TwoWayWE, nil
	case "4":
		return FourWay, nil
	case "8":
		return EightWay, nil
	}
	return 0, fmt.Errorf("unknown key layout %q", s)
}

// Keyboard walks the movable while movement keys are down. A direction,
// once picked, is kept for as long as its key stays pressed. With EightWay
// a second key held at pick time turns the walk diagonal, and pressing any
// other movement key drops the held direction so the next frame picks
// again. Ctrl or Alt stops the walk. Keyboard never finishes.
type Keyboard struct {
	base
	Ways Ways
	Keys *MovementKeys

	held  Key
	held2 Key
	dir   Direction
}

// NewKeyboard binds keys, or the default keys when keys is nil.
func NewKeyboard(ways Ways, keys *MovementKeys) *Keyboard {
	if keys == nil {
		keys = DefaultMovementKeys()
	}
	return &Keyboard{Ways: ways, Keys: keys}
}

func inputOf(t Trigger) Input {
	if t == nil || t.World() == nil {
		return nil
	}
	return t.World().Input()
}

func (k *Keyboard) TryMove(m Movable, dt float64, t Trigger) {
	in := inputOf(t)
	if in == nil {
		m.Stop()
		return
	}
	if k.held != KeyNone {
		switch {
		case !in.Pressed(k.held):
			k.held = KeyNone
		case k.Ways != EightWay:
			// only the held key counts
		case k.held2 != KeyNone:
			if !in.Pressed(k.held2) {
				k.held = KeyNone
			}
		case k.Keys.otherPressed(in, k.held):
			k.held = KeyNone
		}
		m.OfferMoveDir(k.dir, dt)
		return
	}
	k.held2 = KeyNone
	if in.Pressed(KeyCtrl) || in.Pressed(KeyAlt) {
		m.Stop()
		return
	}
	if !k.pick(in) {
		m.Stop()
		return
	}
	m.OfferMoveDir(k.dir, dt)
}

// pick chooses the direction from the pressed keys. Up wins over down and
// left over right.
func (k *Keyboard) pick(in Input) bool {
	type choice struct {
		keys []Key
		dir  Direction
	}
	var order []choice
	switch k.Ways {
	case TwoWayNS:
		order = []choice{{k.Keys.Up, N}, {k.Keys.Down, S}}
	case TwoWayWE:
		order = []choice{{k.Keys.Left, W}, {k.Keys.Right, E}}
	default:
		order = []choice{{k.Keys.Up, N}, {k.Keys.Down, S}, {k.Keys.Left, W}, {k.Keys.Right, E}}
	}
	for _, c := range order {
		key := firstPressed(in, c.keys)
		if key == KeyNone {
			continue
		}
		k.held, k.dir = key, c.dir
		if k.Ways == EightWay && (c.dir == N || c.dir == S) {
			k.diagonal(in)
		}
		return true
	}
	return false
}

func (k *Keyboard) diagonal(in Input) {
	west, east := NW, NE
	if k.dir == S {
		west, east = SW, SE
	}
	if k.held2 = firstPressed(in, k.Keys.Left); k.held2 != KeyNone {
		k.dir = west
		return
	}
	if k.held2 = firstPressed(in, k.Keys.Right); k.held2 != KeyNone {
		k.dir = east
	}
}

// Freeze forgets the held direction; a key still down after the pause is
// picked up again like a fresh press.
func (k *Keyboard) Freeze() {
	k.held = KeyNone
	k.held2 = KeyNone
}

func (k *Keyboard) Reset() {
	k.base.Reset()
	k.Freeze()
}
