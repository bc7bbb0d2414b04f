package entity

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/l1jgo/rpgcore/internal/movement"
)

// customPrefix marks properties that are kept verbatim for scripts.
const customPrefix = '$'

const (
	propID         = "id"
	propName       = "name"
	propType       = "type"
	propHeight     = "height"
	propBlocking   = "blocking"
	propSpeed      = "speed"
	propOutreach   = "outreach"
	propRotation   = "rotation"
	propScaleX     = "scalex"
	propScaleY     = "scaley"
	propVisible    = "visible"
	propPushable   = "pushable"
	propTouchable  = "touchable"
	propMoveLoop   = "movehandlerloop"
	propMoveReset  = "movehandlerreset"
	propMove       = "movehandler"
	propHandler    = "eventhandler"
	propOnPush     = "onpush"
	propOnTouch    = "ontouch"
	propOnTimer    = "ontimer"
	propOnCustom   = "oncustomevent"
	propOnLoad     = "onload"
	propOnState    = "onstatechange"
	propOnNode     = "onnode"
	nodeIndexFirst = "first"
	nodeIndexLast  = "last"
)

// Factory applies map object properties to events and polygons.
type Factory struct {
	scripts Scripts
	log     *zap.Logger
	fold    cases.Caser
}

// NewFactory creates a factory. scripts may be nil, in which case hook
// properties are ignored.
func NewFactory(scripts Scripts, log *zap.Logger) *Factory {
	return &Factory{scripts: scripts, log: log, fold: cases.Fold()}
}

type prop struct{ key, val string }

// normalize trims and folds keys, drops empty entries and sorts the rest.
// The event handler key is moved to the front so fragments attach to it.
func (f *Factory) normalize(props map[string]string, custom map[string]string) []prop {
	out := make([]prop, 0, len(props))
	for k, v := range props {
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if k[0] == customPrefix {
			if custom != nil {
				custom[k] = v
			}
			continue
		}
		out = append(out, prop{f.fold.String(k), v})
	}
	sort.Slice(out, func(i, j int) bool {
		hi, hj := out[i].key == propHandler, out[j].key == propHandler
		if hi != hj {
			return hi
		}
		return out[i].key < out[j].key
	})
	return out
}

// ParseProps applies props to ev. A property that fails to parse is logged
// and skipped.
func (f *Factory) ParseProps(ev *EventObject, props map[string]string) {
	for _, p := range f.normalize(props, ev.Properties) {
		if err := f.parseEventProp(ev, p.key, p.val); err != nil {
			f.log.Warn("解析事件屬性失敗",
				zap.String("event", ev.String()),
				zap.String("key", p.key),
				zap.Error(err))
		}
	}
}

func (f *Factory) parseEventProp(ev *EventObject, key, val string) error {
	switch key {
	case propID:
		ev.ID = toInt(val)
	case propName:
		ev.Name = val
	case propType:
		t, err := ParseEventType(val)
		if err != nil {
			return err
		}
		ev.Type = t
	case propHeight:
		ev.Z += float64(toInt(val))
	case propBlocking:
		b, err := ParseBlocking(val)
		ev.Blocking = b
		return err
	case propSpeed:
		s, err := movement.ParseSpeed(val)
		if err != nil {
			return err
		}
		ev.SetMoveSpeed(s)
	case propMoveLoop:
		ev.SetMoveLoop(movement.ParseBool(val))
	case propMoveReset:
		ev.SetMoveResetPosition(movement.ParseBool(val))
	case propOutreach:
		ev.Outreach = float64(toInt(val))
	case propRotation:
		ev.rotation = toFloat(val)
	case propScaleX:
		ev.ScaleX = toFloat(val)
	case propScaleY:
		ev.ScaleY = toFloat(val)
	case propVisible:
		ev.Visible = movement.ParseBool(val)
		if ev.Visible && ev.Z == 0 {
			ev.Z = .1
		}
	case propPushable:
		ev.Pushable = movement.ParseBool(val)
	case propTouchable:
		ev.Touchable = movement.ParseBool(val)
	case propHandler:
		return f.setNamedHandler(ev, val)
	default:
		return f.parseIndexedProp(ev, key, val)
	}
	return nil
}

func (f *Factory) parseIndexedProp(ev *EventObject, key, val string) error {
	switch {
	case strings.HasPrefix(key, propMove):
		seg, err := movement.ParseSegment(val)
		if err != nil {
			return err
		}
		ev.AddMoveSegment(suffixIndex(key, propMove), seg)
		return nil
	case strings.HasPrefix(key, propOnPush):
		ev.Pushable = true
		return f.addFragment(ev, HookPush, suffixIndex(key, propOnPush), val)
	case strings.HasPrefix(key, propOnState):
		ev.ReactOnGlobalChange = true
		return f.addFragment(ev, HookStateChange, suffixIndex(key, propOnState), val)
	case strings.HasPrefix(key, propOnTouch):
		ev.Touchable = true
		return f.addFragment(ev, HookTouch, suffixIndex(key, propOnTouch), val)
	case strings.HasPrefix(key, propOnTimer):
		return f.addFragment(ev, HookTimer, suffixIndex(key, propOnTimer), val)
	case strings.HasPrefix(key, propOnCustom):
		return f.addFragment(ev, HookCustomTrigger, suffixIndex(key, propOnCustom), val)
	case strings.HasPrefix(key, propOnLoad):
		return f.addFragment(ev, HookLoad, suffixIndex(key, propOnLoad), val)
	}
	// unknown keys belong to the renderer
	return nil
}

func (f *Factory) setNamedHandler(ev *EventObject, name string) error {
	if f.scripts == nil {
		return fmt.Errorf("no script engine for handler %q", name)
	}
	h, err := f.scripts.Lookup(name, ev)
	if err != nil {
		return fmt.Errorf("lookup handler %q: %w", name, err)
	}
	ev.SetEventHandler(h)
	return nil
}

func (f *Factory) addFragment(ev *EventObject, hook Hook, index int, code string) error {
	if ev.EventHandler() == nil {
		if f.scripts == nil {
			return fmt.Errorf("no script engine for %s hook", hook)
		}
		ev.SetEventHandler(f.scripts.NewHandler(ev))
	}
	sh, ok := ev.EventHandler().(ScriptHandler)
	if !ok {
		return fmt.Errorf("%s hook: handler %T does not take script fragments", hook, ev.EventHandler())
	}
	sh.AddFragment(hook, index, code)
	return nil
}

// ParsePolygonProps applies props to p. Node scripts are addressed by
// index or by "first" and "last".
func (f *Factory) ParsePolygonProps(p *PolygonObject, props map[string]string) {
	for _, kv := range f.normalize(props, p.Properties) {
		if err := f.parsePolygonProp(p, kv.key, kv.val); err != nil {
			f.log.Warn("解析多邊形屬性失敗",
				zap.String("polygon", p.Name),
				zap.String("key", kv.key),
				zap.Error(err))
		}
	}
}

func (f *Factory) parsePolygonProp(p *PolygonObject, key, val string) error {
	switch {
	case key == propBlocking:
		b, err := ParseBlocking(val)
		p.Blocking = b
		return err
	case key == propVisible:
		p.Visible = movement.ParseBool(val)
	case key == propTouchable:
		p.Touchable = movement.ParseBool(val)
	case strings.HasPrefix(key, propOnNode):
		suffix := strings.TrimSpace(key[len(propOnNode):])
		n := len(p.NodeScripts)
		var idx int
		switch suffix {
		case nodeIndexFirst:
			idx = 0
		case nodeIndexLast:
			idx = n - 1
		default:
			i, err := strconv.Atoi(suffix)
			if err != nil {
				return fmt.Errorf("node index %q: %w", suffix, err)
			}
			idx = i
		}
		if idx < 0 || idx >= n {
			return fmt.Errorf("node index %d out of bounds (%d nodes)", idx, n)
		}
		p.SetNodeScript(idx, val)
	case strings.HasPrefix(key, propOnTouch):
		p.Touchable = true
		return f.addPolygonFragment(p, HookTouch, suffixIndex(key, propOnTouch), val)
	case strings.HasPrefix(key, propOnTimer):
		return f.addPolygonFragment(p, HookTimer, suffixIndex(key, propOnTimer), val)
	case strings.HasPrefix(key, propOnState):
		return f.addPolygonFragment(p, HookStateChange, suffixIndex(key, propOnState), val)
	}
	return nil
}

func (f *Factory) addPolygonFragment(p *PolygonObject, hook Hook, index int, code string) error {
	if p.handler == nil {
		if f.scripts == nil {
			return fmt.Errorf("no script engine for %s hook", hook)
		}
		p.handler = f.scripts.NewHandler(p)
	}
	sh, ok := p.handler.(ScriptHandler)
	if !ok {
		return fmt.Errorf("%s hook: handler %T does not take script fragments", hook, p.handler)
	}
	sh.AddFragment(hook, index, code)
	return nil
}

// suffixIndex returns the fragment index after prefix, -1 when absent.
func suffixIndex(key, prefix string) int {
	s := strings.TrimSpace(key[len(prefix):])
	if s == "" {
		return -1
	}
	return toInt(s)
}

func toInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		f, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}

func toFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
