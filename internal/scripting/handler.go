package scripting

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/rpgcore/internal/entity"
	"github.com/l1jgo/rpgcore/internal/state"
)

const numHooks = int(entity.HookStateChange) + 1

// hookParams are the argument names the fragments of each hook see.
var hookParams = [numHooks][]string{
	entity.HookTouch:         {"self", "trigger", "state"},
	entity.HookPush:          {"self", "trigger", "state"},
	entity.HookTimer:         {"self", "dt", "state"},
	entity.HookCustomTrigger: {"self", "id", "state"},
	entity.HookLoad:          {"self", "state"},
	entity.HookStateChange:   {"self", "state", "global"},
}

// Handler is an entity.EventHandler backed by Lua. Its hooks come from a
// named handler table (see Lookup) and from script fragments, fragments
// taking precedence. Compilation is deferred to Init so handlers can be
// built off the simulation goroutine.
type Handler struct {
	*entity.Adapter

	engine *Engine
	name   string

	fragments [numHooks]map[int]string
	fns       [numHooks]lua.LValue
	self      lua.LValue
	ready     bool
}

// NewHandler creates an empty script handler for owner.
func (e *Engine) NewHandler(owner any) entity.ScriptHandler {
	return &Handler{Adapter: entity.NewAdapter(owner), engine: e}
}

// Lookup returns a handler bound to the global Lua table name, e.g.
//
//	Guard = { touch = function(self, trigger, state) ... end }
//
// The table is resolved on Init.
func (e *Engine) Lookup(name string, owner any) (entity.ScriptHandler, error) {
	name = strings.TrimSpace(name)
	if !isIdent(name) {
		return nil, fmt.Errorf("invalid handler name %q", name)
	}
	return &Handler{Adapter: entity.NewAdapter(owner), engine: e, name: name}, nil
}

var _ entity.Scripts = (*Engine)(nil)

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Name returns the handler table name, empty for pure fragment handlers.
func (h *Handler) Name() string { return h.name }

func (h *Handler) AddFragment(hook entity.Hook, index int, code string) {
	if int(hook) < 0 || int(hook) >= numHooks {
		return
	}
	code = h.engine.source(code)
	if strings.TrimSpace(code) == "" {
		return
	}
	if h.fragments[hook] == nil {
		h.fragments[hook] = make(map[int]string)
	}
	h.fragments[hook][index] = code
	h.ready = false
}

// HasHook reports whether hook has code, before or after Init.
func (h *Handler) HasHook(hook entity.Hook) bool {
	if h.ready {
		return h.fns[hook] != nil
	}
	return len(h.fragments[hook]) > 0
}

// Init compiles the fragments and resolves the handler table. Errors are
// logged and leave the affected hook empty.
func (h *Handler) Init() {
	e := h.engine
	h.self = e.toLua(h.Owner())

	var table *lua.LTable
	if h.name != "" {
		if t, ok := e.vm.GetGlobal(h.name).(*lua.LTable); ok {
			table = t
		} else {
			h.logError("init", errors.New("handler table "+h.name+" not defined"))
		}
	}
	for hook := range numHooks {
		h.fns[hook] = nil
		if table != nil {
			if fn, ok := table.RawGetString(entity.Hook(hook).String()).(*lua.LFunction); ok {
				h.fns[hook] = fn
			}
		}
		frags := h.fragments[hook]
		if len(frags) == 0 {
			continue
		}
		keys := make([]int, 0, len(frags))
		for k := range frags {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = frags[k]
		}
		fn, err := e.compile(h.chunk(entity.Hook(hook)), hookParams[hook], strings.Join(parts, "\n"))
		if err != nil {
			h.logError(entity.Hook(hook).String(), err)
			continue
		}
		h.fns[hook] = fn
	}
	h.ready = true
}

func (h *Handler) chunk(hook entity.Hook) string {
	return fmt.Sprintf("on%s@%v", hook, h.Owner())
}

func (h *Handler) logError(hook string, err error) {
	h.engine.log.Error("lua hook error",
		zap.String("entity", fmt.Sprint(h.Owner())),
		zap.String("hook", hook),
		zap.Error(err))
}

// run calls a hook and reports its boolean result. Failures return false.
func (h *Handler) run(hook entity.Hook, args ...lua.LValue) bool {
	if !h.ready {
		return false
	}
	fn := h.fns[hook]
	if fn == nil {
		return false
	}
	full := make([]lua.LValue, 0, len(args)+1)
	full = append(full, h.self)
	full = append(full, args...)
	ret, err := h.engine.call(fn, full...)
	if err != nil {
		h.logError(hook.String(), err)
		return false
	}
	return lua.LVAsBool(ret)
}

func (h *Handler) stateValue() lua.LValue { return h.engine.toLua(h.State()) }

func (h *Handler) OnTouch(trigger *entity.EventObject) bool {
	return h.run(entity.HookTouch, h.engine.toLua(trigger), h.stateValue())
}

func (h *Handler) OnPush(trigger *entity.EventObject) bool {
	return h.run(entity.HookPush, h.engine.toLua(trigger), h.stateValue())
}

func (h *Handler) OnTimer(dt float64) bool {
	return h.run(entity.HookTimer, lua.LNumber(dt), h.stateValue())
}

func (h *Handler) OnCustomTrigger(id int) bool {
	return h.run(entity.HookCustomTrigger, lua.LNumber(id), h.stateValue())
}

func (h *Handler) OnLoad() {
	h.run(entity.HookLoad, h.stateValue())
}

func (h *Handler) OnStateChange(global *state.ObjectState) {
	h.run(entity.HookStateChange, h.stateValue(), h.engine.toLua(global))
}

// Dispose drops the compiled hooks.
func (h *Handler) Dispose() {
	h.Adapter.Dispose()
	h.fns = [numHooks]lua.LValue{}
	h.self = lua.LNil
	h.ready = false
}
