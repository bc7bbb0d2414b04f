package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/rpgcore/internal/entity"
	"github.com/l1jgo/rpgcore/internal/movement"
	"github.com/l1jgo/rpgcore/internal/state"
)

// maxCompiled bounds the cache of compiled queued scripts.
const maxCompiled = 256

// Host is the part of the game a script may reach through the global
// functions of the VM.
type Host interface {
	GlobalState() *state.ObjectState
	FindEvent(name string) *entity.EventObject
	ChangeMap(path string)
	FireCustom(id, triggerID int) bool
	Keys() *movement.KeyState
}

// Engine wraps a single gopher-lua VM for event scripts.
// Single-goroutine access only (simulation loop).
type Engine struct {
	vm   *lua.LState
	log  *zap.Logger
	dir  string
	host Host

	compiled map[string]*lua.LFunction
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. lib/ is loaded before the directory itself, handlers/ after.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, dir: scriptsDir, compiled: make(map[string]*lua.LFunction)}
	e.registerTypes()
	e.registerGlobals()

	if scriptsDir == "" {
		return e, nil
	}
	for _, sub := range []string{"lib", "", "handlers"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", p, err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Bind connects the global script functions to the running game.
func (e *Engine) Bind(h Host) { e.host = h }

// DoString runs a chunk in the global environment.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// source resolves a script value. A value naming a .lua file below the
// scripts directory is replaced by the file content.
func (e *Engine) source(val string) string {
	v := strings.TrimSpace(val)
	if e.dir == "" || !strings.HasSuffix(v, ".lua") || strings.ContainsAny(v, "\n(") {
		return val
	}
	raw, err := os.ReadFile(filepath.Join(e.dir, filepath.Clean("/"+v)))
	if err != nil {
		return val
	}
	return string(raw)
}

// compile turns body into a function whose arguments are bound to names.
func (e *Engine) compile(chunk string, names []string, body string) (*lua.LFunction, error) {
	var b strings.Builder
	if len(names) > 0 {
		b.WriteString("local ")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString(" = ...\n")
	}
	b.WriteString(body)
	fn, err := e.vm.Load(strings.NewReader(b.String()), chunk)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", chunk, err)
	}
	return fn, nil
}

// call invokes fn in protected mode and returns its first result.
func (e *Engine) call(fn lua.LValue, args ...lua.LValue) (lua.LValue, error) {
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		return lua.LNil, err
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return result, nil
}

// callbackParams names the arguments of queued callbacks by function.
var callbackParams = map[string][]string{
	"onNode": {"self", "polygon", "mover"},
}

// Invoke runs a queued script. With fn empty the script is evaluated as is,
// otherwise it is the body of callback fn and receives params under the
// names the callback defines.
func (e *Engine) Invoke(script, fn string, params ...any) error {
	script = e.source(script)
	var names []string
	if fn != "" {
		names = append([]string{}, callbackParams[fn]...)
		if len(names) == 0 {
			names = []string{"self"}
		}
		for len(names) < len(params) {
			names = append(names, fmt.Sprintf("arg%d", len(names)))
		}
		names = names[:len(params)]
	}
	key := fn + "\x00" + strings.Join(names, ",") + "\x00" + script
	compiled := e.compiled[key]
	if compiled == nil {
		chunk := fn
		if chunk == "" {
			chunk = "script"
		}
		c, err := e.compile(chunk, names, script)
		if err != nil {
			return err
		}
		if len(e.compiled) >= maxCompiled {
			clear(e.compiled)
		}
		e.compiled[key] = c
		compiled = c
	}
	args := make([]lua.LValue, len(params))
	for i, p := range params {
		args[i] = e.toLua(p)
	}
	if _, err := e.call(compiled, args...); err != nil {
		return err
	}
	return nil
}

// Eval is Invoke without callback.
func (e *Engine) Eval(script string) error { return e.Invoke(script, "") }

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
