package mapload

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/l1jgo/rpgcore/internal/state"
	"github.com/l1jgo/rpgcore/internal/world"
)

var (
	// ErrDisposed is returned by EndLoadMap once the loader is disposed.
	ErrDisposed = errors.New("map loader disposed")
	// ErrNoLoad is returned by EndLoadMap without a preceding StartLoadMap.
	ErrNoLoad = errors.New("no map load started")
)

// Loader moves maps between their sources, the state store and the game.
// Jobs are serialized: every call waits until the previous job is done.
type Loader interface {
	// StartLoadMap begins loading the map at path.
	StartLoadMap(path string)
	// EndLoadMap waits for the load and activates the map on the calling
	// goroutine, which must be the simulation goroutine.
	EndLoadMap() (*world.Map, error)
	// StoreMapState writes the state of m's local events. With disposeAfter
	// the map is disposed once its states are collected.
	StoreMapState(m *world.Map, disposeAfter bool)
	// Dispose wakes every waiter. Disposing twice panics.
	Dispose()
}

// result of the last load job.
type result struct {
	m   *world.Map
	err error
}

// collect gathers the states of m on the calling goroutine and disposes m
// when asked. The states stay valid after the dispose.
func collect(m *world.Map, disposeAfter bool) (string, state.States) {
	path, states := m.Path, m.CollectStates()
	if disposeAfter {
		m.Dispose()
	}
	return path, states
}

// Async runs load and store jobs on one worker goroutine.
type Async struct {
	b   *Builder
	log *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	jobs   chan func()
	done   chan struct{}

	mu       sync.Mutex
	cond     *sync.Cond
	busy     bool
	disposed bool
	last     *result
}

// NewAsync starts the worker goroutine.
func NewAsync(b *Builder, log *zap.Logger) *Async {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Async{
		b:      b,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(chan func(), 1),
		done:   make(chan struct{}),
	}
	a.cond = sync.NewCond(&a.mu)
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for job := range a.jobs {
		job()
		a.mu.Lock()
		a.busy = false
		a.cond.Broadcast()
		a.mu.Unlock()
	}
}

// acquire waits for the worker and marks it busy. It reports false once
// the loader is disposed. Must be called with mu held.
func (a *Async) acquire() bool {
	for a.busy && !a.disposed {
		a.cond.Wait()
	}
	if a.disposed {
		return false
	}
	a.busy = true
	return true
}

func (a *Async) StartLoadMap(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.acquire() {
		return
	}
	a.last = nil
	// the worker is idle, so the send never blocks
	a.jobs <- func() {
		m, err := a.b.Build(a.ctx, path)
		if err != nil {
			a.log.Error("地圖載入失敗", zap.String("map", path), zap.Error(err))
		}
		a.mu.Lock()
		if !a.disposed {
			a.last = &result{m: m, err: err}
		}
		a.mu.Unlock()
	}
}

func (a *Async) EndLoadMap() (*world.Map, error) {
	a.mu.Lock()
	for a.busy && !a.disposed {
		a.cond.Wait()
	}
	if a.disposed {
		a.mu.Unlock()
		return nil, ErrDisposed
	}
	r := a.last
	a.last = nil
	a.mu.Unlock()

	if r == nil {
		return nil, ErrNoLoad
	}
	if r.err != nil {
		return nil, r.err
	}
	a.b.World.Activate(r.m)
	return r.m, nil
}

func (a *Async) StoreMapState(m *world.Map, disposeAfter bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.acquire() {
		return
	}
	path, states := collect(m, disposeAfter)
	a.jobs <- func() {
		a.b.save(a.ctx, path, states)
	}
}

// Dispose cancels a running store call and releases the worker. It does
// not wait for a running job.
func (a *Async) Dispose() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		panic("mapload: loader disposed twice")
	}
	a.disposed = true
	a.last = nil
	a.log.Debug("地圖載入器關閉", zap.Bool("busy", a.busy))
	a.cancel()
	close(a.jobs)
	a.cond.Broadcast()
}

// Done is closed when the worker goroutine has exited.
func (a *Async) Done() <-chan struct{} { return a.done }

// Sync runs every job inline on the caller.
type Sync struct {
	b        *Builder
	ctx      context.Context
	cancel   context.CancelFunc
	disposed bool
	last     *result
}

func NewSync(b *Builder) *Sync {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sync{b: b, ctx: ctx, cancel: cancel}
}

func (s *Sync) StartLoadMap(path string) {
	if s.disposed {
		return
	}
	m, err := s.b.Build(s.ctx, path)
	s.last = &result{m: m, err: err}
}

func (s *Sync) EndLoadMap() (*world.Map, error) {
	if s.disposed {
		return nil, ErrDisposed
	}
	r := s.last
	s.last = nil
	if r == nil {
		return nil, ErrNoLoad
	}
	if r.err != nil {
		return nil, r.err
	}
	s.b.World.Activate(r.m)
	return r.m, nil
}

func (s *Sync) StoreMapState(m *world.Map, disposeAfter bool) {
	if s.disposed {
		return
	}
	path, states := collect(m, disposeAfter)
	s.b.save(s.ctx, path, states)
}

func (s *Sync) Dispose() {
	if s.disposed {
		panic("mapload: loader disposed twice")
	}
	s.disposed = true
	s.last = nil
	s.cancel()
}

var (
	_ Loader = (*Async)(nil)
	_ Loader = (*Sync)(nil)
)
