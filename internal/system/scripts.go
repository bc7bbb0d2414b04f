package system

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	coresys "github.com/l1jgo/rpgcore/internal/core/system"
)

// Invoker runs a script, optionally as the body of callback fn.
type Invoker interface {
	Invoke(script, fn string, params ...any) error
}

type scriptJob struct {
	id     uuid.UUID
	desc   string
	script string
	fn     string
	params []any
}

// ScriptQueue collects scripts posted by movement handlers and runs them
// after the frame's event processing. Phase 3 (PostUpdate). Posting is safe
// from any goroutine; the scripts themselves run on the simulation
// goroutine.
type ScriptQueue struct {
	engine Invoker
	log    *zap.Logger

	mu      sync.Mutex
	jobs    []scriptJob
	running int
}

func NewScriptQueue(engine Invoker, log *zap.Logger) *ScriptQueue {
	return &ScriptQueue{engine: engine, log: log}
}

func (q *ScriptQueue) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (q *ScriptQueue) Update(_ time.Duration) { q.Drain() }

// Post queues a script and returns the job id used in log output.
func (q *ScriptQueue) Post(desc, script, fn string, params ...any) uuid.UUID {
	id := uuid.New()
	q.mu.Lock()
	q.jobs = append(q.jobs, scriptJob{id: id, desc: desc, script: script, fn: fn, params: params})
	q.mu.Unlock()
	return id
}

// Empty reports whether no job is queued or running.
func (q *ScriptQueue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs) == 0 && q.running == 0
}

// Len returns the number of queued and running jobs.
func (q *ScriptQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs) + q.running
}

// Drain runs the jobs queued so far. Jobs posted while draining wait for
// the next call. Returns the number of jobs run.
func (q *ScriptQueue) Drain() int {
	q.mu.Lock()
	batch := q.jobs
	q.jobs = nil
	q.running = len(batch)
	q.mu.Unlock()

	for i := range batch {
		job := &batch[i]
		if err := q.engine.Invoke(job.script, job.fn, job.params...); err != nil {
			q.log.Error("腳本執行失敗",
				zap.String("desc", job.desc),
				zap.String("fn", job.fn),
				zap.String("job", job.id.String()),
				zap.String("params", fmt.Sprint(job.params...)),
				zap.Error(err))
		}
		q.mu.Lock()
		q.running--
		q.mu.Unlock()
	}
	return len(batch)
}
