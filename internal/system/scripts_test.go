package system

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeInvoker struct {
	calls  []string
	fail   map[string]bool
	during func(fn string)
}

func (f *fakeInvoker) Invoke(script, fn string, _ ...any) error {
	f.calls = append(f.calls, script)
	if f.during != nil {
		f.during(fn)
	}
	if f.fail[script] {
		return errors.New("lua error")
	}
	return nil
}

func TestScriptQueueRunsInOrder(t *testing.T) {
	inv := &fakeInvoker{}
	q := NewScriptQueue(inv, zap.NewNop())

	q.Post("a", "one", "")
	q.Post("b", "two", "onNode", 3)
	assert.Equal(t, 2, q.Len())

	q.Update(16 * time.Millisecond)
	assert.Equal(t, []string{"one", "two"}, inv.calls)
	assert.True(t, q.Empty())
	assert.Zero(t, q.Drain())
}

func TestScriptQueueLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	inv := &fakeInvoker{fail: map[string]bool{"bad": true}}
	q := NewScriptQueue(inv, zap.New(core))

	id := q.Post("node 2 of road", "bad", "onNode", 2)
	q.Post("next", "good", "")
	assert.Equal(t, 2, q.Drain())

	assert.Equal(t, []string{"bad", "good"}, inv.calls, "a failure does not stop the batch")
	entries := logs.FilterMessage("腳本執行失敗").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "node 2 of road", fields["desc"])
		assert.Equal(t, id.String(), fields["job"])
	}
}

func TestScriptQueueDefersNestedPosts(t *testing.T) {
	inv := &fakeInvoker{}
	q := NewScriptQueue(inv, zap.NewNop())
	var emptyWhileRunning bool
	inv.during = func(fn string) {
		emptyWhileRunning = q.Empty()
		if fn == "" {
			q.Post("nested", "later", "again")
		}
	}

	q.Post("first", "now", "")
	assert.Equal(t, 1, q.Drain())
	assert.False(t, emptyWhileRunning)
	assert.Equal(t, []string{"now"}, inv.calls)
	assert.Equal(t, 1, q.Len())

	assert.Equal(t, 1, q.Drain())
	assert.Equal(t, []string{"now", "later"}, inv.calls)
	assert.True(t, q.Empty())
}
