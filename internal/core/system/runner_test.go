package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase { return r.phase }

func (r recorder) Update(time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerOrder(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"save", PhasePersist, &log})
	r.Register(recorder{"move", PhaseUpdate, &log})
	r.Register(recorder{"input", PhaseInput, &log})
	r.Register(recorder{"trigger", PhaseUpdate, &log})

	r.Tick(time.Second / 60)
	assert.Equal(t, []string{"input", "move", "trigger", "save"}, log)
	assert.EqualValues(t, 1, r.Frames())

	r.Register(recorder{"scripts", PhasePostUpdate, &log})
	log = log[:0]
	r.Tick(time.Second / 60)
	assert.Equal(t, []string{"input", "move", "trigger", "scripts", "save"}, log)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "update", PhaseUpdate.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
