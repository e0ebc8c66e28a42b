package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunIDFrom(t *testing.T) {
	id, ok := RunIDFrom(json.RawMessage(`{"run_id":"abc"}`))
	assert.True(t, ok)
	assert.Equal(t, RunID("abc"), id)

	id, ok = RunIDFrom(json.RawMessage(`{"run_id":42}`))
	assert.True(t, ok)
	assert.Equal(t, RunID("42"), id)

	for _, raw := range []string{`{}`, `{"run_id":""}`, `{"run_id":null}`, `[]`, `nope`} {
		_, ok = RunIDFrom(json.RawMessage(raw))
		assert.False(t, ok, raw)
	}
}

func TestParseRunStatus(t *testing.T) {
	st := ParseRunStatus(json.RawMessage(`{"run_id":7,"status":"RUNNING"}`))
	assert.Equal(t, RunID("7"), st.RunID)
	assert.False(t, st.Terminal())

	st = ParseRunStatus(json.RawMessage(`{"state":"Done"}`))
	assert.Equal(t, "Done", st.Status)
	assert.True(t, st.Terminal())

	assert.Equal(t, RunStatus{}, ParseRunStatus(json.RawMessage(`[1,2]`)))
}
