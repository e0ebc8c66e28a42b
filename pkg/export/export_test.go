package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fjsm/core/model"
)

var tasks = []model.GanttTask{
	{Resource: "M1", Job: "J1", Start: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), End: time.Date(2024, 5, 1, 8, 45, 0, 0, time.UTC)},
	{Resource: "M2", Job: "J1, part 2", Start: time.Date(2024, 5, 1, 8, 45, 0, 0, time.UTC), End: time.Date(2024, 5, 1, 9, 0, 30, 0, time.UTC)},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tasks))
	want := "resource,job,start,end,duration_min\n" +
		"M1,J1,2024-05-01T08:00:00Z,2024-05-01T08:45:00Z,45\n" +
		"M2,\"J1, part 2\",2024-05-01T08:45:00Z,2024-05-01T09:00:30Z,15.5\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, tasks[:1]))
	assert.JSONEq(t, `[{"resource":"M1","job":"J1","start":"2024-05-01T08:00:00Z","end":"2024-05-01T08:45:00Z","duration_min":45}]`, buf.String())

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
