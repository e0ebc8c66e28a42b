// Package export writes Gantt tasks in formats spreadsheets and scripts
// can consume.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/fjsm/core/model"
)

type taskRecord struct {
	Resource    string    `json:"resource"`
	Job         string    `json:"job"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	DurationMin float64   `json:"duration_min"`
}

// WriteJSON writes the tasks to w as a JSON array.
func WriteJSON(w io.Writer, tasks []model.GanttTask) error {
	records := make([]taskRecord, len(tasks))
	for i, t := range tasks {
		records[i] = taskRecord{
			Resource:    t.Resource,
			Job:         t.Job,
			Start:       t.Start.UTC(),
			End:         t.End.UTC(),
			DurationMin: t.Duration().Minutes(),
		}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(records)
}

// WriteCSV writes the tasks to w in CSV format, one row per task.
func WriteCSV(w io.Writer, tasks []model.GanttTask) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"resource", "job", "start", "end", "duration_min"}); err != nil {
		return err
	}
	for _, t := range tasks {
		rec := []string{
			t.Resource,
			t.Job,
			t.Start.UTC().Format(time.RFC3339),
			t.End.UTC().Format(time.RFC3339),
			strconv.FormatFloat(t.Duration().Minutes(), 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
