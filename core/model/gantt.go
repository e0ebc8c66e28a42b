package model

import (
	"encoding/json"
	"time"
)

// GanttTask is a best-effort view of one bar of a Gantt payload. The
// backend owns the payload shape, so several common field spellings are
// accepted.
type GanttTask struct {
	Resource string
	Job      string
	Start    time.Time
	End      time.Time
}

// Duration returns the length of the bar.
func (t GanttTask) Duration() time.Duration { return t.End.Sub(t.Start) }

type ganttEntry struct {
	Resource  string          `json:"resource"`
	Machine   string          `json:"machine"`
	MachineID json.RawMessage `json:"machine_id"`
	Job       string          `json:"job"`
	Task      string          `json:"task"`
	JobID     json.RawMessage `json:"job_id"`
	Start     json.RawMessage `json:"start"`
	End       json.RawMessage `json:"end"`
}

// ParseGantt decodes the entries of a Gantt payload that carry a resource
// and a usable time range. Entries it cannot interpret are skipped.
func ParseGantt(raw json.RawMessage) []GanttTask {
	var entries []ganttEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	tasks := make([]GanttTask, 0, len(entries))
	for _, e := range entries {
		res := firstNonEmpty(e.Resource, e.Machine, scalarString(e.MachineID))
		job := firstNonEmpty(e.Job, e.Task, scalarString(e.JobID))
		start, ok1 := parseInstant(e.Start)
		end, ok2 := parseInstant(e.End)
		if res == "" || !ok1 || !ok2 || end.Before(start) {
			continue
		}
		tasks = append(tasks, GanttTask{Resource: res, Job: job, Start: start, End: end})
	}
	return tasks
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// parseInstant accepts RFC 3339 strings or numbers. Numbers are treated as
// minutes from the schedule origin (unix epoch).
func parseInstant(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 {
		return time.Time{}, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339, s)
		return t, err == nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return time.Unix(0, 0).UTC().Add(time.Duration(f * float64(time.Minute))), true
	}
	return time.Time{}, false
}
