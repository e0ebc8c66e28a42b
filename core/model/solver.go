package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// RunID identifies a solver run on the backend. The client never inspects
// it beyond checking that it is present.
type RunID string

// Empty reports whether the identifier is missing.
func (id RunID) Empty() bool { return id == "" }

func (id RunID) String() string { return string(id) }

// Lock is an opaque entry of the locks array sent when starting a solver
// run with pinned operations.
type Lock = json.RawMessage

// OrderRequest is forwarded verbatim to the backend.
type OrderRequest = any

// RunIDFrom extracts run_id from a solver start response. Numeric ids are
// rendered in their decimal form.
func RunIDFrom(raw json.RawMessage) (RunID, bool) {
	var body struct {
		RunID json.RawMessage `json:"run_id"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.RunID) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(body.RunID, &s); err == nil {
		return RunID(s), s != ""
	}
	var n json.Number
	if err := json.Unmarshal(body.RunID, &n); err == nil {
		if _, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return RunID(n.String()), true
		}
	}
	return "", false
}

// RunStatus is the subset of a status payload the client reasons about.
type RunStatus struct {
	RunID  RunID  `json:"run_id"`
	Status string `json:"status"`
}

var terminalStatuses = map[string]bool{
	"done":      true,
	"finished":  true,
	"completed": true,
	"failed":    true,
	"error":     true,
	"cancelled": true,
	"canceled":  true,
}

// Terminal reports whether the run will not change state anymore.
func (s RunStatus) Terminal() bool {
	return terminalStatuses[strings.ToLower(strings.TrimSpace(s.Status))]
}

// ParseRunStatus decodes a status payload. Unknown shapes yield a zero
// RunStatus.
func ParseRunStatus(raw json.RawMessage) RunStatus {
	var st struct {
		RunID  json.RawMessage `json:"run_id"`
		Status string          `json:"status"`
		State  string          `json:"state"`
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return RunStatus{}
	}
	out := RunStatus{Status: st.Status}
	if out.Status == "" {
		out.Status = st.State
	}
	if id, ok := RunIDFrom(raw); ok {
		out.RunID = id
	}
	return out
}
