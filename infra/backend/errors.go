package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Messages returned when the backend rejects a call without explaining why.
const (
	MsgStartSolver          = "Failed to start solver"
	MsgStartSolverWithLocks = "Failed to start solver with locks"
	MsgCreateOrder          = "Order create failed"
)

// APIError is returned by mutating operations when the backend answers
// with a non-2xx status. Error returns Message unchanged so it can be shown
// to users as is.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// orderError builds the CreateOrder failure. A truthy error field from the
// backend (non-empty string, non-zero number, true, object or array) wins
// over the generic message; non-string values are rendered as compact JSON.
func orderError(status int, body []byte) *APIError {
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	msg := MsgCreateOrder
	if err := json.Unmarshal(body, &payload); err == nil {
		if m, ok := errorText(payload.Error); ok {
			msg = m
		}
	}
	return &APIError{Op: opCreateOrder, Status: status, Message: msg}
}

func errorText(raw json.RawMessage) (string, bool) {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return "", false
	}
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case bool:
		return "true", t
	case float64:
		return string(bytes.TrimSpace(raw)), t != 0
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", false
	}
	return buf.String(), true
}

func decodeError(op string, err error) error {
	return fmt.Errorf("%s: decode response: %w", op, err)
}
