package backend

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kilianp07/fjsm/core/model"
)

const (
	// HeaderDB carries the uppercase database selection.
	HeaderDB = "X-DB"
	// HeaderRequestID correlates client and backend logs.
	HeaderRequestID = "X-Request-ID"
	// QueryDB is the query parameter carrying the lowercase selection.
	QueryDB = "db"
)

// WithDB appends the db query parameter for sel to path, joining with & when
// path already has a query string and with ? otherwise.
func WithDB(path string, sel model.DatabaseSelection) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + QueryDB + "=" + sel.QueryValue()
}

// Headers returns the headers shared by every request. jsonBody adds the
// JSON content type for requests that send an encoded body.
func Headers(sel model.DatabaseSelection, jsonBody bool) http.Header {
	h := http.Header{}
	if jsonBody {
		h.Set("Content-Type", "application/json")
	}
	h.Set(HeaderDB, sel.HeaderValue())
	return h
}

var emptyArray = json.RawMessage("[]")

// EmptyGantt returns the sentinel used when no Gantt data is available.
func EmptyGantt() json.RawMessage { return append(json.RawMessage(nil), emptyArray...) }

// GanttOrEmpty returns raw unless it is missing or JSON null, in which case
// the empty array sentinel is returned.
func GanttOrEmpty(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return EmptyGantt()
	}
	return json.RawMessage(trimmed)
}

// ArrayOrEmpty decodes raw as a JSON array. Anything that is not an array,
// including undecodable input, yields an empty, non-nil slice.
func ArrayOrEmpty(raw []byte) []json.RawMessage {
	var items []json.RawMessage
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []json.RawMessage{}
	}
	if err := json.Unmarshal(trimmed, &items); err != nil || items == nil {
		return []json.RawMessage{}
	}
	return items
}
