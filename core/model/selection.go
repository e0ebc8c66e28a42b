package model

import (
	"fmt"
	"strings"
)

// DatabaseSelection chooses which backend storage variant requests are
// routed toward.
type DatabaseSelection string

const (
	// SelectionPG routes requests to the relational store.
	SelectionPG DatabaseSelection = "PG"
	// SelectionMongo routes requests to the document store.
	SelectionMongo DatabaseSelection = "MONGO"
)

// DefaultSelection is used when nothing was persisted yet.
const DefaultSelection = SelectionPG

// Normalize maps any input onto a legal selection. Values that are not
// case-insensitively equal to MONGO collapse to PG.
func Normalize(v any) DatabaseSelection {
	var raw string
	switch t := v.(type) {
	case nil:
		return DefaultSelection
	case DatabaseSelection:
		raw = string(t)
	case string:
		raw = t
	case fmt.Stringer:
		raw = t.String()
	default:
		raw = fmt.Sprint(t)
	}
	if strings.ToUpper(raw) == string(SelectionMongo) {
		return SelectionMongo
	}
	return SelectionPG
}

// Valid reports whether s is one of the two legal members.
func (s DatabaseSelection) Valid() bool {
	return s == SelectionPG || s == SelectionMongo
}

// QueryValue is the lowercase form sent as the db query parameter.
func (s DatabaseSelection) QueryValue() string {
	return strings.ToLower(string(Normalize(s)))
}

// HeaderValue is the uppercase form sent in the X-DB header.
func (s DatabaseSelection) HeaderValue() string {
	return string(Normalize(s))
}

func (s DatabaseSelection) String() string { return string(s) }
