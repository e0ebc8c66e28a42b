// Package preference owns the process-wide database selection. The value is
// read once from a persisted key-value slot, changed only through Store.Set
// and written back on every change. Subscribers are told about each change
// through a typed event bus.
package preference
