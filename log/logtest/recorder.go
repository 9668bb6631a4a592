/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package logtest provides a log.FieldLogger implementation that records
// emitted entries in memory, for asserting logging behavior in tests.
package logtest

import (
	"fmt"
	"sync"

	"github.com/acronis/go-ratelimitqueue/log"
)

// RecordedEntry is a single log entry captured by the Recorder.
type RecordedEntry struct {
	Level  string
	Text   string
	Fields []log.Field
}

// FindField returns the first field with the given key.
func (e RecordedEntry) FindField(key string) (log.Field, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return log.Field{}, false
}

// Recorder is a log.FieldLogger that stores every emitted entry.
// It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries *[]RecordedEntry
	with    []log.Field
}

// NewRecorder creates a new Recorder.
func NewRecorder() *Recorder {
	return &Recorder{entries: &[]RecordedEntry{}}
}

// Entries returns a copy of all recorded entries.
func (r *Recorder) Entries() []RecordedEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]RecordedEntry, len(*r.entries))
	copy(res, *r.entries)
	return res
}

// FindEntry returns the first recorded entry with the given text.
func (r *Recorder) FindEntry(text string) (RecordedEntry, bool) {
	for _, e := range r.Entries() {
		if e.Text == text {
			return e, true
		}
	}
	return RecordedEntry{}, false
}

// With returns a new logger sharing the same storage with the given bound fields.
func (r *Recorder) With(fs ...log.Field) log.FieldLogger {
	r.mu.Lock()
	defer r.mu.Unlock()
	bound := make([]log.Field, 0, len(r.with)+len(fs))
	bound = append(bound, r.with...)
	bound = append(bound, fs...)
	return &Recorder{entries: r.entries, with: bound}
}

// Debug records a message at "debug" level.
func (r *Recorder) Debug(s string, fields ...log.Field) { r.record("debug", s, fields) }

// Info records a message at "info" level.
func (r *Recorder) Info(s string, fields ...log.Field) { r.record("info", s, fields) }

// Warn records a message at "warn" level.
func (r *Recorder) Warn(s string, fields ...log.Field) { r.record("warn", s, fields) }

// Error records a message at "error" level.
func (r *Recorder) Error(s string, fields ...log.Field) { r.record("error", s, fields) }

// Debugf records a formatted message at "debug" level.
func (r *Recorder) Debugf(format string, args ...interface{}) {
	r.record("debug", fmt.Sprintf(format, args...), nil)
}

// Infof records a formatted message at "info" level.
func (r *Recorder) Infof(format string, args ...interface{}) {
	r.record("info", fmt.Sprintf(format, args...), nil)
}

// Warnf records a formatted message at "warn" level.
func (r *Recorder) Warnf(format string, args ...interface{}) {
	r.record("warn", fmt.Sprintf(format, args...), nil)
}

// Errorf records a formatted message at "error" level.
func (r *Recorder) Errorf(format string, args ...interface{}) {
	r.record("error", fmt.Sprintf(format, args...), nil)
}

func (r *Recorder) record(level, text string, fields []log.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]log.Field, 0, len(r.with)+len(fields))
	all = append(all, r.with...)
	all = append(all, fields...)
	*r.entries = append(*r.entries, RecordedEntry{Level: level, Text: text, Fields: all})
}
