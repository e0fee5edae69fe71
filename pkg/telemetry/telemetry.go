// Package telemetry implements the out-of-core append-only usage sink
// (spec.md §6 "Telemetry sink"): JSONL event records and a bounded
// activation-idempotency cache keyed by request_id.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// EventKind is one of the wire-visible telemetry record kinds.
type EventKind string

const (
	EventActivation EventKind = "activation"
	EventDecision   EventKind = "decision"
	EventBlock      EventKind = "block"
	EventRetry      EventKind = "retry"
	EventCompletion EventKind = "completion"
)

// Event is a single append-only telemetry record.
type Event struct {
	Type      EventKind      `json:"type"`
	SessionID string         `json:"session_id"`
	Timestamp time.Time      `json:"timestamp"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// Sink appends Events to a JSONL file, one record per line
// (spec.md §6: "<cwd>/.chain-usage.jsonl").
type Sink struct {
	path string
	mu   sync.Mutex
}

// NewSink returns a Sink writing to path.
func NewSink(path string) *Sink {
	return &Sink{path: path}
}

// Record appends ev to the sink. Partial-line crash-consistency is not
// guaranteed here: the telemetry stream is interop-only data, not core
// state, so it does not need the Session Store's atomic-rename discipline
// (spec.md §6 frames it as "out of core").
func (s *Sink) Record(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening telemetry sink: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding telemetry event: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing telemetry event: %w", err)
	}
	return nil
}

// ActivationCache is the in-memory request_id -> session_id replay cache
// from spec.md §4.6. It is bounded to maxEntries, evicting the oldest
// entry once full, mirroring the teacher's bounded audit log discipline.
type ActivationCache struct {
	mu         sync.Mutex
	order      []string
	entries    map[string]string
	maxEntries int
}

// NewActivationCache returns a cache holding at most maxEntries request ids.
func NewActivationCache(maxEntries int) *ActivationCache {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &ActivationCache{
		entries:    make(map[string]string),
		maxEntries: maxEntries,
	}
}

// Lookup returns the session id previously recorded for requestID, if any.
func (c *ActivationCache) Lookup(requestID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sessionID, ok := c.entries[requestID]
	return sessionID, ok
}

// Record associates requestID with sessionID, evicting the oldest entry
// if the cache is at capacity.
func (c *ActivationCache) Record(requestID, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[requestID]; exists {
		return
	}
	if len(c.order) >= c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[requestID] = sessionID
	c.order = append(c.order, requestID)
}
