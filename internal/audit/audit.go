// Package audit implements the gateway's append-only audit trail.
// Events follow a CloudEvents-shaped envelope: a typed, timestamped,
// subject-addressed record with an opaque data payload.
package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event kind constants. EventHandlerPanic is never produced by normal
// request handling; it exists purely so a recovered panic leaves a trace
// in the audit log.
const (
	EventProtocolRegistered = "protocol_registered"
	EventReportAccepted     = "report_accepted"
	EventReportRejected     = "report_rejected"
	EventMsgAccepted        = "msg_accepted"
	EventMsgRejected        = "msg_rejected"
	EventViolationRecorded  = "violation_recorded"
	EventAgentThrottled     = "agent_throttled"
	EventAgentQuarantined   = "agent_quarantined"
	EventAgentDisabled      = "agent_disabled"
	EventHandlerPanic       = "handler_panic"
)

// defaultTenantID is stamped on every event in this single-tenant core.
// The field exists so a future multi-tenant deployment can partition the
// audit trail without changing the envelope shape.
const defaultTenantID = "default"

// Event is a single append-only audit record, shaped like a CloudEvent:
// a typed, timestamped, subject-addressed record with an opaque payload.
type Event struct {
	ID          string                 `json:"id"`
	TenantID    string                 `json:"tenant_id"`
	Timestamp   time.Time              `json:"timestamp"`
	EventType   string                 `json:"event_type"`
	AgentID     string                 `json:"agent_id"`
	ProtocolRef string                 `json:"protocol_ref,omitempty"`
	Reason      string                 `json:"reason,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// NewEvent stamps a new event with a fresh ID and the given time. The
// caller (always a handler holding the agent's lock) controls ordering by
// calling Sink.Append before releasing the lock.
func NewEvent(now time.Time, eventType, agentID string) Event {
	return Event{
		ID:        uuid.NewString(),
		TenantID:  defaultTenantID,
		Timestamp: now,
		EventType: eventType,
		AgentID:   agentID,
	}
}

// Filter narrows a Query to events matching the given agent (empty = all).
type Filter struct {
	AgentID string
}

// Sink is the audit log contract. Append must be synchronous and must be
// called while the agent's lock is held so that append-order matches
// decision-order for that agent.
type Sink interface {
	Append(e Event)
	Query(f Filter) []Event
}

// MemorySink is the default, in-memory audit sink: an append-only slice
// with filter-by-agent queries. Never mutates or deletes events within the
// process lifetime.
type MemorySink struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemorySink creates an empty in-memory audit sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *MemorySink) Query(f Filter) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f.AgentID == "" {
		out := make([]Event, len(s.events))
		copy(out, s.events)
		return out
	}

	var out []Event
	for _, e := range s.events {
		if e.AgentID == f.AgentID {
			out = append(out, e)
		}
	}
	return out
}

// Len reports the total number of appended events (all agents).
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
