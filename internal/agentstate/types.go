// Package agentstate implements the compliance state machine: the
// per-agent registry, the progressive-enforcement state transitions, and
// the register/report/send decision logic.
package agentstate

import "time"

// Enforcement is an agent's current gating level.
type Enforcement int

const (
	Active Enforcement = iota
	Throttled
	Quarantined
	Disabled
)

func (e Enforcement) String() string {
	switch e {
	case Active:
		return "active"
	case Throttled:
		return "throttled"
	case Quarantined:
		return "quarantined"
	case Disabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// GaugeValue is the numeric encoding used for the agent_compliance_status
// gauge.
func (e Enforcement) GaugeValue() float64 {
	return float64(e)
}

// RiskTier is the ProtocolDescriptor's declared risk classification.
type RiskTier string

const (
	RiskLow      RiskTier = "low"
	RiskMedium   RiskTier = "medium"
	RiskHigh     RiskTier = "high"
	RiskCritical RiskTier = "critical"
)

func (t RiskTier) Valid() bool {
	switch t {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	default:
		return false
	}
}

// ProtocolDescriptor identifies a non-English encoding scheme an agent has
// registered.
type ProtocolDescriptor struct {
	Name              string   `json:"name"`
	Version           string   `json:"version"`
	Purpose           string   `json:"purpose"`
	Scope             string   `json:"scope"`
	RiskTier          RiskTier `json:"risk_tier"`
	TranslationMethod string   `json:"translation_method"`
}

// Validate checks the structural requirements a registered protocol must
// satisfy before it is accepted.
func (p ProtocolDescriptor) Validate() (reason string, ok bool) {
	if p.Name == "" {
		return "malformed_request", false
	}
	if p.Version == "" {
		return "malformed_request", false
	}
	if !p.RiskTier.Valid() {
		return "invalid_risk_tier", false
	}
	return "", true
}

// EnglishReport is a declaration covering novel-language messages an
// agent sent during a compliance window.
type EnglishReport struct {
	AgentID         string   `json:"agent_id"`
	ProtocolName    string   `json:"protocol_name"`
	ProtocolVersion string   `json:"protocol_version"`
	WindowStartTS   int64    `json:"window_start_ts"`
	WindowEndTS     int64    `json:"window_end_ts"`
	MessageIDs      []string `json:"message_ids"`
	EnglishSummary  string   `json:"english_summary"`
	Coverage        float64  `json:"coverage"`
	SelfConfidence  float64  `json:"self_confidence"`
}

// NovelMessage is a buffered fingerprint of a novel-language message sent
// since the last accepted report.
type NovelMessage struct {
	MessageID string
	SentAt    time.Time
}

// AgentState is the per-agent mutable compliance record. The zero value
// is a freshly-created, unregistered, Active agent.
type AgentState struct {
	AgentID string

	Protocol    *ProtocolDescriptor
	Enforcement Enforcement

	ViolationCount  int
	LastViolationTS *time.Time

	LastReportAcceptedTS *time.Time
	WindowStartTS        time.Time

	NovelPending        []NovelMessage
	NovelTotalInWindow  int
	MessagesSinceReport int

	// createdAt records when the record was created; no compliance logic
	// reads it, and it is not part of the public contract.
	createdAt time.Time
}

// NewAgentState creates the lazily-initialized record for a never-seen
// agent_id.
func NewAgentState(agentID string, now time.Time) *AgentState {
	return &AgentState{
		AgentID:       agentID,
		Enforcement:   Active,
		WindowStartTS: now,
		createdAt:     now,
	}
}

// pendingIDs returns the set of fingerprints currently buffered.
func (s *AgentState) pendingIDs() map[string]struct{} {
	out := make(map[string]struct{}, len(s.NovelPending))
	for _, m := range s.NovelPending {
		out[m.MessageID] = struct{}{}
	}
	return out
}
