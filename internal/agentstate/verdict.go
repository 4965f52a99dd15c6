package agentstate

import (
	"time"

	"github.com/ocx/compliance-gateway/internal/config"
)

// VerdictKind is the compliance evaluator's classification of an agent's
// current standing.
type VerdictKind int

const (
	VerdictAllowed VerdictKind = iota
	VerdictReportRequired
	VerdictProtocolMissing
	VerdictQuarantined
	VerdictDisabled
)

// Verdict is a read-only snapshot judgment: it never mutates AgentState.
// SendMessage gates every send on it and then layers on content
// classification, the request's protocol ref, the throttle rate, and the
// state mutation; the inspection endpoint and tests consult it directly.
type Verdict struct {
	Kind   VerdictKind
	Reason string
}

// Evaluate computes a verdict for a would-be novel send from a snapshot,
// without mutating it. SendMessage calls it under the agent lock; read-only
// inspection endpoints and tests call it on a snapshot.
func Evaluate(s AgentState, now time.Time, cfg *config.Config) Verdict {
	switch s.Enforcement {
	case Disabled:
		return Verdict{Kind: VerdictDisabled, Reason: "agent_disabled"}
	case Quarantined:
		return Verdict{Kind: VerdictQuarantined, Reason: "agent_quarantined"}
	}

	if s.Protocol == nil {
		return Verdict{Kind: VerdictProtocolMissing, Reason: "protocol_not_registered"}
	}

	tier := cfg.TierFor(string(s.Protocol.RiskTier))
	if overdue(s, now, tier) {
		return Verdict{Kind: VerdictReportRequired, Reason: "report_overdue"}
	}

	return Verdict{Kind: VerdictAllowed}
}

// overdue applies the reporting-freshness test, including the carve-out
// that the first novel message after a fresh window is always admitted.
// WindowStartTS is reset by each accepted report and again by the first
// novel message of an empty window; MessagesSinceReport counts novel
// messages since the last accepted report (or since the first one, if none
// has ever been accepted) — so a never-reported agent is judged by the same
// interval/count thresholds as one that reported long ago, not flagged
// overdue outright.
func overdue(s AgentState, now time.Time, tier config.TierThresholds) bool {
	if s.NovelTotalInWindow == 0 {
		return false
	}
	if now.Sub(s.WindowStartTS) > time.Duration(tier.ReportIntervalSec)*time.Second {
		return true
	}
	if s.MessagesSinceReport+1 > tier.ReportEveryNMessages {
		return true
	}
	return false
}
