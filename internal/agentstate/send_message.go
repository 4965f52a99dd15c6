package agentstate

import (
	"time"

	"github.com/ocx/compliance-gateway/internal/audit"
	"github.com/ocx/compliance-gateway/internal/config"
)

// SendRequest is the input to SendMessage.
type SendRequest struct {
	From        string
	To          string
	Content     string
	ProtocolRef *ProtocolRef
	TS          *int64 // unix seconds; defaults to now if nil
}

// ProtocolRef is the optional (name, version) a sender can attach to a
// send request, checked against the agent's registered protocol.
type ProtocolRef struct {
	Name    string
	Version string
}

// SendMessage classifies, validates, and (if admitted) records an
// outbound message under the sender's agent lock.
func (g *Gateway) SendMessage(req SendRequest) Result {
	var result Result
	panicked, panicValue := g.Registry.WithAgent(req.From, func(s *AgentState) {
		now := g.Clock.Now()
		gc := &g.Config.Gateway
		applyCooldown(s, now, gc)

		// Evaluate is the authoritative gating judgment. SendMessage layers on
		// what a read-only snapshot can't decide: the English/novel split,
		// the request's own protocol ref, and the throttle rate.
		verdict := Evaluate(*s, now, g.Config)
		switch verdict.Kind {
		case VerdictDisabled:
			g.Audit.Append(withAudit(audit.NewEvent(now, audit.EventMsgRejected, req.From), s.Protocol, verdict.Reason, nil))
			result = reject(403, verdict.Reason, "agent is disabled")
			return
		case VerdictQuarantined:
			g.Audit.Append(withAudit(audit.NewEvent(now, audit.EventMsgRejected, req.From), s.Protocol, verdict.Reason, nil))
			result = reject(403, verdict.Reason, "agent is quarantined")
			return
		}

		if g.Classifier.IsEnglish(req.Content) {
			g.Metrics.EnglishMessagesTotal.Inc()
			g.Audit.Append(withAudit(audit.NewEvent(now, audit.EventMsgAccepted, req.From), s.Protocol, "", map[string]interface{}{
				"classification": "english",
				"to":             req.To,
			}))
			result = ok(200)
			return
		}

		refMismatch := s.Protocol != nil && req.ProtocolRef != nil && !protocolMatches(s.Protocol, req.ProtocolRef)
		if verdict.Kind == VerdictProtocolMissing || refMismatch {
			transition, severity := recordViolation(s, now, gc)
			g.Audit.Append(withAudit(audit.NewEvent(now, audit.EventMsgRejected, req.From), s.Protocol, "protocol_not_registered", nil))
			g.Audit.Append(audit.NewEvent(now, audit.EventViolationRecorded, req.From))
			g.Metrics.ComplianceViolationsTotal.WithLabelValues(severity).Inc()
			if transition != "" {
				g.Audit.Append(audit.NewEvent(now, transition, req.From))
			}
			result = reject(403, "protocol_not_registered", "agent has no matching registered protocol")
			return
		}

		if verdict.Kind == VerdictReportRequired {
			transition, severity := recordViolation(s, now, gc)
			g.Audit.Append(withAudit(audit.NewEvent(now, audit.EventMsgRejected, req.From), s.Protocol, verdict.Reason, nil))
			g.Audit.Append(audit.NewEvent(now, audit.EventViolationRecorded, req.From))
			g.Metrics.ComplianceViolationsTotal.WithLabelValues(severity).Inc()
			if transition != "" {
				g.Audit.Append(audit.NewEvent(now, transition, req.From))
			}
			result = reject(429, verdict.Reason, "agent must submit a covering report before sending more novel messages")
			return
		}

		if s.Enforcement == Throttled && throttleExceeded(s, now, gc) {
			g.Audit.Append(withAudit(audit.NewEvent(now, audit.EventMsgRejected, req.From), s.Protocol, "throttled", nil))
			result = reject(429, "throttled", "agent is throttled; slow down novel-language sends")
			return
		}

		ts := now.UnixNano()
		if req.TS != nil {
			ts = time.Unix(*req.TS, 0).UnixNano()
		}
		messageID, err := Fingerprint(req.From, ts, req.Content)
		if err != nil {
			result = reject(500, "internal_error", "failed to compute message fingerprint")
			return
		}

		wasFreshWindow := s.NovelTotalInWindow == 0
		s.NovelPending = append(s.NovelPending, NovelMessage{MessageID: messageID, SentAt: now})
		s.NovelTotalInWindow++
		s.MessagesSinceReport++
		if wasFreshWindow {
			s.WindowStartTS = now
		}

		g.Metrics.NovelMessagesTotal.Inc()
		g.Audit.Append(withAudit(audit.NewEvent(now, audit.EventMsgAccepted, req.From), s.Protocol, "", map[string]interface{}{
			"classification": "novel",
			"to":             req.To,
			"message_id":     messageID,
		}))
		result = Result{Status: 200, OK: true, MessageID: messageID}
	})
	if panicked {
		return g.recoverHandler(req.From, panicValue)
	}
	if result.OK {
		g.mirrorShadow(req.From)
	}

	return result
}

func protocolMatches(p *ProtocolDescriptor, ref *ProtocolRef) bool {
	return p.Name == ref.Name && p.Version == ref.Version
}

// throttleExceeded reports whether the agent has already sent
// ThrottleRate novel messages within the trailing ThrottleWindowSec
// while in the Throttled enforcement state.
func throttleExceeded(s *AgentState, now time.Time, gc *config.GatewayConfig) bool {
	window := time.Duration(gc.ThrottleWindowSec) * time.Second
	count := 0
	for _, m := range s.NovelPending {
		if now.Sub(m.SentAt) <= window {
			count++
		}
	}
	return count >= gc.ThrottleRate
}
