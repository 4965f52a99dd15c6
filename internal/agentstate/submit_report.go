package agentstate

import (
	"time"

	"github.com/ocx/compliance-gateway/internal/audit"
	"github.com/ocx/compliance-gateway/internal/config"
)

// SubmitReport validates a covering English-translation report and, if
// accepted, drains the matching fingerprints from the agent's pending
// set and resets its reporting window. Validation failures are recorded
// as a report failure (reports_rejected_total, a report_rejected audit
// event); whether they also count as a gating violation is controlled by
// ReportRejectionIsViolation. Unlike SendMessage, this handler only blocks
// on Disabled, not Quarantined — a quarantined agent can still report.
func (g *Gateway) SubmitReport(report EnglishReport) Result {
	var result Result
	panicked, panicValue := g.Registry.WithAgent(report.AgentID, func(s *AgentState) {
		now := g.Clock.Now()
		gc := &g.Config.Gateway
		applyCooldown(s, now, gc)

		if s.Enforcement == Disabled {
			result = reject(403, "agent_disabled", "agent is disabled")
			return
		}

		if s.Protocol == nil {
			result = reject(403, "protocol_not_registered", "no protocol registered for this agent")
			return
		}
		if s.Protocol.Name != report.ProtocolName || s.Protocol.Version != report.ProtocolVersion {
			result = reject(403, "protocol_mismatch", "report protocol does not match the agent's registered protocol")
			return
		}

		if reason, detail, ok := validateReport(report, now, gc); !ok {
			g.Metrics.ReportsRejectedTotal.Inc()
			g.Audit.Append(withAudit(audit.NewEvent(now, audit.EventReportRejected, report.AgentID), s.Protocol, reason, map[string]interface{}{
				"detail": detail,
			}))
			g.recordReportViolation(s, now, gc, report.AgentID)
			result = reject(400, reason, detail)
			return
		}

		pending := s.pendingIDs()
		covered := 0
		for _, id := range report.MessageIDs {
			if _, present := pending[id]; present {
				covered++
			}
		}
		denom := s.NovelTotalInWindow
		if denom < 1 {
			denom = 1
		}
		if float64(covered)/float64(denom) < gc.MinCoverage {
			g.Metrics.ReportsRejectedTotal.Inc()
			g.Audit.Append(withAudit(audit.NewEvent(now, audit.EventReportRejected, report.AgentID), s.Protocol, "coverage_below_minimum", map[string]interface{}{
				"covered": covered,
				"total":   denom,
			}))
			g.recordReportViolation(s, now, gc, report.AgentID)
			result = reject(400, "coverage_below_minimum", "reported fingerprints cover less than the required minimum coverage")
			return
		}

		coveredIDs := make(map[string]struct{}, len(report.MessageIDs))
		for _, id := range report.MessageIDs {
			coveredIDs[id] = struct{}{}
		}
		remaining := s.NovelPending[:0:0]
		for _, m := range s.NovelPending {
			if _, drained := coveredIDs[m.MessageID]; !drained {
				remaining = append(remaining, m)
			}
		}
		s.NovelPending = remaining
		s.NovelTotalInWindow = len(remaining)
		s.LastReportAcceptedTS = &now
		s.WindowStartTS = now
		s.MessagesSinceReport = 0

		if s.Enforcement == Throttled {
			applyCooldown(s, now, gc)
		}

		g.Metrics.ReportsSubmittedTotal.Inc()
		g.Audit.Append(withAudit(audit.NewEvent(now, audit.EventReportAccepted, report.AgentID), s.Protocol, "", map[string]interface{}{
			"covered":  covered,
			"coverage": report.Coverage,
		}))
		result = ok(200)
	})
	if panicked {
		return g.recoverHandler(report.AgentID, panicValue)
	}
	if result.OK {
		g.mirrorShadow(report.AgentID)
	}

	return result
}

// recordReportViolation applies the ReportRejectionIsViolation knob: when
// set, a rejected report escalates enforcement the same way an unregistered
// or overdue send does, rather than leaving violation_count untouched.
func (g *Gateway) recordReportViolation(s *AgentState, now time.Time, gc *config.GatewayConfig, agentID string) {
	if !gc.ReportRejectionIsViolation {
		return
	}
	transition, severity := recordViolation(s, now, gc)
	g.Audit.Append(audit.NewEvent(now, audit.EventViolationRecorded, agentID))
	g.Metrics.ComplianceViolationsTotal.WithLabelValues(severity).Inc()
	if transition != "" {
		g.Audit.Append(audit.NewEvent(now, transition, agentID))
	}
}

func validateReport(report EnglishReport, now time.Time, gc *config.GatewayConfig) (reason, detail string, ok bool) {
	if len(report.EnglishSummary) < gc.MinSummaryLength {
		return "summary_too_short", "english_summary is shorter than MIN_SUMMARY_LENGTH", false
	}
	if report.Coverage < gc.MinCoverage {
		return "coverage_below_minimum", "declared coverage is below MIN_COVERAGE", false
	}
	if report.SelfConfidence < 0 || report.SelfConfidence > 1 {
		return "self_confidence_out_of_range", "self_confidence must be within [0,1]", false
	}
	if report.WindowStartTS > report.WindowEndTS {
		return "invalid_timestamp", "window_start_ts must be <= window_end_ts", false
	}
	skew := time.Duration(gc.SkewToleranceSec) * time.Second
	if time.Unix(report.WindowEndTS, 0).After(now.Add(skew)) {
		return "invalid_timestamp", "window_end_ts exceeds allowed future skew", false
	}
	return "", "", true
}
