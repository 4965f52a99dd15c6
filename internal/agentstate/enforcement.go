package agentstate

import (
	"time"

	"github.com/ocx/compliance-gateway/internal/audit"
	"github.com/ocx/compliance-gateway/internal/config"
)

// applyCooldown is the lazy check run at the start of every handler: if
// enough time has passed since the last violation and at least one
// report has been accepted since then, the agent's violation counter
// resets and it returns to Active. Disabled is terminal and is never
// touched here.
func applyCooldown(s *AgentState, now time.Time, cfg *config.GatewayConfig) {
	if s.Enforcement == Disabled {
		return
	}
	if s.LastViolationTS == nil {
		return
	}

	elapsed := now.Sub(*s.LastViolationTS)
	cooldown := time.Duration(cfg.ViolationCooldownHrs) * time.Hour
	if elapsed < cooldown {
		return
	}

	reportedSince := s.LastReportAcceptedTS != nil && s.LastReportAcceptedTS.After(*s.LastViolationTS)
	if !reportedSince {
		return
	}

	s.ViolationCount = 0
	s.Enforcement = Active
}

// recordViolation increments the violation counter, advances the
// enforcement state machine, and returns the audit event kind (if any)
// for the resulting transition, along with the severity label used by
// the compliance_violations_total metric.
func recordViolation(s *AgentState, now time.Time, cfg *config.GatewayConfig) (transitionEvent string, severity string) {
	s.ViolationCount++
	s.LastViolationTS = &now

	switch {
	case s.ViolationCount >= cfg.MaxViolations:
		s.Enforcement = Disabled
		return audit.EventAgentDisabled, "disabled"
	case s.ViolationCount == 2:
		s.Enforcement = Quarantined
		return audit.EventAgentQuarantined, "quarantined"
	case s.ViolationCount == 1:
		s.Enforcement = Throttled
		return audit.EventAgentThrottled, "throttled"
	default:
		// Reached only when MaxViolations is above 3: counts from 3 up to
		// MaxViolations-1 leave the enforcement state as it is — no new
		// transition.
		return "", "violation"
	}
}
