package agentstate

import "github.com/ocx/compliance-gateway/internal/audit"

// RegisterProtocol validates, then atomically assigns or replaces the
// agent's protocol descriptor. Re-registering the same (agent, name) is
// idempotent — it updates version and metadata without resetting windows
// or violations.
func (g *Gateway) RegisterProtocol(agentID string, desc ProtocolDescriptor) Result {
	if reason, valid := desc.Validate(); !valid {
		return reject(400, reason, "protocol descriptor failed validation: "+reason)
	}

	var result Result
	panicked, panicValue := g.Registry.WithAgent(agentID, func(s *AgentState) {
		now := g.Clock.Now()
		applyCooldown(s, now, &g.Config.Gateway)

		if s.Enforcement == Disabled {
			result = reject(403, "agent_disabled", "agent is disabled and cannot register protocols")
			return
		}

		s.Protocol = &desc

		g.Audit.Append(withAudit(audit.NewEvent(now, audit.EventProtocolRegistered, agentID), &desc, "", map[string]interface{}{
			"protocol_name":    desc.Name,
			"protocol_version": desc.Version,
			"risk_tier":        string(desc.RiskTier),
		}))

		result = ok(200)
	})
	if panicked {
		return g.recoverHandler(agentID, panicValue)
	}

	return result
}

func withAudit(e audit.Event, p *ProtocolDescriptor, reason string, details map[string]interface{}) audit.Event {
	if p != nil {
		e.ProtocolRef = p.Name + "@" + p.Version
	}
	e.Reason = reason
	e.Details = details
	return e
}
