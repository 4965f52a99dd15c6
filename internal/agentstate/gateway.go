package agentstate

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/ocx/compliance-gateway/internal/audit"
	"github.com/ocx/compliance-gateway/internal/classifier"
	"github.com/ocx/compliance-gateway/internal/clock"
	"github.com/ocx/compliance-gateway/internal/config"
	"github.com/ocx/compliance-gateway/internal/metrics"
)

// Gateway is the compliance core: it owns the registry, classifier, audit
// sink, and metrics, and exposes the register/report/send request
// handlers.
type Gateway struct {
	Registry   *Registry
	Classifier classifier.Classifier
	Audit      audit.Sink
	Metrics    *metrics.Metrics
	Config     *config.Config
	Clock      clock.Clock

	// Shadow is an optional best-effort mirror of novel_pending state,
	// nil unless Redis mirroring is enabled.
	Shadow *RedisShadow

	logger *log.Logger
	slog   *slog.Logger
}

// NewGateway wires the compliance core from its collaborators, passed in
// rather than reached for as globals.
func NewGateway(cl classifier.Classifier, sink audit.Sink, m *metrics.Metrics, cfg *config.Config, clk clock.Clock) *Gateway {
	return &Gateway{
		Registry:   NewRegistry(clk.Now),
		Classifier: cl,
		Audit:      sink,
		Metrics:    m,
		Config:     cfg,
		Clock:      clk,
		logger:     log.New(log.Writer(), "[COMPLIANCE] ", log.LstdFlags),
		slog:       slog.Default().With("component", "agentstate.Gateway"),
	}
}

// Result is the outcome of a handler call, translated 1:1 into an HTTP
// response by internal/httpapi.
type Result struct {
	Status    int
	OK        bool
	Reason    string
	Detail    string
	MessageID string
}

func ok(status int) Result {
	return Result{Status: status, OK: true}
}

func reject(status int, reason, detail string) Result {
	return Result{Status: status, OK: false, Reason: reason, Detail: detail}
}

// SweepComplianceGauge refreshes the agent_compliance_status gauge for
// every agent currently known to the registry. Cheap enough to run on a
// timer rather than on every mutation: enforcement state changes at human
// timescales, not per-request.
func (g *Gateway) SweepComplianceGauge() {
	for _, agentID := range g.Registry.AgentIDs() {
		snap, ok := g.Registry.Snapshot(agentID)
		if !ok {
			continue
		}
		g.Metrics.AgentComplianceStatus.WithLabelValues(agentID).Set(snap.Enforcement.GaugeValue())
	}
}

// mirrorShadow pushes the agent's post-commit state to Redis if a shadow
// mirror is configured. Called outside the agent lock, after WithAgent has
// already returned, so a slow or failing mirror can never hold up a
// handler response.
func (g *Gateway) mirrorShadow(agentID string) {
	if g.Shadow == nil {
		return
	}
	snap, ok := g.Registry.Snapshot(agentID)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	g.Shadow.Mirror(ctx, snap)
}

// recoverHandler turns a panic caught by Registry.WithAgent into an audit
// trail entry and a 500 result, rather than letting it escape to the
// caller. The agent's state is already guaranteed untouched by WithAgent.
func (g *Gateway) recoverHandler(agentID string, panicValue any) Result {
	g.slog.Error("recovered panic in compliance handler", "agent_id", agentID, "panic", panicValue)
	g.Audit.Append(audit.NewEvent(g.Clock.Now(), audit.EventHandlerPanic, agentID))
	return reject(500, "internal_error", "an internal error occurred processing this request")
}
