package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ocx/compliance-gateway/internal/agentstate"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w, map[string]interface{}{"message": "compliance gateway is healthy"})
}

type registerProtocolRequest struct {
	AgentID  string                       `json:"agent_id"`
	Protocol agentstate.ProtocolDescriptor `json:"protocol"`
}

func (s *Server) handleRegisterProtocol(w http.ResponseWriter, r *http.Request) {
	var req registerProtocolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AgentID == "" {
		writeError(w, http.StatusBadRequest, "malformed_request", "request body must be {agent_id, protocol}")
		return
	}

	result := s.gateway.RegisterProtocol(req.AgentID, req.Protocol)
	respond(w, result, nil)
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	var report agentstate.EnglishReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil || report.AgentID == "" {
		writeError(w, http.StatusBadRequest, "malformed_request", "request body is not a valid EnglishReport")
		return
	}

	result := s.gateway.SubmitReport(report)
	respond(w, result, nil)
}

type sendMessageRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Content  string `json:"content"`
	Protocol *struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"protocol,omitempty"`
	TS *int64 `json:"ts,omitempty"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.From == "" || req.To == "" {
		writeError(w, http.StatusBadRequest, "malformed_request", "request body must be {from, to, content}")
		return
	}

	sendReq := agentstate.SendRequest{
		From:    req.From,
		To:      req.To,
		Content: req.Content,
		TS:      req.TS,
	}
	if req.Protocol != nil {
		sendReq.ProtocolRef = &agentstate.ProtocolRef{Name: req.Protocol.Name, Version: req.Protocol.Version}
	}

	result := s.gateway.SendMessage(sendReq)
	respond(w, result, func(body map[string]interface{}) {
		if result.MessageID != "" {
			body["message_id"] = result.MessageID
		}
	})
}

// handleGetAgent is a read-only inspection endpoint for an agent's current
// compliance state, handy for debugging and admin tooling. The verdict it
// reports is computed by the same agentstate.Evaluate the handlers consult
// before admitting a live request, not reimplemented here.
func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["agent_id"]

	snap, found := s.gateway.Registry.Snapshot(agentID)
	if !found {
		writeError(w, http.StatusNotFound, "agent_not_found", "no such agent has been seen by this gateway")
		return
	}

	verdict := agentstate.Evaluate(snap, s.gateway.Clock.Now(), s.gateway.Config)

	writeOK(w, map[string]interface{}{
		"agent_id":              snap.AgentID,
		"enforcement":           snap.Enforcement.String(),
		"violation_count":       snap.ViolationCount,
		"novel_pending":         len(snap.NovelPending),
		"novel_total_in_window": snap.NovelTotalInWindow,
		"messages_since_report": snap.MessagesSinceReport,
		"window_start_ts":       snap.WindowStartTS.Unix(),
		"verdict":               verdict.Reason,
		"would_allow":           verdict.Kind == agentstate.VerdictAllowed,
	})
}

// respond translates an agentstate.Result into the HTTP response body,
// with an optional hook to enrich a successful body before it is written.
func respond(w http.ResponseWriter, result agentstate.Result, enrich func(map[string]interface{})) {
	if !result.OK {
		writeError(w, result.Status, result.Reason, result.Detail)
		return
	}
	body := map[string]interface{}{}
	if enrich != nil {
		enrich(body)
	}
	writeOK(w, body)
}
