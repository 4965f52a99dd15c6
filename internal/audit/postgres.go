package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // registers the "postgres" driver
)

// PostgresSink is an optional durable audit sink, selected via
// AUDIT_BACKEND=postgres. It is never authoritative for decision logic —
// the in-memory registry always answers Query for the request path — it
// exists so an operator can retain the audit trail across restarts.
type PostgresSink struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresSink opens a Postgres connection via the lib/pq driver and
// ensures the audit_events table exists.
func NewPostgresSink(dsn string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: failed to open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("audit: failed to reach postgres: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id           TEXT PRIMARY KEY,
	tenant_id    TEXT NOT NULL DEFAULT 'default',
	ts           TIMESTAMPTZ NOT NULL,
	event_type   TEXT NOT NULL,
	agent_id     TEXT NOT NULL,
	protocol_ref TEXT,
	reason       TEXT,
	details      JSONB
)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("audit: failed to create audit_events table: %w", err)
	}

	return &PostgresSink{db: db, logger: slog.Default().With("component", "audit.PostgresSink")}, nil
}

func (s *PostgresSink) Append(e Event) {
	details, err := json.Marshal(e.Details)
	if err != nil {
		s.logger.Error("failed to marshal audit details", "error", err, "event_id", e.ID)
		details = []byte("{}")
	}

	const insert = `
INSERT INTO audit_events (id, tenant_id, ts, event_type, agent_id, protocol_ref, reason, details)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := s.db.Exec(insert, e.ID, e.TenantID, e.Timestamp, e.EventType, e.AgentID, e.ProtocolRef, e.Reason, details); err != nil {
		s.logger.Error("failed to append audit event", "error", err, "event_id", e.ID)
	}
}

func (s *PostgresSink) Query(f Filter) []Event {
	var rows *sql.Rows
	var err error
	if f.AgentID == "" {
		rows, err = s.db.Query(`SELECT id, tenant_id, ts, event_type, agent_id, protocol_ref, reason, details FROM audit_events ORDER BY ts`)
	} else {
		rows, err = s.db.Query(`SELECT id, tenant_id, ts, event_type, agent_id, protocol_ref, reason, details FROM audit_events WHERE agent_id = $1 ORDER BY ts`, f.AgentID)
	}
	if err != nil {
		s.logger.Error("failed to query audit events", "error", err)
		return nil
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var protocolRef, reason sql.NullString
		var details []byte
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Timestamp, &e.EventType, &e.AgentID, &protocolRef, &reason, &details); err != nil {
			s.logger.Error("failed to scan audit event", "error", err)
			continue
		}
		e.ProtocolRef = protocolRef.String
		e.Reason = reason.String
		if len(details) > 0 {
			_ = json.Unmarshal(details, &e.Details)
		}
		out = append(out, e)
	}
	return out
}

// Close releases the underlying database connection.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}
