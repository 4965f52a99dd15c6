package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemorySinkAppendAndQueryAll(t *testing.T) {
	s := NewMemorySink()
	s.Append(NewEvent(time.Unix(1, 0), EventMsgAccepted, "a1"))
	s.Append(NewEvent(time.Unix(2, 0), EventMsgAccepted, "a2"))

	all := s.Query(Filter{})
	assert.Len(t, all, 2)
	assert.Equal(t, 2, s.Len())
}

func TestMemorySinkQueryFiltersByAgent(t *testing.T) {
	s := NewMemorySink()
	s.Append(NewEvent(time.Unix(1, 0), EventMsgAccepted, "a1"))
	s.Append(NewEvent(time.Unix(2, 0), EventMsgRejected, "a2"))
	s.Append(NewEvent(time.Unix(3, 0), EventReportAccepted, "a1"))

	a1Events := s.Query(Filter{AgentID: "a1"})
	assert.Len(t, a1Events, 2)
	for _, e := range a1Events {
		assert.Equal(t, "a1", e.AgentID)
	}
}

func TestMemorySinkPreservesAppendOrder(t *testing.T) {
	s := NewMemorySink()
	s.Append(NewEvent(time.Unix(1, 0), EventMsgAccepted, "a1"))
	s.Append(NewEvent(time.Unix(2, 0), EventAgentThrottled, "a1"))
	s.Append(NewEvent(time.Unix(3, 0), EventAgentQuarantined, "a1"))

	events := s.Query(Filter{AgentID: "a1"})
	require := assert.New(t)
	require.Equal(EventMsgAccepted, events[0].EventType)
	require.Equal(EventAgentThrottled, events[1].EventType)
	require.Equal(EventAgentQuarantined, events[2].EventType)
}

func TestNewEventAssignsUniqueIDs(t *testing.T) {
	e1 := NewEvent(time.Unix(1, 0), EventMsgAccepted, "a1")
	e2 := NewEvent(time.Unix(1, 0), EventMsgAccepted, "a1")
	assert.NotEqual(t, e1.ID, e2.ID)
}
