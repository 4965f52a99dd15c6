package agentstate

import (
	"hash/fnv"
	"sync"
	"time"
)

// shardCount governs contention: operations on agents hashing to distinct
// shards never contend for the same RWMutex, keeping lookup cheap under
// many concurrent agents.
const shardCount = 32

type entry struct {
	mu    sync.Mutex
	state *AgentState
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// Registry maps agent_id to AgentState with per-agent mutual exclusion.
// Lookup and get-or-create are atomic; once an agent's lock is held, its
// state is read and written without additional synchronization. No
// cross-agent lock is ever held at the same time as another, so no
// deadlock is possible by construction.
type Registry struct {
	shards [shardCount]*shard
	clock  func() time.Time
}

// NewRegistry creates an empty, sharded agent registry. clockFn supplies
// the timestamp used to lazily initialize a freshly-created AgentState.
func NewRegistry(clockFn func() time.Time) *Registry {
	r := &Registry{clock: clockFn}
	for i := range r.shards {
		r.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return r
}

func (r *Registry) shardFor(agentID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(agentID))
	return r.shards[h.Sum32()%shardCount]
}

// WithAgent performs fn under the exclusive lock of agentID's state,
// creating the state lazily on first reference. fn may freely read and
// mutate *AgentState; the mutation is only durable if fn returns without
// panicking — a recovered panic leaves the prior state untouched and is
// reported back via panicked/panicValue.
func (r *Registry) WithAgent(agentID string, fn func(s *AgentState)) (panicked bool, panicValue any) {
	sh := r.shardFor(agentID)

	// Fast path: the entry already exists — acquire it under a read lock
	// on the shard, then release the shard lock before taking the agent's
	// own lock (the shard lock is never held while the agent lock is).
	sh.mu.RLock()
	e, ok := sh.entries[agentID]
	sh.mu.RUnlock()

	if !ok {
		sh.mu.Lock()
		e, ok = sh.entries[agentID]
		if !ok {
			e = &entry{state: NewAgentState(agentID, r.clock())}
			sh.entries[agentID] = e
		}
		sh.mu.Unlock()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Operate on a scratch copy so a panic inside fn cannot leave a
	// half-mutated AgentState visible to the next caller.
	scratch := *e.state
	scratch.NovelPending = append([]NovelMessage(nil), e.state.NovelPending...)

	defer func() {
		if rec := recover(); rec != nil {
			panicked = true
			panicValue = rec
			return
		}
		e.state = &scratch
	}()

	fn(&scratch)
	return false, nil
}

// Snapshot returns a copy of the agent's current state without taking the
// write path — used by read-only inspection endpoints. Still goes through
// the per-agent lock so it never observes a torn write.
func (r *Registry) Snapshot(agentID string) (AgentState, bool) {
	sh := r.shardFor(agentID)
	sh.mu.RLock()
	e, ok := sh.entries[agentID]
	sh.mu.RUnlock()
	if !ok {
		return AgentState{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	cp := *e.state
	cp.NovelPending = append([]NovelMessage(nil), e.state.NovelPending...)
	return cp, true
}

// AgentIDs returns every agent_id currently known to the registry. Used by
// Gateway.SweepComplianceGauge to refresh the per-agent compliance gauge.
func (r *Registry) AgentIDs() []string {
	var out []string
	for _, sh := range r.shards {
		sh.mu.RLock()
		for id := range sh.entries {
			out = append(out, id)
		}
		sh.mu.RUnlock()
	}
	return out
}
