package goSession

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Manager defines a public type used by goSession APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	config     Config
	client     AuthClient
	store      CredentialStore
	instanceID string

	metrics *Metrics
	audit   *auditDispatcher

	mu          sync.Mutex
	state       SessionState
	generation  uint64
	subscribers map[uint64]chan SessionState
	nextSubID   uint64
	closed      bool

	// timerCancel is non-nil iff both background timers are running.
	timerCancel chan struct{}
	timerWG     sync.WaitGroup

	flight singleflight.Group
}

// InstanceID describes the instanceid operation and its observable behavior.
//
// InstanceID may return an error when input validation, dependency calls, or security checks fail.
// InstanceID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) InstanceID() string {
	if m == nil {
		return ""
	}
	return m.instanceID
}

// CurrentState describes the currentstate operation and its observable behavior.
//
// CurrentState may return an error when input validation, dependency calls, or security checks fail.
// CurrentState does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) CurrentState() SessionState {
	if m == nil {
		return stateUnauthenticated()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated describes the isauthenticated operation and its observable behavior.
//
// IsAuthenticated may return an error when input validation, dependency calls, or security checks fail.
// IsAuthenticated does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) IsAuthenticated() bool {
	return m.CurrentState().IsAuthenticated()
}

// CurrentUser describes the currentuser operation and its observable behavior.
//
// CurrentUser may return an error when input validation, dependency calls, or security checks fail.
// CurrentUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) CurrentUser() *User {
	return m.CurrentState().User.clone()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return m.metrics.Snapshot()
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) AuditDropped() uint64 {
	if m == nil || m.audit == nil {
		return 0
	}
	return m.audit.Dropped()
}

func (m *Manager) metricInc(id MetricID) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Inc(id)
}

// Subscribe registers an observer of session state transitions. The
// returned channel immediately carries the current state, then every
// subsequent transition. The cancel function unregisters the observer and
// closes the channel; it is safe to call more than once.
func (m *Manager) Subscribe() (<-chan SessionState, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan SessionState, m.config.Subscriber.Buffer)
	if m.closed {
		close(ch)
		return ch, func() {}
	}

	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = ch
	ch <- m.state

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if c, ok := m.subscribers[id]; ok {
				delete(m.subscribers, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

func (m *Manager) ready() error {
	if m == nil {
		return ErrManagerNotReady
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrManagerClosed
	}
	return nil
}

func (m *Manager) currentGen() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// beginAuthenticating enters the transient authenticating phase and
// returns the generation the in-flight operation belongs to.
func (m *Manager) beginAuthenticating() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyStateLocked(stateAuthenticating())
	return m.generation
}

// setState applies a state transition if the manager is still open and no
// logout or dispose happened since gen was captured. It reports whether
// the transition was applied; stale results are counted and discarded.
func (m *Manager) setState(gen uint64, st SessionState) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.generation {
		m.metrics.Inc(MetricStaleResultDiscarded)
		return false
	}
	m.applyStateLocked(st)
	return true
}

// applyStateLocked is the single transition point: it swaps the state,
// synchronizes both background timers with the authenticated invariant,
// and fans the new state out to subscribers. Callers hold m.mu.
func (m *Manager) applyStateLocked(st SessionState) {
	wasAuthenticated := m.state.Phase == PhaseAuthenticated
	m.state = st

	if st.Phase == PhaseAuthenticated {
		if !wasAuthenticated {
			m.startTimersLocked()
		}
	} else if m.timerCancel != nil {
		m.stopTimersLocked()
	}

	for _, ch := range m.subscribers {
		select {
		case ch <- st:
			continue
		default:
		}
		// Full buffer: shed the oldest pending state so observers always
		// converge on the latest one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
			m.metrics.Inc(MetricSubscriberDropped)
		}
	}
}

// Close tears the manager down: cancels both timers, invalidates pending
// operation results, unblocks subscribers, and drains the audit
// dispatcher. The manager is unusable afterwards.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.generation++
	m.stopTimersLocked()
	subs := m.subscribers
	m.subscribers = map[uint64]chan SessionState{}
	m.mu.Unlock()

	m.timerWG.Wait()
	for _, ch := range subs {
		close(ch)
	}
	if m.audit != nil {
		m.audit.Close()
	}
}
