package services

import (
	"sync"
	"time"
)

// State is the generation lifecycle of one conversation.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateStored     State = "stored"
	StateModifying  State = "modifying"
	StateFailed     State = "failed"
)

// failedStateTTL is how long a failure stays visible before the state falls
// back to what the store shows.
const failedStateTTL = 15 * time.Minute

// stateTracker holds in-flight states and recent failures. Stored
// conversations are not tracked: they, and any conversation it has not seen,
// are resolved from the store as stored when a version exists and idle
// otherwise.
type stateTracker struct {
	mu     sync.RWMutex
	states map[string]trackedState
	now    func() time.Time
}

type trackedState struct {
	state State
	at    time.Time
}

func newStateTracker() *stateTracker {
	return &stateTracker{states: make(map[string]trackedState), now: time.Now}
}

func (t *stateTracker) set(conversationID string, s State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for id, ts := range t.states {
		if ts.state == StateFailed && now.Sub(ts.at) >= failedStateTTL {
			delete(t.states, id)
		}
	}
	if s == StateStored || s == StateIdle {
		delete(t.states, conversationID)
		return
	}
	t.states[conversationID] = trackedState{state: s, at: now}
}

func (t *stateTracker) get(conversationID string) (State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ts, ok := t.states[conversationID]
	if !ok || (ts.state == StateFailed && t.now().Sub(ts.at) >= failedStateTTL) {
		return "", false
	}
	return ts.state, true
}

func (t *stateTracker) size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.states)
}

// keyedMutex serializes work per conversation id. Entries are dropped once no
// goroutine holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
