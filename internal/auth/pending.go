package auth

import (
	"sync"
)

// LoginResult is the terminal outcome of one interactive login flow.
type LoginResult struct {
	// Account is the configured account name the flow was started for.
	Account string
	// Identity is the signed-in user's display identity (UPN or email)
	// taken from the ID token. Empty when Err is set.
	Identity string
	// Err is set when the flow failed or timed out.
	Err error
}

// pendingFlow is one outstanding interactive login, keyed by its state
// value. A flow is completed exactly once; later completions are no-ops.
type pendingFlow struct {
	account string
	ch      chan LoginResult
	settled chan struct{}
	once    sync.Once
}

func (f *pendingFlow) complete(res LoginResult) {
	f.once.Do(func() {
		f.ch <- res
		close(f.settled)
	})
}

// flowTable tracks pending login flows by state value.
type flowTable struct {
	mu    sync.Mutex
	flows map[string]*pendingFlow
}

func newFlowTable() *flowTable {
	return &flowTable{flows: make(map[string]*pendingFlow)}
}

func (t *flowTable) add(state, account string) *pendingFlow {
	flow := &pendingFlow{
		account: account,
		ch:      make(chan LoginResult, 1),
		settled: make(chan struct{}),
	}
	t.mu.Lock()
	t.flows[state] = flow
	t.mu.Unlock()
	return flow
}

// take removes and returns the flow for a state value. The second return
// is false for unknown states, which covers duplicate and stray callbacks.
func (t *flowTable) take(state string) (*pendingFlow, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	flow, ok := t.flows[state]
	if ok {
		delete(t.flows, state)
	}
	return flow, ok
}

func (t *flowTable) remove(state string) {
	t.mu.Lock()
	delete(t.flows, state)
	t.mu.Unlock()
}
