package netfsm

import (
	"context"
	"time"
)

// DefaultStepInterval is the polling cadence used when Run is given none.
const DefaultStepInterval = 100 * time.Millisecond

// Run steps m every interval until it reaches a terminal state. When ctx
// is done first, the cycle is aborted and ends in StateFatal with
// ReasonCancelled.
func Run(ctx context.Context, m *Machine, interval time.Duration) State {
	if interval <= 0 {
		interval = DefaultStepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if st := m.Step(); st.Terminal() {
			return st
		}

		select {
		case <-ctx.Done():
			m.Abort()
			return m.CurrentState()
		case <-ticker.C:
		}
	}
}
