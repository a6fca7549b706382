package netfsm

import (
	"errors"
	"time"

	"github.com/nerrad567/gray-logic-netfsm/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-netfsm/internal/link"
)

// fakeClock is advanced by hand.
type fakeClock struct {
	now time.Duration
}

func (c *fakeClock) Now() time.Duration     { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now += d }

// fakeLink replays scripted outcomes, one per BeginConnect. Each attempt
// reports InProgress for `pending` polls first. The last outcome repeats.
type fakeLink struct {
	outcomes []link.Status
	pending  int
	beginErr error

	begins    int
	aborts    int
	lastSSID  string
	lastPass  string
	current   link.Status
	remaining int
}

func (f *fakeLink) BeginConnect(ssid, passphrase string) error {
	f.begins++
	f.lastSSID, f.lastPass = ssid, passphrase
	if f.beginErr != nil {
		return f.beginErr
	}
	idx := f.begins - 1
	if idx >= len(f.outcomes) {
		idx = len(f.outcomes) - 1
	}
	f.current = f.outcomes[idx]
	f.remaining = f.pending
	return nil
}

func (f *fakeLink) PollStatus() link.Status {
	if f.begins == 0 {
		return link.StatusIdle
	}
	if f.remaining > 0 {
		f.remaining--
		return link.StatusInProgress
	}
	return f.current
}

func (f *fakeLink) Abort() { f.aborts++ }

// fakeBroker mirrors fakeLink for the MQTT session.
type fakeBroker struct {
	outcomes []mqtt.SessionStatus
	pending  int
	beginErr error

	begins    int
	aborts    int
	lastHost  string
	lastPort  int
	lastCreds mqtt.Credentials
	current   mqtt.SessionStatus
	remaining int
}

func (f *fakeBroker) BeginConnect(host string, port int, creds mqtt.Credentials) error {
	f.begins++
	f.lastHost, f.lastPort, f.lastCreds = host, port, creds
	if f.beginErr != nil {
		return f.beginErr
	}
	idx := f.begins - 1
	if idx >= len(f.outcomes) {
		idx = len(f.outcomes) - 1
	}
	f.current = f.outcomes[idx]
	f.remaining = f.pending
	return nil
}

func (f *fakeBroker) PollStatus() mqtt.SessionStatus {
	if f.begins == 0 {
		return mqtt.SessionIdle
	}
	if f.remaining > 0 {
		f.remaining--
		return mqtt.SessionInProgress
	}
	return f.current
}

func (f *fakeBroker) Abort() { f.aborts++ }

// recorder collects transitions.
type recorder struct {
	transitions []Transition
}

func (r *recorder) OnTransition(t Transition) { r.transitions = append(r.transitions, t) }

func (r *recorder) states() []State {
	out := make([]State, 0, len(r.transitions))
	for _, t := range r.transitions {
		out = append(out, t.To)
	}
	return out
}

var errRadioBusy = errors.New("radio busy")

func testConfig() Config {
	return Config{
		Network: link.Network{SSID: "HomeNet", Passphrase: "correct-horse"},
		Broker: Broker{
			Host:        "broker.local",
			Port:        1883,
			Credentials: mqtt.Credentials{Username: "dev", Password: "pw"},
		},
		WifiRetry: RetryPolicy{
			MaxRetries: 3,
			Backoff:    Backoff{Initial: time.Second, Max: 10 * time.Second, Multiplier: 2},
		},
		MqttRetry: RetryPolicy{
			MaxRetries: 5,
			Backoff:    Backoff{Initial: 2 * time.Second, Max: 30 * time.Second, Multiplier: 2},
		},
	}
}

type harness struct {
	m      *Machine
	link   *fakeLink
	broker *fakeBroker
	clock  *fakeClock
	rec    *recorder
}

func newHarness(cfg Config, l *fakeLink, b *fakeBroker) (*harness, error) {
	h := &harness{link: l, broker: b, clock: &fakeClock{}, rec: &recorder{}}
	m, err := New(cfg, l, b, h.clock, WithObserver(h.rec), WithCycleID("cycle-test"))
	if err != nil {
		return nil, err
	}
	h.m = m
	return h, nil
}

// run steps until terminal, jumping the clock over each backoff.
func (h *harness) run(maxSteps int) State {
	for i := 0; i < maxSteps; i++ {
		st := h.m.Step()
		if st.Terminal() {
			return st
		}
		if d := h.m.NextRetryIn(); d > 0 {
			h.clock.Advance(d)
		}
	}
	return h.m.CurrentState()
}
