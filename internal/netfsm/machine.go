package netfsm

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-netfsm/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-netfsm/internal/link"
)

// LinkLayer associates the device with a Wi-Fi network.
// BeginConnect must return immediately; PollStatus must never block.
type LinkLayer interface {
	BeginConnect(ssid, passphrase string) error
	PollStatus() link.Status
}

// BrokerSession performs the MQTT connect handshake.
// BeginConnect must return immediately; PollStatus must never block.
type BrokerSession interface {
	BeginConnect(host string, port int, creds mqtt.Credentials) error
	PollStatus() mqtt.SessionStatus
}

// aborter is optionally implemented by layers that can cancel an attempt.
type aborter interface {
	Abort()
}

// Observer is notified synchronously on every state change. It must not
// block and must not call back into the Machine.
type Observer interface {
	OnTransition(Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Transition)

// OnTransition implements Observer.
func (f ObserverFunc) OnTransition(t Transition) { f(t) }

// Transition describes one state change.
type Transition struct {
	CycleID string
	From    State
	To      State
	Reason  Reason
	Phase   Phase

	// Attempt is the number of BeginConnect calls made for Phase so far.
	Attempt int

	// Backoff is the wait scheduled on entry to a *FailedRetryable state.
	// Zero means the retry budget is spent and the phase fails next.
	Backoff time.Duration

	// Elapsed is the time since the Machine was created.
	Elapsed time.Duration
}

// Broker addresses the MQTT broker for one cycle.
type Broker struct {
	Host        string
	Port        int
	Credentials mqtt.Credentials
}

// Config is everything one connection cycle needs.
type Config struct {
	Network   link.Network
	Broker    Broker
	WifiRetry RetryPolicy
	MqttRetry RetryPolicy
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.Network.SSID == "":
		return fmt.Errorf("%w: ssid is required", ErrInvalidConfig)
	case c.Broker.Host == "":
		return fmt.Errorf("%w: broker host is required", ErrInvalidConfig)
	case c.Broker.Port < 1 || c.Broker.Port > 65535:
		return fmt.Errorf("%w: broker port %d out of range", ErrInvalidConfig, c.Broker.Port)
	case !c.WifiRetry.valid():
		return fmt.Errorf("%w: wifi retry policy %+v", ErrInvalidConfig, c.WifiRetry)
	case !c.MqttRetry.valid():
		return fmt.Errorf("%w: mqtt retry policy %+v", ErrInvalidConfig, c.MqttRetry)
	}
	return nil
}

// Stats summarises a cycle.
type Stats struct {
	WifiAttempts int
	MqttAttempts int
	State        State
	Reason       Reason
	Elapsed      time.Duration
}

// Option configures a Machine.
type Option func(*Machine)

// WithObserver registers the transition observer.
func WithObserver(o Observer) Option {
	return func(m *Machine) { m.observer = o }
}

// WithCycleID overrides the generated cycle identifier.
func WithCycleID(id string) Option {
	return func(m *Machine) { m.cycleID = id }
}

// Machine drives one connection cycle from Idle to a terminal state.
//
// Thread Safety:
//   - Not safe for concurrent use. The goroutine that calls Step owns the
//     Machine; Abort must be called from the same goroutine.
type Machine struct {
	cfg      Config
	link     LinkLayer
	broker   BrokerSession
	clock    Clock
	observer Observer
	cycleID  string

	state  State
	reason Reason

	wifiCount int
	mqttCount int

	// beginErr marks an attempt that could not even start.
	beginErr error

	backoff time.Duration
	retryAt time.Duration
	started time.Duration

	wifiAttempts int
	mqttAttempts int
}

// New creates a Machine in StateIdle.
//
// Returns:
//   - *Machine: Ready for Step
//   - error: ErrMissingDependency or ErrInvalidConfig
func New(cfg Config, wifi LinkLayer, broker BrokerSession, clock Clock, opts ...Option) (*Machine, error) {
	if wifi == nil || broker == nil || clock == nil {
		return nil, ErrMissingDependency
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Machine{
		cfg:     cfg,
		link:    wifi,
		broker:  broker,
		clock:   clock,
		cycleID: uuid.NewString(),
		state:   StateIdle,
		started: clock.Now(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Step advances the Machine by at most one transition and returns the
// resulting state. It never blocks. On a terminal state it does nothing.
func (m *Machine) Step() State {
	switch m.state {
	case StateIdle:
		m.beginWifi(true)

	case StateWifiConnecting:
		m.pollWifi()

	case StateWifiFailedRetryable:
		switch {
		case m.wifiCount > m.cfg.WifiRetry.MaxRetries:
			m.transition(StateWifiFailedFatal, ReasonWifiRetriesExhausted)
		case m.clock.Now() >= m.retryAt:
			m.beginWifi(false)
		}

	case StateWifiFailedFatal:
		m.transition(StateFatal, m.reason)

	case StateWifiConnected:
		m.beginMqtt(true)

	case StateMqttConnecting:
		m.pollMqtt()

	case StateMqttFailedRetryable:
		switch {
		case m.mqttCount > m.cfg.MqttRetry.MaxRetries:
			m.transition(StateMqttFailedFatal, ReasonMqttRetriesExhausted)
		case m.clock.Now() >= m.retryAt:
			m.beginMqtt(false)
		}

	case StateMqttFailedFatal:
		m.transition(StateFatal, m.reason)

	case StateMqttConnected, StateFatal:
	}

	return m.state
}

// Abort ends the cycle with ReasonCancelled. Layers that support it have
// their in-flight attempt cancelled. Terminal states are left alone, and a
// phase that already failed fatally finishes with its own reason.
func (m *Machine) Abort() {
	if m.state.Terminal() {
		return
	}

	switch m.state {
	case StateWifiFailedFatal, StateMqttFailedFatal:
		m.transition(StateFatal, m.reason)
		return
	case StateWifiConnecting:
		if a, ok := m.link.(aborter); ok {
			a.Abort()
		}
	case StateMqttConnecting:
		if a, ok := m.broker.(aborter); ok {
			a.Abort()
		}
	}

	m.transition(StateFatal, ReasonCancelled)
}

// CurrentState returns the active state.
func (m *Machine) CurrentState() State {
	return m.state
}

// LastReason returns the reason carried by the most recent fatal
// transition, or ReasonNone.
func (m *Machine) LastReason() Reason {
	return m.reason
}

// Attempts returns the current retry counter of a phase.
func (m *Machine) Attempts(p Phase) int {
	switch p {
	case PhaseWifi:
		return m.wifiCount
	case PhaseMqtt:
		return m.mqttCount
	default:
		return 0
	}
}

// Stats returns a summary of the cycle so far.
func (m *Machine) Stats() Stats {
	return Stats{
		WifiAttempts: m.wifiAttempts,
		MqttAttempts: m.mqttAttempts,
		State:        m.state,
		Reason:       m.reason,
		Elapsed:      m.clock.Now() - m.started,
	}
}

// CycleID identifies this cycle in logs and history.
func (m *Machine) CycleID() string {
	return m.cycleID
}

// NextRetryIn returns the remaining backoff, or zero outside a
// *FailedRetryable state.
func (m *Machine) NextRetryIn() time.Duration {
	if m.state != StateWifiFailedRetryable && m.state != StateMqttFailedRetryable {
		return 0
	}
	if d := m.retryAt - m.clock.Now(); d > 0 {
		return d
	}
	return 0
}

func (m *Machine) beginWifi(reset bool) {
	if reset {
		m.wifiCount = 0
	}
	m.wifiAttempts++
	m.beginErr = m.link.BeginConnect(m.cfg.Network.SSID, m.cfg.Network.Passphrase)
	m.transition(StateWifiConnecting, ReasonNone)
}

func (m *Machine) beginMqtt(reset bool) {
	if reset {
		m.mqttCount = 0
	}
	m.mqttAttempts++
	b := m.cfg.Broker
	m.beginErr = m.broker.BeginConnect(b.Host, b.Port, b.Credentials)
	m.transition(StateMqttConnecting, ReasonNone)
}

func (m *Machine) pollWifi() {
	class := ClassRetryableTransient
	if m.beginErr == nil {
		class = classifyLink(m.link.PollStatus())
	}
	m.beginErr = nil

	switch class {
	case ClassPending:
	case ClassSuccess:
		m.wifiCount = 0
		m.transition(StateWifiConnected, ReasonNone)
	case ClassFatalCredential:
		m.transition(StateWifiFailedFatal, ReasonWifiAuthFailed)
	case ClassFatalTarget:
		m.transition(StateWifiFailedFatal, ReasonWifiSsidNotFound)
	case ClassRetryableTransient:
		m.wifiCount++
		m.scheduleRetry(m.cfg.WifiRetry, m.wifiCount)
		m.transition(StateWifiFailedRetryable, ReasonNone)
	}
}

func (m *Machine) pollMqtt() {
	class := ClassRetryableTransient
	if m.beginErr == nil {
		class = classifyBroker(m.broker.PollStatus())
	}
	m.beginErr = nil

	switch class {
	case ClassPending:
	case ClassSuccess:
		m.mqttCount = 0
		m.transition(StateMqttConnected, ReasonNone)
	case ClassFatalCredential:
		m.transition(StateMqttFailedFatal, ReasonMqttAuthRejected)
	case ClassFatalTarget:
		m.transition(StateMqttFailedFatal, ReasonMqttServerUnreachable)
	case ClassRetryableTransient:
		m.mqttCount++
		m.scheduleRetry(m.cfg.MqttRetry, m.mqttCount)
		m.transition(StateMqttFailedRetryable, ReasonNone)
	}
}

// scheduleRetry sets the backoff for failure number count. Once the budget
// is spent no retry follows, so no backoff is scheduled.
func (m *Machine) scheduleRetry(p RetryPolicy, count int) {
	m.backoff = 0
	if count <= p.MaxRetries {
		m.backoff = p.Backoff.Delay(count)
	}
	m.retryAt = m.clock.Now() + m.backoff
}

// transition moves to the next state and notifies the observer. A non-empty
// reason is kept for LastReason and carried into Fatal.
func (m *Machine) transition(to State, reason Reason) {
	from := m.state
	mustAllow(from, to)
	m.state = to
	if reason != ReasonNone {
		m.reason = reason
	}

	if m.observer == nil {
		return
	}

	phase := to.Phase()
	if phase == PhaseNone {
		phase = from.Phase()
	}

	t := Transition{
		CycleID: m.cycleID,
		From:    from,
		To:      to,
		Reason:  reason,
		Phase:   phase,
		Elapsed: m.clock.Now() - m.started,
	}
	switch phase {
	case PhaseWifi:
		t.Attempt = m.wifiAttempts
	case PhaseMqtt:
		t.Attempt = m.mqttAttempts
	}
	if to == StateWifiFailedRetryable || to == StateMqttFailedRetryable {
		t.Backoff = m.backoff
	}

	m.observer.OnTransition(t)
}

// classifyLink maps a Link Layer outcome to a failure class. Idle after
// BeginConnect means the attempt was lost and counts as transient.
func classifyLink(s link.Status) FailureClass {
	switch s {
	case link.StatusInProgress:
		return ClassPending
	case link.StatusSuccess:
		return ClassSuccess
	case link.StatusAuthFailed:
		return ClassFatalCredential
	case link.StatusSsidNotFound:
		return ClassFatalTarget
	default:
		return ClassRetryableTransient
	}
}

// classifyBroker maps a Broker Session outcome to a failure class.
func classifyBroker(s mqtt.SessionStatus) FailureClass {
	switch s {
	case mqtt.SessionInProgress:
		return ClassPending
	case mqtt.SessionSuccess:
		return ClassSuccess
	case mqtt.SessionAuthRejected:
		return ClassFatalCredential
	case mqtt.SessionServerUnreachable:
		return ClassFatalTarget
	default:
		return ClassRetryableTransient
	}
}
