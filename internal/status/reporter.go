package status

import (
	"sync"

	"github.com/nerrad567/gray-logic-netfsm/internal/netfsm"
)

// Logger is the subset of logging.Logger the Reporter uses.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Event is a transition plus the status code it produced.
type Event struct {
	netfsm.Transition
	Code Code
}

// Sink receives every Event. Record must return quickly.
type Sink interface {
	Record(Event)
}

// Reporter observes a Machine and publishes its progress.
//
// Thread Safety:
//   - OnTransition is called from the Machine's goroutine; the accessors
//     are safe to call from any goroutine.
type Reporter struct {
	logger    Logger
	indicator Indicator
	sinks     []Sink

	mu     sync.RWMutex
	state  netfsm.State
	reason netfsm.Reason
	code   Code

	indicatorFailed bool
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithIndicator drives a device indicator.
func WithIndicator(i Indicator) Option {
	return func(r *Reporter) { r.indicator = i }
}

// WithSinks adds transition sinks.
func WithSinks(sinks ...Sink) Option {
	return func(r *Reporter) { r.sinks = append(r.sinks, sinks...) }
}

// NewReporter creates a Reporter in the idle state.
func NewReporter(logger Logger, opts ...Option) *Reporter {
	r := &Reporter{
		logger: logger,
		state:  netfsm.StateIdle,
		code:   CodeIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnTransition implements netfsm.Observer.
func (r *Reporter) OnTransition(t netfsm.Transition) {
	code := CodeFor(t.To, t.Reason)

	r.mu.Lock()
	r.state = t.To
	if t.Reason != netfsm.ReasonNone {
		r.reason = t.Reason
	}
	r.code = code
	r.mu.Unlock()

	r.log(t, code)
	r.showColor(ColorFor(t.To))

	ev := Event{Transition: t, Code: code}
	for _, s := range r.sinks {
		s.Record(ev)
	}
}

func (r *Reporter) log(t netfsm.Transition, code Code) {
	args := []any{
		"cycle_id", t.CycleID,
		"from", t.From.String(),
		"to", t.To.String(),
		"phase", t.Phase.String(),
		"attempt", t.Attempt,
		"status_code", int(code),
		"elapsed", t.Elapsed.String(),
	}

	switch t.To {
	case netfsm.StateWifiFailedRetryable, netfsm.StateMqttFailedRetryable:
		if t.Backoff == 0 {
			r.logger.Warn("connection attempt failed, retries exhausted", args...)
			break
		}
		args = append(args, "backoff", t.Backoff.String())
		r.logger.Warn("connection attempt failed, retrying", args...)

	case netfsm.StateWifiFailedFatal, netfsm.StateMqttFailedFatal:
		args = append(args, "reason", t.Reason.String())
		r.logger.Error("connection phase failed", args...)

	case netfsm.StateFatal:
		args = append(args, "reason", t.Reason.String())
		r.logger.Error("network establishment failed", args...)

	case netfsm.StateMqttConnected:
		r.logger.Info("network established", args...)

	default:
		r.logger.Info("network state changed", args...)
	}
}

func (r *Reporter) showColor(c Color) {
	if r.indicator == nil {
		return
	}
	if err := r.indicator.Set(c); err != nil && !r.indicatorFailed {
		// Logged once per Reporter.
		r.indicatorFailed = true
		r.logger.Warn("indicator update failed", "color", c.String(), "error", err)
	}
}

// State returns the last reported state.
func (r *Reporter) State() netfsm.State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Reason returns the last fatal reason, or ReasonNone.
func (r *Reporter) Reason() netfsm.Reason {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reason
}

// Code returns the current status code.
func (r *Reporter) Code() Code {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.code
}

// ExitCode returns the process exit code for the last reported state.
func (r *Reporter) ExitCode() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return ExitCode(r.state, r.reason)
}
