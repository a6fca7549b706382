package status

import "github.com/nerrad567/gray-logic-netfsm/internal/netfsm"

// Code is the numeric network status exposed to the application and used
// as the process exit code for fatal outcomes.
type Code int

// Progress codes.
const (
	CodeIdle                Code = 0
	CodeWifiConnecting      Code = 1
	CodeWifiFailedRetryable Code = 2
	CodeMqttConnecting      Code = 3
	CodeMqttFailedRetryable Code = 4
	CodeWifiConnected       Code = 20
	CodeMqttConnected       Code = 21
)

// Fatal codes, one per reason.
const (
	CodeWifiRetriesExhausted  Code = 10
	CodeMqttRetriesExhausted  Code = 11
	CodeMqttAuthRejected      Code = 13
	CodeWifiSsidNotFound      Code = 14
	CodeWifiAuthFailed        Code = 15
	CodeMqttServerUnreachable Code = 16
	CodeCancelled             Code = 17
	CodeFatalUnknown          Code = 19
)

// exitGeneric is returned by ExitCode for non-terminal outcomes.
const exitGeneric = 1

var reasonCodes = map[netfsm.Reason]Code{
	netfsm.ReasonWifiRetriesExhausted:  CodeWifiRetriesExhausted,
	netfsm.ReasonMqttRetriesExhausted:  CodeMqttRetriesExhausted,
	netfsm.ReasonMqttAuthRejected:      CodeMqttAuthRejected,
	netfsm.ReasonWifiSsidNotFound:      CodeWifiSsidNotFound,
	netfsm.ReasonWifiAuthFailed:        CodeWifiAuthFailed,
	netfsm.ReasonMqttServerUnreachable: CodeMqttServerUnreachable,
	netfsm.ReasonCancelled:             CodeCancelled,
}

// CodeFor returns the status code for a state. Fatal states are coded by
// reason.
func CodeFor(state netfsm.State, reason netfsm.Reason) Code {
	switch state {
	case netfsm.StateIdle:
		return CodeIdle
	case netfsm.StateWifiConnecting:
		return CodeWifiConnecting
	case netfsm.StateWifiFailedRetryable:
		return CodeWifiFailedRetryable
	case netfsm.StateWifiConnected:
		return CodeWifiConnected
	case netfsm.StateMqttConnecting:
		return CodeMqttConnecting
	case netfsm.StateMqttFailedRetryable:
		return CodeMqttFailedRetryable
	case netfsm.StateMqttConnected:
		return CodeMqttConnected
	}

	if code, ok := reasonCodes[reason]; ok {
		return code
	}
	return CodeFatalUnknown
}

// IsFatal reports whether the state ends or is about to end the cycle in failure.
func IsFatal(state netfsm.State) bool {
	return state == netfsm.StateFatal ||
		state == netfsm.StateWifiFailedFatal ||
		state == netfsm.StateMqttFailedFatal
}

// ExitCode maps a state to a process exit code: 0 for MqttConnected, the
// status code for fatal outcomes, 1 otherwise.
func ExitCode(state netfsm.State, reason netfsm.Reason) int {
	switch {
	case state == netfsm.StateMqttConnected:
		return 0
	case IsFatal(state):
		return int(CodeFor(state, reason))
	default:
		return exitGeneric
	}
}
