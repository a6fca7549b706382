package netfsm

// State is the Machine's current position in the connection sequence.
type State int

const (
	StateIdle State = iota
	StateWifiConnecting
	StateWifiFailedRetryable
	StateWifiFailedFatal
	StateWifiConnected
	StateMqttConnecting
	StateMqttFailedRetryable
	StateMqttFailedFatal
	StateMqttConnected
	StateFatal
)

var stateNames = map[State]string{
	StateIdle:                "idle",
	StateWifiConnecting:      "wifi_connecting",
	StateWifiFailedRetryable: "wifi_failed_retryable",
	StateWifiFailedFatal:     "wifi_failed_fatal",
	StateWifiConnected:       "wifi_connected",
	StateMqttConnecting:      "mqtt_connecting",
	StateMqttFailedRetryable: "mqtt_failed_retryable",
	StateMqttFailedFatal:     "mqtt_failed_fatal",
	StateMqttConnected:       "mqtt_connected",
	StateFatal:               "fatal",
}

// String returns the snake_case state name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateMqttConnected || s == StateFatal
}

// Phase returns the connection phase a state belongs to.
func (s State) Phase() Phase {
	switch s {
	case StateWifiConnecting, StateWifiFailedRetryable, StateWifiFailedFatal, StateWifiConnected:
		return PhaseWifi
	case StateMqttConnecting, StateMqttFailedRetryable, StateMqttFailedFatal, StateMqttConnected:
		return PhaseMqtt
	default:
		return PhaseNone
	}
}

// Phase identifies which layer a state or counter belongs to.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseWifi
	PhaseMqtt
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseWifi:
		return "wifi"
	case PhaseMqtt:
		return "mqtt"
	default:
		return "none"
	}
}

// Reason explains why a cycle ended in Fatal.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonWifiSsidNotFound
	ReasonWifiAuthFailed
	ReasonWifiRetriesExhausted
	ReasonMqttAuthRejected
	ReasonMqttServerUnreachable
	ReasonMqttRetriesExhausted
	ReasonCancelled
)

var reasonNames = map[Reason]string{
	ReasonNone:                  "none",
	ReasonWifiSsidNotFound:      "wifi_ssid_not_found",
	ReasonWifiAuthFailed:        "wifi_auth_failed",
	ReasonWifiRetriesExhausted:  "wifi_retries_exhausted",
	ReasonMqttAuthRejected:      "mqtt_auth_rejected",
	ReasonMqttServerUnreachable: "mqtt_server_unreachable",
	ReasonMqttRetriesExhausted:  "mqtt_retries_exhausted",
	ReasonCancelled:             "cancelled",
}

// String returns the snake_case reason name.
func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "unknown"
}

// FailureClass is the Machine's interpretation of a layer outcome.
type FailureClass int

const (
	// ClassPending means the layer is still working.
	ClassPending FailureClass = iota
	ClassSuccess
	ClassRetryableTransient
	// ClassFatalCredential means the credentials were rejected.
	ClassFatalCredential
	// ClassFatalTarget means the network or broker does not exist or cannot be reached.
	ClassFatalTarget
)

// String returns the class name.
func (c FailureClass) String() string {
	switch c {
	case ClassPending:
		return "pending"
	case ClassSuccess:
		return "success"
	case ClassRetryableTransient:
		return "retryable_transient"
	case ClassFatalCredential:
		return "fatal_credential"
	case ClassFatalTarget:
		return "fatal_target"
	default:
		return "unknown"
	}
}

// Fatal reports whether the class bypasses retry.
func (c FailureClass) Fatal() bool {
	return c == ClassFatalCredential || c == ClassFatalTarget
}
