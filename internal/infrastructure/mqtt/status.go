package mqtt

// SessionStatus is the outcome of the most recent connect attempt.
type SessionStatus int

const (
	// SessionIdle means BeginConnect has not been called.
	SessionIdle SessionStatus = iota

	// SessionInProgress means the handshake is still running.
	SessionInProgress

	// SessionSuccess means the broker accepted the connection.
	SessionSuccess

	// SessionAuthRejected means the broker refused the credentials.
	SessionAuthRejected

	// SessionServerUnreachable means the broker could not be reached or
	// refused the client outright.
	SessionServerUnreachable

	// SessionOtherFailure covers timeouts, a temporarily unavailable server
	// and anything unrecognised.
	SessionOtherFailure
)

// String returns a human-readable status name.
func (s SessionStatus) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionInProgress:
		return "in_progress"
	case SessionSuccess:
		return "success"
	case SessionAuthRejected:
		return "auth_rejected"
	case SessionServerUnreachable:
		return "server_unreachable"
	case SessionOtherFailure:
		return "other_failure"
	default:
		return "unknown"
	}
}

// Terminal reports whether the attempt has finished.
func (s SessionStatus) Terminal() bool {
	return s != SessionIdle && s != SessionInProgress
}

// Credentials are the MQTT username and password. An empty Username
// connects anonymously.
type Credentials struct {
	Username string
	Password string
}
