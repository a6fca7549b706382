package link

// Status is the outcome of the most recent association attempt.
type Status int

const (
	// StatusIdle means no attempt has been started.
	StatusIdle Status = iota

	// StatusInProgress means an attempt is running; poll again later.
	StatusInProgress

	// StatusSuccess means the interface is associated and has an address.
	StatusSuccess

	// StatusSsidNotFound means the SSID is not visible.
	StatusSsidNotFound

	// StatusAuthFailed means the access point rejected the passphrase.
	StatusAuthFailed

	// StatusOtherFailure covers everything else (timeouts, radio noise, DHCP).
	StatusOtherFailure
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusInProgress:
		return "in_progress"
	case StatusSuccess:
		return "success"
	case StatusSsidNotFound:
		return "ssid_not_found"
	case StatusAuthFailed:
		return "auth_failed"
	case StatusOtherFailure:
		return "other_failure"
	default:
		return "unknown"
	}
}

// Terminal reports whether the attempt has finished.
func (s Status) Terminal() bool {
	return s != StatusIdle && s != StatusInProgress
}
