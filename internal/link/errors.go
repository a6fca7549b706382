package link

import "errors"

// Domain-specific errors for link operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAttemptInProgress is returned by BeginConnect while a previous
	// attempt has not reached a terminal status.
	ErrAttemptInProgress = errors.New("link: attempt already in progress")

	// ErrEmptySSID is returned when BeginConnect is called without an SSID.
	ErrEmptySSID = errors.New("link: ssid cannot be empty")

	// ErrNoNetworks is returned by SelectNetwork when nothing is provisioned.
	ErrNoNetworks = errors.New("link: no networks configured")

	// ErrScanFailed is returned when the access point scan fails.
	ErrScanFailed = errors.New("link: scan failed")
)
