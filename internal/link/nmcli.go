package link

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"
)

// nmcli constants.
const (
	nmcliBinary = "nmcli"

	// waitGrace is added to the nmcli --wait value for the command context,
	// so nmcli reports its own timeout before we kill it.
	waitGrace = 5 * time.Second

	// nmcli exit codes (see nmcli(1) EXIT STATUS).
	exitTimeout          = 3
	exitActivationFailed = 4
	exitNotFound         = 10
)

// Substrings of nmcli output that identify a failure class. Matched lowercase.
var (
	ssidNotFoundMarkers = []string{
		"no network with ssid",
	}
	authFailedMarkers = []string{
		"secrets were required",
		"802-11-wireless-security.psk",
		"property is invalid",
		"authentication failed",
		"wrong password",
	}
)

// NMCLI is a Link Layer backed by NetworkManager.
//
// Thread Safety:
//   - Methods are safe to call from multiple goroutines, but the net FSM
//     drives it from a single loop.
type NMCLI struct {
	runner  Runner
	iface   string
	timeout time.Duration

	mu     sync.Mutex
	status Status
	result chan Status
	cancel context.CancelFunc
}

// NewNMCLI creates a Link Layer for the given wireless interface.
//
// Parameters:
//   - runner: Command runner (ExecRunner in production)
//   - iface: Wireless interface name (e.g., "wlan0"); empty lets nmcli pick
//   - timeout: Upper bound for a single association attempt
func NewNMCLI(runner Runner, iface string, timeout time.Duration) *NMCLI {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NMCLI{
		runner:  runner,
		iface:   iface,
		timeout: timeout,
		status:  StatusIdle,
	}
}

// BeginConnect starts an association attempt and returns immediately.
//
// Returns:
//   - error: ErrAttemptInProgress if the previous attempt is still running,
//     ErrEmptySSID if ssid is empty
func (n *NMCLI) BeginConnect(ssid, passphrase string) error {
	if ssid == "" {
		return ErrEmptySSID
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.collectLocked()
	if n.status == StatusInProgress {
		return ErrAttemptInProgress
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout+waitGrace)
	result := make(chan Status, 1)
	args := n.connectArgs(ssid, passphrase)

	go func() {
		out, err := n.runner.Run(ctx, nmcliBinary, args...)
		if ctx.Err() != nil && err != nil {
			result <- StatusOtherFailure
			return
		}
		result <- classifyConnect(out, err)
	}()

	n.status = StatusInProgress
	n.result = result
	n.cancel = cancel
	return nil
}

// PollStatus reports the current attempt's status without blocking.
func (n *NMCLI) PollStatus() Status {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.collectLocked()
	return n.status
}

// Abort cancels a running attempt. The attempt reports StatusOtherFailure.
func (n *NMCLI) Abort() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.status != StatusInProgress {
		return
	}
	n.cancel()
	n.status = StatusOtherFailure
	n.result = nil
	n.cancel = nil
}

// collectLocked moves a finished result from the worker into status.
func (n *NMCLI) collectLocked() {
	if n.status != StatusInProgress || n.result == nil {
		return
	}
	select {
	case s := <-n.result:
		n.status = s
		n.cancel()
		n.result = nil
		n.cancel = nil
	default:
	}
}

func (n *NMCLI) connectArgs(ssid, passphrase string) []string {
	secs := int(n.timeout / time.Second)
	if secs < 1 {
		secs = 1
	}
	args := []string{"--wait", strconv.Itoa(secs), "device", "wifi", "connect", ssid}
	if passphrase != "" {
		args = append(args, "password", passphrase)
	}
	if n.iface != "" {
		args = append(args, "ifname", n.iface)
	}
	return args
}

// exitCoder matches *exec.ExitError and test doubles.
type exitCoder interface {
	ExitCode() int
}

// classifyConnect maps nmcli output and exit status to a Status.
func classifyConnect(out []byte, err error) Status {
	if err == nil {
		return StatusSuccess
	}

	text := strings.ToLower(string(out))
	for _, m := range ssidNotFoundMarkers {
		if strings.Contains(text, m) {
			return StatusSsidNotFound
		}
	}
	for _, m := range authFailedMarkers {
		if strings.Contains(text, m) {
			return StatusAuthFailed
		}
	}

	var ec exitCoder
	if errors.As(err, &ec) {
		switch ec.ExitCode() {
		case exitNotFound:
			return StatusSsidNotFound
		case exitTimeout, exitActivationFailed:
			return StatusOtherFailure
		}
	}

	return StatusOtherFailure
}
