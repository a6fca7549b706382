package link

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Network is a provisioned Wi-Fi network.
type Network struct {
	SSID       string
	Passphrase string
}

// AccessPoint is a network seen by a scan.
type AccessPoint struct {
	SSID   string
	Signal int // 0-100
}

// Scanner lists visible access points.
type Scanner interface {
	Scan(ctx context.Context) ([]AccessPoint, error)
}

// SelectNetwork returns the provisioned network with the strongest visible
// signal. It falls back to the first provisioned network when the scan fails
// or none of them are visible, so the connection cycle still runs and the
// Link Layer reports the real outcome.
//
// Ties keep provisioning order.
//
// Returns:
//   - Network: The network to connect to
//   - error: ErrNoNetworks if networks is empty; a wrapped ErrScanFailed
//     alongside the fallback network if the scan failed
func SelectNetwork(ctx context.Context, scanner Scanner, networks []Network) (Network, error) {
	if len(networks) == 0 {
		return Network{}, ErrNoNetworks
	}
	if len(networks) == 1 || scanner == nil {
		return networks[0], nil
	}

	aps, err := scanner.Scan(ctx)
	if err != nil {
		return networks[0], fmt.Errorf("%w: %w", ErrScanFailed, err)
	}

	best := -1
	bestSignal := -1
	for i, n := range networks {
		for _, ap := range aps {
			if ap.SSID == n.SSID && ap.Signal > bestSignal {
				best, bestSignal = i, ap.Signal
			}
		}
	}
	if best < 0 {
		return networks[0], nil
	}
	return networks[best], nil
}

// Scan implements Scanner using nmcli's terse output.
func (n *NMCLI) Scan(ctx context.Context) ([]AccessPoint, error) {
	args := []string{"-t", "-f", "SSID,SIGNAL", "device", "wifi", "list"}
	if n.iface != "" {
		args = append(args, "ifname", n.iface)
	}
	args = append(args, "--rescan", "yes")

	out, err := n.runner.Run(ctx, nmcliBinary, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanFailed, err)
	}
	return parseScan(string(out)), nil
}

// parseScan parses "SSID:SIGNAL" lines. nmcli escapes ':' and '\' inside
// fields with a backslash in terse mode. Hidden networks (empty SSID) are skipped.
func parseScan(out string) []AccessPoint {
	aps := make([]AccessPoint, 0)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		idx := lastUnescapedColon(line)
		if idx < 0 {
			continue
		}
		ssid := unescapeTerse(line[:idx])
		signal, err := strconv.Atoi(line[idx+1:])
		if err != nil || ssid == "" {
			continue
		}
		aps = append(aps, AccessPoint{SSID: ssid, Signal: signal})
	}
	return aps
}

func lastUnescapedColon(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] != ':' {
			continue
		}
		backslashes := 0
		for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
			backslashes++
		}
		if backslashes%2 == 0 {
			return i
		}
	}
	return -1
}

func unescapeTerse(s string) string {
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}
