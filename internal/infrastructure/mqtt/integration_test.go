//go:build integration

package mqtt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests against a real broker.
// These tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func waitTerminal(t *testing.T, s *Session, timeout time.Duration) SessionStatus {
	t.Helper()
	var st SessionStatus
	require.Eventually(t, func() bool {
		st = s.PollStatus()
		return st.Terminal()
	}, timeout, 20*time.Millisecond, "session did not finish")
	return st
}

func TestIntegration_ConnectAndPublish(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "netfsm-int-connect"

	s := NewSession(cfg)
	require.NoError(t, s.BeginConnect("127.0.0.1", 1883, Credentials{}))
	defer s.Close()

	require.Equal(t, SessionSuccess, waitTerminal(t, s, 10*time.Second), "err: %v", s.LastError())
	assert.NoError(t, s.PublishRetained(s.Topics().Cycle(cfg.Broker.ClientID), []byte(`{"test":true}`)))
}

func TestIntegration_ClosedPort(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "netfsm-int-closed"
	cfg.ConnectTimeout = 2

	s := NewSession(cfg)
	require.NoError(t, s.BeginConnect("127.0.0.1", 19999, Credentials{}))
	defer s.Close()

	assert.Equal(t, SessionServerUnreachable, waitTerminal(t, s, 10*time.Second), "err: %v", s.LastError())
}
