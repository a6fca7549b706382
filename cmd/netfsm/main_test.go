package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-netfsm/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-netfsm/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-netfsm/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-netfsm/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-netfsm/internal/link"
	"github.com/nerrad567/gray-logic-netfsm/internal/netfsm"
	"github.com/nerrad567/gray-logic-netfsm/internal/status"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	code, err := run(ctx, options{configPath: "/nonexistent/path/netfsm.yaml", once: true})
	assert.Error(t, err)
	assert.Equal(t, 1, code)
}

// TestRun_ConfigWithoutNetworks verifies validation errors stop startup.
func TestRun_ConfigWithoutNetworks(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "netfsm.yaml")
	content := `
device:
  id: test-device
mqtt:
  broker:
    host: "127.0.0.1"
    port: 1883
    client_id: test-device
logging:
  level: error
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))

	code, err := run(context.Background(), options{configPath: configPath, once: true})
	assert.Error(t, err)
	assert.Equal(t, 1, code)
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("NETFSM_CONFIG", "")
	assert.Equal(t, defaultConfigPath, getConfigPath())

	t.Setenv("NETFSM_CONFIG", "/etc/netfsm/netfsm.yaml")
	assert.Equal(t, "/etc/netfsm/netfsm.yaml", getConfigPath())
}

func TestMachineConfig(t *testing.T) {
	cfg := &config.Config{
		MQTT: config.MQTTConfig{
			Broker: config.MQTTBrokerConfig{Host: "broker.local", Port: 8883},
			Auth:   config.MQTTAuthConfig{Username: "dev", Password: "pw"},
			Retry:  config.RetryConfig{MaxRetries: 5, InitialDelay: 2, MaxDelay: 30, Multiplier: 2},
		},
		WiFi: config.WiFiConfig{
			Retry: config.RetryConfig{MaxRetries: 3, InitialDelay: 1, MaxDelay: 10, Multiplier: 2},
		},
	}
	network := link.Network{SSID: "HomeNet", Passphrase: "s3cr3t-pass"}

	got := machineConfig(cfg, network)

	require.NoError(t, got.Validate())
	assert.Equal(t, network, got.Network)
	assert.Equal(t, "broker.local", got.Broker.Host)
	assert.Equal(t, 8883, got.Broker.Port)
	assert.Equal(t, "dev", got.Broker.Credentials.Username)
	assert.Equal(t, "pw", got.Broker.Credentials.Password)

	want := netfsm.RetryPolicy{
		MaxRetries: 3,
		Backoff:    netfsm.Backoff{Initial: time.Second, Max: 10 * time.Second, Multiplier: 2},
	}
	assert.Equal(t, want, got.WifiRetry)
	assert.Equal(t, 5, got.MqttRetry.MaxRetries)
	assert.Equal(t, 30*time.Second, got.MqttRetry.Backoff.Max)
}

func TestNetworksFrom(t *testing.T) {
	got := networksFrom([]config.NetworkConfig{
		{SSID: "Primary", Passphrase: "password-1"},
		{SSID: "Open"},
	})
	assert.Equal(t, []link.Network{
		{SSID: "Primary", Passphrase: "password-1"},
		{SSID: "Open"},
	}, got)
}

func TestCycleSummary(t *testing.T) {
	stats := netfsm.Stats{
		WifiAttempts: 2,
		MqttAttempts: 1,
		State:        netfsm.StateMqttConnected,
		Elapsed:      3250 * time.Millisecond,
	}
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	payload, err := cycleSummary("cycle-1", "HomeNet", stats, status.CodeMqttConnected, now)
	require.NoError(t, err)

	var got cycleSummaryPayload
	require.NoError(t, json.Unmarshal(payload, &got))
	want := cycleSummaryPayload{
		CycleID:      "cycle-1",
		SSID:         "HomeNet",
		State:        "mqtt_connected",
		StatusCode:   21,
		WifiAttempts: 2,
		MqttAttempts: 1,
		ElapsedMS:    3250,
		Timestamp:    "2026-10-19T12:00:00Z",
	}
	assert.Equal(t, want, got)
}

// stuckScanner never answers until its context ends.
type stuckScanner struct{}

func (stuckScanner) Scan(ctx context.Context) ([]link.AccessPoint, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSelectNetwork_ScanTimesOut(t *testing.T) {
	networks := []link.Network{{SSID: "Primary"}, {SSID: "Backup"}}

	start := time.Now()
	got, err := selectNetwork(context.Background(), stuckScanner{}, networks, 20*time.Millisecond)

	assert.ErrorIs(t, err, link.ErrScanFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, networks[0], got)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func testLogger(buf *bytes.Buffer) *logging.Logger {
	return logging.NewWithWriter(config.LoggingConfig{Level: "debug", Format: "json"}, "test", buf)
}

func TestCheckInflux(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"reachable", srv.URL, "InfluxDB reachable"},
		{"unreachable", "http://127.0.0.1:1", "InfluxDB unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := influxdb.New(config.InfluxDBConfig{
				Enabled: true, URL: tt.url, Token: "t", Org: "netfsm", Bucket: "transitions",
			})
			require.NoError(t, err)
			defer client.Close()

			var buf bytes.Buffer
			checkInflux(context.Background(), client, testLogger(&buf))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestMigrateDown(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{
		Enabled:     true,
		Path:        filepath.Join(t.TempDir(), "history.db"),
		BusyTimeout: 5,
	}

	db, err := database.Open(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	applied, _, err := db.MigrationStatus(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, applied)
	require.NoError(t, db.Close())

	var buf bytes.Buffer
	require.NoError(t, migrateDown(ctx, cfg, testLogger(&buf)))
	assert.Contains(t, buf.String(), "migration rolled back")

	db, err = database.Open(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	after, pending, err := db.MigrationStatus(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(applied)-1)
	assert.Len(t, pending, 1)
}

func TestOpenHistory(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{Enabled: true, Path: database.MemoryPath}

	var buf bytes.Buffer
	recorder, closeFn, err := openHistory(ctx, cfg, testLogger(&buf))
	require.NoError(t, err)
	require.NotNil(t, recorder)
	closeFn()

	assert.Contains(t, buf.String(), `"msg":"database connected"`)
	assert.Contains(t, buf.String(), `"migrations":1`)
}
