// netfsm brings a device onto the network.
//
// It associates with one of the provisioned Wi-Fi networks, opens an MQTT
// session with the configured broker and reports every step through the
// log, the status LED and the optional history stores. The process exit
// code is the final network status code (0 when connected).
//
// By default the session is held open until SIGINT/SIGTERM so the broker
// keeps seeing the device online; -once exits as soon as the cycle ends.
// -migrate-down rolls back the latest history schema migration and exits.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/gray-logic-netfsm/migrations"

	"github.com/nerrad567/gray-logic-netfsm/internal/history"
	"github.com/nerrad567/gray-logic-netfsm/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-netfsm/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-netfsm/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-netfsm/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-netfsm/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-netfsm/internal/link"
	"github.com/nerrad567/gray-logic-netfsm/internal/netfsm"
	"github.com/nerrad567/gray-logic-netfsm/internal/status"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/netfsm.yaml"

const dayDuration = 24 * time.Hour

// Startup bounds.
const (
	// scanTimeout bounds the access point scan used for network selection.
	scanTimeout = 15 * time.Second

	// healthCheckTimeout bounds the InfluxDB ping after the cycle connects.
	healthCheckTimeout = 5 * time.Second
)

// options are the command-line flags.
type options struct {
	configPath  string
	once        bool
	migrateDown bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", getConfigPath(), "path to the YAML configuration file")
	flag.BoolVar(&opts.once, "once", false, "exit as soon as the connection cycle ends")
	flag.BoolVar(&opts.migrateDown, "migrate-down", false, "roll back the latest history migration and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code, err := run(ctx, opts)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if code == 0 {
			code = 1
		}
	}
	os.Exit(code)
}

// run is the application logic, separated from main for testability.
//
// Returns:
//   - int: process exit code derived from the final network status
//   - error: setup failure before a cycle could run
func run(ctx context.Context, opts options) (int, error) { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting netfsm",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return 1, fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", opts.configPath,
		"device_id", cfg.Device.ID,
		"networks", len(cfg.WiFi.Networks),
	)

	if opts.migrateDown {
		if err := migrateDown(ctx, cfg.Database, log); err != nil {
			return 1, err
		}
		return 0, nil
	}

	var sinks []status.Sink

	// Transition history (optional)
	if cfg.Database.Enabled {
		recorder, closeHistory, histErr := openHistory(ctx, cfg.Database, log)
		if histErr != nil {
			return 1, histErr
		}
		defer closeHistory()
		sinks = append(sinks, recorder)
	} else {
		log.Info("transition history disabled")
	}

	// InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.New(cfg.InfluxDB)
		if err != nil {
			return 1, fmt.Errorf("creating InfluxDB client: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB client")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		sinks = append(sinks, status.NewInfluxSink(influxClient, cfg.Device.ID, influxdb.MeasurementTransition))
		log.Info("InfluxDB enabled",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	reporterOpts := []status.Option{status.WithSinks(sinks...)}
	if cfg.Indicator.Enabled {
		reporterOpts = append(reporterOpts, status.WithIndicator(
			status.NewSysfsRGB(cfg.Indicator.Red, cfg.Indicator.Green, cfg.Indicator.Blue),
		))
	}
	reporter := status.NewReporter(log, reporterOpts...)

	// Link layer and network selection
	wifi := link.NewNMCLI(link.ExecRunner{}, cfg.WiFi.Interface,
		time.Duration(cfg.WiFi.ConnectTimeout)*time.Second)

	network, err := selectNetwork(ctx, wifi, networksFrom(cfg.WiFi.Networks), scanTimeout)
	switch {
	case errors.Is(err, link.ErrScanFailed):
		log.Warn("wifi scan failed, using primary network", "ssid", network.SSID, "error", err)
	case err != nil:
		return 1, fmt.Errorf("selecting network: %w", err)
	}
	log.Info("network selected", "ssid", network.SSID)

	// Broker session
	session := mqtt.NewSession(cfg.MQTT)
	defer func() {
		log.Info("closing MQTT session")
		if closeErr := session.Close(); closeErr != nil {
			log.Error("error closing MQTT session", "error", closeErr)
		}
	}()

	machine, err := netfsm.New(machineConfig(cfg, network), wifi, session,
		netfsm.NewMonotonicClock(), netfsm.WithObserver(reporter))
	if err != nil {
		return 1, fmt.Errorf("creating state machine: %w", err)
	}
	log.Info("connection cycle starting",
		"cycle_id", machine.CycleID(),
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
	)

	cycleCtx := ctx
	if timeout := cfg.GetCycleTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		cycleCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	final := netfsm.Run(cycleCtx, machine, cfg.GetStepInterval())
	stats := machine.Stats()

	if influxClient != nil {
		influxClient.WriteCycleResult(cfg.Device.ID, machine.CycleID(),
			final.String(), stats.Reason.String(), stats.Elapsed,
			stats.WifiAttempts, stats.MqttAttempts)
	}

	if final != netfsm.StateMqttConnected {
		args := []any{
			"cycle_id", machine.CycleID(),
			"state", final.String(),
			"reason", stats.Reason.String(),
			"status_code", int(reporter.Code()),
		}
		if lastErr := session.LastError(); lastErr != nil {
			args = append(args, "mqtt_error", lastErr)
		}
		log.Error("connection cycle failed", args...)
		return reporter.ExitCode(), nil
	}

	payload, err := cycleSummary(machine.CycleID(), network.SSID, stats, reporter.Code(), time.Now())
	if err == nil {
		err = session.PublishRetained(session.Topics().Cycle(cfg.MQTT.Broker.ClientID), payload)
	}
	if err != nil {
		log.Warn("publishing cycle summary failed", "error", err)
	}

	if influxClient != nil {
		checkInflux(ctx, influxClient, log)
	}

	log.Info("connection cycle complete",
		"cycle_id", machine.CycleID(),
		"elapsed", stats.Elapsed.String(),
		"wifi_attempts", stats.WifiAttempts,
		"mqtt_attempts", stats.MqttAttempts,
	)

	if !opts.once {
		log.Info("holding session, waiting for shutdown signal")
		<-ctx.Done()
		log.Info("shutdown signal received")
	}

	return reporter.ExitCode(), nil
}

// openHistory opens the SQLite history store, applies migrations, prunes
// expired rows and starts the async recorder. The returned func flushes the
// recorder and closes the database.
func openHistory(ctx context.Context, cfg config.DatabaseConfig, log *logging.Logger) (*history.Recorder, func(), error) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, nil, fmt.Errorf("database health check: %w", err)
	}
	applied, _, err := db.MigrationStatus(ctx)
	if err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, nil, fmt.Errorf("reading migration status: %w", err)
	}
	log.Info("database connected", "path", cfg.Path, "migrations", len(applied))

	repo := history.NewSQLiteRepository(db.DB)
	if cfg.RetentionDays > 0 {
		cutoff := time.Now().Add(-time.Duration(cfg.RetentionDays) * dayDuration)
		n, pruneErr := repo.Prune(ctx, cutoff)
		if pruneErr != nil {
			log.Warn("pruning transition history failed", "error", pruneErr)
		} else if n > 0 {
			log.Info("pruned transition history", "rows", n, "retention_days", cfg.RetentionDays)
		}
	}

	recorder := history.NewRecorder(repo, log, history.DefaultBufferSize)
	closeFn := func() {
		recorder.Close()
		if dropped := recorder.Dropped(); dropped > 0 {
			log.Warn("transition history entries dropped", "count", dropped)
		}
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}
	return recorder, closeFn, nil
}

// migrateDown rolls back the most recent history migration.
func migrateDown(ctx context.Context, cfg config.DatabaseConfig, log *logging.Logger) error {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Best effort close

	if err := db.MigrateDown(ctx); err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}
	applied, pending, err := db.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}
	log.Info("migration rolled back",
		"path", cfg.Path,
		"applied", len(applied),
		"pending", len(pending),
	)
	return nil
}

// selectNetwork picks the provisioned network to join with the scan bounded
// by timeout. A scan that runs out of time falls back like a failed scan.
func selectNetwork(ctx context.Context, scanner link.Scanner, networks []link.Network, timeout time.Duration) (link.Network, error) {
	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return link.SelectNetwork(scanCtx, scanner, networks)
}

// checkInflux pings InfluxDB once the network is up. Failure only logs;
// points stay batched in the client until the server answers.
func checkInflux(ctx context.Context, client *influxdb.Client, log *logging.Logger) {
	pingCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := client.HealthCheck(pingCtx); err != nil {
		log.Warn("InfluxDB unreachable", "error", err)
		return
	}
	log.Info("InfluxDB reachable")
}

// machineConfig maps the loaded configuration onto a cycle configuration.
func machineConfig(cfg *config.Config, network link.Network) netfsm.Config {
	return netfsm.Config{
		Network: network,
		Broker: netfsm.Broker{
			Host: cfg.MQTT.Broker.Host,
			Port: cfg.MQTT.Broker.Port,
			Credentials: mqtt.Credentials{
				Username: cfg.MQTT.Auth.Username,
				Password: cfg.MQTT.Auth.Password,
			},
		},
		WifiRetry: retryPolicy(cfg.WiFi.Retry),
		MqttRetry: retryPolicy(cfg.MQTT.Retry),
	}
}

func retryPolicy(r config.RetryConfig) netfsm.RetryPolicy {
	return netfsm.RetryPolicy{
		MaxRetries: r.MaxRetries,
		Backoff: netfsm.Backoff{
			Initial:    r.GetInitialDelay(),
			Max:        r.GetMaxDelay(),
			Multiplier: r.Multiplier,
		},
	}
}

func networksFrom(cfgs []config.NetworkConfig) []link.Network {
	networks := make([]link.Network, 0, len(cfgs))
	for _, n := range cfgs {
		networks = append(networks, link.Network{SSID: n.SSID, Passphrase: n.Passphrase})
	}
	return networks
}

// cycleSummaryPayload is the retained message published on the cycle topic.
type cycleSummaryPayload struct {
	CycleID      string `json:"cycle_id"`
	SSID         string `json:"ssid"`
	State        string `json:"state"`
	StatusCode   int    `json:"status_code"`
	WifiAttempts int    `json:"wifi_attempts"`
	MqttAttempts int    `json:"mqtt_attempts"`
	ElapsedMS    int64  `json:"elapsed_ms"`
	Timestamp    string `json:"timestamp"`
}

func cycleSummary(cycleID, ssid string, stats netfsm.Stats, code status.Code, now time.Time) ([]byte, error) {
	return json.Marshal(cycleSummaryPayload{
		CycleID:      cycleID,
		SSID:         ssid,
		State:        stats.State.String(),
		StatusCode:   int(code),
		WifiAttempts: stats.WifiAttempts,
		MqttAttempts: stats.MqttAttempts,
		ElapsedMS:    stats.Elapsed.Milliseconds(),
		Timestamp:    now.UTC().Format(time.RFC3339),
	})
}

// getConfigPath returns the configuration file path.
// Checks NETFSM_CONFIG environment variable first, then falls back to default.
func getConfigPath() string {
	if path := os.Getenv("NETFSM_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
