// Package config handles loading and validating the net FSM configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Wi-Fi passphrases and broker passwords should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Timing Defaults:
//   - Wi-Fi: 3 retries, 1s-10s backoff, 10s per attempt (gives up in under 50s)
//   - MQTT: 5 retries, 2s-30s backoff, 10s per attempt (gives up in about 2 minutes)
//
// Usage:
//
//	cfg, err := config.Load("configs/netfsm.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.WiFi.Networks[0].SSID)
package config
