// Package logging provides structured logging for the net FSM.
//
// This package wraps Go's standard log/slog package so every component
// emits the same structured fields. The Status Reporter's log lines are
// what a simulation harness reads from the device console, so the JSON
// keys (from, to, reason, attempt) are stable.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, file
//	  file:
//	    path: "./logs/netfsm.log"
//	    max_size: 10     # megabytes before rotation
//	    max_backups: 3
//	    max_age: 28      # days
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting cycle", "cycle_id", id)
//
// # Security
//
// Never log Wi-Fi passphrases or broker passwords.
package logging
