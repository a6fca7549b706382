// Package netfsm sequences network establishment on a device: Wi-Fi
// association first, then an MQTT broker session.
//
// The Machine is a cooperative polling state machine. Each call to Step
// advances at most one transition and never blocks; the Link Layer and
// Broker Session do their work in the background and are only polled.
//
// # States
//
//	Idle
//	  -> WifiConnecting <-> WifiFailedRetryable
//	       -> WifiFailedFatal -> Fatal
//	  -> WifiConnected
//	  -> MqttConnecting <-> MqttFailedRetryable
//	       -> MqttFailedFatal -> Fatal
//	  -> MqttConnected
//
// MqttConnected and Fatal are terminal. Abort moves any other state to
// Fatal with ReasonCancelled.
//
// # Failure classes
//
// Layer outcomes are classified here and nowhere else:
//
//	Success              phase done, counter reset
//	RetryableTransient   counter++, wait Backoff.Delay(counter), try again
//	FatalCredential      straight to *FailedFatal, budget ignored
//	FatalTarget          straight to *FailedFatal, budget ignored
//
// A phase is allowed MaxRetries retryable failures. The next one after that
// ends the phase with *RetriesExhausted.
//
// # Time
//
// Backoff is measured against an injected Clock reporting monotonic
// elapsed time, so tests can drive the machine without sleeping.
//
// # Usage
//
//	m, err := netfsm.New(cfg, wifi, broker, netfsm.NewMonotonicClock(),
//	    netfsm.WithObserver(reporter))
//	if err != nil {
//	    return err
//	}
//	final := netfsm.Run(ctx, m, 100*time.Millisecond)
//	if final == netfsm.StateFatal {
//	    log.Printf("network failed: %s", m.LastReason())
//	}
package netfsm
