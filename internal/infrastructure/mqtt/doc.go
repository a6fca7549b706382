// Package mqtt provides the Broker Session Layer of the net FSM.
//
// A Session performs one MQTT CONNECT/CONNACK handshake per BeginConnect
// call and reports the raw outcome through PollStatus. It never retries on
// its own: paho's auto-reconnect and connect-retry are switched off so the
// connection state machine is the only place retry policy lives.
//
// # Outcomes
//
//	CONNACK 0                        -> SessionSuccess
//	CONNACK 4, 5                     -> SessionAuthRejected
//	CONNACK 1, 2, DNS, refused, TLS  -> SessionServerUnreachable
//	CONNACK 3, timeouts, the rest    -> SessionOtherFailure
//
// # Presence
//
// The session registers a retained Last Will on <prefix>/<client_id>/status
// and publishes a retained "online" payload once the broker accepts the
// connection. Close publishes a graceful "offline" payload before
// disconnecting, so subscribers can tell a clean shutdown from a crash.
//
// # Usage
//
//	s := mqtt.NewSession(cfg.MQTT)
//	if err := s.BeginConnect(host, port, mqtt.Credentials{Username: u, Password: p}); err != nil {
//	    return err
//	}
//	for s.PollStatus() == mqtt.SessionInProgress {
//	    time.Sleep(100 * time.Millisecond)
//	}
//	defer s.Close()
package mqtt
