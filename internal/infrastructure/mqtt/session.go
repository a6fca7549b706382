package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/nerrad567/gray-logic-netfsm/internal/infrastructure/config"
)

// pahoClient is the subset of pahomqtt.Client a Session uses.
type pahoClient interface {
	Connect() pahomqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

// returnCoder matches *pahomqtt.ConnectToken.
type returnCoder interface {
	ReturnCode() byte
}

// Session is a Broker Session Layer backed by paho.mqtt.golang.
//
// Each BeginConnect builds a fresh paho client, so a failed attempt leaves
// nothing behind that could reconnect in the background.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Session struct {
	cfg       config.MQTTConfig
	topics    Topics
	newClient func(*pahomqtt.ClientOptions) pahoClient

	mu      sync.Mutex
	client  pahoClient
	token   pahomqtt.Token
	status  SessionStatus
	lastErr error
}

// NewSession creates an idle session. Broker address and credentials are
// supplied per attempt; cfg provides client ID, TLS, QoS, timeouts and the
// topic prefix.
func NewSession(cfg config.MQTTConfig) *Session {
	return &Session{
		cfg:    cfg,
		topics: Topics{Prefix: cfg.TopicPrefix},
		newClient: func(opts *pahomqtt.ClientOptions) pahoClient {
			return pahomqtt.NewClient(opts)
		},
		status: SessionIdle,
	}
}

// BeginConnect starts a CONNECT/CONNACK handshake and returns immediately.
//
// Returns:
//   - error: ErrAttemptInProgress while the previous handshake is running,
//     ErrInvalidBroker if host or port is unusable
func (s *Session) BeginConnect(host string, port int, creds Credentials) error {
	if host == "" || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q:%d", ErrInvalidBroker, host, port)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.collectLocked()
	if s.status == SessionInProgress {
		return ErrAttemptInProgress
	}

	opts := buildClientOptions(s.cfg, host, port, creds)
	configureLWT(opts, s.topics, s.cfg.Broker.ClientID)

	s.client = s.newClient(opts)
	s.token = s.client.Connect()
	s.status = SessionInProgress
	s.lastErr = nil
	return nil
}

// PollStatus reports the current attempt's status without blocking.
func (s *Session) PollStatus() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collectLocked()
	return s.status
}

// LastError returns the error behind the most recent failed attempt.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Abort drops a running handshake. The attempt reports SessionOtherFailure.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != SessionInProgress {
		return
	}
	// paho may wait for the dial to unwind; keep Abort non-blocking.
	go s.client.Disconnect(0)
	s.status = SessionOtherFailure
	s.lastErr = context.Canceled
	s.token = nil
}

// collectLocked moves a finished handshake into status.
func (s *Session) collectLocked() {
	if s.status != SessionInProgress || s.token == nil {
		return
	}

	select {
	case <-s.token.Done():
	default:
		return
	}

	err := s.token.Error()
	s.status = ClassifyConnect(connectReturnCode(s.token, err), err)
	s.token = nil

	if s.status == SessionSuccess {
		s.publishOnlineLocked()
		return
	}
	s.lastErr = err
}

func connectReturnCode(token pahomqtt.Token, err error) byte {
	if rc, ok := token.(returnCoder); ok {
		return rc.ReturnCode()
	}
	if err == nil {
		return packets.Accepted
	}
	return packets.ErrNetworkError
}

// publishOnlineLocked announces presence without waiting on the token.
func (s *Session) publishOnlineLocked() {
	topic := s.topics.Status(s.cfg.Broker.ClientID)
	payload := buildOnlinePayload(s.cfg.Broker.ClientID)
	s.client.Publish(topic, byte(s.cfg.QoS), true, payload)
}

// Close gracefully disconnects from the MQTT broker.
//
// It performs:
//  1. Publishes graceful offline status (different from LWT crash status)
//  2. Waits for pending publish operations
//  3. Disconnects from broker
//
// Returns:
//   - error: Always nil; a session that never connected closes cleanly
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}

	if s.status == SessionSuccess && s.client.IsConnected() {
		topic := s.topics.Status(s.cfg.Broker.ClientID)
		payload := buildOfflinePayload(s.cfg.Broker.ClientID)
		token := s.client.Publish(topic, byte(s.cfg.QoS), true, payload)
		token.WaitTimeout(defaultPublishTimeout)
	}

	s.client.Disconnect(defaultDisconnectQuiesce)
	s.client = nil
	s.token = nil
	s.status = SessionIdle
	return nil
}

// IsConnected reports whether the broker accepted the last attempt and the
// connection is still up.
func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == SessionSuccess && s.client != nil && s.client.IsConnected()
}

// Topics returns the topic builder for this session's prefix.
func (s *Session) Topics() Topics {
	return s.topics
}
