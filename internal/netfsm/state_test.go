package netfsm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nerrad567/gray-logic-netfsm/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-netfsm/internal/link"
)

func TestState_StringAndTerminal(t *testing.T) {
	tests := []struct {
		state    State
		name     string
		terminal bool
		phase    Phase
	}{
		{StateIdle, "idle", false, PhaseNone},
		{StateWifiConnecting, "wifi_connecting", false, PhaseWifi},
		{StateWifiFailedRetryable, "wifi_failed_retryable", false, PhaseWifi},
		{StateWifiFailedFatal, "wifi_failed_fatal", false, PhaseWifi},
		{StateWifiConnected, "wifi_connected", false, PhaseWifi},
		{StateMqttConnecting, "mqtt_connecting", false, PhaseMqtt},
		{StateMqttFailedRetryable, "mqtt_failed_retryable", false, PhaseMqtt},
		{StateMqttFailedFatal, "mqtt_failed_fatal", false, PhaseMqtt},
		{StateMqttConnected, "mqtt_connected", true, PhaseMqtt},
		{StateFatal, "fatal", true, PhaseNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.state.String())
		assert.Equal(t, tt.terminal, tt.state.Terminal(), tt.name)
		assert.Equal(t, tt.phase, tt.state.Phase(), tt.name)
	}
	assert.Equal(t, "unknown", State(99).String())
}

func TestReason_String(t *testing.T) {
	assert.Equal(t, "none", ReasonNone.String())
	assert.Equal(t, "wifi_ssid_not_found", ReasonWifiSsidNotFound.String())
	assert.Equal(t, "mqtt_retries_exhausted", ReasonMqttRetriesExhausted.String())
	assert.Equal(t, "cancelled", ReasonCancelled.String())
	assert.Equal(t, "unknown", Reason(99).String())
}

func TestClassifyLink(t *testing.T) {
	tests := map[link.Status]FailureClass{
		link.StatusIdle:         ClassRetryableTransient,
		link.StatusInProgress:   ClassPending,
		link.StatusSuccess:      ClassSuccess,
		link.StatusAuthFailed:   ClassFatalCredential,
		link.StatusSsidNotFound: ClassFatalTarget,
		link.StatusOtherFailure: ClassRetryableTransient,
	}
	for status, want := range tests {
		assert.Equal(t, want, classifyLink(status), status.String())
	}
}

func TestClassifyBroker(t *testing.T) {
	tests := map[mqtt.SessionStatus]FailureClass{
		mqtt.SessionIdle:              ClassRetryableTransient,
		mqtt.SessionInProgress:        ClassPending,
		mqtt.SessionSuccess:           ClassSuccess,
		mqtt.SessionAuthRejected:      ClassFatalCredential,
		mqtt.SessionServerUnreachable: ClassFatalTarget,
		mqtt.SessionOtherFailure:      ClassRetryableTransient,
	}
	for status, want := range tests {
		assert.Equal(t, want, classifyBroker(status), status.String())
	}
}

func TestFailureClass_Fatal(t *testing.T) {
	assert.True(t, ClassFatalCredential.Fatal())
	assert.True(t, ClassFatalTarget.Fatal())
	assert.False(t, ClassRetryableTransient.Fatal())
	assert.False(t, ClassSuccess.Fatal())
	assert.False(t, ClassPending.Fatal())
	assert.Equal(t, "fatal_credential", ClassFatalCredential.String())
}
