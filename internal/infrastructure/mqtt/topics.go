package mqtt

import "fmt"

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "netfsm"

// Topics builds the device topics under a configurable prefix.
//
//	topics := mqtt.Topics{Prefix: "netfsm"}
//	topics.Status("gw-01") // "netfsm/gw-01/status"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// Status returns the retained presence topic (online/offline/LWT).
//
// Example: netfsm/gw-01/status
func (t Topics) Status(clientID string) string {
	return fmt.Sprintf("%s/%s/status", t.prefix(), clientID)
}

// Cycle returns the topic carrying the summary of the last connection cycle.
//
// Example: netfsm/gw-01/cycle
func (t Topics) Cycle(clientID string) string {
	return fmt.Sprintf("%s/%s/cycle", t.prefix(), clientID)
}
