package netfsm

import "fmt"

// edges lists every state change the Machine may make. Abort adds an edge
// from each non-terminal state to StateFatal.
var edges = newEdgeSet(func(e *edgeSet) {
	e.from(StateIdle).to(StateWifiConnecting, StateFatal)

	e.from(StateWifiConnecting).to(StateWifiConnected, StateWifiFailedRetryable, StateWifiFailedFatal, StateFatal)
	e.from(StateWifiFailedRetryable).to(StateWifiConnecting, StateWifiFailedFatal, StateFatal)
	e.from(StateWifiFailedFatal).to(StateFatal)
	e.from(StateWifiConnected).to(StateMqttConnecting, StateFatal)

	e.from(StateMqttConnecting).to(StateMqttConnected, StateMqttFailedRetryable, StateMqttFailedFatal, StateFatal)
	e.from(StateMqttFailedRetryable).to(StateMqttConnecting, StateMqttFailedFatal, StateFatal)
	e.from(StateMqttFailedFatal).to(StateFatal)
})

type edgeSet struct {
	allowed map[State]map[State]bool
}

type edgeFrom struct {
	set  *edgeSet
	from State
}

func newEdgeSet(build func(*edgeSet)) *edgeSet {
	e := &edgeSet{allowed: make(map[State]map[State]bool)}
	build(e)
	return e
}

func (e *edgeSet) from(s State) edgeFrom {
	return edgeFrom{set: e, from: s}
}

func (f edgeFrom) to(states ...State) {
	if f.set.allowed[f.from] == nil {
		f.set.allowed[f.from] = make(map[State]bool)
	}
	for _, s := range states {
		f.set.allowed[f.from][s] = true
	}
}

func (e *edgeSet) allows(from, to State) bool {
	return e.allowed[from][to]
}

// Allowed reports whether the Machine can move from one state to another.
func Allowed(from, to State) bool {
	return edges.allows(from, to)
}

// mustAllow panics on an edge outside the table; reaching it is a bug in
// the Machine, not a runtime condition.
func mustAllow(from, to State) {
	if !edges.allows(from, to) {
		panic(fmt.Sprintf("netfsm: illegal transition %s -> %s", from, to))
	}
}
