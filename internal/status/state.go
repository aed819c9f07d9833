// Package status tracks the daemon's runtime state. This is the process
// lifecycle, not message delivery state; message status lives in the store.
package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"chatd/internal/bus"
)

// State represents a daemon runtime state.
type State string

const (
	Booting   State = "BOOTING"
	Migrating State = "MIGRATING"
	Ready     State = "READY"
	Draining  State = "DRAINING"
	Error     State = "ERROR"
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Booting:   {Migrating, Error},
	Migrating: {Ready, Error},
	Ready:     {Draining, Error},
	Draining:  {Error},
	Error:     {Booting},
}

// Machine tracks and enforces daemon runtime state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	started time.Time
	bus     *bus.Bus
}

// NewMachine creates a state machine starting in Booting.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Booting,
		started: time.Now(),
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Uptime returns time elapsed since the machine was created.
func (m *Machine) Uptime() time.Duration {
	return time.Since(m.started)
}

// Transition attempts to move to a new state. Returns an error if the
// transition is not in the table.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:    bus.KindRuntimeState,
			Payload: StateChange{From: from, To: to},
		})
	}
	return nil
}

// StateChange is the payload for runtime state change events.
type StateChange struct {
	From State
	To   State
}
