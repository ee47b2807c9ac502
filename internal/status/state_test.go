package status

import (
	"testing"
	"time"

	"msgdeck/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Disconnected {
		t.Errorf("initial state = %s, want DISCONNECTED", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		ok   bool
	}{
		{"disconnected to connecting", Disconnected, Connecting, true},
		{"connecting to connected", Connecting, Connected, true},
		{"connecting back to disconnected", Connecting, Disconnected, true},
		{"connected to disconnected", Connected, Disconnected, true},
		{"disconnected straight to connected", Disconnected, Connected, false},
		{"connected to connecting", Connected, Connecting, false},
		{"self transition", Connected, Connected, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Machine{current: tt.from}
			err := m.Transition(tt.to)
			if (err == nil) != tt.ok {
				t.Errorf("Transition(%s -> %s) error = %v, want ok=%v", tt.from, tt.to, err, tt.ok)
			}
		})
	}
}

// TestReconnectCycle walks the loop the manager drives on every socket
// drop: CONNECTED -> DISCONNECTED -> CONNECTING -> CONNECTED, repeatedly.
func TestReconnectCycle(t *testing.T) {
	m := NewMachine(nil)

	for i := 0; i < 3; i++ {
		steps := []State{Connecting, Connected, Disconnected}
		for _, s := range steps {
			if err := m.Transition(s); err != nil {
				t.Fatalf("cycle %d: Transition to %s: %v (current: %s)", i, s, err, m.Current())
			}
		}
	}
	if m.Current() != Disconnected {
		t.Errorf("final state = %s, want DISCONNECTED", m.Current())
	}
}

func TestTransitionPublishesStatusChange(t *testing.T) {
	b := bus.New()
	m := NewMachine(b)

	ch, unsub := b.Subscribe("conn.", 10)
	defer unsub()

	if err := m.Transition(Connecting); err != nil {
		t.Fatal(err)
	}

	select {
	case evt := <-ch:
		change, ok := evt.Payload.(StatusChange)
		if !ok {
			t.Fatalf("payload type = %T, want StatusChange", evt.Payload)
		}
		if change.From != Disconnected || change.To != Connecting {
			t.Errorf("change = %+v, want DISCONNECTED -> CONNECTING", change)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for status change event")
	}
}
