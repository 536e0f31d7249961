package netmon

import (
	"io"
	"log"
	"testing"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestSetOnline_Transitions(t *testing.T) {
	m := New(nil, quietLogger())

	if m.Online() {
		t.Error("Online() = true before any state is known")
	}

	var got []bool
	m.Subscribe(func(online bool) { got = append(got, online) })

	m.SetOnline(true)
	m.SetOnline(true) // repeat must not re-notify
	m.SetOnline(false)

	if m.Online() {
		t.Error("Online() = true after final offline transition")
	}
	if len(got) != 2 || got[0] != true || got[1] != false {
		t.Errorf("notifications = %v, want [true false]", got)
	}
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	m := New(nil, quietLogger())

	calls := 0
	unsub := m.Subscribe(func(bool) { calls++ })

	m.SetOnline(true)
	unsub()
	m.SetOnline(false)

	if calls != 1 {
		t.Errorf("calls = %d after unsubscribe, want 1", calls)
	}
}
