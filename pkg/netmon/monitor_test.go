package netmon

import (
	"testing"
	"time"
)

func waitTrigger(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("trigger did not fire")
	}
}

func TestTriggerFiresOnReconnect(t *testing.T) {
	m := New(Options{InitialOnline: false, TriggerRPS: 100, TriggerBurst: 1})
	fired := make(chan struct{}, 1)
	m.OnRegainedConnectivity(func() { fired <- struct{}{} })

	m.SetOnline(true)
	waitTrigger(t, fired)
	if !m.IsOnlineStatus() {
		t.Fatalf("flag not updated")
	}
}

func TestNoTriggerWithoutTransition(t *testing.T) {
	m := New(Options{InitialOnline: true, TriggerRPS: 100, TriggerBurst: 10})
	fired := make(chan struct{}, 1)
	m.OnRegainedConnectivity(func() { fired <- struct{}{} })

	m.SetOnline(true)
	m.SetOnline(false)
	select {
	case <-fired:
		t.Fatalf("trigger fired without an offline-to-online transition")
	case <-time.After(100 * time.Millisecond):
	}
	if m.IsOnlineStatus() {
		t.Fatalf("flag not updated to offline")
	}
}

func TestTriggerDamping(t *testing.T) {
	// One trigger allowed; the limiter refills far too slowly for a
	// second one inside this test.
	m := New(Options{InitialOnline: false, TriggerRPS: 0.0001, TriggerBurst: 1})
	fired := make(chan struct{}, 4)
	m.OnRegainedConnectivity(func() { fired <- struct{}{} })

	m.SetOnline(true)
	m.SetOnline(false)
	m.SetOnline(true)

	waitTrigger(t, fired)
	select {
	case <-fired:
		t.Fatalf("flapping link fired a second trigger")
	case <-time.After(100 * time.Millisecond):
	}
}
