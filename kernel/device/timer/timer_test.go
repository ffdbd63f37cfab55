package timer

import (
	"testing"

	"minios/kernel/device"
)

func TestDriverDeclaresTimerType(t *testing.T) {
	if got := driverInstance.Type(); got != device.TypeTimer {
		t.Fatalf("expected TypeTimer; got %s", got)
	}
}

func TestSetTickHandlerIsObserved(t *testing.T) {
	called := false
	SetTickHandler(func() { called = true })
	defer SetTickHandler(nil)

	if onTick == nil {
		t.Fatal("expected onTick to be set")
	}
	onTick()
	if !called {
		t.Fatal("expected the installed tick handler to run")
	}
}

func TestDriverDeclaresMatchID(t *testing.T) {
	ids := driverInstance.MatchIDs()
	if len(ids) != 1 || ids[0] == "" {
		t.Fatalf("expected exactly one non-empty match id; got %v", ids)
	}
}
