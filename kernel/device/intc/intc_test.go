package intc

import (
	"testing"

	"minios/kernel/device"
)

func TestDriverDeclaresInterruptControllerType(t *testing.T) {
	if got := driverInstance.Type(); got != device.TypeInterruptController {
		t.Fatalf("expected TypeInterruptController; got %s", got)
	}
}

func TestDriverDeclaresMatchID(t *testing.T) {
	ids := driverInstance.MatchIDs()
	if len(ids) != 1 || ids[0] == "" {
		t.Fatalf("expected exactly one non-empty match id; got %v", ids)
	}
}

func TestDriverIsHighestPriority(t *testing.T) {
	// The interrupt controller must bind and start before any device
	// that registers IRQ handlers through it, so its priority number
	// should be lower than the timer/uart drivers' (5/10).
	if driverInstance.Priority() >= 5 {
		t.Fatalf("expected the interrupt controller driver to sort ahead of timer/uart; got priority %d", driverInstance.Priority())
	}
}
