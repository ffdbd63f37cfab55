package irq

import "testing"

func TestDispatchIRQTrampolineUsesAcknowledger(t *testing.T) {
	resetTables()
	t.Cleanup(resetTables)

	SetIRQAcknowledger(func() int { return 9 })

	var got int
	RegisterHandler(9, func(num int) { got = num })

	dispatchIRQTrampoline()

	if got != 9 {
		t.Fatalf("expected the acknowledged IRQ number (9) to reach the handler; got %d", got)
	}
}

func TestDispatchIRQTrampolineWithNoAcknowledgerDefaultsToZero(t *testing.T) {
	resetTables()
	t.Cleanup(resetTables)

	var got = -1
	RegisterHandler(0, func(num int) { got = num })

	dispatchIRQTrampoline()

	if got != 0 {
		t.Fatalf("expected irq 0 with no acknowledger registered; got %d", got)
	}
}
