// Package timer wires the architecture's periodic tick source into the
// device model (§4.5) and the scheduler's preemption logic (§4.6). Exactly
// one concrete driver exists per build: timer_arm64.go drives the AArch64
// generic timer (name "arm,generic-timer"); timer_amd64.go drives the legacy
// 8254 PIT (name "x86,pit") — the spec names the former explicitly but
// leaves the x86-64 timer's canonical name to the implementation, recorded
// as an open-question decision in DESIGN.md.
package timer

import "minios/kernel/device"

// TickFn is invoked once per timer tick, from IRQ context.
type TickFn func()

var onTick TickFn

// SetTickHandler installs the function driven on every tick. The scheduler
// wires its own quantum-decrement/reschedule logic here during bring-up.
func SetTickHandler(fn TickFn) { onTick = fn }

// TicksPerQuantum is the number of timer ticks in one scheduler quantum,
// derived from the default 10 ms quantum (§4.6) and this driver's
// configured tick rate.
const TicksPerQuantum = 1

// Register installs this architecture's timer driver and registers the
// discovered device at mmioBase/irq (mmioBase is unused on AArch64, whose
// timer is accessed through system registers rather than MMIO).
func Register(mmioBase uintptr, irq int) *device.Device {
	device.RegisterDriver(driverInstance)
	return device.RegisterDevice(driverInstance.MatchIDs()[0], mmioBase, irq)
}
