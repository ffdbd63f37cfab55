// Package intc wires the architecture's interrupt controller into the
// device model (§4.5) and registers its end-of-interrupt function with
// package irq so DispatchIRQ can signal EOI without depending on intc
// directly (which would create an import cycle: intc depends on irq to
// register handlers, so irq cannot also depend on intc).
package intc

import "minios/kernel/device"

// Register installs this architecture's interrupt controller driver and
// registers the discovered device at mmioBase/irq.
func Register(mmioBase uintptr, irq int) *device.Device {
	device.RegisterDriver(driverInstance)
	return device.RegisterDevice(driverInstance.MatchIDs()[0], mmioBase, irq)
}
