// Package uart wires the architecture's serial console driver into the
// device model (§4.5). Exactly one concrete driver exists per build:
// uart_arm64.go registers the PL011 (name "arm,pl011"); uart_amd64.go registers the
// 16550-compatible COM1 UART (name "ns16550"), matching the two canonical
// names the spec requires byte-for-byte.
package uart

import "minios/kernel/device"

// Register installs this architecture's UART driver and registers the
// discovered device at mmioBase/irq, returning it once bound (or Failed).
func Register(mmioBase uintptr, irq int) *device.Device {
	device.RegisterDriver(driverInstance)
	return device.RegisterDevice(driverInstance.MatchIDs()[0], mmioBase, irq)
}
