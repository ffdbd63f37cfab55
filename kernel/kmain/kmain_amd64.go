package kmain

import (
	"minios/kernel/device/intc"
	"minios/kernel/device/timer"
	"minios/kernel/device/uart"
)

// consoleDeviceName is the canonical device name the UART driver
// registers under (§4.5): the serial console fd 0/1/2 are wired to.
const consoleDeviceName = "ns16550"

// Legacy PC device addresses, identity-mapped by the Multiboot2 boot stub
// (see device/uart/uart_amd64.go's comment on why COM1's port range is
// exposed through the MMIOBase field rather than IN/OUT).
const (
	uartMMIOBase = 0x3f8
	uartIRQ      = 4

	pitIRQ = 0
)

// archBringUpDevices discovers and binds this architecture's fixed device
// set (§4.5: "device discovery is architecture-specific and entirely a
// black box to the model"): the 8259 PIC first, since the timer and UART
// IRQ lines route through it, then the PIT and the 16550 UART.
func archBringUpDevices() {
	intc.Register(0, 0)
	timer.Register(0, pitIRQ)
	uart.Register(uartMMIOBase, uartIRQ)
}
