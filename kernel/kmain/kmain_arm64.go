package kmain

import (
	"minios/kernel/device/intc"
	"minios/kernel/device/timer"
	"minios/kernel/device/uart"
)

// consoleDeviceName is the canonical device name the UART driver
// registers under (§4.5): the serial console fd 0/1/2 are wired to.
const consoleDeviceName = "arm,pl011"

// QEMU virt machine device addresses: GICv2 distributor base, PL011 base
// and the SPI/PPI numbers each uses on that platform.
const (
	gicDistributorBase = 0x08000000
	pl011MMIOBase       = 0x09000000
	pl011IRQ            = 33

	genericTimerIRQ = 30
)

// archBringUpDevices discovers and binds this architecture's fixed device
// set (§4.5): the GICv2 distributor first, since the timer and UART IRQ
// lines are routed through it, then the generic timer and the PL011 UART.
func archBringUpDevices() {
	intc.Register(gicDistributorBase, 0)
	timer.Register(0, genericTimerIRQ)
	uart.Register(pl011MMIOBase, pl011IRQ)
}
