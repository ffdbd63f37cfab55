package timer

import (
	"minios/kernel"
	"minios/kernel/device"
	"minios/kernel/irq"
)

// armGenericTimerFreq is a placeholder tick rate; a real port reads
// CNTFRQ_EL0 during Probe instead of assuming a fixed frequency.
const armGenericTimerFreq = 62500000 // 62.5 MHz, common on QEMU's virt machine

const ticksPerInterrupt = armGenericTimerFreq / 100 // ~10ms per tick at this frequency

type genericTimerDriver struct{}

var driverInstance device.Driver = &genericTimerDriver{}

func (d *genericTimerDriver) Name() string       { return "generic-timer" }
func (d *genericTimerDriver) MatchIDs() []string { return []string{"arm,generic-timer"} }
func (d *genericTimerDriver) Priority() int       { return 5 }
func (d *genericTimerDriver) Type() device.Type   { return device.TypeTimer }

func (d *genericTimerDriver) Probe(dev *device.Device) *kernel.Error { return nil }

func (d *genericTimerDriver) Init(dev *device.Device) *kernel.Error {
	armTimerSetInterval(ticksPerInterrupt)
	return nil
}

func (d *genericTimerDriver) Start(dev *device.Device) *kernel.Error {
	irq.RegisterHandler(dev.IRQ, func(int) {
		armTimerSetInterval(ticksPerInterrupt)
		if onTick != nil {
			onTick()
		}
	})
	armTimerEnable()
	return nil
}

func (d *genericTimerDriver) Read(dev *device.Device, buf []byte, off int64) (int, *kernel.Error) {
	return 0, kernel.NewError("generic-timer", kernel.ErrNoSuchCall, "timer devices are not readable")
}

func (d *genericTimerDriver) Write(dev *device.Device, buf []byte, off int64) (int, *kernel.Error) {
	return 0, kernel.NewError("generic-timer", kernel.ErrNoSuchCall, "timer devices are not writable")
}

func (d *genericTimerDriver) Ioctl(dev *device.Device, request, arg uintptr) (uintptr, *kernel.Error) {
	return 0, kernel.NewError("generic-timer", kernel.ErrNoSuchCall, "no ioctl requests are defined for this driver")
}

// armTimerSetInterval programs CNTP_TVAL_EL0 with the number of timer
// ticks until the next interrupt.
func armTimerSetInterval(ticks uint64)

// armTimerEnable sets CNTP_CTL_EL0.ENABLE and clears IMASK.
func armTimerEnable()
