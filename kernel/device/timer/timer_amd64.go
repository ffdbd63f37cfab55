package timer

import (
	"minios/kernel"
	"minios/kernel/device"
	"minios/kernel/irq"
)

// 8254 PIT ports and mode-register bits.
const (
	pitChannel0 = 0x40
	pitCommand  = 0x43

	pitModeRateGenerator = 0x34 // channel 0, lobyte/hibyte, mode 2
	pitInputFreq         = 1193182
)

type pitDriver struct{}

var driverInstance device.Driver = &pitDriver{}

func (d *pitDriver) Name() string       { return "pit" }
func (d *pitDriver) MatchIDs() []string { return []string{"x86,pit"} }
func (d *pitDriver) Priority() int      { return 5 }
func (d *pitDriver) Type() device.Type  { return device.TypeTimer }

func (d *pitDriver) Probe(dev *device.Device) *kernel.Error { return nil }

func (d *pitDriver) Init(dev *device.Device) *kernel.Error {
	divisor := uint16(pitInputFreq / 100) // ~10ms per tick
	outb(pitCommand, pitModeRateGenerator)
	outb(pitChannel0, byte(divisor&0xff))
	outb(pitChannel0, byte(divisor>>8))
	return nil
}

func (d *pitDriver) Start(dev *device.Device) *kernel.Error {
	irq.RegisterHandler(dev.IRQ, func(int) {
		if onTick != nil {
			onTick()
		}
	})
	return nil
}

func (d *pitDriver) Read(dev *device.Device, buf []byte, off int64) (int, *kernel.Error) {
	return 0, kernel.NewError("pit", kernel.ErrNoSuchCall, "timer devices are not readable")
}

func (d *pitDriver) Write(dev *device.Device, buf []byte, off int64) (int, *kernel.Error) {
	return 0, kernel.NewError("pit", kernel.ErrNoSuchCall, "timer devices are not writable")
}

func (d *pitDriver) Ioctl(dev *device.Device, request, arg uintptr) (uintptr, *kernel.Error) {
	return 0, kernel.NewError("pit", kernel.ErrNoSuchCall, "no ioctl requests are defined for this driver")
}

// outb writes a byte to an x86 I/O port.
func outb(port uint16, value byte)
