package intc

import (
	"minios/kernel"
	"minios/kernel/device"
	"minios/kernel/irq"
)

// 8259 PIC ports. MMIOBase is unused on this architecture; the device is
// registered with mmioBase 0 and the legacy ports below are hardcoded,
// mirroring the spec's "x86-64 synthesizes the tuples from well-known
// legacy addresses" discovery note (§4.5).
const (
	picMasterCommand = 0x20
	picMasterData    = 0x21
	picSlaveCommand  = 0xa0
	picSlaveData     = 0xa1

	picICW1Init = 0x11
	picICW4_8086 = 0x01

	// picIRQBase is the vector offset the master PIC's IRQ0 is remapped
	// to, clear of the CPU's own reserved exception vectors 0-31.
	picIRQBase = 0x20
)

type picDriver struct{}

var driverInstance device.Driver = &picDriver{}

func (d *picDriver) Name() string       { return "8259-pic" }
func (d *picDriver) MatchIDs() []string { return []string{"x86,pic"} }
func (d *picDriver) Priority() int      { return 1 }
func (d *picDriver) Type() device.Type  { return device.TypeInterruptController }

func (d *picDriver) Probe(dev *device.Device) *kernel.Error { return nil }

func (d *picDriver) Init(dev *device.Device) *kernel.Error {
	outb(picMasterCommand, picICW1Init)
	outb(picSlaveCommand, picICW1Init)
	outb(picMasterData, picIRQBase)      // master offset
	outb(picSlaveData, picIRQBase+8)     // slave offset
	outb(picMasterData, 0x04)            // tell master about slave on IRQ2
	outb(picSlaveData, 0x02)             // tell slave its cascade identity
	outb(picMasterData, picICW4_8086)
	outb(picSlaveData, picICW4_8086)
	outb(picMasterData, 0x00) // unmask everything
	outb(picSlaveData, 0x00)
	return nil
}

func (d *picDriver) Start(dev *device.Device) *kernel.Error {
	irq.SetEOIHandler(func(num int) {
		if num >= 8 {
			outb(picSlaveCommand, 0x20)
		}
		outb(picMasterCommand, 0x20)
	})
	return nil
}

func (d *picDriver) Read(dev *device.Device, buf []byte, off int64) (int, *kernel.Error) {
	return 0, kernel.NewError("8259-pic", kernel.ErrNoSuchCall, "interrupt controllers are not readable")
}

func (d *picDriver) Write(dev *device.Device, buf []byte, off int64) (int, *kernel.Error) {
	return 0, kernel.NewError("8259-pic", kernel.ErrNoSuchCall, "interrupt controllers are not writable")
}

func (d *picDriver) Ioctl(dev *device.Device, request, arg uintptr) (uintptr, *kernel.Error) {
	return 0, kernel.NewError("8259-pic", kernel.ErrNoSuchCall, "no ioctl requests are defined for this driver")
}

// outb writes a byte to an x86 I/O port. Duplicated per package (rather
// than shared with kernel/device/timer) since neither package imports the
// other and a three-line asm trampoline isn't worth a shared dependency.
func outb(port uint16, value byte)
