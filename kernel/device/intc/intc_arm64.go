package intc

import (
	"minios/kernel"
	"minios/kernel/device"
	"minios/kernel/irq"
)

// GICv2 distributor (GICD) register offsets. The CPU interface (GICC) is
// assumed to live at gicdBase+gicCPUInterfaceOffset, matching the layout
// QEMU's virt machine exposes.
const (
	gicdCTLR    = 0x000
	gicdISENABLER = 0x100

	gicCPUInterfaceOffset = 0x10000
	gicCCTLR              = 0x000
	gicCPMR               = 0x004
	gicCIAR               = 0x00c
	gicCEOIR              = 0x010
)

type gicV2Driver struct {
	gicdBase uintptr
	giccBase uintptr
}

var driverInstance device.Driver = &gicV2Driver{}

func (d *gicV2Driver) Name() string       { return "gic-v2" }
func (d *gicV2Driver) MatchIDs() []string { return []string{"arm,gic-v2"} }
func (d *gicV2Driver) Priority() int      { return 1 } // must be active before timer/uart IRQs can fire
func (d *gicV2Driver) Type() device.Type  { return device.TypeInterruptController }

func (d *gicV2Driver) Probe(dev *device.Device) *kernel.Error {
	if dev.MMIOBase == 0 {
		return kernel.NewError("gic-v2", kernel.ErrNoSuchDevice, "no MMIO base supplied")
	}
	d.gicdBase = dev.MMIOBase
	d.giccBase = dev.MMIOBase + gicCPUInterfaceOffset
	return nil
}

func (d *gicV2Driver) Init(dev *device.Device) *kernel.Error {
	device.WriteReg32(d.gicdBase, gicdCTLR, 1)
	device.WriteReg32(d.giccBase, gicCPMR, 0xff)
	device.WriteReg32(d.giccBase, gicCCTLR, 1)
	return nil
}

func (d *gicV2Driver) Start(dev *device.Device) *kernel.Error {
	irq.SetEOIHandler(func(num int) {
		device.WriteReg32(d.giccBase, gicCEOIR, uint32(num))
	})
	irq.SetIRQAcknowledger(d.AckPending)
	return nil
}

// EnableIRQ unmasks irqNum at the distributor. Drivers call this after
// registering their handler with package irq.
func (d *gicV2Driver) EnableIRQ(irqNum int) {
	reg := gicdISENABLER + (irqNum/32)*4
	bit := uint32(1) << uint(irqNum%32)
	device.WriteReg32(d.gicdBase, uintptr(reg), bit)
}

// AckPending reads GICC_IAR, returning the pending IRQ number so the
// vector entry trampoline can route it to irq.DispatchIRQ.
func (d *gicV2Driver) AckPending() int {
	return int(device.ReadReg32(d.giccBase, gicCIAR) & 0x3ff)
}

func (d *gicV2Driver) Read(dev *device.Device, buf []byte, off int64) (int, *kernel.Error) {
	return 0, kernel.NewError("gic-v2", kernel.ErrNoSuchCall, "interrupt controllers are not readable")
}

func (d *gicV2Driver) Write(dev *device.Device, buf []byte, off int64) (int, *kernel.Error) {
	return 0, kernel.NewError("gic-v2", kernel.ErrNoSuchCall, "interrupt controllers are not writable")
}

func (d *gicV2Driver) Ioctl(dev *device.Device, request, arg uintptr) (uintptr, *kernel.Error) {
	return 0, kernel.NewError("gic-v2", kernel.ErrNoSuchCall, "no ioctl requests are defined for this driver")
}
