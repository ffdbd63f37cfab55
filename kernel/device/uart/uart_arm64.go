package uart

import (
	"minios/kernel"
	"minios/kernel/device"
)

// PL011 register offsets (ARM DDI 0183).
const (
	pl011DR   = 0x00
	pl011FR   = 0x18
	pl011IBRD = 0x24
	pl011FBRD = 0x28
	pl011LCRH = 0x2c
	pl011CR   = 0x30
	pl011IMSC = 0x38
	pl011ICR  = 0x44
)

const (
	pl011FRTXFF = 1 << 5 // transmit FIFO full
	pl011FRRXFE = 1 << 4 // receive FIFO empty

	pl011LCRHFEN = 1 << 4 // enable FIFOs
	pl011LCRHWLEN8 = 0x3 << 5

	pl011CRUARTEN = 1 << 0
	pl011CRTXE    = 1 << 8
	pl011CRRXE    = 1 << 9
)

type pl011Driver struct {
	base uintptr
}

var driverInstance device.Driver = &pl011Driver{}

func (d *pl011Driver) Name() string       { return "pl011" }
func (d *pl011Driver) MatchIDs() []string { return []string{"arm,pl011"} }
func (d *pl011Driver) Priority() int      { return 10 }
func (d *pl011Driver) Type() device.Type  { return device.TypeUart }

func (d *pl011Driver) Probe(dev *device.Device) *kernel.Error {
	if dev.MMIOBase == 0 {
		return kernel.NewError("pl011", kernel.ErrNoSuchDevice, "no MMIO base supplied")
	}
	d.base = dev.MMIOBase
	return nil
}

func (d *pl011Driver) Init(dev *device.Device) *kernel.Error {
	device.WriteReg32(d.base, pl011CR, 0) // disable while configuring
	device.WriteReg32(d.base, pl011ICR, 0x7ff)
	device.WriteReg32(d.base, pl011LCRH, pl011LCRHFEN|pl011LCRHWLEN8)
	device.WriteReg32(d.base, pl011IMSC, 0)
	return nil
}

func (d *pl011Driver) Start(dev *device.Device) *kernel.Error {
	device.WriteReg32(d.base, pl011CR, pl011CRUARTEN|pl011CRTXE|pl011CRRXE)
	return nil
}

func (d *pl011Driver) Read(dev *device.Device, buf []byte, off int64) (int, *kernel.Error) {
	n := 0
	for n < len(buf) {
		if device.ReadReg32(d.base, pl011FR)&pl011FRRXFE != 0 {
			break
		}
		buf[n] = byte(device.ReadReg32(d.base, pl011DR))
		n++
	}
	return n, nil
}

func (d *pl011Driver) Write(dev *device.Device, buf []byte, off int64) (int, *kernel.Error) {
	for _, b := range buf {
		for device.ReadReg32(d.base, pl011FR)&pl011FRTXFF != 0 {
		}
		device.WriteReg32(d.base, pl011DR, uint32(b))
	}
	return len(buf), nil
}

func (d *pl011Driver) Ioctl(dev *device.Device, request, arg uintptr) (uintptr, *kernel.Error) {
	return 0, kernel.NewError("pl011", kernel.ErrNoSuchCall, "no ioctl requests are defined for this driver")
}
