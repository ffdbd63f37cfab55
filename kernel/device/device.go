// Package device implements the kernel's device model (§4.5): a
// process-wide device list and a driver list, bound together by exact-name
// matching, each device progressing through a
// Registered->Probed->Initialized->Active state machine (or Failed, with a
// logged reason, at any step).
//
// Grounded on the teacher's device.Driver interface and hal.DetectHardware
// (driver-list sorting by priority, probe/init dispatch, per-driver log
// prefixing), generalized from the teacher's console/tty-only device model
// to the spec's read/write/ioctl pass-through over arbitrary MMIO devices.
package device

import (
	"sort"

	"minios/kernel"
)

// State is a position in a Device's Registered->Probed->Initialized->Active
// (or ->Failed) lifecycle.
type State uint8

const (
	StateRegistered State = iota
	StateProbed
	StateInitialized
	StateActive
	StateFailed
)

var stateNames = [...]string{
	StateRegistered:  "registered",
	StateProbed:      "probed",
	StateInitialized: "initialized",
	StateActive:      "active",
	StateFailed:      "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "invalid state"
}

// Type classifies a Device into one of the kinds named in §3's data model.
type Type uint8

const (
	TypeOther Type = iota
	TypeTimer
	TypeUart
	TypeInterruptController
	TypeBlock
)

var typeNames = [...]string{
	TypeOther:               "other",
	TypeTimer:               "timer",
	TypeUart:                "uart",
	TypeInterruptController: "interrupt-controller",
	TypeBlock:               "block",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "invalid type"
}

// Driver is implemented by every device driver. MatchIDs lists the exact
// device names (§4.5: "a single canonical name constant per supported
// device class") this driver binds to; Priority orders the driver list
// lower-first, mirroring the teacher's DriverInfoList sort. Type reports
// the device class the driver binds (§3's Device.type), so callers that
// need to enumerate devices by class (rather than by the name they already
// know) don't have to hard-code each driver's identity.
type Driver interface {
	Name() string
	MatchIDs() []string
	Priority() int
	Type() Type
	Probe(dev *Device) *kernel.Error
	Init(dev *Device) *kernel.Error
	Start(dev *Device) *kernel.Error
	Read(dev *Device, buf []byte, off int64) (int, *kernel.Error)
	Write(dev *Device, buf []byte, off int64) (int, *kernel.Error)
	Ioctl(dev *Device, request uintptr, arg uintptr) (uintptr, *kernel.Error)
}

// Device is a single piece of hardware discovered by the arch-specific
// bring-up code (§4.5: "device discovery is architecture-specific and
// entirely a black box to the model") and, once bound, owned by exactly one
// Driver.
type Device struct {
	Name       string
	Type       Type
	MMIOBase   uintptr
	IRQ        int
	State      State
	Driver     Driver
	FailReason string
}

type driverList []Driver

func (l driverList) Len() int           { return len(l) }
func (l driverList) Less(i, j int) bool { return l[i].Priority() < l[j].Priority() }
func (l driverList) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }

var (
	drivers driverList
	devices []*Device

	errNoMatchingDriver = kernel.NewError("device", kernel.ErrNoSuchDevice, "no registered driver matches this device name")
	errNotActive        = kernel.NewError("device", kernel.ErrNotReady, "device is not active")
)

// RegisterDriver adds d to the driver list. The list is re-sorted with
// sort.Sort, which is not stable, so the relative order of drivers with
// equal Priority is not defined.
func RegisterDriver(d Driver) {
	drivers = append(drivers, d)
	sort.Sort(drivers)
}

// RegisterDevice registers a device discovered by arch-specific bring-up
// code and attempts to bind it to the first driver (by priority) whose
// MatchIDs contains name exactly. Binding walks Probe -> Init -> Start,
// advancing the device's state after each step; any failure moves the
// device to Failed with a logged reason and stops the walk.
func RegisterDevice(name string, mmioBase uintptr, irq int) *Device {
	dev := &Device{Name: name, MMIOBase: mmioBase, IRQ: irq, State: StateRegistered}
	devices = append(devices, dev)

	drv := findDriver(name)
	if drv == nil {
		dev.State = StateFailed
		dev.FailReason = errNoMatchingDriver.Message
		return dev
	}
	dev.Driver = drv
	dev.Type = drv.Type()

	if err := drv.Probe(dev); err != nil {
		fail(dev, err)
		return dev
	}
	dev.State = StateProbed

	if err := drv.Init(dev); err != nil {
		fail(dev, err)
		return dev
	}
	dev.State = StateInitialized

	if err := drv.Start(dev); err != nil {
		fail(dev, err)
		return dev
	}
	dev.State = StateActive

	return dev
}

func fail(dev *Device, err *kernel.Error) {
	dev.State = StateFailed
	dev.FailReason = err.Message
}

func findDriver(name string) Driver {
	for _, d := range drivers {
		for _, id := range d.MatchIDs() {
			if id == name {
				return d
			}
		}
	}
	return nil
}

// Find returns the registered device named name, or nil.
func Find(name string) *Device {
	for _, dev := range devices {
		if dev.Name == name {
			return dev
		}
	}
	return nil
}

// FindByType returns the first Active device of the given class, or nil.
// Unlike Find, callers don't need to know the arch-specific canonical name
// in advance (useful for arch-neutral code that just wants "the timer").
func FindByType(t Type) *Device {
	for _, dev := range devices {
		if dev.Type == t && dev.State == StateActive {
			return dev
		}
	}
	return nil
}

// Devices returns every registered device, in registration order.
func Devices() []*Device { return devices }

// Read, Write and Ioctl pass through to the bound driver; calling any of
// them on a non-Active device fails with NotReady (§4.5).
func Read(dev *Device, buf []byte, off int64) (int, *kernel.Error) {
	if dev.State != StateActive {
		return 0, errNotActive
	}
	return dev.Driver.Read(dev, buf, off)
}

func Write(dev *Device, buf []byte, off int64) (int, *kernel.Error) {
	if dev.State != StateActive {
		return 0, errNotActive
	}
	return dev.Driver.Write(dev, buf, off)
}

func Ioctl(dev *Device, request uintptr, arg uintptr) (uintptr, *kernel.Error) {
	if dev.State != StateActive {
		return 0, errNotActive
	}
	return dev.Driver.Ioctl(dev, request, arg)
}

// resetForTest clears the package-level registries. Used only by tests in
// this package and its sub-packages' drivers, which each register
// themselves into a fresh instance per test.
func resetForTest() {
	drivers = nil
	devices = nil
}
