// Package blockdev implements the block-device layer (§4.10): a flat,
// exact-match-by-name registry of block devices, each exposing
// read/write-by-block-index operations validated against its advertised
// block count. It is the storage-layer sibling of kernel/device: grounded
// on the same "process-wide registry + Active-state gate" shape as
// kernel/device.RegisterDevice, narrowed to the block-read/write/sync
// vtable the VFS's ramdisk-backed filesystems need instead of the general
// probe/init/start lifecycle (block devices in this design are Active the
// moment they are registered; they have no driver-binding step of their
// own).
package blockdev

import "minios/kernel"

// Flags describes the capabilities of a block device.
type Flags uint8

const (
	FlagReadable Flags = 1 << iota
	FlagWritable
	FlagRemovable
)

// Stats counts block-level I/O performed against a device, mirroring the
// frame allocator's own counters (§4.1), kept as plain fields: this
// kernel is single-hart, and updates to them use no atomics and no
// critical section.
type Stats struct {
	BlocksRead    uint64
	BlocksWritten uint64
}

// Ops is the operation vtable a concrete block device implements.
type Ops interface {
	ReadBlock(n uint64, buf []byte) *kernel.Error
	WriteBlock(n uint64, buf []byte) *kernel.Error
	Sync() *kernel.Error
}

// Device is one registered block device.
type Device struct {
	Name      string
	BlockSize int
	NumBlocks uint64
	Flags     Flags
	Ops       Ops
	Stats     Stats
}

var (
	devices []*Device

	errAlreadyExists  = kernel.NewError("blockdev", kernel.ErrAlreadyExists, "a block device with this name is already registered")
	errNoSuchDevice   = kernel.NewError("blockdev", kernel.ErrNoSuchDevice, "no block device registered under this name")
	errOutOfRange     = kernel.NewError("blockdev", kernel.ErrInvalidArgument, "block index out of range")
	errNotReadable    = kernel.NewError("blockdev", kernel.ErrInvalidArgument, "block device is not readable")
	errNotWritable    = kernel.NewError("blockdev", kernel.ErrInvalidArgument, "block device is not writable")
)

// Register adds dev to the registry. Duplicate names fail with
// AlreadyExists, mirroring the filesystem-type registry's own
// additive-only rule (§4.8).
func Register(dev *Device) *kernel.Error {
	if Find(dev.Name) != nil {
		return errAlreadyExists
	}
	devices = append(devices, dev)
	return nil
}

// Find returns the device registered under name, or nil.
func Find(name string) *Device {
	for _, d := range devices {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// ReadBlock reads block n of dev into buf, which must be at least
// BlockSize bytes. n >= NumBlocks fails with InvalidArgument (§8 boundary
// behavior: "read_block(num_blocks) returns InvalidArgument").
func ReadBlock(dev *Device, n uint64, buf []byte) *kernel.Error {
	if dev.Flags&FlagReadable == 0 {
		return errNotReadable
	}
	if n >= dev.NumBlocks {
		return errOutOfRange
	}
	if err := dev.Ops.ReadBlock(n, buf); err != nil {
		return err
	}
	dev.Stats.BlocksRead++
	return nil
}

// WriteBlock writes buf (at least BlockSize bytes) to block n of dev.
func WriteBlock(dev *Device, n uint64, buf []byte) *kernel.Error {
	if dev.Flags&FlagWritable == 0 {
		return errNotWritable
	}
	if n >= dev.NumBlocks {
		return errOutOfRange
	}
	if err := dev.Ops.WriteBlock(n, buf); err != nil {
		return err
	}
	dev.Stats.BlocksWritten++
	return nil
}

// resetForTest clears the package-level registry.
func resetForTest() { devices = nil }
