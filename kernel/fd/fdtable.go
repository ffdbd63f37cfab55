// Package fd implements the per-task file-descriptor table (§4.11): a
// fixed 32-slot indirection from a small integer to an *fs.OpenFile, with
// slots 0/1/2 pre-wired to the console's read/write/write endpoints at
// table creation, grounded on the same fixed-array-plus-critical-section
// shape as kernel/proc's task table and kernel/device's registries.
package fd

import (
	"minios/kernel"
	"minios/kernel/cpu"
	"minios/kernel/device"
	"minios/kernel/fs"
)

// NMax is the fixed table size (§3: "N_MAX = 32").
const NMax = 32

const (
	// Stdin, Stdout and Stderr are the fixed fd numbers wired at table
	// creation (§4.11).
	Stdin  = 0
	Stdout = 1
	Stderr = 2
)

// Table is one task's file-descriptor table.
type Table struct {
	slots [NMax]*fs.OpenFile
}

var (
	errOutOfFds         = kernel.NewError("fd", kernel.ErrOutOfFds, "file descriptor table exhausted")
	errInvalidArgument  = kernel.NewError("fd", kernel.ErrInvalidArgument, "invalid file descriptor")
)

// NewTable builds a fresh table with fd 0/1/2 pre-wired to consoleDev
// (§4.11). consoleDev must already be Active.
func NewTable(consoleDev *device.Device) *Table {
	t := &Table{}
	t.slots[Stdin] = newConsoleOpenFile(consoleDev, fs.FlagRead)
	t.slots[Stdout] = newConsoleOpenFile(consoleDev, fs.FlagWrite)
	t.slots[Stderr] = newConsoleOpenFile(consoleDev, fs.FlagWrite)
	return t
}

// Alloc installs of in the lowest free slot and returns its fd, or
// OutOfFds if the table is full (§4.11).
func (t *Table) Alloc(of *fs.OpenFile) (int, *kernel.Error) {
	prev := cpu.IrqDisable()
	defer cpu.IrqRestore(prev)

	for i := range t.slots {
		if t.slots[i] == nil {
			t.slots[i] = of
			return i, nil
		}
	}
	return 0, errOutOfFds
}

// Get returns the OpenFile bound to fd, or InvalidArgument if fd is out of
// range or closed (§8: "subsequent read/write(fd) returns the error
// InvalidArgument" after close).
func (t *Table) Get(fd int) (*fs.OpenFile, *kernel.Error) {
	if fd < 0 || fd >= NMax || t.slots[fd] == nil {
		return nil, errInvalidArgument
	}
	return t.slots[fd], nil
}

// Close invalidates fd (§4.11: "closing an fd invalidates only that fd")
// and releases the underlying OpenFile through the owning filesystem once
// its vnode's refcount reaches zero (handled by fs.Close).
func (t *Table) Close(fd int) *kernel.Error {
	of, err := t.Get(fd)
	if err != nil {
		return err
	}

	prev := cpu.IrqDisable()
	t.slots[fd] = nil
	cpu.IrqRestore(prev)

	return fs.Close(of)
}
