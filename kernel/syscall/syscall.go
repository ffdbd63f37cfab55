// Package syscall implements the system-call entry/dispatch mechanism
// (§4.7): a fixed-size table indexed by syscall number, wired to the
// architecture's synchronous-fault classifier as the handler for
// irq.FaultSyscallTrap. It is new code (the teacher never grew user-mode
// entry points) grounded on kernel/irq's existing "classify, then route"
// dispatch shape and kernel/device's registry-of-fixed-slots convention.
package syscall

import (
	"unsafe"

	"minios/kernel"
	"minios/kernel/fd"
	"minios/kernel/fs"
	"minios/kernel/irq"
	"minios/kernel/proc"
)

// Numbers, stable for the life of the kernel (external interfaces §6).
const (
	Exit    = 0
	Print   = 1
	Read    = 2
	Write   = 3
	Getpid  = 4
	Sleep   = 5
	Getcwd  = 6
	Chdir   = 7
	Open    = 8
	Close   = 9
	Mkdir   = 10
	Readdir = 11
	Stat    = 12

	numSyscalls = 13
)

// errNoSuchCall is returned (as a negative Result) for an out-of-range
// syscall number (§4.7 step 3, §7).
var errNoSuchCall = -int64(1) - int64(kernel.ErrNoSuchCall)

// Args is the normalized argument vector a handler receives, extracted
// from the architecture-designated registers before Dispatch calls it
// (§4.7 step 4).
type Args [6]uint64

// Handler implements one syscall number. The return value is placed
// directly in the architecture's return register; by convention,
// negative values encode an error kind (§7: "syscalls return a signed
// integer where negative values encode the error kind") and
// non-negative values encode a success payload.
type Handler func(args Args) int64

var table [numSyscalls]Handler

func init() {
	table[Exit] = sysExit
	table[Print] = sysPrint
	table[Read] = sysRead
	table[Write] = sysWrite
	table[Getpid] = sysGetpid
	table[Sleep] = sysSleep
	table[Getcwd] = sysGetcwd
	table[Chdir] = sysChdir
	table[Open] = sysOpen
	table[Close] = sysClose
	table[Mkdir] = sysMkdir
	table[Readdir] = sysReaddir
	table[Stat] = sysStat
}

// Init wires Dispatch in as the handler for syscall traps (§4.4, §4.7).
func Init() {
	irq.RegisterFaultHandler(irq.FaultSyscallTrap, dispatch)
}

// dispatch implements the architecture-neutral half of the trap entry
// described in §4.7: extract number and args from frame, validate range,
// call the handler, and place the return value back in frame.
func dispatch(frame *irq.Frame) {
	num := frame.SyscallNumber()
	if num >= numSyscalls || table[num] == nil {
		frame.SetSyscallReturn(uint64(errNoSuchCall))
		return
	}

	var args Args
	for i := range args {
		args[i] = frame.SyscallArg(i)
	}

	ret := table[num](args)
	frame.SetSyscallReturn(uint64(ret))
}

// errno packs a kernel.ErrorKind into the negative-integer convention
// §7 specifies.
func errno(kind kernel.ErrorKind) int64 { return -1 - int64(kind) }

func errnoOf(err *kernel.Error) int64 {
	if err == nil {
		return 0
	}
	return errno(err.Kind)
}

func currentFdTable() *fd.Table {
	t := proc.CurrentTask()
	if t == nil {
		return nil
	}
	return t.FdTable
}

// bufFromArgs overlays a byte slice on the ptr/len pair found at argument
// indices i and i+1. MiniOS runs every task in the shared kernel address
// space (§4.2's AddressSpace note: "currently one shared kernel AS"), so a
// syscall argument naming a user buffer is already a valid kernel-virtual
// pointer; a future per-process AddressSpace would insert a
// copy_from/to_user step here instead.
func bufFromArgs(ptr, length uint64) []byte {
	if ptr == 0 || length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), int(length))
}

func stringFromArgs(ptr, length uint64) string {
	return string(bufFromArgs(ptr, length))
}

func sysExit(args Args) int64 {
	proc.Exit(int(args[0]))
	return 0
}

func sysPrint(args Args) int64 {
	buf := bufFromArgs(args[0], args[1])
	t := currentFdTable()
	if t == nil {
		return errno(kernel.ErrNotReady)
	}
	of, err := t.Get(fd.Stdout)
	if err != nil {
		return errnoOf(err)
	}
	n, err := fs.Write(of, buf)
	if err != nil {
		return errnoOf(err)
	}
	return int64(n)
}

func sysRead(args Args) int64 {
	t := currentFdTable()
	if t == nil {
		return errno(kernel.ErrNotReady)
	}
	of, err := t.Get(int(args[0]))
	if err != nil {
		return errnoOf(err)
	}
	buf := bufFromArgs(args[1], args[2])
	n, err := fs.Read(of, buf)
	if err != nil {
		return errnoOf(err)
	}
	return int64(n)
}

func sysWrite(args Args) int64 {
	t := currentFdTable()
	if t == nil {
		return errno(kernel.ErrNotReady)
	}
	of, err := t.Get(int(args[0]))
	if err != nil {
		return errnoOf(err)
	}
	buf := bufFromArgs(args[1], args[2])
	n, err := fs.Write(of, buf)
	if err != nil {
		return errnoOf(err)
	}
	return int64(n)
}

func sysGetpid(args Args) int64 {
	return int64(proc.Current())
}

func sysSleep(args Args) int64 {
	// Baseline sleep blocks the task until the scheduler's tick count
	// advances by the requested milliseconds (§5); the actual wake-up
	// wiring lives in kernel/kmain, which registers a per-task wake tick
	// with the timer driver before calling proc.Block. This package only
	// owns the syscall-number contract, not the wait-queue bookkeeping.
	if err := proc.Block(); err != nil {
		return errnoOf(err)
	}
	return 0
}

func sysGetcwd(args Args) int64 {
	t := proc.CurrentTask()
	if t == nil {
		return errno(kernel.ErrInvalidArgument)
	}
	buf := bufFromArgs(args[0], args[1])
	n := copy(buf, t.Cwd)
	return int64(n)
}

func sysChdir(args Args) int64 {
	t := proc.CurrentTask()
	if t == nil {
		return errno(kernel.ErrInvalidArgument)
	}
	path := stringFromArgs(args[0], args[1])
	if len(path) == 0 {
		return errno(kernel.ErrInvalidArgument)
	}
	canonPath := fs.Canon(path)
	vn, err := fs.Resolve(canonPath)
	if err != nil {
		return errnoOf(err)
	}
	if vn.Kind != fs.KindDirectory {
		return errno(kernel.ErrInvalidArgument)
	}
	t.Cwd = canonPath
	return 0
}

func sysOpen(args Args) int64 {
	path := stringFromArgs(args[0], args[1])
	flags := fs.OpenFlags(args[2])

	t := currentFdTable()
	if t == nil {
		return errno(kernel.ErrNotReady)
	}

	of, err := fs.Open(path, flags)
	if err != nil {
		return errnoOf(err)
	}
	fdNum, err := t.Alloc(of)
	if err != nil {
		return errnoOf(err)
	}
	return int64(fdNum)
}

func sysClose(args Args) int64 {
	t := currentFdTable()
	if t == nil {
		return errno(kernel.ErrNotReady)
	}
	if err := t.Close(int(args[0])); err != nil {
		return errnoOf(err)
	}
	return 0
}

func sysMkdir(args Args) int64 {
	path := stringFromArgs(args[0], args[1])
	if err := fs.Mkdir(path); err != nil {
		return errnoOf(err)
	}
	return 0
}

func sysReaddir(args Args) int64 {
	path := stringFromArgs(args[0], args[1])
	cursor := int(args[2])
	nameBuf := bufFromArgs(args[3], args[4])

	entry, next, end, err := fs.Readdir(path, cursor)
	if err != nil {
		return errnoOf(err)
	}
	if end {
		return -1
	}
	copy(nameBuf, entry.Name)
	return int64(next)
}

func sysStat(args Args) int64 {
	path := stringFromArgs(args[0], args[1])
	st, err := fs.StatPath(path)
	if err != nil {
		return errnoOf(err)
	}
	out := (*struct {
		Kind uint64
		Size int64
	})(unsafe.Pointer(uintptr(args[2])))
	out.Kind = uint64(st.Kind)
	out.Size = st.Size
	return 0
}
