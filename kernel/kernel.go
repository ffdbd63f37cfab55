// Package kernel provides the types and helpers shared by every kernel
// subsystem: the error taxonomy, the fatal-panic path and a handful of
// allocation-free memory primitives that do not depend on the Go heap.
package kernel

import (
	"unsafe"
)

// ErrorKind classifies an Error so that callers can make policy decisions
// (retry, propagate a specific errno-like value, …) without string
// matching on Message.
type ErrorKind uint8

// The kernel-wide error taxonomy. Every *Error returned by a kernel API is
// tagged with exactly one of these.
const (
	ErrUnknown ErrorKind = iota
	ErrOutOfMemory
	ErrOutOfFds
	ErrOutOfTasks
	ErrInvalidArgument
	ErrNoSuchDevice
	ErrNoSuchCall
	ErrNoSuchFile
	ErrNoSuchFilesystem
	ErrAlreadyExists
	ErrNotReady
	ErrNotMapped
	ErrPermissionDenied
	ErrFault
)

var kindNames = [...]string{
	ErrUnknown:          "unknown",
	ErrOutOfMemory:      "out of memory",
	ErrOutOfFds:         "out of file descriptors",
	ErrOutOfTasks:       "out of tasks",
	ErrInvalidArgument:  "invalid argument",
	ErrNoSuchDevice:     "no such device",
	ErrNoSuchCall:       "no such call",
	ErrNoSuchFile:       "no such file",
	ErrNoSuchFilesystem: "no such filesystem",
	ErrAlreadyExists:    "already exists",
	ErrNotReady:         "not ready",
	ErrNotMapped:        "not mapped",
	ErrPermissionDenied: "permission denied",
	ErrFault:            "fault",
}

// String returns a human-readable name for the error kind.
func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid error kind"
}

// Error describes a kernel error. All kernel errors are defined either as
// global variables or constructed with New; both forms avoid depending on
// the standard library's errors.New so that this package stays usable
// before the kernel heap is available.
type Error struct {
	// Module is the subsystem that raised the error (e.g. "pmm", "vfs").
	Module string
	// Message is a short human-readable description.
	Message string
	// Kind classifies the error for programmatic handling.
	Kind ErrorKind
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Module + ": " + e.Message
}

// NewError constructs an *Error with the given module, kind and message.
func NewError(module string, kind ErrorKind, message string) *Error {
	return &Error{Module: module, Message: message, Kind: kind}
}

// Panic halts the kernel after dumping the error to the active console.
// It is reserved for the conditions enumerated in the error-handling
// design: BootInfo validation failure, failure to build the initial
// kernel page tables, failure to install exception vectors and an
// unhandled exception in the init/idle task. Every other failure must be
// surfaced to its caller as an *Error instead.
//
//go:noinline
func Panic(err *Error) {
	panicf("kernel panic (%s): %s\n", err.Module, err.Message)
	haltFn()
}

// panicf and haltFn are indirections so that tests can observe a call to
// Panic without actually halting the CPU.
var (
	panicf = defaultPanicf
	haltFn = defaultHalt
)

func defaultPanicf(format string, args ...interface{}) {
	// early console output is wired in by kmsg.Init via SetPanicSink;
	// until then panics are dropped rather than crashing the formatter.
	if panicSink != nil {
		panicSink(format, args...)
	}
}

// SetPanicSink installs the function used to report a Panic. kmain wires
// this to the kmsg logger once the console is available.
func SetPanicSink(fn func(format string, args ...interface{})) {
	panicSink = fn
}

var panicSink func(format string, args ...interface{})

func defaultHalt() {
	archHalt()
}

// archHalt is implemented per architecture (kernel/cpu) and wired in via
// SetHaltFunc during HAL init; it defaults to an infinite loop so that
// package kernel never needs an import cycle on kernel/cpu.
var archHalt = func() {
	for {
	}
}

// SetHaltFunc installs the architecture's halt instruction (e.g. HLT/WFI).
func SetHaltFunc(fn func()) {
	archHalt = fn
}

// Memset sets size bytes starting at addr to value. The implementation
// overlays a byte slice on top of the raw address and uses
// log2(size) copies (bytes.Repeat's trick) instead of a byte-by-byte loop,
// which matters once size reaches a page: a naive loop here shows up in
// profiles of early boot code. addr is not required to be size-aligned,
// but every block kmalloc hands out is 16-byte aligned (see kernel/mm/kheap)
// specifically so that no caller of Memset ever straddles the boundary a
// vectorizing compiler might decide to access with a single wide load.
func Memset(addr uintptr, value byte, size uintptr) {
	if size == 0 {
		return
	}

	target := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	target[0] = value
	for index := uintptr(1); index < size; index *= 2 {
		copy(target[index:], target[:index])
	}
}

// Memcopy copies size bytes from src to dst. The two regions must not
// overlap.
func Memcopy(src, dst uintptr, size uintptr) {
	if size == 0 {
		return
	}

	srcSlice := unsafe.Slice((*byte)(unsafe.Pointer(src)), size)
	dstSlice := unsafe.Slice((*byte)(unsafe.Pointer(dst)), size)
	copy(dstSlice, srcSlice)
}
