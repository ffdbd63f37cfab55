// Package irq implements the kernel's exception/interrupt dispatch layer
// (§4.4): a fixed-size IRQ handler table and a synchronous-fault classifier
// sitting on top of a statically-placed vector table that the
// arch_$GOARCH.go half of this package installs and that its sibling .s
// file's entry stubs funnel into DispatchIRQ / DispatchSyncFault.
//
// Grounded on the teacher's kernel/irq package (ExceptionNum,
// HandleException/HandleExceptionWithCode) and kernel/gate package
// (Registers, InterruptNumber, HandleInterrupt, installIDT,
// dispatchInterrupt), generalized to a single table both ports share and
// widened with an architecture-neutral SyncFaultKind so §4.4's dispatch
// logic ("classify, then route") is written once instead of twice.
package irq

import "minios/kernel"

// SyncFaultKind classifies a synchronous exception (§4.4) independently of
// how the faulting architecture encodes it.
type SyncFaultKind uint8

const (
	FaultUnknown SyncFaultKind = iota
	FaultPageFault
	FaultAlignment
	FaultUndefinedInstruction
	FaultSyscallTrap
	FaultGeneralProtection
	numSyncFaultKinds
)

var faultKindNames = [numSyncFaultKinds]string{
	"unknown fault",
	"page fault",
	"alignment fault",
	"undefined instruction",
	"syscall trap",
	"general protection fault",
}

func (k SyncFaultKind) String() string {
	if int(k) >= len(faultKindNames) {
		return "invalid fault kind"
	}
	return faultKindNames[k]
}

// SyncFaultHandler handles a classified synchronous exception. Returning
// lets execution resume at the interrupted instruction (e.g. after a
// recoverable page fault); the handler is responsible for deciding whether
// that is safe.
type SyncFaultHandler func(frame *Frame)

// Handler handles a single hardware interrupt number.
type Handler func(irqNum int)

// MaxIRQ bounds the fixed-size IRQ table (§4.4's "fixed-size IRQ table").
const MaxIRQ = 64

var (
	irqTable    [MaxIRQ]Handler
	faultTable  [numSyncFaultKinds]SyncFaultHandler
	sendEOIFn   func(irqNum int)
	terminateFn func(reason string)
	ackIRQFn    func() int

	errBadIRQNumber = kernel.NewError("irq", kernel.ErrInvalidArgument, "irq number out of range")
)

// SetEOIHandler registers the function DispatchIRQ calls after running a
// handler, to signal end-of-interrupt to the active interrupt controller
// driver. The device model wires this during bring-up once a controller is
// bound.
func SetEOIHandler(fn func(irqNum int)) { sendEOIFn = fn }

// SetIRQAcknowledger registers the function the IRQ vector entry calls to
// learn which hardware interrupt is actually pending. x86-64 doesn't need
// this: the PIC remaps each IRQ line to its own IDT vector, so the vector
// number alone tells dispatchTrampoline which line fired. AArch64 funnels
// every hardware interrupt through a single IRQ vector slot instead, so the
// GIC has to be asked (via GICC_IAR) which line is live; intc's arm64
// driver registers that query here during Start.
func SetIRQAcknowledger(fn func() int) { ackIRQFn = fn }

// SetTaskTerminator registers the function DispatchSyncFault calls for an
// unhandled fault with no registered handler: terminate the current task
// with a diagnostic (§4.4). The scheduler wires this during bring-up.
func SetTaskTerminator(fn func(reason string)) { terminateFn = fn }

// RegisterHandler installs h for hardware interrupt number num.
func RegisterHandler(num int, h Handler) *kernel.Error {
	if num < 0 || num >= MaxIRQ {
		return errBadIRQNumber
	}
	irqTable[num] = h
	return nil
}

// RegisterFaultHandler installs h for synchronous faults classified as
// kind, overriding the default terminate-the-task behavior.
func RegisterFaultHandler(kind SyncFaultKind, h SyncFaultHandler) {
	if int(kind) < len(faultTable) {
		faultTable[kind] = h
	}
}

// DispatchIRQ is invoked by the arch vector entry stub for a hardware
// interrupt: look up the handler, run it if present, then EOI.
func DispatchIRQ(num int) {
	if num >= 0 && num < MaxIRQ && irqTable[num] != nil {
		irqTable[num](num)
	}
	if sendEOIFn != nil {
		sendEOIFn(num)
	}
}

// DispatchSyncFault is invoked by the arch vector entry stub for a
// synchronous exception, already classified into kind. A registered
// handler may recover (e.g. service a page fault); absent one, the fault
// terminates the current task, or halts the kernel if there is no task
// scheduler yet to terminate into.
func DispatchSyncFault(kind SyncFaultKind, frame *Frame) {
	if h := faultTable[kind]; h != nil {
		h(frame)
		return
	}
	if terminateFn != nil {
		terminateFn(kind.String())
		return
	}
	kernel.Panic(kernel.NewError("irq", kernel.ErrFault, "unhandled synchronous fault: "+kind.String()))
}

// Init installs the arch-specific vector table.
func Init() { installVectors() }
