package proc

// Context holds the registers switchContext saves and restores across a
// context switch: the callee-saved GPRs the System V AMD64 ABI requires a
// callee to preserve (RBX, RBP, R12-R15), plus RSP/RIP so a switch can
// resume a task mid-function exactly where it last yielded. Field order
// and size must match the byte offsets context_amd64.s indexes by.
type Context struct {
	RBX uintptr
	RBP uintptr
	R12 uintptr
	R13 uintptr
	R14 uintptr
	R15 uintptr
	RSP uintptr
	RIP uintptr
}

// taskStartTrampolineAddr returns the entry address of taskStartTrampoline.
// initContext needs this as a plain uintptr to seed a new task's RIP;
// getting it requires a one-instruction asm helper since Go code has no
// portable way to take a function's raw entry address.
func taskStartTrampolineAddr() uintptr

// switchContext saves the caller's callee-saved registers and stack
// pointer into from (skipped when from is nil, as when the previously
// running task just exited), then restores to's registers and jumps to
// its saved RIP. On x86-64 the MOV into CR3 done earlier by the caller's
// address-space switch already implies the ordering barrier the design
// requires (§4.6); no separate fence is needed here.
func switchContext(from, to *Context)

// initContext wires a freshly created task's saved context so that the
// first switchContext into it starts the task at taskStartTrampoline on
// its own kernel stack, 16-byte aligned per the System V ABI's stack
// alignment rule at a function's entry point.
func initContext(ctx *Context, stackBase, stackSize uintptr) {
	top := (stackBase + stackSize) &^ uintptr(15)
	*ctx = Context{
		RSP: top,
		RIP: taskStartTrampolineAddr(),
	}
}
