package proc

// Context holds the AAPCS64 callee-saved registers (X19-X28, the frame
// pointer X29 and the link register X30) plus SP, letting switchContext
// resume a task mid-function exactly where it last yielded. Field order
// and size must match the byte offsets context_arm64.s indexes by.
type Context struct {
	X19 uintptr
	X20 uintptr
	X21 uintptr
	X22 uintptr
	X23 uintptr
	X24 uintptr
	X25 uintptr
	X26 uintptr
	X27 uintptr
	X28 uintptr
	FP  uintptr // X29
	SP  uintptr
	LR  uintptr // X30
}

// taskStartTrampolineAddr returns the entry address of taskStartTrampoline;
// see the amd64 port's doc comment for why this needs an asm helper.
func taskStartTrampolineAddr() uintptr

// switchContext saves the caller's callee-saved registers and SP into
// from (skipped when nil), then restores to's registers and branches to
// its saved LR. The design's ordering contract (§4.6) requires a data
// memory barrier on AArch64 so that from's writes are visible to to
// after the switch; switchContext issues one before loading to's state.
func switchContext(from, to *Context)

// initContext wires a freshly created task's saved context so the first
// switchContext into it starts the task at taskStartTrampoline on its
// own kernel stack, 16-byte aligned as AAPCS64 requires at a function's
// entry point.
func initContext(ctx *Context, stackBase, stackSize uintptr) {
	top := (stackBase + stackSize) &^ uintptr(15)
	*ctx = Context{
		SP: top,
		LR: taskStartTrampolineAddr(),
	}
}
