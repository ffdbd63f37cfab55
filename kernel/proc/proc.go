// Package proc implements the task table and round-robin scheduler
// (§4.6): a fixed task table, one FIFO ready queue per priority level,
// and a quantum-driven reschedule hooked off the timer IRQ
// (kernel/device/timer.SetTickHandler). The shape mirrors the teacher's
// own "fixed-size table guarded by a critical section" style used
// throughout kernel/mm/pmm and kernel/device; the teacher itself never
// grew a scheduler, so the task-table/ready-queue design and the
// save/restore contract below are grounded directly on the spec's
// design notes (§4.6, §5) rather than on a teacher analogue.
package proc

import (
	"minios/kernel"
	"minios/kernel/cpu"
	"minios/kernel/fd"
)

// NTasksMax is the fixed task table size (§4.6 requires at least 32).
const NTasksMax = 32

// NPriorities is the number of distinct priority levels; 0 is highest,
// idleTaskPriority is lowest.
const NPriorities = 32

// idleTaskPriority is the priority level reserved for the idle task,
// which is always Ready and picked only when every other queue is empty.
const idleTaskPriority = NPriorities - 1

// DefaultQuantumTicks is the number of timer ticks a task runs before
// quantum expiry forces a reschedule (§4.6: "default 10 ms expressed in
// timer ticks"); the timer package fires one tick per 10 ms, so the
// quantum is one tick.
const DefaultQuantumTicks = 1

// StackSize is the kernel stack size handed to every task (§4.6: at
// least 16 KiB, 16-byte aligned; kheap.Kmalloc already guarantees the
// alignment).
const StackSize = 16 * 1024

// State is a task's position in the lifecycle described by §4.6.
type State uint8

const (
	StateUnused State = iota
	StateNew
	StateReady
	StateRunning
	StateBlocked
	StateZombie
	StateTerminated
)

var stateNames = [...]string{
	StateUnused:     "unused",
	StateNew:        "new",
	StateReady:      "ready",
	StateRunning:    "running",
	StateBlocked:    "blocked",
	StateZombie:     "zombie",
	StateTerminated: "terminated",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// EntryFn is a task's initial function, run with interrupts enabled and
// the task's own kernel stack active.
type EntryFn func()

// Task is one task-table slot. Fields below the SavedContext line are
// scheduler bookkeeping only; SavedContext and the stack fields are the
// architecture-specific context-switch surface (context_$GOARCH.go).
type Task struct {
	PID      int
	Name     string
	Priority int
	State    State

	StackBase uintptr
	StackSize uintptr

	SavedContext Context

	TimeSliceRemaining int
	ExitCode           int
	Entry              EntryFn

	// FdTable is this task's file-descriptor table (§3). It is nil until
	// SetFdTable assigns one; CreateTask does not allocate one itself
	// since doing so requires a bound console device that is not always
	// available yet (e.g. the idle task created by Init, before device
	// bring-up has run).
	FdTable *fd.Table

	// ParentPID is the PID of the task that called CreateTask, or -1 for
	// the idle task (§3: "parent_pid?").
	ParentPID int

	// Cwd is the task's current working directory, used by the getcwd
	// and chdir syscalls (§4.7). The spec's Task fields (§3) do not name
	// it explicitly but the two syscalls need somewhere to keep it.
	Cwd string

	next int // intrusive FIFO link within its ready queue; -1 if none
}

// taskStartTrampoline is where a brand-new task's saved context points;
// switchContext jumps here the first time a task is picked rather than
// resuming mid-function the way it does for a task that has already run
// once. It runs the task's entry point to completion and then exits it,
// matching New → Ready → Running → Zombie without the task ever having
// to call Exit itself.
func taskStartTrampoline() {
	t := CurrentTask()
	t.Entry()
	Exit(0)
}

var (
	tasks       [NTasksMax]Task
	readyHead   [NPriorities]int // task index of queue head, or -1
	readyTail   [NPriorities]int // task index of queue tail, or -1
	current     int  = -1
	idleTaskPID int  = -1
	initialized bool
)

// switchContextFn is the indirection Yield and Exit call instead of
// switchContext directly, the same "function variable swapped in tests"
// convention kernel/mm/vmm uses for cpu.FlushTLBEntry/SwitchAddressSpace:
// actually executing switchContext hijacks the calling goroutine's stack
// pointer, which is safe on bare metal but not under a hosted `go test`
// process, so tests override this to observe switch requests without
// performing them.
var switchContextFn = switchContext

var (
	errOutOfTasks   = kernel.NewError("proc", kernel.ErrOutOfTasks, "task table exhausted")
	errNoSuchTask   = kernel.NewError("proc", kernel.ErrInvalidArgument, "no such task")
	errNotScheduler = kernel.NewError("proc", kernel.ErrInvalidArgument, "scheduler not initialized")
)

func init() {
	for i := range readyHead {
		readyHead[i] = -1
		readyTail[i] = -1
	}
	for i := range tasks {
		tasks[i].next = -1
	}
}

// Init creates the idle task and marks the scheduler ready. It must run
// once, after kheap.Init and before the first Tick or Yield.
func Init() *kernel.Error {
	pid, err := CreateTask(idleLoop, "idle", idleTaskPriority)
	if err != nil {
		return err
	}
	idleTaskPID = pid
	initialized = true
	return nil
}

func idleLoop() {
	for {
		cpu.Halt()
	}
}

// CreateTask allocates a task-table slot and a kernel stack, wires
// SavedContext so a switch into it starts entry with interrupts enabled,
// and enqueues it Ready (§4.6: New → Ready via create_task).
func CreateTask(entry EntryFn, name string, priority int) (int, *kernel.Error) {
	prev := cpu.IrqDisable()
	defer cpu.IrqRestore(prev)

	slot := -1
	for i := range tasks {
		if tasks[i].State == StateUnused {
			slot = i
			break
		}
	}
	if slot < 0 {
		return 0, errOutOfTasks
	}

	stackBase, allocErr := allocStack()
	if allocErr != nil {
		return 0, allocErr
	}

	t := &tasks[slot]
	t.PID = slot
	t.Name = name
	t.Priority = priority
	t.State = StateNew
	t.StackBase = stackBase
	t.StackSize = StackSize
	t.TimeSliceRemaining = DefaultQuantumTicks
	t.ExitCode = 0
	t.Entry = entry
	t.next = -1
	t.ParentPID = current
	t.Cwd = "/"
	t.FdTable = nil
	initContext(&t.SavedContext, stackBase, StackSize)

	t.State = StateReady
	enqueueReady(slot)

	return slot, nil
}

// SetFdTable assigns t's file-descriptor table. Used by kmain to wire the
// first task's fd 0/1/2 to the console once the UART device is Active
// (§2: "initializes the FD table for the first task").
func SetFdTable(pid int, t *fd.Table) *kernel.Error {
	task := TaskByPID(pid)
	if task == nil {
		return errNoSuchTask
	}
	task.FdTable = t
	return nil
}

// enqueueReady appends pid to the tail of its priority's FIFO. Callers
// must hold the scheduler's critical section (interrupts disabled).
func enqueueReady(pid int) {
	p := tasks[pid].Priority
	tasks[pid].next = -1
	if readyTail[p] < 0 {
		readyHead[p] = pid
		readyTail[p] = pid
		return
	}
	tasks[readyTail[p]].next = pid
	readyTail[p] = pid
}

// dequeueReady pops and returns the head of priority level p, or -1 if
// empty. Callers must hold the scheduler's critical section.
func dequeueReady(p int) int {
	pid := readyHead[p]
	if pid < 0 {
		return -1
	}
	readyHead[p] = tasks[pid].next
	if readyHead[p] < 0 {
		readyTail[p] = -1
	}
	tasks[pid].next = -1
	return pid
}

// PickNext returns the task index at the head of the highest non-empty
// priority queue, or -1 if the scheduler has nothing runnable (only
// possible before Init creates the idle task).
func PickNext() int {
	prev := cpu.IrqDisable()
	defer cpu.IrqRestore(prev)
	return pickNextLocked()
}

func pickNextLocked() int {
	for p := 0; p < NPriorities; p++ {
		if pid := dequeueReady(p); pid >= 0 {
			return pid
		}
	}
	return -1
}

// Current returns the index of the running task, or -1 before the first
// switch.
func Current() int { return current }

// CurrentTask returns a pointer to the running task's slot, or nil
// before the first switch.
func CurrentTask() *Task {
	if current < 0 {
		return nil
	}
	return &tasks[current]
}

// Task returns a pointer to the task-table slot for pid, or nil if pid
// is out of range or unused.
func TaskByPID(pid int) *Task {
	if pid < 0 || pid >= NTasksMax || tasks[pid].State == StateUnused {
		return nil
	}
	return &tasks[pid]
}

// Tick is called from the timer IRQ handler (§4.6: "On every timer tick
// the timer IRQ handler decrements the running task's
// time_slice_remaining_ticks"). It returns true when the quantum has
// expired and a reschedule is needed; the caller (the timer driver) is
// responsible for actually invoking Yield, since that runs the
// architecture's context-switch trampoline and must not happen with the
// IRQ's own save frame still assumed live by this function.
func Tick() bool {
	prev := cpu.IrqDisable()
	defer cpu.IrqRestore(prev)

	if current < 0 {
		return false
	}
	t := &tasks[current]
	t.TimeSliceRemaining--
	return t.TimeSliceRemaining <= 0
}

// Yield voluntarily, or forcibly on quantum expiry, moves the running
// task back to Ready (unless it has already left Running, e.g. it just
// blocked or exited), picks the next task and switches to it. Returns
// without switching if no other task is runnable and the current task
// is still Running.
func Yield() *kernel.Error {
	if !initialized {
		return errNotScheduler
	}

	prev := cpu.IrqDisable()

	from := current
	if from >= 0 && tasks[from].State == StateRunning {
		tasks[from].State = StateReady
		tasks[from].TimeSliceRemaining = DefaultQuantumTicks
		enqueueReady(from)
	}

	to := pickNextLocked()
	if to < 0 {
		// Nothing runnable; re-run the caller if it is still eligible.
		if from >= 0 && tasks[from].State == StateReady {
			dequeueSpecific(from)
			to = from
		} else {
			cpu.IrqRestore(prev)
			return errNoSuchTask
		}
	}

	tasks[to].State = StateRunning
	current = to

	cpu.IrqRestore(prev)

	if from == to {
		return nil
	}

	var fromCtx *Context
	if from >= 0 {
		fromCtx = &tasks[from].SavedContext
	}
	switchContextFn(fromCtx, &tasks[to].SavedContext)
	return nil
}

// dequeueSpecific removes pid from its priority queue, wherever it sits.
// Used only by Yield's idle-fallback path, where pid is known to be the
// just-preempted task re-entering immediately.
func dequeueSpecific(pid int) {
	p := tasks[pid].Priority
	if readyHead[p] == pid {
		dequeueReady(p)
		return
	}
	prevIdx := readyHead[p]
	for prevIdx >= 0 && tasks[prevIdx].next != pid {
		prevIdx = tasks[prevIdx].next
	}
	if prevIdx < 0 {
		return
	}
	tasks[prevIdx].next = tasks[pid].next
	if readyTail[p] == pid {
		readyTail[p] = prevIdx
	}
}

// Block transitions the running task to Blocked (§4.6: "Running →
// Blocked via a blocking syscall") and switches away. The caller is
// responsible for recording whatever wait condition will eventually call
// Unblock.
func Block() *kernel.Error {
	prev := cpu.IrqDisable()
	if current < 0 {
		cpu.IrqRestore(prev)
		return errNoSuchTask
	}
	tasks[current].State = StateBlocked
	cpu.IrqRestore(prev)
	return Yield()
}

// Unblock transitions pid from Blocked to Ready and enqueues it (§4.6:
// "Blocked → Ready via the event that unblocks it").
func Unblock(pid int) *kernel.Error {
	prev := cpu.IrqDisable()
	defer cpu.IrqRestore(prev)

	t := TaskByPID(pid)
	if t == nil || t.State != StateBlocked {
		return errNoSuchTask
	}
	t.State = StateReady
	t.TimeSliceRemaining = DefaultQuantumTicks
	enqueueReady(pid)
	return nil
}

// Exit transitions the running task to Zombie with the given exit code
// (§4.6: "Running/Ready → Zombie via exit(code)") and switches to the
// next runnable task. It never returns to the exiting task.
func Exit(code int) {
	prev := cpu.IrqDisable()
	from := current
	tasks[from].State = StateZombie
	tasks[from].ExitCode = code

	to := pickNextLocked()
	if to < 0 {
		to = idleTaskPID
	}
	tasks[to].State = StateRunning
	current = to
	cpu.IrqRestore(prev)

	switchContextFn(nil, &tasks[to].SavedContext)
}

// OnTimerTick is registered with kernel/device/timer.SetTickHandler. It
// implements §4.6's per-tick quantum accounting directly: decrement the
// running task's remaining slice and, once it hits zero, yield.
func OnTimerTick() {
	if Tick() {
		Yield()
	}
}

// Reap transitions a Zombie task to Terminated and frees its table slot
// for reuse, mirroring a parent's wait() collecting an exited child
// (§4.6). The kernel stack itself is not reclaimed, consistent with
// kheap.Kfree being a no-op (§4.3).
func Reap(pid int) (exitCode int, err *kernel.Error) {
	prev := cpu.IrqDisable()
	defer cpu.IrqRestore(prev)

	t := TaskByPID(pid)
	if t == nil || t.State != StateZombie {
		return 0, errNoSuchTask
	}
	exitCode = t.ExitCode
	t.State = StateUnused
	return exitCode, nil
}

// resetForTest clears all scheduler state so each test starts from a
// blank task table, mirroring kernel/device's resetForTest.
func resetForTest() {
	tasks = [NTasksMax]Task{}
	for i := range tasks {
		tasks[i].next = -1
	}
	for i := range readyHead {
		readyHead[i] = -1
		readyTail[i] = -1
	}
	current = -1
	idleTaskPID = -1
	initialized = false
	switchContextFn = switchContext
	allocStackFn = func() (uintptr, *kernel.Error) {
		return 0, kernel.NewError("proc", kernel.ErrOutOfMemory, "resetForTest: allocStackFn not overridden")
	}
}
