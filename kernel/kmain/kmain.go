// Package kmain is the kernel's init sequencer (§2): it runs the fixed
// bring-up order the rt0 assembly stub hands off to once it has built a
// minimal Go-usable stack, and never returns.
//
// Grounded on the teacher's kernel/kmain.Kmain trampoline, widened from
// "clear the terminal and print a banner" to the full subsystem bring-up
// order the design requires: pmm -> vmm -> kheap -> irq -> device model ->
// proc -> vfs -> syscall -> first task -> scheduler loop.
package kmain

import (
	"minios/kernel"
	"minios/kernel/boot"
	"minios/kernel/cpu"
	"minios/kernel/device"
	"minios/kernel/device/timer"
	"minios/kernel/fd"
	"minios/kernel/fs"
	"minios/kernel/fs/ramfs"
	"minios/kernel/goruntime"
	"minios/kernel/irq"
	"minios/kernel/kmsg"
	"minios/kernel/mm"
	"minios/kernel/mm/kheap"
	"minios/kernel/mm/pmm"
	"minios/kernel/mm/vmm"
	"minios/kernel/proc"
	"minios/kernel/syscall"
)

var log = kmsg.New("kmain")

var (
	errBadBootInfo   = kernel.NewError("kmain", kernel.ErrInvalidArgument, "bootinfo validation failed")
	errKmainReturned = kernel.NewError("kmain", kernel.ErrUnknown, "Kmain returned")
)

// Kmain is the kernel's single entry point, called by each architecture's
// boot trampoline (boot_amd64.go, boot_arm64.go) with the kernel-virtual
// address of the BootInfo record the boot stub placed in memory.
//
// Kmain is not expected to return. If it does, the rt0 code halts the
// CPU; the final kernel.Panic call below exists so the compiler cannot
// treat the tail of this function as dead code and elide it.
//
//go:noinline
func Kmain(bootInfoAddr uintptr) {
	kernel.SetHaltFunc(haltForever)

	info, err := boot.Parse(bootInfoAddr)
	if err != nil {
		kernel.Panic(errBadBootInfo)
	}

	cfg := boot.ParseCmdline(info.CommandLine)
	kmsg.SetLevel(cfg.LogLevel)
	kernel.SetPanicSink(kmsg.Printf)

	kernelStart := mm.FrameFromAddress(uintptr(info.KernelLoadBase))
	kernelEnd := mm.FrameFromAddress(uintptr(info.KernelLoadBase + info.KernelSize))
	if err := pmm.Init(info.MemoryMap, kernelStart, kernelEnd); err != nil {
		kernel.Panic(err)
	}

	if err := vmm.Init(info.MemoryMap, uintptr(info.KernelLoadBase), info.KernelSize); err != nil {
		kernel.Panic(err)
	}
	vmm.Enable()

	kheap.Init()

	if err := goruntime.Init(); err != nil {
		kernel.Panic(err)
	}

	irq.Init()
	archBringUpDevices()

	consoleDev := device.Find(consoleDeviceName)
	if consoleDev != nil && consoleDev.State == device.StateActive {
		kmsg.SetSink(func(b []byte) { device.Write(consoleDev, b, 0) })
	}

	log.Infof("MiniOS booting on %s\n", info.ArchTag.String())

	if err := proc.Init(); err != nil {
		kernel.Panic(err)
	}

	if err := fs.RegisterFilesystemType(ramfs.Type); err != nil {
		kernel.Panic(err)
	}
	if err := fs.MountFS("", "/", cfg.RootFsType, 0); err != nil {
		kernel.Panic(err)
	}

	syscall.Init()
	timer.SetTickHandler(onTick)

	initPID, err := proc.CreateTask(idleShell, cfg.InitTaskName, initTaskPriority)
	if err != nil {
		kernel.Panic(err)
	}
	if consoleDev != nil {
		if err := proc.SetFdTable(initPID, fd.NewTable(consoleDev)); err != nil {
			kernel.Panic(err)
		}
	}

	cpu.EnableInterrupts()
	for {
		cpu.Halt()
	}

	// Use kernel.Panic instead of panic to prevent the compiler from
	// treating kernel.Panic as dead-code and eliminating it.
	kernel.Panic(errKmainReturned)
}

// initTaskPriority is the priority the first, shell-equivalent task runs
// at: well above idle (§4.6 reserves the lowest priority for idle), the
// same relative ordering the teacher used for its own single foreground
// task.
const initTaskPriority = 1

// haltForever parks the CPU in the architecture's low-power wait
// instruction, re-issuing it if a stray interrupt returns control: the
// halt instruction alone only blocks until the next interrupt, but
// kernel.Panic's contract (§7) is to never return to its caller.
func haltForever() {
	for {
		cpu.Halt()
	}
}

// idleShell is a placeholder for the interactive shell (line editing and
// the built-in command set are explicit Non-goals); it exists so the
// scheduler always has a non-idle Ready task to hand the console to.
func idleShell() {
	for {
		cpu.Halt()
	}
}

// onTick drives the scheduler's quantum bookkeeping once per timer
// interrupt (§4.6); Tick reports whether the current task's quantum has
// expired, in which case Yield reschedules.
func onTick() {
	if proc.Tick() {
		proc.Yield()
	}
}
