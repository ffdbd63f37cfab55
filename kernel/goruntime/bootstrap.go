// Package goruntime bootstraps the parts of the Go runtime that can't
// work without help: reserving and mapping the address ranges
// runtime.mallocg expects sysReserve/sysMap/sysAlloc to hand it before
// any malloc has ever succeeded, and then running the runtime's own
// alginit/modulesinit/typelinksinit/itabsinit/mallocinit sequence so
// that heap allocation, map primitives and interfaces become usable.
//
// Grounded on the teacher's kernel/goruntime/bootstrap.go (the richer,
// src/gopheros revision, which wires mallocInit/algInit/modulesInit/
// typeLinksInit/itabsInit via go:linkname and exposes them as a single
// Init, rather than the older root-level copy that only redirected the
// three sys* entry points and left Init unimplemented). Two things
// changed for this kernel: the calls now target minios/kernel/mm/{vmm,pmm}
// instead of the teacher's kernel/mem tree, and sysMap no longer installs
// a copy-on-write mapping — MiniOS has no page-fault-driven COW resolver
// (§4.2 runs a single, eagerly-mapped kernel address space), so a region
// reserved by sysReserve is mapped read-write up front instead of lazily
// on first fault.
package goruntime

import (
	"unsafe"

	"minios/kernel"
	"minios/kernel/mm"
	"minios/kernel/mm/vmm"
)

var (
	mapFn                = (&vmm.KernelSpace).Map
	earlyReserveRegionFn = vmm.EarlyReserveRegion
	frameAllocFn         = mm.AllocFrame
	mallocInitFn         = mallocInit
	algInitFn            = algInit
	modulesInitFn        = modulesInit
	typeLinksInitFn      = typeLinksInit
	itabsInitFn          = itabsInit

	// prngSeed seeds the pseudo-random generator getRandomData falls back
	// to; there is no entropy source before the device model is up.
	prngSeed = 0xdeadc0de
)

//go:linkname algInit runtime.alginit
func algInit()

//go:linkname modulesInit runtime.modulesinit
func modulesInit()

//go:linkname typeLinksInit runtime.typelinksinit
func typeLinksInit()

//go:linkname itabsInit runtime.itabsinit
func itabsInit()

//go:linkname mallocInit runtime.mallocinit
func mallocInit()

//go:linkname mSysStatInc runtime.mSysStatInc
func mSysStatInc(*uint64, uintptr)

func pageRound(size uintptr) uintptr {
	return (size + mm.PageSize - 1) &^ (mm.PageSize - 1)
}

// sysReserve reserves address space without allocating any memory or
// establishing any page mappings.
//
// This function replaces runtime.sysReserve and is required for initializing
// the Go allocator.
//
//go:redirect-from runtime.sysReserve
//go:nosplit
func sysReserve(_ unsafe.Pointer, size uintptr, reserved *bool) unsafe.Pointer {
	*reserved = true
	return unsafe.Pointer(earlyReserveRegionFn(size))
}

// sysMap establishes a mapping for a region previously reserved via
// sysReserve, backing it with freshly allocated frames immediately (see
// the package doc comment on why this kernel maps eagerly instead of
// copy-on-write).
//
// This function replaces runtime.sysMap and is required for initializing
// the Go allocator.
//
//go:redirect-from runtime.sysMap
//go:nosplit
func sysMap(virtAddr unsafe.Pointer, size uintptr, reserved bool, sysStat *uint64) unsafe.Pointer {
	if !reserved {
		panic("sysMap should only be called with reserved=true")
	}

	regionStart := (uintptr(virtAddr) + mm.PageSize - 1) &^ (mm.PageSize - 1)
	regionSize := pageRound(size)
	pageCount := regionSize >> mm.PageShift

	page := mm.PageFromAddress(regionStart)
	for ; pageCount > 0; pageCount, page = pageCount-1, page+1 {
		frame, err := frameAllocFn()
		if err != nil {
			return unsafe.Pointer(uintptr(0))
		}
		if err := mapFn(page.Address(), frame, vmm.KernelRW); err != nil {
			return unsafe.Pointer(uintptr(0))
		}
	}

	mSysStatInc(sysStat, uintptr(regionSize))
	return unsafe.Pointer(regionStart)
}

// sysAlloc reserves a fresh region and maps it in a single step, used by
// the runtime when it needs memory it never explicitly reserved first.
//
// This function replaces runtime.sysAlloc and is required for initializing
// the Go allocator.
//
//go:redirect-from runtime.sysAlloc
//go:nosplit
func sysAlloc(size uintptr, sysStat *uint64) unsafe.Pointer {
	var reserved bool
	base := sysReserve(nil, size, &reserved)
	return sysMap(base, size, reserved, sysStat)
}

// nanotime returns a monotonically increasing clock value. This is a
// placeholder and will be wired to the timer tick count once the
// scheduler's timekeeping grows a real clock source.
//
// This function replaces runtime.nanotime and is invoked by the Go
// allocator when a span allocation is performed.
//
//go:redirect-from runtime.nanotime
//go:nosplit
func nanotime() uint64 {
	for i := 0; i < 100; i++ {
	}
	return 1
}

// getRandomData populates r with pseudo-random bytes. The runtime reads
// /dev/random on a hosted system; there is no such device here, so a
// linear congruential generator stands in, the same substitution the
// teacher makes.
//
//go:redirect-from runtime.getRandomData
func getRandomData(r []byte) {
	for i := range r {
		prngSeed = (prngSeed * 58321) + 11113
		r[i] = byte((prngSeed >> 16) & 255)
	}
}

// Init enables support for the Go runtime features the rest of the
// kernel depends on implicitly: heap allocation (new, make, append, …),
// map primitives and interface values. It must run once, after vmm.Init
// and before any kernel code uses those features — in practice,
// immediately after kheap.Init since the kernel's own kmalloc has no such
// dependency but every other package does.
func Init() *kernel.Error {
	mallocInitFn()
	algInitFn()
	modulesInitFn()
	typeLinksInitFn()
	itabsInitFn()

	return nil
}

func init() {
	// Dummy calls so the compiler does not optimize away the functions in
	// this file.
	var (
		reserved bool
		stat     uint64
		zeroPtr  = unsafe.Pointer(uintptr(0))
	)

	sysReserve(zeroPtr, 0, &reserved)
	sysMap(zeroPtr, 0, reserved, &stat)
	sysAlloc(0, &stat)
	getRandomData(nil)
	stat = nanotime()
}
