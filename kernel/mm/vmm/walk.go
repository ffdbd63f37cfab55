package vmm

import (
	"unsafe"

	"minios/kernel/cpu"
	"minios/kernel/mm"
)

// directAccess returns a virtual address the kernel can dereference to read
// or write the contents of frame. MiniOS keeps a permanent identity mapping
// over every Usable physical frame (built once in Init before the MMU is
// enabled and never torn down), so a frame's own address doubles as its
// kernel-accessible virtual address. See the package doc comment for why
// this replaces the teacher's recursive self-mapping trick.
func directAccess(f mm.Frame) uintptr { return f.Address() }

// flushTLBEntryFn and enableAddressSpaceFn are indirections over the cpu
// package so tests can run without executing privileged instructions.
var (
	flushTLBEntryFn      = cpu.FlushTLBEntry
	enableAddressSpaceFn = cpu.SwitchAddressSpace
)

// pageTableWalker is invoked once per level while walking the tables that
// lead to a virtual address. Returning false aborts the walk.
type pageTableWalker func(level int, pte *pageTableEntry) bool

// walk descends the page tables rooted at as.root for virtual address va,
// invoking walkFn at every level. walk itself never allocates: a walkFn
// that needs to keep descending past a missing intermediate level (as
// Map's does) must allocate and install that level's table itself before
// returning true.
func (as *AddressSpace) walk(va uintptr, walkFn pageTableWalker) {
	tableFrame := as.root

	for level := 0; level < pageLevels; level++ {
		index := (va >> levelShift[level]) & levelIndexMask
		tableAddr := directAccess(tableFrame)
		entryAddr := tableAddr + index*unsafe.Sizeof(pageTableEntry(0))
		pte := (*pageTableEntry)(unsafe.Pointer(entryAddr))

		if !walkFn(level, pte) {
			return
		}

		if level == pageLevels-1 {
			return
		}

		if !pte.present() {
			// walkFn declined (or this is a read-only walk, e.g.
			// Unmap/Translate, that doesn't create missing levels).
			return
		}
		tableFrame, _ = pte.decode()
	}
}
