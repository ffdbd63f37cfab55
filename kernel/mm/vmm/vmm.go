// Package vmm implements the kernel's virtual memory subsystem (§4.2): a
// uniform map/unmap/translate/enable interface over a 4-level, 4 KiB-granule
// radix-tree page table, lowered to AArch64 (TTBR0_EL1/TTBR1_EL1 descriptors)
// or x86-64 (PML4/PDPT/PD/PT entries) by the arch_$GOARCH.go file the Go
// toolchain selects for the build.
//
// This package is grounded on the teacher's kernel/mm/vmm package: the same
// pageTableEntry-over-a-walk() shape, the same PageTableEntryFlag concept
// (renamed PageAttrs here since attrs now form an explicit weaken/strengthen
// lattice per the design's remap rule), and the same
// EarlyReserveRegion/MapRegion/IdentityMapRegion helpers. One deliberate
// departure: the teacher accesses page table frames through a recursive
// self-mapping trick that is x86-specific and has no clean AArch64
// equivalent, so this package instead walks tables through the kernel's
// permanent identity mapping of all Usable physical memory (see
// directAccess in walk.go) — a simplification recorded in DESIGN.md.
package vmm

import (
	"minios/kernel"
	"minios/kernel/mm"
)

// PageAttrs describes the permissions and memory type requested for a
// mapping. Unlike the teacher's bit-for-bit PageTableEntryFlag (which mirrors
// the raw hardware encoding), PageAttrs is architecture-neutral: each
// arch_$GOARCH.go file lowers it to the real descriptor bits.
type PageAttrs uint8

const (
	// AttrWrite grants store access. Absent, the page is read-only.
	AttrWrite PageAttrs = 1 << iota
	// AttrExecute grants instruction fetch. Absent, the page is mapped
	// no-execute.
	AttrExecute
	// AttrUser grants user-mode (non-privileged) access. Absent, only
	// kernel-mode accesses succeed.
	AttrUser
	// AttrDevice selects device memory (strongly ordered, uncached)
	// instead of normal write-back cacheable memory.
	AttrDevice
)

// KernelRX is the attribute set for kernel code: readable and executable,
// never writable, per the §4.2 invariant.
const KernelRX = AttrExecute

// KernelRW is the attribute set for kernel data: readable and writable,
// never executable.
const KernelRW = AttrWrite

// isWeakerOrEqual reports whether next grants no permission that prev did
// not already grant — i.e. next is prev with zero or more bits dropped. The
// §4.2 remap rule allows remapping an already-mapped page only when the new
// attrs satisfy this relation; a remap that would add a bit is rejected.
func isWeakerOrEqual(next, prev PageAttrs) bool {
	return next&^prev == 0
}

var (
	errStrongerRemap   = kernel.NewError("vmm", kernel.ErrInvalidArgument, "remap would strengthen permissions of an existing mapping")
	errNotMapped       = kernel.NewError("vmm", kernel.ErrNotMapped, "virtual address is not mapped")
	errHugePage        = kernel.NewError("vmm", kernel.ErrInvalidArgument, "huge page entries are not supported")
	errNotCanonical    = kernel.NewError("vmm", kernel.ErrInvalidArgument, "virtual address is not in canonical form")
	errAddressSpaceOOM = kernel.NewError("vmm", kernel.ErrOutOfMemory, "no frame available for a new page table level")
)

// AddressSpace is a single page-table radix tree rooted at a physical frame.
// The kernel keeps one permanent instance (see KernelSpace); user tasks would
// each own one of their own, though MiniOS's baseline scheduler (§4.6) runs
// every task inside the kernel's own address space.
type AddressSpace struct {
	root mm.Frame
}

// KernelSpace is the address space the kernel builds during Init and never
// tears down.
var KernelSpace AddressSpace

// NewAddressSpace allocates and zeroes a fresh root table frame.
func NewAddressSpace() (AddressSpace, *kernel.Error) {
	root, err := mm.AllocFrame()
	if err != nil {
		return AddressSpace{}, err
	}
	kernel.Memset(directAccess(root), 0, mm.PageSize)
	return AddressSpace{root: root}, nil
}

// Map ensures a 4 KiB page at va translates to frame pa with the given
// attrs, allocating any missing intermediate page-table frames from the
// frame allocator. Remapping an already-mapped page is allowed only when
// attrs equal or strictly weaken the prior entry.
func (as *AddressSpace) Map(va uintptr, pa mm.Frame, attrs PageAttrs) *kernel.Error {
	if !isCanonical(va) {
		return errNotCanonical
	}

	var opErr *kernel.Error
	as.walk(va, func(level int, pte *pageTableEntry) bool {
		if level == pageLevels-1 {
			if pte.present() {
				_, prevAttrs := pte.decode()
				if !isWeakerOrEqual(attrs, prevAttrs) {
					opErr = errStrongerRemap
					return false
				}
			}
			pte.encode(pa, attrs)
			flushTLBEntryFn(va)
			return true
		}

		if pte.present() && pte.isHugePage() {
			opErr = errHugePage
			return false
		}

		if !pte.present() {
			childFrame, err := mm.AllocFrame()
			if err != nil {
				opErr = errAddressSpaceOOM
				return false
			}
			kernel.Memset(directAccess(childFrame), 0, mm.PageSize)
			pte.encodeTable(childFrame)
		}
		return true
	})

	return opErr
}

// Unmap clears the leaf entry for va and invalidates its TLB entry. The
// backing frame is not freed; ownership remains with the caller.
func (as *AddressSpace) Unmap(va uintptr) *kernel.Error {
	if !isCanonical(va) {
		return errNotCanonical
	}

	var opErr *kernel.Error
	as.walk(va, func(level int, pte *pageTableEntry) bool {
		if !pte.present() {
			opErr = errNotMapped
			return false
		}
		if level == pageLevels-1 {
			pte.clear()
			flushTLBEntryFn(va)
			return true
		}
		if pte.isHugePage() {
			opErr = errHugePage
			return false
		}
		return true
	})

	return opErr
}

// Translate resolves va to its backing physical address, or NotMapped.
func (as *AddressSpace) Translate(va uintptr) (uintptr, *kernel.Error) {
	if !isCanonical(va) {
		return 0, errNotCanonical
	}

	var (
		frame mm.Frame
		found bool
		opErr *kernel.Error
	)
	as.walk(va, func(level int, pte *pageTableEntry) bool {
		if !pte.present() {
			opErr = errNotMapped
			return false
		}
		if level == pageLevels-1 {
			frame, _ = pte.decode()
			found = true
			return true
		}
		return true
	})

	if opErr != nil || !found {
		return 0, errNotMapped
	}
	return frame.Address() + pageOffset(va), nil
}

// Enable installs this address space as the active one.
func (as AddressSpace) Enable() { enableAddressSpaceFn(as.root.Address()) }

// pageOffset returns the offset within the page specified by a virtual
// address.
func pageOffset(va uintptr) uintptr {
	return va & (mm.PageSize - 1)
}
