package vmm

import (
	"minios/kernel"
	"minios/kernel/mm"
)

// earlyReserveLastUsed tracks the last address handed out by
// EarlyReserveRegion; each call moves it down, carving reservations off the
// top of the kernel's portion of the address space. Grounded on the
// teacher's kernel/mm/vmm EarlyReserveRegion.
var earlyReserveLastUsed = kernelReserveTop

// EarlyReserveRegion reserves a page-aligned virtual region of the
// requested size (rounded up to a page) in the kernel's address space and
// returns its start address, without establishing any mapping.
func EarlyReserveRegion(size uintptr) uintptr {
	size = roundUpPage(size)
	earlyReserveLastUsed -= size
	return earlyReserveLastUsed
}

// MapRegion reserves the next available range in the kernel address space
// and maps it to the physical region [frame, frame+pages(size)), returning
// the page the region starts at.
func MapRegion(space *AddressSpace, frame mm.Frame, size uintptr, attrs PageAttrs) (uintptr, *kernel.Error) {
	size = roundUpPage(size)
	start := EarlyReserveRegion(size)

	pageCount := size >> mm.PageShift
	for i := uintptr(0); i < pageCount; i++ {
		va := start + i*mm.PageSize
		if err := space.Map(va, frame+mm.Frame(i), attrs); err != nil {
			return 0, err
		}
	}
	return start, nil
}

// IdentityMapRegion maps the physical region [startFrame,
// startFrame+pages(size)) to the numerically identical virtual addresses.
func IdentityMapRegion(space *AddressSpace, startFrame mm.Frame, size uintptr, attrs PageAttrs) *kernel.Error {
	pageCount := roundUpPage(size) >> mm.PageShift
	for i := uintptr(0); i < pageCount; i++ {
		va := (startFrame + mm.Frame(i)).Address()
		if err := space.Map(va, startFrame+mm.Frame(i), attrs); err != nil {
			return err
		}
	}
	return nil
}

func roundUpPage(size uintptr) uintptr {
	return (size + (mm.PageSize - 1)) &^ (mm.PageSize - 1)
}
