package goruntime

import (
	"testing"
	"unsafe"

	"minios/kernel"
	"minios/kernel/mm"
	"minios/kernel/mm/vmm"
)

// withMocks swaps the package's collaborator funcs for test doubles and
// restores the originals on return, the same save/restore-a-package-var
// pattern the teacher uses around hal.ActiveTerminal in its own tests.
func withMocks(t *testing.T, reserve func(uintptr) uintptr, mapf func(uintptr, mm.Frame, vmm.PageAttrs) *kernel.Error, alloc func() (mm.Frame, *kernel.Error)) {
	t.Helper()

	origReserve, origMap, origAlloc := earlyReserveRegionFn, mapFn, frameAllocFn
	t.Cleanup(func() {
		earlyReserveRegionFn, mapFn, frameAllocFn = origReserve, origMap, origAlloc
	})

	if reserve != nil {
		earlyReserveRegionFn = reserve
	}
	if mapf != nil {
		mapFn = mapf
	}
	if alloc != nil {
		frameAllocFn = alloc
	}
}

func TestSysReserve(t *testing.T) {
	const wantBase = uintptr(0xffff800000000000)

	withMocks(t, func(size uintptr) uintptr { return wantBase }, nil, nil)

	var reserved bool
	got := sysReserve(nil, mm.PageSize, &reserved)
	if !reserved {
		t.Fatal("expected sysReserve to always report reserved=true")
	}
	if uintptr(got) != wantBase {
		t.Errorf("expected base %#x; got %#x", wantBase, got)
	}
}

func TestSysMapMapsEveryPage(t *testing.T) {
	const base = uintptr(0x1000)
	const frameBase = mm.Frame(7)

	var mappedPages []uintptr
	var allocCount int

	withMocks(t, nil,
		func(va uintptr, pa mm.Frame, attrs vmm.PageAttrs) *kernel.Error {
			mappedPages = append(mappedPages, va)
			if attrs != vmm.KernelRW {
				t.Errorf("expected KernelRW attrs; got %v", attrs)
			}
			return nil
		},
		func() (mm.Frame, *kernel.Error) {
			f := frameBase + mm.Frame(allocCount)
			allocCount++
			return f, nil
		},
	)

	var stat uint64
	got := sysMap(unsafe.Pointer(base), 3*mm.PageSize, true, &stat)
	if got == nil {
		t.Fatal("expected a non-nil region base")
	}
	if uintptr(got) != base {
		t.Errorf("expected region base %#x; got %#x", base, got)
	}
	if len(mappedPages) != 3 {
		t.Errorf("expected 3 pages mapped; got %d", len(mappedPages))
	}
	if allocCount != 3 {
		t.Errorf("expected 3 frames allocated; got %d", allocCount)
	}
}

func TestSysMapPanicsWhenNotReserved(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected sysMap to panic when reserved=false")
		}
	}()

	var stat uint64
	sysMap(unsafe.Pointer(uintptr(0x1000)), mm.PageSize, false, &stat)
}

func TestSysMapFailsWhenAllocFails(t *testing.T) {
	withMocks(t, nil, nil, func() (mm.Frame, *kernel.Error) {
		return mm.InvalidFrame, kernel.NewError("pmm", kernel.ErrOutOfMemory, "no frames left")
	})

	var stat uint64
	got := sysMap(unsafe.Pointer(uintptr(0x1000)), mm.PageSize, true, &stat)
	if got != nil {
		t.Errorf("expected nil pointer when frame allocation fails; got %#x", uintptr(got))
	}
}

func TestSysAllocReservesThenMaps(t *testing.T) {
	const base = uintptr(0x2000)
	var mapped bool

	withMocks(t,
		func(size uintptr) uintptr { return base },
		func(va uintptr, pa mm.Frame, attrs vmm.PageAttrs) *kernel.Error {
			mapped = true
			return nil
		},
		func() (mm.Frame, *kernel.Error) { return mm.Frame(1), nil },
	)

	var stat uint64
	got := sysAlloc(mm.PageSize, &stat)
	if !mapped {
		t.Fatal("expected sysAlloc to map the region it reserved")
	}
	if uintptr(got) != base {
		t.Errorf("expected base %#x; got %#x", base, uintptr(got))
	}
}

func TestGetRandomDataIsDeterministicButNotConstant(t *testing.T) {
	origSeed := prngSeed
	defer func() { prngSeed = origSeed }()

	prngSeed = 0xdeadc0de
	buf := make([]byte, 16)
	getRandomData(buf)

	allSame := true
	for _, b := range buf[1:] {
		if b != buf[0] {
			allSame = false
			break
		}
	}
	if allSame {
		t.Error("expected getRandomData to produce varying bytes, got a constant stream")
	}
}

func TestPageRound(t *testing.T) {
	specs := []struct {
		size uintptr
		want uintptr
	}{
		{0, 0},
		{1, mm.PageSize},
		{mm.PageSize, mm.PageSize},
		{mm.PageSize + 1, 2 * mm.PageSize},
	}

	for _, spec := range specs {
		if got := pageRound(spec.size); got != spec.want {
			t.Errorf("pageRound(%d): expected %d; got %d", spec.size, spec.want, got)
		}
	}
}
