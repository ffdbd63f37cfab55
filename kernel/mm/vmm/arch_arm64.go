package vmm

import "minios/kernel/mm"

// AArch64 uses the same 4-level, 9-bit-per-level, 4 KiB-granule radix shape
// as x86-64 (§4.2), just with a different descriptor encoding: a valid bit,
// AP[2:1] for write/user permission, UXN/PXN for no-execute, an AttrIndx
// field selecting a MAIR_EL1 memory-type index, and an access flag the
// kernel always sets since MiniOS does not implement access-flag faulting.
const (
	pageLevels     = 4
	levelIndexMask = uintptr(0x1ff)

	pteValid   = uintptr(1) << 0
	pteTable   = uintptr(1) << 1 // also set on valid page descriptors at L3
	pteAF      = uintptr(1) << 10
	pteAPRO    = uintptr(1) << 7 // AP[2]: 1 = read-only
	pteAPUser  = uintptr(1) << 6 // AP[1]: 1 = EL0 accessible
	ptePXN     = uintptr(1) << 53
	pteUXN     = uintptr(1) << 54
	pteAttrIdx = uintptr(7) << 2 // bits [4:2], shifted into place below
	ptePhysMask = uintptr(0x0000fffffffff000)

	// MAIR_EL1 index assignments programmed by the arm64 boot stub: index
	// 0 selects Device-nGnRnE memory, index 1 selects Normal Write-Back
	// Cacheable memory (§4.2).
	mairDeviceIdx = uintptr(0)
	mairNormalIdx = uintptr(1)
)

var levelShift = [pageLevels]uint{39, 30, 21, 12}

// kernelReserveTop is the top of the scratch region EarlyReserveRegion
// carves downward from, placed near the top of the TTBR1_EL1 high half.
const kernelReserveTop = uintptr(0xffffffff00000000)

// isCanonical requires the address to fall in either the TTBR0_EL1 low half
// or the TTBR1_EL1 high half (≥ 0xFFFF_0000_0000_0000), per §4.2.
func isCanonical(va uintptr) bool {
	top := va >> 48
	return top == 0 || top == 0xffff
}

func archPresentFn(raw uintptr) bool { return raw&pteValid != 0 }

// archHugePageFn reports block descriptors: valid but missing the L3
// page-descriptor bit. MiniOS's vmm never creates one, but a boot stub or
// firmware-provided table could.
func archHugePageFn(raw uintptr) bool { return raw&pteValid != 0 && raw&pteTable == 0 }

func archDecodeFn(raw uintptr) (mm.Frame, PageAttrs) {
	frame := mm.FrameFromAddress(raw & ptePhysMask)
	var attrs PageAttrs
	if raw&pteAPRO == 0 {
		attrs |= AttrWrite
	}
	if raw&pteAPUser != 0 {
		attrs |= AttrUser
	}
	if raw&pteUXN == 0 {
		attrs |= AttrExecute
	}
	if (raw>>2)&0x7 == mairDeviceIdx {
		attrs |= AttrDevice
	}
	return frame, attrs
}

func archEncodeLeafFn(frame mm.Frame, attrs PageAttrs) uintptr {
	raw := pteValid | pteTable | pteAF | frame.Address()
	if attrs&AttrWrite == 0 {
		raw |= pteAPRO
	}
	if attrs&AttrUser != 0 {
		raw |= pteAPUser
	}
	if attrs&AttrExecute == 0 {
		raw |= pteUXN | ptePXN
	}
	if attrs&AttrDevice != 0 {
		raw |= mairDeviceIdx << 2
	} else {
		raw |= mairNormalIdx << 2
	}
	return raw
}

// archEncodeTableFn encodes a table (non-leaf) descriptor. Table descriptors
// carry no permission bits of their own on AArch64 beyond the valid+table
// bits; the leaf entry's AP/XN bits are the sole authority.
func archEncodeTableFn(frame mm.Frame) uintptr {
	return pteValid | pteTable | frame.Address()
}
