package boot

import (
	"testing"
	"unsafe"
)

// buildWireRecord assembles a valid raw BootInfo record backed by real Go
// memory, mirroring how the teacher's multiboot tests synthesize a fake
// info section rather than mocking the decoder.
func buildWireRecord(t *testing.T, entries []MemoryMapEntry, cmdline string) (uintptr, func()) {
	t.Helper()

	type mmapEntry struct {
		base   uint64
		length uint64
		kind   uint32
		_      uint32
	}
	mmap := make([]mmapEntry, len(entries))
	for i, e := range entries {
		mmap[i] = mmapEntry{base: e.Base, length: e.Length, kind: uint32(e.Kind)}
	}

	buf := make([]byte, WireSize)
	hdr := (*wireHeader)(unsafe.Pointer(&buf[0]))
	hdr.magic = Magic
	hdr.archTag = uint32(ArchX86_64)
	hdr.version = 1
	if len(mmap) > 0 {
		hdr.mmapPtr = uint64(uintptr(unsafe.Pointer(&mmap[0])))
	}
	hdr.mmapCount = uint32(len(mmap))
	hdr.mmapEntrySize = uint32(unsafe.Sizeof(mmapEntry{}))
	hdr.kernelLoadBase = 0x100000
	hdr.kernelSize = 0x40000
	copy(hdr.commandLine[:], cmdline)

	// keep buf and mmap alive for the lifetime of the test by returning a
	// closer that references them.
	return uintptr(unsafe.Pointer(&buf[0])), func() { _, _ = buf, mmap }
}

func TestParseValid(t *testing.T) {
	entries := []MemoryMapEntry{
		{Base: 0, Length: 0x4400_0000, Kind: RegionUsable},
	}
	addr, keepAlive := buildWireRecord(t, entries, "loglevel=debug root=ramfs")
	defer keepAlive()

	info, err := Parse(addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.ArchTag != ArchX86_64 {
		t.Errorf("expected ArchX86_64; got %v", info.ArchTag)
	}
	if info.CommandLine != "loglevel=debug root=ramfs" {
		t.Errorf("unexpected command line: %q", info.CommandLine)
	}
	if len(info.MemoryMap) != 1 {
		t.Fatalf("expected 1 memory map entry; got %d", len(info.MemoryMap))
	}
}

func TestParseBadMagic(t *testing.T) {
	buf := make([]byte, WireSize)
	addr := uintptr(unsafe.Pointer(&buf[0]))
	_, err := Parse(addr)
	if err != errBadMagic {
		t.Fatalf("expected errBadMagic; got %v", err)
	}
}

func TestParseOverlappingMemoryMap(t *testing.T) {
	entries := []MemoryMapEntry{
		{Base: 0, Length: 0x2000, Kind: RegionUsable},
		{Base: 0x1000, Length: 0x2000, Kind: RegionUsable},
	}
	addr, keepAlive := buildWireRecord(t, entries, "")
	defer keepAlive()

	if _, err := Parse(addr); err != errBadMemoryMap {
		t.Fatalf("expected errBadMemoryMap; got %v", err)
	}
}

func TestParseKernelImageOutsideUsable(t *testing.T) {
	entries := []MemoryMapEntry{
		{Base: 0, Length: 0x1000, Kind: RegionReserved},
		{Base: 0x1000, Length: 0x1000, Kind: RegionKernelImage},
	}
	addr, keepAlive := buildWireRecord(t, entries, "")
	defer keepAlive()

	if _, err := Parse(addr); err != errNoKernelImg {
		t.Fatalf("expected errNoKernelImg; got %v", err)
	}
}

func TestParseEncodeRoundTrip(t *testing.T) {
	entries := []MemoryMapEntry{
		{Base: 0, Length: 0x4400_0000, Kind: RegionUsable},
	}
	addr, keepAlive := buildWireRecord(t, entries, "loglevel=info")
	defer keepAlive()

	original := make([]byte, WireSize)
	copy(original, unsafe.Slice((*byte)(unsafe.Pointer(addr)), WireSize))

	info, err := Parse(addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reencoded := Encode(info)
	for i := range original {
		if original[i] != reencoded[i] {
			t.Fatalf("byte %d differs: original=%#x reencoded=%#x", i, original[i], reencoded[i])
		}
	}
}

func TestParseCmdlineOverrides(t *testing.T) {
	cfg := ParseCmdline("loglevel=debug root=blockfs init=myinit unknown=ignored flagwithoutvalue")
	if cfg.LogLevel != "debug" || cfg.RootFsType != "blockfs" || cfg.InitTaskName != "myinit" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParseCmdlineDefaults(t *testing.T) {
	cfg := ParseCmdline("")
	want := DefaultBootConfig()
	if cfg != want {
		t.Fatalf("expected defaults %+v; got %+v", want, cfg)
	}
}
