package kernel

import (
	"testing"
	"unsafe"
)

func uintptrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}

func TestErrorKindString(t *testing.T) {
	specs := []struct {
		kind ErrorKind
		want string
	}{
		{ErrOutOfMemory, "out of memory"},
		{ErrNotMapped, "not mapped"},
		{ErrorKind(255), "invalid error kind"},
	}

	for specIndex, spec := range specs {
		if got := spec.kind.String(); got != spec.want {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.want, got)
		}
	}
}

func TestErrorError(t *testing.T) {
	err := NewError("vfs", ErrNoSuchFile, "no such file")
	if got, want := err.Error(), "vfs: no such file"; got != want {
		t.Errorf("expected %q; got %q", want, got)
	}
}

func TestMemset(t *testing.T) {
	buf := make([]byte, 37)
	Memset(uintptr(0), 0, 0) // no-op guard, must not panic

	addr := uintptrOf(buf)
	Memset(addr, 0xAB, uintptr(len(buf)))

	for i, b := range buf {
		if b != 0xAB {
			t.Fatalf("byte %d: expected 0xAB; got %#x", i, b)
		}
	}
}

func TestMemcopy(t *testing.T) {
	src := []byte("minios-frame-copy-test......")
	dst := make([]byte, len(src))

	Memcopy(uintptrOf(src), uintptrOf(dst), uintptr(len(src)))

	for i := range src {
		if dst[i] != src[i] {
			t.Fatalf("byte %d: expected %#x; got %#x", i, src[i], dst[i])
		}
	}
}

func TestPanicInvokesSinkAndHalt(t *testing.T) {
	var (
		sunk   string
		halted bool
	)
	defer SetPanicSink(nil)
	defer SetHaltFunc(func() {})

	SetPanicSink(func(format string, args ...interface{}) { sunk = format })
	SetHaltFunc(func() { halted = true })

	Panic(NewError("test", ErrFault, "boom"))

	if sunk == "" {
		t.Fatal("expected Panic to invoke the panic sink")
	}
	if !halted {
		t.Fatal("expected Panic to invoke the halt function")
	}
}
