package fd

import (
	"testing"

	"minios/kernel"
	"minios/kernel/device"
	"minios/kernel/fs"
)

type fakeConsoleDriver struct{ written []byte }

func (d *fakeConsoleDriver) Name() string       { return "fakeconsole" }
func (d *fakeConsoleDriver) MatchIDs() []string { return []string{"test,console"} }
func (d *fakeConsoleDriver) Priority() int      { return 0 }
func (d *fakeConsoleDriver) Type() device.Type  { return device.TypeUart }
func (d *fakeConsoleDriver) Probe(*device.Device) *kernel.Error { return nil }
func (d *fakeConsoleDriver) Init(*device.Device) *kernel.Error  { return nil }
func (d *fakeConsoleDriver) Start(*device.Device) *kernel.Error { return nil }
func (d *fakeConsoleDriver) Read(dev *device.Device, buf []byte, off int64) (int, *kernel.Error) {
	return copy(buf, "input"), nil
}
func (d *fakeConsoleDriver) Write(dev *device.Device, buf []byte, off int64) (int, *kernel.Error) {
	d.written = append(d.written, buf...)
	return len(buf), nil
}
func (d *fakeConsoleDriver) Ioctl(*device.Device, uintptr, uintptr) (uintptr, *kernel.Error) {
	return 0, nil
}

func newTestConsoleDevice(t *testing.T) (*device.Device, *fakeConsoleDriver) {
	t.Helper()
	drv := &fakeConsoleDriver{}
	device.RegisterDriver(drv)
	dev := device.RegisterDevice("test,console", 0, 0)
	if dev.State != device.StateActive {
		t.Fatalf("expected fake console device to become Active; got %s", dev.State)
	}
	return dev, drv
}

func TestNewTableWiresStdFds(t *testing.T) {
	dev, _ := newTestConsoleDevice(t)
	table := NewTable(dev)

	for _, fdNum := range []int{Stdin, Stdout, Stderr} {
		if _, err := table.Get(fdNum); err != nil {
			t.Errorf("expected fd %d to be pre-wired; got error %v", fdNum, err)
		}
	}
}

func TestTableAllocUsesLowestFreeSlot(t *testing.T) {
	dev, _ := newTestConsoleDevice(t)
	table := NewTable(dev)

	of := &fs.OpenFile{}
	got, err := table.Alloc(of)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if got != 3 {
		t.Errorf("expected first free slot to be 3 (after stdin/stdout/stderr); got %d", got)
	}
}

func TestTableAllocFailsWhenFull(t *testing.T) {
	dev, _ := newTestConsoleDevice(t)
	table := NewTable(dev)

	for i := 0; i < NMax; i++ {
		if _, err := table.Alloc(&fs.OpenFile{}); err != nil {
			// table starts with 3 slots already filled; stop once full.
			if i != NMax-3 {
				t.Fatalf("unexpected early OutOfFds at iteration %d: %v", i, err)
			}
			break
		}
	}

	if _, err := table.Alloc(&fs.OpenFile{}); err == nil {
		t.Fatal("expected Alloc on a full table to fail with OutOfFds")
	} else if err.Kind != kernel.ErrOutOfFds {
		t.Errorf("expected ErrOutOfFds; got %v", err.Kind)
	}
}

func TestTableGetRejectsOutOfRangeOrClosedFd(t *testing.T) {
	dev, _ := newTestConsoleDevice(t)
	table := NewTable(dev)

	if _, err := table.Get(-1); err == nil {
		t.Error("expected Get(-1) to fail")
	}
	if _, err := table.Get(NMax); err == nil {
		t.Error("expected Get(NMax) to fail: one past the end")
	}

	of := &fs.OpenFile{Vnode: &fs.Vnode{Kind: fs.KindCharDevice, FSPrivate: fs.FileOps(consoleOps{dev: dev})}}
	fdNum, err := table.Alloc(of)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if err := table.Close(fdNum); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := table.Get(fdNum); err == nil {
		t.Error("expected Get on a closed fd to fail")
	}
}

func TestConsoleWriteTranslatesNewlines(t *testing.T) {
	dev, drv := newTestConsoleDevice(t)
	table := NewTable(dev)

	of, err := table.Get(Stdout)
	if err != nil {
		t.Fatalf("Get(Stdout): %v", err)
	}
	if _, err := fs.Write(of, []byte("a\nb")); err != nil {
		t.Fatalf("fs.Write: %v", err)
	}
	if got, want := string(drv.written), "a\r\nb"; got != want {
		t.Errorf("expected device to receive %q; got %q", want, got)
	}
}
