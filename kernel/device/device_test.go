package device

import (
	"testing"

	"minios/kernel"
)

type fakeDriver struct {
	name       string
	matchIDs   []string
	priority   int
	devType    Type
	failAt     string // "probe", "init", "start", or ""
	calls      *[]string
}

func (d *fakeDriver) Name() string       { return d.name }
func (d *fakeDriver) MatchIDs() []string { return d.matchIDs }
func (d *fakeDriver) Priority() int      { return d.priority }
func (d *fakeDriver) Type() Type         { return d.devType }

func (d *fakeDriver) Probe(dev *Device) *kernel.Error {
	*d.calls = append(*d.calls, "probe")
	if d.failAt == "probe" {
		return kernel.NewError(d.name, kernel.ErrNoSuchDevice, "probe failed")
	}
	return nil
}

func (d *fakeDriver) Init(dev *Device) *kernel.Error {
	*d.calls = append(*d.calls, "init")
	if d.failAt == "init" {
		return kernel.NewError(d.name, kernel.ErrNotReady, "init failed")
	}
	return nil
}

func (d *fakeDriver) Start(dev *Device) *kernel.Error {
	*d.calls = append(*d.calls, "start")
	if d.failAt == "start" {
		return kernel.NewError(d.name, kernel.ErrNotReady, "start failed")
	}
	return nil
}

func (d *fakeDriver) Read(dev *Device, buf []byte, off int64) (int, *kernel.Error) {
	return copy(buf, "ok"), nil
}
func (d *fakeDriver) Write(dev *Device, buf []byte, off int64) (int, *kernel.Error) {
	return len(buf), nil
}
func (d *fakeDriver) Ioctl(dev *Device, request, arg uintptr) (uintptr, *kernel.Error) {
	return 0, nil
}

func TestRegisterDeviceBindsByExactNameMatch(t *testing.T) {
	resetForTest()
	var calls []string
	RegisterDriver(&fakeDriver{name: "drv", matchIDs: []string{"arm,pl011"}, calls: &calls})

	dev := RegisterDevice("arm,pl011", 0x9000000, 33)

	if dev.State != StateActive {
		t.Fatalf("expected device to reach Active; got %s (reason: %s)", dev.State, dev.FailReason)
	}
	if got := []string{"probe", "init", "start"}; !equalSlices(calls, got) {
		t.Fatalf("expected call order %v; got %v", got, calls)
	}
}

func TestRegisterDeviceRequiresExactMatch(t *testing.T) {
	resetForTest()
	var calls []string
	RegisterDriver(&fakeDriver{name: "drv", matchIDs: []string{"arm,pl011"}, calls: &calls})

	dev := RegisterDevice("arm,pl011 ", 0x9000000, 33) // trailing space: not an exact match

	if dev.State != StateFailed {
		t.Fatalf("expected a near-miss name to fail binding; got %s", dev.State)
	}
	if len(calls) != 0 {
		t.Fatalf("expected no driver calls for an unmatched device; got %v", calls)
	}
}

func TestRegisterDeviceStopsAtFirstFailure(t *testing.T) {
	resetForTest()
	var calls []string
	RegisterDriver(&fakeDriver{name: "drv", matchIDs: []string{"ns16550"}, failAt: "init", calls: &calls})

	dev := RegisterDevice("ns16550", 0x3f8, 4)

	if dev.State != StateFailed {
		t.Fatalf("expected device to fail; got %s", dev.State)
	}
	if got := []string{"probe", "init"}; !equalSlices(calls, got) {
		t.Fatalf("expected call order %v (no start after init failure); got %v", got, calls)
	}
	if dev.FailReason == "" {
		t.Fatal("expected a logged failure reason")
	}
}

func TestDriversProbedInPriorityOrder(t *testing.T) {
	resetForTest()
	var calls []string
	low := &fakeDriver{name: "low", matchIDs: []string{"x"}, priority: 10, calls: &calls}
	high := &fakeDriver{name: "high", matchIDs: []string{"x"}, priority: 1, calls: &calls}
	RegisterDriver(low)
	RegisterDriver(high)

	dev := RegisterDevice("x", 0, 0)

	if dev.Driver.Name() != "high" {
		t.Fatalf("expected the lower-priority-number driver to bind first; got %s", dev.Driver.Name())
	}
}

func TestOperationsFailOnNonActiveDevice(t *testing.T) {
	resetForTest()
	var calls []string
	RegisterDriver(&fakeDriver{name: "drv", matchIDs: []string{"x"}, failAt: "probe", calls: &calls})

	dev := RegisterDevice("x", 0, 0)

	if _, err := Read(dev, make([]byte, 4), 0); err == nil {
		t.Fatal("expected Read on a non-Active device to fail")
	}
	if _, err := Write(dev, make([]byte, 4), 0); err == nil {
		t.Fatal("expected Write on a non-Active device to fail")
	}
}

func TestOperationsPassThroughOnActiveDevice(t *testing.T) {
	resetForTest()
	var calls []string
	RegisterDriver(&fakeDriver{name: "drv", matchIDs: []string{"x"}, calls: &calls})

	dev := RegisterDevice("x", 0, 0)

	buf := make([]byte, 4)
	n, err := Read(dev, buf, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || string(buf[:n]) != "ok" {
		t.Fatalf("expected the bound driver's Read to run; got %q", buf[:n])
	}
}

func TestRegisterDeviceRecordsDriverType(t *testing.T) {
	resetForTest()
	var calls []string
	RegisterDriver(&fakeDriver{name: "drv", matchIDs: []string{"arm,pl011"}, devType: TypeUart, calls: &calls})

	dev := RegisterDevice("arm,pl011", 0x9000000, 33)

	if dev.Type != TypeUart {
		t.Fatalf("expected device.Type == TypeUart; got %s", dev.Type)
	}
	if found := FindByType(TypeUart); found != dev {
		t.Fatalf("expected FindByType(TypeUart) to return the bound device")
	}
	if found := FindByType(TypeTimer); found != nil {
		t.Fatalf("expected no Active timer device; got %v", found)
	}
}

func TestRegisterDeviceLeavesTypeUnsetWhenUnbound(t *testing.T) {
	resetForTest()
	var calls []string
	RegisterDriver(&fakeDriver{name: "drv", matchIDs: []string{"arm,pl011"}, devType: TypeUart, calls: &calls})

	dev := RegisterDevice("no-match", 0, 0)

	if dev.Type != TypeOther {
		t.Fatalf("expected an unbound device's Type to stay TypeOther; got %s", dev.Type)
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
