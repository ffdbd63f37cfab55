package fs

import (
	"testing"

	"minios/kernel"
	"minios/kernel/fs/blockdev"
)

// memFS is a minimal in-test FilesystemType/Instance good enough to
// exercise mount/resolve/open/read/write/close without depending on the
// ramfs package (which itself imports fs — a real package would create an
// import cycle here).
type memNode struct {
	kind     VnodeKind
	bytes    []byte
	children map[string]*memNode
}

type memFS struct{ root *Vnode }

func (f *memFS) Root() *Vnode { return f.root }

func newMemVnode(fsInstance Instance, n *memNode) *Vnode {
	return &Vnode{Kind: n.kind, Size: int64(len(n.bytes)), FS: fsInstance, FSPrivate: n}
}

type memDirOps struct{}

func (memDirOps) Lookup(dir *Vnode, name string) (*Vnode, *kernel.Error) {
	n := dir.FSPrivate.(*memNode)
	child, ok := n.children[name]
	if !ok {
		return nil, errNotFound
	}
	return newMemVnode(dir.FS, child), nil
}

func (memDirOps) Create(dir *Vnode, name string, kind VnodeKind) (*Vnode, *kernel.Error) {
	n := dir.FSPrivate.(*memNode)
	if _, exists := n.children[name]; exists {
		return nil, kernel.NewError("memfs", kernel.ErrAlreadyExists, "exists")
	}
	child := &memNode{kind: kind}
	if kind == KindDirectory {
		child.children = map[string]*memNode{}
	}
	n.children[name] = child
	return newMemVnode(dir.FS, child), nil
}

func (memDirOps) Readdir(dir *Vnode, cursor int) (string, int, bool) {
	return "", cursor, true
}

type memFileOps struct{}

func (memFileOps) Read(vn *Vnode, buf []byte, off int64) (int, *kernel.Error) {
	n := vn.FSPrivate.(*memNode)
	if off < 0 || off >= int64(len(n.bytes)) {
		return 0, nil
	}
	return copy(buf, n.bytes[off:]), nil
}

func (memFileOps) Write(vn *Vnode, buf []byte, off int64) (int, *kernel.Error) {
	n := vn.FSPrivate.(*memNode)
	end := off + int64(len(buf))
	if end > int64(len(n.bytes)) {
		grown := make([]byte, end)
		copy(grown, n.bytes)
		n.bytes = grown
	}
	copy(n.bytes[off:end], buf)
	vn.Size = int64(len(n.bytes))
	return len(buf), nil
}

func (memFileOps) Close(vn *Vnode) *kernel.Error { return nil }

func mountMemFS(t *testing.T, mountPoint string) {
	t.Helper()
	resetForTest()

	root := &memNode{kind: KindDirectory, children: map[string]*memNode{}}
	fsInstance := &memFS{}
	fsInstance.root = newMemVnode(fsInstance, root)

	realType := &FilesystemType{
		Name:                "memfs",
		RequiresBlockDevice: false,
		FileOps:             memFileOps{},
		DirOps:              memDirOps{},
		Mount:               func(_ *blockdev.Device, _ uint32) (Instance, *kernel.Error) { return fsInstance, nil },
	}
	if err := RegisterFilesystemType(realType); err != nil {
		t.Fatalf("RegisterFilesystemType: %v", err)
	}
	if err := MountFS("", mountPoint, "memfs", 0); err != nil {
		t.Fatalf("MountFS: %v", err)
	}
}

func TestRegisterFilesystemTypeRejectsDuplicates(t *testing.T) {
	resetForTest()
	t.Cleanup(resetForTest)

	typ := &FilesystemType{Name: "dup", FileOps: memFileOps{}, DirOps: memDirOps{}}
	if err := RegisterFilesystemType(typ); err != nil {
		t.Fatalf("first registration: expected nil error; got %v", err)
	}
	if err := RegisterFilesystemType(typ); err == nil {
		t.Fatal("expected second registration of the same name to fail")
	}
}

func TestMountFSRequiresAbsoluteMountPoint(t *testing.T) {
	resetForTest()
	t.Cleanup(resetForTest)

	typ := &FilesystemType{Name: "memfs", FileOps: memFileOps{}, DirOps: memDirOps{}}
	if err := RegisterFilesystemType(typ); err != nil {
		t.Fatalf("RegisterFilesystemType: %v", err)
	}
	if err := MountFS("", "relative", "memfs", 0); err == nil {
		t.Fatal("expected MountFS with a non-absolute mount point to fail")
	}
}

func TestOpenCreateWriteReadRoundtrip(t *testing.T) {
	mountMemFS(t, "/")
	t.Cleanup(resetForTest)

	of, err := Open("/greeting.txt", FlagCreate|FlagWrite)
	if err != nil {
		t.Fatalf("Open with FlagCreate: %v", err)
	}

	n, err := Write(of, []byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Write: n=%d err=%v", n, err)
	}
	if err := Close(of); err != nil {
		t.Fatalf("Close: %v", err)
	}

	of2, err := Open("/greeting.txt", FlagRead)
	if err != nil {
		t.Fatalf("re-Open: %v", err)
	}
	buf := make([]byte, 16)
	n, err = Read(of2, buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Errorf("expected to read back %q; got %q", "hello", buf[:n])
	}
}

func TestOpenWithoutCreateOnMissingPathFails(t *testing.T) {
	mountMemFS(t, "/")
	t.Cleanup(resetForTest)

	if _, err := Open("/missing.txt", FlagRead); err == nil {
		t.Fatal("expected Open on a missing path without FlagCreate to fail")
	} else if err.Kind != kernel.ErrNoSuchFile {
		t.Errorf("expected ErrNoSuchFile; got %v", err.Kind)
	}
}

func TestSeekRejectsNegativeOffset(t *testing.T) {
	mountMemFS(t, "/")
	t.Cleanup(resetForTest)

	of, err := Open("/f", FlagCreate|FlagWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := Seek(of, -1); err == nil {
		t.Fatal("expected Seek with a negative offset to fail")
	}
}

func TestMkdirRootAlwaysFails(t *testing.T) {
	mountMemFS(t, "/")
	t.Cleanup(resetForTest)

	if err := Mkdir("/"); err == nil {
		t.Fatal("expected Mkdir(\"/\") to fail: root always exists")
	}
}

func TestResolveRejectsOverlongPath(t *testing.T) {
	mountMemFS(t, "/")
	t.Cleanup(resetForTest)

	// A syntactically valid single-component path longer than MaxPathLen
	// bytes; Resolve must reject it before ever reaching DirOps.Lookup
	// (§6's path-grammar bound).
	longName := make([]byte, MaxPathLen+1)
	for i := range longName {
		longName[i] = 'a'
	}
	overlong := "/" + string(longName)

	if _, err := Resolve(overlong); err == nil {
		t.Fatal("expected Resolve to reject a path longer than MaxPathLen")
	} else if err.Kind != kernel.ErrInvalidArgument {
		t.Errorf("expected ErrInvalidArgument; got %v", err.Kind)
	}
}

func TestResolveRejectsOverlongComponent(t *testing.T) {
	mountMemFS(t, "/")
	t.Cleanup(resetForTest)

	longComponent := make([]byte, MaxComponentLen+1)
	for i := range longComponent {
		longComponent[i] = 'b'
	}
	path := "/" + string(longComponent)

	if _, err := Resolve(path); err == nil {
		t.Fatal("expected Resolve to reject a component longer than MaxComponentLen")
	} else if err.Kind != kernel.ErrInvalidArgument {
		t.Errorf("expected ErrInvalidArgument; got %v", err.Kind)
	}
}

func TestResolveAcceptsPathsAtTheBoundary(t *testing.T) {
	mountMemFS(t, "/")
	t.Cleanup(resetForTest)

	name := make([]byte, MaxComponentLen)
	for i := range name {
		name[i] = 'c'
	}
	path := "/" + string(name)
	if _, err := Open(path, FlagCreate|FlagWrite); err != nil {
		t.Fatalf("expected a component of exactly MaxComponentLen to be accepted: %v", err)
	}
	if _, err := Resolve(path); err != nil {
		t.Fatalf("expected Resolve to accept a path at the boundary: %v", err)
	}
}

func TestStatPathReportsKindAndSize(t *testing.T) {
	mountMemFS(t, "/")
	t.Cleanup(resetForTest)

	of, err := Open("/f", FlagCreate|FlagWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := Write(of, []byte("1234")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	st, err := StatPath("/f")
	if err != nil {
		t.Fatalf("StatPath: %v", err)
	}
	if st.Kind != KindFile || st.Size != 4 {
		t.Errorf("expected Kind=%v Size=4; got Kind=%v Size=%d", KindFile, st.Kind, st.Size)
	}
}
