// Package ramfs implements the RAM filesystem (§4.9): an entirely
// in-heap tree of File and Directory nodes. It is new code — the teacher
// has no filesystem of its own — grounded on the design notes' (§9)
// resolution of the source's raw-backlink cycle risk: the child is owned
// exclusively by its parent's children map, and the parent link is a
// weak, write-once back-reference used only for bookkeeping (path
// resolution always walks down from the mount root via fs.Resolve, never
// up through Parent), making cycles unrepresentable by construction.
package ramfs

import (
	"minios/kernel"
	"minios/kernel/fs"
	"minios/kernel/fs/blockdev"
)

// Node is a ramfs-private filesystem object: a tagged union of File and
// Directory, mirroring the §3 data-model's RamfsNode.
type Node struct {
	Name   string
	IsDir  bool
	Parent *Node

	// File fields.
	bytes []byte

	// Directory fields: children in insertion order, keyed by name for
	// O(1) lookup and duplicate-name rejection.
	order    []string
	children map[string]*Node
}

// FS is one mounted ramfs instance.
type FS struct {
	root *fs.Vnode
}

var (
	errNotFound      = kernel.NewError("ramfs", kernel.ErrNoSuchFile, "no such file or directory")
	errAlreadyExists = kernel.NewError("ramfs", kernel.ErrAlreadyExists, "a node with this name already exists")
	errNotDir        = kernel.NewError("ramfs", kernel.ErrInvalidArgument, "not a directory")
)

// Type is the FilesystemType ramfs registers itself under (§4.8).
var Type = &fs.FilesystemType{
	Name:                "ramfs",
	RequiresBlockDevice: false,
	Mount:               mount,
	FileOps:             fileOps{},
	DirOps:              dirOps{},
}

func mount(_ *blockdev.Device, _ uint32) (fs.Instance, *kernel.Error) {
	return newInstance(), nil
}

func newInstance() *FS {
	root := &Node{Name: "", IsDir: true, children: map[string]*Node{}}
	vn := &fs.Vnode{Kind: fs.KindDirectory, FSPrivate: root}
	f := &FS{root: vn}
	vn.FS = f
	return f
}

// Root implements fs.Instance.
func (f *FS) Root() *fs.Vnode { return f.root }

func nodeOf(vn *fs.Vnode) *Node { return vn.FSPrivate.(*Node) }

func vnodeFor(fsInstance fs.Instance, n *Node) *fs.Vnode {
	kind := fs.KindFile
	var size int64
	if n.IsDir {
		kind = fs.KindDirectory
	} else {
		size = int64(len(n.bytes))
	}
	return &fs.Vnode{Kind: kind, Size: size, FS: fsInstance, FSPrivate: n}
}

type dirOps struct{}

// Lookup returns the child named name within dir, or NotFound (§4.9).
func (dirOps) Lookup(dir *fs.Vnode, name string) (*fs.Vnode, *kernel.Error) {
	n := nodeOf(dir)
	if !n.IsDir {
		return nil, errNotDir
	}
	child, ok := n.children[name]
	if !ok {
		return nil, errNotFound
	}
	return vnodeFor(dir.FS, child), nil
}

// Create inserts a new node named name of the given kind into dir.
// Duplicate names fail with AlreadyExists (§4.9).
func (dirOps) Create(dir *fs.Vnode, name string, kind fs.VnodeKind) (*fs.Vnode, *kernel.Error) {
	n := nodeOf(dir)
	if !n.IsDir {
		return nil, errNotDir
	}
	if _, exists := n.children[name]; exists {
		return nil, errAlreadyExists
	}

	child := &Node{Name: name, Parent: n, IsDir: kind == fs.KindDirectory}
	if child.IsDir {
		child.children = map[string]*Node{}
	}
	n.children[name] = child
	n.order = append(n.order, name)

	return vnodeFor(dir.FS, child), nil
}

// Readdir yields dir's children in insertion order (§4.9).
func (dirOps) Readdir(dir *fs.Vnode, cursor int) (name string, nextCursor int, end bool) {
	n := nodeOf(dir)
	if cursor < 0 || cursor >= len(n.order) {
		return "", cursor, true
	}
	return n.order[cursor], cursor + 1, false
}

type fileOps struct{}

// Read copies bytes from file.bytes[off:] into buf, returning 0 past
// end-of-file (§4.9, §4.8).
func (fileOps) Read(vn *fs.Vnode, buf []byte, off int64) (int, *kernel.Error) {
	n := nodeOf(vn)
	if off < 0 || off >= int64(len(n.bytes)) {
		return 0, nil
	}
	copied := copy(buf, n.bytes[off:])
	return copied, nil
}

// Write grows file.bytes as needed and copies buf in at off (§4.9).
func (fileOps) Write(vn *fs.Vnode, buf []byte, off int64) (int, *kernel.Error) {
	n := nodeOf(vn)
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

// Close is a no-op: ramfs nodes are reclaimed by the Go garbage collector
// once unreferenced, there is no explicit release step (§4.9).
func (fileOps) Close(vn *fs.Vnode) *kernel.Error { return nil }
