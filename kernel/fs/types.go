// Package fs implements the Virtual File System (§4.8): a pluggable
// filesystem-type registry, an ordered mount list resolved by
// longest-matching-prefix, and a thin vfs_open/read/write/seek/close
// wrapper that delegates to whichever concrete filesystem owns the
// resolved vnode.
//
// The teacher (gopheros) never grew a VFS of its own; this package is
// grounded on the same narrow-vtable idiom kernel/device.Driver uses
// (explicit, fixed function tables rather than ambient interfaces) and,
// for the shape of the path-resolution/mount-table/vnode trio
// specifically, on tinyrange-cc's internal/vfs package — the one repo in
// the retrieval pack that implements a comparable in-memory VFS layer in
// Go (see DESIGN.md).
package fs

import (
	"minios/kernel"
	"minios/kernel/fs/blockdev"
)

// VnodeKind classifies what a Vnode refers to (§3 data model).
type VnodeKind uint8

const (
	KindFile VnodeKind = iota
	KindDirectory
	KindCharDevice
	KindBlockDevice
)

// Vnode is the VFS's opaque handle to an object within some filesystem.
// FSPrivate is owned and interpreted only by the filesystem that created
// the vnode (ramfs stores a *ramfs.Node there, a char- or block-device
// vnode stores its own FileOps).
type Vnode struct {
	Kind      VnodeKind
	Size      int64
	FS        Instance
	FSPrivate interface{}
	refcount  int
}

// FileOps is the operation vtable a filesystem implements for regular
// files (and char/block device vnodes, which reuse the same signatures).
type FileOps interface {
	Read(vn *Vnode, buf []byte, off int64) (int, *kernel.Error)
	Write(vn *Vnode, buf []byte, off int64) (int, *kernel.Error)
	Close(vn *Vnode) *kernel.Error
}

// DirOps is the operation vtable a filesystem implements for directories.
type DirOps interface {
	Lookup(dir *Vnode, name string) (*Vnode, *kernel.Error)
	Create(dir *Vnode, name string, kind VnodeKind) (*Vnode, *kernel.Error)
	// Readdir returns the name of the child at cursor and the cursor
	// value to pass on the next call, or end=true once the directory's
	// children are exhausted (§4.9).
	Readdir(dir *Vnode, cursor int) (name string, nextCursor int, end bool)
}

// Instance is a mounted filesystem: the minimal surface the VFS needs from
// a concrete filesystem once FilesystemType.Mount has constructed it.
type Instance interface {
	Root() *Vnode
}

// FilesystemType is a registered filesystem driver (§4.8). RequiresBlockDevice
// gates whether Mount requires a resolvable source block device (virtual
// filesystems such as ramfs leave this false and ignore source).
type FilesystemType struct {
	Name                string
	RequiresBlockDevice bool
	Mount               func(source *blockdev.Device, flags uint32) (Instance, *kernel.Error)
	FileOps             FileOps
	DirOps              DirOps
}

// OpenFlags mirrors the subset of POSIX open(2) flags this kernel's
// syscall surface needs (§4.7's baseline open call).
type OpenFlags uint32

const (
	FlagRead OpenFlags = 1 << iota
	FlagWrite
	FlagCreate
	FlagAppend
)

// OpenFile is a per-open file description: a vnode, a byte cursor and the
// flags it was opened with (§3). Several fds may share one OpenFile via
// dup (future work); refcount tracks how many.
type OpenFile struct {
	Vnode    *Vnode
	Pos      int64
	Flags    OpenFlags
	refcount int
}
