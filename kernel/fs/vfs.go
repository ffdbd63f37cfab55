package fs

import (
	"minios/kernel"
	"minios/kernel/fs/blockdev"
)

// Mount is one entry in the ordered mount list (§3).
type Mount struct {
	MountPoint string
	Type       *FilesystemType
	Instance   Instance
	Source     *blockdev.Device
}

var (
	fsTypes []*FilesystemType
	mounts  []*Mount

	errDupFSType        = kernel.NewError("vfs", kernel.ErrAlreadyExists, "a filesystem type with this name is already registered")
	errNoSuchFSType     = kernel.NewError("vfs", kernel.ErrNoSuchFilesystem, "no filesystem type registered under this name")
	errNotAbsolute      = kernel.NewError("vfs", kernel.ErrInvalidArgument, "mount point must be an absolute path")
	errNoSuchDevice     = kernel.NewError("vfs", kernel.ErrNoSuchDevice, "filesystem type requires a block device that was not found")
	errNoMount          = kernel.NewError("vfs", kernel.ErrNotReady, "no filesystem is mounted to resolve this path")
	errNotFound         = kernel.NewError("vfs", kernel.ErrNoSuchFile, "no such file or directory")
	errNotDirectory     = kernel.NewError("vfs", kernel.ErrInvalidArgument, "path component is not a directory")
	errEmptyPath        = kernel.NewError("vfs", kernel.ErrInvalidArgument, "path must not be empty")
	errAlreadyMounted   = kernel.NewError("vfs", kernel.ErrAlreadyExists, "a filesystem is already mounted at this mount point")
	errInvalidArgument  = kernel.NewError("vfs", kernel.ErrInvalidArgument, "invalid argument")
	errPathTooLong      = kernel.NewError("vfs", kernel.ErrInvalidArgument, "path exceeds the maximum path length")
	errComponentTooLong = kernel.NewError("vfs", kernel.ErrInvalidArgument, "path component exceeds the maximum component length")
)

// RegisterFilesystemType adds a FilesystemType to the registry (§4.8:
// "registration is by name and is additive; duplicate names fail").
func RegisterFilesystemType(t *FilesystemType) *kernel.Error {
	for _, existing := range fsTypes {
		if existing.Name == t.Name {
			return errDupFSType
		}
	}
	fsTypes = append(fsTypes, t)
	return nil
}

func findFSType(name string) *FilesystemType {
	for _, t := range fsTypes {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// MountFS grafts a new filesystem instance into the namespace at
// mountPoint (§4.8). source is resolved by name in the block-device
// registry if non-empty; virtual filesystems ignore it.
func MountFS(source, mountPoint, fsTypeName string, flags uint32) *kernel.Error {
	canonMP := Canon(mountPoint)
	if mountPoint == "" || mountPoint[0] != '/' {
		return errNotAbsolute
	}
	for _, m := range mounts {
		if m.MountPoint == canonMP {
			return errAlreadyMounted
		}
	}

	t := findFSType(fsTypeName)
	if t == nil {
		return errNoSuchFSType
	}

	var dev *blockdev.Device
	if t.RequiresBlockDevice {
		dev = blockdev.Find(source)
		if dev == nil {
			return errNoSuchDevice
		}
	}

	instance, err := t.Mount(dev, flags)
	if err != nil {
		return err
	}

	mounts = append(mounts, &Mount{
		MountPoint: canonMP,
		Type:       t,
		Instance:   instance,
		Source:     dev,
	})
	return nil
}

// findMount returns the mount whose mount point is the longest prefix of
// canonPath (§4.8's "longest prefix that equals a registered mountpoint").
func findMount(canonPath string) *Mount {
	var best *Mount
	for _, m := range mounts {
		if !isPrefixMount(m.MountPoint, canonPath) {
			continue
		}
		if best == nil || len(m.MountPoint) > len(best.MountPoint) {
			best = m
		}
	}
	return best
}

func isPrefixMount(mountPoint, path string) bool {
	if mountPoint == "/" {
		return true
	}
	if path == mountPoint {
		return true
	}
	return len(path) > len(mountPoint) && path[:len(mountPoint)] == mountPoint && path[len(mountPoint)] == '/'
}

// Resolve walks canonPath from its mount's root vnode to the vnode it
// names, via DirOps.Lookup. A non-existent component returns NotFound
// (§4.8). This is the funnel every path-taking operation (Open, Mkdir,
// Readdir, StatPath, a syscall's chdir) resolves through, so it is the one
// place §6's path-grammar bounds (MaxPathLen, MaxComponentLen) are
// enforced rather than at each call site.
func Resolve(path string) (*Vnode, *kernel.Error) {
	canonPath := Canon(path)
	if len(canonPath) > MaxPathLen {
		return nil, errPathTooLong
	}
	m := findMount(canonPath)
	if m == nil {
		return nil, errNoMount
	}

	vn := m.Instance.Root()
	remainder := canonPath[len(m.MountPoint):]
	for _, name := range components("/" + trimLeadSlash(remainder)) {
		if len(name) > MaxComponentLen {
			return nil, errComponentTooLong
		}
		if vn.Kind != KindDirectory {
			return nil, errNotDirectory
		}
		next, err := m.Type.DirOps.Lookup(vn, name)
		if err != nil {
			return nil, err
		}
		vn = next
	}
	return vn, nil
}

func trimLeadSlash(s string) string {
	if len(s) > 0 && s[0] == '/' {
		return s[1:]
	}
	return s
}

// Open resolves path and returns a fresh OpenFile (§4.8's vfs_open). If
// FlagCreate is set and the final component does not exist, it is created
// as a regular file in its parent directory, provided the parent exists.
func Open(path string, flags OpenFlags) (*OpenFile, *kernel.Error) {
	if len(path) == 0 {
		return nil, errEmptyPath
	}
	canonPath := Canon(path)

	vn, err := Resolve(canonPath)
	if err != nil {
		if err.Kind != kernel.ErrNoSuchFile || flags&FlagCreate == 0 {
			return nil, err
		}
		dirPath, base := Split(canonPath)
		if base == "" {
			return nil, err
		}
		dirVn, dirErr := Resolve(dirPath)
		if dirErr != nil {
			return nil, dirErr
		}
		m := findMount(canonPath)
		created, createErr := m.Type.DirOps.Create(dirVn, base, KindFile)
		if createErr != nil {
			return nil, createErr
		}
		vn = created
	}

	vn.refcount++
	return &OpenFile{Vnode: vn, Flags: flags, refcount: 1}, nil
}

// Read reads from the vnode at the OpenFile's current position, delegating
// to the owning filesystem's FileOps, and advances Pos by the number of
// bytes read. Reads past end-of-file return 0 bytes (§4.8).
func Read(of *OpenFile, buf []byte) (int, *kernel.Error) {
	n, err := fileOpsFor(of.Vnode).Read(of.Vnode, buf, of.Pos)
	if err != nil {
		return 0, err
	}
	of.Pos += int64(n)
	return n, nil
}

// Write writes to the vnode, honoring append mode (§3: "append mode"
// always targets end-of-file regardless of Pos), and advances Pos.
func Write(of *OpenFile, buf []byte) (int, *kernel.Error) {
	off := of.Pos
	if of.Flags&FlagAppend != 0 {
		off = of.Vnode.Size
	}
	n, err := fileOpsFor(of.Vnode).Write(of.Vnode, buf, off)
	if err != nil {
		return 0, err
	}
	of.Pos = off + int64(n)
	return n, nil
}

// Seek repositions the OpenFile's cursor to off and returns the new
// position.
func Seek(of *OpenFile, off int64) (int64, *kernel.Error) {
	if off < 0 {
		return 0, errInvalidArgument
	}
	of.Pos = off
	return of.Pos, nil
}

// Close releases the OpenFile's reference to its vnode. Once the vnode's
// refcount drops to zero, the owning filesystem's FileOps.Close runs
// (§4.9's lifecycle note: "released when refcount drops to zero").
func Close(of *OpenFile) *kernel.Error {
	of.Vnode.refcount--
	if of.Vnode.refcount > 0 {
		return nil
	}
	return fileOpsFor(of.Vnode).Close(of.Vnode)
}

// fileOpsFor returns the FileOps for the filesystem that owns vn. Char
// and block device vnodes carry their own FileOps in FSPrivate instead of
// going through a mounted filesystem's FileOps.
func fileOpsFor(vn *Vnode) FileOps {
	if vn.Kind == KindCharDevice || vn.Kind == KindBlockDevice {
		return vn.FSPrivate.(FileOps)
	}
	m := mountFor(vn)
	return m.Type.FileOps
}

func mountFor(vn *Vnode) *Mount {
	for _, m := range mounts {
		if m.Instance == vn.FS {
			return m
		}
	}
	return nil
}

var errMkdirRoot = kernel.NewError("vfs", kernel.ErrAlreadyExists, "mkdir: / always exists")

// Mkdir creates a new directory at path (§4.7's baseline mkdir call).
// mkdir("/") always fails with AlreadyExists since the root directory is
// implicit (§8 boundary behavior).
func Mkdir(path string) *kernel.Error {
	canonPath := Canon(path)
	dirPath, base := Split(canonPath)
	if base == "" {
		return errMkdirRoot
	}
	dirVn, err := Resolve(dirPath)
	if err != nil {
		return err
	}
	m := findMount(canonPath)
	if m == nil {
		return errNoMount
	}
	_, err = m.Type.DirOps.Create(dirVn, base, KindDirectory)
	return err
}

// DirEntry names one child yielded by Readdir.
type DirEntry struct {
	Name string
}

// Readdir iterates the children of the directory at path starting from
// cursor, mirroring §4.9's readdir(dir, cursor) -> (name, cursor') | End.
func Readdir(path string, cursor int) (entry DirEntry, nextCursor int, end bool, kerr *kernel.Error) {
	vn, err := Resolve(path)
	if err != nil {
		return DirEntry{}, 0, true, err
	}
	if vn.Kind != KindDirectory {
		return DirEntry{}, 0, true, errNotDirectory
	}
	m := mountFor(vn)
	name, next, isEnd := m.Type.DirOps.Readdir(vn, cursor)
	return DirEntry{Name: name}, next, isEnd, nil
}

// Stat describes the subset of vnode metadata the baseline stat() syscall
// exposes (§4.7).
type Stat struct {
	Kind VnodeKind
	Size int64
}

// StatPath resolves path and reports its vnode metadata.
func StatPath(path string) (Stat, *kernel.Error) {
	vn, err := Resolve(path)
	if err != nil {
		return Stat{}, err
	}
	return Stat{Kind: vn.Kind, Size: vn.Size}, nil
}

// resetForTest clears the package-level registries.
func resetForTest() {
	fsTypes = nil
	mounts = nil
}
