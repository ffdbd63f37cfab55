package fd

import (
	"minios/kernel"
	"minios/kernel/device"
	"minios/kernel/fs"
)

// consoleOps adapts the bound UART device into an fs.FileOps so the
// console can be opened as an ordinary CharDevice vnode and wired into
// fd 0/1/2 the same way any other file would be (§3: OpenFile's vnode
// field does not distinguish a device from a file).
type consoleOps struct {
	dev *device.Device
}

func (c consoleOps) Read(_ *fs.Vnode, buf []byte, _ int64) (int, *kernel.Error) {
	return device.Read(c.dev, buf, 0)
}

func (c consoleOps) Write(_ *fs.Vnode, buf []byte, _ int64) (int, *kernel.Error) {
	return device.Write(c.dev, translateNewlines(buf), 0)
}

func (c consoleOps) Close(_ *fs.Vnode) *kernel.Error { return nil }

// translateNewlines expands every "\n" to "\r\n" on output, per the
// console protocol (external interfaces §6).
func translateNewlines(buf []byte) []byte {
	out := make([]byte, 0, len(buf))
	for _, b := range buf {
		if b == '\n' {
			out = append(out, '\r', '\n')
			continue
		}
		out = append(out, b)
	}
	return out
}

// newConsoleOpenFile builds an OpenFile wrapping dev as a CharDevice
// vnode, for use as one of fd 0/1/2's pre-wired endpoints.
func newConsoleOpenFile(dev *device.Device, flags fs.OpenFlags) *fs.OpenFile {
	ops := consoleOps{dev: dev}
	vn := &fs.Vnode{Kind: fs.KindCharDevice, FSPrivate: fs.FileOps(ops)}
	return &fs.OpenFile{Vnode: vn, Flags: flags}
}
