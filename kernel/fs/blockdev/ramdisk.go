package blockdev

import "minios/kernel"

// Ramdisk is a block device backed by a single contiguous heap allocation
// of numBlocks*blockSize bytes (§4.10). Unlike the teacher's conflicting
// "4 MiB in one call, 32 KiB observed" RAM disk sizing, both parameters are
// always passed explicitly and there is no hidden minimum (§9 open
// questions).
type Ramdisk struct {
	blockSize int
	store     []byte
}

// NewRamdisk allocates a Ramdisk and registers it under name with
// Readable|Writable flags.
func NewRamdisk(name string, blockSize int, numBlocks uint64) (*Device, *kernel.Error) {
	rd := &Ramdisk{
		blockSize: blockSize,
		store:     make([]byte, blockSize*int(numBlocks)),
	}
	dev := &Device{
		Name:      name,
		BlockSize: blockSize,
		NumBlocks: numBlocks,
		Flags:     FlagReadable | FlagWritable,
		Ops:       rd,
	}
	if err := Register(dev); err != nil {
		return nil, err
	}
	return dev, nil
}

func (rd *Ramdisk) ReadBlock(n uint64, buf []byte) *kernel.Error {
	off := int(n) * rd.blockSize
	copy(buf, rd.store[off:off+rd.blockSize])
	return nil
}

func (rd *Ramdisk) WriteBlock(n uint64, buf []byte) *kernel.Error {
	off := int(n) * rd.blockSize
	copy(rd.store[off:off+rd.blockSize], buf)
	return nil
}

// Sync is a no-op: the ramdisk has no backing store beyond its own heap
// allocation (§4.10).
func (rd *Ramdisk) Sync() *kernel.Error { return nil }
