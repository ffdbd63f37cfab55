package proc

import (
	"minios/kernel"
	"minios/kernel/mm/kheap"
)

// allocStack is the indirection CreateTask calls to obtain a task's
// kernel stack; tests override it to hand out backing arrays instead of
// reaching into the real kernel heap, the same "function variable swapped
// in tests" convention kernel/mm/vmm uses for mm.SetFrameAllocator.
var allocStackFn = func() (uintptr, *kernel.Error) {
	return kheap.Kmalloc(StackSize)
}

func allocStack() (uintptr, *kernel.Error) {
	return allocStackFn()
}
