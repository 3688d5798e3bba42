// Command ekernel boots the kernel (spec.md 4.1): "boot -> clear BSS ->
// initialize heap -> initialize frame allocator -> build kernel address
// space and activate it -> install trap vector -> arm timer -> push
// INIT process onto the ready queue -> scheduler loop." In this hosted
// simulation there is no real firmware/BSS/MMU to drive, so boot wires
// the heap, frame-allocator, kernel-space and timer steps as Go
// constructors (there is no BSS clear, space activation or trap-vector
// install), against an
// in-process physical-memory Arena (SPEC_FULL.md 1.1) and a file-backed
// block device standing in for the virtio disk.
package main

import (
	"flag"
	"log"

	"ekernel/console"
	"ekernel/defs"
	"ekernel/fs"
	"ekernel/klog"
	"ekernel/mem"
	"ekernel/proc"
	"ekernel/syscall"
	"ekernel/trap"
	"ekernel/vm"
)

func main() {
	imagePath := flag.String("image", "fs.img", "easy_fs disk image path")
	initPath := flag.String("init", "initproc", "name of the INIT program in the image")
	flag.Parse()

	sys := boot(*imagePath)
	root := mountFS(*imagePath)

	initELF := make([]byte, 0)
	if ino := root.Find(*initPath); ino != nil {
		initELF = make([]byte, ino.Size())
		ino.ReadAt(0, initELF)
	} else {
		klog.Printf("[kernel] init program %q not found in image", *initPath)
	}
	sys.NewInitProcess(initELF)

	table := syscall.NewTable(sys, root)
	runScheduler(sys, table)
}

// boot performs spec.md 4.1's heap/frame-allocator/kernel-space
// sequence over a hosted physical-memory Arena.
func boot(imagePath string) *proc.System {
	arena := mem.NewArena(defs.MemoryEnd)
	stats := mem.InitHeap()
	klog.Printf("[kernel] heap initialized: %d bytes", stats.SizeBytes)

	fa := mem.NewFrameAllocator(mem.PhysAddr(defs.KernelHeapSize).Ceil(), mem.PhysAddr(defs.MemoryEnd).Floor())

	trampolineFrame, ok := fa.Alloc(arena)
	if !ok {
		log.Fatal("boot: failed to allocate trampoline frame")
	}
	kernelSpace := vm.NewKernelSpace(fa, arena, trampolineFrame.PPN, []vm.KernelSegment{
		{Start: 0, End: mem.VirtAddr(defs.KernelHeapSize), Perm: mem.PTER | mem.PTEW | mem.PTEX},
	})

	sys := proc.NewSystem(arena, fa, kernelSpace)
	sys.SetNextTrigger()
	return sys
}

// mountFS opens (creating if absent) the on-disk image at path and
// returns its root directory inode (spec.md 4.9).
func mountFS(path string) *fs.Inode {
	dev, err := fs.NewFileBlockDevice(path)
	if err != nil {
		log.Fatalf("boot: open block device: %v", err)
	}
	efs, err := fs.Open(dev)
	if err != nil {
		efs = fs.Create(dev, 4096, 1)
	}
	return efs.RootInode()
}

// runScheduler is the steady-state loop (spec.md 4.1, 4.5): pick a
// READY process, run it until it traps, dispatch the trap, repeat.
// "Running" a process here means driving its trap frame directly
// through trap.Handle rather than executing real user instructions —
// see proc.System.RunOne's doc comment for why.
func runScheduler(sys *proc.System, table *syscall.Table) {
	hooks := trap.Hooks{
		Syscall:        table.Dispatch,
		ExitCurrent:    sys.ExitCurrentAndRunNext,
		SuspendCurrent: sys.SuspendCurrentAndRunNext,
		SetNextTrigger: sys.SetNextTrigger,
	}

	for {
		pcb := sys.RunOne()
		if pcb == nil {
			klog.Printf("[kernel] ready queue empty, shutting down")
			console.Shutdown(false)
			return
		}

		tf := trap.FrameAt(pcb.MemorySpace.Arena(), pcb.TrapFramePPN)
		trap.Handle(tf, trap.UserEcall, 0, hooks)
	}
}
