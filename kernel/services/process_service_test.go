package services

import (
	"errors"
	"testing"

	cpuServices "github.com/sisoputnfrba/tp-paginacion-magiOS/cpu/services"
	ioServices "github.com/sisoputnfrba/tp-paginacion-magiOS/io/services"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/kernel/models"
	memoryModels "github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/models"
	memoryServices "github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/services"
)

const pageSize = 128

func newTestKernel(t *testing.T, pages, frames int) (*Kernel, *memoryServices.VirtualMemory) {
	t.Helper()

	mmu := cpuServices.NewMMU(pageSize, pages, frames)
	vm := memoryServices.NewVirtualMemory(mmu, ioServices.NewMemoryDisk(64, 8, 8))
	mmu.SetFaultHandler(vm.HandleFault)
	if err := vm.Init(pages, frames, 2); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	t.Cleanup(func() {
		_ = vm.Shutdown()
	})
	return NewKernel(vm, mmu), vm
}

func TestKernel_SpawnAndWait(t *testing.T) {
	kernel, vm := newTestKernel(t, 4, 2)

	pid, err := kernel.Spawn("Child", func(p *Process) int {
		for page := 0; page < 4; page++ {
			if err := p.Write(page*pageSize, []byte{byte(page + 1)}); err != nil {
				return 10
			}
		}
		for page := 0; page < 4; page++ {
			buffer := make([]byte, 1)
			if err := p.Read(page*pageSize, buffer); err != nil || buffer[0] != byte(page+1) {
				return 11
			}
		}
		return 7
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	status, err := kernel.Wait(pid)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if status != 7 {
		t.Errorf("Expected status 7, got %d", status)
	}

	stats, _ := vm.Stats()
	if stats.FreeFrames != stats.Frames || stats.FreeBlocks != stats.Blocks {
		t.Errorf("Expected memory released after exit, got %+v", stats)
	}
	if kernel.Running() != 0 {
		t.Errorf("Expected no processes left, got %d", kernel.Running())
	}
}

func TestKernel_AccessViolationTerminatesProcess(t *testing.T) {
	kernel, _ := newTestKernel(t, 2, 2)

	reached := false
	pid, err := kernel.Spawn("Child", func(p *Process) int {
		_ = p.Read(5*pageSize, make([]byte, 1))
		reached = true
		return models.ExitOK
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	status, _ := kernel.Wait(pid)
	if status != memoryModels.StatusAccessViolation {
		t.Errorf("Expected status %d, got %d", memoryModels.StatusAccessViolation, status)
	}
	if reached {
		t.Error("Expected the process to stop at the faulting access")
	}
}

func TestKernel_ManyProcessesWithoutReplacement(t *testing.T) {
	const pages, children = 4, 4
	kernel, vm := newTestKernel(t, pages, pages*children)

	var pids []int
	for i := 0; i < children; i++ {
		pid, err := kernel.Spawn("Child", func(p *Process) int {
			for page := 0; page < pages; page++ {
				if err := p.Write(page*pageSize, []byte{byte(p.PID())}); err != nil {
					return 1
				}
			}
			return models.ExitOK
		})
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		pids = append(pids, pid)
	}

	for _, pid := range pids {
		if status, _ := kernel.Wait(pid); status != models.ExitOK {
			t.Errorf("Expected pid %d to exit OK, got %d", pid, status)
		}
	}

	stats, _ := vm.Stats()
	if stats.Faults != pages*children || stats.PageIns != 0 || stats.PageOuts != 0 {
		t.Errorf("Expected %d faults without replacement, got %+v", pages*children, stats)
	}
}

func TestKernel_WaitUnknownPID(t *testing.T) {
	kernel, _ := newTestKernel(t, 1, 1)
	if _, err := kernel.Wait(3); !errors.Is(err, ErrProcessNotFound) {
		t.Errorf("Expected ErrProcessNotFound, got: %v", err)
	}
}

func TestTouchAllPages_WithReplacement(t *testing.T) {
	const pages = 4
	kernel, vm := newTestKernel(t, pages, 3)

	var pids []int
	for i := 0; i < 3; i++ {
		pid, err := kernel.Spawn("Hijo", TouchAllPages(pages, pageSize))
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		pids = append(pids, pid)
	}

	for _, pid := range pids {
		if status, _ := kernel.Wait(pid); status != models.ExitOK {
			t.Errorf("Expected pid %d to exit OK, got %d", pid, status)
		}
	}

	stats, _ := vm.Stats()
	if stats.PageOuts == 0 {
		t.Errorf("Expected evictions with 3 frames for 12 pages, got %+v", stats)
	}
	if err := vm.CheckInvariants(); err != nil {
		t.Errorf("Expected consistent memory, got: %v", err)
	}
}
