package services

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/models"
)

// Hardware es lo que la memoria virtual necesita de la MMU: la memoria física, los bits de
// acceso de cada marco y la instalación de tablas de páginas. Instalar una tabla nil la quita.
type Hardware interface {
	PageSize() int
	FrameMemory(frame int) []byte
	GetAccess(frame int) models.Access
	SetAccess(frame int, access models.Access)
	SetPageTable(pid int, table []models.PTE)
}

// VirtualMemory une las tablas de páginas, los marcos, la SWAP y los pagers.
type VirtualMemory struct {
	mu          sync.RWMutex
	initialized bool

	hw    Hardware
	swap  *SwapSpaceManager
	stats *Statistics

	pages  int
	tables *PageTableStore
	frames *FrameAllocator
	faults *FaultDispatcher
	pagers *PagerPool

	// Ventana para acceder al contenido de los marcos: una entrada por página y por pager.
	stageMu sync.Mutex
	staged  []int
}

func NewVirtualMemory(hw Hardware, disk Disk) *VirtualMemory {
	return &VirtualMemory{
		hw:    hw,
		swap:  NewSwapSpaceManager(disk),
		stats: NewStatistics(),
	}
}

// Init arma las estructuras y arranca los pagers. Cada proceso tiene pages páginas virtuales.
func (vm *VirtualMemory) Init(pages, frames, pagers int) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.initialized {
		return models.ErrAlreadyInitialized
	}
	switch {
	case pages <= 0:
		return fmt.Errorf("%d páginas: %w", pages, models.ErrInvalidPage)
	case frames <= 0:
		return fmt.Errorf("%d marcos: %w", frames, models.ErrInvalidFrame)
	case pagers < 1 || pagers > models.MaxPagers:
		return fmt.Errorf("%d pagers: %w", pagers, models.ErrInvalidNumPagers)
	}

	if err := vm.swap.Init(pages, vm.hw.PageSize()); err != nil {
		return err
	}

	vm.pages = pages
	vm.tables = NewPageTableStore(pages)
	vm.frames = NewFrameAllocator(vm.hw, vm.swap, vm.tables, vm, vm.stats)
	if err := vm.frames.Init(frames); err != nil {
		_ = vm.swap.Shutdown()
		return err
	}

	vm.staged = make([]int, pages*pagers)
	for i := range vm.staged {
		vm.staged[i] = models.NoFrame
	}
	vm.stats.Reset()

	vm.faults = NewFaultDispatcher()
	vm.pagers = NewPagerPool(vm)
	if err := vm.pagers.Start(pagers); err != nil {
		_ = vm.frames.Shutdown()
		_ = vm.swap.Shutdown()
		return err
	}

	vm.initialized = true
	slog.Info(fmt.Sprintf("Memoria virtual inicializada - Páginas: %d - Marcos: %d - Slots SWAP: %d - Pagers: %d",
		pages, frames, vm.swap.Count(), pagers))
	return nil
}

// Shutdown detiene los pagers y libera las estructuras. Los faults pendientes se rechazan.
func (vm *VirtualMemory) Shutdown() error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if !vm.initialized {
		return models.ErrNotInitialized
	}

	vm.pagers.Stop()
	stats := vm.snapshotLocked()
	slog.Info(fmt.Sprintf("Métricas - Faults: %d - Page ins: %d - Page outs: %d - Páginas nuevas: %d",
		stats.Faults, stats.PageIns, stats.PageOuts, stats.NewPages))

	if err := vm.frames.Shutdown(); err != nil {
		return err
	}
	if err := vm.swap.Shutdown(); err != nil {
		return err
	}
	vm.initialized = false
	return nil
}

// CreateProcess le arma al proceso una tabla vacía y la instala en la MMU.
func (vm *VirtualMemory) CreateProcess(pid int) error {
	tables, err := vm.pageTables()
	if err != nil {
		return err
	}

	table, err := tables.Create(pid)
	if err != nil {
		return err
	}
	vm.hw.SetPageTable(pid, table)
	slog.Info(fmt.Sprintf("## PID: %d - Proceso Creado - Páginas: %d", pid, len(table)))
	return nil
}

// FreeAllResourcesForProcess libera los marcos y slots del proceso y descarta su tabla.
func (vm *VirtualMemory) FreeAllResourcesForProcess(pid int) error {
	tables, err := vm.pageTables()
	if err != nil {
		return err
	}

	var frames, slots int
	err = tables.Teardown(pid, func(table []models.PTE) error {
		frames = vm.frames.releaseTable(pid, table)
		vm.hw.SetPageTable(pid, nil)

		var err error
		slots, err = vm.swap.FreeAll(pid)
		return err
	})
	if err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("## PID: %d - Proceso Destruido - Marcos liberados: %d - Slots SWAP liberados: %d", pid, frames, slots))
	return nil
}

// HandleFault es el handler que la MMU llama cuando no puede traducir una dirección.
// Bloquea hasta que un pager resuelva el fault.
func (vm *VirtualMemory) HandleFault(pid, offset int, cause models.FaultCause) error {
	vm.mu.RLock()
	if !vm.initialized {
		vm.mu.RUnlock()
		return models.ErrNotInitialized
	}
	faults := vm.faults
	vm.mu.RUnlock()

	if err := validatePID(pid); err != nil {
		return err
	}
	return faults.Raise(pid, offset, cause)
}

// MapFrame deja el contenido del marco accesible hasta el UnmapFrame correspondiente.
func (vm *VirtualMemory) MapFrame(frame int) ([]byte, error) {
	if err := vm.validateFrame(frame); err != nil {
		return nil, err
	}

	vm.stageMu.Lock()
	defer vm.stageMu.Unlock()

	for i, staged := range vm.staged {
		if staged == models.NoFrame {
			vm.staged[i] = frame
			return vm.hw.FrameMemory(frame), nil
		}
	}
	return nil, models.ErrOutOfPages
}

func (vm *VirtualMemory) UnmapFrame(frame int) error {
	if err := vm.validateFrame(frame); err != nil {
		return err
	}

	vm.stageMu.Lock()
	defer vm.stageMu.Unlock()

	for i, staged := range vm.staged {
		if staged == frame {
			vm.staged[i] = models.NoFrame
			return nil
		}
	}
	return fmt.Errorf("marco %d: %w", frame, models.ErrFrameNotMapped)
}

func (vm *VirtualMemory) validateFrame(frame int) error {
	if vm.frames == nil {
		return models.ErrNotInitialized
	}
	count := vm.frames.Count()
	if count == 0 {
		return models.ErrNotInitialized
	}
	if frame < 0 || frame >= count {
		return fmt.Errorf("marco %d: %w", frame, models.ErrInvalidFrame)
	}
	return nil
}

// Stats devuelve una foto de los contadores y de la ocupación de marcos y SWAP.
func (vm *VirtualMemory) Stats() (models.VMStats, error) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()

	if !vm.initialized {
		return models.VMStats{}, models.ErrNotInitialized
	}
	return vm.snapshotLocked(), nil
}

func (vm *VirtualMemory) snapshotLocked() models.VMStats {
	return models.VMStats{
		Pages:      vm.pages,
		Frames:     vm.frames.Count(),
		Blocks:     vm.swap.Count(),
		Faults:     vm.stats.Faults.Value(),
		PageIns:    vm.stats.PageIns.Value(),
		PageOuts:   vm.stats.PageOuts.Value(),
		WriteBacks: vm.stats.WriteBacks.Value(),
		NewPages:   vm.stats.NewPages.Value(),
		FreeFrames: vm.frames.FreeCount(),
		FreeBlocks: vm.swap.FreeCount(),
	}
}

// PageTable devuelve una copia de la tabla del proceso.
func (vm *VirtualMemory) PageTable(pid int) ([]models.PTE, error) {
	tables, err := vm.pageTables()
	if err != nil {
		return nil, err
	}
	return tables.Get(pid)
}

// CheckInvariants verifica la consistencia entre tablas, marcos y SWAP. Está pensado para
// llamarse sin faults en curso.
func (vm *VirtualMemory) CheckInvariants() error {
	vm.mu.RLock()
	defer vm.mu.RUnlock()

	if !vm.initialized {
		return models.ErrNotInitialized
	}

	frames, free := vm.frames.Snapshot()
	resident, busy := 0, 0
	for _, f := range frames {
		if f.Busy {
			busy++
		} else if f.PID != models.NoPID {
			resident++
		}
	}
	if busy == 0 && free+resident != len(frames) {
		return fmt.Errorf("marcos libres (%d) + residentes (%d) != total (%d)", free, resident, len(frames))
	}

	claimed := make(map[int]int)
	var errs []error
	for _, pid := range vm.tables.PIDs() {
		err := vm.tables.WithTable(pid, func(table []models.PTE) error {
			for page, pte := range table {
				if !pte.Incore {
					continue
				}
				if pte.Frame < 0 || pte.Frame >= len(frames) {
					errs = append(errs, fmt.Errorf("pid %d página %d apunta al marco inválido %d", pid, page, pte.Frame))
					continue
				}
				if owner, dup := claimed[pte.Frame]; dup {
					errs = append(errs, fmt.Errorf("marco %d mapeado por los pids %d y %d", pte.Frame, owner, pid))
				}
				claimed[pte.Frame] = pid
				if f := frames[pte.Frame]; !f.Busy && (f.PID != pid || f.Page != page) {
					errs = append(errs, fmt.Errorf("marco %d registrado para (%d, %d) pero lo usa (%d, %d)", pte.Frame, f.PID, f.Page, pid, page))
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, models.ErrNoPageTable) {
			errs = append(errs, err)
		}
	}

	seen := make(map[[2]int]bool)
	occupied := 0
	for _, slot := range vm.swap.Slots() {
		if !slot.Occupied {
			continue
		}
		occupied++
		key := [2]int{slot.PID, slot.Page}
		if seen[key] {
			errs = append(errs, fmt.Errorf("pid %d página %d tiene más de un slot", slot.PID, slot.Page))
		}
		seen[key] = true
	}
	if occupied+vm.swap.FreeCount() != vm.swap.Count() {
		errs = append(errs, fmt.Errorf("slots ocupados (%d) + libres (%d) != total (%d)", occupied, vm.swap.FreeCount(), vm.swap.Count()))
	}

	return errors.Join(errs...)
}

func (vm *VirtualMemory) pageTables() (*PageTableStore, error) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()

	if !vm.initialized {
		return nil, models.ErrNotInitialized
	}
	return vm.tables, nil
}
