package services

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/models"
)

// FrameMapper da acceso temporal al contenido de un marco.
type FrameMapper interface {
	MapFrame(frame int) ([]byte, error)
	UnmapFrame(frame int) error
}

// FrameAllocator administra los marcos físicos. Cuando no hay libres elige una víctima con
// el algoritmo del reloj usando el bit de referencia que mantiene la MMU.
//
// Un marco ocupado (Busy) está en tránsito: lo está desalojando o cargando un pager. El reloj
// lo saltea y la liberación de un proceso lo deja para que lo termine de manejar su pager.
type FrameAllocator struct {
	mu     sync.Mutex
	cond   *sync.Cond
	frames []models.Frame
	free   int
	hand   int

	hw     Hardware
	swap   *SwapSpaceManager
	tables *PageTableStore
	mapper FrameMapper
	stats  *Statistics
}

func NewFrameAllocator(hw Hardware, swap *SwapSpaceManager, tables *PageTableStore, mapper FrameMapper, stats *Statistics) *FrameAllocator {
	a := &FrameAllocator{
		hw:     hw,
		swap:   swap,
		tables: tables,
		mapper: mapper,
		stats:  stats,
	}
	a.cond = sync.NewCond(&a.mu)
	return a
}

func (a *FrameAllocator) Init(count int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.frames != nil {
		return fmt.Errorf("marcos: %w", models.ErrAlreadyInitialized)
	}
	if count <= 0 {
		return fmt.Errorf("cantidad de marcos %d: %w", count, models.ErrInvalidFrame)
	}

	a.frames = make([]models.Frame, count)
	for i := range a.frames {
		a.frames[i] = models.Frame{PID: models.NoPID, Page: -1}
	}
	a.free = count
	a.hand = count - 1
	return nil
}

func (a *FrameAllocator) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.frames == nil {
		return fmt.Errorf("marcos: %w", models.ErrNotInitialized)
	}
	a.frames = nil
	a.free = 0
	a.cond.Broadcast()
	return nil
}

// Acquire devuelve un marco sin dueño marcado como ocupado. Si no hay libres desaloja una
// víctima, escribiéndola en SWAP si está sucia. El llamador debe terminar con Install o Release.
//
// Si la víctima no entra en SWAP queda residente y se devuelve models.ErrOutOfSwap.
func (a *FrameAllocator) Acquire() (int, error) {
	a.mu.Lock()
	var victim models.Frame
	frame := models.NoFrame
	for {
		if a.frames == nil {
			a.mu.Unlock()
			return models.NoFrame, fmt.Errorf("marcos: %w", models.ErrNotInitialized)
		}
		if frame = a.takeFreeLocked(); frame != models.NoFrame {
			a.mu.Unlock()
			return frame, nil
		}
		if frame = a.clockLocked(); frame != models.NoFrame {
			break
		}
		// Todos los marcos están en tránsito
		a.cond.Wait()
	}
	victim = a.frames[frame]
	a.frames[frame].Busy = true
	a.mu.Unlock()

	if err := a.evict(frame, victim.PID, victim.Page); err != nil {
		a.mu.Lock()
		if a.frames != nil {
			a.frames[frame].Busy = false
		}
		a.cond.Broadcast()
		a.mu.Unlock()
		return models.NoFrame, err
	}

	a.mu.Lock()
	if a.frames != nil {
		a.frames[frame] = models.Frame{PID: models.NoPID, Page: -1, Busy: true}
	}
	a.mu.Unlock()

	a.stats.PageOuts.Inc()
	slog.Debug("Marco desalojado", "marco", frame, "pid", victim.PID, "pagina", victim.Page)
	return frame, nil
}

func (a *FrameAllocator) takeFreeLocked() int {
	if a.free == 0 {
		return models.NoFrame
	}
	for i := range a.frames {
		if a.frames[i].IsFree() {
			a.frames[i].Busy = true
			a.free--
			return i
		}
	}
	return models.NoFrame
}

// clockLocked avanza la aguja hasta un marco residente sin bit de referencia, limpiando el bit
// de los que saltea. Devuelve NoFrame si en una vuelta completa no encontró candidatos.
func (a *FrameAllocator) clockLocked() int {
	n := len(a.frames)
	for {
		candidates := 0
		for i := 0; i < n; i++ {
			a.hand = (a.hand + 1) % n
			f := a.frames[a.hand]
			if f.Busy || f.PID == models.NoPID {
				continue
			}
			candidates++

			access := a.hw.GetAccess(a.hand)
			if access&models.AccessRef == 0 {
				return a.hand
			}
			a.hw.SetAccess(a.hand, access&^models.AccessRef)
		}
		if candidates == 0 {
			return models.NoFrame
		}
	}
}

// evict saca la víctima de la tabla de su dueño y la guarda en SWAP si está sucia.
// Si el dueño ya terminó o la página ya no apunta al marco no hay nada que guardar.
func (a *FrameAllocator) evict(frame, pid, page int) error {
	err := a.tables.WithTable(pid, func(table []models.PTE) error {
		pte := &table[page]
		if !pte.Incore || pte.Frame != frame {
			return nil
		}

		pte.Incore = false
		pte.Frame = models.NoFrame
		a.hw.SetPageTable(pid, table)

		access := a.hw.GetAccess(frame)
		if access&models.AccessDirty != 0 {
			if err := a.writeBack(frame, pid, page); err != nil {
				pte.Incore = true
				pte.Frame = frame
				a.hw.SetPageTable(pid, table)
				return err
			}
			a.stats.WriteBacks.Inc()
		}
		a.hw.SetAccess(frame, 0)
		return nil
	})
	if errors.Is(err, models.ErrNoPageTable) {
		return nil
	}
	return err
}

func (a *FrameAllocator) writeBack(frame, pid, page int) error {
	buffer, err := a.mapper.MapFrame(frame)
	if err != nil {
		return err
	}
	writeErr := a.swap.WriteBack(pid, page, buffer)
	if err := a.mapper.UnmapFrame(frame); err != nil {
		return err
	}
	return writeErr
}

// Install le asigna el marco a (pid, page) y lo deja disponible para el reloj.
func (a *FrameAllocator) Install(frame, pid, page int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.validateLocked(frame); err != nil {
		return err
	}
	if a.frames[frame].IsFree() {
		a.free--
	}
	a.frames[frame] = models.Frame{PID: pid, Page: page}
	a.cond.Broadcast()
	return nil
}

// Release devuelve el marco a la lista de libres. Liberar un marco ya libre no hace nada.
func (a *FrameAllocator) Release(frame int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.validateLocked(frame); err != nil {
		return err
	}
	a.releaseLocked(frame)
	return nil
}

func (a *FrameAllocator) releaseLocked(frame int) {
	if a.frames[frame].IsFree() {
		return
	}
	a.frames[frame] = models.Frame{PID: models.NoPID, Page: -1}
	a.free++
	a.cond.Broadcast()
}

// ReleaseAll libera los marcos residentes del proceso.
func (a *FrameAllocator) ReleaseAll(pid int) (int, error) {
	released := 0
	err := a.tables.WithTable(pid, func(table []models.PTE) error {
		released = a.releaseTable(pid, table)
		return nil
	})
	return released, err
}

// releaseTable saca de memoria las páginas residentes de table. Requiere el lock de la tabla.
// Los marcos que un pager está desalojando no se tocan: ese pager ve que la página ya no
// apunta al marco y se lo queda.
func (a *FrameAllocator) releaseTable(pid int, table []models.PTE) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	released := 0
	for page := range table {
		pte := &table[page]
		if !pte.Incore {
			continue
		}
		frame := pte.Frame
		pte.Incore = false
		pte.Frame = models.NoFrame

		if a.frames == nil || frame < 0 || frame >= len(a.frames) {
			continue
		}
		f := a.frames[frame]
		if f.PID != pid || f.Page != page || f.Busy {
			continue
		}
		a.hw.SetAccess(frame, 0)
		a.releaseLocked(frame)
		released++
	}
	return released
}

func (a *FrameAllocator) validateLocked(frame int) error {
	if a.frames == nil {
		return fmt.Errorf("marcos: %w", models.ErrNotInitialized)
	}
	if frame < 0 || frame >= len(a.frames) {
		return fmt.Errorf("marco %d: %w", frame, models.ErrInvalidFrame)
	}
	return nil
}

func (a *FrameAllocator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.frames)
}

func (a *FrameAllocator) FreeCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.free
}

// Snapshot devuelve una copia del estado de los marcos junto con la cantidad de libres.
func (a *FrameAllocator) Snapshot() ([]models.Frame, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	frames := make([]models.Frame, len(a.frames))
	copy(frames, a.frames)
	return frames, a.free
}
