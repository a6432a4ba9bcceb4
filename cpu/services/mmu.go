package services

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/models"
)

// FaultHandler es la trampa que la MMU invoca cuando no puede traducir una dirección. Si
// devuelve nil el acceso se reintenta.
type FaultHandler func(pid, offset int, cause models.FaultCause) error

var ErrNoFaultHandler = errors.New("la MMU no tiene handler de faults")

// MMU simula la memoria física y la traducción de direcciones. Cada proceso tiene una región
// virtual de pages páginas que arranca en la dirección 0.
type MMU struct {
	mu       sync.Mutex
	pageSize int
	pages    int
	memory   []byte
	access   []models.Access
	tables   [models.MaxProcesses][]models.PTE
	handler  FaultHandler
}

func NewMMU(pageSize, pages, frames int) *MMU {
	return &MMU{
		pageSize: pageSize,
		pages:    pages,
		memory:   make([]byte, pageSize*frames),
		access:   make([]models.Access, frames),
	}
}

func (m *MMU) SetFaultHandler(handler FaultHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

func (m *MMU) PageSize() int {
	return m.pageSize
}

func (m *MMU) Frames() int {
	return len(m.access)
}

// FrameMemory devuelve la porción de memoria física del marco.
func (m *MMU) FrameMemory(frame int) []byte {
	start := frame * m.pageSize
	return m.memory[start : start+m.pageSize : start+m.pageSize]
}

func (m *MMU) GetAccess(frame int) models.Access {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access[frame]
}

func (m *MMU) SetAccess(frame int, access models.Access) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access[frame] = access
}

// SetPageTable instala una copia de la tabla del proceso. Con nil la quita.
func (m *MMU) SetPageTable(pid int, table []models.PTE) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if table == nil {
		m.tables[pid] = nil
		return
	}
	installed := make([]models.PTE, len(table))
	copy(installed, table)
	m.tables[pid] = installed
}

func (m *MMU) RemovePageTable(pid int) {
	m.SetPageTable(pid, nil)
}

// Read copia len(buffer) bytes desde la dirección virtual addr del proceso.
func (m *MMU) Read(pid, addr int, buffer []byte) error {
	return m.transfer(pid, addr, buffer, false)
}

// Write copia data a partir de la dirección virtual addr del proceso.
func (m *MMU) Write(pid, addr int, data []byte) error {
	return m.transfer(pid, addr, data, true)
}

func (m *MMU) transfer(pid, addr int, buffer []byte, write bool) error {
	if pid < 0 || pid >= models.MaxProcesses {
		return fmt.Errorf("pid %d: %w", pid, models.ErrInvalidPID)
	}

	for done := 0; done < len(buffer); {
		vaddr := addr + done
		offset := 0
		if vaddr >= 0 {
			offset = vaddr % m.pageSize
		}
		n := min(len(buffer)-done, m.pageSize-offset)

		if err := m.transferPage(pid, vaddr, buffer[done:done+n], write); err != nil {
			return err
		}
		done += n
	}
	return nil
}

// transferPage hace el acceso dentro de una sola página, llamando al handler hasta que la
// traducción funcione o el handler devuelva error.
func (m *MMU) transferPage(pid, vaddr int, chunk []byte, write bool) error {
	for {
		cause, ok := m.tryTransfer(pid, vaddr, chunk, write)
		if ok {
			return nil
		}

		m.mu.Lock()
		handler := m.handler
		m.mu.Unlock()
		if handler == nil {
			return ErrNoFaultHandler
		}

		slog.Debug("Page fault", "pid", pid, "direccion", vaddr, "causa", cause.String())
		if err := handler(pid, vaddr, cause); err != nil {
			return err
		}
	}
}

func (m *MMU) tryTransfer(pid, vaddr int, chunk []byte, write bool) (models.FaultCause, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vaddr < 0 {
		return models.FaultAccess, false
	}
	page, offset := vaddr/m.pageSize, vaddr%m.pageSize
	table := m.tables[pid]
	if table == nil || page >= m.pages || page >= len(table) {
		return models.FaultAccess, false
	}

	pte := table[page]
	if !pte.Incore {
		return models.FaultMissing, false
	}
	if (write && !pte.Write) || (!write && !pte.Read) {
		return models.FaultAccess, false
	}

	start := pte.Frame*m.pageSize + offset
	if write {
		copy(m.memory[start:start+len(chunk)], chunk)
		m.access[pte.Frame] |= models.AccessRef | models.AccessDirty
	} else {
		copy(chunk, m.memory[start:start+len(chunk)])
		m.access[pte.Frame] |= models.AccessRef
	}
	return 0, true
}
