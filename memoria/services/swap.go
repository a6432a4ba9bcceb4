package services

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/models"
)

// Disk es el dispositivo donde vive el área de SWAP. Las transferencias son de sectores
// enteros dentro de un mismo track.
type Disk interface {
	Geometry() (sectorSize, sectorsPerTrack, tracks int)
	Read(track, first, sectors int, buffer []byte) error
	Write(track, first, sectors int, buffer []byte) error
}

// SwapSpaceManager reparte el disco en slots de una página y recuerda qué (pid, página)
// ocupa cada uno. Como mucho hay un slot por (pid, página).
type SwapSpaceManager struct {
	mu       sync.Mutex
	disk     Disk
	pages    int
	pageSize int
	slots    []models.SwapSlot
	free     int
}

func NewSwapSpaceManager(disk Disk) *SwapSpaceManager {
	return &SwapSpaceManager{disk: disk}
}

// Init calcula la cantidad de slots a partir de la geometría del disco. Una página ocupa
// pageSize/sectorSize sectores consecutivos y nunca cruza de track.
func (m *SwapSpaceManager) Init(pages, pageSize int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slots != nil {
		return fmt.Errorf("swap: %w", models.ErrAlreadyInitialized)
	}

	sectorSize, sectorsPerTrack, tracks := m.disk.Geometry()
	if sectorSize <= 0 || pageSize <= 0 || pageSize%sectorSize != 0 {
		return fmt.Errorf("el tamaño de página %d no es múltiplo del sector %d", pageSize, sectorSize)
	}

	sectorsPerPage := pageSize / sectorSize
	slotsPerTrack := sectorsPerTrack / sectorsPerPage
	count := slotsPerTrack * tracks
	if count <= 0 {
		return fmt.Errorf("el disco (%d tracks de %d sectores) no tiene lugar para una página", tracks, sectorsPerTrack)
	}

	m.pages = pages
	m.pageSize = pageSize
	m.slots = make([]models.SwapSlot, count)
	for i := range m.slots {
		m.slots[i] = models.SwapSlot{
			Track:   i / slotsPerTrack,
			Start:   (i % slotsPerTrack) * sectorsPerPage,
			Sectors: sectorsPerPage,
			PID:     models.NoPID,
			Page:    -1,
		}
	}
	m.free = count

	slog.Debug("SWAP inicializada", "slots", count, "sectores_por_pagina", sectorsPerPage, "tracks", tracks)
	return nil
}

func (m *SwapSpaceManager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slots == nil {
		return fmt.Errorf("swap: %w", models.ErrNotInitialized)
	}
	m.slots = nil
	m.free = 0
	return nil
}

// AllocateSlot reserva el primer slot libre para (pid, page). Si el par ya tenía slot devuelve ese.
func (m *SwapSpaceManager) AllocateSlot(pid, page int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocateLocked(pid, page)
}

func (m *SwapSpaceManager) allocateLocked(pid, page int) (int, error) {
	if err := m.validateLocked(pid, page); err != nil {
		return -1, err
	}
	if slot, found := m.lookupLocked(pid, page); found {
		return slot, nil
	}
	for i := range m.slots {
		if m.slots[i].Occupied {
			continue
		}
		m.slots[i].Occupied = true
		m.slots[i].PID = pid
		m.slots[i].Page = page
		m.free--
		return i, nil
	}
	return -1, models.ErrOutOfSwap
}

// Lookup devuelve el slot que guarda (pid, page), si existe.
func (m *SwapSpaceManager) Lookup(pid, page int) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookupLocked(pid, page)
}

func (m *SwapSpaceManager) lookupLocked(pid, page int) (int, bool) {
	for i, slot := range m.slots {
		if slot.Occupied && slot.PID == pid && slot.Page == page {
			return i, true
		}
	}
	return -1, false
}

// Free libera el slot de (pid, page). No hace nada si no tenía.
func (m *SwapSpaceManager) Free(pid, page int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validateLocked(pid, page); err != nil {
		return err
	}
	if slot, found := m.lookupLocked(pid, page); found {
		m.releaseLocked(slot)
	}
	return nil
}

// FreeAll libera todos los slots del proceso y devuelve cuántos eran.
func (m *SwapSpaceManager) FreeAll(pid int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slots == nil {
		return 0, fmt.Errorf("swap: %w", models.ErrNotInitialized)
	}
	if err := validatePID(pid); err != nil {
		return 0, err
	}

	released := 0
	for i, slot := range m.slots {
		if slot.Occupied && slot.PID == pid {
			m.releaseLocked(i)
			released++
		}
	}
	return released, nil
}

func (m *SwapSpaceManager) releaseLocked(slot int) {
	m.slots[slot].Occupied = false
	m.slots[slot].PID = models.NoPID
	m.slots[slot].Page = -1
	m.free++
}

// Read trae la página guardada en slot a buffer. El lock se mantiene durante el acceso al disco.
func (m *SwapSpaceManager) Read(slot int, buffer []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transferLocked(slot, buffer, false)
}

// Write guarda buffer en slot.
func (m *SwapSpaceManager) Write(slot int, buffer []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transferLocked(slot, buffer, true)
}

// WriteBack guarda el contenido de (pid, page) en su slot, reservando uno si todavía no tenía.
// Devuelve models.ErrOutOfSwap si no queda lugar.
func (m *SwapSpaceManager) WriteBack(pid, page int, buffer []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, err := m.allocateLocked(pid, page)
	if err != nil {
		return err
	}
	slog.Debug("Escritura en SWAP", "pid", pid, "pagina", page, "slot", slot)
	return m.transferLocked(slot, buffer, true)
}

func (m *SwapSpaceManager) transferLocked(slot int, buffer []byte, write bool) error {
	if m.slots == nil {
		return fmt.Errorf("swap: %w", models.ErrNotInitialized)
	}
	if slot < 0 || slot >= len(m.slots) {
		return fmt.Errorf("slot de SWAP %d fuera de rango", slot)
	}
	if len(buffer) < m.pageSize {
		return fmt.Errorf("buffer de %d bytes, se necesita una página de %d", len(buffer), m.pageSize)
	}

	s := m.slots[slot]
	if write {
		if err := m.disk.Write(s.Track, s.Start, s.Sectors, buffer[:m.pageSize]); err != nil {
			return fmt.Errorf("error escribiendo slot %d (track %d): %w", slot, s.Track, err)
		}
		return nil
	}
	if err := m.disk.Read(s.Track, s.Start, s.Sectors, buffer[:m.pageSize]); err != nil {
		return fmt.Errorf("error leyendo slot %d (track %d): %w", slot, s.Track, err)
	}
	return nil
}

func (m *SwapSpaceManager) validateLocked(pid, page int) error {
	if m.slots == nil {
		return fmt.Errorf("swap: %w", models.ErrNotInitialized)
	}
	if err := validatePID(pid); err != nil {
		return err
	}
	if page < 0 || page >= m.pages {
		return fmt.Errorf("página %d: %w", page, models.ErrInvalidPage)
	}
	return nil
}

// Count es la cantidad total de slots.
func (m *SwapSpaceManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

func (m *SwapSpaceManager) FreeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.free
}

// Slots devuelve una copia del estado de cada slot.
func (m *SwapSpaceManager) Slots() []models.SwapSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	slots := make([]models.SwapSlot, len(m.slots))
	copy(slots, m.slots)
	return slots
}
