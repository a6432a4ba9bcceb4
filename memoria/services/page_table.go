package services

import (
	"fmt"
	"sync"

	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/models"
)

// PageTableStore guarda la tabla de páginas de cada proceso, indexada por PID.
// Cada tabla tiene su propio lock; quien lo toma puede después tomar el lock de
// SWAP o el del allocator de marcos, nunca al revés.
type PageTableStore struct {
	pages  int
	locks  [models.MaxProcesses]sync.Mutex
	tables [models.MaxProcesses][]models.PTE
}

func NewPageTableStore(pages int) *PageTableStore {
	return &PageTableStore{pages: pages}
}

// AllocateEmpty arma una tabla con todas las páginas no residentes.
func AllocateEmpty(pages int) []models.PTE {
	table := make([]models.PTE, pages)
	for i := range table {
		table[i] = models.EmptyPTE()
	}
	return table
}

func (s *PageTableStore) Pages() int {
	return s.pages
}

// Create le asigna una tabla vacía al proceso y devuelve una copia para instalar en la MMU.
func (s *PageTableStore) Create(pid int) ([]models.PTE, error) {
	if err := validatePID(pid); err != nil {
		return nil, err
	}

	s.locks[pid].Lock()
	defer s.locks[pid].Unlock()

	if s.tables[pid] != nil {
		return nil, fmt.Errorf("pid %d: %w", pid, models.ErrPageTableExists)
	}
	s.tables[pid] = AllocateEmpty(s.pages)
	return clonePTEs(s.tables[pid]), nil
}

// Get devuelve una copia de la tabla del proceso.
func (s *PageTableStore) Get(pid int) ([]models.PTE, error) {
	var snapshot []models.PTE
	err := s.WithTable(pid, func(table []models.PTE) error {
		snapshot = clonePTEs(table)
		return nil
	})
	return snapshot, err
}

// Exists indica si el proceso tiene tabla.
func (s *PageTableStore) Exists(pid int) bool {
	if validatePID(pid) != nil {
		return false
	}
	s.locks[pid].Lock()
	defer s.locks[pid].Unlock()
	return s.tables[pid] != nil
}

// WithTable ejecuta fn con el lock del proceso tomado. fn puede modificar las entradas
// de la tabla pero no debe guardarse el slice.
func (s *PageTableStore) WithTable(pid int, fn func(table []models.PTE) error) error {
	if err := validatePID(pid); err != nil {
		return err
	}

	s.locks[pid].Lock()
	defer s.locks[pid].Unlock()

	if s.tables[pid] == nil {
		return fmt.Errorf("pid %d: %w", pid, models.ErrNoPageTable)
	}
	return fn(s.tables[pid])
}

// Teardown ejecuta fn con el lock del proceso y después descarta su tabla, aunque fn falle.
func (s *PageTableStore) Teardown(pid int, fn func(table []models.PTE) error) error {
	if err := validatePID(pid); err != nil {
		return err
	}

	s.locks[pid].Lock()
	defer s.locks[pid].Unlock()

	table := s.tables[pid]
	if table == nil {
		return fmt.Errorf("pid %d: %w", pid, models.ErrNoPageTable)
	}
	s.tables[pid] = nil
	return fn(table)
}

// Destroy descarta la tabla del proceso sin mirar su contenido.
func (s *PageTableStore) Destroy(pid int) error {
	return s.Teardown(pid, func([]models.PTE) error { return nil })
}

// PIDs devuelve los procesos que tienen tabla en este momento.
func (s *PageTableStore) PIDs() []int {
	var pids []int
	for pid := range s.tables {
		if s.Exists(pid) {
			pids = append(pids, pid)
		}
	}
	return pids
}

func validatePID(pid int) error {
	if pid < 0 || pid >= models.MaxProcesses {
		return fmt.Errorf("pid %d: %w", pid, models.ErrInvalidPID)
	}
	return nil
}

func clonePTEs(table []models.PTE) []models.PTE {
	if table == nil {
		return nil
	}
	clone := make([]models.PTE, len(table))
	copy(clone, table)
	return clone
}
