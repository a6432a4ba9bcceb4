package services

import (
	"errors"
	"testing"

	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/models"
)

func TestAllocateEmpty(t *testing.T) {
	table := AllocateEmpty(3)
	if len(table) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(table))
	}
	for page, pte := range table {
		if pte.Incore || pte.Frame != models.NoFrame {
			t.Errorf("Expected page %d to be non resident, got %+v", page, pte)
		}
	}
}

func TestPageTableStore_CreateAndDestroy(t *testing.T) {
	store := NewPageTableStore(4)

	if _, err := store.Create(2); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := store.Create(2); !errors.Is(err, models.ErrPageTableExists) {
		t.Errorf("Expected ErrPageTableExists, got: %v", err)
	}
	if !store.Exists(2) {
		t.Error("Expected pid 2 to have a table")
	}

	if err := store.Destroy(2); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := store.Get(2); !errors.Is(err, models.ErrNoPageTable) {
		t.Errorf("Expected ErrNoPageTable after destroy, got: %v", err)
	}
	if err := store.Destroy(2); !errors.Is(err, models.ErrNoPageTable) {
		t.Errorf("Expected ErrNoPageTable on second destroy, got: %v", err)
	}
}

func TestPageTableStore_InvalidPID(t *testing.T) {
	store := NewPageTableStore(4)

	for _, pid := range []int{-1, models.MaxProcesses} {
		if _, err := store.Create(pid); !errors.Is(err, models.ErrInvalidPID) {
			t.Errorf("Expected ErrInvalidPID for pid %d, got: %v", pid, err)
		}
	}
}

func TestPageTableStore_WithTableMutates(t *testing.T) {
	store := NewPageTableStore(2)
	if _, err := store.Create(1); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	err := store.WithTable(1, func(table []models.PTE) error {
		table[1] = models.PTE{Incore: true, Frame: 7, Read: true, Write: true}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	table, _ := store.Get(1)
	if !table[1].Incore || table[1].Frame != 7 {
		t.Errorf("Expected page 1 in frame 7, got %+v", table[1])
	}

	// Get devuelve una copia
	table[0].Incore = true
	again, _ := store.Get(1)
	if again[0].Incore {
		t.Error("Expected Get to return a copy")
	}
}

func TestPageTableStore_TeardownDiscardsOnError(t *testing.T) {
	store := NewPageTableStore(2)
	if _, err := store.Create(3); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	boom := errors.New("boom")
	if err := store.Teardown(3, func([]models.PTE) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Expected the teardown error, got: %v", err)
	}
	if store.Exists(3) {
		t.Error("Expected the table to be discarded")
	}
	if pids := store.PIDs(); len(pids) != 0 {
		t.Errorf("Expected no pids, got %v", pids)
	}
}
