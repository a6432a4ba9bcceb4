package services

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/models"
)

func TestDumpProcess(t *testing.T) {
	vm, mmu := newTestVM(t, 3, 1, 1, 2)
	createProcess(t, vm, 1)

	// Página 0 queda en SWAP, página 1 en memoria, página 2 sin tocar
	if err := mmu.Write(1, pageAddr(0), []byte("swap")); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := mmu.Write(1, pageAddr(1), []byte("memoria")); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var dump bytes.Buffer
	if err := vm.DumpProcess(1, &dump); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	content := dump.Bytes()
	if len(content) != 3*testPageSize {
		t.Fatalf("Expected %d bytes, got %d", 3*testPageSize, len(content))
	}
	if !bytes.HasPrefix(content[pageAddr(0):], []byte("swap")) {
		t.Error("Expected page 0 to come from swap")
	}
	if !bytes.HasPrefix(content[pageAddr(1):], []byte("memoria")) {
		t.Error("Expected page 1 to come from its frame")
	}
	if !bytes.Equal(content[pageAddr(2):], make([]byte, testPageSize)) {
		t.Error("Expected page 2 to be zeros")
	}

	// El dump no genera faults
	if stats := mustStats(t, vm); stats.Faults != 2 {
		t.Errorf("Expected 2 faults, got %d", stats.Faults)
	}
}

func TestExecuteDumpMemory(t *testing.T) {
	vm, mmu := newTestVM(t, 2, 2, 1, 1)
	createProcess(t, vm, 4)
	if err := mmu.Write(4, 0, []byte("dump")); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	dir := t.TempDir()
	path, err := vm.ExecuteDumpMemory(4, dir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if filepath.Dir(path) != dir || !strings.HasPrefix(filepath.Base(path), "4-") || !strings.HasSuffix(path, ".dmp") {
		t.Errorf("Unexpected dump path %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected dump file to exist: %v", err)
	}
	if len(content) != 2*testPageSize || !bytes.HasPrefix(content, []byte("dump")) {
		t.Errorf("Unexpected dump content of %d bytes", len(content))
	}
}

func TestExecuteDumpMemory_UnknownProcess(t *testing.T) {
	vm, _ := newTestVM(t, 2, 2, 1, 1)

	dir := t.TempDir()
	if _, err := vm.ExecuteDumpMemory(7, dir); !errors.Is(err, models.ErrNoPageTable) {
		t.Errorf("Expected ErrNoPageTable, got: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected the failed dump file to be removed, found %d files", len(entries))
	}
}
