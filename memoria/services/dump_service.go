package services

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/helpers"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/models"
)

// ExecuteDumpMemory vuelca el espacio virtual del proceso a un archivo nuevo en dir y devuelve su ruta.
func (vm *VirtualMemory) ExecuteDumpMemory(pid int, dir string) (string, error) {
	slog.Info(fmt.Sprintf("## PID: %d - Memory Dump solicitado", pid))

	dumpFilePath := helpers.GetDumpPath(dir, pid)
	file, err := os.Create(dumpFilePath)
	if err != nil {
		slog.Error(fmt.Sprintf("error al crear archivo de dump: %v", err))
		return "", err
	}
	defer file.Close()

	if err := vm.DumpProcess(pid, file); err != nil {
		_ = os.Remove(dumpFilePath)
		return "", err
	}

	slog.Info(fmt.Sprintf("## PID: %d - Memory Dump completado en %s", pid, dumpFilePath))
	return dumpFilePath, nil
}

// DumpProcess escribe en w todas las páginas del proceso en orden. Las residentes salen del
// marco, las desalojadas de SWAP y las que nunca se tocaron son ceros.
func (vm *VirtualMemory) DumpProcess(pid int, w io.Writer) error {
	tables, err := vm.pageTables()
	if err != nil {
		return err
	}

	pageSize := vm.hw.PageSize()
	return tables.WithTable(pid, func(table []models.PTE) error {
		buffer := make([]byte, pageSize)
		for page, pte := range table {
			if err := vm.readPage(pid, page, pte, buffer); err != nil {
				return fmt.Errorf("dump pid %d página %d: %w", pid, page, err)
			}
			if _, err := w.Write(buffer); err != nil {
				slog.Error("Fallo al escribir contenido en el archivo de dump")
				return fmt.Errorf("fallo al escribir datos al archivo de dump: %w", err)
			}
		}
		return nil
	})
}

// readPage copia el contenido actual de la página en buffer. Requiere el lock de la tabla.
func (vm *VirtualMemory) readPage(pid, page int, pte models.PTE, buffer []byte) error {
	if pte.Incore {
		memory, err := vm.MapFrame(pte.Frame)
		if err != nil {
			return err
		}
		copy(buffer, memory)
		return vm.UnmapFrame(pte.Frame)
	}

	if slot, found := vm.swap.Lookup(pid, page); found {
		return vm.swap.Read(slot, buffer)
	}

	clear(buffer)
	return nil
}
