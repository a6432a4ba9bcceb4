package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	cpuServices "github.com/sisoputnfrba/tp-paginacion-magiOS/cpu/services"
	ioServices "github.com/sisoputnfrba/tp-paginacion-magiOS/io/services"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/kernel/models"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/kernel/services"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/helpers"
	memoryServices "github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/services"
)

const (
	ConfigPath = "memoria/configs/memoria.json"
	Children   = 4
)

// Uso: ./bin/kernel [cantidad_de_procesos] [archivo_config_memoria]
// Levanta la memoria virtual en el mismo proceso y corre hijos que recorren todas sus páginas.
func main() {
	children := Children
	if len(os.Args) > 1 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n <= 0 {
			fmt.Println("Cantidad de procesos inválida:", os.Args[1])
			os.Exit(1)
		}
		children = n
	}
	configPath := ConfigPath
	if len(os.Args) > 2 {
		configPath = os.Args[2]
	}

	cfg, err := helpers.InitMemory(configPath)
	if err != nil {
		panic(err)
	}

	disk, err := ioServices.NewFileDisk(cfg.SwapFilePath, cfg.SectorSize, cfg.SectorsPerTrack, cfg.Tracks,
		time.Duration(cfg.SwapDelay)*time.Millisecond)
	if err != nil {
		panic(err)
	}
	defer disk.Close()

	mmu := cpuServices.NewMMU(cfg.PageSize, cfg.Pages, cfg.Frames)
	vm := memoryServices.NewVirtualMemory(mmu, disk)
	mmu.SetFaultHandler(vm.HandleFault)
	if err := vm.Init(cfg.Pages, cfg.Frames, cfg.Pagers); err != nil {
		panic(err)
	}

	kernel := services.NewKernel(vm, mmu)

	var pids []int
	for i := 0; i < children; i++ {
		pid, err := kernel.Spawn(fmt.Sprintf("Hijo %d", i), services.TouchAllPages(cfg.Pages, cfg.PageSize))
		if err != nil {
			slog.Error(fmt.Sprintf("no se pudo crear el hijo %d: %v", i, err))
			break
		}
		pids = append(pids, pid)
	}

	for _, pid := range pids {
		status, err := kernel.Wait(pid)
		if err != nil {
			slog.Error(fmt.Sprintf("## PID: %d - Error esperando: %v", pid, err))
			continue
		}
		if status != models.ExitOK {
			slog.Warn(fmt.Sprintf("## PID: %d - Finalizó con estado %d", pid, status))
		}
	}

	if err := vm.Shutdown(); err != nil {
		slog.Error(fmt.Sprintf("error apagando la memoria virtual: %v", err))
		os.Exit(1)
	}
}
