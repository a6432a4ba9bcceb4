package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cpuServices "github.com/sisoputnfrba/tp-paginacion-magiOS/cpu/services"
	ioServices "github.com/sisoputnfrba/tp-paginacion-magiOS/io/services"
	memoryHandler "github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/handlers"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/helpers"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/services"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/utils/web/handlers"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/utils/web/server"
)

// ConfigPath se puede pisar pasando otra ruta como primer argumento.
const ConfigPath = "memoria/configs/memoria.json"

func main() {
	configPath := ConfigPath
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := helpers.InitMemory(configPath)
	if err != nil {
		panic(err)
	}

	disk, err := ioServices.NewFileDisk(cfg.SwapFilePath, cfg.SectorSize, cfg.SectorsPerTrack, cfg.Tracks,
		time.Duration(cfg.SwapDelay)*time.Millisecond)
	if err != nil {
		slog.Error(fmt.Sprintf("error creando el área de SWAP: %v", err))
		panic(err)
	}
	defer disk.Close()

	mmu := cpuServices.NewMMU(cfg.PageSize, cfg.Pages, cfg.Frames)
	vm := services.NewVirtualMemory(mmu, disk)
	mmu.SetFaultHandler(vm.HandleFault)
	if err := vm.Init(cfg.Pages, cfg.Frames, cfg.Pagers); err != nil {
		slog.Error(fmt.Sprintf("error inicializando la memoria virtual: %v", err))
		panic(err)
	}

	go shutdownOnSignal(vm)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", handlers.HandshakeHandler("Bienvenido al módulo de Memoria"))
	mux.HandleFunc("GET /memoria", handlers.HandshakeHandler("Memoria en funcionamiento 🚀"))
	mux.HandleFunc("GET /memoria/stats", memoryHandler.StatsHandler(vm))
	mux.HandleFunc("POST /memoria/proceso", memoryHandler.CreateProcessHandler(vm))
	mux.HandleFunc("POST /memoria/leer", memoryHandler.ReadHandler(vm, mmu))
	mux.HandleFunc("POST /memoria/escribir", memoryHandler.WriteHandler(vm, mmu))
	mux.HandleFunc("POST /memoria/finalizar", memoryHandler.EndProcessHandler(vm))
	mux.HandleFunc("POST /memoria/dump", memoryHandler.DumpHandler(vm, cfg.DumpPath))
	slog.Info("Memoria lista")

	if err := server.InitServer(cfg.PortMemory, mux); err != nil {
		slog.Error(fmt.Sprintf("error initializing server: %v", err))
		panic(err)
	}
}

func shutdownOnSignal(vm *services.VirtualMemory) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	<-signals

	slog.Info("Apagando memoria")
	if err := vm.Shutdown(); err != nil {
		slog.Error(fmt.Sprintf("error apagando la memoria virtual: %v", err))
	}
	os.Exit(0)
}
