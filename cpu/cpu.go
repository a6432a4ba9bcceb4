package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/sisoputnfrba/tp-paginacion-magiOS/cpu/models"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/cpu/services"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/utils/config"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/utils/log"
)

const ConfigPath = "cpu/configs/cpu.json"

// Uso: ./bin/cpu [pid...]
// Corre una carga por cada pid en paralelo contra el módulo de memoria.
func main() {
	config.InitConfig(ConfigPath, &models.CpuConfig)
	if err := log.InitLogger(models.CpuConfig.LogPath, models.CpuConfig.LogLevel); err != nil {
		panic(err)
	}

	pids := []int{1}
	if len(os.Args) > 1 {
		pids = pids[:0]
		for _, arg := range os.Args[1:] {
			pid, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Println("PID inválido:", arg)
				os.Exit(1)
			}
			pids = append(pids, pid)
		}
	}

	var wg sync.WaitGroup
	for _, pid := range pids {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			result, err := services.RunWorkload(models.CpuConfig, pid)
			if err != nil {
				slog.Error(fmt.Sprintf("## PID: %d - Carga interrumpida: %v", pid, err))
				return
			}
			slog.Info(fmt.Sprintf("## PID: %d - Escrituras: %d - Lecturas: %d - Errores: %d",
				pid, result.Writes, result.Reads, result.Mismatches))
		}(pid)
	}
	wg.Wait()

	stats, err := services.GetMemoryStats(models.CpuConfig)
	if err != nil {
		slog.Error(fmt.Sprintf("no se pudieron obtener las métricas: %v", err))
		os.Exit(1)
	}
	slog.Info(fmt.Sprintf("Métricas de memoria - Faults: %d - Page ins: %d - Page outs: %d - Páginas nuevas: %d",
		stats.Faults, stats.PageIns, stats.PageOuts, stats.NewPages))
}
