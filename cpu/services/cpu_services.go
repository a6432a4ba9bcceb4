package services

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-paginacion-magiOS/cpu/models"
	memoriaModel "github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/models"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/utils/web/client"
)

// RunWorkload crea el proceso pid en memoria, escribe una marca en cada página, la vuelve a
// leer en cada vuelta y al final lo finaliza. Las páginas que no coinciden se cuentan en el resultado.
func RunWorkload(cpuConfig *models.Config, pid int) (models.WorkloadResult, error) {
	result := models.WorkloadResult{PID: pid}

	if err := client.DoJSON(cpuConfig.PortMemory, cpuConfig.IpMemory, "POST", "memoria/proceso", memoriaModel.PIDRequest{PID: pid}, nil); err != nil {
		return result, fmt.Errorf("no se pudo crear el proceso %d en memoria: %w", pid, err)
	}

	for round := 0; round < cpuConfig.Rounds; round++ {
		for page := 0; page < cpuConfig.Pages; page++ {
			write := memoriaModel.WriteRequest{PID: pid, Address: page * cpuConfig.PageSize, Data: pageMark(pid, page, round)}
			if err := client.DoJSON(cpuConfig.PortMemory, cpuConfig.IpMemory, "POST", "memoria/escribir", write, nil); err != nil {
				return result, fmt.Errorf("PID %d escritura de página %d: %w", pid, page, err)
			}
			result.Writes++
		}

		for page := 0; page < cpuConfig.Pages; page++ {
			expected := pageMark(pid, page, round)
			read := memoriaModel.ReadRequest{PID: pid, Address: page * cpuConfig.PageSize, Size: len(expected)}

			var response memoriaModel.ReadResponse
			if err := client.DoJSON(cpuConfig.PortMemory, cpuConfig.IpMemory, "POST", "memoria/leer", read, &response); err != nil {
				return result, fmt.Errorf("PID %d lectura de página %d: %w", pid, page, err)
			}
			result.Reads++

			if !bytes.Equal(response.Data, expected) {
				slog.Warn(fmt.Sprintf("## PID: %d - Página %d con contenido inesperado", pid, page))
				result.Mismatches++
			}
		}
		slog.Debug("Vuelta terminada", "pid", pid, "vuelta", round)
	}

	if err := client.DoJSON(cpuConfig.PortMemory, cpuConfig.IpMemory, "POST", "memoria/finalizar", memoriaModel.PIDRequest{PID: pid}, nil); err != nil {
		return result, fmt.Errorf("no se pudo finalizar el proceso %d: %w", pid, err)
	}
	return result, nil
}

// GetMemoryStats pide las métricas de la memoria virtual.
func GetMemoryStats(cpuConfig *models.Config) (memoriaModel.VMStats, error) {
	var stats memoriaModel.VMStats
	err := client.DoJSON(cpuConfig.PortMemory, cpuConfig.IpMemory, "GET", "memoria/stats", nil, &stats)
	return stats, err
}

func pageMark(pid, page, round int) []byte {
	return []byte(fmt.Sprintf("PID %d - Página %d - Vuelta %d", pid, page, round))
}
