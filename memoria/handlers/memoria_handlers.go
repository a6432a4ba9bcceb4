package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/models"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/services"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/utils/web/server"
)

// Memory es el acceso a la memoria virtual de los procesos a través de la MMU.
type Memory interface {
	Read(pid, addr int, buffer []byte) error
	Write(pid, addr int, data []byte) error
}

// StatsHandler devuelve las métricas de la memoria virtual. Con log en DEBUG además verifica
// la consistencia de las estructuras.
func StatsHandler(vm *services.VirtualMemory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := vm.Stats()
		if err != nil {
			sendError(w, err)
			return
		}
		if slog.Default().Enabled(r.Context(), slog.LevelDebug) {
			if err := vm.CheckInvariants(); err != nil {
				slog.Warn("Inconsistencia en memoria virtual", "error", err)
			}
		}
		server.SendJsonResponse(w, stats)
	}
}

func CreateProcessHandler(vm *services.VirtualMemory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request models.PIDRequest
		if !decode(w, r, &request) {
			return
		}
		if err := vm.CreateProcess(request.PID); err != nil {
			sendError(w, err)
			return
		}
		server.SendJsonResponse(w, request)
	}
}

func EndProcessHandler(vm *services.VirtualMemory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request models.PIDRequest
		if !decode(w, r, &request) {
			return
		}
		if err := vm.FreeAllResourcesForProcess(request.PID); err != nil {
			sendError(w, err)
			return
		}
		server.SendJsonResponse(w, request)
	}
}

// ReadHandler lee memoria virtual del proceso. Si el acceso lo mata se liberan sus recursos
// y se responde 409 con el status de salida.
func ReadHandler(vm *services.VirtualMemory, memory Memory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request models.ReadRequest
		if !decode(w, r, &request) {
			return
		}
		if request.Size < 0 {
			server.SendJsonError(w, http.StatusBadRequest, fmt.Sprintf("tamaño inválido: %d", request.Size))
			return
		}

		if !processExists(w, vm, request.PID) {
			return
		}

		data := make([]byte, request.Size)
		if err := memory.Read(request.PID, request.Address, data); err != nil {
			handleAccessError(w, vm, request.PID, err)
			return
		}
		slog.Info(fmt.Sprintf("## PID: %d - Lectura - Dir. Lógica: %d - Tamaño: %d", request.PID, request.Address, request.Size))
		server.SendJsonResponse(w, models.ReadResponse{PID: request.PID, Data: data})
	}
}

func WriteHandler(vm *services.VirtualMemory, memory Memory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request models.WriteRequest
		if !decode(w, r, &request) || !processExists(w, vm, request.PID) {
			return
		}

		if err := memory.Write(request.PID, request.Address, request.Data); err != nil {
			handleAccessError(w, vm, request.PID, err)
			return
		}
		slog.Info(fmt.Sprintf("## PID: %d - Escritura - Dir. Lógica: %d - Tamaño: %d", request.PID, request.Address, len(request.Data)))
		server.SendJsonResponse(w, models.PIDRequest{PID: request.PID})
	}
}

func DumpHandler(vm *services.VirtualMemory, dumpPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request models.PIDRequest
		if !decode(w, r, &request) {
			return
		}
		path, err := vm.ExecuteDumpMemory(request.PID, dumpPath)
		if err != nil {
			sendError(w, err)
			return
		}
		server.SendJsonResponse(w, models.DumpResponse{PID: request.PID, Path: path})
	}
}

func processExists(w http.ResponseWriter, vm *services.VirtualMemory, pid int) bool {
	if _, err := vm.PageTable(pid); err != nil {
		sendError(w, err)
		return false
	}
	return true
}

func handleAccessError(w http.ResponseWriter, vm *services.VirtualMemory, pid int, err error) {
	var killed *models.ProcessKilledError
	if !errors.As(err, &killed) {
		sendError(w, err)
		return
	}

	if err := vm.FreeAllResourcesForProcess(pid); err != nil && !errors.Is(err, models.ErrNoPageTable) {
		slog.Error(fmt.Sprintf("## PID: %d - Error liberando recursos: %v", pid, err))
	}
	server.SendJsonStatus(w, http.StatusConflict, server.ErrorResponse{Error: killed.Error(), Status: killed.Status})
}

func decode(w http.ResponseWriter, r *http.Request, request any) bool {
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		slog.Error(fmt.Sprintf("Error al decodificar request: %v", err))
		server.SendJsonError(w, http.StatusBadRequest, "request inválido")
		return false
	}
	return true
}

func sendError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrInvalidPID), errors.Is(err, models.ErrInvalidPage):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNoPageTable):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrPageTableExists):
		status = http.StatusConflict
	case errors.Is(err, models.ErrNotInitialized):
		status = http.StatusServiceUnavailable
	}
	server.SendJsonError(w, status, err.Error())
}
