package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// InitServer levanta el servidor HTTP en el puerto indicado con el handler recibido.
// Si handler es nil se usa http.DefaultServeMux. Solo retorna si no se pudo escuchar.
//
// Ejemplo:
//
//	func main() {
//		mux := http.NewServeMux()
//		err := server.InitServer(models.MemoryConfig.PortMemory, mux)
//		if err != nil {
//			panic(err)
//		}
//	}
func InitServer(port int, handler http.Handler) error {
	addr := ":" + strconv.Itoa(port)

	slog.Info("Servidor escuchando", "puerto", port)
	err := http.ListenAndServe(addr, handler)
	if err != nil {
		slog.Error("Error al escuchar en el puerto", "direccion", addr, "error", err)
	}
	return err
}

// SendJsonResponse retorna la respuesta del servidor en formato JSON con status 200.
//
// Parámetros:
//   - writer: el http.ResponseWriter con el que se escribe la respuesta HTTP
//   - data: cualquier estructura de datos, se convierte automáticamente a JSON.
func SendJsonResponse(writer http.ResponseWriter, data any) {
	SendJsonStatus(writer, http.StatusOK, data)
}

// SendJsonStatus es SendJsonResponse con un status a elección.
func SendJsonStatus(writer http.ResponseWriter, status int, data any) {
	response, err := json.Marshal(data)
	if err != nil {
		http.Error(writer, "Error al convertir datos a JSON", http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	writer.Write(response)
}

// ErrorResponse es el cuerpo de las respuestas con error.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status,omitempty"`
}

// SendJsonError responde con un ErrorResponse.
func SendJsonError(writer http.ResponseWriter, status int, message string) {
	SendJsonStatus(writer, status, ErrorResponse{Error: message})
}
