package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

// DoRequest realiza una petición HTTP (GET, POST, etc.) y retorna la respuesta del servidor.
// Si el status no es 200 retorna la respuesta junto con un error, así quien llama puede leer el cuerpo.
//
// Parámetros:
//   - port: el puerto al que se hará la petición
//   - ip: la IP o dominio del servidor
//   - method: método HTTP
//   - query: parte final de la URL
//   - bodies: (opcional) body del request
//
// Ejemplo:
//
//	func main() {
//		response, err := client.DoRequest(8002, "127.0.0.1", "GET", "memoria/stats")
//		if err != nil {
//			slog.Error(fmt.Sprintf("Ocurrió un error: %v", err))
//			return
//		}
//		defer response.Body.Close()
//	}
func DoRequest(port int, ip string, method string, query string, bodies ...[]byte) (*http.Response, error) {
	url := fmt.Sprintf("http://%s:%d/%s", ip, port, query)

	request, err := http.NewRequest(method, url, ifBody(bodies...))
	if err != nil {
		slog.Error("Error creando request", "ip", ip, "puerto", port, "error", err)
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := httpClient.Do(request)
	if err != nil {
		slog.Error("Error enviando request", "ip", ip, "puerto", port, "error", err)
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		return response, fmt.Errorf("status error: %d %s", response.StatusCode, http.StatusText(response.StatusCode))
	}

	return response, nil
}

// DoJSON serializa body, hace el request y decodifica la respuesta en out (si no es nil).
func DoJSON(port int, ip string, method string, query string, body any, out any) error {
	var payload [][]byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error serializando request: %w", err)
		}
		payload = append(payload, encoded)
	}

	response, err := DoRequest(port, ip, method, query, payload...)
	if response != nil {
		defer response.Body.Close()
	}
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("error decodificando respuesta: %w", err)
	}
	return nil
}

func ifBody(bodies ...[]byte) io.Reader {
	if len(bodies) == 0 {
		return nil
	}
	return bytes.NewBuffer(bodies[0])
}
