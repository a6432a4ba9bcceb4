package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	cpuServices "github.com/sisoputnfrba/tp-paginacion-magiOS/cpu/services"
	ioServices "github.com/sisoputnfrba/tp-paginacion-magiOS/io/services"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/models"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/services"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/utils/web/client"
)

const pageSize = 64

func newTestServer(t *testing.T) (int, string) {
	t.Helper()

	mmu := cpuServices.NewMMU(pageSize, 4, 2)
	vm := services.NewVirtualMemory(mmu, ioServices.NewMemoryDisk(32, 4, 4))
	mmu.SetFaultHandler(vm.HandleFault)
	if err := vm.Init(4, 2, 1); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	t.Cleanup(func() {
		_ = vm.Shutdown()
	})

	dumpPath := t.TempDir()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /memoria/stats", StatsHandler(vm))
	mux.HandleFunc("POST /memoria/proceso", CreateProcessHandler(vm))
	mux.HandleFunc("POST /memoria/leer", ReadHandler(vm, mmu))
	mux.HandleFunc("POST /memoria/escribir", WriteHandler(vm, mmu))
	mux.HandleFunc("POST /memoria/finalizar", EndProcessHandler(vm))
	mux.HandleFunc("POST /memoria/dump", DumpHandler(vm, dumpPath))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	port, _ := strconv.Atoi(u.Port())
	return port, u.Hostname()
}

func TestMemoryAPI_WriteReadStats(t *testing.T) {
	port, ip := newTestServer(t)

	if err := client.DoJSON(port, ip, "POST", "memoria/proceso", models.PIDRequest{PID: 1}, nil); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data := []byte("escrito por http")
	write := models.WriteRequest{PID: 1, Address: pageSize*3 + 2, Data: data}
	if err := client.DoJSON(port, ip, "POST", "memoria/escribir", write, nil); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var response models.ReadResponse
	read := models.ReadRequest{PID: 1, Address: pageSize*3 + 2, Size: len(data)}
	if err := client.DoJSON(port, ip, "POST", "memoria/leer", read, &response); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !bytes.Equal(response.Data, data) {
		t.Errorf("Expected %q, got %q", data, response.Data)
	}

	var stats models.VMStats
	if err := client.DoJSON(port, ip, "GET", "memoria/stats", nil, &stats); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stats.Faults != 1 || stats.Pages != 4 || stats.Frames != 2 {
		t.Errorf("Unexpected stats %+v", stats)
	}

	var dump models.DumpResponse
	if err := client.DoJSON(port, ip, "POST", "memoria/dump", models.PIDRequest{PID: 1}, &dump); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.HasSuffix(dump.Path, ".dmp") {
		t.Errorf("Expected a dump file path, got %q", dump.Path)
	}

	if err := client.DoJSON(port, ip, "POST", "memoria/finalizar", models.PIDRequest{PID: 1}, nil); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
}

func TestMemoryAPI_AccessViolation(t *testing.T) {
	port, ip := newTestServer(t)

	if err := client.DoJSON(port, ip, "POST", "memoria/proceso", models.PIDRequest{PID: 2}, nil); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	read := models.ReadRequest{PID: 2, Address: pageSize * 10, Size: 1}
	err := client.DoJSON(port, ip, "POST", "memoria/leer", read, nil)
	if err == nil || !strings.Contains(err.Error(), "409") {
		t.Fatalf("Expected a 409 status, got: %v", err)
	}

	// El proceso muerto ya no tiene memoria
	err = client.DoJSON(port, ip, "POST", "memoria/finalizar", models.PIDRequest{PID: 2}, nil)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected a 404 status, got: %v", err)
	}
}

func TestMemoryAPI_Errors(t *testing.T) {
	port, ip := newTestServer(t)

	err := client.DoJSON(port, ip, "POST", "memoria/leer", models.ReadRequest{PID: 9, Size: 1}, nil)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected a 404 for an unknown process, got: %v", err)
	}

	err = client.DoJSON(port, ip, "POST", "memoria/proceso", models.PIDRequest{PID: -1}, nil)
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("Expected a 400 for an invalid pid, got: %v", err)
	}

	if err := client.DoJSON(port, ip, "POST", "memoria/proceso", models.PIDRequest{PID: 3}, nil); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	err = client.DoJSON(port, ip, "POST", "memoria/proceso", models.PIDRequest{PID: 3}, nil)
	if err == nil || !strings.Contains(err.Error(), "409") {
		t.Errorf("Expected a 409 for a duplicated process, got: %v", err)
	}
}

func TestDecode_InvalidBody(t *testing.T) {
	request := httptest.NewRequest("POST", "/memoria/proceso", strings.NewReader("{no es json"))
	recorder := httptest.NewRecorder()

	CreateProcessHandler(nil)(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", recorder.Code)
	}
}
