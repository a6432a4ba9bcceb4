package services

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/sisoputnfrba/tp-paginacion-magiOS/kernel/models"
	memoryModels "github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/models"
)

var (
	ErrNoFreePID       = errors.New("no hay PIDs libres")
	ErrProcessNotFound = errors.New("proceso inexistente")
)

// MemoryManager es la parte de la memoria virtual que usa el kernel para crear y destruir procesos.
type MemoryManager interface {
	CreateProcess(pid int) error
	FreeAllResourcesForProcess(pid int) error
}

// Memory es el acceso a memoria de los procesos, a través de la MMU.
type Memory interface {
	Read(pid, addr int, buffer []byte) error
	Write(pid, addr int, data []byte) error
}

// Process es un proceso en ejecución. Cada uno corre en su propia goroutine.
type Process struct {
	pcb    models.PCB
	kernel *Kernel
	done   chan struct{}
}

func (p *Process) PID() int {
	return p.pcb.PID
}

// Read lee memoria virtual del proceso. Si un fault mata al proceso, la goroutine termina acá.
func (p *Process) Read(addr int, buffer []byte) error {
	return p.check(p.kernel.memory.Read(p.pcb.PID, addr, buffer))
}

// Write escribe memoria virtual del proceso. Si un fault mata al proceso, la goroutine termina acá.
func (p *Process) Write(addr int, data []byte) error {
	return p.check(p.kernel.memory.Write(p.pcb.PID, addr, data))
}

func (p *Process) check(err error) error {
	var killed *memoryModels.ProcessKilledError
	if errors.As(err, &killed) {
		slog.Info(fmt.Sprintf("## (%d) - Proceso terminado por fault %s", p.pcb.PID, killed.Cause))
		p.pcb.ExitStatus = killed.Status
		runtime.Goexit()
	}
	return err
}

// Kernel crea procesos, los corre y libera su memoria cuando terminan.
type Kernel struct {
	vm        MemoryManager
	memory    Memory
	mu        sync.Mutex // serializa la asignación de PIDs
	processes *xsync.MapOf[int, *Process]
}

func NewKernel(vm MemoryManager, memory Memory) *Kernel {
	return &Kernel{
		vm:        vm,
		memory:    memory,
		processes: xsync.NewMapOf[int, *Process](),
	}
}

// Spawn crea un proceso que ejecuta body. El valor que devuelve body es su status de salida.
func (k *Kernel) Spawn(name string, body func(p *Process) int) (int, error) {
	k.mu.Lock()
	pid, err := k.nextPID()
	if err != nil {
		k.mu.Unlock()
		return 0, err
	}
	if err := k.vm.CreateProcess(pid); err != nil {
		k.mu.Unlock()
		return 0, fmt.Errorf("no se pudo crear la memoria del proceso %s: %w", name, err)
	}
	process := &Process{
		pcb:    models.PCB{PID: pid, Name: name, State: models.EstadoNew},
		kernel: k,
		done:   make(chan struct{}),
	}
	k.processes.Store(pid, process)
	k.mu.Unlock()

	slog.Info(fmt.Sprintf("## (%d) Se crea el proceso - Estado: NEW", pid))
	go k.run(process, body)
	return pid, nil
}

func (k *Kernel) nextPID() (int, error) {
	for pid := 1; pid < memoryModels.MaxProcesses; pid++ {
		if _, used := k.processes.Load(pid); !used {
			return pid, nil
		}
	}
	return 0, ErrNoFreePID
}

func (k *Kernel) run(p *Process, body func(p *Process) int) {
	defer k.terminate(p)

	p.pcb.State = models.EstadoExec
	p.pcb.ExitStatus = body(p)
}

func (k *Kernel) terminate(p *Process) {
	if err := k.vm.FreeAllResourcesForProcess(p.pcb.PID); err != nil {
		slog.Error(fmt.Sprintf("## (%d) - Error liberando memoria: %v", p.pcb.PID, err))
	}
	p.pcb.State = models.EstadoExit
	slog.Info(fmt.Sprintf("## (%d) - Finaliza el proceso - Status: %d", p.pcb.PID, p.pcb.ExitStatus))
	close(p.done)
}

// Wait bloquea hasta que el proceso termine y devuelve su status. Después de Wait el PID
// queda libre para otro proceso.
func (k *Kernel) Wait(pid int) (int, error) {
	p, ok := k.processes.Load(pid)
	if !ok {
		return 0, fmt.Errorf("pid %d: %w", pid, ErrProcessNotFound)
	}
	<-p.done
	k.processes.Delete(pid)
	return p.pcb.ExitStatus, nil
}

// Running devuelve la cantidad de procesos que todavía no fueron esperados.
func (k *Kernel) Running() int {
	return k.processes.Size()
}

// Finished devuelve una copia de los PCB de los procesos terminados, que ya no cambian.
func (k *Kernel) Finished() []models.PCB {
	var pcbs []models.PCB
	k.processes.Range(func(_ int, p *Process) bool {
		select {
		case <-p.done:
			pcbs = append(pcbs, p.pcb)
		default:
		}
		return true
	})
	return pcbs
}
