package services

import (
	"log/slog"
	"sync"

	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/models"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/utils/list"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/utils/semaphore"
)

// FaultDispatcher encola los faults de los procesos y se los entrega a los pagers en orden FIFO.
// Un Signal del semáforo por fault encolado, y uno más por pager al detenerse.
type FaultDispatcher struct {
	mu      sync.Mutex // ordena Stop contra los faults que se están encolando
	stopped bool
	queue   list.ArrayList[*models.Fault]
	wake    *semaphore.Semaphore
}

func NewFaultDispatcher() *FaultDispatcher {
	return &FaultDispatcher{wake: semaphore.NewSemaphore(0)}
}

// Raise encola el fault y bloquea al proceso hasta que un pager lo resuelva. Si el pager
// decide matar al proceso devuelve un *models.ProcessKilledError.
func (d *FaultDispatcher) Raise(pid, offset int, cause models.FaultCause) error {
	fault := models.NewFault(pid, offset, cause)
	d.Submit(fault)
	fault.Wait()

	if fault.Kill {
		return &models.ProcessKilledError{PID: pid, Status: fault.Status, Cause: cause}
	}
	return nil
}

// Submit encola el fault sin esperar. Con el despachador detenido se rechaza en el momento.
func (d *FaultDispatcher) Submit(fault *models.Fault) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		fault.Reject(models.StatusShutdown)
		return
	}
	fault.State = models.FaultQueued
	d.queue.Add(fault)
	d.wake.Signal()
}

// Next bloquea hasta que haya un fault para el pager. Devuelve false cuando el pager tiene
// que terminar. Puede devolver nil con true si el aviso no traía fault.
func (d *FaultDispatcher) Next() (*models.Fault, bool) {
	d.wake.Wait()

	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()
	if stopped {
		return nil, false
	}

	fault, err := d.queue.Dequeue()
	if err != nil {
		return nil, true
	}
	fault.State = models.FaultAssigned
	return fault, true
}

// Stop marca el despachador como detenido y despierta a cada pager.
func (d *FaultDispatcher) Stop(workers int) {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	for i := 0; i < workers; i++ {
		d.wake.Signal()
	}
}

// Drain rechaza con status los faults que quedaron sin atender. Se llama con los pagers ya terminados.
func (d *FaultDispatcher) Drain(status int) int {
	pending := d.queue.Drain()
	for _, fault := range pending {
		slog.Warn("Fault descartado por apagado", "pid", fault.PID, "offset", fault.Offset)
		fault.Reject(status)
	}
	return len(pending)
}

func (d *FaultDispatcher) Pending() int {
	return d.queue.Size()
}
