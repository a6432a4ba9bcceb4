package services

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/models"
)

// PagerPool son los workers que atienden los page faults.
type PagerPool struct {
	vm    *VirtualMemory
	wg    sync.WaitGroup
	count int
}

func NewPagerPool(vm *VirtualMemory) *PagerPool {
	return &PagerPool{vm: vm}
}

// Start lanza count pagers y vuelve cuando todos están esperando faults.
func (p *PagerPool) Start(count int) error {
	if count < 1 || count > models.MaxPagers {
		return fmt.Errorf("%d pagers: %w", count, models.ErrInvalidNumPagers)
	}

	var started sync.WaitGroup
	for id := 0; id < count; id++ {
		p.wg.Add(1)
		started.Add(1)
		go p.run(id, &started)
	}
	started.Wait()

	p.count = count
	slog.Debug("Pagers iniciados", "cantidad", count)
	return nil
}

// Stop detiene los pagers, espera que terminen el fault que tengan entre manos y rechaza
// los que quedaron encolados.
func (p *PagerPool) Stop() {
	p.vm.faults.Stop(p.count)
	p.wg.Wait()

	if dropped := p.vm.faults.Drain(models.StatusShutdown); dropped > 0 {
		slog.Warn(fmt.Sprintf("Se descartaron %d faults pendientes", dropped))
	}
	p.count = 0
}

func (p *PagerPool) run(id int, started *sync.WaitGroup) {
	defer p.wg.Done()
	slog.Debug("Pager esperando faults", "pager", id)
	started.Done()

	for {
		fault, ok := p.vm.faults.Next()
		if !ok {
			slog.Debug("Pager terminado", "pager", id)
			return
		}
		if fault != nil {
			p.handle(id, fault)
		}
	}
}

func (p *PagerPool) handle(id int, fault *models.Fault) {
	vm := p.vm
	page := fault.Offset / vm.hw.PageSize()

	if fault.Cause == models.FaultAccess || fault.Offset < 0 || page >= vm.pages {
		slog.Info(fmt.Sprintf("## PID: %d - Violación de acceso - Offset: %d", fault.PID, fault.Offset))
		fault.Reject(models.StatusAccessViolation)
		return
	}

	frame, err := vm.frames.Acquire()
	if errors.Is(err, models.ErrOutOfSwap) {
		slog.Info(fmt.Sprintf("## PID: %d - Sin espacio en SWAP - Página: %d", fault.PID, page))
		fault.Reject(models.StatusOutOfSwap)
		return
	}
	if err != nil {
		p.fatal(id, err)
	}

	err = vm.tables.WithTable(fault.PID, func(table []models.PTE) error {
		return p.load(fault.PID, page, frame, table)
	})
	if errors.Is(err, models.ErrNoPageTable) {
		if err := vm.frames.Release(frame); err != nil {
			p.fatal(id, err)
		}
		fault.Reject(models.StatusNoPageTable)
		return
	}
	if err != nil {
		p.fatal(id, err)
	}

	vm.stats.Faults.Inc()
	fault.Resolve()
}

// load trae la página al marco desde SWAP, o la llena con ceros si nunca se guardó.
// Se llama con el lock de la tabla del proceso.
func (p *PagerPool) load(pid, page, frame int, table []models.PTE) error {
	vm := p.vm

	// Otro pager ya la cargó
	if table[page].Incore {
		return vm.frames.Release(frame)
	}

	buffer, err := vm.MapFrame(frame)
	if err != nil {
		return err
	}
	if slot, found := vm.swap.Lookup(pid, page); found {
		if err := vm.swap.Read(slot, buffer); err != nil {
			return err
		}
		vm.stats.PageIns.Inc()
		slog.Info(fmt.Sprintf("## PID: %d - Página %d recuperada de SWAP al marco %d", pid, page, frame))
	} else {
		clear(buffer)
		vm.stats.NewPages.Inc()
		slog.Debug(fmt.Sprintf("## PID: %d - Página %d nueva en el marco %d", pid, page, frame))
	}
	if err := vm.UnmapFrame(frame); err != nil {
		return err
	}

	// Recién cargada: referenciada pero limpia
	vm.hw.SetAccess(frame, models.AccessRef)
	table[page] = models.PTE{Incore: true, Frame: frame, Read: true, Write: true}
	if err := vm.frames.Install(frame, pid, page); err != nil {
		return err
	}
	vm.hw.SetPageTable(pid, table)
	return nil
}

// Un error que no sea del proceso deja la memoria en un estado que no se puede recuperar.
func (p *PagerPool) fatal(id int, err error) {
	slog.Error("Error irrecuperable en el pager", "pager", id, "error", err)
	panic(err)
}
