package services

import (
	"errors"
	"testing"
	"time"

	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/models"
)

func TestFaultDispatcher_FIFO(t *testing.T) {
	dispatcher := NewFaultDispatcher()

	faults := []*models.Fault{
		models.NewFault(1, 0, models.FaultMissing),
		models.NewFault(2, 10, models.FaultMissing),
		models.NewFault(3, 20, models.FaultAccess),
	}
	for _, fault := range faults {
		dispatcher.Submit(fault)
	}
	if dispatcher.Pending() != 3 {
		t.Fatalf("Expected 3 pending faults, got %d", dispatcher.Pending())
	}

	for _, expected := range faults {
		fault, ok := dispatcher.Next()
		if !ok || fault != expected {
			t.Fatalf("Expected fault of pid %d, got %+v", expected.PID, fault)
		}
		if fault.State != models.FaultAssigned {
			t.Errorf("Expected ASSIGNED state, got %d", fault.State)
		}
	}
}

func TestFaultDispatcher_RaiseBlocksUntilResolved(t *testing.T) {
	dispatcher := NewFaultDispatcher()

	result := make(chan error, 1)
	go func() {
		result <- dispatcher.Raise(4, 100, models.FaultMissing)
	}()

	fault, ok := dispatcher.Next()
	if !ok || fault == nil {
		t.Fatal("Expected a fault")
	}

	select {
	case <-result:
		t.Fatal("Expected Raise to block until the fault is resolved")
	case <-time.After(20 * time.Millisecond):
	}

	fault.Resolve()
	if err := <-result; err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
}

func TestFaultDispatcher_RaiseKilled(t *testing.T) {
	dispatcher := NewFaultDispatcher()

	result := make(chan error, 1)
	go func() {
		result <- dispatcher.Raise(4, -1, models.FaultAccess)
	}()

	fault, _ := dispatcher.Next()
	fault.Reject(models.StatusAccessViolation)

	var killed *models.ProcessKilledError
	if err := <-result; !errors.As(err, &killed) {
		t.Fatalf("Expected ProcessKilledError, got: %v", err)
	}
	if killed.PID != 4 || killed.Status != models.StatusAccessViolation {
		t.Errorf("Expected pid 4 killed with status %d, got %+v", models.StatusAccessViolation, killed)
	}
}

func TestFaultDispatcher_StopAndDrain(t *testing.T) {
	dispatcher := NewFaultDispatcher()

	pending := models.NewFault(1, 0, models.FaultMissing)
	dispatcher.Submit(pending)
	dispatcher.Stop(2)

	if _, ok := dispatcher.Next(); ok {
		t.Error("Expected Next to report shutdown")
	}
	if dropped := dispatcher.Drain(models.StatusShutdown); dropped != 1 {
		t.Errorf("Expected 1 drained fault, got %d", dropped)
	}
	if !pending.Kill || pending.Status != models.StatusShutdown {
		t.Errorf("Expected drained fault to be killed with shutdown status, got %+v", pending)
	}

	late := models.NewFault(2, 0, models.FaultMissing)
	dispatcher.Submit(late)
	select {
	case <-late.Done():
	default:
		t.Error("Expected a fault submitted after Stop to be rejected right away")
	}
}
