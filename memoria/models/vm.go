package models

const (
	MaxProcesses = 50
	MaxPagers    = 3

	NoFrame = -1
	NoPID   = -1
)

// FaultCause es el motivo por el que la MMU no pudo traducir una dirección.
type FaultCause int

const (
	FaultMissing FaultCause = iota + 1 // la página no está en memoria
	FaultAccess                        // violación de permisos o fuera de la región
)

func (c FaultCause) String() string {
	switch c {
	case FaultMissing:
		return "MISSING"
	case FaultAccess:
		return "ACCESS"
	default:
		return "UNKNOWN"
	}
}

// Access son los bits que la MMU mantiene por marco.
type Access int

const (
	AccessRef   Access = 1 << iota // el marco fue accedido desde el último clear
	AccessDirty                    // el marco fue escrito desde que se cargó
)

// PTE es la entrada de la tabla de páginas de un proceso.
type PTE struct {
	Incore bool
	Frame  int
	Read   bool
	Write  bool
}

// EmptyPTE es una página no residente.
func EmptyPTE() PTE {
	return PTE{Frame: NoFrame}
}

// Frame describe un marco físico. PID == NoPID significa libre.
type Frame struct {
	PID  int
	Page int
	Busy bool // hay una transferencia en curso, el reloj lo saltea
}

func (f Frame) IsFree() bool {
	return f.PID == NoPID && !f.Busy
}

// SwapSlot es el lugar en disco de una página: Sectors sectores a partir de Start en Track.
type SwapSlot struct {
	Track    int
	Start    int
	Sectors  int
	PID      int
	Page     int
	Occupied bool
}

// Códigos de salida de un proceso terminado por un fault.
const (
	StatusAccessViolation = 2
	StatusOutOfSwap       = 3
	StatusShutdown        = 4
	StatusNoPageTable     = 5
)

// FaultState es el estado de un fault dentro del despachador.
type FaultState int

const (
	FaultRaised FaultState = iota
	FaultQueued
	FaultAssigned
	FaultResolved
	FaultKilled
)

// Fault es un page fault pendiente. Lo crea el proceso que falló y lo resuelve un pager.
type Fault struct {
	PID    int
	Offset int
	Cause  FaultCause
	State  FaultState
	Kill   bool
	Status int
	done   chan struct{}
}

func NewFault(pid, offset int, cause FaultCause) *Fault {
	return &Fault{
		PID:    pid,
		Offset: offset,
		Cause:  cause,
		State:  FaultRaised,
		done:   make(chan struct{}),
	}
}

// Resolve marca el fault como resuelto y despierta al proceso.
func (f *Fault) Resolve() {
	f.State = FaultResolved
	close(f.done)
}

// Reject marca el fault para que el proceso termine con status.
func (f *Fault) Reject(status int) {
	f.Kill = true
	f.Status = status
	f.State = FaultKilled
	close(f.done)
}

// Wait bloquea hasta que un pager resuelva el fault.
func (f *Fault) Wait() {
	<-f.done
}

// Done permite esperar el fault en un select.
func (f *Fault) Done() <-chan struct{} {
	return f.done
}

// VMStats es la foto de las estadísticas del sistema de memoria virtual.
type VMStats struct {
	Pages      int   `json:"pages"`
	Frames     int   `json:"frames"`
	Blocks     int   `json:"blocks"`
	Faults     int64 `json:"faults"`
	PageIns    int64 `json:"page_ins"`
	PageOuts   int64 `json:"page_outs"`
	WriteBacks int64 `json:"write_backs"`
	NewPages   int64 `json:"new_pages"`
	FreeFrames int   `json:"free_frames"`
	FreeBlocks int   `json:"free_blocks"`
}
