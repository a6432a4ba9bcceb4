package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotInitialized     = errors.New("memoria virtual no inicializada")
	ErrAlreadyInitialized = errors.New("memoria virtual ya inicializada")
	ErrInvalidPID         = errors.New("pid inválido")
	ErrInvalidPage        = errors.New("página inválida")
	ErrInvalidFrame       = errors.New("marco inválido")
	ErrInvalidNumPagers   = errors.New("cantidad de pagers inválida")
	ErrOutOfPages         = errors.New("no hay páginas libres para mapear el marco")
	ErrOutOfSwap          = errors.New("no hay más espacio en SWAP")
	ErrFrameNotMapped     = errors.New("el marco no fue mapeado por quien lo libera")
	ErrNoPageTable        = errors.New("el proceso no tiene tabla de páginas")
	ErrPageTableExists    = errors.New("el proceso ya tiene tabla de páginas")
)

// ProcessKilledError indica que el fault de un proceso se resolvió matándolo.
type ProcessKilledError struct {
	PID    int
	Status int
	Cause  FaultCause
}

func (e *ProcessKilledError) Error() string {
	return fmt.Sprintf("proceso %d terminado por fault %s con status %d", e.PID, e.Cause, e.Status)
}
