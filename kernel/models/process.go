package models

// Estados de un proceso.
const (
	EstadoNew  = "NEW"
	EstadoExec = "EXEC"
	EstadoExit = "EXIT"
)

// ExitOK es el status de un proceso que terminó su cuerpo normalmente.
const ExitOK = 0

// PCB es el bloque de control de un proceso simulado.
type PCB struct {
	PID        int    `json:"pid"`
	Name       string `json:"name"`
	State      string `json:"state"`
	ExitStatus int    `json:"exit_status"`
}
