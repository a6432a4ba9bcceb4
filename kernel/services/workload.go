package services

import (
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-paginacion-magiOS/kernel/models"
)

// ExitMismatch es el estado con el que termina un hijo que lee algo distinto de lo que escribió.
const ExitMismatch = 1

// TouchAllPages arma el cuerpo de un hijo que escribe una marca en cada página y después
// las relee todas, forzando reemplazo cuando hay menos marcos que páginas.
func TouchAllPages(pages, pageSize int) func(p *Process) int {
	return func(p *Process) int {
		for page := 0; page < pages; page++ {
			_ = p.Write(page*pageSize, pageMark(p.PID(), page))
		}
		for page := 0; page < pages; page++ {
			expected := pageMark(p.PID(), page)
			buffer := make([]byte, len(expected))
			_ = p.Read(page*pageSize, buffer)
			if string(buffer) != string(expected) {
				slog.Warn(fmt.Sprintf("## PID: %d - Página %d con contenido inesperado", p.PID(), page))
				return ExitMismatch
			}
		}
		return models.ExitOK
	}
}

func pageMark(pid, page int) []byte {
	return []byte(fmt.Sprintf("%d:%d", pid, page))
}
