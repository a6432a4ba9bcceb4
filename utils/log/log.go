package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// InitLogger configura slog para loguear por consola y, si se indica logPath, también en archivo.
//
// Parámetros:
//   - logPath: la ubicación del archivo de log; vacío para loguear solo por consola
//   - logLevel: nivel de logueo, este dato viene definido en el archivo de config.
//
// Ejemplo:
//
//	func main() {
//		if err := log.InitLogger("./logs/memoria.log", "INFO"); err != nil {
//			panic(err)
//		}
//	}
func InitLogger(logPath string, logLevel string) error {
	var writer io.Writer = os.Stdout

	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return fmt.Errorf("no se pudo crear el directorio de logs: %w", err)
		}
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
		if err != nil {
			return fmt.Errorf("no se pudo abrir el archivo de log %s: %w", logPath, err)
		}
		writer = io.MultiWriter(os.Stdout, logFile)
	}

	level, levelErr := ParseLevel(logLevel)
	slog.SetDefault(NewLogger(writer, level))

	// El nivel inválido no impide arrancar, solo se avisa
	if levelErr != nil {
		slog.Warn(levelErr.Error())
	}

	slog.Debug("Logger configurado", "archivo", logPath, "nivel", level.String())
	return nil
}

// NewLogger arma un logger de texto sobre writer con el nivel indicado.
func NewLogger(writer io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// ParseLevel convierte el nivel del config al tipo slog.Level. Si no lo reconoce usa INFO.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("no existe el nivel %q, se coloca INFO por defecto", levelStr)
	}
}
