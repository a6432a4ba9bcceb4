package helpers

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/models"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/utils/config"
	"github.com/sisoputnfrba/tp-paginacion-magiOS/utils/log"
)

// crea un directorio en el path especificado.
func CreateDirectory(dir string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		slog.Error(fmt.Sprintf("Error al crear el directorio %s: %v", dir, err))
		return err
	}

	slog.Debug(fmt.Sprintf("Directorio %s creado o ya existía.", dir))
	return nil
}

// InitMemory carga y valida el config, configura el logger y crea los directorios de trabajo.
func InitMemory(configPath string) (*models.Config, error) {
	cfg := &models.Config{}
	if err := config.LoadConfig(configPath, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s inválido: %w", configPath, err)
	}
	if err := log.InitLogger(cfg.LogPath, cfg.LogLevel); err != nil {
		return nil, err
	}

	slog.Debug(fmt.Sprintf("Port Memory: %d", cfg.PortMemory))
	if cfg.DumpPath != "" {
		if err := CreateDirectory(cfg.DumpPath); err != nil {
			return nil, err
		}
	}
	slog.Debug(fmt.Sprintf("Swap: %s", cfg.SwapFilePath))

	models.MemoryConfig = cfg
	return cfg, nil
}

func GetDumpName(pid int) string {
	timestamp := time.Now().Format("20060102-150405")
	return fmt.Sprintf("%d-%s.dmp", pid, timestamp)
}

// GetDumpPath arma la ruta completa del dump dentro de dir.
func GetDumpPath(dir string, pid int) string {
	return filepath.Join(dir, GetDumpName(pid))
}
