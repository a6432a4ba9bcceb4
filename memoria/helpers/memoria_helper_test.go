package helpers

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/sisoputnfrba/tp-paginacion-magiOS/memoria/models"
)

func writeConfig(t *testing.T, cfg models.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memoria.json")
	content, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Failed to encode config: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func validConfig(dir string) models.Config {
	return models.Config{
		PortMemory:      8002,
		LogLevel:        "DEBUG",
		LogPath:         filepath.Join(dir, "logs", "memoria.log"),
		PageSize:        4096,
		Pages:           20,
		Frames:          10,
		Pagers:          2,
		SwapFilePath:    filepath.Join(dir, "swapfile.bin"),
		SectorSize:      512,
		SectorsPerTrack: 16,
		Tracks:          32,
		DumpPath:        filepath.Join(dir, "dumps"),
	}
}

func TestInitMemory(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	dir := t.TempDir()
	path := writeConfig(t, validConfig(dir))

	cfg, err := InitMemory(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Frames != 10 || models.MemoryConfig != cfg {
		t.Errorf("Expected the loaded config to be global, got %+v", cfg)
	}
	if info, err := os.Stat(cfg.DumpPath); err != nil || !info.IsDir() {
		t.Errorf("Expected dump directory to be created: %v", err)
	}
}

func TestInitMemory_InvalidGeometry(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig(dir)
	cfg.PageSize = 1000
	path := writeConfig(t, cfg)

	if _, err := InitMemory(path); err == nil {
		t.Error("Expected error for page size not multiple of sector size, got nil")
	}
}

func TestGetDumpName(t *testing.T) {
	name := GetDumpName(12)
	if !regexp.MustCompile(`^12-\d{8}-\d{6}\.dmp$`).MatchString(name) {
		t.Errorf("Unexpected dump name %q", name)
	}
	if filepath.Dir(GetDumpPath("/tmp/dumps", 12)) != "/tmp/dumps" {
		t.Error("Expected the dump to live inside the dump directory")
	}
}
