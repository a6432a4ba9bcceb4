package services

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var ErrOutOfBounds = errors.New("acceso fuera del disco")

// geometry es la forma del disco: tracks de sectorsPerTrack sectores de sectorSize bytes.
type geometry struct {
	sectorSize      int
	sectorsPerTrack int
	tracks          int
}

func (g geometry) Geometry() (int, int, int) {
	return g.sectorSize, g.sectorsPerTrack, g.tracks
}

func (g geometry) size() int64 {
	return int64(g.sectorSize) * int64(g.sectorsPerTrack) * int64(g.tracks)
}

// offset valida el acceso y devuelve la posición en bytes del primer sector.
func (g geometry) offset(track, first, sectors int, buffer []byte) (int64, int, error) {
	if track < 0 || track >= g.tracks {
		return 0, 0, fmt.Errorf("track %d: %w", track, ErrOutOfBounds)
	}
	if first < 0 || sectors <= 0 || first+sectors > g.sectorsPerTrack {
		return 0, 0, fmt.Errorf("sectores %d a %d del track %d: %w", first, first+sectors-1, track, ErrOutOfBounds)
	}
	length := sectors * g.sectorSize
	if len(buffer) < length {
		return 0, 0, fmt.Errorf("buffer de %d bytes para %d sectores", len(buffer), sectors)
	}
	return (int64(track)*int64(g.sectorsPerTrack) + int64(first)) * int64(g.sectorSize), length, nil
}

// FileDisk es un disco respaldado por un archivo, como el swapfile de memoria. Cada acceso
// demora delay para simular el tiempo de acceso al dispositivo.
type FileDisk struct {
	geometry
	mu    sync.Mutex
	file  *os.File
	delay time.Duration
}

// NewFileDisk crea (o trunca) el archivo en path con el tamaño del disco.
func NewFileDisk(path string, sectorSize, sectorsPerTrack, tracks int, delay time.Duration) (*FileDisk, error) {
	g := geometry{sectorSize: sectorSize, sectorsPerTrack: sectorsPerTrack, tracks: tracks}
	if g.size() <= 0 {
		return nil, fmt.Errorf("geometría inválida: %d tracks de %d sectores de %d bytes", tracks, sectorsPerTrack, sectorSize)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("no se pudo crear el directorio del disco: %w", err)
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("no se pudo abrir %s: %w", path, err)
	}
	if err := file.Truncate(g.size()); err != nil {
		file.Close()
		return nil, fmt.Errorf("no se pudo dimensionar %s: %w", path, err)
	}

	slog.Debug("Disco creado", "archivo", path, "bytes", g.size())
	return &FileDisk{geometry: g, file: file, delay: delay}, nil
}

func (d *FileDisk) Read(track, first, sectors int, buffer []byte) error {
	offset, length, err := d.offset(track, first, sectors, buffer)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	time.Sleep(d.delay)
	if _, err := d.file.ReadAt(buffer[:length], offset); err != nil {
		return fmt.Errorf("error leyendo track %d: %w", track, err)
	}
	return nil
}

func (d *FileDisk) Write(track, first, sectors int, buffer []byte) error {
	offset, length, err := d.offset(track, first, sectors, buffer)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	time.Sleep(d.delay)
	if _, err := d.file.WriteAt(buffer[:length], offset); err != nil {
		return fmt.Errorf("error escribiendo track %d: %w", track, err)
	}
	return nil
}

func (d *FileDisk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.Close()
}

// MemoryDisk es un disco en memoria. Cuenta las lecturas y escrituras para los tests.
type MemoryDisk struct {
	geometry
	mu     sync.Mutex
	data   []byte
	reads  int
	writes int
}

func NewMemoryDisk(sectorSize, sectorsPerTrack, tracks int) *MemoryDisk {
	g := geometry{sectorSize: sectorSize, sectorsPerTrack: sectorsPerTrack, tracks: tracks}
	return &MemoryDisk{geometry: g, data: make([]byte, g.size())}
}

func (d *MemoryDisk) Read(track, first, sectors int, buffer []byte) error {
	offset, length, err := d.offset(track, first, sectors, buffer)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	copy(buffer[:length], d.data[offset:offset+int64(length)])
	d.reads++
	return nil
}

func (d *MemoryDisk) Write(track, first, sectors int, buffer []byte) error {
	offset, length, err := d.offset(track, first, sectors, buffer)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.data[offset:offset+int64(length)], buffer[:length])
	d.writes++
	return nil
}

// Stats devuelve la cantidad de lecturas y escrituras hechas.
func (d *MemoryDisk) Stats() (reads, writes int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads, d.writes
}
