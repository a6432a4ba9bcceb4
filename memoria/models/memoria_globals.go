package models

import "fmt"

type Config struct {
	PortMemory      int    `json:"port_memory"`
	LogLevel        string `json:"log_level"`
	LogPath         string `json:"log_path"`
	PageSize        int    `json:"page_size"`
	Pages           int    `json:"pages"`
	Frames          int    `json:"frames"`
	Pagers          int    `json:"pagers"`
	SwapFilePath    string `json:"swap_file_path"`
	SectorSize      int    `json:"sector_size"`
	SectorsPerTrack int    `json:"sectors_per_track"`
	Tracks          int    `json:"tracks"`
	SwapDelay       int    `json:"swap_delay"` // milisegundos por acceso a SWAP
	DumpPath        string `json:"dump_path"`
}

// Validate chequea que la geometría del config sea consistente.
func (c *Config) Validate() error {
	switch {
	case c.PageSize <= 0 || c.SectorSize <= 0:
		return fmt.Errorf("page_size y sector_size deben ser positivos")
	case c.PageSize%c.SectorSize != 0:
		return fmt.Errorf("page_size (%d) debe ser múltiplo de sector_size (%d)", c.PageSize, c.SectorSize)
	case c.SectorsPerTrack < c.PageSize/c.SectorSize:
		return fmt.Errorf("una página no entra en un track de %d sectores", c.SectorsPerTrack)
	case c.Pages <= 0 || c.Frames <= 0 || c.Tracks <= 0:
		return fmt.Errorf("pages, frames y tracks deben ser positivos")
	case c.Pagers < 1 || c.Pagers > MaxPagers:
		return fmt.Errorf("pagers debe estar entre 1 y %d", MaxPagers)
	}
	return nil
}

var MemoryConfig *Config

type PIDRequest struct {
	PID int `json:"pid"`
}

type ReadRequest struct {
	PID     int `json:"pid"`
	Address int `json:"address"`
	Size    int `json:"size"`
}

type WriteRequest struct {
	PID     int    `json:"pid"`
	Address int    `json:"address"`
	Data    []byte `json:"data"`
}

type ReadResponse struct {
	PID  int    `json:"pid"`
	Data []byte `json:"data"`
}

type DumpResponse struct {
	PID  int    `json:"pid"`
	Path string `json:"path"`
}
