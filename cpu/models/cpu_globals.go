package models

type Config struct {
	IpMemory   string `json:"ip_memory"`
	PortMemory int    `json:"port_memory"`
	LogLevel   string `json:"log_level"`
	LogPath    string `json:"log_path"`
	PageSize   int    `json:"page_size"`
	Pages      int    `json:"pages"`
	Rounds     int    `json:"rounds"`
}

var CpuConfig *Config

// WorkloadResult es lo que devuelve una corrida de la carga contra memoria.
type WorkloadResult struct {
	PID        int `json:"pid"`
	Writes     int `json:"writes"`
	Reads      int `json:"reads"`
	Mismatches int `json:"mismatches"`
}
