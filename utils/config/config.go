package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// InitConfig lee el archivo de configuración y lo decodifica en config. Si el archivo no existe o
// no es un JSON válido el módulo no puede arrancar, por lo que se corta la ejecución con panic.
//
// Parámetros:
//   - filePath: ubicación del archivo de configuración
//   - config: puntero a la estructura donde se cargan los valores
//
// Ejemplo:
//
//	func main() {
//		var memoryConfig models.Config
//		config.InitConfig("./configs/memoria.json", &memoryConfig)
//	}
func InitConfig(filePath string, config any) {
	if err := LoadConfig(filePath, config); err != nil {
		panic(err)
	}
}

// LoadConfig es la versión de InitConfig que devuelve el error en lugar de cortar la ejecución.
func LoadConfig(filePath string, config any) error {
	configFile, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("no se pudo abrir el archivo de configuración %s: %w", filePath, err)
	}
	defer configFile.Close()

	decoder := json.NewDecoder(configFile)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(config); err != nil {
		return fmt.Errorf("error al decodificar %s: %w", filePath, err)
	}

	return nil
}
