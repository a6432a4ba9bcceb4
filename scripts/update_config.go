package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Para su uso se debe posicionar en la carpeta scripts
// > go run update_config.go ip_memory 192.168.1.100
// > go run update_config.go frames 16 pagers 3 swap_delay 0

var modules = []string{"cpu", "memoria"}

func main() {
	// Los argumentos van de a pares: clave1 valor1 clave2 valor2 ...
	if len(os.Args) < 3 || len(os.Args)%2 != 1 {
		fmt.Println("Uso: update_config <clave_1> <valor_1> [<clave_2> <valor_2> ...]")
		fmt.Println("Ejemplo: update_config ip_memory 192.168.0.10 frames 16")
		return
	}

	updates := ParseUpdates(os.Args[1:])

	fmt.Println("Valores a actualizar:")
	for k, v := range updates {
		fmt.Printf("  %s: %v\n", k, v)
	}

	updated, err := UpdateConfigs("..", modules, updates)
	if err != nil {
		fmt.Printf("Error actualizando configuraciones: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nProceso finalizado. Archivos modificados: %d\n", updated)
}

// ParseUpdates arma el mapa clave -> valor. Los valores que son JSON válido (números, booleanos)
// mantienen su tipo, el resto queda como string.
func ParseUpdates(args []string) map[string]any {
	updates := make(map[string]any)
	for i := 0; i+1 < len(args); i += 2 {
		var parsedValue any
		if err := json.Unmarshal([]byte(args[i+1]), &parsedValue); err != nil {
			parsedValue = args[i+1]
		}
		updates[args[i]] = parsedValue
	}
	return updates
}

// UpdateConfigs recorre <root>/<modulo>/configs y pisa en cada .json las claves que ya existen.
// Las claves que un archivo no tiene no se agregan.
func UpdateConfigs(root string, modules []string, updates map[string]any) (int, error) {
	updated := 0
	for _, module := range modules {
		moduleConfigPath := filepath.Join(root, module, "configs")

		err := filepath.Walk(moduleConfigPath, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return filepath.SkipDir
				}
				return err
			}
			if info.IsDir() || filepath.Ext(path) != ".json" {
				return nil
			}

			modified, err := updateFile(path, updates)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if modified {
				fmt.Printf("  El archivo %s ha sido actualizado correctamente.\n", path)
				updated++
			}
			return nil
		})
		if err != nil {
			return updated, err
		}
	}
	return updated, nil
}

func updateFile(path string, updates map[string]any) (bool, error) {
	fileContent, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	var data map[string]any
	if err := json.Unmarshal(fileContent, &data); err != nil {
		return false, err
	}

	modified := false
	for updateKey, updateValue := range updates {
		if _, ok := data[updateKey]; ok {
			data[updateKey] = updateValue
			modified = true
		}
	}
	if !modified {
		return false, nil
	}

	newJSON, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return false, err
	}
	return true, os.WriteFile(path, newJSON, 0644)
}
