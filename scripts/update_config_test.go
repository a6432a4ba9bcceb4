package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestParseUpdates(t *testing.T) {
	updates := ParseUpdates([]string{"ip_memory", "10.0.0.1", "frames", "16", "debug", "true"})

	if updates["ip_memory"] != "10.0.0.1" {
		t.Errorf("Expected ip as string, got %v", updates["ip_memory"])
	}
	if updates["frames"] != float64(16) {
		t.Errorf("Expected frames as number, got %v", updates["frames"])
	}
	if updates["debug"] != true {
		t.Errorf("Expected debug as bool, got %v", updates["debug"])
	}
}

func TestUpdateConfigs(t *testing.T) {
	root := t.TempDir()
	configDir := filepath.Join(root, "memoria", "configs")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	path := filepath.Join(configDir, "memoria.json")
	if err := os.WriteFile(path, []byte(`{"frames": 10, "pagers": 2}`), 0644); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	updated, err := UpdateConfigs(root, []string{"cpu", "memoria"}, map[string]any{"frames": 16, "ip_cpu": "1.2.3.4"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if updated != 1 {
		t.Errorf("Expected 1 updated file, got %d", updated)
	}

	content, _ := os.ReadFile(path)
	var data map[string]any
	if err := json.Unmarshal(content, &data); err != nil {
		t.Fatalf("Expected valid JSON, got: %v", err)
	}
	if data["frames"] != float64(16) || data["pagers"] != float64(2) {
		t.Errorf("Unexpected config %v", data)
	}
	if _, ok := data["ip_cpu"]; ok {
		t.Error("Expected missing keys not to be added")
	}
}
