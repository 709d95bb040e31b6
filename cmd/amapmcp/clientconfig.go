package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// serverEntryName is the key of this server under mcpServers.
const serverEntryName = "Amap"

// generateClientConfig creates or updates a Claude Desktop Client config file
func generateClientConfig(outputPath string) error {
	logger := slog.Default()

	if outputPath == "" {
		return errors.New("output path must not be empty")
	}
	if !strings.EqualFold(filepath.Ext(outputPath), ".json") {
		return fmt.Errorf("config file must have a .json extension: %s", outputPath)
	}
	if strings.Contains(filepath.ToSlash(outputPath), "..") {
		return fmt.Errorf("config path must not contain '..': %s", outputPath)
	}

	// Get absolute path to executable
	execPath, err := os.Executable()
	if err != nil {
		execPath = os.Args[0]
	}
	absExecPath, err := filepath.Abs(execPath)
	if err != nil {
		absExecPath = execPath
	}

	var config map[string]any
	if data, err := os.ReadFile(outputPath); err == nil {
		if err := json.Unmarshal(data, &config); err != nil {
			logger.Warn("existing config is not valid JSON, will create new", "error", err)
			config = nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read existing config: %w", err)
	}
	if config == nil {
		config = make(map[string]any)
	}

	mcpServers, ok := config["mcpServers"].(map[string]any)
	if !ok {
		mcpServers = make(map[string]any)
		config["mcpServers"] = mcpServers
	}

	entry := map[string]any{
		"command": absExecPath,
		"args":    []string{},
	}
	// keep a previously configured key
	if prev, ok := mcpServers[serverEntryName].(map[string]any); ok {
		if env, ok := prev["env"]; ok {
			entry["env"] = env
		}
	}
	if _, ok := entry["env"]; !ok {
		entry["env"] = map[string]string{"AMAP_KEY": ""}
	}
	mcpServers[serverEntryName] = entry

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
