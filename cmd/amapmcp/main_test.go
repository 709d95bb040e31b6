package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateClientConfig(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		path     string
		existing string
		wantErr  bool
	}{
		{name: "valid path", path: filepath.Join(dir, "config.json")},
		{name: "nested directory", path: filepath.Join(dir, "nested", "claude", "config.json")},
		{name: "empty path", path: "", wantErr: true},
		{name: "non-json extension", path: filepath.Join(dir, "config.txt"), wantErr: true},
		{name: "path with ..", path: filepath.Join("..", "config.json"), wantErr: true},
		{
			name:     "merge with existing",
			path:     filepath.Join(dir, "merge.json"),
			existing: `{"existing_key":"existing_value","mcpServers":{"Other":{"command":"other"},"Amap":{"command":"old","env":{"AMAP_KEY":"kept"}}}}`,
		},
		{name: "invalid existing json", path: filepath.Join(dir, "broken.json"), existing: `{not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.existing != "" {
				require.NoError(t, os.WriteFile(tt.path, []byte(tt.existing), 0o600))
			}

			err := generateClientConfig(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			info, err := os.Stat(tt.path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

			data, err := os.ReadFile(tt.path)
			require.NoError(t, err)
			var config map[string]any
			require.NoError(t, json.Unmarshal(data, &config))

			servers, ok := config["mcpServers"].(map[string]any)
			require.True(t, ok, "mcpServers section")
			entry, ok := servers[serverEntryName].(map[string]any)
			require.True(t, ok, "Amap entry")
			assert.True(t, filepath.IsAbs(entry["command"].(string)))

			if tt.name == "merge with existing" {
				assert.Equal(t, "existing_value", config["existing_key"])
				assert.Contains(t, servers, "Other")
				assert.Equal(t, map[string]any{"AMAP_KEY": "kept"}, entry["env"])
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "amapmcp version")
}

func TestRunRejectsMissingKey(t *testing.T) {
	t.Setenv("AMAP_KEY", "")
	t.Setenv("AMAP_MAPS_API_KEY", "")
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	err := run(context.Background(), viper.New(), &options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key is required")
}

func TestRunGenerateConfigSkipsKeyCheck(t *testing.T) {
	t.Setenv("AMAP_KEY", "")
	path := filepath.Join(t.TempDir(), "claude.json")

	require.NoError(t, run(context.Background(), viper.New(), &options{generateConfig: path}))
	assert.FileExists(t, path)
}

func TestSetupMetricsDisabled(t *testing.T) {
	tel, err := setupMetrics("")
	require.NoError(t, err)
	assert.Nil(t, tel.server)
	assert.NotNil(t, tel.meter())
	assert.NoError(t, tel.shutdown(context.Background()))
}

func TestSetupMetricsEnabled(t *testing.T) {
	tel, err := setupMetrics("127.0.0.1:0")
	require.NoError(t, err)
	require.NotNil(t, tel.server)
	t.Cleanup(func() { _ = tel.shutdown(context.Background()) })

	counter, err := tel.meter().Int64Counter("test.counter")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)
}
