package setup

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_PreservesOtherEntries(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "client", "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0755))
	require.NoError(t, os.WriteFile(configPath, []byte(`{
  "theme": "dark",
  "mcpServers": {"other": {"command": "/bin/other"}}
}`), 0644))

	entry, err := Configure(Options{ConfigPath: configPath, BinaryPath: "/opt/mcp-server", DataDir: "/var/neurocalc"})
	require.NoError(t, err)
	assert.Equal(t, "/opt/mcp-server", entry.Command)
	assert.Equal(t, "/var/neurocalc", entry.Env[DataDirEnv])

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "dark", raw["theme"])

	cfg, err := LoadClientConfig(configPath)
	require.NoError(t, err)
	assert.Contains(t, cfg.MCPServers, "other")
	assert.Equal(t, entry, cfg.MCPServers[ServerKey])
}

func TestLoadClientConfig(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		servers int
		wantErr bool
	}{
		{name: "missing file", servers: 0},
		{name: "no servers key", content: `{"theme":"light"}`, servers: 0},
		{name: "null servers", content: `{"mcpServers":null}`, servers: 0},
		{name: "one server", content: `{"mcpServers":{"a":{"command":"x"}}}`, servers: 1},
		{name: "invalid json", content: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "cfg", tt.name+".json")
			if tt.content != "" {
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			}

			cfg, err := LoadClientConfig(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, cfg.MCPServers)
			assert.Len(t, cfg.MCPServers, tt.servers)
		})
	}
}

func TestRemove(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	removed, err := Remove(configPath)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = Configure(Options{ConfigPath: configPath, BinaryPath: "/opt/mcp-server"})
	require.NoError(t, err)

	removed, err = Remove(configPath)
	require.NoError(t, err)
	assert.True(t, removed)

	cfg, err := LoadClientConfig(configPath)
	require.NoError(t, err)
	assert.NotContains(t, cfg.MCPServers, ServerKey)
}

func TestGetStatus(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "feedback.db"), nil, 0644))

	status, err := GetStatus(configPath)
	require.NoError(t, err)
	assert.False(t, status.Configured)
	assert.NotEmpty(t, status.Issues)

	_, err = Configure(Options{ConfigPath: configPath, BinaryPath: filepath.Join(dir, "missing-binary"), DataDir: dataDir})
	require.NoError(t, err)

	status, err = GetStatus(configPath)
	require.NoError(t, err)
	assert.True(t, status.Configured)
	assert.True(t, status.FeedbackDB)
	assert.Equal(t, dataDir, status.DataDir)
	require.Len(t, status.Issues, 1)
	assert.Contains(t, status.Issues[0], "not found")
}

func TestCLI(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	var out bytes.Buffer
	cli := NewCLI(&out, configPath)

	require.NoError(t, cli.Run([]string{"install", "--binary", "/opt/mcp-server", "--data-dir", "/tmp/nc"}))
	assert.Contains(t, out.String(), "Configured")

	out.Reset()
	require.NoError(t, cli.Run([]string{"status"}))
	assert.Contains(t, out.String(), "/opt/mcp-server")

	out.Reset()
	require.NoError(t, cli.Run([]string{"uninstall"}))
	assert.Contains(t, out.String(), "Removed")

	out.Reset()
	assert.Error(t, cli.Run([]string{"frobnicate"}))
	assert.Contains(t, out.String(), "Usage:")
}
