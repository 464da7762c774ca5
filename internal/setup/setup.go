// Package setup registers the neurology calculator MCP server with desktop
// MCP clients and reports on the local installation.
package setup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ServerKey is the entry name written under mcpServers.
const ServerKey = "neurocalc"

// DataDirEnv is passed to the server process so it finds its feedback database.
const DataDirEnv = "NEUROCALC_DATA_DIR"

// ClientConfig is the subset of a desktop MCP client config file we touch.
// Unknown top-level keys are preserved on save.
type ClientConfig struct {
	MCPServers map[string]ServerEntry `json:"mcpServers"`
	extra      map[string]json.RawMessage
}

// ServerEntry launches one MCP server over stdio.
type ServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options controls Configure.
type Options struct {
	ConfigPath string // Defaults to ClientConfigPath()
	BinaryPath string // Defaults to the first mcp-server found on PATH or in common locations
	DataDir    string
}

// Status describes the current installation.
type Status struct {
	ConfigPath string
	Configured bool
	BinaryPath string
	DataDir    string
	FeedbackDB bool
	Issues     []string
}

// ClientConfigPath returns the per-OS path of the desktop client config.
func ClientConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	var dir string
	switch runtime.GOOS {
	case "darwin":
		dir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			dir = filepath.Join(xdg, "Claude")
		} else {
			dir = filepath.Join(home, ".config", "Claude")
		}
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", errors.New("APPDATA environment variable not set")
		}
		dir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
	return filepath.Join(dir, "claude_desktop_config.json"), nil
}

// DefaultDataDir mirrors the lite server's default data directory.
func DefaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".neurocalc")
}

// LoadClientConfig reads path. A missing file yields an empty config.
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg := &ClientConfig{MCPServers: map[string]ServerEntry{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if servers, ok := raw["mcpServers"]; ok {
		if err := json.Unmarshal(servers, &cfg.MCPServers); err != nil {
			return nil, fmt.Errorf("failed to parse mcpServers: %w", err)
		}
		if cfg.MCPServers == nil {
			cfg.MCPServers = map[string]ServerEntry{}
		}
		delete(raw, "mcpServers")
	}
	cfg.extra = raw
	return cfg, nil
}

// SaveClientConfig writes cfg to path, creating the directory if needed.
func SaveClientConfig(path string, cfg *ClientConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := make(map[string]any, len(cfg.extra)+1)
	for k, v := range cfg.extra {
		out[k] = v
	}
	out["mcpServers"] = cfg.MCPServers

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Configure adds or replaces the calculator server entry and returns the
// entry written.
func Configure(opts Options) (ServerEntry, error) {
	configPath := opts.ConfigPath
	if configPath == "" {
		p, err := ClientConfigPath()
		if err != nil {
			return ServerEntry{}, err
		}
		configPath = p
	}

	cfg, err := LoadClientConfig(configPath)
	if err != nil {
		return ServerEntry{}, err
	}

	binary := opts.BinaryPath
	if binary == "" {
		binary, err = findBinary("mcp-server")
		if err != nil {
			return ServerEntry{}, fmt.Errorf("could not find server binary: %w", err)
		}
	}

	entry := ServerEntry{Command: binary}
	if opts.DataDir != "" {
		entry.Env = map[string]string{DataDirEnv: opts.DataDir}
	}
	cfg.MCPServers[ServerKey] = entry

	if err := SaveClientConfig(configPath, cfg); err != nil {
		return ServerEntry{}, err
	}
	return entry, nil
}

// Remove deletes the calculator server entry. It reports whether one existed.
func Remove(configPath string) (bool, error) {
	cfg, err := LoadClientConfig(configPath)
	if err != nil {
		return false, err
	}
	if _, ok := cfg.MCPServers[ServerKey]; !ok {
		return false, nil
	}
	delete(cfg.MCPServers, ServerKey)
	return true, SaveClientConfig(configPath, cfg)
}

// GetStatus inspects configPath and the data directory it points at.
func GetStatus(configPath string) (*Status, error) {
	status := &Status{ConfigPath: configPath, Issues: []string{}}

	cfg, err := LoadClientConfig(configPath)
	if err != nil {
		return nil, err
	}

	if entry, ok := cfg.MCPServers[ServerKey]; ok {
		status.Configured = true
		status.BinaryPath = entry.Command
		status.DataDir = entry.Env[DataDirEnv]

		info, err := os.Stat(entry.Command)
		switch {
		case err != nil:
			status.Issues = append(status.Issues, fmt.Sprintf("server binary not found: %s", entry.Command))
		case runtime.GOOS != "windows" && info.Mode()&0111 == 0:
			status.Issues = append(status.Issues, fmt.Sprintf("server binary is not executable: %s", entry.Command))
		}
	} else {
		status.Issues = append(status.Issues, "calculator server not configured in desktop client")
	}

	if status.DataDir == "" {
		status.DataDir = DefaultDataDir()
	}
	if _, err := os.Stat(filepath.Join(status.DataDir, "feedback.db")); err == nil {
		status.FeedbackDB = true
	}

	return status, nil
}

func findBinary(name string) (string, error) {
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	home, _ := os.UserHomeDir()
	for _, loc := range []string{
		"./" + name,
		"./build/" + name,
		filepath.Join(home, ".local", "bin", name),
		"/usr/local/bin/" + name,
	} {
		if _, err := os.Stat(loc); err == nil {
			if abs, err := filepath.Abs(loc); err == nil {
				return abs, nil
			}
			return loc, nil
		}
	}
	return "", fmt.Errorf("binary %q not found in common locations", name)
}
