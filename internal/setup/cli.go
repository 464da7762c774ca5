package setup

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// CLI runs the "setup" subcommands of the MCP server binary.
type CLI struct {
	out        io.Writer
	configPath string
}

// NewCLI creates a CLI writing to out. configPath overrides the per-OS client
// config location when non-empty.
func NewCLI(out io.Writer, configPath string) *CLI {
	return &CLI{out: out, configPath: configPath}
}

// Run executes one setup command.
func (c *CLI) Run(args []string) error {
	if len(args) == 0 {
		c.showHelp()
		return nil
	}

	switch args[0] {
	case "install":
		return c.install(args[1:])
	case "uninstall":
		return c.uninstall()
	case "status":
		return c.status()
	case "help", "--help", "-h":
		c.showHelp()
		return nil
	default:
		c.showHelp()
		return fmt.Errorf("unknown setup command: %s", args[0])
	}
}

func (c *CLI) showHelp() {
	fmt.Fprint(c.out, `Neurology Calculator MCP Server Setup

Usage:
  mcp-server setup <command> [options]

Commands:
  install     Register this server with the desktop MCP client
  uninstall   Remove the server entry from the desktop MCP client
  status      Show current setup status

Install options:
  --binary PATH     Server binary (default: this executable)
  --data-dir DIR    Data directory for the feedback database
`)
}

func (c *CLI) resolveConfigPath() (string, error) {
	if c.configPath != "" {
		return c.configPath, nil
	}
	return ClientConfigPath()
}

func (c *CLI) install(args []string) error {
	fs := flag.NewFlagSet("install", flag.ContinueOnError)
	fs.SetOutput(c.out)
	binary := fs.String("binary", "", "server binary")
	dataDir := fs.String("data-dir", "", "data directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *binary == "" {
		if exe, err := os.Executable(); err == nil {
			*binary = exe
		}
	}

	configPath, err := c.resolveConfigPath()
	if err != nil {
		return err
	}

	entry, err := Configure(Options{ConfigPath: configPath, BinaryPath: *binary, DataDir: *dataDir})
	if err != nil {
		return fmt.Errorf("failed to configure desktop client: %w", err)
	}

	fmt.Fprintf(c.out, "Configured %q in %s\n", ServerKey, configPath)
	fmt.Fprintf(c.out, "  command: %s\n", entry.Command)
	if dir := entry.Env[DataDirEnv]; dir != "" {
		fmt.Fprintf(c.out, "  data dir: %s\n", dir)
	}
	fmt.Fprintln(c.out, "Restart the desktop client to load the server.")
	return nil
}

func (c *CLI) uninstall() error {
	configPath, err := c.resolveConfigPath()
	if err != nil {
		return err
	}
	removed, err := Remove(configPath)
	if err != nil {
		return err
	}
	if removed {
		fmt.Fprintf(c.out, "Removed %q from %s\n", ServerKey, configPath)
	} else {
		fmt.Fprintf(c.out, "%q was not configured in %s\n", ServerKey, configPath)
	}
	return nil
}

func (c *CLI) status() error {
	configPath, err := c.resolveConfigPath()
	if err != nil {
		return err
	}
	st, err := GetStatus(configPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Client config: %s\n", st.ConfigPath)
	fmt.Fprintf(c.out, "Configured:    %t\n", st.Configured)
	if st.Configured {
		fmt.Fprintf(c.out, "Binary:        %s\n", st.BinaryPath)
	}
	fmt.Fprintf(c.out, "Data dir:      %s\n", st.DataDir)
	fmt.Fprintf(c.out, "Feedback DB:   %t\n", st.FeedbackDB)
	for _, issue := range st.Issues {
		fmt.Fprintf(c.out, "  ! %s\n", issue)
	}
	return nil
}
