package register

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Scopes.
const (
	ScopeProject = "project"
	ScopeUser    = "user"
)

const (
	projectConfigName = ".mcp.json"
	userConfigName    = ".claude.json"
	serversKey        = "mcpServers"
)

// Entry is one MCP server launch command in a client configuration file.
type Entry struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Options describes a registration.
type Options struct {
	Scope      string   // project or user
	Directory  string   // project directory; default "."
	ServerName string   // default derived from BinaryPath
	BinaryPath string   // default the running executable
	ServerArgs []string // forwarded to the server on launch
	HomeDir    string   // user scope base directory; default the user's home
}

// Register adds or replaces the server entry in the client configuration for the scope and
// returns the path of the file it wrote. Other entries and keys are preserved.
func Register(options Options) (string, error) {
	if options.Scope != ScopeProject && options.Scope != ScopeUser {
		return "", fmt.Errorf("unknown scope %q (must be %q or %q)", options.Scope, ScopeProject, ScopeUser)
	}
	if options.BinaryPath == "" {
		binaryPath, err := detectBinaryPath()
		if err != nil {
			return "", err
		}
		options.BinaryPath = binaryPath
	}
	if options.ServerName == "" {
		options.ServerName = DeriveServerName(options.BinaryPath)
	}

	configPath, err := ConfigPath(options.Scope, options.Directory, options.HomeDir)
	if err != nil {
		return "", err
	}
	if err := writeEntry(configPath, options.ServerName, BuildEntry(options.BinaryPath, options.ServerArgs)); err != nil {
		return "", err
	}
	return configPath, nil
}

// DeriveServerName extracts a server name from a binary path by stripping .exe and -mcp suffixes.
func DeriveServerName(binaryPath string) string {
	name := filepath.Base(binaryPath)
	name = strings.TrimSuffix(name, ".exe")
	name = strings.TrimSuffix(name, "-mcp")
	return name
}

// ConfigPath returns the configuration file for a scope: <directory>/.mcp.json for
// projects and <home>/.claude.json for the user.
func ConfigPath(scope, directory, homeDir string) (string, error) {
	if scope == ScopeProject {
		if directory == "" {
			directory = "."
		}
		absDir, err := filepath.Abs(directory)
		if err != nil {
			return "", fmt.Errorf("resolving directory %s: %w", directory, err)
		}
		return filepath.Join(absDir, projectConfigName), nil
	}
	if homeDir == "" {
		var err error
		if homeDir, err = os.UserHomeDir(); err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
	}
	return filepath.Join(homeDir, userConfigName), nil
}

// BuildEntry returns the launch command for the binary. On Windows the binary is started
// through cmd /C.
func BuildEntry(binaryPath string, serverArgs []string) Entry {
	if runtime.GOOS == "windows" {
		return Entry{Command: "cmd", Args: append([]string{"/C", binaryPath}, serverArgs...)}
	}
	return Entry{Command: binaryPath, Args: serverArgs}
}

func detectBinaryPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("getting executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", exe, err)
	}
	return resolved, nil
}

// writeEntry sets mcpServers.<name> in the file, creating it if needed, and replaces the
// file atomically.
func writeEntry(configPath, serverName string, entry Entry) error {
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist) || (err == nil && len(strings.TrimSpace(string(data))) == 0):
		data = []byte(`{}`)
	case err != nil:
		return fmt.Errorf("reading %s: %w", configPath, err)
	case !gjson.ValidBytes(data):
		return fmt.Errorf("parsing existing config %s: invalid JSON", configPath)
	}

	if servers := gjson.GetBytes(data, serversKey); servers.Exists() && !servers.IsObject() {
		return fmt.Errorf("%s in %s is not an object", serversKey, configPath)
	}

	output, err := sjson.SetBytes(data, serversKey+"."+escapeKey(serverName), entry)
	if err != nil {
		return fmt.Errorf("updating %s: %w", configPath, err)
	}
	output = pretty.Pretty(output)

	configDir := filepath.Dir(configPath)
	tmpFile, err := os.CreateTemp(configDir, ".mcp-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", configDir, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(output); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming %s to %s: %w", tmpPath, configPath, err)
	}
	return nil
}

// escapeKey escapes the characters sjson treats as path syntax.
func escapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', ':':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
