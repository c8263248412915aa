package register

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/tidwall/gjson"
)

func Test_DeriveServerName(t *testing.T) {
	tests := []struct {
		name       string
		binaryPath string
		want       string
	}{
		{"strip -mcp suffix", "rest-api-mcp", "rest-api"},
		{"strip .exe and -mcp", "rest-api-mcp.exe", "rest-api"},
		{"no -mcp suffix passthrough", "myserver", "myserver"},
		{"only .exe suffix", "myserver.exe", "myserver"},
		{"codecontext-mcp", "codecontext-mcp", "codecontext"},
		{"full path stripped to base", "/usr/local/bin/codecontext-mcp", "codecontext"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveServerName(tt.binaryPath); got != tt.want {
				t.Errorf("DeriveServerName(%q) = %q, want %q", tt.binaryPath, got, tt.want)
			}
		})
	}
}

func Test_Register_ProjectCreatesFile(t *testing.T) {
	dir := t.TempDir()

	path, err := Register(Options{
		Scope:      ScopeProject,
		Directory:  dir,
		BinaryPath: "/usr/bin/codecontext-mcp",
		ServerArgs: []string{"--transport", "stdio"},
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if path != filepath.Join(dir, ".mcp.json") {
		t.Errorf("unexpected path %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading config: %v", err)
	}
	entry := gjson.GetBytes(data, "mcpServers.codecontext")
	if !entry.IsObject() {
		t.Fatalf("codecontext entry missing, got:\n%s", data)
	}
	if runtime.GOOS != "windows" && entry.Get("command").String() != "/usr/bin/codecontext-mcp" {
		t.Errorf("command = %s", entry.Get("command").String())
	}
}

func Test_Register_UpdatesAndPreserves(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ".mcp.json")
	initial := `{
  "theme": "dark",
  "mcpServers": {
    "other-server": {"command": "/usr/bin/other"},
    "ctx": {"command": "/old/path"}
  }
}`
	if err := os.WriteFile(configPath, []byte(initial), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Register(Options{Scope: ScopeProject, Directory: dir, ServerName: "ctx", BinaryPath: "/new/path"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	data, _ := os.ReadFile(configPath)
	if got := gjson.GetBytes(data, "theme").String(); got != "dark" {
		t.Errorf("unrelated key changed: %q", got)
	}
	if got := gjson.GetBytes(data, "mcpServers.other-server.command").String(); got != "/usr/bin/other" {
		t.Errorf("other-server command changed unexpectedly: %q", got)
	}
	if runtime.GOOS != "windows" {
		if got := gjson.GetBytes(data, "mcpServers.ctx.command").String(); got != "/new/path" {
			t.Errorf("ctx command = %q, want /new/path", got)
		}
		if gjson.GetBytes(data, "mcpServers.ctx.args").Exists() {
			t.Error("args should be omitted when empty")
		}
	}
}

func Test_Register_DottedServerName(t *testing.T) {
	dir := t.TempDir()

	path, err := Register(Options{Scope: ScopeProject, Directory: dir, ServerName: "ctx.v2", BinaryPath: "/bin/x"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	data, _ := os.ReadFile(path)
	if !gjson.GetBytes(data, `mcpServers.ctx\.v2`).IsObject() {
		t.Errorf("expected a single key with a dot, got:\n%s", data)
	}
}

func Test_Register_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ".mcp.json"), []byte("not valid json{{{"), 0644)

	if _, err := Register(Options{Scope: ScopeProject, Directory: dir, BinaryPath: "/bin/x"}); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func Test_Register_ServersNotObject(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ".mcp.json"), []byte(`{"mcpServers": []}`), 0644)

	if _, err := Register(Options{Scope: ScopeProject, Directory: dir, BinaryPath: "/bin/x"}); err == nil {
		t.Fatal("expected error when mcpServers is not an object")
	}
}

func Test_Register_UnknownScope(t *testing.T) {
	if _, err := Register(Options{Scope: "global", BinaryPath: "/bin/x"}); err == nil {
		t.Fatal("expected error for unknown scope")
	}
}

func Test_Register_UserScope(t *testing.T) {
	home := t.TempDir()

	path, err := Register(Options{Scope: ScopeUser, HomeDir: home, BinaryPath: "/bin/codecontext-mcp"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if path != filepath.Join(home, ".claude.json") {
		t.Errorf("unexpected path %s", path)
	}
}

func Test_BuildEntry(t *testing.T) {
	binaryPath := "/usr/local/bin/codecontext-mcp"
	serverArgs := []string{"--root", "/projects"}

	entry := BuildEntry(binaryPath, serverArgs)

	if runtime.GOOS == "windows" {
		want := []string{"/C", binaryPath, "--root", "/projects"}
		if entry.Command != "cmd" || !reflect.DeepEqual(entry.Args, want) {
			t.Errorf("entry = %+v", entry)
		}
		return
	}
	if entry.Command != binaryPath || !reflect.DeepEqual(entry.Args, serverArgs) {
		t.Errorf("entry = %+v", entry)
	}
}

func Test_ConfigPath_ProjectDefaultsToCurrentDir(t *testing.T) {
	got, err := ConfigPath(ScopeProject, "", "")
	if err != nil {
		t.Fatalf("ConfigPath() error: %v", err)
	}
	absDir, _ := filepath.Abs(".")
	if want := filepath.Join(absDir, ".mcp.json"); got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
}
