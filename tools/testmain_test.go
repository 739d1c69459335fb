package tools_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/petasbytes/go-threadexec/tools"
)

var (
	sharedDir string
	workspace *tools.Registry
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "tools-tests-")
	if err != nil {
		panic(err)
	}
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	sharedDir = dir

	ws, err := tools.WorkspaceTools(dir, dir)
	if err != nil {
		panic(err)
	}
	if workspace, err = tools.NewRegistry(ws...); err != nil {
		panic(err)
	}

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// Helper to create per-test relative paths
func rel(t *testing.T, elems ...string) string {
	return filepath.Join(append([]string{t.Name()}, elems...)...)
}

func callTool(t *testing.T, name string, in any) (json.RawMessage, error) {
	t.Helper()
	tool, err := workspace.Lookup(name)
	if err != nil {
		t.Fatalf("lookup %s: %v", name, err)
	}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}
	return tool.Handler.Call(context.Background(), b)
}

// callText runs a tool whose result is a JSON string and returns the string.
func callText(t *testing.T, name string, in any) (string, error) {
	t.Helper()
	raw, err := callTool(t, name, in)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("result is not a JSON string: %s", raw)
	}
	return s, nil
}
