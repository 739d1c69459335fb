// Package sandbox confines the bundled file tools to a workspace root.
//
// Paths handed to a Sandbox are always relative. Absolute paths, parent
// traversal and symlink escapes are rejected, reads under .git/ and
// .threadexec/ are denied, and writes additionally refuse go.mod and go.sum at
// any depth.
package sandbox

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	CodeOutsideSandbox = "ERR_PATH_OUTSIDE_SANDBOX"
	CodeDeniedRead     = "ERR_DENIED_READ"
	CodeDeniedWrite    = "ERR_DENIED_WRITE"
	CodeNotAFile       = "ERR_NOT_A_FILE"
)

var (
	protectedDirs       = []string{".git", ".threadexec"}
	protectedWriteNames = []string{"go.mod", "go.sum"}
)

// PolicyError is a path policy violation. It renders as compact JSON so it can
// be returned to the model as a tool result verbatim.
type PolicyError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e PolicyError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

type Sandbox struct {
	readRoot  string
	writeRoot string
}

// New resolves the read and write roots. An empty readRoot means the working
// directory; an empty writeRoot means readRoot.
func New(readRoot, writeRoot string) (*Sandbox, error) {
	if readRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		readRoot = cwd
	}
	if writeRoot == "" {
		writeRoot = readRoot
	}

	r, err := resolveRoot(readRoot)
	if err != nil {
		return nil, fmt.Errorf("read root: %w", err)
	}
	w, err := resolveRoot(writeRoot)
	if err != nil {
		return nil, fmt.Errorf("write root: %w", err)
	}
	return &Sandbox{readRoot: r, writeRoot: w}, nil
}

func resolveRoot(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	// Roots that don't exist yet are kept as-is.
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return abs, nil
}

func (s *Sandbox) ReadRoot() string  { return s.readRoot }
func (s *Sandbox) WriteRoot() string { return s.writeRoot }

// ReadFile returns the content of a regular file under the read root.
func (s *Sandbox) ReadFile(rel string) (string, error) {
	abs, err := s.resolve(s.readRoot, rel, false)
	if err != nil {
		return "", err
	}
	return readRegular(abs)
}

// ReadWritable returns the content of a regular file under the write root,
// applying the write policy. Edits read through it so they modify the same
// file they write.
func (s *Sandbox) ReadWritable(rel string) (string, error) {
	abs, err := s.resolve(s.writeRoot, rel, true)
	if err != nil {
		return "", err
	}
	return readRegular(abs)
}

func readRegular(abs string) (string, error) {
	fi, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return "", PolicyError{Code: CodeNotAFile, Message: "path is a directory"}
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// List returns the sorted, non-recursive entries of a directory under the read
// root. Directories carry a trailing "/".
func (s *Sandbox) List(rel string) ([]string, error) {
	if rel == "" {
		rel = "."
	}
	abs, err := s.resolve(s.readRoot, rel, false)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// WriteFile writes content under the write root, creating parent directories.
func (s *Sandbox) WriteFile(rel, content string) error {
	abs, err := s.resolve(s.writeRoot, rel, true)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	return os.WriteFile(abs, []byte(content), 0o644)
}

func (s *Sandbox) resolve(root, rel string, write bool) (string, error) {
	if filepath.IsAbs(rel) {
		return "", PolicyError{Code: CodeOutsideSandbox, Message: "absolute paths are not allowed"}
	}

	candidate := filepath.Join(root, filepath.Clean(rel))

	// Resolve the leaf if it exists, otherwise its parent, so a symlinked
	// parent directory can't be used to step outside root.
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	} else if parent, err := filepath.EvalSymlinks(filepath.Dir(candidate)); err == nil {
		candidate = filepath.Join(parent, filepath.Base(candidate))
	}

	inside, err := filepath.Rel(root, candidate)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) || filepath.IsAbs(inside) {
		return "", PolicyError{Code: CodeOutsideSandbox, Message: "requested path resolves outside the sandbox root"}
	}

	slashed := filepath.ToSlash(inside)
	for _, dir := range protectedDirs {
		if slashed == dir || strings.HasPrefix(slashed, dir+"/") {
			if write {
				return "", PolicyError{Code: CodeDeniedWrite, Message: "writes under " + dir + "/ are not allowed"}
			}
			return "", PolicyError{Code: CodeDeniedRead, Message: "reads under " + dir + "/ are not allowed"}
		}
	}
	if write {
		base := filepath.Base(candidate)
		for _, name := range protectedWriteNames {
			if base == name {
				return "", PolicyError{Code: CodeDeniedWrite, Message: "writes to " + name + " are not allowed"}
			}
		}
	}
	return candidate, nil
}
