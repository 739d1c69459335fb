package tools

import (
	"encoding/json"
	"strings"

	"github.com/petasbytes/go-threadexec/internal/sandbox"
)

type ReadFileInput struct {
	Path   string `json:"path" jsonschema_description:"Relative file path."`
	Offset int    `json:"offset,omitempty" jsonschema_description:"Line offset (0-based) to start reading from."`
	Limit  int    `json:"limit,omitempty" jsonschema_description:"Maximum lines to return from offset (default 200)."`
}

const (
	defaultReadFileLimit = 200
	truncationSentinel   = "-- truncated; use offset/limit to fetch more --\n"
	maxLineRunes         = 2000
	overallRuneCap       = 12_000
)

func readFileTool(sb *sandbox.Sandbox) Tool {
	return Tool{
		Name:        "read_file",
		Description: "Read the contents of a file addressed by a relative file path within the workspace. Directory paths and unsafe paths are rejected.",
		InputSchema: GenerateSchema[ReadFileInput](),
		Handler: Text(func(input json.RawMessage) (string, error) {
			return readFile(sb, input)
		}),
	}
}

func clampRunes(s string, n int) (string, bool) {
	r := []rune(s)
	if len(r) <= n {
		return s, false
	}
	return string(r[:n]), true
}

// readFile pages through a file by line. Results that don't cover the whole
// window end with truncationSentinel so the model knows to ask for more.
func readFile(sb *sandbox.Sandbox, input json.RawMessage) (string, error) {
	var in ReadFileInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", err
	}

	content, err := sb.ReadFile(in.Path)
	if err != nil {
		return "", err
	}

	limit := in.Limit
	if limit <= 0 {
		limit = defaultReadFileLimit
	}
	offset := max(in.Offset, 0)

	lines := strings.Split(content, "\n")
	offset = min(offset, len(lines))
	end := min(offset+limit, len(lines))

	truncated := end < len(lines)
	window := make([]string, 0, end-offset)
	for _, line := range lines[offset:end] {
		clamped, did := clampRunes(line, maxLineRunes)
		truncated = truncated || did
		window = append(window, clamped)
	}
	out := strings.Join(window, "\n")

	if capped, did := clampRunes(out, overallRuneCap); did {
		out = capped
		truncated = true
	}

	if truncated {
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += truncationSentinel
	}
	return out, nil
}
