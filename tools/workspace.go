package tools

import (
	"fmt"

	"github.com/petasbytes/go-threadexec/internal/sandbox"
)

// WorkspaceTools returns read_file, list_files and edit_file confined to the
// given roots. Empty roots default to the working directory.
func WorkspaceTools(readRoot, writeRoot string) ([]Tool, error) {
	sb, err := sandbox.New(readRoot, writeRoot)
	if err != nil {
		return nil, fmt.Errorf("workspace sandbox: %w", err)
	}
	return []Tool{readFileTool(sb), listFilesTool(sb), editFileTool(sb)}, nil
}
