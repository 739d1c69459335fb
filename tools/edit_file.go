package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/petasbytes/go-threadexec/internal/sandbox"
)

type EditFileInput struct {
	Path   string `json:"path" jsonschema_description:"Target relative file path"`
	OldStr string `json:"old_str" jsonschema_description:"Exact text to replace; must be present when editing an existing file."`
	NewStr string `json:"new_str" jsonschema_description:"New text to write or replace old_str with"`
}

func editFileTool(sb *sandbox.Sandbox) Tool {
	return Tool{
		Name: "edit_file",
		Description: `Create or modify a text file addressed by a relative path within the workspace.

When old_str is empty and the file doesn't exist, a new file is created.

When editing an existing file, all occurrences of old_str are replaced with new_str; old_str and new_str must be different.
`,
		InputSchema: GenerateSchema[EditFileInput](),
		Handler: Text(func(input json.RawMessage) (string, error) {
			return editFile(sb, input)
		}),
	}
}

func editFile(sb *sandbox.Sandbox, input json.RawMessage) (string, error) {
	var in EditFileInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", err
	}
	if in.Path == "" || in.OldStr == in.NewStr {
		return "", fmt.Errorf("invalid edit parameters")
	}

	old, err := sb.ReadWritable(in.Path)
	switch {
	case err != nil && in.OldStr == "":
		if err := sb.WriteFile(in.Path, in.NewStr); err != nil {
			return "", err
		}
		return fmt.Sprintf("Successfully created file %s", in.Path), nil
	case err != nil:
		return "", err
	case in.OldStr == "":
		return "", fmt.Errorf("old_str must be provided when editing an existing file")
	}

	updated := strings.ReplaceAll(old, in.OldStr, in.NewStr)
	if updated == old {
		return "", fmt.Errorf("old_str not found in file")
	}
	if err := sb.WriteFile(in.Path, updated); err != nil {
		return "", err
	}
	return "OK", nil
}
