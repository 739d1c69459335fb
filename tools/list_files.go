package tools

import (
	"context"

	"github.com/petasbytes/go-threadexec/internal/sandbox"
)

type ListFilesInput struct {
	Path     string `json:"path,omitempty" jsonschema_description:"Optional relative path to list files from (defaults to current directory)."`
	Page     int    `json:"page,omitempty" jsonschema_description:"1-based page number (default 1)."`
	PageSize int    `json:"page_size,omitempty" jsonschema_description:"Page size (default 200)."`
}

const defaultListFilesPageSize = 200

func listFilesTool(sb *sandbox.Sandbox) Tool {
	return Tool{
		Name:        "list_files",
		Description: "List names of files in a directory within the workspace (non-recursive). Directories end with a slash.",
		InputSchema: GenerateSchema[ListFilesInput](),
		Handler: Typed(func(_ context.Context, in ListFilesInput) ([]string, error) {
			return listFiles(sb, in)
		}),
	}
}

// listFiles returns one page of the sorted directory listing. Pages past the
// end are empty rather than an error.
func listFiles(sb *sandbox.Sandbox, in ListFilesInput) ([]string, error) {
	page := in.Page
	if page <= 0 {
		page = 1
	}
	pageSize := in.PageSize
	if pageSize <= 0 {
		pageSize = defaultListFilesPageSize
	}

	names, err := sb.List(in.Path)
	if err != nil {
		return nil, err
	}

	// Clamp and compare page numbers before multiplying so huge inputs can't
	// overflow.
	pageSize = min(pageSize, max(len(names), 1))
	pages := (len(names) + pageSize - 1) / pageSize
	if page-1 >= pages {
		return []string{}, nil
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, len(names))
	return names[start:end], nil
}
