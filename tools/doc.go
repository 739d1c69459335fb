// Package tools defines tool contracts, the registry and bundled tools.
//
// Includes:
//   - Tool: name, description, JSON input schema, handler.
//   - Handler: takes the raw JSON input of a tool_use entry, returns a JSON result or an error.
//   - Registry: name -> Tool lookup and descriptor serialization for execution requests.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - HumanInTheLoopTool: reserved descriptor whose handler is supplied by the caller.
//   - Workspace tools: read_file, list_files (non-recursive), edit_file.
package tools
