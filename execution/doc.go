// Package execution submits conversations to the thread execution service,
// polls them to completion and dispatches the tool calls they request.
//
// Invariant:
//   - each tool_use is answered by an assistant turn carrying the full
//     response content followed by a user turn with the matching tool_result,
//     appended in response order before the conversation is resubmitted.
//
// Flow:
//
//	submit -> poll(in_progress*) -> completed
//	  stop_reason != tool_use: done
//	  stop_reason == tool_use: run tools -> append turns -> submit -> poll ...
package execution
