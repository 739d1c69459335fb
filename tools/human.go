package tools

// HumanInTheLoopName is reserved: calls to it are answered by a handler the
// caller supplies per execution, never by the registry.
const HumanInTheLoopName = "human_in_the_loop"

type HumanInput struct {
	Question string `json:"question" jsonschema_description:"What the assistant needs a human to answer, decide or approve."`
}

// HumanInTheLoopTool is descriptor-only; it has no Handler.
var HumanInTheLoopTool = Tool{
	Name:        HumanInTheLoopName,
	Description: "Ask a human for input, a decision or an approval before continuing. Use it when the task cannot proceed without information only the user has.",
	InputSchema: GenerateSchema[HumanInput](),
}
