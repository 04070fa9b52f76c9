package chat

import "github.com/haasonsaas/breadcrumbs/pkg/models"

// TurnGroupKind discriminates the two group shapes.
type TurnGroupKind string

const (
	// GroupRegular wraps exactly one message.
	GroupRegular TurnGroupKind = "regular"

	// GroupToolUsage wraps a full tool-usage episode: the triggering
	// assistant message, its contiguous tool results, and an optional
	// trailing follow-up response.
	GroupToolUsage TurnGroupKind = "tool_usage"
)

// TurnGroup is a presentation-oriented grouping of raw messages. Groups
// are derived fresh on each projection and never persisted.
type TurnGroup struct {
	Kind TurnGroupKind

	// Message is the single wrapped message for regular groups.
	Message *models.Message

	// Request is the triggering assistant message for tool-usage groups;
	// its ToolCalls field carries the requests.
	Request *models.Message

	// Results are the tool-role messages answering the requests, in
	// transcript order.
	Results []models.Message

	// Response is the trailing follow-up assistant message, if one has
	// been produced. Nil while tool execution is still pending or when
	// the follow-up call failed without producing a message.
	Response *models.Message
}

// ToolNames returns the names of the tools requested by a tool-usage
// group, in issuance order.
func (g TurnGroup) ToolNames() []string {
	if g.Request == nil {
		return nil
	}
	names := make([]string, 0, len(g.Request.ToolCalls))
	for _, tc := range g.Request.ToolCalls {
		names = append(names, tc.Name)
	}
	return names
}

// Messages flattens the group back into its raw messages in transcript
// order.
func (g TurnGroup) Messages() []models.Message {
	if g.Kind == GroupRegular {
		if g.Message == nil {
			return nil
		}
		return []models.Message{*g.Message}
	}
	var out []models.Message
	if g.Request != nil {
		out = append(out, *g.Request)
	}
	out = append(out, g.Results...)
	if g.Response != nil {
		out = append(out, *g.Response)
	}
	return out
}

// GroupTurns projects a flat displayable message sequence into groups
// suitable for rendering a multi-step tool interaction as one collapsible
// unit.
//
// The projection is a single deterministic forward pass with no state
// between calls: every input message lands in exactly one group, so
// flattening the groups reproduces the input exactly.
func GroupTurns(msgs []models.Message) []TurnGroup {
	var groups []TurnGroup

	for i := 0; i < len(msgs); {
		msg := msgs[i]
		if msg.Role == models.RoleAssistant && msg.HasToolCalls() {
			group := TurnGroup{Kind: GroupToolUsage, Request: &msgs[i]}
			i++
			for i < len(msgs) && msgs[i].Role == models.RoleTool {
				group.Results = append(group.Results, msgs[i])
				i++
			}
			if i < len(msgs) && msgs[i].Role == models.RoleAssistant && !msgs[i].HasToolCalls() {
				group.Response = &msgs[i]
				i++
			}
			groups = append(groups, group)
			continue
		}
		groups = append(groups, TurnGroup{Kind: GroupRegular, Message: &msgs[i]})
		i++
	}

	return groups
}
