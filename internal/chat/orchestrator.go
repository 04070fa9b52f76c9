package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/haasonsaas/breadcrumbs/internal/observability"
	"github.com/haasonsaas/breadcrumbs/pkg/models"
)

// State identifies where the orchestrator is within a turn.
type State int

const (
	// StateIdle means no request is in flight. Initial and terminal state
	// of every turn.
	StateIdle State = iota

	// StateAwaitingInitialResponse means a user message was appended and
	// the gateway has been asked for a response with the tool manifest.
	StateAwaitingInitialResponse

	// StateExecutingTools means the model requested tool calls and they
	// are being resolved through the registry, in issuance order.
	StateExecutingTools

	// StateAwaitingFollowupResponse means all tool calls are resolved and
	// the gateway has been asked again, this time without a tool manifest.
	StateAwaitingFollowupResponse
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingInitialResponse:
		return "awaiting_initial_response"
	case StateExecutingTools:
		return "executing_tools"
	case StateAwaitingFollowupResponse:
		return "awaiting_followup_response"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrBusy is returned by Clear while a turn is in flight.
	ErrBusy = errors.New("conversation busy: a turn is in flight")

	// ErrNoGateway is returned by Submit when no gateway is configured.
	ErrNoGateway = errors.New("no model gateway configured")
)

// Options configures an Orchestrator.
type Options struct {
	// SystemPrompt seeds the conversation with a system message. The seed
	// survives Clear and is excluded from Displayable.
	SystemPrompt string

	// ToolTimeout bounds each individual tool execution (0 = no limit).
	ToolTimeout time.Duration

	// ValidateArguments enables JSON Schema validation of tool-call
	// arguments against the tool's declared parameter schema before
	// dispatch. Rejections become tool-role messages, not errors.
	ValidateArguments bool

	// Logger receives structured logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics receives turn, gateway, and tool observations. Optional.
	Metrics *observability.Metrics

	// OnStateChange is invoked after every state transition. Called
	// outside the history lock, but a turn may still be in flight:
	// never re-enter the orchestrator from the callback. Optional.
	OnStateChange func(State)

	// OnMessage is invoked after every message appended to history.
	// Same reentrancy rule as OnStateChange. Optional.
	OnMessage func(models.Message)
}

// Orchestrator is the single authority over conversation history and the
// tool-augmented request/response protocol.
//
// One turn runs at a time: Submit serializes through a turn mutex, so
// concurrent Submit calls queue rather than interleave. History reads are
// allowed mid-turn; gateway calls and tool executions never hold the
// history lock.
type Orchestrator struct {
	gateway  Gateway
	registry *Registry
	opts     Options
	logger   *slog.Logger

	turnMu sync.Mutex

	mu      sync.RWMutex
	history []models.Message
	state   State
	lastErr error
}

// New creates an Orchestrator over the given gateway and registry. A nil
// registry is replaced with an empty one.
func New(gateway Gateway, registry *Registry, opts Options) *Orchestrator {
	if registry == nil {
		registry = NewRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		gateway:  gateway,
		registry: registry,
		opts:     opts,
		logger:   logger,
	}
	if opts.SystemPrompt != "" {
		o.history = append(o.history, models.NewSystemMessage(opts.SystemPrompt))
	}
	return o
}

// Submit runs one full turn: append the user message, ask the gateway,
// resolve any requested tool calls in issuance order, ask the gateway for
// a follow-up, and return to idle.
//
// Blank input (empty or whitespace-only) is a deliberate no-op. Gateway
// failures never propagate: they become a synthesized assistant message
// plus a recorded last error, and the conversation stays usable.
func (o *Orchestrator) Submit(ctx context.Context, userText string) error {
	text := strings.TrimSpace(userText)
	if text == "" {
		return nil
	}
	if o.gateway == nil {
		return ErrNoGateway
	}

	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	o.mu.Lock()
	o.lastErr = nil
	o.mu.Unlock()

	o.append(models.NewUserMessage(text))
	o.setState(StateAwaitingInitialResponse)
	defer o.setState(StateIdle)

	// Omit the manifest entirely when no tools are registered; some
	// gateways treat an empty-but-present manifest differently from an
	// absent one.
	var tools []Tool
	if o.registry.Len() > 0 {
		tools = o.registry.List()
	}

	reply, err := o.callGateway(ctx, tools)
	if err != nil {
		o.failTurn("initial gateway call failed", err)
		return nil
	}
	o.append(*reply)

	if !reply.HasToolCalls() {
		o.opts.Metrics.ObserveTurn("answered")
		return nil
	}

	// The assistant message with its requests is already in history, so
	// the request/response pairing stays visible even if execution fails
	// partway through.
	o.setState(StateExecutingTools)
	for _, tc := range reply.ToolCalls {
		o.append(o.resolveToolCall(ctx, tc))
	}

	// Tools are single-level per turn: the follow-up call carries no
	// manifest, so the response must be a final answer.
	o.setState(StateAwaitingFollowupResponse)
	followup, err := o.callGateway(ctx, nil)
	if err != nil {
		o.failTurn("follow-up gateway call failed", err)
		return nil
	}
	o.append(*followup)
	o.opts.Metrics.ObserveTurn("tool_round_trip")
	return nil
}

// Clear truncates history back to the seed system message, if any, and
// resets the recorded last error. Returns ErrBusy while a turn is in
// flight.
func (o *Orchestrator) Clear() error {
	if !o.turnMu.TryLock() {
		return ErrBusy
	}
	defer o.turnMu.Unlock()

	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.history) > 0 && o.history[0].Role == models.RoleSystem {
		o.history = o.history[:1]
	} else {
		o.history = nil
	}
	o.lastErr = nil
	return nil
}

// History returns a copy of the full message history, including the seed
// system message.
func (o *Orchestrator) History() []models.Message {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]models.Message, len(o.history))
	copy(out, o.history)
	return out
}

// Displayable returns the history without the seed system message. Tool
// messages are included; how they are surfaced is the grouping
// projector's decision, not the filter's.
func (o *Orchestrator) Displayable() []models.Message {
	o.mu.RLock()
	defer o.mu.RUnlock()
	msgs := o.history
	if len(msgs) > 0 && msgs[0].Role == models.RoleSystem {
		msgs = msgs[1:]
	}
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out
}

// State returns the current orchestrator state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// IsProcessing reports whether a turn is in flight.
func (o *Orchestrator) IsProcessing() bool {
	return o.State() != StateIdle
}

// LastError returns the failure recorded during the most recent turn, or
// nil if it completed cleanly.
func (o *Orchestrator) LastError() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastErr
}

// callGateway asks the gateway for the next assistant message against a
// snapshot of history. The history lock is never held across the call.
func (o *Orchestrator) callGateway(ctx context.Context, tools []Tool) (*models.Message, error) {
	start := time.Now()
	reply, err := o.gateway.Respond(ctx, o.History(), tools)
	o.opts.Metrics.ObserveLLMRequest(o.gateway.Name(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return nil, ErrEmptyResponse
	}
	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now()
	}
	if reply.Role != models.RoleAssistant {
		return nil, fmt.Errorf("gateway returned %q message, want assistant", reply.Role)
	}
	if err := reply.Validate(); err != nil {
		return nil, fmt.Errorf("gateway returned malformed message: %w", err)
	}
	return reply, nil
}

// failTurn records a gateway failure and surfaces it in the transcript as
// an assistant message, keeping the conversation usable.
func (o *Orchestrator) failTurn(stage string, err error) {
	o.logger.Error("turn failed", "stage", stage, "gateway", o.gateway.Name(), "error", err)
	o.mu.Lock()
	o.lastErr = err
	o.mu.Unlock()
	o.append(models.NewAssistantMessage(
		fmt.Sprintf("I ran into a problem reaching the language model: %v. Please try again.", err)))
	o.opts.Metrics.ObserveTurn("gateway_error")
}

// resolveToolCall turns one tool-call request into its answering
// tool-role message. Parse failures, schema rejections, unknown tools,
// and execution failures all become message content; nothing is fatal to
// the turn.
func (o *Orchestrator) resolveToolCall(ctx context.Context, tc models.ToolCall) models.Message {
	args, err := normalizeArguments(tc.Input)
	if err != nil {
		o.logger.Warn("tool arguments unparseable", "tool", tc.Name, "error", err)
		o.opts.Metrics.ObserveToolExecution(tc.Name, 0, true)
		return models.NewToolResultMessage(fmt.Sprintf("invalid tool arguments: %v", err), tc.ID)
	}

	if o.opts.ValidateArguments {
		if err := o.validateArguments(tc.Name, args); err != nil {
			o.logger.Warn("tool arguments rejected by schema", "tool", tc.Name, "error", err)
			o.opts.Metrics.ObserveToolExecution(tc.Name, 0, true)
			return models.NewToolResultMessage(
				fmt.Sprintf("arguments rejected by schema for %s: %v", tc.Name, err), tc.ID)
		}
	}

	execCtx := ctx
	if o.opts.ToolTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, o.opts.ToolTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := o.registry.Execute(execCtx, tc.Name, args)
	if err != nil {
		res = &ToolResult{Content: fmt.Sprintf("execution failed: %v", err), IsError: true}
	}
	o.opts.Metrics.ObserveToolExecution(tc.Name, time.Since(start), res.IsError)
	o.logger.Debug("tool call resolved", "tool", tc.Name, "tool_call_id", tc.ID, "is_error", res.IsError)
	return models.NewToolResultMessage(res.Content, tc.ID)
}

// validateArguments checks args against the named tool's parameter
// schema. An unknown tool is not a validation failure; Execute reports
// not-found with its own message. A tool with an uncompilable schema is
// skipped rather than blocked.
func (o *Orchestrator) validateArguments(name string, args json.RawMessage) error {
	tool, ok := o.registry.Get(name)
	if !ok {
		return nil
	}
	raw := tool.Schema()
	if len(raw) == 0 {
		return nil
	}
	compiled, err := jsonschema.CompileString(name+".schema.json", string(raw))
	if err != nil {
		o.logger.Warn("tool schema does not compile", "tool", name, "error", err)
		return nil
	}
	var v any
	if err := json.Unmarshal(args, &v); err != nil {
		return err
	}
	return compiled.Validate(v)
}

// normalizeArguments parses a raw argument payload. An empty payload, the
// literal empty object, and JSON null all mean "no arguments". Anything
// else must be a JSON object.
func normalizeArguments(raw json.RawMessage) (json.RawMessage, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "{}" || text == "null" {
		return json.RawMessage(`{}`), nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, fmt.Errorf("expected a JSON object: %w", err)
	}
	return json.RawMessage(text), nil
}

// append adds a message to history and notifies the observer.
func (o *Orchestrator) append(msg models.Message) {
	o.mu.Lock()
	o.history = append(o.history, msg)
	o.mu.Unlock()
	if o.opts.OnMessage != nil {
		o.opts.OnMessage(msg)
	}
}

// setState transitions the state machine and notifies the observer.
func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	if o.opts.OnStateChange != nil {
		o.opts.OnStateChange(s)
	}
}
