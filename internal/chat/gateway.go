package chat

import (
	"context"
	"errors"

	"github.com/haasonsaas/breadcrumbs/pkg/models"
)

// ErrEmptyResponse is returned by gateways that produced no assistant
// message at all.
var ErrEmptyResponse = errors.New("gateway returned an empty response")

// Gateway is the model boundary: given the full conversation history and
// an optional tool manifest, it returns exactly one assistant message.
//
// A nil tools slice means no tools are available; gateways must omit the
// manifest from the upstream request entirely in that case rather than
// sending an empty list.
//
// Implementations that stream internally must compose the stream into
// this single-message contract: deliver the full content as one unit
// after completion. Implementations must be safe for concurrent use.
type Gateway interface {
	// Respond requests the next assistant message. The returned message
	// has role assistant; ToolCalls is non-empty when the model requests
	// tool execution, in which case Content may be empty.
	Respond(ctx context.Context, history []models.Message, tools []Tool) (*models.Message, error)

	// Name returns the gateway name used for logging and metrics.
	Name() string
}
