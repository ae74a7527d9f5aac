// Package transport abstracts the mesh radio link. The gateway only ever
// needs one operation: best-effort delivery of a text payload to a node or
// to everyone. No delivery guarantee exists at this layer; reliability, where
// needed, is built above it by the sync protocol's own acknowledgments.
package transport

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Broadcast is the destination for channel-wide sends.
const Broadcast = "^all"

// broadcastNum is the Meshtastic broadcast node number.
const broadcastNum uint32 = 0xFFFFFFFF

// Message is one inbound text payload from the mesh.
type Message struct {
	ID      string
	From    string
	To      string
	Channel string
	Content string
	RxTime  time.Time
}

// Handler consumes inbound messages. Handlers must not block for long; the
// transport delivers messages sequentially.
type Handler func(ctx context.Context, msg *Message)

// Transport is the narrow capability the rest of the gateway consumes.
type Transport interface {
	// SelfID returns this node's mesh address, e.g. "!a1b2c3d4".
	SelfID() string

	// Send delivers content to the node with address to, or to everyone when
	// to is Broadcast. Fire and forget: a nil return means the send was
	// issued, not that it arrived.
	Send(ctx context.Context, to string, content string) error

	// OnMessage registers the handler for inbound traffic. Must be called
	// before the transport starts receiving.
	OnMessage(h Handler)
}

// FormatNodeID renders a Meshtastic node number as the canonical "!%08x"
// address string.
func FormatNodeID(num uint32) string {
	return fmt.Sprintf("!%08x", num)
}

// ParseNodeID parses a "!%08x" address back into a node number.
func ParseNodeID(id string) (uint32, error) {
	if len(id) != 9 || id[0] != '!' {
		return 0, fmt.Errorf("invalid node id %q", id)
	}
	n, err := strconv.ParseUint(id[1:], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid node id %q: %w", id, err)
	}
	return uint32(n), nil
}
