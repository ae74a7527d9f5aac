package meshsync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"meshbbs/internal/logging"
)

// Discriminator marks a text payload as sync traffic. The BBS shares its
// radio channel with ordinary chatter, so anything without this tag is cheap
// to skip.
const Discriminator = "bbs_sync"

// envelope is the wire form of a SyncMessage.
type envelope struct {
	Type      string          `json:"type"`
	SyncType  SyncType        `json:"sync_type"`
	Sender    string          `json:"sender"`
	Recipient *string         `json:"recipient"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
	SyncID    string          `json:"sync_id"`
}

// Codec maps SyncMessages to and from the transport's text payload.
type Codec struct {
	logger logging.Logger
}

func NewCodec(logger logging.Logger) *Codec {
	return &Codec{logger: logger}
}

// Encode serializes a message to its JSON wire form.
func (c *Codec) Encode(m *SyncMessage) (string, error) {
	data := json.RawMessage("{}")
	if m.Payload != nil {
		raw, err := json.Marshal(m.Payload)
		if err != nil {
			return "", fmt.Errorf("failed to marshal %s payload: %w", m.Type, err)
		}
		data = raw
	}

	var recipient *string
	if m.Recipient != "" {
		recipient = &m.Recipient
	}

	env := envelope{
		Type:      Discriminator,
		SyncType:  m.Type,
		Sender:    m.Sender,
		Recipient: recipient,
		Data:      data,
		Timestamp: m.Timestamp.UTC().Format(time.RFC3339),
		SyncID:    m.SyncID,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return string(raw), nil
}

// Decode parses text into a SyncMessage. It returns nil, never an error,
// when the text is not sync traffic: unparseable JSON, a missing or wrong
// discriminator, an unknown sync kind, or a malformed payload. The shared
// channel carries plenty of non-sync traffic and none of it may crash the
// caller.
func (c *Codec) Decode(ctx context.Context, text string) *SyncMessage {
	var env envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return nil
	}
	if env.Type != Discriminator {
		return nil
	}
	if !knownSyncType(env.SyncType) {
		c.logger.Debug(ctx, "dropping unknown sync type", "sync_type", env.SyncType, "sender", env.Sender)
		return nil
	}

	ts, err := time.Parse(time.RFC3339, env.Timestamp)
	if err != nil {
		c.logger.Debug(ctx, "dropping sync message with bad timestamp", "timestamp", env.Timestamp, "sender", env.Sender)
		return nil
	}

	payload, ok := c.decodePayload(ctx, env.SyncType, env.Data)
	if !ok {
		return nil
	}

	recipient := ""
	if env.Recipient != nil {
		recipient = *env.Recipient
	}

	return &SyncMessage{
		Type:      env.SyncType,
		Sender:    env.Sender,
		Recipient: recipient,
		Timestamp: ts,
		SyncID:    env.SyncID,
		Payload:   payload,
	}
}

func (c *Codec) decodePayload(ctx context.Context, t SyncType, data json.RawMessage) (any, bool) {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	var (
		payload any
		err     error
	)
	switch t {
	case TypePeerDiscovery:
		p := &DiscoveryPayload{}
		err = json.Unmarshal(data, p)
		payload = p
	case TypePeerAnnounce:
		p := &AnnouncePayload{}
		err = json.Unmarshal(data, p)
		payload = p
	case TypeSyncRequest:
		p := &RequestPayload{}
		err = json.Unmarshal(data, p)
		payload = p
	case TypeSyncResponse:
		p := &ResponsePayload{}
		err = json.Unmarshal(data, p)
		payload = p
	case TypeSyncAck:
		p := &AckPayload{}
		err = json.Unmarshal(data, p)
		payload = p
	default:
		// Placeholder kinds carry no decoded payload.
		return nil, true
	}

	if err != nil {
		c.logger.Debug(ctx, "dropping sync message with bad payload", "sync_type", t, "error", err)
		return nil, false
	}
	return payload, true
}
