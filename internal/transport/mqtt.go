package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"meshbbs/internal/common"
	"meshbbs/internal/logging"
)

// MQTTConfig holds the broker settings for the Meshtastic JSON MQTT bridge.
type MQTTConfig struct {
	Broker    string // e.g. "tcp://mqtt.example.org:1883"
	Username  string
	Password  string
	TopicRoot string // e.g. "msh/US"
	Channel   string // Meshtastic channel name, e.g. "LongFast"
	NodeID    string // this gateway's node address, "!%08x"
}

// MQTTTransport bridges the gateway onto a Meshtastic mesh through the
// firmware's JSON MQTT uplink/downlink topics.
type MQTTTransport struct {
	cfg     MQTTConfig
	selfNum uint32
	client  mqtt.Client
	handler Handler
	logger  logging.Logger
}

// uplink is the JSON document the firmware publishes for received packets.
// payload is type-dependent; only "text" packets carry payload.text.
type uplink struct {
	ID        uint64          `json:"id"`
	From      uint32          `json:"from"`
	To        uint32          `json:"to"`
	Channel   int             `json:"channel"`
	Sender    string          `json:"sender"`
	Timestamp int64           `json:"timestamp"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

type textPayload struct {
	Text string `json:"text"`
}

// downlink is the JSON document accepted on the <root>/2/json/mqtt/ topic.
type downlink struct {
	From    uint32 `json:"from"`
	To      uint32 `json:"to"`
	Channel int    `json:"channel"`
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

// NewMQTTTransport builds the transport; Connect must be called before use.
func NewMQTTTransport(cfg MQTTConfig, logger logging.Logger) (*MQTTTransport, error) {
	selfNum, err := ParseNodeID(cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway node id: %w", err)
	}
	return &MQTTTransport{cfg: cfg, selfNum: selfNum, logger: logger}, nil
}

func (t *MQTTTransport) SelfID() string { return t.cfg.NodeID }

func (t *MQTTTransport) OnMessage(h Handler) { t.handler = h }

// Connect dials the broker and subscribes to the channel's uplink topic.
func (t *MQTTTransport) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(t.cfg.Broker).
		SetClientID("meshbbs-" + uuid.NewString()[:8]).
		SetUsername(t.cfg.Username).
		SetPassword(t.cfg.Password).
		SetAutoReconnect(true).
		SetOrderMatters(true).
		SetConnectRetry(true)

	opts.OnConnect = func(c mqtt.Client) {
		topic := t.uplinkTopic()
		token := c.Subscribe(topic, 0, t.onUplink)
		token.Wait()
		if err := token.Error(); err != nil {
			t.logger.Error(ctx, "mqtt subscribe failed", "topic", topic, "error", err)
			return
		}
		t.logger.Info(ctx, "mqtt connected", "broker", t.cfg.Broker, "topic", topic)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		t.logger.Warn(ctx, "mqtt connection lost", "error", err)
	}

	t.client = mqtt.NewClient(opts)
	token := t.client.Connect()
	token.Wait()
	return token.Error()
}

// Close disconnects from the broker.
func (t *MQTTTransport) Close() {
	if t.client != nil {
		t.client.Disconnect(250)
	}
}

// Send publishes a sendtext downlink. The radio link itself gives no
// delivery feedback; only broker publish errors surface here.
func (t *MQTTTransport) Send(ctx context.Context, to string, content string) error {
	if t.client == nil || !t.client.IsConnected() {
		return common.ErrNotConnected
	}

	toNum := broadcastNum
	if to != Broadcast {
		n, err := ParseNodeID(to)
		if err != nil {
			return err
		}
		toNum = n
	}

	body, err := json.Marshal(downlink{
		From:    t.selfNum,
		To:      toNum,
		Channel: 0,
		Type:    "sendtext",
		Payload: content,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal downlink: %w", err)
	}

	token := t.client.Publish(t.downlinkTopic(), 0, false, body)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	t.logger.Debug(ctx, "sent text", "to", to, "bytes", len(body))
	return nil
}

func (t *MQTTTransport) uplinkTopic() string {
	return t.cfg.TopicRoot + "/2/json/" + t.cfg.Channel + "/#"
}

func (t *MQTTTransport) downlinkTopic() string {
	return t.cfg.TopicRoot + "/2/json/mqtt/"
}

func (t *MQTTTransport) onUplink(_ mqtt.Client, raw mqtt.Message) {
	ctx := context.Background()

	msg, ok := decodeUplink(raw.Payload())
	if !ok {
		return
	}
	if t.handler == nil {
		return
	}
	t.handler(ctx, msg)
}

// decodeUplink maps a firmware JSON uplink to a Message. Non-text packets
// (position, telemetry, nodeinfo) return ok=false and are dropped.
func decodeUplink(raw []byte) (*Message, bool) {
	var u uplink
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, false
	}
	if u.Type != "text" {
		return nil, false
	}
	var p textPayload
	if err := json.Unmarshal(u.Payload, &p); err != nil || p.Text == "" {
		return nil, false
	}

	to := Broadcast
	if u.To != broadcastNum {
		to = FormatNodeID(u.To)
	}

	return &Message{
		ID:      strconv.FormatUint(u.ID, 10),
		From:    FormatNodeID(u.From),
		To:      to,
		Channel: strconv.Itoa(u.Channel),
		Content: p.Text,
		RxTime:  time.Unix(u.Timestamp, 0).UTC(),
	}, true
}
