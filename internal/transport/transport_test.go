package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParseNodeID(t *testing.T) {
	id := FormatNodeID(0xa1b2c3d4)
	assert.Equal(t, "!a1b2c3d4", id)

	n, err := ParseNodeID(id)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xa1b2c3d4), n)

	for _, bad := range []string{"", "a1b2c3d4", "!xyz", "!a1b2c3d4e5"} {
		_, err := ParseNodeID(bad)
		assert.Error(t, err, "id %q must not parse", bad)
	}
}

func TestDecodeUplink_TextPacket(t *testing.T) {
	raw := []byte(`{
		"id": 1234567,
		"from": 2712847316,
		"to": 4294967295,
		"channel": 0,
		"sender": "!a1b2c3d4",
		"timestamp": 1767225600,
		"type": "text",
		"payload": {"text": "hello mesh"}
	}`)

	msg, ok := decodeUplink(raw)
	require.True(t, ok)
	assert.Equal(t, "!a1b2c3d4", msg.From)
	assert.Equal(t, Broadcast, msg.To)
	assert.Equal(t, "hello mesh", msg.Content)
	assert.Equal(t, time.Unix(1767225600, 0).UTC(), msg.RxTime)
}

func TestDecodeUplink_DirectedPacket(t *testing.T) {
	raw := []byte(`{
		"from": 2712847316,
		"to": 305419896,
		"type": "text",
		"payload": {"text": "for you"}
	}`)

	msg, ok := decodeUplink(raw)
	require.True(t, ok)
	assert.Equal(t, "!12345678", msg.To)
}

func TestDecodeUplink_DropsNonText(t *testing.T) {
	cases := map[string][]byte{
		"telemetry":    []byte(`{"from":1,"to":2,"type":"telemetry","payload":{"battery_level":80}}`),
		"position":     []byte(`{"from":1,"to":2,"type":"position","payload":{"latitude_i":1}}`),
		"empty text":   []byte(`{"from":1,"to":2,"type":"text","payload":{"text":""}}`),
		"garbage":      []byte(`not json at all`),
		"null payload": []byte(`{"from":1,"to":2,"type":"text","payload":null}`),
	}
	for name, raw := range cases {
		_, ok := decodeUplink(raw)
		assert.False(t, ok, "%s must be dropped", name)
	}
}
