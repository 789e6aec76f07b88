package sntp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestQueryLogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	addr := fakeServer(t, replyWith(func(p *Packet) { p.Mode = ModeClient }))
	_, err := newTestClient(t, addr).Query()
	require.Error(t, err)

	failed := logs.FilterMessage("query failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.WarnLevel, failed[0].Level)
	assert.Equal(t, addr, failed[0].ContextMap()["server"])

	replies := logs.FilterMessage("reply").All()
	require.Len(t, replies, 1)
	pkt, ok := replies[0].ContextMap()["packet"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Client", pkt["Mode"])
}

func TestPacketMarshaler(t *testing.T) {
	p := &Packet{
		Version:      4,
		Mode:         ModeServer,
		RawStratum:   2,
		TransmitTime: NewTimestamp64(7, 8),
	}
	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, packetMarshaler{p}.MarshalLogObject(enc))
	assert.Equal(t, uint8(4), enc.Fields["Version"])
	assert.Equal(t, uint8(2), enc.Fields["Stratum"])
	assert.Equal(t, "Server", enc.Fields["Mode"])
	assert.Equal(t, map[string]interface{}{"Seconds": uint32(7), "Fraction": uint32(8)}, enc.Fields["TransmitTime"])
}
