package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	ev := SettingsChanged{
		ID:          "5f0c6f0e-8a51-4c53-a7de-0d4b5cc1d1a2",
		Fingerprint: "abc123",
		Sources:     []string{"site.yaml", "publish.yaml"},
		LoadedAt:    time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Settings:    json.RawMessage(`{"SITENAME":"Simon's Lanterns"}`),
	}

	data, err := Encode(ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"loaded_at":"2024-03-01T09:30:00Z"`)
	assert.Contains(t, string(data), `"settings":{"SITENAME":"Simon's Lanterns"}`)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, ev.Sources, got.Sources)
	assert.True(t, ev.LoadedAt.Equal(got.LoadedAt))
	assert.JSONEq(t, string(ev.Settings), string(got.Settings))
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), SettingsChanged{}))
	assert.NoError(t, p.Close())
}

func TestNewNATSPublisherRequiresURL(t *testing.T) {
	_, err := NewNATSPublisher("", "", nil)
	assert.Error(t, err)
}

func runNATS(t *testing.T) string {
	t.Helper()
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	srv := natsserver.RunServer(&opts)
	t.Cleanup(srv.Shutdown)
	return srv.ClientURL()
}

func TestNATSPublisherDelivers(t *testing.T) {
	url := runNATS(t)

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()
	sub, err := nc.SubscribeSync(DefaultSubject)
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	p, err := NewNATSPublisher(url, "", nil)
	require.NoError(t, err)
	defer p.Close()

	// serve hands Publish a context without a deadline
	ev := SettingsChanged{ID: "snap-1", Fingerprint: "abc123", Sources: []string{"site.yaml"}, Settings: json.RawMessage(`{}`)}
	require.NoError(t, p.Publish(context.Background(), ev))

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	got, err := Decode(msg.Data)
	require.NoError(t, err)
	assert.Equal(t, "snap-1", got.ID)
	assert.Equal(t, []string{"site.yaml"}, got.Sources)
}

func TestNATSPublisherCustomSubject(t *testing.T) {
	url := runNATS(t)

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()
	sub, err := nc.SubscribeSync("blog.settings")
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	p, err := NewNATSPublisher(url, "blog.settings", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Publish(ctx, SettingsChanged{ID: "snap-2"}))

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	assert.Contains(t, string(msg.Data), `"id":"snap-2"`)
	assert.NoError(t, p.Close())
}
