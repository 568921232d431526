package testutil

import (
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartJetStream(t *testing.T) {
	s, js, cleanup := StartJetStream(t)
	defer cleanup()

	assert.True(t, s.JetStreamEnabled())

	_, err := js.AccountInfo()
	require.NoError(t, err)

	_, err = js.AddStream(&nats.StreamConfig{Name: "PING", Subjects: []string{"ping.>"}})
	require.NoError(t, err)
	_, err = js.Publish("ping.one", []byte("1"))
	require.NoError(t, err)
}

func TestRunServerWithoutStore(t *testing.T) {
	s, err := RunServer("")
	require.NoError(t, err)
	defer s.Shutdown()

	assert.False(t, s.JetStreamEnabled())
}
