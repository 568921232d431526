package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/t77yq/cronmgr/internal/model"
	"github.com/t77yq/cronmgr/internal/testutil"
)

func TestNATSPublisher(t *testing.T) {
	_, js, cleanup := testutil.StartJetStream(t)
	defer cleanup()

	require.NoError(t, EnsureStream(js, "", "crontab.test"))
	// a second call finds the existing stream
	require.NoError(t, EnsureStream(js, "", "crontab.test"))

	publisher := NewNATSPublisher(js, "crontab.test.", zaptest.NewLogger(t))
	ctx := context.Background()

	t.Run("Subject", func(t *testing.T) {
		assert.Equal(t, "crontab.test.table.saved", publisher.Subject(model.EventTableSaved))
	})

	t.Run("Publish", func(t *testing.T) {
		event := model.NewTableEvent(model.EventTableSaved, "file:/tmp/tab")
		event.Records = 3
		require.NoError(t, publisher.Publish(ctx, event))

		msgs, err := testutil.ConsumeMessages(js, "crontab.test.table.saved", time.Second)
		require.NoError(t, err)
		require.Len(t, msgs, 1)

		var got model.TableEvent
		require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, 3, got.Records)
		assert.Equal(t, model.EventSeverityInfo, got.Severity)
	})

	t.Run("Invalid Event", func(t *testing.T) {
		assert.ErrorIs(t, publisher.Publish(ctx, &model.TableEvent{}), ErrInvalidEvent)
		assert.ErrorIs(t, publisher.Publish(ctx, nil), ErrInvalidEvent)
	})

	t.Run("Subscribe", func(t *testing.T) {
		sctx, cancel := context.WithCancel(ctx)
		defer cancel()

		received := make(chan *model.TableEvent, 1)
		require.NoError(t, publisher.Subscribe(sctx, func(e *model.TableEvent) {
			received <- e
		}))

		event := model.NewTableEvent(model.EventRecordFailing, "command").ForRecord(2, "* * * * * job 2> /tmp/err")
		require.NoError(t, publisher.Publish(ctx, event))

		select {
		case got := <-received:
			assert.Equal(t, event.ID, got.ID)
			require.NotNil(t, got.Index)
			assert.Equal(t, 2, *got.Index)
			assert.Equal(t, model.EventSeverityError, got.Severity)
		case <-time.After(5 * time.Second):
			t.Fatal("event not delivered")
		}
	})
}

func TestConnectNATS(t *testing.T) {
	t.Run("Connects And Creates Stream", func(t *testing.T) {
		s, js, cleanup := testutil.StartJetStream(t)
		defer cleanup()

		publisher, err := ConnectNATS(context.Background(), NATSConfig{
			URL:           s.ClientURL(),
			SubjectPrefix: "ops.cron",
		}, zaptest.NewLogger(t))
		require.NoError(t, err)
		defer publisher.Close()

		info, err := js.StreamInfo(DefaultStream)
		require.NoError(t, err)
		assert.Equal(t, []string{"ops.cron.>"}, info.Config.Subjects)
	})

	t.Run("Gives Up", func(t *testing.T) {
		_, err := ConnectNATS(context.Background(), NATSConfig{
			URL:         "nats://127.0.0.1:1",
			MaxAttempts: 2,
			Backoff: ExponentialBackoff{
				InitialDelay: 10 * time.Millisecond,
				MaxDelay:     20 * time.Millisecond,
				Multiplier:   2,
			},
		}, zaptest.NewLogger(t))
		assert.ErrorIs(t, err, ErrConnect)
	})

	t.Run("Nop Publisher", func(t *testing.T) {
		var p EventPublisher = NopPublisher{}
		assert.NoError(t, p.Publish(context.Background(), model.NewTableEvent(model.EventTableLoaded, "")))
		assert.NoError(t, p.Close())
	})
}
