package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerbook/internal/events"
)

type fakeReader struct {
	queue     []kafka.Message
	committed []int64
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.queue) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := f.queue[0]
	f.queue = f.queue[1:]
	return m, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

func message(t *testing.T, offset int64, e events.EntryEvent) kafka.Message {
	t.Helper()
	m, err := toMessage(e)
	require.NoError(t, err)
	m.Offset = offset
	return m
}

func TestToMessageKeysByEntry(t *testing.T) {
	e := events.NewEntryEvent(events.ActionCreated, 99)
	m, err := toMessage(e)
	require.NoError(t, err)
	assert.Equal(t, "99", string(m.Key))
	require.Len(t, m.Headers, 1)
	assert.Equal(t, e.ID.String(), string(m.Headers[0].Value))
}

func TestConsumeCommitsAfterHandling(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{
		message(t, 1, events.NewEntryEvent(events.ActionCreated, 1)),
		{Offset: 2, Value: []byte("garbage")},
		message(t, 3, events.NewEntryEvent(events.ActionDeleted, 1)),
	}}
	c := &Consumer{reader: r}

	ctx, cancel := context.WithCancel(context.Background())
	var seen []events.Action
	err := c.Consume(ctx, func(_ context.Context, e events.EntryEvent) error {
		seen = append(seen, e.Action)
		if len(seen) == 2 {
			cancel()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []events.Action{events.ActionCreated, events.ActionDeleted}, seen)
	assert.Equal(t, []int64{1, 2, 3}, r.committed)
}

func TestConsumeStopsWithoutCommitOnHandlerError(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{message(t, 5, events.NewEntryEvent(events.ActionUpdated, 2))}}
	c := &Consumer{reader: r}

	err := c.Consume(context.Background(), func(context.Context, events.EntryEvent) error {
		return errors.New("sheet unavailable")
	})
	assert.Error(t, err)
	assert.Empty(t, r.committed)
}
