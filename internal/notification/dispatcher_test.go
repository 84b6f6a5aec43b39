package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lshop/accounts/internal/logging"
)

type recordingNotifier struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     []Message
}

func (n *recordingNotifier) Send(_ context.Context, msg Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.failures > 0 {
		n.failures--
		return errors.New("smtp unavailable")
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) snapshot() (int, []Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls, append([]Message(nil), n.sent...)
}

func fastOptions() DispatcherOptions {
	return DispatcherOptions{QueueSize: 8, Workers: 2, MaxRetries: 2, InitialInterval: time.Millisecond}
}

func TestDispatcherDeliversQueuedMessages(t *testing.T) {
	sender := &recordingNotifier{}
	d := NewDispatcher(sender, logging.Discard(), fastOptions())
	d.Start(context.Background())

	d.Dispatch(Message{Kind: KindAccountConfirmation, To: []string{"a@x.com"}})
	d.Dispatch(Message{Kind: KindAccountConfirmed, To: []string{"b@x.com"}})
	require.NoError(t, d.Close(context.Background()))

	_, sent := sender.snapshot()
	assert.Len(t, sent, 2)
}

func TestDispatcherRetriesTransientFailures(t *testing.T) {
	sender := &recordingNotifier{failures: 2}
	d := NewDispatcher(sender, logging.Discard(), fastOptions())
	d.Start(context.Background())

	d.Dispatch(Message{Kind: KindPasswordReset, To: []string{"a@x.com"}})
	require.NoError(t, d.Close(context.Background()))

	calls, sent := sender.snapshot()
	assert.Equal(t, 3, calls)
	assert.Len(t, sent, 1)
}

func TestDispatcherGivesUpAfterMaxRetries(t *testing.T) {
	sender := &recordingNotifier{failures: 100}
	d := NewDispatcher(sender, logging.Discard(), fastOptions())
	d.Start(context.Background())

	d.Dispatch(Message{Kind: KindPasswordReset, To: []string{"a@x.com"}})
	require.NoError(t, d.Close(context.Background()))

	calls, sent := sender.snapshot()
	assert.Equal(t, 3, calls)
	assert.Empty(t, sent)
}

func TestDispatcherNeverBlocksWhenFull(t *testing.T) {
	sender := &recordingNotifier{}
	d := NewDispatcher(sender, logging.Discard(), DispatcherOptions{QueueSize: 1, Workers: 1})

	// Workers are not started: the second message must be dropped, not block.
	done := make(chan struct{})
	go func() {
		d.Dispatch(Message{Kind: "first"})
		d.Dispatch(Message{Kind: "second"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}

	d.Start(context.Background())
	require.NoError(t, d.Close(context.Background()))
	_, sent := sender.snapshot()
	require.Len(t, sent, 1)
	assert.Equal(t, "first", sent[0].Kind)
}

func TestDispatcherDropsAfterClose(t *testing.T) {
	sender := &recordingNotifier{}
	d := NewDispatcher(sender, logging.Discard(), fastOptions())
	d.Start(context.Background())
	require.NoError(t, d.Close(context.Background()))

	assert.NotPanics(t, func() { d.Dispatch(Message{Kind: "late"}) })
	require.NoError(t, d.Close(context.Background()))
}

type capturePublisher struct {
	subject string
	data    []byte
}

func (p *capturePublisher) Publish(subject string, data []byte) error {
	p.subject = subject
	p.data = data
	return nil
}

func TestNATSNotifierPublishesJSON(t *testing.T) {
	pub := &capturePublisher{}
	n := NewNATSNotifier(pub, "notifications.email")

	msg := Message{Kind: KindAccountConfirmed, To: []string{"a@x.com"}, Subject: "hi", Body: "body"}
	require.NoError(t, n.Send(context.Background(), msg))

	assert.Equal(t, "notifications.email", pub.subject)
	var decoded Message
	require.NoError(t, json.Unmarshal(pub.data, &decoded))
	assert.Equal(t, msg, decoded)
}
