package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/notify"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	fail bool
}

func (m *recordingMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("provider down")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestMailWorkerDrainsOnStop(t *testing.T) {
	t.Parallel()
	mailer := &recordingMailer{}
	w := NewMailWorker(mailer, zap.NewNop(), 16)
	w.Start(context.Background(), 2)

	for i := 0; i < 10; i++ {
		require.NoError(t, w.Enqueue(context.Background(), notify.Message{To: "a@example.com", Subject: "hi"}))
	}
	w.Stop()

	assert.Len(t, mailer.sent, 10)
	assert.ErrorIs(t, w.Enqueue(context.Background(), notify.Message{}), ErrStopped)
	w.Stop()
}

func TestMailWorkerQueueFull(t *testing.T) {
	t.Parallel()
	w := NewMailWorker(&recordingMailer{}, zap.NewNop(), 1)

	require.NoError(t, w.Enqueue(context.Background(), notify.Message{To: "a@example.com"}))
	assert.ErrorIs(t, w.Enqueue(context.Background(), notify.Message{To: "b@example.com"}), ErrQueueFull)
	w.Stop()
}

func TestMailWorkerSurvivesDeliveryFailure(t *testing.T) {
	t.Parallel()
	mailer := &recordingMailer{fail: true}
	w := NewMailWorker(mailer, zap.NewNop(), 4)
	w.Start(context.Background(), 1)

	require.NoError(t, w.Enqueue(context.Background(), notify.Message{To: "a@example.com"}))
	w.Stop()
	assert.Empty(t, mailer.sent)
}
