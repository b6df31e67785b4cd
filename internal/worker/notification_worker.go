package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/notify"
	"github.com/spec-kit/shop-service/internal/service"
)

// ErrQueueFull is returned by Enqueue when the buffer is saturated.
var ErrQueueFull = errors.New("mail queue full")

// ErrStopped is returned by Enqueue after Stop.
var ErrStopped = errors.New("mail worker stopped")

// MailWorker delivers queued mail in the background so request handlers never wait on the provider.
type MailWorker struct {
	mailer notify.Mailer
	logger *zap.Logger

	mu      sync.RWMutex
	queue   chan notify.Message
	stopped bool
	wg      sync.WaitGroup
}

// NewMailWorker creates a worker with a buffer of size messages.
func NewMailWorker(mailer notify.Mailer, logger *zap.Logger, size int) *MailWorker {
	if size <= 0 {
		size = 1
	}
	return &MailWorker{mailer: mailer, logger: logger, queue: make(chan notify.Message, size)}
}

// Start launches n delivery goroutines. ctx bounds every send.
func (w *MailWorker) Start(ctx context.Context, n int) {
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		w.wg.Add(1)
		go w.run(ctx)
	}
}

// Enqueue schedules msg without blocking.
func (w *MailWorker) Enqueue(_ context.Context, msg notify.Message) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}
	select {
	case w.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop refuses new mail, drains what is queued and waits for the goroutines to exit.
func (w *MailWorker) Stop() {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.queue)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *MailWorker) run(ctx context.Context) {
	defer w.wg.Done()
	for msg := range w.queue {
		if err := w.mailer.Send(ctx, msg); err != nil {
			w.logger.Error("mail delivery failed",
				zap.String("to", msg.To),
				zap.String("subject", msg.Subject),
				zap.Error(err))
		}
	}
}

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
