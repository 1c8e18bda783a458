package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Transport delivers one message to one recipient. Best effort: the caller
// treats every failure as non-fatal.
type Transport interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Dispatcher drains the notification queue and fans deliveries out to the
// transport, one goroutine per recipient so a slow or failing recipient
// cannot hold up the others.
type Dispatcher struct {
	repo      Repository
	transport Transport
	logger    *zap.Logger
}

func NewDispatcher(repo Repository, transport Transport, logger ...*zap.Logger) *Dispatcher {
	l := zap.L().Named("notify.dispatcher")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notify.dispatcher")
	}
	return &Dispatcher{repo: repo, transport: transport, logger: l}
}

// Run polls until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context, pollInterval time.Duration) {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	d.logger.Info("notification dispatcher started", zap.Duration("poll_interval", pollInterval))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("notification dispatcher stopped")
			return
		case <-ticker.C:
			if err := d.DispatchPending(ctx); err != nil {
				d.logger.Error("dispatch pending notifications failed", zap.Error(err))
			}
		}
	}
}

// DispatchPending delivers one batch. Each recipient is independent: a
// delivery failure is logged, marked, and never propagated.
func (d *Dispatcher) DispatchPending(ctx context.Context) error {
	msgs, err := d.repo.ListPending(ctx, 50)
	if err != nil {
		return err
	}

	if len(msgs) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	for _, msg := range msgs {
		wg.Add(1)
		go func(m Message) {
			defer wg.Done()
			d.deliver(ctx, m)
		}(msg)
	}
	wg.Wait()

	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, m Message) {
	if err := d.transport.Send(ctx, m.RecipientChatID, m.Body); err != nil {
		d.logger.Error("notification delivery failed",
			zap.String("notification_id", m.ID),
			zap.Int64("chat_id", m.RecipientChatID),
			zap.Error(err),
		)
		if markErr := d.repo.MarkFailed(ctx, m.ID, err.Error()); markErr != nil {
			d.logger.Error("mark notification failed errored",
				zap.String("notification_id", m.ID),
				zap.Error(markErr),
			)
		}
		return
	}

	if err := d.repo.MarkSent(ctx, m.ID); err != nil {
		d.logger.Error("mark notification sent errored",
			zap.String("notification_id", m.ID),
			zap.Error(err),
		)
		return
	}

	d.logger.Debug("notification delivered",
		zap.String("notification_id", m.ID),
		zap.Int64("chat_id", m.RecipientChatID),
	)
}
