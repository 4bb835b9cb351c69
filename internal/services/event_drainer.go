package services

import (
	"context"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/meetsync/backend/internal/infrastructure/buffer"
)

// BusHealth abstracts the connection monitor functionality.
type BusHealth interface {
	BusOnline() bool
}

// DrainerConfig controls how frequently the event buffer is drained.
type DrainerConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// EventDrainer replays buffered envelopes onto the bus once it is reachable
// again. Replayed events may duplicate ones already delivered; consumers
// apply them idempotently.
type EventDrainer struct {
	store   *buffer.Store
	bus     *redislib.Client
	monitor BusHealth
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     DrainerConfig
}

func NewEventDrainer(
	store *buffer.Store,
	bus *redislib.Client,
	monitor BusHealth,
	logger *zap.Logger,
	cfg DrainerConfig,
) *EventDrainer {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &EventDrainer{
		store:   store,
		bus:     bus,
		monitor: monitor,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = d.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := d.Drain(ctx); err != nil {
			d.logger.Error("event buffer drain failed", zap.Error(err))
		}
	})

	return d
}

// Start launches the cron scheduler.
func (d *EventDrainer) Start() {
	if d == nil || d.cron == nil {
		return
	}
	d.cron.Start()
	d.logger.Info("event drainer started")
}

// Stop gracefully stops the scheduler.
func (d *EventDrainer) Stop(ctx context.Context) {
	if d == nil || d.cron == nil {
		return
	}
	stopCtx := d.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	d.logger.Info("event drainer stopped")
}

// Drain republishes buffered envelopes in enqueue order.
func (d *EventDrainer) Drain(ctx context.Context) error {
	if d == nil || d.store == nil {
		return nil
	}
	if d.monitor != nil && !d.monitor.BusOnline() {
		d.logger.Debug("skipping event drain (bus offline)")
		return nil
	}

	if d.cfg.Retention > 0 {
		if err := d.store.Cleanup(time.Now().Add(-d.cfg.Retention)); err != nil {
			d.logger.Warn("event buffer cleanup failed", zap.Error(err))
		}
	}

	items, err := d.store.GetBatch(d.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := d.bus.Publish(ctx, item.Channel, []byte(item.Body)).Err(); err != nil {
			d.logger.Error("failed to replay buffered event",
				zap.String("item_id", item.ID),
				zap.String("channel", item.Channel),
				zap.Error(err))

			item.Retries++
			if item.Retries >= d.cfg.MaxRetries {
				d.logger.Warn("dropping buffered event (max retries reached)", zap.String("item_id", item.ID))
				_ = d.store.Remove(item)
				continue
			}

			if err := d.store.Remove(item); err != nil {
				d.logger.Warn("failed to remove buffered event", zap.Error(err))
			}
			if err := d.store.Requeue(item); err != nil {
				d.logger.Error("failed to requeue buffered event", zap.Error(err))
			}
			continue
		}

		if err := d.store.Remove(item); err != nil {
			d.logger.Warn("failed to purge replayed event", zap.Error(err))
		}
	}
	return nil
}

// PendingEvents returns the number of buffered envelopes.
func (d *EventDrainer) PendingEvents() int {
	if d == nil || d.store == nil {
		return 0
	}
	size, err := d.store.Size()
	if err != nil {
		return 0
	}
	return size
}
