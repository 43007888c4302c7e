package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dorjecito/thermosafe-sub000/internal/domain"
	"github.com/dorjecito/thermosafe-sub000/internal/observability"
)

// Deletion reasons, used as metric label values.
const (
	reasonEmptyToken   = "empty_token"
	reasonInvalidToken = "invalid_token"
	reasonStale        = "stale"
)

// Collector sweeps the subscription store and deletes records whose token is
// missing, provably dead, or whose subscriber has been inactive past the
// staleness horizon. Ambiguous probe results never delete.
type Collector struct {
	store       domain.SubscriptionStore
	dispatcher  domain.Dispatcher
	logger      *slog.Logger
	metrics     *observability.Metrics
	pageSize    int
	concurrency int
	staleAfter  time.Duration
}

// NewCollector creates a Collector.
func NewCollector(
	store domain.SubscriptionStore,
	dispatcher domain.Dispatcher,
	logger *slog.Logger,
	metrics *observability.Metrics,
	pageSize int,
	concurrency int,
	staleAfter time.Duration,
) *Collector {
	return &Collector{
		store:       store,
		dispatcher:  dispatcher,
		logger:      logger,
		metrics:     metrics,
		pageSize:    pageSize,
		concurrency: concurrency,
		staleAfter:  staleAfter,
	}
}

// Run executes one full sweep. Pages are scanned sequentially; records within
// a page are checked concurrently under a bounded semaphore so probe traffic
// to the push service stays capped. Delete failures are logged and skipped,
// never aborting the sweep.
func (c *Collector) Run(ctx context.Context) error {
	start := time.Now()
	c.metrics.JobRunning.WithLabelValues("gc").Set(1)
	defer c.metrics.JobRunning.WithLabelValues("gc").Set(0)

	counts := newTally()
	sem := make(chan struct{}, c.concurrency)
	cursor := ""
	checked := 0

	for {
		subs, next, err := c.store.ScanPage(ctx, c.pageSize, cursor)
		if err != nil {
			return fmt.Errorf("scan subscriptions: %w", err)
		}

		var wg sync.WaitGroup
		for _, sub := range subs {
			wg.Add(1)
			sem <- struct{}{}
			go func(sub domain.Subscription) {
				defer wg.Done()
				defer func() { <-sem }()
				c.checkOne(ctx, sub, counts)
			}(sub)
		}
		wg.Wait()

		checked += len(subs)
		if next == "" {
			break
		}
		cursor = next
	}

	c.metrics.RunDuration.WithLabelValues("gc").Observe(time.Since(start).Seconds())
	c.logger.Info("garbage collection sweep complete",
		"checked", checked,
		"deleted_empty_token", counts.get(reasonEmptyToken),
		"deleted_invalid_token", counts.get(reasonInvalidToken),
		"deleted_stale", counts.get(reasonStale),
	)
	return nil
}

// checkOne decides whether a single record should be deleted. Staleness is
// checked before probing so long-dead subscribers cost no push traffic.
func (c *Collector) checkOne(ctx context.Context, sub domain.Subscription, counts *tally) {
	c.metrics.GCChecked.Inc()

	if sub.Token == "" {
		c.delete(ctx, sub, reasonEmptyToken, counts)
		return
	}
	if sub.IsStale(domain.Now(), c.staleAfter) {
		c.delete(ctx, sub, reasonStale, counts)
		return
	}
	if !c.dispatcher.Probe(ctx, sub.Token) {
		c.delete(ctx, sub, reasonInvalidToken, counts)
		return
	}
}

func (c *Collector) delete(ctx context.Context, sub domain.Subscription, reason string, counts *tally) {
	if err := c.store.Delete(ctx, sub.ID); err != nil {
		c.logger.Warn("subscription delete failed",
			"key", sub.ID, "reason", reason, "error", err)
		return
	}
	c.metrics.GCDeleted.WithLabelValues(reason).Inc()
	counts.add(reason)
	c.logger.Debug("subscription deleted", "key", sub.ID, "reason", reason)
}
