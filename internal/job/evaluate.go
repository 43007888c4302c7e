// Package job contains the scheduled orchestration: the risk evaluation job,
// the subscription garbage collector, and the scheduler that drives them.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dorjecito/thermosafe-sub000/internal/domain"
	"github.com/dorjecito/thermosafe-sub000/internal/observability"
)

// AuditSink receives one record per dispatch outcome. Implemented by the
// Kafka adapter; a nil sink disables auditing.
type AuditSink interface {
	Publish(ctx context.Context, rec domain.DispatchRecord) error
}

// Evaluation outcomes, used as metric label values and log fields.
const (
	outcomeDispatched       = "dispatched"
	outcomeSkippedNoToken   = "skipped_no_token"
	outcomeSkippedLevel     = "skipped_level"
	outcomeSkippedQuiet     = "skipped_quiet"
	outcomeSkippedDedup     = "skipped_dedup"
	outcomeSkippedThreshold = "skipped_threshold"
	outcomeWeatherError     = "weather_error"
	outcomeDispatchError    = "dispatch_error"
	outcomeStoreError       = "store_error"
)

// Evaluator runs one risk-evaluation pass per hazard family: load a bounded
// batch of subscriptions, evaluate each independently, dispatch where the
// notification policy allows, and persist dedup state.
type Evaluator struct {
	store      domain.SubscriptionStore
	weather    domain.WeatherProvider
	dispatcher domain.Dispatcher
	audit      AuditSink
	logger     *slog.Logger
	metrics    *observability.Metrics
	batchSize  int
}

// NewEvaluator creates an Evaluator. audit may be nil to disable the sink.
func NewEvaluator(
	store domain.SubscriptionStore,
	weather domain.WeatherProvider,
	dispatcher domain.Dispatcher,
	audit AuditSink,
	logger *slog.Logger,
	metrics *observability.Metrics,
	batchSize int,
) *Evaluator {
	return &Evaluator{
		store:      store,
		weather:    weather,
		dispatcher: dispatcher,
		audit:      audit,
		logger:     logger,
		metrics:    metrics,
		batchSize:  batchSize,
	}
}

// Run executes one evaluation pass for the given hazard family. Every
// subscription is evaluated independently and concurrently; one
// subscription's failure never aborts its siblings. Only a failure to load
// the batch fails the run itself.
func (e *Evaluator) Run(ctx context.Context, family domain.HazardFamily) error {
	start := time.Now()
	e.metrics.JobRunning.WithLabelValues("evaluation").Set(1)
	defer e.metrics.JobRunning.WithLabelValues("evaluation").Set(0)

	subs, err := e.store.GetBatch(ctx, e.batchSize)
	if err != nil {
		return fmt.Errorf("load subscription batch: %w", err)
	}
	if len(subs) == 0 {
		e.logger.Info("no subscriptions to evaluate", "hazard", family)
		return nil
	}

	tally := newTally()
	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub domain.Subscription) {
			defer wg.Done()
			outcome := e.evaluateOne(ctx, family, sub)
			tally.add(outcome)
			e.metrics.EvaluationOutcomes.WithLabelValues(string(family), outcome).Inc()
		}(sub)
	}
	wg.Wait()

	e.metrics.RunDuration.WithLabelValues("evaluation").Observe(time.Since(start).Seconds())
	e.logger.Info("evaluation run complete",
		"hazard", family,
		"subscriptions", len(subs),
		"dispatched", tally.get(outcomeDispatched),
		"skipped", tally.skipped(),
		"errors", tally.errored(),
	)
	return nil
}

// evaluateOne applies the full per-subscription pipeline: fetch weather,
// classify, gate, dispatch, persist. Returns the outcome for counters.
func (e *Evaluator) evaluateOne(ctx context.Context, family domain.HazardFamily, sub domain.Subscription) string {
	if sub.Token == "" {
		return outcomeSkippedNoToken
	}

	obs, err := e.weather.Current(ctx, sub.Lat, sub.Lon)
	if err != nil {
		e.metrics.WeatherRequests.WithLabelValues("error").Inc()
		e.logger.Warn("weather fetch failed, skipping subscription",
			"hazard", family, "token", domain.TokenDigest(sub.Token), "error", err)
		return outcomeWeatherError
	}
	e.metrics.WeatherRequests.WithLabelValues("success").Inc()

	a := domain.Assess(family, obs)
	if a.Level == 0 {
		return outcomeSkippedLevel
	}

	now := domain.Now()
	if domain.InQuietHours(now, obs.UTCOffsetSec) {
		return outcomeSkippedQuiet
	}
	localDay := domain.LocalDay(now, obs.UTCOffsetSec)
	if sub.LastNotifiedDayFor(family) == localDay {
		return outcomeSkippedDedup
	}
	if !domain.MeetsThreshold(a.Level, sub.Threshold) {
		return outcomeSkippedThreshold
	}

	sendStart := time.Now()
	err = e.dispatcher.Send(ctx, domain.Notification{
		Token:      sub.Token,
		Lang:       sub.Lang,
		Place:      sub.Place,
		Assessment: a,
	})
	e.metrics.DispatchDuration.WithLabelValues(string(family)).Observe(time.Since(sendStart).Seconds())
	if err != nil {
		// Invalid tokens are not deleted inline; the garbage collector owns
		// cleanup. Transient failures retry naturally on the next run.
		e.logger.Warn("dispatch failed",
			"hazard", family,
			"token", domain.TokenDigest(sub.Token),
			"invalid_token", errors.Is(err, domain.ErrInvalidToken),
			"error", err,
		)
		e.publishAudit(ctx, family, sub, a, outcomeDispatchError)
		return outcomeDispatchError
	}

	if err := e.store.MergeUpdate(ctx, sub.ID, sub.DedupFields(family, now, localDay)); err != nil {
		e.logger.Warn("dedup state write failed",
			"hazard", family, "token", domain.TokenDigest(sub.Token), "error", err)
		e.publishAudit(ctx, family, sub, a, outcomeStoreError)
		return outcomeStoreError
	}

	e.publishAudit(ctx, family, sub, a, outcomeDispatched)
	return outcomeDispatched
}

// TestPush dispatches a one-off notification for a single token, bypassing
// quiet hours, day dedup, and the subscriber's threshold. Used by the manual
// test endpoint.
func (e *Evaluator) TestPush(ctx context.Context, token string, family domain.HazardFamily) error {
	sub, err := e.store.Get(ctx, token)
	if err != nil {
		return err
	}

	obs, err := e.weather.Current(ctx, sub.Lat, sub.Lon)
	if err != nil {
		return err
	}

	return e.dispatcher.Send(ctx, domain.Notification{
		Token:      sub.Token,
		Lang:       sub.Lang,
		Place:      sub.Place,
		Assessment: domain.Assess(family, obs),
	})
}

func (e *Evaluator) publishAudit(ctx context.Context, family domain.HazardFamily, sub domain.Subscription, a domain.Assessment, outcome string) {
	if e.audit == nil {
		return
	}
	rec := domain.DispatchRecord{
		TokenDigest: domain.TokenDigest(sub.Token),
		Hazard:      string(family),
		Level:       a.Level,
		Value:       a.Value,
		Lang:        string(domain.NormalizeLang(sub.Lang)),
		Outcome:     outcome,
		At:          domain.Now(),
	}
	if err := e.audit.Publish(ctx, rec); err != nil {
		e.metrics.AuditPublishErrors.Inc()
		e.logger.Warn("audit publish failed", "error", err)
		return
	}
	e.metrics.AuditPublished.Inc()
}

// tally aggregates per-subscription outcomes for the run summary log.
type tally struct {
	mu     sync.Mutex
	counts map[string]int
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(outcome string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[outcome]++
}

func (t *tally) get(outcome string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[outcome]
}

func (t *tally) skipped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[outcomeSkippedNoToken] + t.counts[outcomeSkippedLevel] +
		t.counts[outcomeSkippedQuiet] + t.counts[outcomeSkippedDedup] +
		t.counts[outcomeSkippedThreshold]
}

func (t *tally) errored() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[outcomeWeatherError] + t.counts[outcomeDispatchError] + t.counts[outcomeStoreError]
}
