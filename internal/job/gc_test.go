package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorjecito/thermosafe-sub000/internal/domain"
	"github.com/dorjecito/thermosafe-sub000/internal/observability"
)

func newCollector(store *fakeStore, dispatcher *fakeDispatcher) *Collector {
	return NewCollector(store, dispatcher,
		discardLogger(), observability.NewMetricsForTesting(),
		500, 10, 90*24*time.Hour)
}

func TestCollectorDeletesEmptyToken(t *testing.T) {
	freezeClock(t, time.Date(2026, 7, 15, 3, 0, 0, 0, time.UTC))

	sub := subscription("doc-1", 41.98, domain.ThresholdModerate)
	sub.Token = ""
	store := newFakeStore(sub)
	dispatcher := &fakeDispatcher{}

	gc := newCollector(store, dispatcher)
	require.NoError(t, gc.Run(context.Background()))

	assert.Equal(t, []string{"doc-1"}, store.deletedKeys())
	assert.Empty(t, dispatcher.probedTokens(), "no probe without a token")
}

func TestCollectorDeletesInvalidToken(t *testing.T) {
	freezeClock(t, time.Date(2026, 7, 15, 3, 0, 0, 0, time.UTC))

	store := newFakeStore(
		subscription("tok-dead", 41.98, domain.ThresholdModerate),
		subscription("tok-live", 41.98, domain.ThresholdModerate),
	)
	dispatcher := &fakeDispatcher{probeInvalid: map[string]bool{"tok-dead": true}}

	gc := newCollector(store, dispatcher)
	require.NoError(t, gc.Run(context.Background()))

	assert.Equal(t, []string{"tok-dead"}, store.deletedKeys())
	assert.ElementsMatch(t, []string{"tok-dead", "tok-live"}, dispatcher.probedTokens())
}

func TestCollectorDeletesStaleWithoutProbing(t *testing.T) {
	freezeClock(t, time.Date(2026, 7, 15, 3, 0, 0, 0, time.UTC))

	sub := subscription("tok-old", 41.98, domain.ThresholdModerate)
	sub.CreatedAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) // 136 days
	store := newFakeStore(sub)
	dispatcher := &fakeDispatcher{}

	gc := newCollector(store, dispatcher)
	require.NoError(t, gc.Run(context.Background()))

	assert.Equal(t, []string{"tok-old"}, store.deletedKeys())
	assert.Empty(t, dispatcher.probedTokens(), "stale records skip the probe")
}

func TestCollectorRecentDispatchKeepsStaleRecord(t *testing.T) {
	freezeClock(t, time.Date(2026, 7, 15, 3, 0, 0, 0, time.UTC))

	sub := subscription("tok-1", 41.98, domain.ThresholdModerate)
	sub.CreatedAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lastCold := time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)
	sub.LastColdNotified = &lastCold
	store := newFakeStore(sub)
	dispatcher := &fakeDispatcher{}

	gc := newCollector(store, dispatcher)
	require.NoError(t, gc.Run(context.Background()))

	assert.Empty(t, store.deletedKeys(), "any family's dispatch counts as activity")
}

func TestCollectorKeepsAmbiguousProbe(t *testing.T) {
	freezeClock(t, time.Date(2026, 7, 15, 3, 0, 0, 0, time.UTC))

	// Probe returns true for unknown outcomes, so a healthy fake suffices:
	// only an unambiguous invalid signal deletes.
	store := newFakeStore(subscription("tok-1", 41.98, domain.ThresholdModerate))
	dispatcher := &fakeDispatcher{}

	gc := newCollector(store, dispatcher)
	require.NoError(t, gc.Run(context.Background()))

	assert.Empty(t, store.deletedKeys())
}

func TestCollectorPaginates(t *testing.T) {
	freezeClock(t, time.Date(2026, 7, 15, 3, 0, 0, 0, time.UTC))

	var subs []domain.Subscription
	for _, id := range []string{"tok-a", "tok-b", "tok-c", "tok-d", "tok-e"} {
		subs = append(subs, subscription(id, 41.98, domain.ThresholdModerate))
	}
	store := newFakeStore(subs...)
	dispatcher := &fakeDispatcher{probeInvalid: map[string]bool{"tok-e": true}}

	gc := NewCollector(store, dispatcher,
		discardLogger(), observability.NewMetricsForTesting(),
		2, 10, 90*24*time.Hour)
	require.NoError(t, gc.Run(context.Background()))

	assert.Len(t, dispatcher.probedTokens(), 5, "all pages visited")
	assert.Equal(t, []string{"tok-e"}, store.deletedKeys())
}

func TestCollectorDeleteFailureContinuesSweep(t *testing.T) {
	freezeClock(t, time.Date(2026, 7, 15, 3, 0, 0, 0, time.UTC))

	store := newFakeStore(
		subscription("tok-a", 41.98, domain.ThresholdModerate),
		subscription("tok-b", 41.98, domain.ThresholdModerate),
	)
	store.deleteErr = assert.AnError
	dispatcher := &fakeDispatcher{probeInvalid: map[string]bool{"tok-a": true, "tok-b": true}}

	gc := newCollector(store, dispatcher)
	require.NoError(t, gc.Run(context.Background()), "delete failures never abort the sweep")
	assert.Len(t, dispatcher.probedTokens(), 2)
}
