package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ReviewDesk/internal/domain"
	"ReviewDesk/internal/metrics"
	"ReviewDesk/internal/source"
)

const (
	// DefaultLimit is the feed size used when the caller passes a non-positive limit.
	DefaultLimit         = 20
	defaultSourceTimeout = 10 * time.Second
)

// AggregatorDeps wires the adapters and ambient services into the aggregator.
type AggregatorDeps struct {
	Registry      *source.Registry
	SourceTimeout time.Duration
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	Now           func() time.Time
}

// FeedResult is the outcome of one refresh. FailedSources is informational only.
type FeedResult struct {
	Events        []domain.ActivityEvent `json:"events"`
	FailedSources []string               `json:"failed_sources,omitempty"`
}

// Aggregator fans out to every registered source, merges what succeeded and keeps
// the resulting feed in memory. Read marks and dismissals are local to the instance
// and never sent upstream.
type Aggregator struct {
	registry *source.Registry
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	mu   sync.RWMutex
	feed []domain.ActivityEvent
	read map[string]struct{}
}

// NewAggregator constructs the feed engine.
func NewAggregator(deps AggregatorDeps) *Aggregator {
	registry := deps.Registry
	if registry == nil {
		registry = source.NewRegistry()
	}
	timeout := deps.SourceTimeout
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Aggregator{
		registry: registry,
		timeout:  timeout,
		logger:   logger,
		metrics:  deps.Metrics,
		now:      now,
		read:     map[string]struct{}{},
	}
}

// Refresh invokes every source concurrently and waits for all of them. A failed or
// timed-out source contributes zero events and never aborts the refresh. The merged
// set is ordered by OccurredAt descending, ties kept in source registration order,
// and capped to limit.
func (a *Aggregator) Refresh(ctx context.Context, limit int) (FeedResult, error) {
	if err := ctx.Err(); err != nil {
		return FeedResult{}, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	started := time.Now()
	fetchedAt := a.now()
	adapters := a.registry.Adapters()
	results := make([]source.Result, len(adapters))

	var g errgroup.Group
	for i, adapter := range adapters {
		i, adapter := i, adapter
		g.Go(func() error {
			results[i] = a.collect(ctx, adapter, fetchedAt)
			return nil
		})
	}
	_ = g.Wait()

	var (
		merged []domain.ActivityEvent
		failed []string
	)
	for _, res := range results {
		for _, skipped := range res.Skipped {
			a.logger.Warn("record skipped", "source", res.Source, "kind", skipped.Kind, "error", skipped.Err)
			a.metrics.SourceFailed(res.Source, skipped.Kind)
		}
		if res.Err != nil {
			a.logger.Warn("source failed", "source", res.Source, "kind", res.Err.Kind, "error", res.Err.Err)
			a.metrics.SourceFailed(res.Source, res.Err.Kind)
			a.metrics.SourceEvents(res.Source, 0)
			failed = append(failed, res.Source)
			continue
		}
		a.metrics.SourceEvents(res.Source, len(res.Events))
		merged = append(merged, res.Events...)
	}

	slices.SortStableFunc(merged, func(x, y domain.ActivityEvent) int {
		return y.OccurredAt.Compare(x.OccurredAt)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}

	a.mu.Lock()
	keep := make(map[string]struct{}, len(a.read))
	for i := range merged {
		if _, ok := a.read[merged[i].ID]; ok {
			merged[i].IsRead = true
			keep[merged[i].ID] = struct{}{}
		}
	}
	a.read = keep
	a.feed = slices.Clone(merged)
	a.mu.Unlock()

	a.metrics.ObserveRefresh(time.Since(started))
	a.logger.Debug("feed refreshed", "sources", len(adapters), "failed", len(failed), "events", len(merged))

	return FeedResult{Events: merged, FailedSources: failed}, nil
}

// collect bounds one adapter by its own timeout, even if the adapter ignores its context.
func (a *Aggregator) collect(ctx context.Context, adapter source.Adapter, fetchedAt time.Time) source.Result {
	actx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	done := make(chan source.Result, 1)
	go func() {
		done <- source.Collect(actx, adapter, fetchedAt)
	}()

	select {
	case res := <-done:
		return res
	case <-actx.Done():
		kind := domain.SourceTimeout
		if !errors.Is(actx.Err(), context.DeadlineExceeded) {
			kind = domain.SourceUnavailable
		}
		return source.Result{
			Source: adapter.Name(),
			Err:    &domain.SourceError{Kind: kind, Source: adapter.Name(), Err: actx.Err()},
		}
	}
}

// Feed returns a snapshot of the current feed.
func (a *Aggregator) Feed() []domain.ActivityEvent {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.feed)
}

// Dismiss removes an event from this feed only. A later Refresh may bring it back.
func (a *Aggregator) Dismiss(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	idx := slices.IndexFunc(a.feed, func(ev domain.ActivityEvent) bool { return ev.ID == id })
	if idx < 0 {
		return false
	}
	a.feed = slices.Delete(a.feed, idx, idx+1)
	return true
}

// MarkRead flags one event as read for the lifetime of this aggregator.
func (a *Aggregator) MarkRead(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.feed {
		if a.feed[i].ID == id {
			a.feed[i].IsRead = true
			a.read[id] = struct{}{}
			return true
		}
	}
	return false
}

// MarkAllRead flags every event in the current feed and returns how many changed.
func (a *Aggregator) MarkAllRead() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	changed := 0
	for i := range a.feed {
		if !a.feed[i].IsRead {
			a.feed[i].IsRead = true
			changed++
		}
		a.read[a.feed[i].ID] = struct{}{}
	}
	return changed
}

// UnreadCount counts unread events in the current feed.
func (a *Aggregator) UnreadCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n := 0
	for _, ev := range a.feed {
		if !ev.IsRead {
			n++
		}
	}
	return n
}
