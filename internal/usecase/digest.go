package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"ReviewDesk/internal/domain"
	"ReviewDesk/internal/ports"
)

// DigestDeps wires the feed engine and the staff notifier.
type DigestDeps struct {
	Aggregator *Aggregator
	Notifier   ports.Notifier
	Limit      int
	Logger     *slog.Logger
}

// Digest refreshes the feed and posts events that no earlier digest carried.
// Events are tracked by id, since OccurredAt may be the fetch time or arrive late.
type Digest struct {
	aggregator *Aggregator
	notifier   ports.Notifier
	limit      int
	logger     *slog.Logger

	mu        sync.Mutex
	published map[string]string // event id -> source
}

// NewDigest constructs the periodic digest job.
func NewDigest(deps DigestDeps) *Digest {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Digest{
		aggregator: deps.Aggregator,
		notifier:   deps.Notifier,
		limit:      deps.Limit,
		logger:     logger,
		published:  map[string]string{},
	}
}

// Run performs one refresh and publishes the new part of the feed.
func (d *Digest) Run(ctx context.Context, trigger time.Time) error {
	if d.aggregator == nil {
		return nil
	}

	res, err := d.aggregator.Refresh(ctx, d.limit)
	if err != nil {
		return fmt.Errorf("refresh feed: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var fresh []domain.ActivityEvent
	for _, ev := range res.Events {
		if _, ok := d.published[ev.ID]; !ok {
			fresh = append(fresh, ev)
		}
	}

	d.logger.Debug("digest run", "trigger", trigger.Format(time.RFC3339), "new_events", len(fresh), "failed_sources", len(res.FailedSources))
	if len(fresh) > 0 && d.notifier != nil {
		if err := d.notifier.PublishDigest(ctx, buildDigestMessage(fresh, res.FailedSources)); err != nil {
			return fmt.Errorf("publish digest: %w", err)
		}
	}
	d.published = nextPublished(d.published, res)
	return nil
}

// nextPublished keeps ids present in the current feed. Ids of sources that failed this
// round are kept too, so a source coming back does not repost its events.
func nextPublished(prev map[string]string, res FeedResult) map[string]string {
	failed := make(map[string]struct{}, len(res.FailedSources))
	for _, name := range res.FailedSources {
		failed[name] = struct{}{}
	}
	next := make(map[string]string, len(res.Events))
	for id, src := range prev {
		if _, ok := failed[src]; ok {
			next[id] = src
		}
	}
	for _, ev := range res.Events {
		next[ev.ID] = ev.Source
	}
	return next
}

func buildDigestMessage(events []domain.ActivityEvent, failed []string) string {
	var b strings.Builder
	for _, ev := range events {
		fmt.Fprintf(&b, "- *%s* (%s)\n%s\n\n", ev.Title, ev.OccurredAt.Format("2006-01-02 15:04"), ev.Message)
	}
	if len(failed) > 0 {
		fmt.Fprintf(&b, "_Unavailable sources: %s_\n", strings.Join(failed, ", "))
	}
	return b.String()
}
