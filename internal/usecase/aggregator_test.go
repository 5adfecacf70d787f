package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReviewDesk/internal/domain"
	"ReviewDesk/internal/source"
)

var base = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

type fakeAdapter struct {
	name   string
	events []domain.ActivityEvent
	err    error
	delay  time.Duration
	block  chan struct{} // Fetch ignores ctx and waits for close
}

func (f *fakeAdapter) Name() string      { return f.name }
func (f *fakeAdapter) Kind() domain.Kind { return domain.KindContact }

func (f *fakeAdapter) Fetch(ctx context.Context) ([]source.Record, error) {
	if f.block != nil {
		<-f.block
		return nil, errors.New("released")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	recs := make([]source.Record, len(f.events))
	for i := range f.events {
		recs[i] = source.Record{"i": i}
	}
	return recs, nil
}

func (f *fakeAdapter) Normalize(rec source.Record, fetchedAt time.Time) (domain.ActivityEvent, error) {
	ev := f.events[rec["i"].(int)]
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = fetchedAt
	}
	return ev, nil
}

// eventsAt builds events for a source with occurredAt = base + offsets (minutes).
func eventsAt(name string, offsets ...int) []domain.ActivityEvent {
	out := make([]domain.ActivityEvent, len(offsets))
	for i, off := range offsets {
		out[i] = domain.ActivityEvent{
			ID:         domain.EventID(name, fmt.Sprint(i)),
			Kind:       domain.KindContact,
			Source:     name,
			Title:      name,
			OccurredAt: base.Add(time.Duration(off) * time.Minute),
		}
	}
	return out
}

func newAggregator(t *testing.T, logs *bytes.Buffer, adapters ...source.Adapter) *Aggregator {
	t.Helper()
	reg := source.NewRegistry()
	for _, a := range adapters {
		require.NoError(t, reg.Register(a))
	}
	var logger *slog.Logger
	if logs != nil {
		logger = slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return NewAggregator(AggregatorDeps{
		Registry:      reg,
		SourceTimeout: 200 * time.Millisecond,
		Logger:        logger,
		Now:           func() time.Time { return base },
	})
}

func ids(events []domain.ActivityEvent) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}

func TestRefreshScenarioWithOneFailedSource(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	agg := newAggregator(t, &logs,
		&fakeAdapter{name: "abstracts", events: eventsAt("abstracts", 10, 30, 50, 70, 90)},
		&fakeAdapter{name: "careers", err: errors.New("connection refused")},
		&fakeAdapter{name: "workshops", events: eventsAt("workshops", 5, 20, 40, 60, 80, 85, 95, 100)},
	)

	res, err := agg.Refresh(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, res.Events, 10)
	assert.Equal(t, []string{"careers"}, res.FailedSources)

	assert.Equal(t, []string{"workshops-7", "workshops-6", "abstracts-4"}, ids(res.Events[:3]))
	for i := 1; i < len(res.Events); i++ {
		assert.False(t, res.Events[i].OccurredAt.After(res.Events[i-1].OccurredAt))
	}

	assert.Contains(t, logs.String(), "source failed")
	assert.Contains(t, logs.String(), "source=careers")
}

func TestRefreshIsIndependentOfRegistrationOrderForDistinctTimes(t *testing.T) {
	t.Parallel()

	a := &fakeAdapter{name: "a", events: eventsAt("a", 1, 4, 9)}
	b := &fakeAdapter{name: "b", events: eventsAt("b", 2, 3, 8)}

	first, err := newAggregator(t, nil, a, b).Refresh(context.Background(), 4)
	require.NoError(t, err)
	second, err := newAggregator(t, nil, b, a).Refresh(context.Background(), 4)
	require.NoError(t, err)

	assert.Equal(t, ids(first.Events), ids(second.Events))
	assert.Equal(t, []string{"a-2", "b-2", "a-1", "b-1"}, ids(first.Events))
}

func TestRefreshIsIdempotent(t *testing.T) {
	t.Parallel()

	agg := newAggregator(t, nil,
		&fakeAdapter{name: "a", events: eventsAt("a", 1, 1, 5, 7)},
		&fakeAdapter{name: "b", events: eventsAt("b", 1, 5, 6)},
	)

	first, err := agg.Refresh(context.Background(), 20)
	require.NoError(t, err)
	second, err := agg.Refresh(context.Background(), 20)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("refresh not idempotent (-first +second):\n%s", diff)
	}
	// ties keep registration order, then source order
	assert.Equal(t, []string{"a-3", "b-2", "a-2", "b-1", "a-0", "a-1", "b-0"}, ids(first.Events))
}

func TestRefreshBoundedOutput(t *testing.T) {
	t.Parallel()

	for _, m := range []int{0, 1, 19, 20, 21, 50} {
		offsets := make([]int, m)
		for i := range offsets {
			offsets[i] = (i * 7) % 53
		}
		agg := newAggregator(t, nil, &fakeAdapter{name: "s", events: eventsAt("s", offsets...)})

		res, err := agg.Refresh(context.Background(), 20)
		require.NoError(t, err)
		assert.Len(t, res.Events, min(m, 20), "m=%d", m)
		for i := 1; i < len(res.Events); i++ {
			assert.False(t, res.Events[i].OccurredAt.After(res.Events[i-1].OccurredAt))
		}
	}
}

func TestRefreshDefaultLimit(t *testing.T) {
	t.Parallel()

	offsets := make([]int, 30)
	for i := range offsets {
		offsets[i] = i
	}
	agg := newAggregator(t, nil, &fakeAdapter{name: "s", events: eventsAt("s", offsets...)})

	res, err := agg.Refresh(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, res.Events, DefaultLimit)
}

func TestRefreshTimesOutSlowSources(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	var logs bytes.Buffer
	agg := newAggregator(t, &logs,
		&fakeAdapter{name: "fast", events: eventsAt("fast", 1)},
		&fakeAdapter{name: "slow", events: eventsAt("slow", 2), delay: 5 * time.Second},
		&fakeAdapter{name: "stuck", block: release},
	)

	started := time.Now()
	res, err := agg.Refresh(context.Background(), 10)
	require.NoError(t, err)
	assert.Less(t, time.Since(started), 2*time.Second)

	assert.Equal(t, []string{"fast-0"}, ids(res.Events))
	assert.ElementsMatch(t, []string{"slow", "stuck"}, res.FailedSources)
	assert.Contains(t, logs.String(), "kind=timeout")
}

func TestRefreshWithCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newAggregator(t, nil).Refresh(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDismissIsLocalAndNotPersisted(t *testing.T) {
	t.Parallel()

	agg := newAggregator(t, nil, &fakeAdapter{name: "s", events: eventsAt("s", 1, 2, 3)})
	_, err := agg.Refresh(context.Background(), 10)
	require.NoError(t, err)

	assert.True(t, agg.Dismiss("s-1"))
	assert.False(t, agg.Dismiss("s-1"))
	assert.Equal(t, []string{"s-2", "s-0"}, ids(agg.Feed()))

	_, err = agg.Refresh(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"s-2", "s-1", "s-0"}, ids(agg.Feed()))
}

func TestReadMarksSurviveRefresh(t *testing.T) {
	t.Parallel()

	agg := newAggregator(t, nil, &fakeAdapter{name: "s", events: eventsAt("s", 1, 2, 3)})
	_, err := agg.Refresh(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 3, agg.UnreadCount())

	assert.True(t, agg.MarkRead("s-0"))
	assert.False(t, agg.MarkRead("missing"))
	assert.Equal(t, 2, agg.UnreadCount())

	res, err := agg.Refresh(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, res.Events[2].IsRead)
	assert.False(t, res.Events[0].IsRead)

	assert.Equal(t, 2, agg.MarkAllRead())
	assert.Equal(t, 0, agg.UnreadCount())
}
