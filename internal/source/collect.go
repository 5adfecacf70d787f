package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ReviewDesk/internal/domain"
)

// Result is the outcome of one adapter within a refresh.
// Err is set when the source contributed nothing; Skipped lists dropped records.
type Result struct {
	Source  string
	Events  []domain.ActivityEvent
	Err     *domain.SourceError
	Skipped []*domain.SourceError
}

// Collect runs fetch and normalize for one adapter and converts every failure into a
// SourceError. It never panics past its own boundary.
func Collect(ctx context.Context, adapter Adapter, fetchedAt time.Time) (res Result) {
	res.Source = adapter.Name()

	defer func() {
		if p := recover(); p != nil {
			res.Events = nil
			res.Err = &domain.SourceError{
				Kind:   domain.SourcePanic,
				Source: res.Source,
				Err:    fmt.Errorf("%v", p),
			}
		}
	}()

	records, err := adapter.Fetch(ctx)
	if err != nil {
		kind := domain.SourceUnavailable
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = domain.SourceTimeout
		}
		res.Err = &domain.SourceError{Kind: kind, Source: res.Source, Err: err}
		return res
	}

	res.Events = make([]domain.ActivityEvent, 0, len(records))
	for i, rec := range records {
		ev, err := adapter.Normalize(rec, fetchedAt)
		if err != nil {
			res.Skipped = append(res.Skipped, &domain.SourceError{
				Kind:   domain.SourceMalformed,
				Source: res.Source,
				Err:    fmt.Errorf("record %d: %w", i, err),
			})
			continue
		}
		res.Events = append(res.Events, ev)
	}

	return res
}
