package provider

import (
	"context"
	"fmt"
	"time"

	"ReviewDesk/internal/domain"
	"ReviewDesk/internal/source"
)

// Fields is what a mapper extracts from one raw record.
// Zero values are replaced by the adapter's fallbacks.
type Fields struct {
	NativeID   string
	Kind       domain.Kind
	Title      string
	Message    string
	OccurredAt time.Time
}

// Mapper owns the field fallback policy of one provider.
type Mapper func(rec source.Record) Fields

// Spec describes one upstream provider: where to read it and how to map it.
type Spec struct {
	Name      string
	Kind      domain.Kind
	Path      string
	ChildPath string
	Map       Mapper
}

// Adapter implements source.Adapter for a provider Spec over the backend Client.
type Adapter struct {
	spec   Spec
	client *Client
}

var _ source.Adapter = (*Adapter)(nil)

// NewAdapter binds a provider spec to a client.
func NewAdapter(spec Spec, client *Client) *Adapter {
	return &Adapter{spec: spec, client: client}
}

// Name identifies the adapter inside the registry.
func (a *Adapter) Name() string {
	return a.spec.Name
}

// Kind is the default kind of events produced by this adapter.
func (a *Adapter) Kind() domain.Kind {
	return a.spec.Kind
}

// Fetch reads the raw collection, following the sub-collection when configured.
func (a *Adapter) Fetch(ctx context.Context) ([]source.Record, error) {
	if a.client == nil {
		return nil, fmt.Errorf("provider %s has no client", a.spec.Name)
	}
	if a.spec.ChildPath != "" {
		return a.client.ListNested(ctx, a.spec.Path, a.spec.ChildPath)
	}
	return a.client.List(ctx, a.spec.Path)
}

// Normalize maps a raw record into an activity event. Only a missing identity drops the record.
func (a *Adapter) Normalize(rec source.Record, fetchedAt time.Time) (domain.ActivityEvent, error) {
	f := a.spec.Map(rec)
	if f.NativeID == "" {
		return domain.ActivityEvent{}, source.ErrMissingIdentity
	}

	nativeID := f.NativeID
	if a.spec.ChildPath != "" {
		if parentID := rec.Nested("parent").ID(); parentID != "" {
			nativeID = parentID + "." + nativeID
		}
	}

	kind := f.Kind
	if !kind.Valid() {
		kind = a.spec.Kind
	}
	title := f.Title
	if title == "" {
		title = defaultTitle(kind)
	}
	occurredAt := f.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = fetchedAt
	}

	return domain.ActivityEvent{
		ID:         domain.EventID(a.spec.Name, nativeID),
		Kind:       kind,
		Source:     a.spec.Name,
		Title:      title,
		Message:    f.Message,
		OccurredAt: occurredAt.UTC(),
	}, nil
}

func defaultTitle(kind domain.Kind) string {
	switch kind {
	case domain.KindSubmission:
		return "New abstract submission"
	case domain.KindAward:
		return "Featured abstract"
	case domain.KindWorkshop:
		return "New workshop registration"
	case domain.KindWebinar:
		return "New webinar registration"
	case domain.KindConference:
		return "New conference registration"
	case domain.KindContact:
		return "New message"
	case domain.KindCareer:
		return "New job application"
	case domain.KindPublication:
		return "New publication"
	case domain.KindTraining:
		return "New training enrollment"
	case domain.KindEducational:
		return "New educational resource"
	case domain.KindMembership:
		return "New membership application"
	}
	return "New activity"
}
