package domain

import "time"

// Kind classifies an activity event by the upstream area it came from.
type Kind string

const (
	KindSubmission  Kind = "submission"
	KindAward       Kind = "award"
	KindWorkshop    Kind = "workshop"
	KindWebinar     Kind = "webinar"
	KindConference  Kind = "conference"
	KindContact     Kind = "contact"
	KindCareer      Kind = "career"
	KindPublication Kind = "publication"
	KindTraining    Kind = "training"
	KindEducational Kind = "educational"
	KindMembership  Kind = "membership"
)

var kinds = map[Kind]struct{}{
	KindSubmission: {}, KindAward: {}, KindWorkshop: {}, KindWebinar: {},
	KindConference: {}, KindContact: {}, KindCareer: {}, KindPublication: {},
	KindTraining: {}, KindEducational: {}, KindMembership: {},
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// ActivityEvent is a normalized notification record shown in the aggregated feed.
// It is rebuilt on every refresh and never persisted.
type ActivityEvent struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Source     string    `json:"source"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
	IsRead     bool      `json:"is_read"`
}

// EventID composes the feed identity of a record from its source name and native id.
func EventID(source, nativeID string) string {
	return source + "-" + nativeID
}
