package ports

import (
	"context"
	"time"

	"ReviewDesk/internal/domain"
)

// SubmissionStore is the backend persistence for abstract submissions.
// Unknown ids are reported as *domain.NotFoundError.
type SubmissionStore interface {
	Get(ctx context.Context, id int64) (domain.Submission, error)
	List(ctx context.Context, filter domain.Filter) ([]domain.Submission, error)
	UpdateStatus(ctx context.Context, id int64, status domain.Status, at time.Time) (domain.Submission, error)
	UpdateComments(ctx context.Context, id int64, comments string, at time.Time) (domain.Submission, error)
	ToggleFeatured(ctx context.Context, id int64, at time.Time) (domain.Submission, error)
}

// Recipient is the author a notification is addressed to.
type Recipient struct {
	Name  string
	Email string
}

// StatusContext carries what an author notification is about.
type StatusContext struct {
	SubmissionID int64
	Title        string
	Status       domain.Status
}

// Ack is the transport acknowledgement of a dispatched notification.
type Ack struct {
	ID      string
	Message string
}

// Dispatcher sends author-facing status notifications. Failures are *domain.DispatchError.
type Dispatcher interface {
	Dispatch(ctx context.Context, to Recipient, status StatusContext, comments string) (Ack, error)
}

// Notifier streams feed digests to Telegram or other staff channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when feed refreshes execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
