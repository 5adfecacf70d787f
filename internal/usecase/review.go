package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"ReviewDesk/internal/domain"
	"ReviewDesk/internal/metrics"
	"ReviewDesk/internal/ports"
)

// ReviewDeps wires the store and the dispatcher into the review workflow.
type ReviewDeps struct {
	Store      ports.SubmissionStore
	Dispatcher ports.Dispatcher
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

// Outcome reports a call that may notify the author. Saved and Success are separate:
// comments can be stored while the notification fails.
type Outcome struct {
	Success     bool              `json:"success"`
	Saved       bool              `json:"saved"`
	Message     string            `json:"message"`
	Record      domain.Submission `json:"record"`
	AckID       string            `json:"ack_id,omitempty"`
	DispatchErr error             `json:"-"`
}

// Review applies status transitions and reviewer feedback to submissions.
// Persistence failures are fatal to the call and never retried here; notification
// failures are reported without undoing the persisted change.
type Review struct {
	store      ports.SubmissionStore
	dispatcher ports.Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewReview constructs the workflow controller.
func NewReview(deps ReviewDeps) *Review {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Review{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		now:        now,
	}
}

// Get reads one submission.
func (r *Review) Get(ctx context.Context, id int64) (domain.Submission, error) {
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return domain.Submission{}, storeError("get", id, err)
	}
	return rec, nil
}

// List reads submissions matching filter.
func (r *Review) List(ctx context.Context, filter domain.Filter) ([]domain.Submission, error) {
	recs, err := r.store.List(ctx, filter)
	if err != nil {
		return nil, storeError("list", 0, err)
	}
	return recs, nil
}

// SetStatus moves a submission to status. Any state may follow any other.
func (r *Review) SetStatus(ctx context.Context, id int64, status domain.Status) (domain.Submission, error) {
	if !status.Valid() {
		return domain.Submission{}, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	rec, err := r.store.UpdateStatus(ctx, id, status, r.now())
	if err != nil {
		return domain.Submission{}, storeError("update status of", id, err)
	}
	r.logger.Info("status changed", "submission", id, "status", rec.Status)
	return rec, nil
}

// SetCommentsAndNotify stores reviewer comments and then notifies the author about the
// current status. A failed notification leaves the comments in place.
func (r *Review) SetCommentsAndNotify(ctx context.Context, id int64, comments string) (Outcome, error) {
	rec, err := r.store.UpdateComments(ctx, id, comments, r.now())
	if err != nil {
		return Outcome{}, storeError("update comments of", id, err)
	}

	out := Outcome{Saved: true, Record: rec}
	ack, err := r.notify(ctx, rec)
	if err != nil {
		out.DispatchErr = err
		out.Message = "comments saved, but the author could not be notified: " + errorCause(err)
		r.logger.Warn("notification failed after saving comments", "submission", id, "error", err)
		return out, nil
	}

	out.Success = true
	out.AckID = ack.ID
	out.Message = "comments saved and the author was notified"
	if ack.Message != "" {
		out.Message += ": " + ack.Message
	}
	return out, nil
}

// ToggleFeatured flips the featured flag. Calling it twice restores the original value.
func (r *Review) ToggleFeatured(ctx context.Context, id int64) (domain.Submission, error) {
	rec, err := r.store.ToggleFeatured(ctx, id, r.now())
	if err != nil {
		return domain.Submission{}, storeError("toggle featured on", id, err)
	}
	r.logger.Info("featured toggled", "submission", id, "featured", rec.IsFeatured)
	return rec, nil
}

// NotifyOnly resends the notification for the current status and comments without
// changing the submission. It is the recovery path for bounced notifications.
func (r *Review) NotifyOnly(ctx context.Context, id int64) (Outcome, error) {
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return Outcome{}, storeError("get", id, err)
	}

	ack, err := r.notify(ctx, rec)
	if err != nil {
		return Outcome{Record: rec, DispatchErr: err, Message: "the author could not be notified: " + errorCause(err)}, err
	}
	return Outcome{Success: true, Record: rec, AckID: ack.ID, Message: "notification sent"}, nil
}

func (r *Review) notify(ctx context.Context, rec domain.Submission) (ports.Ack, error) {
	author, ok := rec.CorrespondingAuthor()
	if !ok {
		r.metrics.Dispatch(false)
		return ports.Ack{}, &domain.DispatchError{Err: errors.New("submission has no authors")}
	}
	if r.dispatcher == nil {
		r.metrics.Dispatch(false)
		return ports.Ack{}, &domain.DispatchError{Recipient: author.Email, Err: errors.New("no dispatcher configured")}
	}

	ack, err := r.dispatcher.Dispatch(ctx,
		ports.Recipient{Name: author.Name, Email: author.Email},
		ports.StatusContext{SubmissionID: rec.ID, Title: rec.Title, Status: rec.Status},
		rec.ReviewerComments,
	)
	r.metrics.Dispatch(err == nil)
	if err != nil {
		var de *domain.DispatchError
		if errors.As(err, &de) {
			return ports.Ack{}, de
		}
		return ports.Ack{}, &domain.DispatchError{Recipient: author.Email, Err: err}
	}
	return ack, nil
}

func storeError(op string, id int64, err error) error {
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return nf
	}
	var pe *domain.PersistenceError
	if errors.As(err, &pe) {
		return pe
	}
	return &domain.PersistenceError{Op: op, ID: id, Err: err}
}

func errorCause(err error) string {
	var de *domain.DispatchError
	if errors.As(err, &de) && de.Err != nil {
		return de.Err.Error()
	}
	return err.Error()
}
