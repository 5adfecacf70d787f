package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ReviewDesk/internal/domain"
	"ReviewDesk/internal/ports"
)

// RESTStore reads and mutates submissions through the association backend.
// Concurrent writes to the same submission are last-write-wins on the backend.
type RESTStore struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ ports.SubmissionStore = (*RESTStore)(nil)

// NewRESTStore builds a store client; the bearer token is attached to every call.
func NewRESTStore(baseURL, token string, timeout time.Duration) *RESTStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RESTStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Get reads one submission by id.
func (s *RESTStore) Get(ctx context.Context, id int64) (domain.Submission, error) {
	return s.one(ctx, id, http.MethodGet, fmt.Sprintf("/abstracts/%d", id), nil)
}

// List reads submissions with optional filters.
func (s *RESTStore) List(ctx context.Context, filter domain.Filter) ([]domain.Submission, error) {
	body, err := s.do(ctx, 0, http.MethodGet, "/abstracts"+filterQuery(filter), nil)
	if err != nil {
		return nil, err
	}
	recs, err := decodeMany(body)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Submission, 0, len(recs))
	for _, rec := range recs {
		sub, err := decodeSubmission(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

// UpdateStatus persists a new status.
func (s *RESTStore) UpdateStatus(ctx context.Context, id int64, status domain.Status, at time.Time) (domain.Submission, error) {
	payload := map[string]any{"status": status, "last_updated": at.UTC()}
	return s.one(ctx, id, http.MethodPatch, fmt.Sprintf("/abstracts/%d/status", id), payload)
}

// UpdateComments persists reviewer comments.
func (s *RESTStore) UpdateComments(ctx context.Context, id int64, comments string, at time.Time) (domain.Submission, error) {
	payload := map[string]any{"reviewer_comments": comments, "last_updated": at.UTC()}
	return s.one(ctx, id, http.MethodPatch, fmt.Sprintf("/abstracts/%d/comments", id), payload)
}

// ToggleFeatured flips the featured flag on the backend.
func (s *RESTStore) ToggleFeatured(ctx context.Context, id int64, at time.Time) (domain.Submission, error) {
	payload := map[string]any{"last_updated": at.UTC()}
	return s.one(ctx, id, http.MethodPost, fmt.Sprintf("/abstracts/%d/toggle-featured", id), payload)
}

// one performs a call returning a single submission. Mutations that answer with an
// empty body are followed by a read.
func (s *RESTStore) one(ctx context.Context, id int64, method, path string, payload any) (domain.Submission, error) {
	body, err := s.do(ctx, id, method, path, payload)
	if err != nil {
		return domain.Submission{}, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		if method == http.MethodGet {
			return domain.Submission{}, fmt.Errorf("empty response for submission %d", id)
		}
		return s.Get(ctx, id)
	}
	rec, err := decodeOne(body)
	if err != nil {
		return domain.Submission{}, err
	}
	return decodeSubmission(rec)
}

func (s *RESTStore) do(ctx context.Context, id int64, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound && id != 0:
		return nil, &domain.NotFoundError{ID: id}
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("backend returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func filterQuery(f domain.Filter) string {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.PresentationType != "" {
		q.Set("presentation_type", f.PresentationType)
	}
	if f.Featured != nil {
		q.Set("featured", strconv.FormatBool(*f.Featured))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
