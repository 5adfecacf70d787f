package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"ReviewDesk/internal/domain"
	"ReviewDesk/internal/source"
)

// decodeSubmission maps a backend payload in either casing convention.
func decodeSubmission(rec source.Record) (domain.Submission, error) {
	id, err := strconv.ParseInt(rec.ID(), 10, 64)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("submission payload without numeric id: %q", rec.ID())
	}
	status, err := domain.ParseStatus(rec.StringOr(string(domain.StatusUnderReview), "status"))
	if err != nil {
		return domain.Submission{}, fmt.Errorf("submission %d: %w", id, err)
	}

	s := domain.Submission{
		ID:               id,
		Title:            rec.String("title"),
		Abstract:         rec.String("abstract", "abstract_text"),
		Category:         rec.String("category"),
		PresentationType: rec.String("presentation_type"),
		Status:           status,
		ReviewerComments: rec.String("reviewer_comments", "comments"),
	}
	s.IsFeatured, _ = rec.Bool("is_featured", "featured")
	s.SubmittedAt, _ = rec.Time("submitted_at", "created_at")
	s.LastUpdated, _ = rec.Time("last_updated", "updated_at")

	if raw, ok := rec.Get("authors"); ok {
		if list, ok := raw.([]any); ok {
			authors := make([]domain.Author, 0, len(list))
			for _, item := range list {
				m, ok := item.(map[string]any)
				if !ok {
					continue
				}
				authors = append(authors, decodeAuthor(m))
			}
			s.SetAuthors(authors)
		}
	}
	return s, nil
}

func decodeAuthor(rec source.Record) domain.Author {
	a := domain.Author{
		Name:        rec.StringOr("Unknown", "name", "full_name"),
		Email:       rec.String("email"),
		Institution: rec.String("institution", "affiliation"),
		Country:     rec.String("country"),
	}
	a.IsPresenter, _ = rec.Bool("is_presenter", "presenter")
	a.IsCorresponding, _ = rec.Bool("is_corresponding", "corresponding")
	return a
}

// decodeOne accepts a bare object or a {data: {...}} envelope.
func decodeOne(body []byte) (source.Record, error) {
	var rec source.Record
	if err := decodeJSON(body, &rec); err != nil {
		return nil, err
	}
	if inner := rec.Nested("data"); len(inner) > 0 {
		return inner, nil
	}
	return rec, nil
}

// decodeMany accepts a bare array or a {data|results|items: [...]} envelope.
func decodeMany(body []byte) ([]source.Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var list []source.Record
		if err := decodeJSON(body, &list); err != nil {
			return nil, err
		}
		return dropNull(list), nil
	}

	var envelope map[string]json.RawMessage
	if err := decodeJSON(body, &envelope); err != nil {
		return nil, err
	}
	for _, key := range []string{"data", "results", "items"} {
		if raw, ok := envelope[key]; ok {
			var list []source.Record
			if err := decodeJSON(raw, &list); err != nil {
				return nil, err
			}
			return dropNull(list), nil
		}
	}
	return nil, fmt.Errorf("unexpected list payload")
}

func dropNull(list []source.Record) []source.Record {
	out := list[:0]
	for _, rec := range list {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out
}

func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
