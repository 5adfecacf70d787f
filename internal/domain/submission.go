package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the review state of a submission.
type Status string

const (
	StatusUnderReview      Status = "under_review"
	StatusAccepted         Status = "accepted"
	StatusRevisionRequired Status = "revision_required"
	StatusRejected         Status = "rejected"
)

var ErrInvalidStatus = errors.New("invalid submission status")

// ParseStatus accepts the canonical value as well as the camel and display spellings
// the backend has used ("UnderReview", "Revision Required", ...).
func ParseStatus(raw string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(norm)
	switch norm {
	case "underreview", "pending":
		return StatusUnderReview, nil
	case "accepted":
		return StatusAccepted, nil
	case "revisionrequired", "revision":
		return StatusRevisionRequired, nil
	case "rejected":
		return StatusRejected, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// Valid reports whether s is one of the four review states.
func (s Status) Valid() bool {
	switch s {
	case StatusUnderReview, StatusAccepted, StatusRevisionRequired, StatusRejected:
		return true
	}
	return false
}

// Label is the human-readable status used in author notifications.
func (s Status) Label() string {
	switch s {
	case StatusAccepted:
		return "Accepted"
	case StatusRevisionRequired:
		return "Revision Required"
	case StatusRejected:
		return "Rejected"
	default:
		return "Under Review"
	}
}

// Submission is a peer-reviewed abstract and its review metadata.
type Submission struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Abstract         string    `json:"abstract,omitempty"`
	Category         string    `json:"category,omitempty"`
	PresentationType string    `json:"presentation_type,omitempty"`
	Status           Status    `json:"status"`
	ReviewerComments string    `json:"reviewer_comments,omitempty"`
	IsFeatured       bool      `json:"is_featured"`
	Authors          []Author  `json:"authors"`
	SubmittedAt      time.Time `json:"submitted_at"`
	LastUpdated      time.Time `json:"last_updated"`
}

// Author is embedded in a submission.
type Author struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Institution     string `json:"institution,omitempty"`
	Country         string `json:"country,omitempty"`
	IsPresenter     bool   `json:"is_presenter"`
	IsCorresponding bool   `json:"is_corresponding"`
}

var (
	ErrLastAuthor  = errors.New("a submission must keep at least one author")
	ErrAuthorIndex = errors.New("author index out of range")
)

// AddAuthor appends an author and makes sure both flags still have a holder.
func (s *Submission) AddAuthor(a Author) {
	s.Authors = append(s.Authors, a)
	s.ensureFlagHolders()
}

// SetAuthors replaces the author list as loaded from a store, assigning any flag
// that no author holds to the first one.
func (s *Submission) SetAuthors(list []Author) {
	s.Authors = list
	s.ensureFlagHolders()
}

// RemoveAuthor drops the author at index. When the removed author was the last holder
// of the presenter or corresponding flag, the first remaining author inherits it.
func (s *Submission) RemoveAuthor(index int) error {
	if index < 0 || index >= len(s.Authors) {
		return fmt.Errorf("%w: %d", ErrAuthorIndex, index)
	}
	if len(s.Authors) == 1 {
		return ErrLastAuthor
	}
	s.Authors = append(s.Authors[:index:index], s.Authors[index+1:]...)
	s.ensureFlagHolders()
	return nil
}

// CorrespondingAuthor returns the notification recipient.
func (s Submission) CorrespondingAuthor() (Author, bool) {
	for _, a := range s.Authors {
		if a.IsCorresponding {
			return a, true
		}
	}
	if len(s.Authors) > 0 {
		return s.Authors[0], true
	}
	return Author{}, false
}

func (s *Submission) ensureFlagHolders() {
	if len(s.Authors) == 0 {
		return
	}
	var presenter, corresponding bool
	for _, a := range s.Authors {
		presenter = presenter || a.IsPresenter
		corresponding = corresponding || a.IsCorresponding
	}
	if !presenter {
		s.Authors[0].IsPresenter = true
	}
	if !corresponding {
		s.Authors[0].IsCorresponding = true
	}
}

// Filter narrows submission listings. Zero values mean "no filter".
type Filter struct {
	Status           Status
	Category         string
	PresentationType string
	Featured         *bool
	Search           string
}
