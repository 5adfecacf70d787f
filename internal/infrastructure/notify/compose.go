package notify

import (
	"fmt"
	"strings"

	"ReviewDesk/internal/domain"
	"ReviewDesk/internal/ports"
)

// Message is a composed author notification.
type Message struct {
	Subject string
	Body    string
}

// Compose builds the author-facing notification for a status and optional comments.
func Compose(to ports.Recipient, status ports.StatusContext, comments string) Message {
	title := strings.TrimSpace(status.Title)
	if title == "" {
		title = fmt.Sprintf("submission #%d", status.SubmissionID)
	}
	name := strings.TrimSpace(to.Name)
	if name == "" {
		name = "author"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", name)
	switch status.Status {
	case domain.StatusAccepted:
		fmt.Fprintf(&b, "We are pleased to inform you that your abstract %q has been accepted.\n", title)
	case domain.StatusRevisionRequired:
		fmt.Fprintf(&b, "Your abstract %q requires revision before a final decision can be made.\n", title)
	case domain.StatusRejected:
		fmt.Fprintf(&b, "We regret to inform you that your abstract %q was not accepted.\n", title)
	default:
		fmt.Fprintf(&b, "Your abstract %q is currently under review.\n", title)
	}
	if c := strings.TrimSpace(comments); c != "" {
		fmt.Fprintf(&b, "\nReviewer comments:\n%s\n", c)
	}
	b.WriteString("\nKind regards,\nThe Scientific Committee\n")

	return Message{
		Subject: fmt.Sprintf("Abstract #%d: %s", status.SubmissionID, status.Status.Label()),
		Body:    b.String(),
	}
}
