package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"ReviewDesk/internal/domain"
	"ReviewDesk/internal/ports"
)

// HTTPDispatcher posts composed notifications to the backend send-notification endpoint.
// It keeps no state; resending is always the caller's decision.
type HTTPDispatcher struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ ports.Dispatcher = (*HTTPDispatcher)(nil)

// NewHTTPDispatcher builds a dispatcher against the association backend.
func NewHTTPDispatcher(baseURL, token string, timeout time.Duration) *HTTPDispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPDispatcher{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type dispatchRequest struct {
	RequestID string `json:"request_id"`
	To        string `json:"to"`
	Name      string `json:"name,omitempty"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Status    string `json:"status"`
	Comments  string `json:"comments,omitempty"`
}

type dispatchResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// Dispatch sends one notification and returns the backend acknowledgement.
func (d *HTTPDispatcher) Dispatch(ctx context.Context, to ports.Recipient, status ports.StatusContext, comments string) (ports.Ack, error) {
	fail := func(err error) (ports.Ack, error) {
		return ports.Ack{}, &domain.DispatchError{Recipient: to.Email, Err: err}
	}
	if strings.TrimSpace(to.Email) == "" {
		return fail(errors.New("recipient has no email"))
	}

	msg := Compose(to, status, comments)
	ackID := uuid.NewString()
	body, err := json.Marshal(dispatchRequest{
		RequestID: ackID,
		To:        to.Email,
		Name:      to.Name,
		Subject:   msg.Subject,
		Message:   msg.Body,
		Status:    string(status.Status),
		Comments:  comments,
	})
	if err != nil {
		return fail(fmt.Errorf("marshal payload: %w", err))
	}

	endpoint := fmt.Sprintf("%s/abstracts/%d/send-notification", d.baseURL, status.SubmissionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fail(fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return fail(fmt.Errorf("do request: %w", err))
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var parsed dispatchResponse
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode >= http.StatusBadRequest {
		detail := parsed.Message
		if detail == "" {
			detail = strings.TrimSpace(string(raw))
		}
		return fail(fmt.Errorf("backend error %s: %s", resp.Status, detail))
	}
	if parsed.Success != nil && !*parsed.Success {
		return fail(fmt.Errorf("backend rejected notification: %s", parsed.Message))
	}

	return ports.Ack{ID: ackID, Message: parsed.Message}, nil
}
