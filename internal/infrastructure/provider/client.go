package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ReviewDesk/internal/source"
)

const childFetchLimit = 4

// StatusError is returned for non-2xx provider responses.
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %s", e.URL, e.Status)
}

// Client reads list and sub-collection endpoints of the association backend.
// A bearer token is attached to every call.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a reusable client; timeout bounds every single call.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// List fetches one collection. Both bare arrays and {data|results|items} envelopes are accepted.
func (c *Client) List(ctx context.Context, path string) ([]source.Record, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	return decodeList(body)
}

// ListNested fetches the parent collection and then the child collection of every parent.
// childTemplate contains an {id} placeholder. Each child record gets its parent under "parent".
// A missing child collection (404) counts as empty.
func (c *Client) ListNested(ctx context.Context, parentPath, childTemplate string) ([]source.Record, error) {
	parents, err := c.List(ctx, parentPath)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", parentPath, err)
	}

	children := make([][]source.Record, len(parents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(childFetchLimit)
	for i, parent := range parents {
		i, parent := i, parent
		id := parent.ID()
		if id == "" {
			continue
		}
		path := strings.ReplaceAll(childTemplate, "{id}", url.PathEscape(id))
		g.Go(func() error {
			recs, err := c.List(gctx, path)
			if err != nil {
				var se *StatusError
				if errors.As(err, &se) && se.Code == http.StatusNotFound {
					return nil
				}
				return fmt.Errorf("list %s: %w", path, err)
			}
			for _, rec := range recs {
				rec["parent"] = map[string]any(parent)
			}
			children[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []source.Record
	for _, recs := range children {
		out = append(out, recs...)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ReviewDesk/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: endpoint, Status: resp.Status, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func decodeList(body []byte) ([]source.Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	if body[0] == '[' {
		var list []source.Record
		if err := dec.Decode(&list); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return compact(list), nil
	}

	var envelope map[string]json.RawMessage
	if err := dec.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	for _, key := range []string{"data", "results", "items"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		inner := json.NewDecoder(bytes.NewReader(raw))
		inner.UseNumber()
		var list []source.Record
		if err := inner.Decode(&list); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		return compact(list), nil
	}
	return nil, fmt.Errorf("unexpected payload shape")
}

func compact(list []source.Record) []source.Record {
	out := list[:0]
	for _, rec := range list {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out
}
