// Package remote is the client side of the per-domain record service.
package remote

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

	"github.com/paihq/pai/internal/rest"
	"github.com/paihq/pai/pkg/identity"
	"github.com/paihq/pai/pkg/record"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// ErrAccessDenied matches every StatusError with code 401 or 403.
var ErrAccessDenied = errors.New("access denied")

type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("record service returned status %d", e.Code)
	}
	return fmt.Sprintf("record service returned status %d: %s", e.Code, e.Message)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrAccessDenied && (e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden)
}

// IsAccessDenied reports whether err means the session expired or the subscription is inactive.
func IsAccessDenied(err error) bool {
	if errors.Is(err, ErrAccessDenied) || errors.Is(err, identity.ErrNotLoggedIn) {
		return true
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		code := retrieveErr.Response.StatusCode
		return code == http.StatusUnauthorized || code == http.StatusForbidden
	}
	return false
}

type Service[T any] interface {
	List(ctx context.Context) ([]T, error)
	// Create stores one record. A non-empty idempotencyKey lets the server return the
	// record created by an earlier call with the same key.
	Create(ctx context.Context, rec T, idempotencyKey string) (T, error)
	// Update applies a JSON merge patch to the stored record and returns the result.
	Update(ctx context.Context, id string, patch json.RawMessage) (T, error)
	Delete(ctx context.Context, id string) error
}

type Client[T any] struct {
	baseURL string
	kind    record.Kind
	http    *http.Client
}

// NewClient returns a client for one domain. Requests carry a bearer token from tokens;
// base is the transport underneath (http.DefaultTransport when nil).
func NewClient[T any](baseURL string, kind record.Kind, tokens oauth2.TokenSource, base http.RoundTripper) *Client[T] {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Client[T]{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		kind:    kind,
		http: &http.Client{
			Transport: &oauth2.Transport{Source: tokens, Base: base},
		},
	}
}

func (c *Client[T]) collectionURL() string {
	return fmt.Sprintf("%s/api/records/%s", c.baseURL, c.kind)
}

func (c *Client[T]) recordURL(id string) string {
	return c.collectionURL() + "/" + url.PathEscape(id)
}

func (c *Client[T]) List(ctx context.Context) ([]T, error) {
	var records []T
	if err := c.do(ctx, http.MethodGet, c.collectionURL(), nil, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client[T]) Create(ctx context.Context, rec T, idempotencyKey string) (T, error) {
	var created T
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set("Idempotency-Key", idempotencyKey)
	}
	err := c.do(ctx, http.MethodPost, c.collectionURL(), header, rec, &created)
	return created, err
}

func (c *Client[T]) Update(ctx context.Context, id string, patch json.RawMessage) (T, error) {
	var updated T
	err := c.do(ctx, http.MethodPatch, c.recordURL(id), nil, patch, &updated)
	return updated, err
}

func (c *Client[T]) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.recordURL(id), nil, nil, nil)
}

func (c *Client[T]) do(ctx context.Context, method, url string, header http.Header, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s payload: %w", c.kind, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	log.Tracef("%s %s", method, url)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, c.kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		statusErr := &StatusError{Code: resp.StatusCode}
		var errorResponse rest.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&errorResponse) == nil {
			statusErr.Message = errorResponse.Error
		}
		log.Debugf("%s %s: %v", method, url, statusErr)
		return statusErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.kind, err)
	}
	return nil
}
