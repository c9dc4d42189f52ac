// Package api is the HTTP client for the tomorrows-news backend. One
// Client serves the whole process: it attaches the stored bearer token
// to every request via an oauth2 transport and reacts globally to
// authorization failure by purging the token and firing a hook.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Convl/tomorrows-news/internal/domain"
)

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, e.g. "https://host/api/v1".
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
	// OnAuthFailure runs once per 401 after the token has been purged.
	OnAuthFailure func()
}

// Client talks to the backend REST API.
type Client struct {
	baseURL string
	tokens  *TokenStore
	logger  *slog.Logger
	retry   *RetryPolicy

	authed    *http.Client // bearer transport, request timeout
	streaming *http.Client // bearer transport, no timeout, for SSE
	plain     *http.Client // no auth, for login

	onAuthFailure func()
}

// NewClient builds a client around the given token store.
func NewClient(cfg Config, tokens *TokenStore) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	transport := &oauth2.Transport{Source: tokens, Base: http.DefaultTransport}

	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		tokens:        tokens,
		logger:        cfg.Logger,
		retry:         DefaultRetryPolicy(),
		authed:        &http.Client{Transport: transport, Timeout: cfg.Timeout},
		streaming:     &http.Client{Transport: transport},
		plain:         &http.Client{Timeout: cfg.Timeout},
		onAuthFailure: cfg.OnAuthFailure,
	}
}

// Login exchanges credentials for a bearer token and stores it.
func (c *Client) Login(ctx context.Context, username, password string) error {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/jwt/login", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.plain.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if payload.AccessToken == "" {
		return fmt.Errorf("login response carried no token")
	}
	if err := c.tokens.Save(payload.AccessToken); err != nil {
		return err
	}
	c.logger.Info("logged in", "user", username)
	return nil
}

// Logout discards the stored token.
func (c *Client) Logout() error {
	return c.tokens.Clear()
}

// ListTopics fetches the user's topics.
func (c *Client) ListTopics(ctx context.Context) ([]domain.Topic, error) {
	var topics []domain.Topic
	err := c.get(ctx, "/topics", nil, &topics)
	return topics, err
}

// GetTopic fetches one topic by id.
func (c *Client) GetTopic(ctx context.Context, id int) (domain.Topic, error) {
	var topic domain.Topic
	err := c.get(ctx, "/topics/"+strconv.Itoa(id), nil, &topic)
	return topic, err
}

// CreateTopic creates a topic and returns the server's version.
func (c *Client) CreateTopic(ctx context.Context, draft domain.TopicDraft) (domain.Topic, error) {
	var topic domain.Topic
	err := c.send(ctx, http.MethodPost, "/topics", draft, &topic)
	return topic, err
}

// UpdateTopic updates a topic in place.
func (c *Client) UpdateTopic(ctx context.Context, id int, draft domain.TopicDraft) (domain.Topic, error) {
	var topic domain.Topic
	err := c.send(ctx, http.MethodPut, "/topics/"+strconv.Itoa(id), draft, &topic)
	return topic, err
}

// DeleteTopic deletes a topic; the backend cascades to its sources
// and events.
func (c *Client) DeleteTopic(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodDelete, "/topics/"+strconv.Itoa(id), nil, nil)
}

// ListSources fetches the scraping sources of a topic.
func (c *Client) ListSources(ctx context.Context, topicID int) ([]domain.ScrapingSource, error) {
	var sources []domain.ScrapingSource
	query := url.Values{"topic_id": {strconv.Itoa(topicID)}}
	err := c.get(ctx, "/scraping-sources", query, &sources)
	return sources, err
}

// GetSource fetches one scraping source by id.
func (c *Client) GetSource(ctx context.Context, id int) (domain.ScrapingSource, error) {
	var src domain.ScrapingSource
	err := c.get(ctx, "/scraping-sources/"+strconv.Itoa(id), nil, &src)
	return src, err
}

// CreateSource creates a scraping source under draft.TopicID.
func (c *Client) CreateSource(ctx context.Context, draft domain.SourceDraft) (domain.ScrapingSource, error) {
	var src domain.ScrapingSource
	err := c.send(ctx, http.MethodPost, "/scraping-sources", draft, &src)
	return src, err
}

// UpdateSource updates a scraping source in place.
func (c *Client) UpdateSource(ctx context.Context, id int, draft domain.SourceDraft) (domain.ScrapingSource, error) {
	var src domain.ScrapingSource
	err := c.send(ctx, http.MethodPut, "/scraping-sources/"+strconv.Itoa(id), draft, &src)
	return src, err
}

// DeleteSource deletes a scraping source.
func (c *Client) DeleteSource(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodDelete, "/scraping-sources/"+strconv.Itoa(id), nil, nil)
}

// TriggerScrape asks the backend to crawl a source now. The crawl
// itself completes asynchronously; its result arrives over the push
// channel or the next poll.
func (c *Client) TriggerScrape(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodPost, "/scraping-sources/"+strconv.Itoa(id)+"/trigger-scrape", nil, nil)
}

// ListEvents fetches the events extracted for a topic.
func (c *Client) ListEvents(ctx context.Context, topicID int) ([]domain.Event, error) {
	var events []domain.Event
	query := url.Values{"topic_id": {strconv.Itoa(topicID)}}
	err := c.get(ctx, "/events", query, &events)
	return events, err
}

// OpenStream opens the long-lived server-sent-event connection. The
// caller owns the response body and must close it; cancelling ctx
// aborts the in-flight request and the stream.
func (c *Client) OpenStream(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stream-sse", nil)
	if err != nil {
		return nil, fmt.Errorf("create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streaming.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		c.authFailed()
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

// get performs a read with retry on transient server errors.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			backoff := c.retry.CalculateBackoff(attempt - 1)
			c.logger.Debug("retrying request", "path", path, "attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = c.do(ctx, http.MethodGet, path, query, nil, out)
		if lastErr == nil || !c.retry.IsRetryableError(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// send performs a mutation. Mutations are never retried automatically;
// the user re-submits after seeing the error.
func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.authed.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		c.authFailed()
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := decodeAPIError(resp)
		c.logger.Debug("request failed", "method", method, "path", path, "status", resp.StatusCode)
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// SetAuthFailureHook replaces the global authorization-failure hook.
// The dashboard binds it once the UI program exists, before any
// request goroutine starts.
func (c *Client) SetAuthFailureHook(fn func()) {
	c.onAuthFailure = fn
}

// authFailed purges the dead token and notifies the application. The
// next connection requires a fresh login.
func (c *Client) authFailed() {
	if err := c.tokens.Clear(); err != nil {
		c.logger.Error("failed to clear token", "error", err)
	}
	c.logger.Warn("session expired, token purged")
	if c.onAuthFailure != nil {
		c.onAuthFailure()
	}
}
