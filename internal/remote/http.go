package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() string
}

// HTTPConfig configures HTTPClient.
type HTTPConfig struct {
	BaseURL        string
	Tokens         TokenSource
	RequestTimeout time.Duration // per attempt
	MaxRetries     int           // extra attempts after the first for transient failures
	HTTPClient     *http.Client
	// InitialBackoff overrides the first retry delay; tests set it low.
	InitialBackoff time.Duration
}

// HTTPClient talks JSON over HTTP to the remote store.
type HTTPClient struct {
	base           *url.URL
	tokens         TokenSource
	http           *http.Client
	timeout        time.Duration
	maxRetries     int
	initialBackoff time.Duration
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	c := &HTTPClient{
		base:           base,
		tokens:         cfg.Tokens,
		http:           cfg.HTTPClient,
		timeout:        cfg.RequestTimeout,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = 10 * time.Second
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.initialBackoff <= 0 {
		c.initialBackoff = 500 * time.Millisecond
	}
	return c, nil
}

func (c *HTTPClient) GetObjectives(ctx context.Context) ([]ObjectiveSummary, error) {
	var env objectivesEnvelope
	if err := c.do(ctx, http.MethodGet, "/objectives", nil, nil, &env); err != nil {
		return nil, fmt.Errorf("get objectives: %w", err)
	}
	return env.Objectives, nil
}

func (c *HTTPClient) GetObjective(ctx context.Context, id string) (*ObjectiveDetail, error) {
	var env objectiveEnvelope
	if err := c.do(ctx, http.MethodGet, "/objectives/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return nil, fmt.Errorf("get objective %s: %w", id, err)
	}
	return &env.Objective, nil
}

func (c *HTTPClient) CreateObjective(ctx context.Context, req CreateObjectiveRequest) (*ObjectiveDetail, error) {
	var env objectiveEnvelope
	if err := c.do(ctx, http.MethodPost, "/objectives", nil, req, &env); err != nil {
		return nil, fmt.Errorf("create objective: %w", err)
	}
	return &env.Objective, nil
}

func (c *HTTPClient) GetTasks(ctx context.Context, date string) ([]TaskSummary, error) {
	var env tasksEnvelope
	query := url.Values{"date": []string{date}}
	if err := c.do(ctx, http.MethodGet, "/tasks", query, nil, &env); err != nil {
		return nil, fmt.Errorf("get tasks for %s: %w", date, err)
	}
	return env.Tasks, nil
}

func (c *HTTPClient) CreateTask(ctx context.Context, req CreateTaskRequest) (*TaskSummary, error) {
	var env taskEnvelope
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, req, &env); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &env.Task, nil
}

func (c *HTTPClient) UpdateTask(ctx context.Context, id string, req UpdateTaskRequest) (*TaskSummary, error) {
	var env taskEnvelope
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(id), nil, req, &env); err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	return &env.Task, nil
}

// do runs one logical call: every attempt gets its own timeout, transient
// failures are retried with exponential backoff up to maxRetries times.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("encode request: %w", err))
		}
		payload = data
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialBackoff

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, c.attempt(ctx, method, path, query, payload, out)
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(uint(c.maxRetries+1)))
	return err
}

func (c *HTTPClient) attempt(ctx context.Context, method, path string, query url.Values, payload []byte, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := *c.base
	u.Path = u.Path + path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(callCtx, method, u.String(), reader)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Code: resp.StatusCode, Message: errorMessage(data)}
		if se.Temporary() {
			return se
		}
		return backoff.Permanent(se)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func errorMessage(data []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	return strings.TrimSpace(string(data))
}
