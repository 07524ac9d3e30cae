package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hibiken/asynq"

	"codesurvey/internal/schemas"
	"codesurvey/internal/survey"
)

// TaskForwardResponse is the asynq task type carrying one ResponsePayload.
const TaskForwardResponse = "survey:forward_response"

var ErrNoEndpoint = errors.New("no forwarding endpoint configured")

// Forwarder sends one record to the external persistence endpoint.
type Forwarder interface {
	Forward(ctx context.Context, sessionID string, rec survey.Record) error
}

// Webhook posts payloads straight to URL. A nil Client uses
// http.DefaultClient, so there is no timeout beyond the transport's own.
type Webhook struct {
	URL    string
	Client *http.Client
}

func (w *Webhook) Forward(ctx context.Context, sessionID string, rec survey.Record) error {
	return w.Post(ctx, schemas.NewResponsePayload(sessionID, rec))
}

// Post delivers an already built payload.
func (w *Webhook) Post(ctx context.Context, p schemas.ResponsePayload) error {
	if w.URL == "" {
		return ErrNoEndpoint
	}
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c := w.Client
	if c == nil {
		c = http.DefaultClient
	}
	res, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("post webhook: status %d: %s", res.StatusCode, bytes.TrimSpace(body))
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

// Enqueuer is the part of *asynq.Client the queue forwarder needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Queue hands records to the worker through asynq. Tasks are never retried.
type Queue struct {
	Client Enqueuer
}

func (q *Queue) Forward(ctx context.Context, sessionID string, rec survey.Record) error {
	task, err := NewForwardTask(schemas.NewResponsePayload(sessionID, rec))
	if err != nil {
		return err
	}
	if _, err := q.Client.EnqueueContext(ctx, task, asynq.MaxRetry(0)); err != nil {
		return fmt.Errorf("enqueue forward: %w", err)
	}
	return nil
}

func NewForwardTask(p schemas.ResponsePayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode forward payload: %w", err)
	}
	return asynq.NewTask(TaskForwardResponse, b), nil
}

func DecodeForwardTask(t *asynq.Task) (schemas.ResponsePayload, error) {
	var p schemas.ResponsePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode forward payload: %w", err)
	}
	return p, nil
}
