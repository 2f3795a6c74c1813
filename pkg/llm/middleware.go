package llm

import (
	"context"
	"time"

	"pmbot/pkg/metrics"
)

// metricsClient records request metrics around a wrapped client.
type metricsClient struct {
	next      Client
	recorder  metrics.Recorder
	component string
}

// MetricsMiddleware records request counts, token usage, and duration for
// every completion call, labeled with the owning component.
func MetricsMiddleware(recorder metrics.Recorder, component string) Middleware {
	return func(next Client) Client {
		return &metricsClient{next: next, recorder: recorder, component: component}
	}
}

func (m *metricsClient) Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error) {
	start := time.Now()
	resp, err := m.next.Complete(ctx, in)
	errType := ""
	if err != nil {
		errType = TypeOf(err).String()
	}
	m.recorder.ObserveLLMRequest(m.next.ModelName(), m.component,
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens, errType, time.Since(start))
	return resp, err
}

func (m *metricsClient) ModelName() string {
	return m.next.ModelName()
}

// timeoutClient bounds each request with a deadline.
type timeoutClient struct {
	next    Client
	timeout time.Duration
}

// TimeoutMiddleware applies a per-request deadline at the collaborator
// boundary. The core itself never retries.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next Client) Client {
		return &timeoutClient{next: next, timeout: timeout}
	}
}

func (t *timeoutClient) Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return t.next.Complete(ctx, in)
}

func (t *timeoutClient) ModelName() string {
	return t.next.ModelName()
}
