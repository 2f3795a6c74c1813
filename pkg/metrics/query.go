package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// UsageReport aggregates LLM token usage recorded by this process, as seen
// by a scraping Prometheus server.
type UsageReport struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
	Turns            int64 `json:"turns"`
}

// QueryService queries an external Prometheus server for usage aggregates.
type QueryService struct {
	queryAPI v1.API
}

// NewQueryService creates a query service against the given Prometheus URL.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{Address: prometheusURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}
	return &QueryService{queryAPI: v1.NewAPI(client)}, nil
}

// GetUsage returns total token usage and turn counts across all models and
// components.
func (q *QueryService) GetUsage(ctx context.Context) (*UsageReport, error) {
	report := &UsageReport{}

	prompt, err := q.sumQuery(ctx, `sum(llm_tokens_total{type="prompt"})`)
	if err != nil {
		return nil, fmt.Errorf("failed to query prompt tokens: %w", err)
	}
	report.PromptTokens = prompt

	completion, err := q.sumQuery(ctx, `sum(llm_tokens_total{type="completion"})`)
	if err != nil {
		return nil, fmt.Errorf("failed to query completion tokens: %w", err)
	}
	report.CompletionTokens = completion
	report.TotalTokens = prompt + completion

	turns, err := q.sumQuery(ctx, `sum(pmbot_turns_total)`)
	if err != nil {
		return nil, fmt.Errorf("failed to query turn count: %w", err)
	}
	report.Turns = turns

	return report, nil
}

func (q *QueryService) sumQuery(ctx context.Context, query string) (int64, error) {
	result, _, err := q.queryAPI.Query(ctx, query, time.Now())
	if err != nil {
		return 0, err
	}
	if vector, ok := result.(model.Vector); ok && len(vector) > 0 {
		return int64(vector[0].Value), nil
	}
	return 0, nil
}
