package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

type llmRequestRepo struct {
	drv *entsql.Driver
}

func (r *llmRequestRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(llmRequestsTable).
		Columns("provider", "model", "purpose", "input_tokens", "output_tokens",
			"latency_ms", "cost_usd", "success", "error_message", "created_at").
		Values(data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens,
			data.LatencyMs, data.CostUSD, data.Success, data.ErrorMessage, time.Now().UnixMilli()).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *llmRequestRepo) RecentLLMRequests(ctx context.Context, purpose string, limit int) ([]LLMRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	sel := entsql.Dialect(dialect.SQLite).
		Select("id", "provider", "model", "purpose", "input_tokens", "output_tokens",
			"latency_ms", "cost_usd", "success", "error_message", "created_at").
		From(entsql.Table(llmRequestsTable))
	if purpose != "" {
		sel.Where(entsql.EQ("purpose", purpose))
	}
	query, args := sel.OrderBy(entsql.Desc("id")).Limit(limit).Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query LLM requests: %w", err)
	}
	defer rows.Close()

	var out []LLMRequest
	for rows.Next() {
		var (
			req     LLMRequest
			created int64
		)
		err := rows.Scan(&req.ID, &req.Provider, &req.Model, &req.Purpose,
			&req.InputTokens, &req.OutputTokens, &req.LatencyMs, &req.CostUSD,
			&req.Success, &req.ErrorMessage, &created)
		if err != nil {
			return nil, fmt.Errorf("scan LLM request: %w", err)
		}
		req.Timestamp = time.UnixMilli(created)
		out = append(out, req)
	}
	return out, rows.Err()
}
