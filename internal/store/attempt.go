package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

type attemptRepo struct {
	drv *entsql.Driver
}

func (r *attemptRepo) AppendAttempt(ctx context.Context, a Attempt) error {
	if a.FinishedAt.IsZero() {
		a.FinishedAt = time.Now()
	}
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(quizAttemptsTable).
		Columns("id", "account_id", "subject", "score", "total", "percentage", "elapsed_ms", "finished_at").
		Values(a.ID.String(), a.AccountID, a.Subject,
			a.Score, a.Total, a.Percentage,
			a.Elapsed.Milliseconds(), a.FinishedAt.UnixMilli()).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save quiz attempt: %w", err)
	}
	return nil
}

func (r *attemptRepo) Stats(ctx context.Context) (AttemptStats, error) {
	stats := AttemptStats{BySubject: make(map[string]int)}
	builder := entsql.Dialect(dialect.SQLite)

	query, args := builder.
		Select(entsql.Count("*"), entsql.Avg("percentage")).
		From(entsql.Table(quizAttemptsTable)).
		Query()
	var totals entsql.Rows
	if err := r.drv.Query(ctx, query, args, &totals); err != nil {
		return AttemptStats{}, fmt.Errorf("query attempt totals: %w", err)
	}
	var mean sql.NullFloat64
	if totals.Next() {
		if err := totals.Scan(&stats.Count, &mean); err != nil {
			totals.Close()
			return AttemptStats{}, fmt.Errorf("scan attempt totals: %w", err)
		}
	}
	if err := totals.Close(); err != nil {
		return AttemptStats{}, fmt.Errorf("close attempt totals: %w", err)
	}
	stats.MeanPercentage = mean.Float64

	query, args = builder.
		Select("subject", entsql.Count("*")).
		From(entsql.Table(quizAttemptsTable)).
		GroupBy("subject").
		Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return AttemptStats{}, fmt.Errorf("query attempts by subject: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			subject string
			count   int
		)
		if err := rows.Scan(&subject, &count); err != nil {
			return AttemptStats{}, fmt.Errorf("scan attempt count: %w", err)
		}
		stats.BySubject[subject] = count
	}
	return stats, rows.Err()
}
