package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

type contactRepo struct {
	drv *entsql.Driver
}

func (r *contactRepo) AppendContact(ctx context.Context, c SharedContact) error {
	if c.SharedAt.IsZero() {
		c.SharedAt = time.Now()
	}
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(sharedContactsTable).
		Columns("account_id", "phone", "name", "shared_at").
		Values(c.AccountID, c.Phone, c.Name, c.SharedAt.UnixMilli()).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save shared contact: %w", err)
	}
	return nil
}

func (r *contactRepo) RecentContacts(ctx context.Context, n int) ([]SharedContact, error) {
	if n <= 0 {
		return nil, nil
	}
	query, args := entsql.Dialect(dialect.SQLite).
		Select("id", "account_id", "phone", "name", "shared_at").
		From(entsql.Table(sharedContactsTable)).
		OrderBy(entsql.Desc("id")).
		Limit(n).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query shared contacts: %w", err)
	}
	defer rows.Close()

	var out []SharedContact
	for rows.Next() {
		var (
			c  SharedContact
			ms int64
		)
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Phone, &c.Name, &ms); err != nil {
			return nil, fmt.Errorf("scan shared contact: %w", err)
		}
		c.SharedAt = time.UnixMilli(ms)
		out = append(out, c)
	}
	return out, rows.Err()
}
