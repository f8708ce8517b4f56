package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"neuroscan/internal/domain"
	"neuroscan/internal/repository"
)

// QueryConsole runs ad-hoc SQL for the admin console. Only statements
// whose first token is SELECT are accepted. The prefix check keeps the
// console narrow; it is not an injection boundary and makes no attempt
// to vet subqueries.
type QueryConsole struct {
	db *sql.DB
}

func NewQueryConsole(db *sql.DB) repository.QueryConsole {
	return &QueryConsole{db: db}
}

func (q *QueryConsole) RunReadOnlyQuery(ctx context.Context, query string) ([]string, []map[string]any, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, nil, domain.ErrInvalidQuery
	}
	first := strings.Fields(trimmed)[0]
	if !strings.EqualFold(first, "SELECT") {
		return nil, nil, domain.ErrInvalidQuery
	}

	rows, err := q.db.QueryContext(ctx, trimmed)
	if err != nil {
		return nil, nil, fmt.Errorf("run query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("query columns: %w", err)
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan query row: %w", err)
		}

		record := make(map[string]any, len(columns))
		for i, col := range columns {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			record[col] = v
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate query rows: %w", err)
	}

	return columns, results, nil
}
