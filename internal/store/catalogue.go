package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/ddbexpr/internal/request"
)

// ErrNotFound is returned by Get when no record has the given id.
var ErrNotFound = errors.New("compilation not found")

// Record is one stored compilation.
type Record struct {
	Seq         int64        `json:"seq"`
	ID          string       `json:"id"`
	Fingerprint string       `json:"fingerprint"`
	Operation   string       `json:"operation"`
	Table       string       `json:"table"`
	Compiled    request.Wire `json:"compiled"`
}

// ListOptions narrows List. The zero value lists everything.
type ListOptions struct {
	Table string
	Limit int
}

// Save records a compiled request. Saving a request whose fingerprint is
// already stored returns the existing record with inserted == false.
func (s *Store) Save(ctx context.Context, c *request.Compiled) (rec Record, inserted bool, err error) {
	w := c.Wire()
	fp, err := Fingerprint(w)
	if err != nil {
		return Record{}, false, fmt.Errorf("save compilation: %w", err)
	}

	data, err := json.Marshal(w)
	if err != nil {
		return Record{}, false, fmt.Errorf("save compilation: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Record{}, false, fmt.Errorf("save compilation: generate id: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO compilations (id, fingerprint, operation, table_name, compiled)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, id.String(), fp, w.Operation, w.Table, string(data))
	if err != nil {
		return Record{}, false, fmt.Errorf("save compilation: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return Record{}, false, fmt.Errorf("save compilation: rows affected: %w", err)
	}

	rec, err = scanRecord(s.db.QueryRowContext(ctx, selectRecord+` WHERE fingerprint = ?`, fp))
	if err != nil {
		return Record{}, false, fmt.Errorf("save compilation: %w", err)
	}

	if n == 0 {
		s.logger.Debug("compilation already stored", "id", rec.ID, "fingerprint", fp)
		return rec, false, nil
	}
	s.logger.Debug("compilation stored",
		"id", rec.ID,
		"operation", rec.Operation,
		"table", rec.Table,
		"seq", rec.Seq,
	)
	return rec, true, nil
}

// Get returns the record with the given id, or an error wrapping
// ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s: %w", id, err)
	}
	return rec, nil
}

// List returns stored records in insertion order.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	query := selectRecord
	var args []any
	if opts.Table != "" {
		query += ` WHERE table_name = ?`
		args = append(args, opts.Table)
	}
	query += ` ORDER BY seq ASC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query compilations: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compilations: %w", err)
	}
	return records, nil
}

const selectRecord = `
	SELECT seq, id, fingerprint, operation, table_name, compiled
	FROM compilations`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	var compiled string
	if err := row.Scan(&rec.Seq, &rec.ID, &rec.Fingerprint, &rec.Operation, &rec.Table, &compiled); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(compiled), &rec.Compiled); err != nil {
		return Record{}, fmt.Errorf("decode compilation %s: %w", rec.ID, err)
	}
	return rec, nil
}
