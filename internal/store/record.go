package store

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
)

// ErrNotFound is returned by Get when no record has the requested id.
var ErrNotFound = errors.New("materialization not found")

// Materialization is one stored lowering result.
type Materialization struct {
	ID            string
	Seq           int64
	Name          string
	Source        string
	RootKind      string
	ResultType    string
	Hash          string
	CanonicalJSON string
	NodeCount     int
	VariableCount int
}

const selectColumns = `
	SELECT id, seq, name, source, root_kind, result_type, hash, canonical_json, node_count, variable_count
	FROM materializations`

// Record inserts m, assigning an id from the store's IDGenerator when m.ID
// is empty and the next seq. It returns the stored record.
func (s *Store) Record(ctx context.Context, m Materialization) (Materialization, error) {
	if m.Name == "" || m.Hash == "" {
		return Materialization{}, errors.New("record materialization: name and hash are required")
	}
	if m.ID == "" {
		id, err := s.ids.Generate()
		if err != nil {
			return Materialization{}, errors.Wrap(err, "record materialization: generate id")
		}
		m.ID = id
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Materialization{}, errors.Wrap(err, "record materialization: begin")
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM materializations`).Scan(&m.Seq); err != nil {
		return Materialization{}, errors.Wrap(err, "record materialization: next seq")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO materializations
		(id, seq, name, source, root_kind, result_type, hash, canonical_json, node_count, variable_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID,
		m.Seq,
		m.Name,
		m.Source,
		m.RootKind,
		m.ResultType,
		m.Hash,
		m.CanonicalJSON,
		m.NodeCount,
		m.VariableCount,
	)
	if err != nil {
		return Materialization{}, errors.Wrap(err, "record materialization")
	}

	if err := tx.Commit(); err != nil {
		return Materialization{}, errors.Wrap(err, "record materialization: commit")
	}
	return m, nil
}

// Get returns the record with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Materialization, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	m, err := scanMaterialization(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Materialization{}, errors.Wrapf(ErrNotFound, "id %s", id)
	}
	if err != nil {
		return Materialization{}, errors.Wrap(err, "get materialization")
	}
	return m, nil
}

// List returns the most recent limit records in seq order. A limit of zero
// or less returns every record.
func (s *Store) List(ctx context.Context, limit int) ([]Materialization, error) {
	if limit <= 0 {
		return s.query(ctx, selectColumns+` ORDER BY seq ASC`)
	}
	return s.query(ctx, `
		SELECT * FROM (`+selectColumns+` ORDER BY seq DESC LIMIT ?)
		ORDER BY seq ASC`, limit)
}

// FindByHash returns every record whose canonical hash is hash, in seq
// order.
func (s *Store) FindByHash(ctx context.Context, hash string) ([]Materialization, error) {
	return s.query(ctx, selectColumns+` WHERE hash = ? ORDER BY seq ASC`, hash)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Materialization, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query materializations")
	}
	defer rows.Close()

	records := []Materialization{}
	for rows.Next() {
		m, err := scanMaterialization(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan materialization")
		}
		records = append(records, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate materializations")
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMaterialization(row scanner) (Materialization, error) {
	var m Materialization
	err := row.Scan(
		&m.ID,
		&m.Seq,
		&m.Name,
		&m.Source,
		&m.RootKind,
		&m.ResultType,
		&m.Hash,
		&m.CanonicalJSON,
		&m.NodeCount,
		&m.VariableCount,
	)
	return m, err
}
