// Package metadatastore is the embedded relational database of instance
// metadata: a single Instance table, queried either by id or through a
// free-form WHERE-clause predicate supplied by the operator.
package metadatastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cuemby/stride/pkg/ids"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS Instance (
	iid        INTEGER PRIMARY KEY,
	data_did   INTEGER NOT NULL,
	nodes      INTEGER NOT NULL,
	edges      INTEGER NOT NULL,
	best_score INTEGER,
	diameter   INTEGER,
	treewidth  INTEGER,
	planar     INTEGER,
	bipartite  INTEGER
);`

// Model is one row of the Instance table.
type Model struct {
	IID       ids.IID
	DataDID   ids.DID
	Nodes     uint32
	Edges     uint32
	BestScore *uint32
	Diameter  *uint32
	Treewidth *uint32
	Planar    *bool
	Bipartite *bool
}

// RawFilter is a SQL WHERE-clause fragment executed verbatim against the
// Instance table. The store trusts its caller: this database is local and
// user-owned, and the filter exists to let an operator express arbitrary
// selection predicates (e.g. "nodes < 50 AND best_score IS NULL") without
// the harness needing its own query language.
type RawFilter string

// Store wraps the metadata.db SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating and migrating if necessary) the metadata database
// at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening metadata store %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating metadata store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Upsert inserts or replaces the row for m.IID.
func (s *Store) Upsert(ctx context.Context, m Model) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO Instance (iid, data_did, nodes, edges, best_score, diameter, treewidth, planar, bipartite)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(iid) DO UPDATE SET
			data_did=excluded.data_did, nodes=excluded.nodes, edges=excluded.edges,
			best_score=excluded.best_score, diameter=excluded.diameter,
			treewidth=excluded.treewidth, planar=excluded.planar, bipartite=excluded.bipartite`,
		m.IID, m.DataDID, m.Nodes, m.Edges, m.BestScore, m.Diameter, m.Treewidth, m.Planar, m.Bipartite)
	if err != nil {
		return fmt.Errorf("upserting instance %s: %w", m.IID, err)
	}
	return nil
}

// FetchInstance returns the metadata row for iid.
func (s *Store) FetchInstance(ctx context.Context, iid ids.IID) (*Model, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT iid, data_did, nodes, edges, best_score, diameter, treewidth, planar, bipartite
		FROM Instance WHERE iid = ?`, iid)
	m, err := scanModel(row)
	if err != nil {
		return nil, fmt.Errorf("fetching instance %s: %w", iid, err)
	}
	return m, nil
}

// FetchDIDOfIID is a narrow accessor that returns only the DID of iid,
// not the full metadata row.
func (s *Store) FetchDIDOfIID(ctx context.Context, iid ids.IID) (ids.DID, error) {
	m, err := s.FetchInstance(ctx, iid)
	if err != nil {
		return 0, err
	}
	return m.DataDID, nil
}

// FetchIIDsByFilter runs "SELECT iid FROM Instance WHERE <predicate>" and
// returns the matching ids. predicate is executed verbatim; see RawFilter.
func (s *Store) FetchIIDsByFilter(ctx context.Context, predicate RawFilter) ([]ids.IID, error) {
	query := "SELECT iid FROM Instance"
	if predicate != "" {
		query += " WHERE " + string(predicate)
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("running filter %q: %w", predicate, err)
	}
	defer rows.Close()

	var out []ids.IID
	for rows.Next() {
		var iid ids.IID
		if err := rows.Scan(&iid); err != nil {
			return nil, fmt.Errorf("scanning filter result: %w", err)
		}
		out = append(out, iid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating filter results: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanModel(row rowScanner) (*Model, error) {
	var m Model
	if err := row.Scan(&m.IID, &m.DataDID, &m.Nodes, &m.Edges, &m.BestScore, &m.Diameter, &m.Treewidth, &m.Planar, &m.Bipartite); err != nil {
		return nil, err
	}
	return &m, nil
}
