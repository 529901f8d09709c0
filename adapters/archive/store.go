// Package archive stores run manifests in a SQL database so that runs can be
// listed and replayed later. sqlite3 is the default driver; postgres is
// supported through lib/pq.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"fiddler/domain/core"
	"fiddler/domain/run"
	"fiddler/internal"
	"fiddler/internal/errors"
	"fiddler/internal/migration"
	"fiddler/ports"
)

// createdAtLayout sorts lexicographically in time order.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements ports.RunArchive on sqlx.
type Store struct {
	db     *sqlx.DB
	logger *internal.Logger
}

var _ ports.RunArchive = (*Store)(nil)

// row mirrors the runs table.
type row struct {
	ID          string `db:"id"`
	Seed        int64  `db:"seed"`
	Workers     int    `db:"workers"`
	NTraces     int    `db:"n_traces"`
	TraceLength int    `db:"trace_length"`
	ParamsHash  string `db:"params_hash"`
	CodeVersion string `db:"code_version"`
	Fingerprint string `db:"fingerprint"`
	TableHash   string `db:"table_hash"`
	Manifest    string `db:"manifest"`
	CreatedAt   string `db:"created_at"`
}

// Open connects with the given driver ("sqlite3" or "postgres") and applies
// the schema.
func Open(ctx context.Context, driver, dsn string, logger *internal.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to run archive", err)
	}
	if driver == "sqlite3" {
		// An in-memory database exists per connection.
		db.SetMaxOpenConns(1)
	}
	store, err := New(ctx, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an open connection and applies the schema.
func New(ctx context.Context, db *sqlx.DB, logger *internal.Logger) (*Store, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return nil, err
	}
	return &Store{db: db, logger: logger.Named("archive")}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a manifest. Saving the same run twice is an error.
func (s *Store) Save(ctx context.Context, m *run.Manifest) error {
	if err := m.Validate(); err != nil {
		return errors.WithCode(errors.CodeValidationError, err)
	}
	body, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "failed to encode manifest")
	}

	r := row{
		ID:          m.RunID.String(),
		Seed:        m.Seed,
		Workers:     m.Workers,
		NTraces:     m.NTraces,
		TraceLength: m.TraceLength,
		ParamsHash:  m.Fingerprint.ParamsHash.String(),
		CodeVersion: m.Fingerprint.CodeVersion,
		Fingerprint: m.Fingerprint.Fingerprint.String(),
		TableHash:   m.TableHash.String(),
		Manifest:    string(body),
		CreatedAt:   m.CreatedAt.Time().UTC().Format(createdAtLayout),
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO runs (id, seed, workers, n_traces, trace_length, params_hash, code_version, fingerprint, table_hash, manifest, created_at)
		VALUES (:id, :seed, :workers, :n_traces, :trace_length, :params_hash, :code_version, :fingerprint, :table_hash, :manifest, :created_at)
	`, r)
	if err != nil {
		return errors.DatabaseError("failed to save run "+r.ID, err)
	}
	s.logger.Debug("saved run %s (%d traces, table %s)", r.ID, r.NTraces, m.TableHash.Short())
	return nil
}

// Get loads a manifest by run ID.
func (s *Store) Get(ctx context.Context, id core.RunID) (*run.Manifest, error) {
	var r row
	err := s.db.GetContext(ctx, &r, s.db.Rebind(`SELECT * FROM runs WHERE id = ?`), id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, core.NewRunNotFoundError(id.String())
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load run "+id.String(), err)
	}
	return decode(r)
}

// List returns the most recent manifests first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]*run.Manifest, error) {
	query := `SELECT * FROM runs ORDER BY created_at DESC, id DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}

	out := make([]*run.Manifest, 0, len(rows))
	for _, r := range rows {
		m, err := decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// FindByFingerprint returns earlier runs with the same parameters, seed and
// code version. Their tables are expected to be identical.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint core.Hash) ([]*run.Manifest, error) {
	var rows []row
	err := s.db.SelectContext(ctx, &rows,
		s.db.Rebind(`SELECT * FROM runs WHERE fingerprint = ? ORDER BY created_at`), fingerprint.String())
	if err != nil {
		return nil, errors.DatabaseError("failed to query runs by fingerprint", err)
	}
	out := make([]*run.Manifest, 0, len(rows))
	for _, r := range rows {
		m, err := decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func decode(r row) (*run.Manifest, error) {
	var m run.Manifest
	if err := json.Unmarshal([]byte(r.Manifest), &m); err != nil {
		return nil, errors.DatabaseError("corrupt manifest for run "+r.ID, err)
	}
	if m.CreatedAt.IsZero() {
		if t, err := time.Parse(createdAtLayout, r.CreatedAt); err == nil {
			m.CreatedAt = core.NewTimestamp(t)
		}
	}
	return &m, nil
}
