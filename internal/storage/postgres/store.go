package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"metaregistryCheck/internal/model"
	"metaregistryCheck/internal/storage"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS check_runs (
	run_id        TEXT PRIMARY KEY,
	chain_id      BIGINT NOT NULL,
	block_number  BIGINT NOT NULL,
	metaregistry  TEXT NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ,
	pass_count    INTEGER NOT NULL DEFAULT 0,
	skip_count    INTEGER NOT NULL DEFAULT 0,
	fail_count    INTEGER NOT NULL DEFAULT 0,
	error_count   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS check_results (
	run_id                  TEXT NOT NULL,
	suite                   TEXT NOT NULL,
	pool_index              BIGINT NOT NULL,
	pool_address            TEXT NOT NULL,
	lp_token                TEXT,
	chain_id                BIGINT NOT NULL,
	block_number            BIGINT NOT NULL,
	outcome                 TEXT NOT NULL,
	reason                  TEXT,
	detail                  TEXT,
	reference_virtual_price NUMERIC(78, 0),
	facade_virtual_price    NUMERIC(78, 0),
	checked_at              TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, suite, pool_address)
);
`

// Store provides Postgres persistence for conformance results.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Sink = (*Store)(nil)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the result tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveRun inserts or updates a run summary.
func (s *Store) SaveRun(ctx context.Context, run model.Run) error {
	var finished interface{}
	if !run.FinishedAt.IsZero() {
		finished = run.FinishedAt
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO check_runs (
			run_id, chain_id, block_number, metaregistry, started_at, finished_at,
			pass_count, skip_count, fail_count, error_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id)
		DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			pass_count = EXCLUDED.pass_count,
			skip_count = EXCLUDED.skip_count,
			fail_count = EXCLUDED.fail_count,
			error_count = EXCLUDED.error_count
	`,
		run.ID,
		int64(run.ChainID),
		int64(run.BlockNumber),
		run.MetaRegistry,
		run.StartedAt,
		finished,
		run.Totals[model.OutcomePass],
		run.Totals[model.OutcomeSkip],
		run.Totals[model.OutcomeFail],
		run.Totals[model.OutcomeError],
	)
	return err
}

// PutResults upserts case results in one batch.
func (s *Store) PutResults(ctx context.Context, results []model.CaseResult) error {
	if len(results) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range results {
		batch.Queue(`
			INSERT INTO check_results (
				run_id, suite, pool_index, pool_address, lp_token, chain_id, block_number,
				outcome, reason, detail, reference_virtual_price, facade_virtual_price, checked_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11::numeric,$12::numeric,$13::timestamptz)
			ON CONFLICT (run_id, suite, pool_address)
			DO UPDATE SET
				pool_index = EXCLUDED.pool_index,
				lp_token = EXCLUDED.lp_token,
				outcome = EXCLUDED.outcome,
				reason = EXCLUDED.reason,
				detail = EXCLUDED.detail,
				reference_virtual_price = EXCLUDED.reference_virtual_price,
				facade_virtual_price = EXCLUDED.facade_virtual_price,
				checked_at = EXCLUDED.checked_at
		`,
			r.RunID,
			r.Suite,
			int64(r.PoolIndex),
			r.Pool,
			nullable(r.LPToken),
			int64(r.ChainID),
			int64(r.BlockNumber),
			string(r.Outcome),
			nullable(r.Reason),
			nullable(r.Detail),
			nullable(r.ReferenceVirtualPrice),
			nullable(r.FacadeVirtualPrice),
			r.CheckedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range results {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
