// Package sqlite implements the durable, production persistence.Store
// backend described in the run entrypoint's persisted schema: a "runs"
// table upserted once per recipe and a content-addressed "samples" table
// that is never deleted from.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AltairaLabs/beliefbench/persistence"
	"github.com/AltairaLabs/beliefbench/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	claim TEXT NOT NULL,
	model TEXT NOT NULL,
	prompt_version TEXT NOT NULL,
	k INTEGER NOT NULL,
	r INTEGER NOT NULL,
	t INTEGER NOT NULL,
	b INTEGER NOT NULL,
	seed INTEGER NOT NULL,
	bootstrap_seed INTEGER NOT NULL,
	prob_true_rpl REAL NOT NULL,
	ci_lo REAL NOT NULL,
	ci_hi REAL NOT NULL,
	ci_width REAL NOT NULL,
	template_iqr_logit REAL NOT NULL,
	stability_score REAL NOT NULL,
	imbalance_ratio REAL NOT NULL,
	rpl_compliance_rate REAL NOT NULL,
	cache_hit_rate REAL NOT NULL,
	config_json TEXT NOT NULL,
	sampler_json TEXT NOT NULL,
	counts_by_template_json TEXT NOT NULL,
	prompt_char_len_max INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_prompt_version_model ON runs (prompt_version, model);

CREATE TABLE IF NOT EXISTS samples (
	cache_key TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	prompt_sha256 TEXT NOT NULL,
	paraphrase_idx INTEGER NOT NULL,
	replicate_idx INTEGER NOT NULL,
	prob_true REAL,
	logit REAL,
	provider_model_id TEXT NOT NULL,
	response_id TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	latency_ms INTEGER NOT NULL,
	json_valid INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_samples_run_id ON samples (run_id);
`

// Compile-time interface check.
var _ persistence.Store = (*Store)(nil)

// Store is a database/sql-backed persistence.Store using the pure-Go
// modernc.org/sqlite driver (no cgo dependency).
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite database at path, with WAL
// journaling and a busy timeout suited to a single-writer measurement run,
// and ensures the runs/samples schema exists.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sqlite store: ping %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("sqlite store: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// UpsertRun implements persistence.Store.
func (s *Store) UpsertRun(ctx context.Context, run types.RunAggregate) error {
	const stmt = `
	INSERT INTO runs (
		run_id, created_at, claim, model, prompt_version, k, r, t, b, seed, bootstrap_seed,
		prob_true_rpl, ci_lo, ci_hi, ci_width, template_iqr_logit, stability_score,
		imbalance_ratio, rpl_compliance_rate, cache_hit_rate, config_json, sampler_json,
		counts_by_template_json, prompt_char_len_max
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (run_id) DO UPDATE SET
		created_at = excluded.created_at,
		claim = excluded.claim,
		model = excluded.model,
		prompt_version = excluded.prompt_version,
		k = excluded.k, r = excluded.r, t = excluded.t, b = excluded.b,
		seed = excluded.seed, bootstrap_seed = excluded.bootstrap_seed,
		prob_true_rpl = excluded.prob_true_rpl,
		ci_lo = excluded.ci_lo, ci_hi = excluded.ci_hi, ci_width = excluded.ci_width,
		template_iqr_logit = excluded.template_iqr_logit,
		stability_score = excluded.stability_score,
		imbalance_ratio = excluded.imbalance_ratio,
		rpl_compliance_rate = excluded.rpl_compliance_rate,
		cache_hit_rate = excluded.cache_hit_rate,
		config_json = excluded.config_json,
		sampler_json = excluded.sampler_json,
		counts_by_template_json = excluded.counts_by_template_json,
		prompt_char_len_max = excluded.prompt_char_len_max
	`
	_, err := s.db.ExecContext(ctx, stmt,
		run.RunID, run.CreatedAt.Unix(), run.Claim, run.Model, run.PromptVersion,
		run.K, run.R, run.T, run.B, run.Seed, run.BootstrapSeed,
		run.ProbTrueRPL, run.CILo, run.CIHi, run.CIWidth, run.TemplateIQRLogit, run.StabilityScore,
		run.ImbalanceRatio, run.RPLComplianceRate, run.CacheHitRate,
		run.ConfigJSON, run.SamplerJSON, run.CountsByTemplateJSON, run.PromptCharLenMax,
	)
	if err != nil {
		return fmt.Errorf("sqlite store: upsert run %s: %w", run.RunID, err)
	}
	return nil
}

// GetRun implements persistence.Store.
func (s *Store) GetRun(ctx context.Context, runID string) (types.RunAggregate, bool, error) {
	const q = `
	SELECT run_id, created_at, claim, model, prompt_version, k, r, t, b, seed, bootstrap_seed,
		prob_true_rpl, ci_lo, ci_hi, ci_width, template_iqr_logit, stability_score,
		imbalance_ratio, rpl_compliance_rate, cache_hit_rate, config_json, sampler_json,
		counts_by_template_json, prompt_char_len_max
	FROM runs WHERE run_id = ?
	`
	row := s.db.QueryRowContext(ctx, q, runID)

	var run types.RunAggregate
	var createdAtUnix int64
	err := row.Scan(
		&run.RunID, &createdAtUnix, &run.Claim, &run.Model, &run.PromptVersion,
		&run.K, &run.R, &run.T, &run.B, &run.Seed, &run.BootstrapSeed,
		&run.ProbTrueRPL, &run.CILo, &run.CIHi, &run.CIWidth, &run.TemplateIQRLogit, &run.StabilityScore,
		&run.ImbalanceRatio, &run.RPLComplianceRate, &run.CacheHitRate,
		&run.ConfigJSON, &run.SamplerJSON, &run.CountsByTemplateJSON, &run.PromptCharLenMax,
	)
	if err == sql.ErrNoRows {
		return types.RunAggregate{}, false, nil
	}
	if err != nil {
		return types.RunAggregate{}, false, fmt.Errorf("sqlite store: get run %s: %w", runID, err)
	}
	run.CreatedAt = unixToTime(createdAtUnix)
	return run, true, nil
}

// UpsertSample implements persistence.Store. The cache_key primary key
// means a repeat insert for the same content-addressed sample re-links it
// to the current run_id instead of producing a duplicate row.
func (s *Store) UpsertSample(ctx context.Context, sample types.Sample) error {
	const stmt = `
	INSERT INTO samples (
		cache_key, run_id, prompt_sha256, paraphrase_idx, replicate_idx,
		prob_true, logit, provider_model_id, response_id, created_at, latency_ms, json_valid
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (cache_key) DO UPDATE SET run_id = excluded.run_id
	`
	_, err := s.db.ExecContext(ctx, stmt,
		sample.CacheKey, sample.RunID, sample.PromptSHA256, sample.ParaphraseIdx, sample.ReplicateIdx,
		sample.ProbTrue, sample.Logit, sample.ProviderModelID, sample.ResponseID,
		sample.CreatedAt.Unix(), sample.LatencyMS, boolToInt(sample.JSONValid),
	)
	if err != nil {
		return fmt.Errorf("sqlite store: upsert sample %s: %w", sample.CacheKey, err)
	}
	return nil
}

// GetSample implements persistence.Store.
func (s *Store) GetSample(ctx context.Context, cacheKey string) (types.Sample, bool, error) {
	const q = `
	SELECT cache_key, run_id, prompt_sha256, paraphrase_idx, replicate_idx,
		prob_true, logit, provider_model_id, response_id, created_at, latency_ms, json_valid
	FROM samples WHERE cache_key = ?
	`
	row := s.db.QueryRowContext(ctx, q, cacheKey)
	sample, err := scanSample(row)
	if err == sql.ErrNoRows {
		return types.Sample{}, false, nil
	}
	if err != nil {
		return types.Sample{}, false, fmt.Errorf("sqlite store: get sample %s: %w", cacheKey, err)
	}
	return sample, true, nil
}

// SamplesByRun implements persistence.Store.
func (s *Store) SamplesByRun(ctx context.Context, runID string) ([]types.Sample, error) {
	const q = `
	SELECT cache_key, run_id, prompt_sha256, paraphrase_idx, replicate_idx,
		prob_true, logit, provider_model_id, response_id, created_at, latency_ms, json_valid
	FROM samples WHERE run_id = ?
	`
	rows, err := s.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: samples by run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []types.Sample
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: scanning sample row: %w", err)
		}
		out = append(out, sample)
	}
	return out, rows.Err()
}

// Close implements persistence.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSample(scanner rowScanner) (types.Sample, error) {
	var sample types.Sample
	var createdAtUnix int64
	var jsonValidInt int
	err := scanner.Scan(
		&sample.CacheKey, &sample.RunID, &sample.PromptSHA256, &sample.ParaphraseIdx, &sample.ReplicateIdx,
		&sample.ProbTrue, &sample.Logit, &sample.ProviderModelID, &sample.ResponseID,
		&createdAtUnix, &sample.LatencyMS, &jsonValidInt,
	)
	if err != nil {
		return types.Sample{}, err
	}
	sample.CreatedAt = unixToTime(createdAtUnix)
	sample.JSONValid = jsonValidInt != 0
	return sample, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unixToTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
