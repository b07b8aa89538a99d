package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gigbridge/matchd/internal/domain/model"
)

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the matcher's tables when they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS match_requests (
			id              text PRIMARY KEY,
			title           text NOT NULL,
			domain          text NOT NULL DEFAULT '',
			required_skills jsonb NOT NULL DEFAULT '[]',
			budget_min      double precision NOT NULL DEFAULT 0,
			budget_max      double precision NOT NULL DEFAULT 0,
			locale          text NOT NULL DEFAULT '',
			sensitive       boolean NOT NULL DEFAULT false,
			status          text NOT NULL DEFAULT 'open',
			created_at      timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS match_candidates (
			id         text PRIMARY KEY,
			profile    jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS match_snapshots (
			id         text PRIMARY KEY,
			request_id text NOT NULL,
			candidates jsonb NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS match_snapshots_request_created
			ON match_snapshots (request_id, created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// PgSnapshotStore implements SnapshotStore on Postgres. Ranked candidates
// are stored as a JSONB payload; ordering is preserved by the array.
type PgSnapshotStore struct {
	pool *pgxpool.Pool
}

// NewPgSnapshotStore returns a Postgres-backed snapshot store.
func NewPgSnapshotStore(pool *pgxpool.Pool) *PgSnapshotStore {
	return &PgSnapshotStore{pool: pool}
}

// Append implements SnapshotStore.
func (s *PgSnapshotStore) Append(ctx context.Context, snap model.Snapshot) error {
	payload, err := json.Marshal(snap.Candidates)
	if err != nil {
		return fmt.Errorf("encode candidates: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO match_snapshots (id, request_id, candidates, created_at)
		 VALUES ($1, $2, $3, $4)`,
		snap.ID, snap.RequestID, payload, snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Latest implements SnapshotStore.
func (s *PgSnapshotStore) Latest(ctx context.Context, requestID string) (model.Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, request_id, candidates, created_at
		 FROM match_snapshots
		 WHERE request_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		requestID,
	)
	snap, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Snapshot{}, ErrNoSnapshot
		}
		return model.Snapshot{}, fmt.Errorf("latest snapshot: %w", err)
	}
	return snap, nil
}

// History implements SnapshotStore.
func (s *PgSnapshotStore) History(ctx context.Context, requestID string, limit int) ([]model.Snapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, request_id, candidates, created_at
		 FROM match_snapshots
		 WHERE request_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		requestID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot history query: %w", err)
	}
	defer rows.Close()

	out := make([]model.Snapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("snapshot history scan: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Count implements SnapshotStore.
func (s *PgSnapshotStore) Count(ctx context.Context) int {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM match_snapshots`).Scan(&n); err != nil {
		return 0
	}
	return n
}

func scanSnapshot(row pgx.Row) (model.Snapshot, error) {
	var (
		snap    model.Snapshot
		payload []byte
	)
	if err := row.Scan(&snap.ID, &snap.RequestID, &payload, &snap.CreatedAt); err != nil {
		return model.Snapshot{}, err
	}
	if err := json.Unmarshal(payload, &snap.Candidates); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode candidates: %w", err)
	}
	return snap, nil
}

// PgRequestStore implements RequestStore on Postgres.
type PgRequestStore struct {
	pool *pgxpool.Pool
}

// NewPgRequestStore returns a Postgres-backed request store.
func NewPgRequestStore(pool *pgxpool.Pool) *PgRequestStore {
	return &PgRequestStore{pool: pool}
}

// Put implements RequestStore.
func (s *PgRequestStore) Put(ctx context.Context, req model.Request) error {
	skills, err := json.Marshal(req.RequiredSkills)
	if err != nil {
		return fmt.Errorf("encode required skills: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO match_requests
			(id, title, domain, required_skills, budget_min, budget_max, locale, sensitive, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			domain = EXCLUDED.domain,
			required_skills = EXCLUDED.required_skills,
			budget_min = EXCLUDED.budget_min,
			budget_max = EXCLUDED.budget_max,
			locale = EXCLUDED.locale,
			sensitive = EXCLUDED.sensitive,
			status = EXCLUDED.status`,
		req.ID, req.Title, req.Domain, skills, req.BudgetMin, req.BudgetMax,
		req.Locale, req.Sensitive, req.Status, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert request: %w", err)
	}
	return nil
}

// Get implements RequestStore.
func (s *PgRequestStore) Get(ctx context.Context, id string) (model.Request, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, title, domain, required_skills, budget_min, budget_max, locale, sensitive, status, created_at
		 FROM match_requests WHERE id = $1`,
		id,
	)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Request{}, ErrNotFound
		}
		return model.Request{}, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

// List implements RequestStore.
func (s *PgRequestStore) List(ctx context.Context, status string) ([]model.Request, error) {
	const base = `SELECT id, title, domain, required_skills, budget_min, budget_max, locale, sensitive, status, created_at
		 FROM match_requests`

	var (
		rows pgx.Rows
		err  error
	)
	if status != "" {
		rows, err = s.pool.Query(ctx, base+` WHERE status = $1 ORDER BY created_at DESC`, status)
	} else {
		rows, err = s.pool.Query(ctx, base+` ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("list requests query: %w", err)
	}
	defer rows.Close()

	out := make([]model.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("list requests scan: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (model.Request, error) {
	var (
		req    model.Request
		skills []byte
	)
	if err := row.Scan(&req.ID, &req.Title, &req.Domain, &skills, &req.BudgetMin,
		&req.BudgetMax, &req.Locale, &req.Sensitive, &req.Status, &req.CreatedAt); err != nil {
		return model.Request{}, err
	}
	if err := json.Unmarshal(skills, &req.RequiredSkills); err != nil {
		return model.Request{}, fmt.Errorf("decode required skills: %w", err)
	}
	return req, nil
}

// PgCandidateStore implements CandidateStore on Postgres, storing the
// whole profile as JSONB.
type PgCandidateStore struct {
	pool *pgxpool.Pool
}

// NewPgCandidateStore returns a Postgres-backed candidate store.
func NewPgCandidateStore(pool *pgxpool.Pool) *PgCandidateStore {
	return &PgCandidateStore{pool: pool}
}

// Put implements CandidateStore.
func (s *PgCandidateStore) Put(ctx context.Context, cand model.Candidate) error {
	profile, err := json.Marshal(cand)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO match_candidates (id, profile, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (id) DO UPDATE SET profile = EXCLUDED.profile, updated_at = now()`,
		cand.ID, profile,
	)
	if err != nil {
		return fmt.Errorf("upsert candidate: %w", err)
	}
	return nil
}

// Get implements CandidateStore.
func (s *PgCandidateStore) Get(ctx context.Context, id string) (model.Candidate, error) {
	var profile []byte
	err := s.pool.QueryRow(ctx, `SELECT profile FROM match_candidates WHERE id = $1`, id).Scan(&profile)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Candidate{}, ErrNotFound
		}
		return model.Candidate{}, fmt.Errorf("get candidate: %w", err)
	}
	var cand model.Candidate
	if err := json.Unmarshal(profile, &cand); err != nil {
		return model.Candidate{}, fmt.Errorf("decode profile: %w", err)
	}
	return cand, nil
}

// List implements CandidateStore.
func (s *PgCandidateStore) List(ctx context.Context) ([]model.Candidate, error) {
	rows, err := s.pool.Query(ctx, `SELECT profile FROM match_candidates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list candidates query: %w", err)
	}
	defer rows.Close()

	out := make([]model.Candidate, 0)
	for rows.Next() {
		var profile []byte
		if err := rows.Scan(&profile); err != nil {
			return nil, fmt.Errorf("list candidates scan: %w", err)
		}
		var cand model.Candidate
		if err := json.Unmarshal(profile, &cand); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
		out = append(out, cand)
	}
	return out, rows.Err()
}
