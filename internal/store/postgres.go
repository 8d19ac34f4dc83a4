package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ppiankov/aivis/internal/model"
)

// Postgres stores projects and checks in PostgreSQL; array columns are text[]
type Postgres struct {
	DB *sql.DB
}

// NewPostgres opens a pool for dsn and pings it
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{DB: db}, nil
}

const pgProjectColumns = `id, domain, brand, competitors, keywords, created_at`

func (s *Postgres) GetProject(ctx context.Context, id string) (model.Project, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT `+pgProjectColumns+`
FROM projects
WHERE id=$1
`, id)

	var p model.Project
	err := row.Scan(&p.ID, &p.Domain, &p.Brand, pq.Array(&p.Competitors), pq.Array(&p.Keywords), &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("get project %s: %w", id, err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

func (s *Postgres) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT `+pgProjectColumns+`
FROM projects
ORDER BY created_at, id
`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Domain, &p.Brand, pq.Array(&p.Competitors), pq.Array(&p.Keywords), &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateProject(ctx context.Context, p model.Project) (model.Project, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.Competitors = orEmpty(p.Competitors)
	p.Keywords = orEmpty(p.Keywords)

	_, err := s.DB.ExecContext(ctx, `
INSERT INTO projects (id, domain, brand, competitors, keywords, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, p.ID, p.Domain, p.Brand, pq.Array(p.Competitors), pq.Array(p.Keywords), p.CreatedAt)
	if err != nil {
		return model.Project{}, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

func (s *Postgres) UpdateProjectKeywords(ctx context.Context, id string, keywords []string) error {
	res, err := s.DB.ExecContext(ctx, `
UPDATE projects
SET keywords=$2
WHERE id=$1
`, id, pq.Array(orEmpty(keywords)))
	if err != nil {
		return fmt.Errorf("update keywords: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Postgres) ListChecks(ctx context.Context, projectID, keyword string) ([]model.Check, error) {
	query := `
SELECT id, project_id, engine, keyword, presence, position, citations_count,
       answer_snippet, observed_urls, checked_at
FROM checks
WHERE project_id=$1`
	args := []any{projectID}
	if keyword != "" {
		query += ` AND keyword=$2`
		args = append(args, keyword)
	}
	query += `
ORDER BY checked_at, seq
`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list checks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Check
	for rows.Next() {
		var (
			c        model.Check
			engine   string
			position sql.NullInt64
			snippet  sql.NullString
			urls     []string
		)
		if err := rows.Scan(&c.ID, &c.ProjectID, &engine, &c.Keyword, &c.Presence, &position,
			&c.CitationsCount, &snippet, pq.Array(&urls), &c.Timestamp); err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		c.Engine = model.Engine(engine)
		if position.Valid {
			v := int(position.Int64)
			c.Position = &v
		}
		if snippet.Valid {
			v := snippet.String
			c.AnswerSnippet = &v
		}
		c.ObservedURLs = orEmpty(urls)
		c.Timestamp = c.Timestamp.UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Postgres) LatestCheckAt(ctx context.Context, projectID string) (*time.Time, error) {
	var ts time.Time
	err := s.DB.QueryRowContext(ctx, `
SELECT checked_at
FROM checks
WHERE project_id=$1
ORDER BY checked_at DESC
LIMIT 1
`, projectID).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest check: %w", err)
	}
	ts = ts.UTC()
	return &ts, nil
}

func (s *Postgres) InsertChecks(ctx context.Context, checks []model.Check) error {
	if err := validateBatch(checks); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO checks (id, project_id, engine, keyword, presence, position, citations_count, answer_snippet, observed_urls, checked_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range checks {
		var position sql.NullInt64
		if c.Position != nil {
			position = sql.NullInt64{Int64: int64(*c.Position), Valid: true}
		}
		var snippet sql.NullString
		if c.AnswerSnippet != nil {
			snippet = sql.NullString{String: *c.AnswerSnippet, Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, checkID(c), c.ProjectID, string(c.Engine), c.Keyword, c.Presence,
			position, c.CitationsCount, snippet, pq.Array(orEmpty(c.ObservedURLs)), c.Timestamp.UTC()); err != nil {
			return fmt.Errorf("insert check: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *Postgres) Close() error {
	return s.DB.Close()
}
