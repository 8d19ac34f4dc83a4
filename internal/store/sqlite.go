package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/aivis/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// SQLite is a single-file store built on modernc.org/sqlite.
// Array columns are JSON text; timestamps are unix nanoseconds.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite has a single writer and :memory: is per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) GetProject(ctx context.Context, id string) (model.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, domain, brand, competitors, keywords, created_at FROM projects WHERE id = ?`, id)

	p, err := scanSQLiteProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("get project %s: %w", id, err)
	}
	return p, nil
}

func (s *SQLite) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, domain, brand, competitors, keywords, created_at FROM projects ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Project
	for rows.Next() {
		p, err := scanSQLiteProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLite) CreateProject(ctx context.Context, p model.Project) (model.Project, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.Competitors = orEmpty(p.Competitors)
	p.Keywords = orEmpty(p.Keywords)

	competitors, _ := json.Marshal(p.Competitors)
	keywords, _ := json.Marshal(p.Keywords)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, domain, brand, competitors, keywords, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Domain, p.Brand, string(competitors), string(keywords), p.CreatedAt.UnixNano())
	if err != nil {
		return model.Project{}, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

func (s *SQLite) UpdateProjectKeywords(ctx context.Context, id string, keywords []string) error {
	encoded, _ := json.Marshal(orEmpty(keywords))

	res, err := s.db.ExecContext(ctx, `UPDATE projects SET keywords = ? WHERE id = ?`, string(encoded), id)
	if err != nil {
		return fmt.Errorf("update keywords: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLite) ListChecks(ctx context.Context, projectID, keyword string) ([]model.Check, error) {
	query := `SELECT id, project_id, engine, keyword, presence, position, citations_count,
       answer_snippet, observed_urls, checked_at
FROM checks WHERE project_id = ?`
	args := []any{projectID}
	if keyword != "" {
		query += ` AND keyword = ?`
		args = append(args, keyword)
	}
	query += ` ORDER BY checked_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list checks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Check
	for rows.Next() {
		var (
			c         model.Check
			engine    string
			position  sql.NullInt64
			snippet   sql.NullString
			urls      string
			checkedAt int64
		)
		if err := rows.Scan(&c.ID, &c.ProjectID, &engine, &c.Keyword, &c.Presence, &position,
			&c.CitationsCount, &snippet, &urls, &checkedAt); err != nil {
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
		if err := json.Unmarshal([]byte(urls), &c.ObservedURLs); err != nil {
			return nil, fmt.Errorf("decode observed_urls for %s: %w", c.ID, err)
		}
		c.ObservedURLs = orEmpty(c.ObservedURLs)
		c.Timestamp = time.Unix(0, checkedAt).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLite) LatestCheckAt(ctx context.Context, projectID string) (*time.Time, error) {
	var latest sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(checked_at) FROM checks WHERE project_id = ?`, projectID).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("latest check: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	ts := time.Unix(0, latest.Int64).UTC()
	return &ts, nil
}

func (s *SQLite) InsertChecks(ctx context.Context, checks []model.Check) error {
	if err := validateBatch(checks); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO checks
(id, project_id, engine, keyword, presence, position, citations_count, answer_snippet, observed_urls, checked_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range checks {
		var position any
		if c.Position != nil {
			position = *c.Position
		}
		var snippet any
		if c.AnswerSnippet != nil {
			snippet = *c.AnswerSnippet
		}
		urls, _ := json.Marshal(orEmpty(c.ObservedURLs))

		if _, err := stmt.ExecContext(ctx, checkID(c), c.ProjectID, string(c.Engine), c.Keyword, c.Presence,
			position, c.CitationsCount, snippet, string(urls), c.Timestamp.UnixNano()); err != nil {
			return fmt.Errorf("insert check: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteProject(row rowScanner) (model.Project, error) {
	var (
		p           model.Project
		competitors string
		keywords    string
		createdAt   int64
	)
	if err := row.Scan(&p.ID, &p.Domain, &p.Brand, &competitors, &keywords, &createdAt); err != nil {
		return model.Project{}, err
	}
	if err := json.Unmarshal([]byte(competitors), &p.Competitors); err != nil {
		return model.Project{}, fmt.Errorf("decode competitors: %w", err)
	}
	if err := json.Unmarshal([]byte(keywords), &p.Keywords); err != nil {
		return model.Project{}, fmt.Errorf("decode keywords: %w", err)
	}
	p.CreatedAt = time.Unix(0, createdAt).UTC()
	return p, nil
}
