package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mithrel/inkpad/pkg/api"
)

type sqliteStore struct{ db *sql.DB }

func openSQLite(ctx context.Context, dsn string) (*Store, io.Closer, error) {
	path := strings.TrimPrefix(dsn, "sqlite://")
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, err
	}
	dbh, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, err
	}
	// set WAL mode
	if _, err := dbh.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = dbh.Close()
		return nil, nil, err
	}
	if _, err := dbh.ExecContext(ctx, `PRAGMA foreign_keys=ON;`); err != nil {
		_ = dbh.Close()
		return nil, nil, err
	}
	if err := migrate(ctx, dbh); err != nil {
		_ = dbh.Close()
		return nil, nil, err
	}
	s := &sqliteStore{db: dbh}
	return &Store{Docs: s, Revisions: s}, dbh, nil
}

func migrate(ctx context.Context, dbh *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS docs (
  id TEXT PRIMARY KEY,
  version INTEGER NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  body TEXT NOT NULL DEFAULT '',
  tags TEXT NOT NULL DEFAULT '[]',
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS revisions (
  time TIMESTAMP NOT NULL,
  type TEXT NOT NULL,
  id TEXT NOT NULL,
  doc TEXT
);
CREATE INDEX IF NOT EXISTS revisions_time ON revisions(time);
CREATE TABLE IF NOT EXISTS doc_tags (
  doc_id TEXT NOT NULL,
  tag TEXT NOT NULL,
  PRIMARY KEY (doc_id, tag)
);
CREATE VIRTUAL TABLE IF NOT EXISTS docs_fts USING fts5(title, body, tags, id UNINDEXED);
`
	_, err := dbh.ExecContext(ctx, schema)
	return err
}

// RevisionRepo

func (s *sqliteStore) Append(ctx context.Context, ev api.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := appendRevisionTx(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit()
}

func appendRevisionTx(ctx context.Context, tx *sql.Tx, ev api.Event) error {
	var docJSON any
	if ev.Doc != nil {
		b, err := json.Marshal(ev.Doc)
		if err != nil {
			return err
		}
		docJSON = string(b)
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO revisions(time, type, id, doc) VALUES(?,?,?,?)`,
		ev.Time.UTC(), string(ev.Type), ev.ID, docJSON)
	return err
}

func (s *sqliteStore) List(ctx context.Context, cur api.Cursor, limit int) ([]api.Event, api.Cursor, error) {
	q := `SELECT time, type, id, doc FROM revisions`
	args := []any{}
	if !cur.After.IsZero() {
		q += ` WHERE time > ?`
		args = append(args, cur.After.UTC())
	}
	q += ` ORDER BY time ASC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, api.Cursor{}, err
	}
	defer rows.Close()
	var out []api.Event
	for rows.Next() {
		var t time.Time
		var typ, id string
		var docJSON sql.NullString
		if err := rows.Scan(&t, &typ, &id, &docJSON); err != nil {
			return nil, api.Cursor{}, err
		}
		ev := api.Event{Time: t, Type: api.EventType(typ), ID: id}
		if docJSON.Valid && docJSON.String != "" {
			var d api.Document
			if err := json.Unmarshal([]byte(docJSON.String), &d); err == nil {
				ev.Doc = &d
			}
		}
		out = append(out, ev)
	}
	var next api.Cursor
	if len(out) > 0 {
		next.After = out[len(out)-1].Time
	}
	return out, next, rows.Err()
}

// DocRepo

func (s *sqliteStore) GetDoc(ctx context.Context, id string) (api.Document, error) {
	var d api.Document
	var tagsJSON string
	row := s.db.QueryRowContext(ctx, `SELECT id, version, title, body, tags, created_at, updated_at FROM docs WHERE id=?`, id)
	if err := row.Scan(&d.ID, &d.Version, &d.Title, &d.Body, &tagsJSON, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return api.Document{}, ErrNotFound
		}
		return api.Document{}, err
	}
	_ = json.Unmarshal([]byte(tagsJSON), &d.Tags)
	return d, nil
}

func (s *sqliteStore) CreateDoc(ctx context.Context, d api.Document) (api.Document, error) {
	if d.ID == "" {
		return api.Document{}, ErrConflict
	}
	if d.Version == 0 {
		d.Version = 1
	}
	tagsJSON, _ := json.Marshal(d.Tags)
	tagsTokens := strings.Join(d.Tags, " ")
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return api.Document{}, err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `INSERT INTO docs(id, version, title, body, tags, created_at, updated_at) VALUES(?,?,?,?,?,?,?)`,
		d.ID, d.Version, d.Title, d.Body, string(tagsJSON), d.CreatedAt.UTC(), d.UpdatedAt.UTC()); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			err = ErrConflict
		}
		return api.Document{}, err
	}
	if err = upsertDocTags(ctx, tx, d.ID, d.Tags); err != nil {
		return api.Document{}, err
	}
	if err = appendRevisionTx(ctx, tx, api.Event{Time: time.Now().UTC(), Type: api.EventUpsert, ID: d.ID, Doc: &d}); err != nil {
		return api.Document{}, err
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO docs_fts(rowid, title, body, tags, id) VALUES((SELECT rowid FROM docs WHERE id=?), ?, ?, ?, ?)`,
		d.ID, d.Title, d.Body, tagsTokens, d.ID); err != nil {
		return api.Document{}, err
	}
	if err := tx.Commit(); err != nil {
		return api.Document{}, err
	}
	return d, nil
}

func (s *sqliteStore) UpdateDocCAS(ctx context.Context, d api.Document, ifVersion int64) (api.Document, error) {
	tagsJSON, _ := json.Marshal(d.Tags)
	tagsTokens := strings.Join(d.Tags, " ")
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return api.Document{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE docs SET version=?, title=?, body=?, tags=?, updated_at=? WHERE id=? AND version=?`,
		d.Version, d.Title, d.Body, string(tagsJSON), d.UpdatedAt.UTC(), d.ID, ifVersion)
	if err != nil {
		return api.Document{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a missing row from a version mismatch.
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM docs WHERE id=?`, d.ID).Scan(&exists); err == sql.ErrNoRows {
			return api.Document{}, ErrNotFound
		}
		return api.Document{}, ErrConflict
	}

	// Refresh tags projection
	if _, err = tx.ExecContext(ctx, `DELETE FROM doc_tags WHERE doc_id=?`, d.ID); err != nil {
		return api.Document{}, err
	}
	if err = upsertDocTags(ctx, tx, d.ID, d.Tags); err != nil {
		return api.Document{}, err
	}

	// Read back current row
	var nd api.Document
	var tagsBack string
	row := tx.QueryRowContext(ctx, `SELECT id, version, title, body, tags, created_at, updated_at FROM docs WHERE id=?`, d.ID)
	if err = row.Scan(&nd.ID, &nd.Version, &nd.Title, &nd.Body, &tagsBack, &nd.CreatedAt, &nd.UpdatedAt); err != nil {
		return api.Document{}, err
	}
	_ = json.Unmarshal([]byte(tagsBack), &nd.Tags)

	// Refresh FTS
	if _, err = tx.ExecContext(ctx, `DELETE FROM docs_fts WHERE id=?`, nd.ID); err != nil {
		return api.Document{}, err
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO docs_fts(rowid, title, body, tags, id) VALUES((SELECT rowid FROM docs WHERE id=?), ?, ?, ?, ?)`,
		nd.ID, nd.Title, nd.Body, tagsTokens, nd.ID); err != nil {
		return api.Document{}, err
	}
	if err = appendRevisionTx(ctx, tx, api.Event{Time: time.Now().UTC(), Type: api.EventUpsert, ID: nd.ID, Doc: &nd}); err != nil {
		return api.Document{}, err
	}
	if err := tx.Commit(); err != nil {
		return api.Document{}, err
	}
	return nd, nil
}

func (s *sqliteStore) DeleteDoc(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx, `DELETE FROM docs WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM docs_fts WHERE id=?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM doc_tags WHERE doc_id=?`, id); err != nil {
		return err
	}
	if err = appendRevisionTx(ctx, tx, api.Event{Time: time.Now().UTC(), Type: api.EventDelete, ID: id}); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertDocTags(ctx context.Context, tx *sql.Tx, docID string, tags []string) error {
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO doc_tags(doc_id, tag) VALUES(?,?)`, docID, t); err != nil {
			return err
		}
	}
	return nil
}

// buildPrefilter returns a CTE named "filtered" selecting candidate doc ids,
// applying tag constraints with an IN-list plus HAVING for Any/All logic.
func buildPrefilter(f Filter) (string, []any) {
	args := []any{}
	q := "WITH filtered AS (\n  SELECT d.id, d.created_at AS c_at\n  FROM docs d"
	all := uniqueStrings(f.All)
	any := uniqueStrings(f.Any)
	if len(all)+len(any) > 0 {
		q += "\n  JOIN doc_tags dt ON dt.doc_id = d.id"
	}
	q += "\n  GROUP BY d.id"
	hav := []string{}
	if l := len(all); l > 0 {
		ph := placeholders(l)
		hav = append(hav, "SUM(CASE WHEN dt.tag IN ("+ph+") THEN 1 ELSE 0 END) = "+itoa(l))
		for _, t := range all {
			args = append(args, t)
		}
	}
	if l := len(any); l > 0 {
		ph := placeholders(l)
		hav = append(hav, "SUM(CASE WHEN dt.tag IN ("+ph+") THEN 1 ELSE 0 END) >= 1")
		for _, t := range any {
			args = append(args, t)
		}
	}
	if len(hav) > 0 {
		q += "\n  HAVING " + strings.Join(hav, " AND ")
	}
	q += "\n)\n"
	return q, args
}

func (s *sqliteStore) ListDocs(ctx context.Context, f Filter) ([]api.Document, error) {
	cte, args := buildPrefilter(f)
	q := cte + `SELECT d.id, d.version, d.title, d.body, d.tags, d.created_at, d.updated_at
FROM docs d JOIN filtered ON filtered.id = d.id
ORDER BY filtered.c_at ASC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return s.queryDocs(ctx, q, args...)
}

func (s *sqliteStore) SearchDocs(ctx context.Context, f Filter) ([]api.Document, error) {
	match := ftsQuery(f.Query)
	if match == "" {
		return s.ListDocs(ctx, f)
	}
	cte, args := buildPrefilter(f)
	q := cte + `SELECT d.id, d.version, d.title, d.body, d.tags, d.created_at, d.updated_at
FROM docs_fts
JOIN docs d ON d.id = docs_fts.id
JOIN filtered ON filtered.id = d.id
WHERE docs_fts MATCH ?
ORDER BY rank`
	args = append(args, match)
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return s.queryDocs(ctx, q, args...)
}

func (s *sqliteStore) queryDocs(ctx context.Context, q string, args ...any) ([]api.Document, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []api.Document
	for rows.Next() {
		var d api.Document
		var tagsJSON string
		if err := rows.Scan(&d.ID, &d.Version, &d.Title, &d.Body, &tagsJSON, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &d.Tags)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Titles(ctx context.Context, limit int) ([]string, error) {
	q := `SELECT id, title FROM docs ORDER BY updated_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id, title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, err
		}
		out = append(out, id+"\t"+title)
	}
	return out, rows.Err()
}

// ftsQuery turns free text into a conjunction of quoted prefix tokens, so
// user input can never break FTS5 query syntax.
func ftsQuery(q string) string {
	fields := strings.Fields(q)
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, ``)
		if f == "" {
			continue
		}
		parts = append(parts, `"`+f+`"*`)
	}
	return strings.Join(parts, " AND ")
}

func uniqueStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = "?"
	}
	return strings.Join(ph, ",")
}

func itoa(n int) string { return strconv.Itoa(n) }
