// Package sqlite implements a document store on an embedded sqlite database.
// Vectors live in a blob column and similarity is computed in process, which
// keeps the store dependency-free at runtime and suits local corpora.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/ragline/ragline/pkg/rag"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	parent_id  TEXT NOT NULL DEFAULT '',
	idx        INTEGER NOT NULL DEFAULT 0,
	metadata   TEXT NOT NULL DEFAULT 'null',
	embedding  BLOB NOT NULL,
	created_at TEXT NOT NULL DEFAULT ''
);
`

const upsert = `
INSERT INTO documents (id, content, source, parent_id, idx, metadata, embedding, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	content    = excluded.content,
	source     = excluded.source,
	parent_id  = excluded.parent_id,
	idx        = excluded.idx,
	metadata   = excluded.metadata,
	embedding  = excluded.embedding,
	created_at = excluded.created_at
`

const selectDocuments = `SELECT id, content, source, parent_id, idx, metadata, embedding, created_at FROM documents ORDER BY rowid`

// Store keeps documents in a sqlite database.
type Store struct {
	db  *sql.DB
	log *logrus.Logger
}

// Open opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for an ephemeral store. A nil logger falls back to a
// fresh one.
func Open(path string, log *logrus.Logger) (*Store, error) {
	if log == nil {
		log = logrus.New()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open database %s", path)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "unable to create schema")
	}

	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return errors.Wrap(s.db.Close(), "unable to close database")
}

func (s *Store) Write(ctx context.Context, docs []rag.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "unable to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return 0, errors.Wrap(err, "unable to prepare upsert")
	}
	defer func() { _ = stmt.Close() }()

	for _, doc := range docs {
		metadata, err := json.Marshal(doc.Metadata)
		if err != nil {
			return 0, errors.Wrapf(err, "unable to marshal metadata of %s", doc.ID)
		}

		createdAt := ""
		if !doc.CreatedAt.IsZero() {
			createdAt = doc.CreatedAt.UTC().Format(time.RFC3339Nano)
		}

		_, err = stmt.ExecContext(ctx,
			doc.ID, doc.Content, doc.Source, doc.ParentID, doc.Index,
			string(metadata), encodeVector(doc.Embedding), createdAt,
		)
		if err != nil {
			return 0, errors.Wrapf(err, "unable to upsert document %s", doc.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "unable to commit transaction")
	}

	s.log.WithField("count", len(docs)).Debug("documents upserted")

	return len(docs), nil
}

func (s *Store) Search(ctx context.Context, vector []float32, opts rag.SearchOptions) ([]rag.Document, error) {
	return s.scan(ctx, opts, func(doc rag.Document) float64 {
		return rag.Cosine(vector, doc.Embedding)
	})
}

func (s *Store) SearchKeyword(ctx context.Context, query string, opts rag.SearchOptions) ([]rag.Document, error) {
	tokens := rag.Tokenize(query)

	return s.scan(ctx, opts, func(doc rag.Document) float64 {
		return rag.KeywordScore(doc.Content, tokens)
	})
}

// List returns documents in insertion order. A non-positive limit lists
// everything.
func (s *Store) List(ctx context.Context, limit int) ([]rag.Document, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, selectDocuments+" LIMIT ?", limit)
	if err != nil {
		return nil, errors.Wrap(err, "unable to query documents")
	}
	defer func() { _ = rows.Close() }()

	var out []rag.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}

	return out, errors.Wrap(rows.Err(), "unable to iterate document rows")
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id IN ("+placeholders+")", args...)

	return errors.Wrap(err, "unable to delete documents")
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, errors.Wrap(err, "unable to count documents")
	}

	return count, nil
}

// scan walks the whole table in insertion order, scores every document and
// applies filter, MinScore and TopK. Similarity search is a full scan; this
// store targets local corpora where that is fine.
func (s *Store) scan(ctx context.Context, opts rag.SearchOptions, score func(rag.Document) float64) ([]rag.Document, error) {
	filter, err := normalizeFilter(opts.Filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, selectDocuments)
	if err != nil {
		return nil, errors.Wrap(err, "unable to query documents")
	}
	defer func() { _ = rows.Close() }()

	var matches []rag.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}

		if !rag.MatchesFilter(doc, filter) {
			continue
		}

		doc.Score = score(doc)
		if doc.Score < opts.MinScore {
			continue
		}
		matches = append(matches, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to iterate document rows")
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if opts.TopK > 0 && opts.TopK < len(matches) {
		matches = matches[:opts.TopK]
	}

	return matches, nil
}

func scanDocument(rows *sql.Rows) (rag.Document, error) {
	var (
		doc       rag.Document
		metadata  string
		embedding []byte
		createdAt string
	)
	if err := rows.Scan(&doc.ID, &doc.Content, &doc.Source, &doc.ParentID, &doc.Index, &metadata, &embedding, &createdAt); err != nil {
		return rag.Document{}, errors.Wrap(err, "unable to scan document row")
	}

	if err := json.Unmarshal([]byte(metadata), &doc.Metadata); err != nil {
		return rag.Document{}, errors.Wrapf(err, "unable to unmarshal metadata of %s", doc.ID)
	}
	doc.Embedding = decodeVector(embedding)
	if createdAt != "" {
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			doc.CreatedAt = ts
		}
	}

	return doc, nil
}

// normalizeFilter round-trips the filter through JSON so its values compare
// equal to metadata loaded from the documents table.
func normalizeFilter(filter map[string]interface{}) (map[string]interface{}, error) {
	if len(filter) == 0 {
		return nil, nil
	}

	raw, err := json.Marshal(filter)
	if err != nil {
		return nil, errors.Wrap(err, "unable to marshal filter")
	}

	var normalized map[string]interface{}
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return nil, errors.Wrap(err, "unable to unmarshal filter")
	}

	return normalized, nil
}

func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}

	return buf
}

func decodeVector(buf []byte) []float32 {
	vector := make([]float32, len(buf)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}

	return vector
}

var _ rag.DocumentStore = (*Store)(nil)
