package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"icokit/internal/pipeline"
	"icokit/internal/services"
	"icokit/internal/vocab"
)

// RawDocument is a whitepaper text as loaded from disk.
type RawDocument struct {
	ID     string
	Status string
	Source string
	Text   string
}

// Document is a stored document with whatever the last run produced for it.
type Document struct {
	ID        string
	Status    string
	Source    string
	RawText   string
	Cleaned   string
	Tokens    []string
	BOW       []vocab.BowEntry
	Stage     pipeline.Stage
	Error     string
	RunID     string
	UpdatedAt time.Time
}

// ListFilter narrows List. Empty fields match everything.
type ListFilter struct {
	Status string
	Stage  pipeline.Stage
	Limit  int
}

// PutRaw inserts or replaces raw documents. Replacing a document resets its
// processed fields and keeps its original position.
func (s *Store) PutRaw(ctx context.Context, docs []RawDocument) error {
	if len(docs) == 0 {
		return nil
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents (id, status, source, raw_text, stage, updated_at)
            VALUES (?, ?, ?, ?, ?, ?)
            ON CONFLICT(id) DO UPDATE SET
                status = excluded.status,
                source = excluded.source,
                raw_text = excluded.raw_text,
                cleaned_text = NULL,
                tokens_json = NULL,
                bow_json = NULL,
                stage = excluded.stage,
                error = NULL,
                run_id = NULL,
                updated_at = excluded.updated_at`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, doc := range docs {
			if strings.TrimSpace(doc.ID) == "" {
				return services.Wrap(services.ErrInvalidInput, "corpus", "put raw", "document without id", nil)
			}
			if _, err := stmt.ExecContext(ctx, doc.ID, doc.Status, doc.Source, doc.Text, pipeline.StageRaw, timestamp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put raw documents: %w", err)
	}
	return nil
}

// RawItems returns every stored raw text as pipeline input, in storage order.
func (s *Store) RawItems(ctx context.Context) ([]pipeline.Item, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), "SELECT id, raw_text FROM documents ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query raw items: %w", err)
	}
	defer rows.Close()

	var items []pipeline.Item
	for rows.Next() {
		var item pipeline.Item
		if err := rows.Scan(&item.ID, &item.Text); err != nil {
			return nil, fmt.Errorf("scan raw item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw items: %w", err)
	}
	return items, nil
}

const documentColumns = `id, status, source, raw_text, cleaned_text, tokens_json, bow_json, stage, error, run_id, updated_at`

// Get returns one document. Unknown ids wrap services.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "corpus", "get", fmt.Sprintf("document %q", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

// List returns documents in storage order.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Document, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Stage != "" {
		where = append(where, "stage = ?")
		args = append(args, filter.Stage)
	}
	query := "SELECT " + documentColumns + " FROM documents"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// SaveResult stores the outcome of a pipeline run: every document's
// processed fields and the dictionary, which replaces the previous one.
// Documents not yet stored are inserted without raw text.
func (s *Store) SaveResult(ctx context.Context, runID string, result *pipeline.Result) error {
	if result == nil {
		return services.Wrap(services.ErrInvalidInput, "corpus", "save result", "nil result", nil)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents (id, cleaned_text, tokens_json, bow_json, stage, error, run_id, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(id) DO UPDATE SET
                cleaned_text = excluded.cleaned_text,
                tokens_json = excluded.tokens_json,
                bow_json = excluded.bow_json,
                stage = excluded.stage,
                error = excluded.error,
                run_id = excluded.run_id,
                updated_at = excluded.updated_at`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, doc := range result.Documents {
			tokensJSON, err := marshalNullable(doc.Tokens)
			if err != nil {
				return fmt.Errorf("marshal tokens of %s: %w", doc.ID, err)
			}
			bowJSON, err := marshalNullable(doc.BOW)
			if err != nil {
				return fmt.Errorf("marshal bag of words of %s: %w", doc.ID, err)
			}
			var errText string
			if doc.Err != nil {
				errText = doc.Err.Error()
			}
			if _, err := stmt.ExecContext(ctx,
				doc.ID,
				nullableString(doc.Cleaned),
				tokensJSON,
				bowJSON,
				doc.Stage,
				nullableString(errText),
				runID,
				timestamp,
			); err != nil {
				return err
			}
		}
		return replaceDictionary(ctx, tx, runID, result.Dictionary, timestamp)
	})
	if err != nil {
		return fmt.Errorf("save run %s: %w", runID, err)
	}
	return nil
}

func scanDocument(scanner interface{ Scan(dest ...any) error }) (*Document, error) {
	var (
		doc                          Document
		cleaned, tokensJSON, bowJSON sql.NullString
		errText, runID               sql.NullString
		stage, updatedAt             string
	)
	if err := scanner.Scan(
		&doc.ID,
		&doc.Status,
		&doc.Source,
		&doc.RawText,
		&cleaned,
		&tokensJSON,
		&bowJSON,
		&stage,
		&errText,
		&runID,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	doc.Cleaned = cleaned.String
	doc.Stage = pipeline.Stage(stage)
	doc.Error = errText.String
	doc.RunID = runID.String
	if tokensJSON.Valid {
		if err := json.Unmarshal([]byte(tokensJSON.String), &doc.Tokens); err != nil {
			return nil, fmt.Errorf("decode tokens of %s: %w", doc.ID, err)
		}
	}
	if bowJSON.Valid {
		if err := json.Unmarshal([]byte(bowJSON.String), &doc.BOW); err != nil {
			return nil, fmt.Errorf("decode bag of words of %s: %w", doc.ID, err)
		}
	}
	if ts, err := parseTimeString(updatedAt); err == nil {
		doc.UpdatedAt = ts
	}
	return &doc, nil
}
