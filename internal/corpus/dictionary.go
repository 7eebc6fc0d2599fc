package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"icokit/internal/services"
	"icokit/internal/vocab"
)

// DictionaryInfo describes the stored dictionary.
type DictionaryInfo struct {
	RunID   string
	NumDocs int
	Size    int
}

func replaceDictionary(ctx context.Context, tx *sql.Tx, runID string, dict *vocab.Dictionary, timestamp string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM dictionary"); err != nil {
		return fmt.Errorf("clear dictionary: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM dictionary_info"); err != nil {
		return fmt.Errorf("clear dictionary info: %w", err)
	}
	if dict == nil {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO dictionary (token_id, token, doc_freq) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, entry := range dict.Entries() {
		if _, err := stmt.ExecContext(ctx, entry.ID, entry.Token, entry.DocFreq); err != nil {
			return fmt.Errorf("insert token %q: %w", entry.Token, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO dictionary_info (id, run_id, num_docs, updated_at) VALUES (1, ?, ?, ?)",
		runID, dict.NumDocs(), timestamp,
	); err != nil {
		return fmt.Errorf("record dictionary info: %w", err)
	}
	return nil
}

// LoadDictionary rebuilds the dictionary saved by the latest run. It wraps
// services.ErrNotFound when no run has saved one yet.
func (s *Store) LoadDictionary(ctx context.Context) (*vocab.Dictionary, DictionaryInfo, error) {
	ctx = ensureContext(ctx)
	var info DictionaryInfo
	err := s.db.QueryRowContext(ctx, "SELECT run_id, num_docs FROM dictionary_info WHERE id = 1").Scan(&info.RunID, &info.NumDocs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, DictionaryInfo{}, services.Wrap(services.ErrNotFound, "corpus", "load dictionary", "no dictionary saved", nil)
	}
	if err != nil {
		return nil, DictionaryInfo{}, fmt.Errorf("read dictionary info: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT token_id, token, doc_freq FROM dictionary ORDER BY token_id")
	if err != nil {
		return nil, DictionaryInfo{}, fmt.Errorf("query dictionary: %w", err)
	}
	defer rows.Close()

	var entries []vocab.Entry
	for rows.Next() {
		var entry vocab.Entry
		if err := rows.Scan(&entry.ID, &entry.Token, &entry.DocFreq); err != nil {
			return nil, DictionaryInfo{}, fmt.Errorf("scan dictionary entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, DictionaryInfo{}, fmt.Errorf("iterate dictionary: %w", err)
	}

	dict, err := vocab.Restore(entries, info.NumDocs)
	if err != nil {
		return nil, DictionaryInfo{}, err
	}
	info.Size = dict.Len()
	return dict, info, nil
}
