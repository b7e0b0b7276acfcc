// Package ingest turns the raw delimited export into the durable, indexed
// declaration relation. It runs at most once per store: an already-populated
// store makes the whole load a no-op.
package ingest

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/isldpipe/isldpipe/internal/schema"
	"github.com/isldpipe/isldpipe/internal/store"
)

// batchSize bounds memory during the load; the source-row number keeps
// increasing across batch boundaries.
const batchSize = 10_000

// LoadIfNeeded populates the durable relation from the export at csvPath
// unless it already exists. Returns true when a load was performed.
//
// Rows are inserted in per-batch transactions and indexes are built only
// after the final batch. Existence of the table alone makes later runs
// skip, so a crash mid-load leaves a store that must be deleted before
// reloading; the deferred indexing only guarantees the store is never
// half-indexed while looking complete.
func LoadIfNeeded(ctx context.Context, s *store.Store, csvPath string, logger *slog.Logger) (bool, Stats, error) {
	exists, err := s.TableExists(ctx, schema.TableName)
	if err != nil {
		return false, Stats{}, err
	}
	if exists {
		logger.Info("ingestion skipped: store already populated", "table", schema.TableName)
		return false, Stats{}, nil
	}

	dialect, err := DetectDialect(csvPath)
	if err != nil {
		return false, Stats{}, err
	}
	logger.Info("export dialect detected",
		"delimiter", string(dialect.Delimiter), "bom", dialect.HasBOM)

	f, err := openDecoded(csvPath)
	if err != nil {
		return false, Stats{}, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	if err := s.Exec(ctx, schema.CreateTableSQL()); err != nil {
		return false, Stats{}, err
	}

	reader := csv.NewReader(f)
	reader.Comma = dialect.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return false, Stats{}, fmt.Errorf("read header row: %w", err)
	}
	mapping := ResolveHeaders(headers)
	logger.Info("headers resolved", "source_columns", len(headers), "mapped", len(mapping))

	rn := newRowNormalizer(mapping)
	insertSQL := schema.InsertSQL()

	batch := make([][]any, 0, batchSize)
	var rownum int64

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := s.InTx(ctx, func(tx *sql.Tx) error {
			stmt, err := tx.PrepareContext(ctx, insertSQL)
			if err != nil {
				return fmt.Errorf("prepare insert: %w", err)
			}
			defer stmt.Close()
			for _, values := range batch {
				if _, err := stmt.ExecContext(ctx, values...); err != nil {
					return fmt.Errorf("insert row: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, rn.stats, fmt.Errorf("read row %d: %w", rownum+1, err)
		}
		rownum++
		batch = append(batch, rn.normalizeRow(record, rownum))
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return false, rn.stats, err
			}
			logger.Debug("batch inserted", "rows", rownum)
		}
	}
	if err := flush(); err != nil {
		return false, rn.stats, err
	}

	logger.Info("building indexes")
	for _, idx := range schema.CreateIndexSQL() {
		if err := s.Exec(ctx, idx); err != nil {
			return false, rn.stats, err
		}
	}

	logger.Info("load complete",
		"rows", rn.stats.Rows,
		"invalid_date", rn.stats.InvalidDate,
		"invalid_int", rn.stats.InvalidInt,
		"invalid_bool", rn.stats.InvalidBool,
		"nulls", rn.stats.Nulls)
	return true, rn.stats, nil
}
