package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mstgnz/stripeconn/infra/logger"
	"github.com/mstgnz/stripeconn/provider"
)

// SQLiteExchangeStore keeps exchange records in a local SQLite database
type SQLiteExchangeStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

var _ provider.ExchangeRecorder = (*SQLiteExchangeStore)(nil)

// retryOperation executes a database operation with retry logic for SQLITE_BUSY errors
func (s *SQLiteExchangeStore) retryOperation(operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if !isBusy(err) {
			return err
		}

		lastErr = err
		if attempt < maxRetries {
			// 10ms, 20ms, 40ms, ...
			backoff := time.Duration(10*(1<<attempt)) * time.Millisecond
			logger.Debug(fmt.Sprintf("SQLite busy, retrying in %v (attempt %d/%d)", backoff, attempt+1, maxRetries+1))
			time.Sleep(backoff)
		}
	}

	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// NewSQLiteExchangeStore opens (or creates) the exchange database at dbPath
func NewSQLiteExchangeStore(dbPath string) (*SQLiteExchangeStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_timeout=20000&_txlock=immediate", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	store := &SQLiteExchangeStore{
		db:   db,
		path: dbPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	store.applyPragmas()

	logger.Info("SQLite exchange store initialized at " + dbPath)
	return store, nil
}

func (s *SQLiteExchangeStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS exchanges (
		request_id TEXT PRIMARY KEY,
		recorded_at DATETIME NOT NULL,
		processor TEXT NOT NULL,
		operation TEXT NOT NULL,
		amount INTEGER NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT '',
		masked_card TEXT NOT NULL DEFAULT '',
		transaction_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		decline_reason TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_exchanges_transaction ON exchanges(transaction_id, recorded_at);
	`

	_, err := s.db.Exec(query)
	return err
}

func (s *SQLiteExchangeStore) applyPragmas() {
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA temp_store = memory;",
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			logger.Warn(fmt.Sprintf("failed to execute %s: %v", pragma, err))
		}
	}
}

// RecordExchange stores one exchange. Recording the same request ID twice
// keeps the first record.
func (s *SQLiteExchangeStore) RecordExchange(ctx context.Context, exchange provider.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(func() error {
		query := `
		INSERT INTO exchanges (
			request_id, recorded_at, processor, operation, amount, currency, masked_card,
			transaction_id, status, decline_reason, error_message, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(request_id) DO NOTHING
		`

		_, err := s.db.ExecContext(ctx, query,
			exchange.RequestID,
			exchange.Timestamp.UTC(),
			exchange.Processor,
			string(exchange.Operation),
			exchange.Amount,
			exchange.Currency,
			exchange.MaskedCard,
			exchange.TransactionID,
			string(exchange.Status),
			string(exchange.DeclineReason),
			exchange.ErrorMessage,
			exchange.DurationMs,
		)
		if err != nil {
			return fmt.Errorf("failed to save exchange: %w", err)
		}
		return nil
	}, 3)
}

// ExchangesByTransaction returns the exchanges of one processor transaction, oldest first
func (s *SQLiteExchangeStore) ExchangesByTransaction(ctx context.Context, transactionID string) ([]provider.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exchanges []provider.Exchange
	err := s.retryOperation(func() error {
		query := `
		SELECT request_id, recorded_at, processor, operation, amount, currency, masked_card,
			transaction_id, status, decline_reason, error_message, duration_ms
		FROM exchanges
		WHERE transaction_id = ?
		ORDER BY recorded_at ASC, rowid ASC
		`

		rows, err := s.db.QueryContext(ctx, query, transactionID)
		if err != nil {
			return fmt.Errorf("failed to query exchanges: %w", err)
		}
		defer rows.Close()

		exchanges = nil
		for rows.Next() {
			var (
				ex                               provider.Exchange
				operation, status, declineReason string
			)
			if err := rows.Scan(
				&ex.RequestID, &ex.Timestamp, &ex.Processor, &operation, &ex.Amount, &ex.Currency,
				&ex.MaskedCard, &ex.TransactionID, &status, &declineReason, &ex.ErrorMessage, &ex.DurationMs,
			); err != nil {
				return fmt.Errorf("failed to scan exchange: %w", err)
			}
			ex.Operation = provider.Operation(operation)
			ex.Status = provider.TransactionStatus(status)
			ex.DeclineReason = provider.DeclineReason(declineReason)
			exchanges = append(exchanges, ex)
		}
		return rows.Err()
	}, 3)
	if err != nil {
		return nil, err
	}

	return exchanges, nil
}

// Close closes the database connection
func (s *SQLiteExchangeStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetStats returns exchange counts and the database size. The path is left
// out since the stats are served on the unauthenticated health endpoint.
func (s *SQLiteExchangeStore) GetStats(ctx context.Context) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make(map[string]any)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exchanges").Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count exchanges: %w", err)
	}
	stats["total_exchanges"] = total

	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM exchanges GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count statuses: %w", err)
	}
	defer rows.Close()

	byStatus := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		byStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	stats["by_status"] = byStatus

	if fileInfo, err := os.Stat(s.path); err == nil {
		stats["db_size_bytes"] = fileInfo.Size()
	}

	return stats, nil
}
