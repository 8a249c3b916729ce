package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/lib/pq"           // Postgres driver
	"github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/pliu/entradas/internal/store"
)

type SQLStore struct {
	db         *sql.DB
	driverName string

	logger            *log.Logger
	clock             Clock
	allowSelfPurchase bool

	// sendMu makes taking a timestamp and inserting the message one step,
	// so ids and timestamps grow together.
	sendMu sync.Mutex
}

var _ store.Store = (*SQLStore)(nil)

type Option func(*SQLStore)

func WithLogger(logger *log.Logger) Option {
	return func(s *SQLStore) { s.logger = logger }
}

// WithClock sets the source of message timestamps. The store never hands
// out a timestamp earlier than one it already assigned.
func WithClock(clock Clock) Option {
	return func(s *SQLStore) { s.clock = clock }
}

// WithSelfPurchase controls whether a seller may buy their own entry.
func WithSelfPurchase(allow bool) Option {
	return func(s *SQLStore) { s.allowSelfPurchase = allow }
}

func New(driverName, dataSourceName string, opts ...Option) (*SQLStore, error) {
	if driverName != "sqlite3" && driverName != "postgres" {
		return nil, fmt.Errorf("unsupported driver %q", driverName)
	}

	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if isMemoryDSN(dataSourceName) {
		// Every sqlite connection to :memory: is its own database.
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLStore{
		db:                db,
		driverName:        driverName,
		logger:            log.New(io.Discard),
		clock:             systemClock{},
		allowSelfPurchase: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.clock = newMonotonicClock(s.clock)

	ctx := context.Background()
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

func (s *SQLStore) createTables(ctx context.Context) error {
	// messages.leido is added by migrate so databases created before the
	// read flag existed pick it up too.
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		email TEXT UNIQUE,
		password TEXT
	);

	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		titulo TEXT,
		ciudad TEXT,
		fecha TEXT,
		precio REAL,
		vendedor_id INTEGER,
		comprador_id INTEGER
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_id INTEGER,
		receiver_id INTEGER,
		entry_id INTEGER,
		content TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_messages_entry ON messages (entry_id, sender_id, receiver_id);
	`

	if s.driverName == "postgres" {
		// Adjust for Postgres syntax
		query = strings.ReplaceAll(query, "INTEGER PRIMARY KEY AUTOINCREMENT", "SERIAL PRIMARY KEY")
		query = strings.ReplaceAll(query, "DATETIME", "TIMESTAMP")
	}

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return &store.OpError{Op: "create tables", Err: err}
	}
	return nil
}

type columnMigration struct {
	table  string
	column string
	ddl    string
}

var columnMigrations = []columnMigration{
	{table: "messages", column: "leido", ddl: "ALTER TABLE messages ADD COLUMN leido INTEGER DEFAULT 0"},
}

// migrate adds any column from columnMigrations that the live schema lacks.
// Running it again is a no-op.
func (s *SQLStore) migrate(ctx context.Context) error {
	for _, m := range columnMigrations {
		exists, err := s.columnExists(ctx, m.table, m.column)
		if err != nil {
			return &store.OpError{Op: "inspect " + m.table, Err: err}
		}
		if exists {
			s.logger.Debug("column already present", "table", m.table, "column", m.column)
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.ddl); err != nil {
			return &store.OpError{Op: "add column " + m.table + "." + m.column, Err: err}
		}
		s.logger.Info("column added", "table", m.table, "column", m.column)
	}
	return nil
}

func (s *SQLStore) columnExists(ctx context.Context, table, column string) (bool, error) {
	if s.driverName == "postgres" {
		var exists bool
		err := s.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM information_schema.columns WHERE table_name = $1 AND column_name = $2)",
			table, column).Scan(&exists)
		return exists, err
	}

	// table comes from columnMigrations, never from input.
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if strings.EqualFold(name, column) {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Helper to handle placeholders
func (s *SQLStore) rebind(query string) string {
	if s.driverName == "postgres" {
		// Replace ? with $1, $2, etc.
		n := strings.Count(query, "?")
		for i := 1; i <= n; i++ {
			query = strings.Replace(query, "?", fmt.Sprintf("$%d", i), 1)
		}
	}
	return query
}

// wrap converts a driver error into the store error taxonomy.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	return &store.OpError{Op: op, Err: err}
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	return false
}

func (s *SQLStore) count(ctx context.Context, op, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&n); err != nil {
		return 0, wrap(op, err)
	}
	return n, nil
}
