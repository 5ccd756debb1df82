package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"nlsql/internal/config"
	"nlsql/internal/logging"
)

// Dataset is the read-only relational dataset queries run against.
// The *sql.DB is the process-wide engine handle; every Query acquires its own
// connection from it and releases that connection before returning.
type Dataset struct {
	db     *sql.DB
	driver string
	path   string
}

// readOnlyDSN builds a URI that opens the file read-only and refuses writes
// even if a mutating statement reaches the engine. The path is percent-escaped
// so '?', '#' and '%' in file names stay part of the name.
func readOnlyDSN(driver, path string) string {
	q := url.Values{}
	q.Set("mode", "ro")
	switch driver {
	case "sqlite3":
		q.Set("_query_only", "1")
	default:
		q.Set("_pragma", "query_only(1)")
	}
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?" + q.Encode()
}

// Open opens the dataset described by cfg and verifies it is reachable.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Dataset, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	driver := cfg.Driver
	if driver == "" {
		driver = "sqlite"
	}

	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", cfg.Path, err)
	}

	db, err := sql.Open(driver, readOnlyDSN(driver, cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach dataset: %w", err)
	}

	logging.Store("Opened dataset %s (driver=%s, read-only)", cfg.Path, driver)
	return &Dataset{db: db, driver: driver, path: cfg.Path}, nil
}

// Close releases the engine handle.
func (d *Dataset) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Path returns the dataset file path.
func (d *Dataset) Path() string {
	return d.path
}

// Query executes raw, unparameterized SQL text and reads every row eagerly.
func (d *Dataset) Query(ctx context.Context, query string) (*ResultSet, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rs, err := scanAll(rows)
	if err != nil {
		return nil, err
	}
	logging.StoreDebug("query returned %d rows x %d columns", rs.Len(), len(rs.Columns))
	return rs, nil
}

// scanAll zips every row with the column names reported by the driver.
func scanAll(rows *sql.Rows) (*ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	rs := &ResultSet{Columns: cols, Records: []Record{}}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		valuePtrs := make([]interface{}, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rec := Record{Fields: make([]Field, len(cols))}
		for i, col := range cols {
			rec.Fields[i] = Field{Name: col, Value: normalizeValue(values[i])}
		}
		rs.Records = append(rs.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

// normalizeValue converts driver values into template-friendly scalars.
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case []byte:
		return string(val)
	default:
		return val
	}
}

// TableColumns lists the columns of table in declaration order.
// A table that does not exist yields an empty slice.
func (d *Dataset) TableColumns(ctx context.Context, table string) ([]string, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}
