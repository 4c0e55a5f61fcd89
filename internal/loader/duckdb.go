// Package loader ingests tabular submissions into frames. All file formats
// go through an embedded DuckDB connection: CSV and Parquet are read with
// DuckDB's readers, and arbitrary SQL against attached databases is
// supported for callers that stage submissions in a warehouse.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/statglass/ibsrecon/pkg/frame"
)

// Loader wraps a DuckDB connection and converts query results into frames
// with upper-cased columns and a parsed numeric value column.
type Loader struct {
	db       *sql.DB
	logger   *slog.Logger
	valueCol string
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the structured logger. A nil logger discards.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithValueColumn overrides the name of the numeric value column expected
// in every loaded dataset.
func WithValueColumn(name string) Option {
	return func(l *Loader) { l.valueCol = strings.ToUpper(name) }
}

// Open establishes a DuckDB connection. An empty path opens an in-memory
// database, which is all the file readers need.
func Open(ctx context.Context, path string, opts ...Option) (*Loader, error) {
	l := &Loader{
		logger:   slog.New(slog.DiscardHandler),
		valueCol: frame.DefaultValueColumn,
	}
	for _, opt := range opts {
		opt(l)
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}
	l.db = db
	return l, nil
}

// Close closes the underlying connection.
func (l *Loader) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// LoadFile loads a submission file, dispatching on extension (.csv or
// .parquet).
func (l *Loader) LoadFile(ctx context.Context, path string) (*frame.Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return l.LoadCSV(ctx, path)
	case ".parquet":
		return l.LoadParquet(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported submission format %q", filepath.Ext(path))
	}
}

// LoadCSV reads a CSV file with a header row.
func (l *Loader) LoadCSV(ctx context.Context, path string) (*frame.Frame, error) {
	l.logger.Debug("loading csv submission", "path", path)
	return l.Query(ctx, fmt.Sprintf("SELECT * FROM read_csv_auto(%s, header=true)", quoteLiteral(path)))
}

// LoadParquet reads a Parquet file.
func (l *Loader) LoadParquet(ctx context.Context, path string) (*frame.Frame, error) {
	l.logger.Debug("loading parquet submission", "path", path)
	return l.Query(ctx, fmt.Sprintf("SELECT * FROM read_parquet(%s)", quoteLiteral(path)))
}

// Query runs arbitrary SQL and converts the result set into a frame. The
// result must carry the configured value column.
func (l *Loader) Query(ctx context.Context, query string) (*frame.Frame, error) {
	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query submission: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return l.frameFromRows(rows)
}

func (l *Loader) frameFromRows(rows *sql.Rows) (*frame.Frame, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	valueIdx := -1
	dims := make([]string, 0, len(cols))
	for i, c := range cols {
		name := strings.ToUpper(c)
		if name == l.valueCol {
			valueIdx = i
			continue
		}
		dims = append(dims, name)
	}
	if valueIdx < 0 {
		return nil, fmt.Errorf("submission has no %s column", l.valueCol)
	}

	f, err := frame.New(dims, frame.WithValueColumn(l.valueCol))
	if err != nil {
		return nil, fmt.Errorf("bad submission columns: %w", err)
	}
	scan := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range scan {
		ptrs[i] = &scan[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan submission row: %w", err)
		}
		cells := make([]string, 0, len(dims))
		var value float64
		for i, raw := range scan {
			if i == valueIdx {
				v, err := toFloat(raw)
				if err != nil {
					return nil, fmt.Errorf("row %d: %w", f.Len()+1, err)
				}
				value = v
				continue
			}
			cells = append(cells, toString(raw))
		}
		if err := f.Append(cells, value); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submission rows: %w", err)
	}

	l.logger.Debug("submission loaded", "rows", f.Len(), "columns", len(dims))
	return f, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case []byte:
		return strconv.ParseFloat(string(x), 64)
	case string:
		return strconv.ParseFloat(x, 64)
	default:
		return 0, fmt.Errorf("value column has non-numeric cell %v (%T)", v, v)
	}
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// quoteLiteral wraps a path as a single-quoted SQL literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
