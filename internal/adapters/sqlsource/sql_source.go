package sqlsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/Adi0604/Water-Works/internal/domain"
	"github.com/Adi0604/Water-Works/internal/ports"
)

// ErrUnknownFeed is returned when a feed was not registered with the source.
var ErrUnknownFeed = errors.New("sqlsource: unknown feed")

// Options configures a Source.
type Options struct {
	Name            string
	TimestampColumn string
	// Feeds lists the table names the source may query. Table names cannot be
	// bound as parameters, so only configured ones are accepted.
	Feeds []string
	// Observability receives rows dropped for an unreadable timestamp.
	Observability ports.Observability
}

type feedQueries struct {
	list  string
	fetch string
}

// Source reads feeds from tables of a relational database. The *sql.DB is
// shared by every replay run.
type Source struct {
	db      *sql.DB
	name    string
	dialect Dialect
	tsCol   string
	queries map[string]feedQueries
	obs     ports.Observability
}

// New prepares the query text for every feed in opts.
func New(db *sql.DB, dialect Dialect, opts Options) (*Source, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlsource: db is required")
	}
	if opts.TimestampColumn == "" {
		opts.TimestampColumn = domain.TimestampKey
	}
	if opts.Name == "" {
		opts.Name = dialect.Driver
	}
	if opts.Observability == nil {
		opts.Observability = ports.NopObservability{}
	}
	col, err := dialect.Quote(opts.TimestampColumn)
	if err != nil {
		return nil, err
	}

	s := &Source{
		db:      db,
		name:    opts.Name,
		dialect: dialect,
		tsCol:   opts.TimestampColumn,
		queries: make(map[string]feedQueries, len(opts.Feeds)),
		obs:     opts.Observability,
	}
	for _, feed := range opts.Feeds {
		table, err := dialect.Quote(feed)
		if err != nil {
			return nil, fmt.Errorf("feed %q: %w", feed, err)
		}
		s.queries[feed] = feedQueries{
			list:  "SELECT DISTINCT " + col + " FROM " + table + " ORDER BY " + col,
			fetch: "SELECT * FROM " + table + " WHERE " + col + " = " + dialect.Placeholder(1),
		}
	}
	return s, nil
}

func (s *Source) Name() string { return s.name }

func (s *Source) ListTimestamps(ctx context.Context, feed string) ([]time.Time, error) {
	q, err := s.lookup(feed)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, q.list)
	if err != nil {
		return nil, fmt.Errorf("list timestamps %s: %w", feed, err)
	}
	defer rows.Close()

	var (
		out     []time.Time
		dropped int
	)
	for rows.Next() {
		var raw any
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan timestamp %s: %w", feed, err)
		}
		ts, ok := toTime(raw)
		if !ok {
			dropped++
			continue
		}
		out = append(out, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list timestamps %s: %w", feed, err)
	}
	if dropped > 0 {
		s.obs.IncCounter("waterworks_source_errors_total", float64(dropped))
		s.obs.LogWarn("timestamps_dropped",
			ports.Field{Key: "source", Value: s.name},
			ports.Field{Key: "feed", Value: feed},
			ports.Field{Key: "dropped", Value: dropped},
		)
	}
	return out, nil
}

// FetchRow returns the first row recorded at ts. Further rows sharing the
// timestamp are ignored.
func (s *Source) FetchRow(ctx context.Context, feed string, ts time.Time) (domain.Row, bool, error) {
	q, err := s.lookup(feed)
	if err != nil {
		return domain.Row{}, false, err
	}

	rows, err := s.db.QueryContext(ctx, q.fetch, ts)
	if err != nil {
		return domain.Row{}, false, fmt.Errorf("fetch row %s@%s: %w", feed, ts.Format(time.RFC3339), err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return domain.Row{}, false, err
	}
	if !rows.Next() {
		return domain.Row{}, false, rows.Err()
	}

	raw := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return domain.Row{}, false, fmt.Errorf("scan row %s: %w", feed, err)
	}

	row := domain.Row{Timestamp: ts, Values: make(map[string]float64, len(cols))}
	for i, c := range cols {
		if strings.EqualFold(c, s.tsCol) {
			if t, ok := toTime(raw[i]); ok {
				row.Timestamp = t
			}
			continue
		}
		if v, ok := toFloat(raw[i]); ok {
			row.Values[c] = v
		}
	}
	return row, true, nil
}

func (s *Source) Close() error {
	return s.db.Close()
}

func (s *Source) lookup(feed string) (feedQueries, error) {
	q, ok := s.queries[feed]
	if !ok {
		return feedQueries{}, fmt.Errorf("%w: %q", ErrUnknownFeed, feed)
	}
	return q, nil
}

var _ ports.DataSource = (*Source)(nil)

// Open creates a connection pool for driver and wraps it in a Source. No
// connection is made until the first query, so an unreachable server
// surfaces as a ListTimestamps error.
func Open(driver, dsn string, opts Options) (*Source, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlsource: open %s: %w", dialect.Driver, err)
	}
	src, err := New(db, dialect, opts)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return src, nil
}
