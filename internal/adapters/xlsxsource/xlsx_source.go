// Package xlsxsource serves feeds from a spreadsheet export loaded in full.
package xlsxsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Adi0604/Water-Works/internal/domain"
	"github.com/Adi0604/Water-Works/internal/ports"
)

// ErrUnsupportedFormat is returned for anything but .xlsx workbooks.
var ErrUnsupportedFormat = errors.New("xlsxsource: unsupported file format, use .xlsx files")

// ErrColumnNotFound is returned when the timestamp column is missing.
var ErrColumnNotFound = errors.New("xlsxsource: timestamp column not found")

// Options configures a Source.
type Options struct {
	Name            string
	Location        string // file path or http(s) URL
	TimestampColumn string
	HTTPClient      *http.Client
	// Observability receives rows dropped for an unreadable timestamp.
	Observability ports.Observability
}

type table struct {
	rows    []domain.Row
	index   map[int64]int
	stamps  []time.Time
	dropped int
}

// loadSlot is shared by every caller waiting for the same sheet.
type loadSlot struct {
	done chan struct{}
	tbl  *table
	err  error
}

// Source loads a workbook once and answers every replay run from memory.
// The feed names a sheet; an empty feed selects the first sheet.
type Source struct {
	opts Options

	mu      sync.Mutex
	tables  map[string]*table
	loading map[string]*loadSlot
}

// CheckFormat reports ErrUnsupportedFormat unless location names an .xlsx file.
func CheckFormat(location string) error {
	p := location
	if u, err := url.Parse(location); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		p = u.Path
	}
	if !strings.EqualFold(path.Ext(p), ".xlsx") {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, location)
	}
	return nil
}

// New validates the location. The workbook is read on first use.
func New(opts Options) (*Source, error) {
	if opts.Location == "" {
		return nil, fmt.Errorf("xlsxsource: location is required")
	}
	if err := CheckFormat(opts.Location); err != nil {
		return nil, err
	}
	if opts.TimestampColumn == "" {
		opts.TimestampColumn = domain.TimestampKey
	}
	if opts.Name == "" {
		opts.Name = path.Base(opts.Location)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Observability == nil {
		opts.Observability = ports.NopObservability{}
	}
	return &Source{
		opts:    opts,
		tables:  make(map[string]*table),
		loading: make(map[string]*loadSlot),
	}, nil
}

func (s *Source) Name() string { return s.opts.Name }

// ListTimestamps returns the distinct timestamps of the sheet, ascending.
func (s *Source) ListTimestamps(ctx context.Context, feed string) ([]time.Time, error) {
	tbl, err := s.load(ctx, feed)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(tbl.stamps))
	copy(out, tbl.stamps)
	return out, nil
}

// FetchRow returns the first row of the sheet whose timestamp equals ts.
func (s *Source) FetchRow(ctx context.Context, feed string, ts time.Time) (domain.Row, bool, error) {
	tbl, err := s.load(ctx, feed)
	if err != nil {
		return domain.Row{}, false, err
	}
	i, ok := tbl.index[ts.UnixNano()]
	if !ok || !tbl.rows[i].Timestamp.Equal(ts) {
		return domain.Row{}, false, nil
	}
	return tbl.rows[i], true, nil
}

func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = make(map[string]*table)
	return nil
}

// load returns the cached sheet or joins the load in flight. The read runs
// detached from ctx, so a caller leaving early does not fail the others;
// each caller still stops waiting when its own ctx ends. Failed loads are
// not cached so a later session can try again.
func (s *Source) load(ctx context.Context, feed string) (*table, error) {
	s.mu.Lock()
	if tbl, ok := s.tables[feed]; ok {
		s.mu.Unlock()
		return tbl, nil
	}
	slot, ok := s.loading[feed]
	if !ok {
		slot = &loadSlot{done: make(chan struct{})}
		s.loading[feed] = slot
		go s.fill(context.WithoutCancel(ctx), feed, slot)
	}
	s.mu.Unlock()

	select {
	case <-slot.done:
		return slot.tbl, slot.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Source) fill(ctx context.Context, feed string, slot *loadSlot) {
	tbl, err := s.read(ctx, feed)

	s.mu.Lock()
	delete(s.loading, feed)
	if err == nil {
		s.tables[feed] = tbl
	}
	s.mu.Unlock()

	if err == nil && tbl.dropped > 0 {
		s.opts.Observability.IncCounter("waterworks_source_errors_total", float64(tbl.dropped))
		s.opts.Observability.LogWarn("timestamps_dropped",
			ports.Field{Key: "source", Value: s.opts.Name},
			ports.Field{Key: "feed", Value: feed},
			ports.Field{Key: "dropped", Value: tbl.dropped},
		)
	}

	slot.tbl, slot.err = tbl, err
	close(slot.done)
}

func (s *Source) read(ctx context.Context, feed string) (*table, error) {
	f, err := s.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.opts.Location, err)
	}
	defer f.Close()

	sheet := feed
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("load %s: workbook has no sheets", s.opts.Location)
		}
		sheet = sheets[0]
	}

	grid, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	tbl, err := buildTable(grid, s.opts.TimestampColumn)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	return tbl, nil
}

func (s *Source) open(ctx context.Context) (*excelize.File, error) {
	u, err := url.Parse(s.opts.Location)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return excelize.OpenFile(s.opts.Location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.opts.Location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return excelize.OpenReader(resp.Body)
}

// buildTable turns a header row plus data rows into domain rows. Duplicate
// timestamps keep their first row; the timestamp list is sorted ascending.
func buildTable(grid [][]string, tsColumn string) (*table, error) {
	if len(grid) == 0 {
		return &table{index: map[int64]int{}}, nil
	}
	header := grid[0]
	tsIdx := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), tsColumn) {
			tsIdx = i
			break
		}
	}
	if tsIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, tsColumn)
	}

	tbl := &table{index: make(map[int64]int, len(grid)-1)}
	for _, cells := range grid[1:] {
		var (
			ts time.Time
			ok bool
		)
		if tsIdx < len(cells) {
			ts, ok = parseTimestamp(cells[tsIdx])
		}
		if !ok {
			if hasContent(cells) {
				tbl.dropped++
			}
			continue
		}
		row := domain.Row{Timestamp: ts, Values: make(map[string]float64, len(header)-1)}
		for i, name := range header {
			if i == tsIdx || i >= len(cells) {
				continue
			}
			name = strings.TrimSpace(name)
			if v, ok := parseNumber(cells[i]); ok && name != "" {
				row.Values[name] = v
			}
		}

		key := ts.UnixNano()
		if _, dup := tbl.index[key]; dup {
			continue
		}
		tbl.index[key] = len(tbl.rows)
		tbl.rows = append(tbl.rows, row)
		tbl.stamps = append(tbl.stamps, ts)
	}

	sort.SliceStable(tbl.stamps, func(i, j int) bool { return tbl.stamps[i].Before(tbl.stamps[j]) })
	return tbl, nil
}

func hasContent(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return true
		}
	}
	return false
}

var _ ports.DataSource = (*Source)(nil)
