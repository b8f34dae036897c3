package ports

import (
	"context"
	"time"

	"github.com/Adi0604/Water-Works/internal/domain"
)

// DataSource supplies the timestamps of a feed and the row recorded at each
// of them. Implementations are shared across replay runs.
type DataSource interface {
	Name() string
	// ListTimestamps returns the distinct timestamps of feed in ascending order.
	ListTimestamps(ctx context.Context, feed string) ([]time.Time, error)
	// FetchRow returns the row whose timestamp equals ts exactly. ok is false
	// when no such row exists; that is not an error.
	FetchRow(ctx context.Context, feed string, ts time.Time) (row domain.Row, ok bool, err error)
	Close() error
}
