package sqlsource

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedDriver is returned for database drivers without a dialect.
var ErrUnsupportedDriver = errors.New("sqlsource: unsupported driver")

// Dialect captures the identifier quoting and placeholder style of a driver.
type Dialect struct {
	Driver      string
	open, close string
	placeholder func(n int) string
}

var dialects = map[string]Dialect{
	"postgres": {
		Driver: "postgres", open: `"`, close: `"`,
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	},
	"sqlserver": {
		Driver: "sqlserver", open: "[", close: "]",
		placeholder: func(n int) string { return fmt.Sprintf("@p%d", n) },
	},
	"sqlite": {
		Driver: "sqlite", open: `"`, close: `"`,
		placeholder: func(int) string { return "?" },
	},
}

// DialectFor returns the dialect registered for driver.
func DialectFor(driver string) (Dialect, error) {
	d, ok := dialects[strings.ToLower(driver)]
	if !ok {
		return Dialect{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	return d, nil
}

// Quote quotes a possibly schema-qualified identifier. Embedded closing
// quotes are doubled so the identifier can never terminate early.
func (d Dialect) Quote(ident string) (string, error) {
	if strings.TrimSpace(ident) == "" {
		return "", errors.New("sqlsource: empty identifier")
	}
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		if p == "" {
			return "", fmt.Errorf("sqlsource: malformed identifier %q", ident)
		}
		parts[i] = d.open + strings.ReplaceAll(p, d.close, d.close+d.close) + d.close
	}
	return strings.Join(parts, "."), nil
}

// Placeholder returns the n-th (1-based) bind parameter marker.
func (d Dialect) Placeholder(n int) string {
	return d.placeholder(n)
}
