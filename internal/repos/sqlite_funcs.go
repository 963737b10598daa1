package repos

import (
	"database/sql/driver"
	"strings"

	msqlite "modernc.org/sqlite"
)

// SQLite's built-in lower/upper only fold ASCII. The replacements fold with Go's
// Unicode tables so LOWER(name), the case-insensitive unique indexes and
// strings.EqualFold agree on names like "Ñoquis" or "Álvarez".
func init() {
	msqlite.MustRegisterDeterministicScalarFunction("lower", 1, foldFunc(strings.ToLower))
	msqlite.MustRegisterDeterministicScalarFunction("upper", 1, foldFunc(strings.ToUpper))
}

func foldFunc(fold func(string) string) func(*msqlite.FunctionContext, []driver.Value) (driver.Value, error) {
	return func(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case string:
			return fold(v), nil
		case []byte:
			return fold(string(v)), nil
		default:
			// NULL and numbers pass through
			return v, nil
		}
	}
}

// withPragmas adds the per-connection pragmas to dsn, so every connection the
// pool opens enforces foreign keys.
func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}
