package store

import (
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect selects the SQL flavour of a SQLStore
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// driverName returns the database/sql driver registered for the dialect
func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectSQLite:
		return "sqlite3", nil
	case DialectMySQL:
		return "mysql", nil
	case DialectPostgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported store dialect: %s", d)
	}
}

// schema returns the DDL statements that create the store's tables
func (d Dialect) schema() []string {
	switch d {
	case DialectMySQL:
		return []string{
			`CREATE TABLE IF NOT EXISTS forms (
				id VARCHAR(36) PRIMARY KEY,
				owner_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				honeypot_field VARCHAR(255) NOT NULL,
				notify_email VARCHAR(255) NOT NULL,
				redirect_url TEXT NOT NULL,
				schema_json TEXT NOT NULL,
				created_at VARCHAR(32) NOT NULL,
				updated_at VARCHAR(32) NOT NULL,
				INDEX idx_forms_owner (owner_id)
			)`,
			`CREATE TABLE IF NOT EXISTS submissions (
				id VARCHAR(36) PRIMARY KEY,
				form_id VARCHAR(36) NOT NULL,
				data MEDIUMTEXT NOT NULL,
				remote_addr VARCHAR(64) NOT NULL,
				user_agent TEXT NOT NULL,
				created_at VARCHAR(32) NOT NULL,
				INDEX idx_submissions_form (form_id, created_at)
			)`,
		}
	default:
		return []string{
			`CREATE TABLE IF NOT EXISTS forms (
				id TEXT PRIMARY KEY,
				owner_id TEXT NOT NULL,
				name TEXT NOT NULL,
				honeypot_field TEXT NOT NULL,
				notify_email TEXT NOT NULL,
				redirect_url TEXT NOT NULL,
				schema_json TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_forms_owner ON forms(owner_id)`,
			`CREATE TABLE IF NOT EXISTS submissions (
				id TEXT PRIMARY KEY,
				form_id TEXT NOT NULL,
				data TEXT NOT NULL,
				remote_addr TEXT NOT NULL,
				user_agent TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_submissions_form ON submissions(form_id, created_at)`,
		}
	}
}

// rebind rewrites '?' placeholders as $1, $2, ... for postgres
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
