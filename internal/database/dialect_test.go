package database

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "sqlite3" {
			t.Errorf("DriverName() = %v, want sqlite3", got)
		}
	})

	t.Run("DSN adds immediate transactions", func(t *testing.T) {
		dsn := dialect.DSN(DialectConfig{Path: "app.db"})
		if !strings.HasPrefix(dsn, "app.db?") || !strings.Contains(dsn, "_txlock=immediate") {
			t.Errorf("DSN() = %v, want immediate txlock on app.db", dsn)
		}
	})

	t.Run("DSN keeps existing params", func(t *testing.T) {
		dsn := dialect.DSN(DialectConfig{Path: "file:app.db?cache=shared"})
		if !strings.Contains(dsn, "cache=shared&_txlock=immediate") {
			t.Errorf("DSN() = %v", dsn)
		}
	})

	t.Run("No row locking clause", func(t *testing.T) {
		if got := dialect.ForUpdate(); got != "" {
			t.Errorf("ForUpdate() = %q, want empty", got)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		if got := dialect.MigrationsSubdir(); got != "sqlite" {
			t.Errorf("MigrationsSubdir() = %v, want sqlite", got)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return false for PostgreSQL")
		}
	})

	t.Run("ForUpdate", func(t *testing.T) {
		if got := dialect.ForUpdate(); got != " FOR UPDATE" {
			t.Errorf("ForUpdate() = %q", got)
		}
	})

	t.Run("Upsert uses numbered placeholders after rewrite", func(t *testing.T) {
		q := dialect.RewriteQuery(dialect.UpsertRelationshipQuery())
		if !strings.Contains(q, "$6") || strings.Contains(q, "?") {
			t.Errorf("rewritten upsert = %v", q)
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	tests := []struct {
		url  string
		want string
	}{
		{"user:pw@tcp(db:3306)/app", "user:pw@tcp(db:3306)/app?parseTime=true"},
		{"user:pw@tcp(db:3306)/app?charset=utf8mb4", "user:pw@tcp(db:3306)/app?charset=utf8mb4&parseTime=true"},
		{"user:pw@tcp(db:3306)/app?parseTime=false", "user:pw@tcp(db:3306)/app?parseTime=false"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := dialect.DSN(DialectConfig{URL: tt.url}); got != tt.want {
				t.Errorf("DSN() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := dialect.RandomFunc(); got != "RAND()" {
		t.Errorf("RandomFunc() = %v, want RAND()", got)
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM users WHERE id = ?",
			expected: "SELECT * FROM users WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM classrooms WHERE id = ?",
			expected: "SELECT * FROM classrooms WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO student_enrollments (student_id, classroom_id) VALUES (?, ?)",
			expected: "INSERT INTO student_enrollments (student_id, classroom_id) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE users SET name = ?, email = ? WHERE id = ?",
			expected: "UPDATE users SET name = ?, email = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.dialect.RewriteQuery(tt.query); result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		err     error
		want    bool
	}{
		{"postgres unique", NewPostgresDialect(), fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{"postgres fk", NewPostgresDialect(), &pq.Error{Code: "23503"}, false},
		{"mysql duplicate", NewMySQLDialect(), fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062}), true},
		{"mysql other", NewMySQLDialect(), &mysql.MySQLError{Number: 1452}, false},
		{"plain error", NewSQLiteDialect(), errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}
