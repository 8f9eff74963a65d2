package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ortografia/internal/database"
)

// ErrConflict is wrapped when a write hits a unique index
var ErrConflict = errors.New("conflicting row")

// ErrNotActive is wrapped when an update finds its row no longer active
var ErrNotActive = errors.New("row is not active")

// wrapWrite wraps a failed write, tagging unique violations with ErrConflict
func wrapWrite(db database.DBTX, action string, err error) error {
	if db.GetDialect().IsUniqueViolation(err) {
		return fmt.Errorf("failed to %s: %w: %v", action, ErrConflict, err)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func now() time.Time {
	return time.Now().UTC()
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	n := ni.Int64
	return &n
}

func float64Ptr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}
