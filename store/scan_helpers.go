package store

import (
	"database/sql"
	"time"
)

// Timestamps are stored as RFC3339 UTC so lexicographic ordering in SQL
// matches chronological ordering.
const timeLayout = time.RFC3339

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func fmtTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func scanTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func scanTimePtr(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(timeLayout, ns.String)
	if err != nil {
		return nil
	}
	return &t
}
