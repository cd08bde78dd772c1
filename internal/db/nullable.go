package db

import "database/sql"

// Nullable maps an absent column value to nil.
func Nullable[T any](v sql.Null[T]) *T {
	if !v.Valid {
		return nil
	}
	return &v.V
}

// ValueOr returns the column value, or fallback when it is NULL.
func ValueOr[T any](v sql.Null[T], fallback T) T {
	if !v.Valid {
		return fallback
	}
	return v.V
}
