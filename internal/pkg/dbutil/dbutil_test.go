package dbutil

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalize_RebindsPlaceholders(t *testing.T) {
	query, args := Finalize("SELECT id FROM articles WHERE category = ?", []interface{}{"Sports"})
	require.Equal(t, "SELECT id FROM articles WHERE category = $1", query)
	require.Equal(t, []interface{}{"Sports"}, args)
}

func TestFinalize_RewritesMySQLLimit(t *testing.T) {
	query, args := Finalize(
		"SELECT id FROM articles WHERE category = ? LIMIT ?,?",
		[]interface{}{"Sports", 10, 5},
	)
	require.Equal(t, "SELECT id FROM articles WHERE category = $1 LIMIT $2 OFFSET $3", query)
	// gendry emits offset,count; Postgres wants count first.
	require.Equal(t, []interface{}{"Sports", 5, 10}, args)
}

func TestFinalize_SingleLimitUntouched(t *testing.T) {
	query, args := Finalize("SELECT id FROM articles LIMIT ?", []interface{}{3})
	require.Equal(t, "SELECT id FROM articles LIMIT $1", query)
	require.Equal(t, []interface{}{3}, args)
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	require.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	require.False(t, IsUniqueViolation(nil))
}
