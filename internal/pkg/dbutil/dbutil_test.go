package dbutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFinalize(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		args      []interface{}
		wantQuery string
		wantArgs  []interface{}
	}{
		{
			name:      "plain placeholders",
			query:     "SELECT id FROM ingredients WHERE name = ? AND id = ?",
			args:      []interface{}{"egg", "1"},
			wantQuery: "SELECT id FROM ingredients WHERE name = $1 AND id = $2",
			wantArgs:  []interface{}{"egg", "1"},
		},
		{
			name:      "mysql style limit",
			query:     "SELECT id FROM ingredients WHERE name = ? LIMIT ?, ?",
			args:      []interface{}{"egg", 10, 20},
			wantQuery: "SELECT id FROM ingredients WHERE name = $1 LIMIT $2 OFFSET $3",
			wantArgs:  []interface{}{"egg", 20, 10},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := Finalize(tt.query, tt.args)
			require.Equal(t, tt.wantQuery, query)
			require.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBindLeavesSQLiteUntouched(t *testing.T) {
	query, args := Bind(nil, "SELECT 1 WHERE a = ?", []interface{}{1})
	require.Equal(t, "SELECT 1 WHERE a = ?", query)
	require.Equal(t, []interface{}{1}, args)
}
