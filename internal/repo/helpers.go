package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/grubyapp/gruby/internal/pkg/dbutil"
)

// deleteBefore removes rows of table whose column is strictly older than cutoff.
func deleteBefore(ctx context.Context, db *sql.DB, table, column string, cutoff int64) (int64, error) {
	sqlStr, args, err := builder.BuildDelete(table, map[string]interface{}{column + " <": cutoff})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Bind(db, sqlStr, args)
	res, err := db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
