package repository

import (
	"database/sql"
	"fmt"
)

// requireAffected maps a zero-row write to sql.ErrNoRows so services can report not found.
func requireAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
