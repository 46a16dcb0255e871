package repositories

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// Sentinel errors callers branch on. A missing record is an expected
// outcome for user-facing routes, never a hard failure.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// mysqlDuplicateEntry is the MySQL error number for unique key violations
const mysqlDuplicateEntry = 1062

// isDuplicateEntry reports whether err is a MySQL unique constraint violation
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
