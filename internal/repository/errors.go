package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a write hits a unique key.
var ErrDuplicate = errors.New("duplicate entry")

const mysqlDuplicateEntry = 1062

// translateWriteErr turns a unique key violation into ErrDuplicate.
func translateWriteErr(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return fmt.Errorf("%w: %s", ErrDuplicate, myErr.Message)
	}
	return err
}
