package mysql

import (
	"errors"
	"fmt"

	"delivery-service/internal/domain"

	mysqldriver "github.com/go-sql-driver/mysql"
)

const (
	errDuplicateEntry  = 1062
	errNoReferencedRow = 1452
)

// translateError maps driver errors onto domain errors so services never see
// MySQL error numbers.
func translateError(err error) error {
	var myErr *mysqldriver.MySQLError
	if !errors.As(err, &myErr) {
		return err
	}
	switch myErr.Number {
	case errDuplicateEntry:
		return fmt.Errorf("%w: %s", domain.ErrConflict, myErr.Message)
	case errNoReferencedRow:
		return domain.NewValidationError("reference", "referenced record does not exist")
	}
	return err
}
