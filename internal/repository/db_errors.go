package repository

import (
	"errors"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// IsDuplicateKey reports whether err is a unique-constraint violation.
// Dialectors with error translation enabled surface gorm.ErrDuplicatedKey;
// the raw MySQL error 1062 is matched as well since the production
// connection does not translate.
func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqldriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
