package dictionary

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"

	"github.com/mahesh-hegde/hsrdict/app/common"
)

// isTransient reports whether err means the backend was unreachable rather
// than that it rejected the operation.
func isTransient(err error) bool {
	var netErr net.Error
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &netErr)
}

// storeError tags err with common.ErrTransientIO or common.ErrStore.
func storeError(err error, format string, args ...any) error {
	kind := common.ErrStore
	if isTransient(err) {
		kind = common.ErrTransientIO
	}
	return fmt.Errorf("%w: %s: %w", kind, fmt.Sprintf(format, args...), err)
}
