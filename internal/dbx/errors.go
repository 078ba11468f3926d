package dbx

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/zynoxlab/zynox-cloud/internal/common"
)

// IsConnErr reports whether err looks like a lost or unreachable database
// connection rather than a statement-level failure.
func IsConnErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// WrapConnErr tags connection-level failures with
// common.ErrorStoreUnavailable so callers can distinguish an unreachable
// store from a bad statement. Other errors pass through unchanged.
func WrapConnErr(err error) error {
	if err == nil {
		return nil
	}
	if IsConnErr(err) {
		return fmt.Errorf("%v: %w", err, common.ErrorStoreUnavailable)
	}
	return err
}
