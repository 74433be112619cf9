package google

import (
	"context"
	"errors"
	"net"

	"google.golang.org/api/googleapi"

	"shopflow/internal/common"
)

// classify maps a Google API error onto the pipeline's taxonomy. Rate limits,
// server-side errors, timeouts, and plain network failures are transient and
// eligible for retry; 401/403 surface as authentication failures; anything
// else is terminal for the call.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == 401 || gerr.Code == 403:
			return common.NewAppError("AUTH_ERROR", gerr.Message, common.ErrAuthentication)
		case gerr.Code == 429 || gerr.Code >= 500:
			return common.Transient(err)
		default:
			return err
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return common.Transient(err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return common.Transient(err)
	}
	return err
}
