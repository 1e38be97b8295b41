package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/weekledger/internal/ledger"
)

var errInternal = errors.New("internal error")

// connectError maps a ledger error onto a Connect status code. Unclassified
// errors are logged and replaced by a generic message.
func connectError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ledger.ErrPreconditionFailed):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, ledger.ErrInvalidArgument):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		slog.ErrorContext(ctx, "Ledger operation failed", "error", err)
		return connect.NewError(connect.CodeInternal, errInternal)
	}
}
