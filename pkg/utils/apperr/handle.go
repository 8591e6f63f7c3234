package apperr

import (
	"context"

	"github.com/m-mizutani/ctxlog"
)

// Handle logs an unrecovered application error with the request-scoped logger.
func Handle(ctx context.Context, err error) {
	ctxlog.From(ctx).Error("application error", "error", err)
}
