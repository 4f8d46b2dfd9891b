// Package changefeed delivers submission updates from a store's change
// notifications to a handler.
package changefeed

import (
	"context"
	"time"

	"github.com/tendant/simple-certify/internal/domain"
)

// HandlerFunc processes one submission change. It must not block forever.
type HandlerFunc func(ctx context.Context, change domain.SubmissionChange)

// Source streams submission changes until ctx is canceled. Run returns nil
// on cancellation and an error only when the feed cannot be started.
type Source interface {
	Run(ctx context.Context, handle HandlerFunc) error
}

// sleep waits for d or until ctx is done, reporting whether to continue.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
