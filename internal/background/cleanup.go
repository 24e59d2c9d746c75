package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ExpiredRevocationPurger deletes revocation entries whose tokens have expired
type ExpiredRevocationPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// RevocationCleanup periodically trims the token revocation list
type RevocationCleanup struct {
	purger   ExpiredRevocationPurger
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRevocationCleanup creates a cleanup job running every interval
func NewRevocationCleanup(purger ExpiredRevocationPurger, logger *slog.Logger, interval time.Duration) *RevocationCleanup {
	return &RevocationCleanup{
		purger:   purger,
		logger:   logger,
		interval: interval,
		timeout:  30 * time.Second,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start runs one pass immediately, then one per interval until Stop is called
// or ctx is cancelled. It blocks.
func (c *RevocationCleanup) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			c.RunOnce(ctx)
		case <-c.stopCh:
			c.logger.Info("revocation cleanup stopped")
			return
		case <-ctx.Done():
			c.logger.Info("revocation cleanup context cancelled")
			return
		}
	}
}

// RunOnce deletes expired entries and returns how many were removed
func (c *RevocationCleanup) RunOnce(ctx context.Context) int64 {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	deleted, err := c.purger.DeleteExpired(runCtx, c.now())
	if err != nil {
		c.logger.Error("failed to delete expired revocations", slog.Any("error", err))
		return 0
	}

	if deleted > 0 {
		c.logger.Info("expired revocations deleted", slog.Int64("rows_deleted", deleted))
	}
	return deleted
}

// Stop ends Start; calling it more than once is safe
func (c *RevocationCleanup) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}
