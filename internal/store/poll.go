package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultPollInterval is the fixed delay between status checks while an
// upload job is running. It does not grow between attempts.
const DefaultPollInterval = 2 * time.Second

// StatusFetcher fetches item status. *Client implements it.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, itemID string) (*ItemStatus, error)
}

// Poller waits for server-side upload jobs and drives watch loops. It issues
// one request at a time and never overlaps polls.
type Poller struct {
	fetcher  StatusFetcher
	clock    clockwork.Clock
	interval time.Duration
	logger   *slog.Logger
}

// NewPoller creates a Poller using DefaultPollInterval and the real clock.
func NewPoller(fetcher StatusFetcher, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}

	return &Poller{
		fetcher:  fetcher,
		clock:    clockwork.NewRealClock(),
		interval: DefaultPollInterval,
		logger:   logger,
	}
}

// WaitForCompletion polls itemID until its last async upload reaches a
// terminal state or maxWait elapses.
//
// SUCCEEDED and FAILED are returned as normal results. Any other state that
// is not IN_PROGRESS (e.g. NOT_FOUND) is returned unchanged. An absent state
// counts as still running. When the bound is reached the error is a
// *TimeoutError; the last sleep may overshoot maxWait by up to one interval.
func (p *Poller) WaitForCompletion(ctx context.Context, itemID string, maxWait time.Duration) (UploadState, error) {
	if maxWait <= 0 {
		return "", &ValidationError{Field: "max wait", Reason: fmt.Sprintf("%s must be positive", maxWait)}
	}

	start := p.clock.Now()
	polls := 0

	var last UploadState

	for p.clock.Since(start) < maxWait {
		status, err := p.fetcher.FetchStatus(ctx, itemID)
		if err != nil {
			return "", err
		}

		polls++
		last = status.LastAsyncUploadState

		switch last {
		case UploadStateSucceeded, UploadStateFailed:
			p.logger.Info("upload finished",
				slog.String("item_id", itemID),
				slog.String("state", string(last)),
				slog.Int("polls", polls),
				slog.Duration("elapsed", p.clock.Since(start)),
			)

			return last, nil
		case UploadStateInProgress, "":
			p.logger.Debug("upload still in progress",
				slog.String("item_id", itemID),
				slog.Int("polls", polls),
			)
		default:
			p.logger.Warn("upload ended in unexpected state",
				slog.String("item_id", itemID),
				slog.String("state", string(last)),
			)

			return last, nil
		}

		if err := p.sleep(ctx, p.interval); err != nil {
			return "", fmt.Errorf("store: waiting for upload of %s: %w", itemID, err)
		}
	}

	return "", &TimeoutError{
		ItemID:    itemID,
		Waited:    p.clock.Since(start),
		LastState: last,
	}
}

// Watch fetches itemID's status immediately and then every interval,
// passing each snapshot to onStatus. It runs until ctx is canceled, in
// which case it returns nil, or until onStatus returns an error. Fetch
// errors are logged and the loop keeps going.
func (p *Poller) Watch(
	ctx context.Context, itemID string, interval time.Duration, onStatus func(*ItemStatus) error,
) error {
	if err := ValidateWatchInterval(interval); err != nil {
		return err
	}

	ticker := p.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := p.fetcher.FetchStatus(ctx, itemID)

		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			p.logger.Warn("watch: status fetch failed",
				slog.String("item_id", itemID),
				slog.String("error", err.Error()),
			)
		default:
			if cbErr := onStatus(status); cbErr != nil {
				return cbErr
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
		}
	}
}

// sleep waits for d or until ctx is canceled.
func (p *Poller) sleep(ctx context.Context, d time.Duration) error {
	timer := p.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}
