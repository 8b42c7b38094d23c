package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// errInterrupted is the cancellation cause when the user stops a wait.
var errInterrupted = errors.New("interrupted")

// exitInterrupted is the conventional status for a run ended by SIGINT.
const exitInterrupted = 130

// exitProcess is swapped out in tests.
var exitProcess = os.Exit

// interruptible returns a context for a long wait on the store, such as an
// upload wait or a status watch. The first SIGINT/SIGTERM cancels it with
// errInterrupted so the command can journal and report what it has; the
// second exits at once. stop releases the signal handler.
func interruptible(parent context.Context, cc *CLIContext, activity string) (context.Context, context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ctx, stop := watchInterrupts(parent, cc, activity, sigCh)

	return ctx, func() {
		signal.Stop(sigCh)
		stop()
	}
}

func watchInterrupts(
	parent context.Context, cc *CLIContext, activity string, sigCh <-chan os.Signal,
) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			cc.Logger.Info("interrupt received",
				slog.String("signal", sig.String()),
				slog.String("activity", activity),
			)
			cc.Statusf("\nStopping %s. Press Ctrl-C again to quit now.\n", activity)
			cancel(errInterrupted)
		case <-done:
			return
		case <-ctx.Done():
			return
		}

		select {
		case sig := <-sigCh:
			cc.Logger.Warn("second interrupt, exiting",
				slog.String("signal", sig.String()),
				slog.String("activity", activity),
			)
			exitProcess(exitInterrupted)
		case <-done:
		case <-parent.Done():
		}
	}()

	return ctx, sync.OnceFunc(func() {
		close(done)
		cancel(context.Canceled)
	})
}

// interruptCause marks err as errInterrupted when a signal canceled ctx.
func interruptCause(ctx context.Context, err error) error {
	if err != nil && errors.Is(context.Cause(ctx), errInterrupted) && !errors.Is(err, errInterrupted) {
		return fmt.Errorf("%w: %w", errInterrupted, err)
	}

	return err
}
