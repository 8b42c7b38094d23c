package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchInterrupts_FirstSignalStopsActivity(t *testing.T) {
	cc := testCLIContext(t)

	var logs bytes.Buffer
	cc.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	sigCh := make(chan os.Signal, 1)
	ctx, stop := watchInterrupts(context.Background(), cc, "the status watch", sigCh)
	defer stop()

	sigCh <- syscall.SIGINT

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not canceled within 2 seconds of SIGINT")
	}

	assert.ErrorIs(t, context.Cause(ctx), errInterrupted)
	assert.Contains(t, cc.Stderr.(*bytes.Buffer).String(), "Stopping the status watch.")
	assert.Contains(t, logs.String(), `activity="the status watch"`)
}

func TestWatchInterrupts_SecondSignalExits(t *testing.T) {
	codes := make(chan int, 1)
	exitProcess = func(code int) { codes <- code }
	t.Cleanup(func() { exitProcess = os.Exit })

	sigCh := make(chan os.Signal, 2)
	ctx, stop := watchInterrupts(context.Background(), testCLIContext(t), "the upload wait", sigCh)
	defer stop()

	sigCh <- syscall.SIGINT
	<-ctx.Done()
	sigCh <- syscall.SIGTERM

	select {
	case code := <-codes:
		assert.Equal(t, exitInterrupted, code)
	case <-time.After(2 * time.Second):
		t.Fatal("second signal did not exit")
	}
}

func TestWatchInterrupts_ParentCancelPropagates(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := watchInterrupts(parent, testCLIContext(t), "the status watch", make(chan os.Signal))
	defer stop()

	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not canceled within 2 seconds of parent cancel")
	}

	assert.NotErrorIs(t, context.Cause(ctx), errInterrupted)
}

func TestWatchInterrupts_StopIsNotAnInterrupt(t *testing.T) {
	t.Parallel()

	ctx, stop := watchInterrupts(context.Background(), testCLIContext(t), "the upload wait", make(chan os.Signal))
	stop()
	stop()

	require.Error(t, ctx.Err())
	assert.NoError(t, interruptCause(ctx, nil))

	err := interruptCause(ctx, context.Canceled)
	assert.NotErrorIs(t, err, errInterrupted)
}

func TestInterruptCause_WrapsWaitError(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 1)
	ctx, stop := watchInterrupts(context.Background(), testCLIContext(t), "the upload wait", sigCh)
	defer stop()

	sigCh <- syscall.SIGINT
	<-ctx.Done()

	waitErr := errors.New("store: fetching status: context canceled")
	err := interruptCause(ctx, waitErr)
	require.ErrorIs(t, err, errInterrupted)
	require.ErrorIs(t, err, waitErr)
	assert.Equal(t, exitInterrupted, exitCode(err))
	assert.Equal(t, "interrupted", outcomeOf(err))
}

func TestInterruptible_RealSignal(t *testing.T) {
	ctx, stop := interruptible(context.Background(), testCLIContext(t), "the status watch")
	defer stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not canceled within 2 seconds of SIGINT")
	}

	assert.ErrorIs(t, context.Cause(ctx), errInterrupted)
}
