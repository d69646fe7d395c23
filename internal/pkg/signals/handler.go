// Package signals ties process signals to the lifetime of long-running
// commands.
package signals

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/endorses/routefilter/internal/pkg/logger"
)

const channelBuffer = 1

// Shutdown returns a context that is cancelled on SIGINT or SIGTERM.
// The returned stop function releases the handler and cancels the context.
func Shutdown(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, channelBuffer)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case sig := <-sigCh:
			logger.Info("Received signal, initiating shutdown", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
		<-done
	}
}

// OnHangup calls fn for every SIGHUP until ctx is done. The returned cleanup
// function waits for the handler goroutine to exit.
func OnHangup(ctx context.Context, fn func()) (cleanup func()) {
	sigCh := make(chan os.Signal, channelBuffer)
	signal.Notify(sigCh, syscall.SIGHUP)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-sigCh:
				logger.Info("Received SIGHUP, reloading")
				fn()
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(stop)
		<-done
	}
}
