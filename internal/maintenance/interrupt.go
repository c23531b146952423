package maintenance

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maloquacious/dbmaint/internal/logger"
)

// DefaultInterruptTimeout is how long an interrupt waits for an in-flight destructive phase.
const DefaultInterruptTimeout = 5 * time.Second

// Recoverable is what an interrupt needs from a running tool.
type Recoverable interface {
	InFlight() (done <-chan struct{}, ok bool)
	RestoreIntegrity(ctx context.Context) error
}

// InterruptHandler turns termination signals into a cancelled run followed
// by a bounded wait and a foreign key restore. A second signal while the
// first is being handled exits immediately with status 1.
type InterruptHandler struct {
	target   Recoverable
	cancel   context.CancelFunc
	timeout  time.Duration
	out      io.Writer
	log      logger.Logger
	exit     func(code int)
	onExit   []func()
	handling atomic.Bool
	finished chan struct{}
	once     sync.Once
}

// NewInterruptHandler creates a handler. cancel is called on the first signal.
func NewInterruptHandler(target Recoverable, cancel context.CancelFunc, timeout time.Duration, out io.Writer, log logger.Logger) *InterruptHandler {
	if timeout <= 0 {
		timeout = DefaultInterruptTimeout
	}
	return &InterruptHandler{
		target:   target,
		cancel:   cancel,
		timeout:  timeout,
		out:      out,
		log:      log,
		exit:     os.Exit,
		finished: make(chan struct{}),
	}
}

// Watch handles signals from sigs until the channel is closed.
func (h *InterruptHandler) Watch(sigs <-chan os.Signal) {
	go func() {
		for sig := range sigs {
			h.Handle(sig)
		}
	}()
}

// Handle reacts to a single signal.
func (h *InterruptHandler) Handle(sig os.Signal) {
	if !h.handling.CompareAndSwap(false, true) {
		fmt.Fprintln(h.out, "\nForced exit.")
		h.log.Warn("received %s while shutting down, forcing exit", sig)
		h.exit(1)
		return
	}
	go h.shutdown(sig)
}

// OnExit registers fn to run before a handled interrupt exits the process.
// Hooks run in reverse registration order, like deferred calls. They are not
// run on a forced exit. Register hooks before calling Watch.
func (h *InterruptHandler) OnExit(fn func()) {
	h.onExit = append(h.onExit, fn)
}

// Handling reports whether a signal has been received.
func (h *InterruptHandler) Handling() bool {
	return h.handling.Load()
}

// Wait blocks until the first signal has been fully handled.
func (h *InterruptHandler) Wait() {
	<-h.finished
}

func (h *InterruptHandler) shutdown(sig os.Signal) {
	defer h.once.Do(func() { close(h.finished) })

	fmt.Fprintf(h.out, "\nReceived %s, stopping. Press Ctrl+C again to force exit.\n", sig)
	h.log.Warn("received %s, cancelling run", sig)
	h.cancel()

	if done, ok := h.target.InFlight(); ok {
		fmt.Fprintln(h.out, "Waiting for the current operation to finish...")
		timer := time.NewTimer(h.timeout)
		select {
		case <-done:
			timer.Stop()
		case <-timer.C:
			h.log.Warn("operation still running after %s, restoring anyway", h.timeout)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	if err := h.target.RestoreIntegrity(ctx); err != nil {
		h.log.Error("cleanup after interrupt failed: %v", err)
		fmt.Fprintln(h.out, "Cleanup failed: foreign key enforcement may still be disabled.")
		h.finish(1)
		return
	}
	fmt.Fprintln(h.out, "Foreign key enforcement restored.")
	h.finish(0)
}

// finish runs the exit hooks, then exits with code.
func (h *InterruptHandler) finish(code int) {
	for i := len(h.onExit) - 1; i >= 0; i-- {
		h.onExit[i]()
	}
	h.exit(code)
}
