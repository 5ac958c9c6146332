// Package bridge connects the child process's standard streams to the
// broadcast hub.
//
// Input flows through Submit, which writes one batch at a time so batches
// from concurrent clients never interleave. Output flows through two relay
// goroutines, one per stream, that publish every line as "[OUT] <line>" or
// "[ERR] <line>".
package bridge

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/HMasataka/conduit/internal/linereader"
	"github.com/HMasataka/conduit/internal/logging"
	"github.com/HMasataka/conduit/pkg/domain"
	"github.com/HMasataka/conduit/pkg/errors"
)

const (
	PrefixOut = "[OUT]"
	PrefixErr = "[ERR]"
)

// Streams are the child process's standard streams.
type Streams struct {
	Stdin  io.WriteCloser
	Stdout io.Reader
	Stderr io.Reader
}

// Bridge owns the child's streams for the lifetime of the process.
type Bridge struct {
	// mu serializes whole batches onto stdin.
	mu     sync.Mutex
	stdin  io.WriteCloser
	writer *bufio.Writer

	stdout io.Reader
	stderr io.Reader

	publisher domain.Publisher
	logger    *logging.Logger

	started   atomic.Bool
	exited    atomic.Bool
	closeOnce sync.Once

	done     chan struct{}
	relayErr error
}

// New creates a bridge. Nothing is read or written until Start.
func New(streams Streams, publisher domain.Publisher, logger *logging.Logger) *Bridge {
	if logger == nil {
		logger = logging.Discard()
	}

	b := &Bridge{
		stdin:     streams.Stdin,
		stdout:    streams.Stdout,
		stderr:    streams.Stderr,
		publisher: publisher,
		logger:    logger.Named("bridge"),
		done:      make(chan struct{}),
	}
	if streams.Stdin != nil {
		b.writer = bufio.NewWriter(streams.Stdin)
	}
	return b
}

// Start launches the output relays. Relays end when their stream reaches
// EOF or fails; ctx is used for publishing only, since a blocked read
// returns only once the stream is closed.
func (b *Bridge) Start(ctx context.Context) error {
	if !b.started.CompareAndSwap(false, true) {
		return fmt.Errorf("bridge already started")
	}

	var g errgroup.Group
	if b.stdout != nil {
		g.Go(func() error { return b.relay(ctx, b.stdout, PrefixOut, "stdout") })
	}
	if b.stderr != nil {
		g.Go(func() error { return b.relay(ctx, b.stderr, PrefixErr, "stderr") })
	}

	go func() {
		b.relayErr = g.Wait()
		close(b.done)
	}()

	b.logger.Info("bridge started")
	return nil
}

func (b *Bridge) relay(ctx context.Context, stream io.Reader, prefix, name string) error {
	r := linereader.New(stream)
	count := 0

	for line := range r.All() {
		message := prefix + " " + line
		count++

		b.logger.Info(message, "stream", name)
		if b.publisher != nil {
			b.publisher.Publish(ctx, []byte(message))
		}
	}

	if err := r.Err(); err != nil && !isClosed(err) {
		b.logger.Error("error reading process output", "stream", name, "error", err)
		return fmt.Errorf("read %s: %w", name, err)
	}

	b.logger.Debug("output relay stopped", "stream", name, "lines", count)
	return nil
}

// Submit writes batch to stdin, one instruction per line, flushing after
// each. It returns the instructions that reached the process. Once the
// process has gone away every call fails with PROCESS_UNAVAILABLE.
func (b *Bridge) Submit(ctx context.Context, batch []string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.available(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.From(errors.ErrWriteFailure, "request cancelled").WithCause(err)
	}

	written := make([]string, 0, len(batch))
	for _, instruction := range batch {
		if instruction == "" {
			continue
		}

		if err := b.writeLine(instruction); err != nil {
			if isClosed(err) {
				b.markExited(err)
			}
			b.logger.Error("failed to send command to process",
				"instruction", instruction,
				"error", err,
			)
			return written, errors.From(errors.ErrWriteFailure, "").WithCause(err)
		}

		written = append(written, instruction)
	}

	b.logger.Debug("batch submitted", "instructions", len(written))
	return written, nil
}

func (b *Bridge) available() error {
	switch {
	case !b.started.Load():
		return errors.From(errors.ErrProcessUnavailable, "")
	case b.exited.Load():
		return errors.From(errors.ErrProcessUnavailable, "")
	case b.writer == nil:
		return errors.From(errors.ErrProcessUnavailable, "")
	}
	return nil
}

func (b *Bridge) writeLine(instruction string) error {
	if _, err := b.writer.WriteString(instruction); err != nil {
		return err
	}
	if err := b.writer.WriteByte('\n'); err != nil {
		return err
	}
	return b.writer.Flush()
}

// MarkExited records that the process is gone.
func (b *Bridge) MarkExited(err error) {
	b.markExited(err)
}

func (b *Bridge) markExited(err error) {
	if b.exited.CompareAndSwap(false, true) {
		b.logger.Warn("process input unavailable", "error", err)
	}
}

// Available reports whether Submit can currently reach the process.
func (b *Bridge) Available() bool {
	return b.started.Load() && !b.exited.Load() && b.writer != nil
}

// Done is closed once both relays have ended.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until both relays have ended and returns the first relay
// error. Start must have been called.
func (b *Bridge) Wait() error {
	<-b.done
	return b.relayErr
}

// Close closes stdin and makes every later Submit fail. It does not wait
// for the writer lock, so it can unblock a write stuck on a full pipe.
func (b *Bridge) Close() error {
	b.markExited(stderrors.New("bridge closed"))

	var err error
	b.closeOnce.Do(func() {
		if b.stdin != nil {
			err = b.stdin.Close()
		}
	})
	return err
}

func isClosed(err error) bool {
	return stderrors.Is(err, os.ErrClosed) ||
		stderrors.Is(err, io.ErrClosedPipe) ||
		stderrors.Is(err, syscall.EPIPE)
}
