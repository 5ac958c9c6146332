// Package process launches and supervises the child process whose
// console the broker relays.
package process

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/HMasataka/conduit/internal/logging"
)

const defaultTerminateGrace = 10 * time.Second

// Options describe the child process.
type Options struct {
	Command        []string
	Dir            string
	Env            []string
	TerminateGrace time.Duration
	Logger         *logging.Logger
}

// Process is a running child with piped standard streams.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *os.File
	stderr *os.File

	grace  time.Duration
	logger *logging.Logger

	done    chan struct{}
	waitErr error
}

// Start launches the child. Stdout and stderr are plain os pipes owned by
// the caller, so reading them is independent of Wait; they reach EOF once
// the child and any grandchildren holding them exit.
func Start(opts Options) (*Process, error) {
	if len(opts.Command) == 0 || opts.Command[0] == "" {
		return nil, fmt.Errorf("process command is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.Named("process")

	grace := opts.TerminateGrace
	if grace <= 0 {
		grace = defaultTerminateGrace
	}

	//nolint:gosec // G204: the command comes from operator configuration
	cmd := exec.Command(opts.Command[0], opts.Command[1:]...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdoutR, stdoutW)
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		closeAll(stdoutR, stdoutW, stderrR, stderrW)
		logger.Error("failed to start process", "command", opts.Command, "error", err)
		return nil, fmt.Errorf("start process: %w", err)
	}

	// The child holds its own copies now.
	closeAll(stdoutW, stderrW)

	p := &Process{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdoutR,
		stderr: stderrR,
		grace:  grace,
		logger: logger,
		done:   make(chan struct{}),
	}

	go p.wait()

	logger.Info("process started", "command", opts.Command, "pid", cmd.Process.Pid)
	return p, nil
}

func (p *Process) wait() {
	defer close(p.done)

	p.waitErr = p.cmd.Wait()

	if p.waitErr != nil {
		p.logger.Warn("process exited", "pid", p.Pid(), "exit_code", p.ExitCode(), "error", p.waitErr)
		return
	}
	p.logger.Info("process exited", "pid", p.Pid(), "exit_code", 0)
}

// Stdin is closed by the runtime once the child exits.
func (p *Process) Stdin() io.WriteCloser { return p.stdin }

func (p *Process) Stdout() io.ReadCloser { return p.stdout }

func (p *Process) Stderr() io.ReadCloser { return p.stderr }

func (p *Process) Pid() int { return p.cmd.Process.Pid }

// Done is closed when the child has exited.
func (p *Process) Done() <-chan struct{} { return p.done }

// Wait blocks until the child exits and returns its exit error.
func (p *Process) Wait() error {
	<-p.done
	return p.waitErr
}

// ExitCode is -1 while the child is running.
func (p *Process) ExitCode() int {
	select {
	case <-p.done:
	default:
		return -1
	}

	var exitErr *exec.ExitError
	if stderrors.As(p.waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	if p.waitErr != nil {
		return -1
	}
	return 0
}

// Terminate asks the child to stop with SIGTERM and kills it if it has not
// exited within the grace period or before ctx is done.
func (p *Process) Terminate(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	default:
	}

	p.logger.Info("terminating process", "pid", p.Pid(), "grace", p.grace)

	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		p.logger.Warn("failed to signal process", "error", err)
	}

	timer := time.NewTimer(p.grace)
	defer timer.Stop()

	select {
	case <-p.done:
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	p.logger.Warn("process did not exit in time, killing", "pid", p.Pid())
	if err := p.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill process (pid %d): %w", p.Pid(), err)
	}

	<-p.done
	return nil
}

// Close releases the parent's ends of the output pipes.
func (p *Process) Close() error {
	return stderrors.Join(p.stdout.Close(), p.stderr.Close())
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
