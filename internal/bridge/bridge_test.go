package bridge

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HMasataka/conduit/internal/linereader"
	"github.com/HMasataka/conduit/pkg/errors"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []string
	notify   chan string
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{notify: make(chan string, 64)}
}

func (p *recordingPublisher) Publish(_ context.Context, message []byte) {
	p.mu.Lock()
	p.messages = append(p.messages, string(message))
	p.mu.Unlock()
	p.notify <- string(message)
}

func (p *recordingPublisher) next(t *testing.T) string {
	t.Helper()
	select {
	case m := <-p.notify:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
		return ""
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// collectLines reads lines from r until it is closed.
func collectLines(r io.Reader) <-chan []string {
	out := make(chan []string, 1)
	go func() {
		var lines []string
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		out <- lines
	}()
	return out
}

func TestSubmit_WritesInOrder(t *testing.T) {
	var buf bytes.Buffer
	b := New(Streams{Stdin: nopWriteCloser{&buf}}, nil, nil)
	require.NoError(t, b.Start(context.Background()))

	written, err := b.Submit(context.Background(), []string{"say hi", "", "kill @e[type=!player]"})
	require.NoError(t, err)

	assert.Equal(t, []string{"say hi", "kill @e[type=!player]"}, written)
	assert.Equal(t, "say hi\nkill @e[type=!player]\n", buf.String())
}

func TestSubmit_BatchesDoNotInterleave(t *testing.T) {
	pr, pw := io.Pipe()
	b := New(Streams{Stdin: pw}, nil, nil)
	require.NoError(t, b.Start(context.Background()))

	lines := collectLines(pr)

	const rounds = 50
	var wg sync.WaitGroup
	for i := range rounds {
		for _, tag := range []string{"A", "B"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				batch := []string{
					fmt.Sprintf("%s%d-1", tag, i),
					fmt.Sprintf("%s%d-2", tag, i),
				}
				_, err := b.Submit(context.Background(), batch)
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()
	require.NoError(t, pw.Close())

	got := <-lines
	require.Len(t, got, rounds*4)
	for i := 0; i < len(got); i += 2 {
		first, second := got[i], got[i+1]
		require.Equal(t, first[:len(first)-1]+"2", second, "batch split at line %d", i)
	}
}

func TestSubmit_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	b := New(Streams{Stdin: nopWriteCloser{&buf}}, nil, nil)

	written, err := b.Submit(context.Background(), []string{"say hi"})
	require.ErrorIs(t, err, errors.ErrProcessUnavailable)
	assert.Empty(t, written)
	assert.Zero(t, buf.Len())
}

func TestSubmit_NoStdin(t *testing.T) {
	b := New(Streams{}, nil, nil)
	require.NoError(t, b.Start(context.Background()))

	_, err := b.Submit(context.Background(), []string{"say hi"})
	require.ErrorIs(t, err, errors.ErrProcessUnavailable)
}

func TestSubmit_FailsConsistentlyAfterProcessExit(t *testing.T) {
	pr, pw := io.Pipe()
	b := New(Streams{Stdin: pw}, nil, nil)
	require.NoError(t, b.Start(context.Background()))

	require.NoError(t, pr.Close())

	_, err := b.Submit(context.Background(), []string{"say hi"})
	require.ErrorIs(t, err, errors.ErrWriteFailure)
	assert.Equal(t, "Failed to send command", errors.Reason(err))

	for range 3 {
		_, err = b.Submit(context.Background(), []string{"say hi"})
		require.ErrorIs(t, err, errors.ErrProcessUnavailable)
	}
	assert.False(t, b.Available())
}

func TestSubmit_AfterMarkExited(t *testing.T) {
	var buf bytes.Buffer
	b := New(Streams{Stdin: nopWriteCloser{&buf}}, nil, nil)
	require.NoError(t, b.Start(context.Background()))

	b.MarkExited(io.EOF)

	_, err := b.Submit(context.Background(), []string{"say hi"})
	require.ErrorIs(t, err, errors.ErrProcessUnavailable)
	assert.Zero(t, buf.Len())
}

func TestSubmit_AfterClose(t *testing.T) {
	_, pw := io.Pipe()
	b := New(Streams{Stdin: pw}, nil, nil)
	require.NoError(t, b.Start(context.Background()))

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err := b.Submit(context.Background(), []string{"stop"})
	require.ErrorIs(t, err, errors.ErrProcessUnavailable)
}

func TestSubmit_CancelledContext(t *testing.T) {
	var buf bytes.Buffer
	b := New(Streams{Stdin: nopWriteCloser{&buf}}, nil, nil)
	require.NoError(t, b.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Submit(ctx, []string{"say hi"})
	require.ErrorIs(t, err, errors.ErrWriteFailure)
	assert.Zero(t, buf.Len())
	assert.True(t, b.Available())
}

func TestRelay_PrefixesBothStreams(t *testing.T) {
	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	pub := newRecordingPublisher()

	b := New(Streams{Stdout: outR, Stderr: errR}, pub, nil)
	require.NoError(t, b.Start(context.Background()))

	_, _ = io.WriteString(outW, "  Done (4.1s)!  \n\n")
	assert.Equal(t, "[OUT] Done (4.1s)!", pub.next(t))

	_, _ = io.WriteString(errW, "WARN Can't keep up!\n")
	assert.Equal(t, "[ERR] WARN Can't keep up!", pub.next(t))

	require.NoError(t, outW.Close())
	require.NoError(t, errW.Close())
	require.NoError(t, b.Wait())
}

func TestRelay_StdoutEOFLeavesStderrRunning(t *testing.T) {
	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	pub := newRecordingPublisher()

	b := New(Streams{Stdout: outR, Stderr: errR}, pub, nil)
	require.NoError(t, b.Start(context.Background()))

	_, _ = io.WriteString(outW, "last words\n")
	assert.Equal(t, "[OUT] last words", pub.next(t))
	require.NoError(t, outW.Close())

	select {
	case <-b.Done():
		t.Fatal("relays finished while stderr is still open")
	case <-time.After(50 * time.Millisecond):
	}

	_, _ = io.WriteString(errW, "still here\n")
	assert.Equal(t, "[ERR] still here", pub.next(t))

	require.NoError(t, errW.Close())
	select {
	case <-b.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("relays did not finish")
	}
	assert.NoError(t, b.Wait())
}

func TestRelay_OverlongLineKeepsDraining(t *testing.T) {
	outR, outW := io.Pipe()
	pub := newRecordingPublisher()

	b := New(Streams{Stdout: outR}, pub, nil)
	require.NoError(t, b.Start(context.Background()))

	written := make(chan error, 1)
	go func() {
		_, err := io.WriteString(outW, strings.Repeat("x", 2*linereader.MaxLineSize+5)+"\nafter long line\n")
		written <- err
	}()

	chunk := "[OUT] " + strings.Repeat("x", linereader.MaxLineSize)
	assert.Equal(t, chunk, pub.next(t))
	assert.Equal(t, chunk, pub.next(t))
	assert.Equal(t, "[OUT] xxxxx", pub.next(t))
	assert.Equal(t, "[OUT] after long line", pub.next(t))

	select {
	case err := <-written:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("writer blocked: stdout is no longer drained")
	}

	require.NoError(t, outW.Close())
	require.NoError(t, b.Wait())
}

func TestRelay_ReadErrorIsReported(t *testing.T) {
	outR, outW := io.Pipe()
	pub := newRecordingPublisher()

	b := New(Streams{Stdout: outR}, pub, nil)
	require.NoError(t, b.Start(context.Background()))

	boom := fmt.Errorf("device gone")
	require.NoError(t, outW.CloseWithError(boom))

	err := b.Wait()
	require.ErrorIs(t, err, boom)
}

func TestStart_Twice(t *testing.T) {
	b := New(Streams{}, nil, nil)
	require.NoError(t, b.Start(context.Background()))
	assert.Error(t, b.Start(context.Background()))
}
