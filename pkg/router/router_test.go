package router

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HMasataka/conduit/internal/command"
	"github.com/HMasataka/conduit/internal/eventbus"
	"github.com/HMasataka/conduit/pkg/errors"
)

type stubClient struct{}

func (stubClient) ID() string                         { return "client-1" }
func (stubClient) Send(context.Context, []byte) error { return nil }
func (stubClient) Close() error                       { return nil }
func (stubClient) Context() context.Context           { return context.Background() }

type stubSubmitter struct {
	mu      sync.Mutex
	batches [][]string
	// failAfter, when >= 0, writes that many instructions then fails.
	failAfter int
	err       error
}

func (s *stubSubmitter) Submit(_ context.Context, batch []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches = append(s.batches, batch)
	if s.err != nil {
		n := min(s.failAfter, len(batch))
		return batch[:n], s.err
	}
	return batch, nil
}

func newTestRouter(t *testing.T, sub Submitter, bus eventbus.Bus) *Router {
	t.Helper()
	reg, err := command.NewBuiltinRegistry(command.DefaultOptions())
	require.NoError(t, err)

	return New(Options{
		Interpreter: command.NewInterpreter(reg),
		Submitter:   sub,
		EventBus:    bus,
	})
}

func TestHandleLine_MissingSentinel(t *testing.T) {
	sub := &stubSubmitter{}
	r := newTestRouter(t, sub, nil)

	replies := r.HandleLine(context.Background(), stubClient{}, "hello")

	assert.Equal(t, []string{"Error: Commands must start with #"}, replies)
	assert.Empty(t, sub.batches)
}

func TestHandleLine_AcksEachInstruction(t *testing.T) {
	sub := &stubSubmitter{}
	r := newTestRouter(t, sub, nil)

	replies := r.HandleLine(context.Background(), stubClient{}, "#kill")

	assert.Equal(t, []string{"Command sent: kill @e[type=!player]"}, replies)
	require.Len(t, sub.batches, 1)
}

func TestHandleLine_CreeperDefault(t *testing.T) {
	sub := &stubSubmitter{}
	r := newTestRouter(t, sub, nil)

	replies := r.HandleLine(context.Background(), stubClient{}, "#creeper")

	require.Len(t, replies, 4)
	assert.Equal(t, "Command sent: execute at RhamzThev run summon creeper ~5 ~0 ~0 {powered:1}", replies[0])
}

func TestHandleLine_RejectedInputNeverSubmits(t *testing.T) {
	tests := map[string]string{
		"#creeper abc": "Error: Invalid argument: abc",
		"#creeper 150": "Error: Maximum 100 creepers allowed",
		"#dance":       "Error: Unknown command 'dance'",
		"#":            "Error: Invalid command format: missing command name",
	}

	for line, want := range tests {
		t.Run(line, func(t *testing.T) {
			sub := &stubSubmitter{}
			r := newTestRouter(t, sub, nil)

			assert.Equal(t, []string{want}, r.HandleLine(context.Background(), stubClient{}, line))
			assert.Empty(t, sub.batches)
		})
	}
}

func TestHandleLine_ProcessUnavailable(t *testing.T) {
	sub := &stubSubmitter{err: errors.From(errors.ErrProcessUnavailable, "")}
	r := newTestRouter(t, sub, nil)

	replies := r.HandleLine(context.Background(), stubClient{}, "#kill")
	assert.Equal(t, []string{"Error: Server process not running"}, replies)
}

func TestHandleLine_PartialWriteFailure(t *testing.T) {
	sub := &stubSubmitter{failAfter: 1, err: errors.From(errors.ErrWriteFailure, "")}
	r := newTestRouter(t, sub, nil)

	replies := r.HandleLine(context.Background(), stubClient{}, "#chaos")
	assert.Equal(t, []string{
		"Command sent: execute at RhamzThev run summon wither ~10 ~ ~",
		"Error: Failed to send command",
	}, replies)
}

func TestHandleLine_PublishesEvents(t *testing.T) {
	bus := eventbus.NewInMemoryBus(8)
	bus.Start(context.Background())
	defer bus.Stop()

	got := make(chan *eventbus.Event, 2)
	bus.SubscribeAll(func(e *eventbus.Event) { got <- e })

	r := newTestRouter(t, &stubSubmitter{}, bus)
	r.HandleLine(context.Background(), stubClient{}, "#kill")

	submitted := waitEvent(t, got)
	assert.Equal(t, eventbus.EventCommandSubmitted, submitted.Type)
	assert.Equal(t, "client-1", submitted.Data["client_id"])
	assert.Equal(t, "kill", submitted.Data["command"])

	r.HandleLine(context.Background(), stubClient{}, "#dance")

	rejected := waitEvent(t, got)
	assert.Equal(t, eventbus.EventCommandRejected, rejected.Type)
	assert.Equal(t, "Unknown command 'dance'", rejected.Data["error"])
}

func waitEvent(t *testing.T, ch <-chan *eventbus.Event) *eventbus.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}
