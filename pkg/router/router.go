// Package router turns inbound client lines into process input and
// client-private replies.
package router

import (
	"context"

	"github.com/HMasataka/conduit/internal/command"
	"github.com/HMasataka/conduit/internal/eventbus"
	"github.com/HMasataka/conduit/internal/logging"
	"github.com/HMasataka/conduit/pkg/domain"
	"github.com/HMasataka/conduit/pkg/errors"
	"github.com/HMasataka/conduit/pkg/transport/protocol"
)

// Submitter writes a batch to the process and reports what was written.
type Submitter interface {
	Submit(ctx context.Context, batch []string) ([]string, error)
}

type Options struct {
	Interpreter *command.Interpreter
	Submitter   Submitter
	Logger      *logging.Logger
	EventBus    eventbus.Bus
}

type Router struct {
	interpreter *command.Interpreter
	submitter   Submitter
	logger      *logging.Logger
	errors      errors.Handler
	eventBus    eventbus.Bus
}

var _ domain.LineHandler = (*Router)(nil)

func New(opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.Named("router")

	return &Router{
		interpreter: opts.Interpreter,
		submitter:   opts.Submitter,
		logger:      logger,
		errors:      errors.NewLogHandler(logger.Logger),
		eventBus:    opts.EventBus,
	}
}

// HandleLine interprets line and submits the resulting batch. The returned
// replies are meant for the sending client only.
func (r *Router) HandleLine(ctx context.Context, client domain.Client, line string) []string {
	if !command.HasSentinel(line) {
		return []string{protocol.MissingSentinel}
	}

	req, batch, err := r.interpreter.Interpret(line)
	if err != nil {
		r.errors.Handle(ctx, err, r.logger.With("client_id", client.ID()))
		r.publish(eventbus.EventCommandRejected, client, map[string]string{
			"line":  line,
			"error": errors.Reason(err),
		})
		return []string{protocol.Error(errors.Reason(err))}
	}

	r.logger.Info("received command",
		"client_id", client.ID(),
		"command", req.String(),
		"instructions", len(batch),
	)

	written, err := r.submitter.Submit(ctx, batch)

	replies := make([]string, 0, len(written)+1)
	for _, instruction := range written {
		replies = append(replies, protocol.Ack(instruction))
	}

	if err != nil {
		r.errors.Handle(ctx, err, r.logger.With("client_id", client.ID()))
		replies = append(replies, protocol.Error(errors.Reason(err)))
		r.publish(eventbus.EventCommandRejected, client, map[string]string{
			"command": req.Name,
			"error":   errors.Reason(err),
		})
		return replies
	}

	r.publish(eventbus.EventCommandSubmitted, client, map[string]string{
		"command": req.Name,
	})
	return replies
}

func (r *Router) publish(eventType eventbus.EventType, client domain.Client, data map[string]string) {
	if r.eventBus == nil {
		return
	}
	data["client_id"] = client.ID()
	r.eventBus.PublishAsync(eventbus.NewEvent(eventType, "router", data))
}
