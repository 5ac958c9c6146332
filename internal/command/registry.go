package command

import (
	"fmt"
	"slices"
	"strings"

	"github.com/HMasataka/conduit/pkg/errors"
)

// Args are the resolved inputs handed to an expansion.
type Args struct {
	// Count is the requested or default count; zero for uncounted commands.
	Count int
	// Label is empty when no --name was given.
	Label string
}

// ExpandFunc produces the instructions for one request.
type ExpandFunc func(args Args) Batch

// Descriptor describes one known request type.
type Descriptor struct {
	Name string
	// Unit names what Count counts, for limit messages.
	Unit string
	// DefaultCount and MaxCount are zero for commands that take no count.
	DefaultCount int
	MaxCount     int
	Expand       ExpandFunc
}

// Counted reports whether the descriptor takes a count.
func (d Descriptor) Counted() bool {
	return d.MaxCount > 0
}

// Registry maps request names to descriptors. It is filled once at
// startup and read-only afterwards.
type Registry struct {
	descriptors map[string]Descriptor
}

// NewRegistry creates a registry holding descs.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{descriptors: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a descriptor.
func (r *Registry) Register(d Descriptor) error {
	name := strings.ToLower(d.Name)
	switch {
	case name == "":
		return fmt.Errorf("descriptor name is required")
	case d.Expand == nil:
		return fmt.Errorf("descriptor %q has no expansion", name)
	case d.MaxCount < 0 || d.DefaultCount < 0 || d.DefaultCount > d.MaxCount:
		return fmt.Errorf("descriptor %q has invalid counts (default %d, max %d)", name, d.DefaultCount, d.MaxCount)
	case d.Counted() && d.DefaultCount < 1:
		return fmt.Errorf("descriptor %q needs a default count", name)
	}

	if _, exists := r.descriptors[name]; exists {
		return fmt.Errorf("descriptor %q already registered", name)
	}

	d.Name = name
	r.descriptors[name] = d
	return nil
}

// Lookup returns the descriptor for name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.descriptors[strings.ToLower(name)]
	return d, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Expand resolves req against its descriptor and returns the batch.
func (r *Registry) Expand(req Request) (Batch, error) {
	d, ok := r.Lookup(req.Name)
	if !ok {
		return nil, errors.New(errors.ErrorTypeExpansion, errors.CodeUnknownCommand,
			fmt.Sprintf("Unknown command '%s'", req.Name))
	}

	var args Args

	if d.Counted() {
		args.Count = d.DefaultCount
		if req.Count != nil {
			args.Count = *req.Count
		}
		if args.Count < 1 {
			return nil, errors.From(errors.ErrInvalidArgument, "count must be positive")
		}
		if args.Count > d.MaxCount {
			return nil, errors.New(errors.ErrorTypeExpansion, errors.CodeLimitExceeded,
				fmt.Sprintf("Maximum %d %s allowed", d.MaxCount, d.unit()))
		}
	}

	if req.Label != nil {
		if strings.ContainsAny(*req.Label, `'"\{}`) {
			return nil, errors.From(errors.ErrInvalidArgument, "label contains reserved characters")
		}
		args.Label = *req.Label
	}

	batch := d.Expand(args)
	if d.Counted() && len(batch) > d.MaxCount {
		return nil, errors.New(errors.ErrorTypeInternal, "BATCH_TOO_LARGE",
			fmt.Sprintf("expansion of %q produced %d instructions", d.Name, len(batch)))
	}
	return batch, nil
}

func (d Descriptor) unit() string {
	if d.Unit != "" {
		return d.Unit
	}
	return d.Name
}
