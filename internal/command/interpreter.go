package command

// Interpreter parses and expands lines against a registry.
type Interpreter struct {
	registry *Registry
}

// NewInterpreter creates an interpreter backed by registry.
func NewInterpreter(registry *Registry) *Interpreter {
	return &Interpreter{registry: registry}
}

// Interpret parses line and expands it. Nothing is produced on error.
func (i *Interpreter) Interpret(line string) (Request, Batch, error) {
	req, err := Parse(line)
	if err != nil {
		return Request{}, nil, err
	}

	batch, err := i.registry.Expand(req)
	if err != nil {
		return req, nil, err
	}

	return req, batch, nil
}

