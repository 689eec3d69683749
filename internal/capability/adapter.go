package capability

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Validator is implemented by request types that check their own fields.
type Validator interface {
	Validate() error
}

// Executor runs a capability with a typed request.
type Executor[Req any] func(ctx context.Context, req Req) (Result, error)

// Adapter turns an Executor into a Capability. It decodes the loose params map
// the model supplied into Req and validates it before running.
type Adapter[Req any] struct {
	decl     Declaration
	executor Executor[Req]
}

// NewAdapter creates an adapter for executor.
func NewAdapter[Req any](name Name, description string, params *Schema, executor Executor[Req]) *Adapter[Req] {
	if executor == nil {
		panic("executor is required")
	}
	return &Adapter[Req]{
		decl: Declaration{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
		executor: executor,
	}
}

// Declaration implements Capability.
func (a *Adapter[Req]) Declaration() Declaration {
	return a.decl
}

// Invoke implements Capability.
func (a *Adapter[Req]) Invoke(ctx context.Context, params map[string]any) (Result, error) {
	var req Req

	// Models often quote numbers and booleans; accept both forms.
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &req,
		TagName:          "json",
		Squash:           true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Result{}, fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(params); err != nil {
		return Fail("invalid params for %s: %v", a.decl.Name, err), nil
	}

	if v, ok := any(&req).(Validator); ok {
		if err := v.Validate(); err != nil {
			return Fail("%s: %v", a.decl.Name, err), nil
		}
	}

	return a.executor(ctx, req)
}
