package core

import (
	"context"
	"time"
)

// Options tune one Execute call.
type Options struct {
	// Now pins $now for the run (zero means wall clock).
	Now time.Time

	// TempId, if non-nil, supplies $tempId identifiers instead of
	// the run's own counter.
	TempId func() string
}

// Outcome is the record of one executed pipeline step: an *OpOutcome
// or a *CondOutcome.
type Outcome interface {
	outcome()
}

// OpOutcome reports one dispatched (or skipped) operation.
type OpOutcome struct {
	Name    string                 `json:"name,omitempty" yaml:",omitempty"`
	Effect  string                 `json:"effect" yaml:"effect"`
	Args    map[string]interface{} `json:"args" yaml:"args"`
	Result  interface{}            `json:"result,omitempty" yaml:",omitempty"`
	Skipped bool                   `json:"skipped,omitempty" yaml:",omitempty"`
}

// CondOutcome reports one evaluated conditional.
//
// Operations is the flattened list of operations actually executed in
// the chosen branch (including those inside nested conditionals).
// Branch is "then", "else", or "" when no branch ran.  Result is the
// result of the last non-skipped step of the branch.
type CondOutcome struct {
	Name       string       `json:"name,omitempty" yaml:",omitempty"`
	Branch     string       `json:"branch,omitempty" yaml:",omitempty"`
	Operations []*OpOutcome `json:"operations" yaml:"operations"`
	Result     interface{}  `json:"result,omitempty" yaml:",omitempty"`
}

func (o *OpOutcome) outcome()   {}
func (o *CondOutcome) outcome() {}

// Executed is what a pipeline run returns.
type Executed struct {
	Steps  []Outcome   `json:"steps" yaml:"steps"`
	Result interface{} `json:"result,omitempty" yaml:",omitempty"`
}

// Executor drives pipelines against a Registry.
type Executor struct {
	Registry *Registry
}

func NewExecutor(r *Registry) *Executor {
	return &Executor{
		Registry: r,
	}
}

// Execute decodes and runs the given tree, which may be a full
// pipeline, a bare operation, or a bare conditional.
func (e *Executor) Execute(ctx context.Context, tree interface{}, input map[string]interface{}, opts *Options) (*Executed, error) {
	p, err := DecodePipeline(tree)
	if err != nil {
		return nil, err
	}
	return e.ExecutePipeline(ctx, p, input, opts)
}

// ExecutePipeline runs an already-decoded pipeline.
//
// Steps run strictly in order.  A step's result, when named, becomes
// visible to every later step (and, inside a conditional branch, to
// later siblings in that branch).  On error the run stops; earlier
// side effects are not rolled back, and the outcomes recorded so far
// travel with the returned *StepError as a debugging trail.
func (e *Executor) ExecutePipeline(ctx context.Context, p *Pipeline, input map[string]interface{}, opts *Options) (*Executed, error) {
	c := &Ctx{
		Input:   input,
		Results: make(map[string]interface{}, len(p.Steps)),
	}
	if opts != nil {
		c.Now = opts.Now
		c.TempId = opts.TempId
	}

	acc := &Executed{
		Steps: make([]Outcome, 0, len(p.Steps)),
	}

	for i, s := range p.Steps {
		switch step := s.(type) {
		case *Operation:
			o, err := e.evalOperation(ctx, step, c)
			if err != nil {
				return nil, &StepError{StepIndex: i, Trail: acc, Err: err}
			}
			acc.Steps = append(acc.Steps, o)
			if step.ResultName != "" && !o.Skipped {
				c.Results[step.ResultName] = o.Result
			}
		case *Conditional:
			o, err := e.evalConditional(ctx, step, c)
			if err != nil {
				return nil, &StepError{StepIndex: i, Trail: acc, Err: err}
			}
			acc.Steps = append(acc.Steps, o)
			if step.ResultName != "" {
				c.Results[step.ResultName] = o.Result
			}
		default:
			return nil, &StepError{StepIndex: i, Trail: acc,
				Err: &BadShape{What: "step", Value: s}}
		}
	}

	if p.Return != nil {
		v, err := c.resolve(p.Return)
		if err != nil {
			return nil, &StepError{StepIndex: len(p.Steps), Trail: acc, Err: err}
		}
		acc.Result = v
	} else {
		acc.Result = c.Results
	}

	return acc, nil
}

// evalOperation checks the guard, resolves the args, and dispatches.
//
// A falsy guard means the handler is never looked up, let alone
// invoked.
func (e *Executor) evalOperation(ctx context.Context, op *Operation, c *Ctx) (*OpOutcome, error) {
	if op.Guard != nil {
		v, err := c.resolve(op.Guard)
		if err != nil {
			return nil, err
		}
		if !Truthy(v) {
			return &OpOutcome{
				Name:    op.ResultName,
				Effect:  op.Effect,
				Args:    map[string]interface{}{},
				Skipped: true,
			}, nil
		}
	}

	args := map[string]interface{}{}
	if op.Args != nil {
		v, err := c.resolve(op.Args)
		if err != nil {
			return nil, err
		}
		switch vv := v.(type) {
		case nil:
		case map[string]interface{}:
			args = vv
		default:
			return nil, &BadShape{What: "resolved args", Value: v}
		}
	}

	namespace, name := SplitEffect(op.Effect)

	plugin := e.Registry.Lookup(namespace)
	if plugin == nil {
		return nil, &UnknownNamespace{Namespace: namespace}
	}
	handler, have := plugin.Effects[name]
	if !have {
		return nil, &UnknownEffect{Namespace: namespace, Name: name}
	}

	result, err := handler(ctx, args, c)
	if err != nil {
		// Not ours to catch or wrap.
		return nil, err
	}

	return &OpOutcome{
		Name:   op.ResultName,
		Effect: op.Effect,
		Args:   args,
		Result: result,
	}, nil
}

// evalConditional picks a branch by truthiness and runs it.
//
// Results of named steps inside the branch are bound immediately, so
// later siblings in the same branch can reference them (think
// create-then-reference-the-created-id inside one 'then').  The
// conditional's own result is the result of the last non-skipped step
// of the branch.
func (e *Executor) evalConditional(ctx context.Context, cond *Conditional, c *Ctx) (*CondOutcome, error) {
	v, err := c.resolve(cond.Cond)
	if err != nil {
		return nil, err
	}

	var (
		branch string
		steps  []Step
	)
	if Truthy(v) {
		branch = "then"
		steps = cond.Then
	} else {
		if !cond.HasElse {
			return &CondOutcome{
				Name:       cond.ResultName,
				Operations: []*OpOutcome{},
			}, nil
		}
		branch = "else"
		steps = cond.Else
	}

	out := &CondOutcome{
		Name:       cond.ResultName,
		Branch:     branch,
		Operations: make([]*OpOutcome, 0, len(steps)),
	}

	for _, s := range steps {
		switch step := s.(type) {
		case *Operation:
			o, err := e.evalOperation(ctx, step, c)
			if err != nil {
				return nil, err
			}
			out.Operations = append(out.Operations, o)
			if !o.Skipped {
				out.Result = o.Result
				if step.ResultName != "" {
					c.Results[step.ResultName] = o.Result
				}
			}
		case *Conditional:
			nested, err := e.evalConditional(ctx, step, c)
			if err != nil {
				return nil, err
			}
			out.Operations = append(out.Operations, nested.Operations...)
			if step.ResultName != "" {
				c.Results[step.ResultName] = nested.Result
			}
			if nested.Branch != "" {
				out.Result = nested.Result
			}
		default:
			return nil, &BadShape{What: "step", Value: s}
		}
	}

	return out, nil
}
