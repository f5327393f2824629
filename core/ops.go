/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

// Wire keys for steps and pipelines.
const (
	KeyEffect     = "effect"
	KeyArgs       = "args"
	KeyResultName = "resultName"
	KeyGuard      = "guard"
	KeyCondition  = "condition"
	KeySteps      = "steps"
	KeyReturn     = "return"
)

// Step is a decoded unit of work: an Operation or a Conditional.
type Step interface {
	step()
}

// Operation names an effect to dispatch.
type Operation struct {
	// Effect is "<namespace>.<name>", or a bare name in the
	// default namespace.
	Effect string

	// Args is the argument tree (nil when absent).  It is resolved
	// just before dispatch.
	Args Term

	// ResultName, when non-empty, is the name the result is bound
	// under for later steps.
	ResultName string

	// Guard, when non-nil, is resolved before anything else; if
	// the value isn't truthy the operation is skipped, which is
	// not an error.
	Guard Term
}

// Conditional chooses between step sequences.
type Conditional struct {
	Cond       Term
	Then       []Step
	Else       []Step
	HasElse    bool
	ResultName string
}

// Pipeline is an ordered sequence of steps with an optional return
// tree resolved against the final results table.
type Pipeline struct {
	Steps  []Step
	Return Term
}

func (s *Operation) step()   {}
func (s *Conditional) step() {}

// DecodeStep decodes an Operation or a Conditional.
//
// A map with an "effect" key is an Operation; a map with a "condition"
// key is a Conditional.  Anything else is a BadShape.
func DecodeStep(x interface{}) (Step, error) {
	m, is := x.(map[string]interface{})
	if !is {
		return nil, &BadShape{What: "step", Value: x}
	}
	if _, have := m[KeyEffect]; have {
		return decodeOperation(m)
	}
	if _, have := m[KeyCondition]; have {
		return decodeConditional(m)
	}
	return nil, &BadShape{What: "step", Value: x}
}

// DecodePipeline decodes a Pipeline.
//
// A bare Operation or Conditional is accepted as a degenerate one-step
// pipeline.
func DecodePipeline(x interface{}) (*Pipeline, error) {
	if m, is := x.(map[string]interface{}); is {
		if _, have := m[KeySteps]; have {
			return decodePipeline(m)
		}
	}
	s, err := DecodeStep(x)
	if err != nil {
		return nil, err
	}
	return &Pipeline{Steps: []Step{s}}, nil
}

func decodeOperation(m map[string]interface{}) (*Operation, error) {
	effect, is := m[KeyEffect].(string)
	if !is || effect == "" {
		return nil, &BadShape{What: "operation effect", Value: m[KeyEffect]}
	}
	op := &Operation{
		Effect: effect,
	}
	if raw, have := m[KeyArgs]; have {
		t, err := DecodeTerm(raw)
		if err != nil {
			return nil, err
		}
		op.Args = t
	}
	if raw, have := m[KeyGuard]; have {
		t, err := DecodeTerm(raw)
		if err != nil {
			return nil, err
		}
		op.Guard = t
	}
	if raw, have := m[KeyResultName]; have {
		name, is := raw.(string)
		if !is {
			return nil, &BadShape{What: "resultName", Value: raw}
		}
		op.ResultName = name
	}
	return op, nil
}

func decodeConditional(m map[string]interface{}) (*Conditional, error) {
	cond, err := DecodeTerm(m[KeyCondition])
	if err != nil {
		return nil, err
	}
	c := &Conditional{
		Cond: cond,
	}
	if raw, have := m[KeyThen]; have {
		if c.Then, err = decodeBranch(raw); err != nil {
			return nil, err
		}
	}
	if raw, have := m[KeyElse]; have {
		if c.Else, err = decodeBranch(raw); err != nil {
			return nil, err
		}
		c.HasElse = true
	}
	if raw, have := m[KeyResultName]; have {
		name, is := raw.(string)
		if !is {
			return nil, &BadShape{What: "resultName", Value: raw}
		}
		c.ResultName = name
	}
	return c, nil
}

// decodeBranch normalizes a branch to a sequence: a lone step is
// treated as a one-element sequence.
func decodeBranch(x interface{}) ([]Step, error) {
	if xs, is := x.([]interface{}); is {
		acc := make([]Step, len(xs))
		for i, raw := range xs {
			s, err := DecodeStep(raw)
			if err != nil {
				return nil, err
			}
			acc[i] = s
		}
		return acc, nil
	}
	s, err := DecodeStep(x)
	if err != nil {
		return nil, err
	}
	return []Step{s}, nil
}

func decodePipeline(m map[string]interface{}) (*Pipeline, error) {
	rawSteps, is := m[KeySteps].([]interface{})
	if !is {
		return nil, &BadShape{What: "pipeline steps", Value: m[KeySteps]}
	}
	p := &Pipeline{
		Steps: make([]Step, len(rawSteps)),
	}
	for i, raw := range rawSteps {
		s, err := DecodeStep(raw)
		if err != nil {
			return nil, err
		}
		p.Steps[i] = s
	}
	if raw, have := m[KeyReturn]; have {
		t, err := DecodeTerm(raw)
		if err != nil {
			return nil, err
		}
		p.Return = t
	}
	return p, nil
}
