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

// Package build constructs deed trees.
//
// These functions emit exactly the wire shapes that core decodes, so a
// built tree can be serialized, stored, or handed straight to an
// Executor.  They're plain explicit functions on purpose; there is no
// property-interception magic here.
package build

import (
	"strings"

	"github.com/Comcast/deeds/core"
)

// Input references a dot path in the run's input record.
func Input(path string) map[string]interface{} {
	return map[string]interface{}{core.KeyInput: path}
}

// Result references a named step result, optionally drilling into
// fields: Result("a", "id") is {"$result": "a.id"}.
func Result(name string, fields ...string) map[string]interface{} {
	path := name
	if 0 < len(fields) {
		path += "." + strings.Join(fields, ".")
	}
	return map[string]interface{}{core.KeyResult: path}
}

// Now references the run's current instant.
func Now() map[string]interface{} {
	return map[string]interface{}{core.KeyNow: true}
}

// TempId references a fresh identifier.
func TempId() map[string]interface{} {
	return map[string]interface{}{core.KeyTempId: true}
}

func Inc(n interface{}) map[string]interface{} {
	return map[string]interface{}{core.KeyInc: n}
}

func Dec(n interface{}) map[string]interface{} {
	return map[string]interface{}{core.KeyDec: n}
}

func Push(v interface{}) map[string]interface{} {
	return map[string]interface{}{core.KeyPush: v}
}

func Pull(v interface{}) map[string]interface{} {
	return map[string]interface{}{core.KeyPull: v}
}

func AddToSet(v interface{}) map[string]interface{} {
	return map[string]interface{}{core.KeyAddToSet: v}
}

func Default(v interface{}) map[string]interface{} {
	return map[string]interface{}{core.KeyDefault: v}
}

// If builds a value-level conditional.  Pass nil for els to omit the
// else branch.
func If(cond, then, els interface{}) map[string]interface{} {
	m := map[string]interface{}{
		core.KeyIf:   cond,
		core.KeyThen: then,
	}
	if els != nil {
		m[core.KeyElse] = els
	}
	return m
}

// Option decorates a step (or a pipeline).
type Option func(map[string]interface{})

// Bind names the step's result for later reference.
func Bind(name string) Option {
	return func(m map[string]interface{}) {
		m[core.KeyResultName] = name
	}
}

// Guard attaches a skip-if-falsy condition to an operation.
func Guard(cond interface{}) Option {
	return func(m map[string]interface{}) {
		m[core.KeyGuard] = cond
	}
}

// Return sets a pipeline's return tree.
func Return(x interface{}) Option {
	return func(m map[string]interface{}) {
		m[core.KeyReturn] = x
	}
}

// Op builds an operation step.  Pass nil args for an effect that
// doesn't want any.
func Op(effect string, args map[string]interface{}, opts ...Option) map[string]interface{} {
	m := map[string]interface{}{
		core.KeyEffect: effect,
	}
	if args != nil {
		m[core.KeyArgs] = args
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// When builds a conditional step.  The then and els branches may each
// be a single step or a slice of steps; pass nil els to omit it.
func When(cond, then, els interface{}, opts ...Option) map[string]interface{} {
	m := map[string]interface{}{
		core.KeyCondition: cond,
		core.KeyThen:      then,
	}
	if els != nil {
		m[core.KeyElse] = els
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Pipe builds a pipeline from steps.  Use the Return option to set the
// return tree:
//
//	Pipe([]interface{}{step1, step2}, Return(Result("a")))
func Pipe(steps []interface{}, opts ...Option) map[string]interface{} {
	m := map[string]interface{}{
		core.KeySteps: steps,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
