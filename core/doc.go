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

// Package core evaluates deed trees.
//
// A deed tree is plain data: string-keyed maps, slices, and scalars.
// Single-key maps whose key starts with '$' are markers: either value
// references ($input, $result, $now, $tempId) that the resolver
// replaces with concrete values, or operators ($inc, $push, ...) that
// pass through resolution for a handler to apply later.  $if and
// $default are resolved in-engine.
//
// A tree is decoded once, at the boundary (DecodeTerm, DecodeStep,
// DecodePipeline), into explicit variants; the walkers switch on those
// variants and never sniff raw maps.
//
// An Executor runs a Pipeline: each step is an Operation (resolve
// args, dispatch "namespace.effect" to a plugin from the Registry) or
// a Conditional (pick then/else by the language's truthiness, recurse).
// Named step results accumulate in a table that later steps can
// reference via $result.
//
// Execution is single-threaded and strictly sequential, because a
// step's arguments may reference the results of the step before it.
// The only suspension point is the handler call itself, which gets a
// context.Context.  Errors abort the run; skipped steps (falsy guards)
// are not errors.
package core
