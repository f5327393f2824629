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

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Ctx is the ephemeral context for one run.
//
// The pipeline executor owns a Ctx for the lifetime of one Execute
// call and hands it (by pointer) to resolution and to handlers.  Don't
// retain a Ctx after the run ends.
type Ctx struct {
	// Input is the caller-supplied input record for $input lookups.
	Input map[string]interface{}

	// Results is the named-results table for $result lookups.  It
	// grows monotonically as steps complete.  A nil table (as
	// opposed to an empty one) means we're outside any pipeline
	// run, and resolving a $result then is a NoResults error.
	Results map[string]interface{}

	// Now, if non-zero, pins the instant that $now resolves to.
	Now time.Time

	// TempId, if non-nil, generates identifiers for $tempId.  The
	// caller is then responsible for uniqueness.
	TempId func() string

	// n backs the fallback temp-id counter.  Owned by this run, so
	// concurrent runs can't see each other's identifiers.
	n int
}

// NewCtx makes a Ctx with no results table.
//
// Use this for standalone resolution.  Resolving a $result reference
// against such a Ctx is an error.
func NewCtx(input map[string]interface{}) *Ctx {
	return &Ctx{
		Input: input,
	}
}

// Resolve expands the given raw tree against this Ctx.
//
// This method is mostly for handlers that find references nested
// inside their own stored data, outside the main tree walk.
func (c *Ctx) Resolve(x interface{}) (interface{}, error) {
	t, err := DecodeTerm(x)
	if err != nil {
		return nil, err
	}
	return c.resolve(t)
}

// ResetTempIds restarts the fallback counter, so the next $tempId
// yields "temp_1" again.  For reproducible test runs.
func (c *Ctx) ResetTempIds() {
	c.n = 0
}

func (c *Ctx) tempId() string {
	if c.TempId != nil {
		return c.TempId()
	}
	c.n++
	return "temp_" + strconv.Itoa(c.n)
}

func (c *Ctx) now() string {
	if !c.Now.IsZero() {
		return c.Now.UTC().Format(time.RFC3339Nano)
	}
	return Timestamp()
}

// UUIDTempIds returns a $tempId generator backed by random UUIDs, for
// callers who want identifiers that are unique across runs (the
// per-run counter is not).
func UUIDTempIds() func() string {
	return func() string {
		return uuid.NewString()
	}
}
