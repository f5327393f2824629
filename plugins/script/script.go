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

// Package script makes plugins whose effects are written in
// ECMAScript, executed with Goja (a Go implementation of ECMAScript
// 5.1+).
//
// See https://github.com/dop251/goja.
package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Comcast/deeds/core"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by a handler if its execution is
	// interrupted (because the context was canceled).
	Interrupted = errors.New(InterruptedMessage)
)

// NewPlugin compiles the given effect sources into a core.Plugin.
//
// Each source is a chunk of ECMAScript that should 'return' the
// effect's result.  The following are available from the runtime
// at _:
//
//	args: the resolved operation arguments.
//	input: the run's input record.
//	results: the named results bound so far in the run.
//	now: the run's current instant (RFC3339Nano).
//	resolve(x): resolve a deed tree against the run.
//	gensym(): generate a random string.
//	cronNext(expr): the next activation of a cron expression.
//	log(x): log x as JSON.
func NewPlugin(namespace string, sources map[string]string) (*core.Plugin, error) {
	effects := make(map[string]core.Handler, len(sources))
	for name, src := range sources {
		p, err := goja.Compile(name, wrapSrc(src), true)
		if err != nil {
			return nil, errors.New(err.Error() + ": " + src)
		}
		effects[name] = makeHandler(p)
	}
	return &core.Plugin{
		Namespace: namespace,
		Effects:   effects,
	}, nil
}

func wrapSrc(src string) string {
	return fmt.Sprintf("(function() {\n%s\n}());\n", src)
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

func makeHandler(p *goja.Program) core.Handler {
	return func(ctx context.Context, args map[string]interface{}, c *core.Ctx) (interface{}, error) {
		o := goja.New()

		nowd, err := c.Resolve(map[string]interface{}{core.KeyNow: true})
		if err != nil {
			return nil, err
		}

		env := map[string]interface{}{
			"args":    args,
			"input":   c.Input,
			"results": c.Results,
			"now":     nowd,
		}

		env["resolve"] = func(x interface{}) interface{} {
			switch vv := x.(type) {
			case goja.Value:
				x = vv.Export()
			}
			x, err := core.Canonicalize(x)
			if err != nil {
				protest(o, err.Error())
			}
			y, err := c.Resolve(x)
			if err != nil {
				protest(o, err.Error())
			}
			return y
		}

		env["gensym"] = func() interface{} {
			return core.Gensym(32)
		}

		env["cronNext"] = func(x interface{}) interface{} {
			switch vv := x.(type) {
			case goja.Value:
				x = vv.Export()
			}
			cronExpr, is := x.(string)
			if !is {
				protest(o, "not a string")
			}
			cr, err := cronexpr.Parse(cronExpr)
			if err != nil {
				protest(o, err.Error())
			}
			return cr.Next(time.Now()).UTC().Format(time.RFC3339Nano)
		}

		env["log"] = func(x interface{}) interface{} {
			switch vv := x.(type) {
			case goja.Value:
				x = vv.Export()
			}
			js, err := json.Marshal(&x)
			if err != nil {
				logPrintln("script.log (can't marshal: " + err.Error() + ")")
			} else {
				logPrintln(string(js))
			}
			return x
		}

		o.Set("_", env)

		// We want to make sure that the following goroutine is
		// terminated as soon as possible.
		ictx, cancel := context.WithCancel(ctx)
		go func() {
			<-ictx.Done()
			// If the handler calls cancel() after RunProgram
			// returns, we'll never see this interruption,
			// which is the behavior we want.
			o.Interrupt(InterruptedMessage)
		}()

		v, err := o.RunProgram(p)
		cancel()

		if err != nil {
			if _, is := err.(*goja.InterruptedError); is {
				return nil, Interrupted
			}
			return nil, err
		}

		x := v.Export()
		if x == nil {
			return nil, nil
		}

		// Canonicalize so a script result looks like any other
		// tree in the run.
		return core.Canonicalize(x)
	}
}
