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

package script

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Comcast/deeds/core"
	. "github.com/Comcast/deeds/util/testutil"

	"github.com/google/go-cmp/cmp"
)

func TestBadSource(t *testing.T) {
	if _, err := NewPlugin("js", map[string]string{"broken": `return (`}); err == nil {
		t.Fatal("expected a compile error")
	}
}

func TestEffects(t *testing.T) {
	p, err := NewPlugin("js", map[string]string{
		"double": `return {n: _.args.n * 2};`,
		"greet":  `return "hello, " + _.input.name;`,
		"relay":  `return _.resolve({"$result": "first.n"});`,
		"stamp":  `return {id: _.gensym(), at: _.now};`,
	})
	if err != nil {
		t.Fatal(err)
	}

	r := core.NewRegistry()
	r.Register(p)
	e := core.NewExecutor(r)

	pipeline := Dwimjs(`{"steps":[
	  {"effect":"js.double","args":{"n":21},"resultName":"first"},
	  {"effect":"js.greet","resultName":"greeting"},
	  {"effect":"js.relay","resultName":"relayed"}
	]}`)

	executed, err := e.Execute(context.Background(), pipeline,
		Dwimjs(`{"name":"homer"}`).(map[string]interface{}), nil)
	if err != nil {
		t.Fatal(err)
	}
	results := executed.Result.(map[string]interface{})
	if !cmp.Equal(results["first"], Dwimjs(`{"n":42}`)) {
		t.Fatal(JS(results["first"]))
	}
	if results["greeting"] != "hello, homer" {
		t.Fatal(JS(results["greeting"]))
	}
	if results["relayed"] != float64(42) {
		t.Fatal(JS(results["relayed"]))
	}
}

func TestStamp(t *testing.T) {
	p, err := NewPlugin("js", map[string]string{
		"stamp": `return {id: _.gensym(), at: _.now};`,
	})
	if err != nil {
		t.Fatal(err)
	}

	x, err := p.Effects["stamp"](context.Background(), nil, core.NewCtx(nil))
	if err != nil {
		t.Fatal(err)
	}
	m := x.(map[string]interface{})
	if id, _ := m["id"].(string); len(id) != 32 {
		t.Fatal(JS(m))
	}
	at, _ := m["at"].(string)
	if _, err := time.Parse(time.RFC3339Nano, at); err != nil {
		t.Fatal(err)
	}
}

func TestCronNext(t *testing.T) {
	p, err := NewPlugin("js", map[string]string{
		"next": `return _.cronNext("* * * * *");`,
	})
	if err != nil {
		t.Fatal(err)
	}

	x, err := p.Effects["next"](context.Background(), nil, core.NewCtx(nil))
	if err != nil {
		t.Fatal(err)
	}
	at, err := time.Parse(time.RFC3339Nano, x.(string))
	if err != nil {
		t.Fatal(err)
	}
	if !at.After(time.Now()) {
		t.Fatal(at)
	}
}

func TestInterrupt(t *testing.T) {
	p, err := NewPlugin("js", map[string]string{
		"spin": `for (;;) {}`,
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = p.Effects["spin"](ctx, nil, core.NewCtx(nil))
	if !errors.Is(err, Interrupted) {
		t.Fatalf("got %v", err)
	}
}

func TestLog(t *testing.T) {
	lines := make([]string, 0, 1)
	old := logPrintln
	logPrintln = func(s string) {
		lines = append(lines, s)
	}
	defer func() {
		logPrintln = old
	}()

	p, err := NewPlugin("js", map[string]string{
		"noisy": `_.log({saw: _.args.x}); return true;`,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err = p.Effects["noisy"](context.Background(),
		Dwimjs(`{"x":"queso"}`).(map[string]interface{}), core.NewCtx(nil)); err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], "queso") {
		t.Fatalf("%#v", lines)
	}
}

func TestScriptError(t *testing.T) {
	p, err := NewPlugin("js", map[string]string{
		"bad": `throw "on purpose";`,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err = p.Effects["bad"](context.Background(), nil, core.NewCtx(nil)); err == nil {
		t.Fatal("expected an error")
	}
}
