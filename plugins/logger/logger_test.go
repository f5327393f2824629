package logger

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"

	. "github.com/Comcast/deeds/util/testutil"

	"github.com/google/go-cmp/cmp"
)

func TestInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	l := &Logger{
		Logger: log.New(buf, "", 0),
	}
	effects := l.Plugin("log").Effects

	args := Dwimjs(`{"msg":"made an order","id":"o1"}`).(map[string]interface{})
	x, err := effects["info"](context.Background(), args, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Echoes args so later steps can reference a named log step.
	if !cmp.Equal(x, Dwimjs(`{"msg":"made an order","id":"o1"}`)) {
		t.Fatal(JS(x))
	}
	if !strings.Contains(buf.String(), "made an order") {
		t.Fatal(buf.String())
	}
}

func TestDebugGating(t *testing.T) {
	buf := &bytes.Buffer{}
	l := &Logger{
		Logger: log.New(buf, "", 0),
	}
	effects := l.Plugin("log").Effects

	args := Dwimjs(`{"msg":"quiet"}`).(map[string]interface{})
	if _, err := effects["debug"](context.Background(), args, nil); err != nil {
		t.Fatal(err)
	}
	if 0 < buf.Len() {
		t.Fatal(buf.String())
	}

	l.Debug = true
	if _, err := effects["debug"](context.Background(), args, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "quiet") {
		t.Fatal(buf.String())
	}
}
