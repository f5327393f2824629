package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	. "github.com/Comcast/deeds/util/testutil"

	"github.com/google/go-cmp/cmp"
)

func testStore(t *testing.T) *Store {
	s := NewStore(filepath.Join(t.TempDir(), "deeds.db"))
	if err := s.Open(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
	})
	return s
}

func TestCRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	effects := s.Plugin("store").Effects

	call := func(effect, args string) (interface{}, error) {
		return effects[effect](ctx, Dwimjs(args).(map[string]interface{}), nil)
	}

	x, err := call("create", `{"collection":"orders","id":"o1","doc":{"total":10}}`)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(x, Dwimjs(`{"id":"o1","total":10}`)) {
		t.Fatal(JS(x))
	}

	// Round trip through JSON storage.
	if x, err = call("get", `{"collection":"orders","id":"o1"}`); err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(x, Dwimjs(`{"id":"o1","total":10}`)) {
		t.Fatal(JS(x))
	}

	if x, err = call("get", `{"collection":"orders","id":"nope"}`); err != nil {
		t.Fatal(err)
	}
	if x != nil {
		t.Fatal(JS(x))
	}

	// Collection that was never written.
	if x, err = call("get", `{"collection":"void","id":"o1"}`); err != nil {
		t.Fatal(err)
	}
	if x != nil {
		t.Fatal(JS(x))
	}

	if x, err = call("update", `{"collection":"orders","id":"o1","set":{"total":{"$dec":4}}}`); err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(x, Dwimjs(`{"id":"o1","total":6}`)) {
		t.Fatal(JS(x))
	}

	if _, err = call("update", `{"collection":"orders","id":"nope","set":{"n":1}}`); !errors.Is(err, NotFound) {
		t.Fatalf("got %v", err)
	}

	if x, err = call("upsert", `{"collection":"orders","id":"o2","set":{"tags":{"$push":"new"}}}`); err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(x, Dwimjs(`{"id":"o2","tags":["new"]}`)) {
		t.Fatal(JS(x))
	}

	if x, err = call("list", `{"collection":"orders"}`); err != nil {
		t.Fatal(err)
	}
	if docs := x.([]interface{}); len(docs) != 2 {
		t.Fatal(JS(docs))
	}

	if x, err = call("delete", `{"collection":"orders","id":"o2"}`); err != nil {
		t.Fatal(err)
	}
	if x != true {
		t.Fatal(JS(x))
	}
	if x, err = call("delete", `{"collection":"orders","id":"o2"}`); err != nil {
		t.Fatal(err)
	}
	if x != false {
		t.Fatal(JS(x))
	}
}

func TestPersistsAcrossOpens(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "deeds.db")
	ctx := context.Background()

	s := NewStore(filename)
	if err := s.Open(); err != nil {
		t.Fatal(err)
	}
	effects := s.Plugin("store").Effects
	if _, err := effects["create"](ctx,
		Dwimjs(`{"collection":"orders","id":"o1","doc":{"total":10}}`).(map[string]interface{}),
		nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s = NewStore(filename)
	if err := s.Open(); err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	x, err := s.Plugin("store").Effects["get"](ctx,
		Dwimjs(`{"collection":"orders","id":"o1"}`).(map[string]interface{}), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(x, Dwimjs(`{"id":"o1","total":10}`)) {
		t.Fatal(JS(x))
	}
}
