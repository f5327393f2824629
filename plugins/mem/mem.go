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

// Package mem is an entity-CRUD plugin over an in-memory cache.
//
// Effects: create, get, update, upsert, delete, list.  Common args:
// "collection" and "id" strings, "doc" for create, "set" for
// update/upsert.  update and upsert apply the deferred operators
// ($inc, $push, ...) via core.ApplyUpdate.
package mem

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Comcast/deeds/core"
)

var NotFound = errors.New("not found")

// Store is the cache: collection -> id -> document.
type Store struct {
	sync.Mutex
	collections map[string]map[string]map[string]interface{}
}

func NewStore() *Store {
	return &Store{
		collections: make(map[string]map[string]map[string]interface{}, 8),
	}
}

// Plugin exposes the store's effects under the given namespace.
func (s *Store) Plugin(namespace string) *core.Plugin {
	return &core.Plugin{
		Namespace: namespace,
		Effects: map[string]core.Handler{
			"create": s.create,
			"get":    s.get,
			"update": s.update,
			"upsert": s.upsert,
			"delete": s.remove,
			"list":   s.list,
		},
	}
}

func (s *Store) coll(name string) map[string]map[string]interface{} {
	c, have := s.collections[name]
	if !have {
		c = make(map[string]map[string]interface{}, 8)
		s.collections[name] = c
	}
	return c
}

func argString(args map[string]interface{}, key string) (string, error) {
	v, have := args[key]
	if !have {
		return "", errors.New(`missing "` + key + `"`)
	}
	str, is := v.(string)
	if !is {
		return "", errors.New(`"` + key + `" isn't a string`)
	}
	return str, nil
}

func argDoc(args map[string]interface{}, key string) (map[string]interface{}, error) {
	v, have := args[key]
	if !have {
		return map[string]interface{}{}, nil
	}
	m, is := v.(map[string]interface{})
	if !is {
		return nil, errors.New(`"` + key + `" isn't a map`)
	}
	return m, nil
}

func (s *Store) create(ctx context.Context, args map[string]interface{}, c *core.Ctx) (interface{}, error) {
	collection, err := argString(args, "collection")
	if err != nil {
		return nil, err
	}
	id, err := argString(args, "id")
	if err != nil {
		return nil, err
	}
	doc, err := argDoc(args, "doc")
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()

	stored := make(map[string]interface{}, len(doc)+1)
	for k, v := range doc {
		stored[k] = v
	}
	stored["id"] = id
	s.coll(collection)[id] = stored

	return stored, nil
}

func (s *Store) get(ctx context.Context, args map[string]interface{}, c *core.Ctx) (interface{}, error) {
	collection, err := argString(args, "collection")
	if err != nil {
		return nil, err
	}
	id, err := argString(args, "id")
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()

	doc, have := s.coll(collection)[id]
	if !have {
		// Absent, not an error: guards want to ask.
		return nil, nil
	}
	return doc, nil
}

func (s *Store) update(ctx context.Context, args map[string]interface{}, c *core.Ctx) (interface{}, error) {
	return s.write(args, false)
}

func (s *Store) upsert(ctx context.Context, args map[string]interface{}, c *core.Ctx) (interface{}, error) {
	return s.write(args, true)
}

func (s *Store) write(args map[string]interface{}, orCreate bool) (interface{}, error) {
	collection, err := argString(args, "collection")
	if err != nil {
		return nil, err
	}
	id, err := argString(args, "id")
	if err != nil {
		return nil, err
	}
	set, err := argDoc(args, "set")
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()

	docs := s.coll(collection)
	doc, have := docs[id]
	if !have {
		if !orCreate {
			return nil, NotFound
		}
		doc = map[string]interface{}{"id": id}
	}

	updated, err := core.ApplyUpdate(doc, set)
	if err != nil {
		return nil, err
	}
	updated["id"] = id
	docs[id] = updated

	return updated, nil
}

func (s *Store) remove(ctx context.Context, args map[string]interface{}, c *core.Ctx) (interface{}, error) {
	collection, err := argString(args, "collection")
	if err != nil {
		return nil, err
	}
	id, err := argString(args, "id")
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()

	docs := s.coll(collection)
	_, have := docs[id]
	delete(docs, id)

	return have, nil
}

func (s *Store) list(ctx context.Context, args map[string]interface{}, c *core.Ctx) (interface{}, error) {
	collection, err := argString(args, "collection")
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()

	docs := s.coll(collection)
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	acc := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		acc = append(acc, docs[id])
	}
	return acc, nil
}
