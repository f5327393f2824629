// Package bolt is the entity-CRUD plugin persisted in bbolt: one
// bucket per collection, JSON-encoded documents keyed by id.  Same
// effects and args as plugins/mem.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/Comcast/deeds/core"

	bolt "go.etcd.io/bbolt"
)

var NotFound = errors.New("not found")

type Store struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

func NewStore(filename string) *Store {
	return &Store{
		filename: filename,
	}
}

func (s *Store) Open() error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}
	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("bolt Store."+format, args...)
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

func stringArg(args map[string]interface{}, key string) (string, error) {
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

func docArg(args map[string]interface{}, key string) (map[string]interface{}, error) {
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

func (s *Store) put(tx *bolt.Tx, collection, id string, doc map[string]interface{}) error {
	b, err := tx.CreateBucketIfNotExists([]byte(collection))
	if err != nil {
		return err
	}
	js, err := json.Marshal(&doc)
	if err != nil {
		return err
	}
	return b.Put([]byte(id), js)
}

func (s *Store) fetch(tx *bolt.Tx, collection, id string) (map[string]interface{}, error) {
	b := tx.Bucket([]byte(collection))
	if b == nil {
		return nil, nil
	}
	bs := b.Get([]byte(id))
	if bs == nil {
		return nil, nil
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(bs, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) create(ctx context.Context, args map[string]interface{}, c *core.Ctx) (interface{}, error) {
	collection, err := stringArg(args, "collection")
	if err != nil {
		return nil, err
	}
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	doc, err := docArg(args, "doc")
	if err != nil {
		return nil, err
	}
	s.logf("create %s/%s", collection, id)

	stored := make(map[string]interface{}, len(doc)+1)
	for k, v := range doc {
		stored[k] = v
	}
	stored["id"] = id

	err = s.db.Update(func(tx *bolt.Tx) error {
		return s.put(tx, collection, id, stored)
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *Store) get(ctx context.Context, args map[string]interface{}, c *core.Ctx) (interface{}, error) {
	collection, err := stringArg(args, "collection")
	if err != nil {
		return nil, err
	}
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	s.logf("get %s/%s", collection, id)

	var doc map[string]interface{}
	err = s.db.View(func(tx *bolt.Tx) error {
		doc, err = s.fetch(tx, collection, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if doc == nil {
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
	collection, err := stringArg(args, "collection")
	if err != nil {
		return nil, err
	}
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	set, err := docArg(args, "set")
	if err != nil {
		return nil, err
	}
	s.logf("write %s/%s orCreate=%v", collection, id, orCreate)

	var updated map[string]interface{}
	err = s.db.Update(func(tx *bolt.Tx) error {
		doc, err := s.fetch(tx, collection, id)
		if err != nil {
			return err
		}
		if doc == nil {
			if !orCreate {
				return NotFound
			}
			doc = map[string]interface{}{"id": id}
		}
		if updated, err = core.ApplyUpdate(doc, set); err != nil {
			return err
		}
		updated["id"] = id
		return s.put(tx, collection, id, updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) remove(ctx context.Context, args map[string]interface{}, c *core.Ctx) (interface{}, error) {
	collection, err := stringArg(args, "collection")
	if err != nil {
		return nil, err
	}
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	s.logf("delete %s/%s", collection, id)

	had := false
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		if b.Get([]byte(id)) != nil {
			had = true
		}
		return b.Delete([]byte(id))
	})
	if err != nil {
		return nil, err
	}
	return had, nil
}

func (s *Store) list(ctx context.Context, args map[string]interface{}, c *core.Ctx) (interface{}, error) {
	collection, err := stringArg(args, "collection")
	if err != nil {
		return nil, err
	}
	s.logf("list %s", collection)

	acc := make([]interface{}, 0, 32)
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var doc map[string]interface{}
			if err := json.Unmarshal(v, &doc); err != nil {
				return err
			}
			acc = append(acc, doc)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}
