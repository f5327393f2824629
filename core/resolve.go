package core

import (
	"strings"
)

// Truthy reports language truthiness, which is deliberately narrower
// than Go's (and narrower than the truthiness of wherever your trees
// came from).
//
// False: nil, false, numeric zero, empty string, empty sequence.
// True: everything else, including an empty map.  An empty sequence is
// special-cased; an empty map is not.  Reproduce exactly; every
// conditional in the language goes through here.
func Truthy(x interface{}) bool {
	switch vv := x.(type) {
	case nil:
		return false
	case bool:
		return vv
	case string:
		return vv != ""
	case int:
		return vv != 0
	case int32:
		return vv != 0
	case int64:
		return vv != 0
	case float32:
		return vv != 0
	case float64:
		return vv != 0
	case []interface{}:
		return len(vv) != 0
	default:
		return true
	}
}

// PathGet walks a dot path into a record.
//
// Any missing segment, or a non-map intermediate, yields nil rather
// than an error.
func PathGet(m map[string]interface{}, path string) interface{} {
	var x interface{} = m
	for _, p := range strings.Split(path, ".") {
		mm, is := x.(map[string]interface{})
		if !is {
			return nil
		}
		x = mm[p]
	}
	return x
}

// resolve expands a decoded term against the Ctx, producing a plain
// tree again.
//
// References are replaced by their looked-up values.  $if and $default
// are resolved away.  The deferred operators survive resolution in
// their normalized single-key map shape (payloads resolved) so a
// handler can apply them against a previously stored value.
func (c *Ctx) resolve(t Term) (interface{}, error) {
	switch vv := t.(type) {
	case nil:
		return nil, nil
	case *Literal:
		return vv.Value, nil
	case *InputRef:
		return PathGet(c.Input, vv.Path), nil
	case *ResultRef:
		if c.Results == nil {
			return nil, &NoResults{Path: vv.Path}
		}
		return PathGet(c.Results, vv.Path), nil
	case *NowRef:
		return c.now(), nil
	case *TempRef:
		return c.tempId(), nil
	case *IncOp:
		return map[string]interface{}{KeyInc: vv.N}, nil
	case *DecOp:
		return map[string]interface{}{KeyDec: vv.N}, nil
	case *PushOp:
		return c.resolveWrapped(KeyPush, vv.V)
	case *PullOp:
		return c.resolveWrapped(KeyPull, vv.V)
	case *AddToSetOp:
		return c.resolveWrapped(KeyAddToSet, vv.V)
	case *DefaultOp:
		return c.resolve(vv.V)
	case *IfTerm:
		cond, err := c.resolve(vv.Cond)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return c.resolve(vv.Then)
		}
		if vv.Else == nil {
			return nil, nil
		}
		return c.resolve(vv.Else)
	case *ListTerm:
		acc := make([]interface{}, len(vv.Elems))
		for i, e := range vv.Elems {
			x, err := c.resolve(e)
			if err != nil {
				return nil, err
			}
			acc[i] = x
		}
		return acc, nil
	case *MapTerm:
		acc := make(map[string]interface{}, len(vv.Pairs))
		for k, e := range vv.Pairs {
			x, err := c.resolve(e)
			if err != nil {
				return nil, err
			}
			acc[k] = x
		}
		return acc, nil
	default:
		return nil, &BadShape{What: "unexpected term", Value: t}
	}
}

func (c *Ctx) resolveWrapped(key string, v Term) (interface{}, error) {
	x, err := c.resolve(v)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{key: x}, nil
}
