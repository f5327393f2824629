package core

import (
	"errors"
	"reflect"
)

// ApplyUpdate applies a resolved update document to a stored document,
// interpreting the deferred operators ($inc, $dec, $push, $pull,
// $addToSet) that survive resolution.  Plain values replace.
//
// The engine itself never calls this; it's here for handlers (see
// plugins/mem and plugins/bolt), which is where operator application
// belongs.  The stored document is not modified; a new one comes back.
func ApplyUpdate(doc map[string]interface{}, set map[string]interface{}) (map[string]interface{}, error) {
	acc := make(map[string]interface{}, len(doc)+len(set))
	for k, v := range doc {
		acc[k] = v
	}
	for k, v := range set {
		key, payload, is := asOperator(v)
		if !is {
			acc[k] = v
			continue
		}
		prev := acc[k]
		switch key {
		case KeyInc, KeyDec:
			n, ok := asNumber(payload)
			if !ok {
				return nil, errors.New(key + " of a non-number")
			}
			base := float64(0)
			if prev != nil {
				if base, ok = asNumber(prev); !ok {
					return nil, errors.New(key + " against a non-number")
				}
			}
			if key == KeyDec {
				n = -n
			}
			acc[k] = base + n
		case KeyPush:
			xs, err := asSequence(prev)
			if err != nil {
				return nil, err
			}
			acc[k] = append(xs, payload)
		case KeyPull:
			xs, err := asSequence(prev)
			if err != nil {
				return nil, err
			}
			kept := make([]interface{}, 0, len(xs))
			for _, x := range xs {
				if !reflect.DeepEqual(x, payload) {
					kept = append(kept, x)
				}
			}
			acc[k] = kept
		case KeyAddToSet:
			xs, err := asSequence(prev)
			if err != nil {
				return nil, err
			}
			found := false
			for _, x := range xs {
				if reflect.DeepEqual(x, payload) {
					found = true
					break
				}
			}
			if !found {
				xs = append(xs, payload)
			}
			acc[k] = xs
		default:
			// $default and friends were resolved away before
			// the handler saw them; anything else is data.
			acc[k] = v
		}
	}
	return acc, nil
}

// asOperator reports whether the value is a normalized single-key
// operator map.
func asOperator(v interface{}) (key string, payload interface{}, is bool) {
	m, isMap := v.(map[string]interface{})
	if !isMap || len(m) != 1 {
		return "", nil, false
	}
	for k, p := range m {
		switch k {
		case KeyInc, KeyDec, KeyPush, KeyPull, KeyAddToSet:
			return k, p, true
		}
	}
	return "", nil, false
}

func asNumber(x interface{}) (float64, bool) {
	switch vv := x.(type) {
	case int:
		return float64(vv), true
	case int32:
		return float64(vv), true
	case int64:
		return float64(vv), true
	case float32:
		return float64(vv), true
	case float64:
		return vv, true
	default:
		return 0, false
	}
}

func asSequence(x interface{}) ([]interface{}, error) {
	switch vv := x.(type) {
	case nil:
		return []interface{}{}, nil
	case []interface{}:
		acc := make([]interface{}, len(vv))
		copy(acc, vv)
		return acc, nil
	default:
		return nil, errors.New("sequence operator against a non-sequence")
	}
}
