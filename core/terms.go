package core

import (
	"strings"
)

// MarkerPrefix starts every reserved key in a value tree.
const MarkerPrefix = "$"

// Reserved keys for value references and operators.
const (
	KeyInput    = "$input"
	KeyResult   = "$result"
	KeyNow      = "$now"
	KeyTempId   = "$tempId"
	KeyInc      = "$inc"
	KeyDec      = "$dec"
	KeyPush     = "$push"
	KeyPull     = "$pull"
	KeyAddToSet = "$addToSet"
	KeyDefault  = "$default"
	KeyIf       = "$if"
	KeyThen     = "then"
	KeyElse     = "else"
)

// Term is a decoded value tree.
//
// A raw tree (string-keyed maps, slices, scalars) is decoded exactly
// once, at the boundary, into these explicit variants.  The resolver
// then switches on the variant instead of re-inspecting maps for
// reserved keys at every node.
type Term interface {
	term()
}

// Literal is a scalar (or nil) taken at face value.
type Literal struct {
	Value interface{}
}

// ListTerm is an ordered sequence of terms.
type ListTerm struct {
	Elems []Term
}

// MapTerm is a structured record whose values are terms.
type MapTerm struct {
	Pairs map[string]Term
}

// InputRef reads a dot path from the caller-supplied input record.
type InputRef struct {
	Path string
}

// ResultRef reads a dot path from the named-results table.  The first
// path segment is the result name.
type ResultRef struct {
	Path string
}

// NowRef resolves to the current instant (or the pinned one).
type NowRef struct{}

// TempRef resolves to a fresh identifier.
type TempRef struct{}

// IncOp and DecOp are deferred numeric transforms.  The engine never
// applies them; they pass through resolution untouched so a handler
// can apply them against a stored value.
type IncOp struct {
	N interface{}
}

type DecOp struct {
	N interface{}
}

// PushOp, PullOp, and AddToSetOp are deferred sequence transforms.
// Their payloads are resolved; the operator itself passes through.
type PushOp struct {
	V Term
}

type PullOp struct {
	V Term
}

type AddToSetOp struct {
	V Term
}

// DefaultOp resolves directly to its payload.  It does not inspect a
// sibling value to decide whether that value is absent; that check is
// a consumer responsibility.  See the note in resolve_test.go.
type DefaultOp struct {
	V Term
}

// IfTerm resolves to Then or Else depending on the truthiness of Cond.
// A nil Else means the else branch is absent.
type IfTerm struct {
	Cond Term
	Then Term
	Else Term
}

func (t *Literal) term()    {}
func (t *ListTerm) term()   {}
func (t *MapTerm) term()    {}
func (t *InputRef) term()   {}
func (t *ResultRef) term()  {}
func (t *NowRef) term()     {}
func (t *TempRef) term()    {}
func (t *IncOp) term()      {}
func (t *DecOp) term()      {}
func (t *PushOp) term()     {}
func (t *PullOp) term()     {}
func (t *AddToSetOp) term() {}
func (t *DefaultOp) term()  {}
func (t *IfTerm) term()     {}

// DecodeTerm decodes a raw value tree into a Term.
//
// Recognition rules: a map that contains "$if" is a conditional (its
// "then"/"else" keys are read and any others ignored); any other map
// is a marker only when it has exactly one key and that key starts
// with the marker prefix.  Larger maps are plain structured data even
// if one of their keys looks reserved.
func DecodeTerm(x interface{}) (Term, error) {
	switch vv := x.(type) {
	case map[string]interface{}:
		if _, have := vv[KeyIf]; have {
			return decodeIf(vv)
		}
		if len(vv) == 1 {
			for k, v := range vv {
				if strings.HasPrefix(k, MarkerPrefix) {
					return decodeMarker(k, v)
				}
			}
		}
		pairs := make(map[string]Term, len(vv))
		for k, v := range vv {
			t, err := DecodeTerm(v)
			if err != nil {
				return nil, err
			}
			pairs[k] = t
		}
		return &MapTerm{Pairs: pairs}, nil
	case []interface{}:
		elems := make([]Term, len(vv))
		for i, v := range vv {
			t, err := DecodeTerm(v)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return &ListTerm{Elems: elems}, nil
	default:
		return &Literal{Value: x}, nil
	}
}

func decodeMarker(key string, v interface{}) (Term, error) {
	switch key {
	case KeyInput, KeyResult:
		path, is := v.(string)
		if !is {
			return nil, &BadShape{What: key + " path", Value: v}
		}
		if key == KeyInput {
			return &InputRef{Path: path}, nil
		}
		return &ResultRef{Path: path}, nil
	case KeyNow:
		// The payload is conventionally 'true' but is ignored.
		return &NowRef{}, nil
	case KeyTempId:
		return &TempRef{}, nil
	case KeyInc:
		return &IncOp{N: v}, nil
	case KeyDec:
		return &DecOp{N: v}, nil
	case KeyPush, KeyPull, KeyAddToSet, KeyDefault:
		inner, err := DecodeTerm(v)
		if err != nil {
			return nil, err
		}
		switch key {
		case KeyPush:
			return &PushOp{V: inner}, nil
		case KeyPull:
			return &PullOp{V: inner}, nil
		case KeyAddToSet:
			return &AddToSetOp{V: inner}, nil
		default:
			return &DefaultOp{V: inner}, nil
		}
	default:
		// An unknown marker is more likely a typo ("$puhs")
		// than data, and this decoder is the only place shapes
		// are checked.  So protest.
		return nil, &BadShape{What: "unknown marker " + key, Value: v}
	}
}

func decodeIf(m map[string]interface{}) (Term, error) {
	cond, err := DecodeTerm(m[KeyIf])
	if err != nil {
		return nil, err
	}
	rawThen, have := m[KeyThen]
	if !have {
		return nil, &BadShape{What: "$if without then", Value: m}
	}
	then, err := DecodeTerm(rawThen)
	if err != nil {
		return nil, err
	}
	var els Term
	if rawElse, have := m[KeyElse]; have {
		if els, err = DecodeTerm(rawElse); err != nil {
			return nil, err
		}
	}
	return &IfTerm{Cond: cond, Then: then, Else: els}, nil
}
