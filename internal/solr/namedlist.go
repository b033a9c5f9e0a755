package solr

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
)

// The backend serializes its internal NamedList structures as JSON
// objects whose member order is meaningful (document field order, timing
// stage order). Go maps drop that order, so responses are decoded through
// a token stream into an ordered tagged tree instead.
//
// A decoded value is one of: nil, bool, json.Number, string, []any, or
// NamedList.

// NamedList is an ordered list of key/value entries.
type NamedList []Entry

// Entry is one named member of a NamedList.
type Entry struct {
	Key string
	Val any
}

// Get returns the value of the first entry with the given key.
func (nl NamedList) Get(key string) (any, bool) {
	for _, e := range nl {
		if e.Key == key {
			return e.Val, true
		}
	}
	return nil, false
}

// DecodeTree reads a full JSON document into the ordered tree form.
func DecodeTree(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decode response tree: %w", err)
	}
	return v, nil
}

// DecodeTreeBytes is DecodeTree over a byte slice.
func DecodeTreeBytes(data []byte) (any, error) {
	return DecodeTree(bytes.NewReader(data))
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		return tok, nil
	}
}

func decodeObject(dec *json.Decoder) (NamedList, error) {
	nl := NamedList{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %T, not string", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		nl = append(nl, Entry{Key: key, Val: val})
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return nil, err
	}
	return nl, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	arr := []any{}
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return nil, err
	}
	return arr, nil
}

// --- leaf coercions, explicit about absence ---

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// LeafInt64 reads a decoded leaf as an int64.
func LeafInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// LeafFloat64 reads a decoded leaf as a float64.
func LeafFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func asNamedList(v any) (NamedList, bool) {
	nl, ok := v.(NamedList)
	return nl, ok
}

func asArray(v any) ([]any, bool) {
	arr, ok := v.([]any)
	return arr, ok
}

// LeafString renders a decoded leaf as its string form; nil becomes "".
func LeafString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
