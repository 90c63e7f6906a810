package shop

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Record is a single shop entity: an ordered map of string keys to arbitrary
// JSON values. Nested objects decode to *Record, arrays to []any, numbers to
// json.Number. Key order is the order in which keys first appeared.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// Set stores value under key, keeping the key's original position if it exists.
func (r *Record) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}

	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}

	r.values[key] = value
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	value, ok := r.values[key]

	return value, ok
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.values[key]

	return ok
}

// Keys returns the keys in order.
func (r *Record) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)

	return keys
}

// Len returns the number of keys.
func (r *Record) Len() int {
	return len(r.keys)
}

// String returns the value under key rendered as a string. Strings and
// numbers are returned verbatim, nested values as compact JSON, missing keys
// and nulls as "".
func (r *Record) String(key string) string {
	value, ok := r.values[key]
	if !ok || value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(encoded)
	}
}

// Int returns the value under key as an integer. Numeric strings are accepted
// since the shop serializes some counters as strings.
func (r *Record) Int(key string) (int64, bool) {
	value, ok := r.values[key]
	if !ok {
		return 0, false
	}

	switch v := value.(type) {
	case json.Number:
		n, err := v.Int64()

		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)

		return n, err == nil
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), v == float64(int64(v))
	default:
		return 0, false
	}
}

// Records implements Result.
func (r *Record) Records() []*Record {
	return []*Record{r}
}

// Map returns a plain map copy; nested records are converted as well.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, len(r.keys))
	for _, key := range r.keys {
		out[key] = plainValue(r.values[key])
	}

	return out
}

// Decode converts the record into v through its JSON form.
func (r *Record) Decode(v any) error {
	encoded, err := r.MarshalJSON()
	if err != nil {
		return err
	}

	err = json.Unmarshal(encoded, v)
	if err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}

	return nil
}

// MarshalJSON encodes the record preserving key order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("encoding key %q: %w", key, err)
		}

		encodedValue, err := json.Marshal(r.values[key])
		if err != nil {
			return nil, fmt.Errorf("encoding value of %q: %w", key, err)
		}

		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(encodedValue)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// MarshalYAML encodes the record as a YAML mapping preserving key order.
func (r *Record) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, key := range r.keys {
		valueNode := &yaml.Node{}

		err := valueNode.Encode(yamlValue(r.values[key]))
		if err != nil {
			return nil, fmt.Errorf("encoding value of %q: %w", key, err)
		}

		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, valueNode)
	}

	return node, nil
}

// UnmarshalJSON decodes a JSON object preserving key order. null yields an
// empty record.
func (r *Record) UnmarshalJSON(data []byte) error {
	value, err := decodeJSON(data)
	if err != nil {
		return err
	}

	r.keys = nil
	r.values = make(map[string]any)

	switch v := value.(type) {
	case nil:
		return nil
	case *Record:
		r.keys = v.keys
		r.values = v.values

		return nil
	default:
		return fmt.Errorf("%w: %T", ErrNotAnObject, value)
	}
}

// decodeJSON decodes any JSON document into Record/[]any/json.Number/string/bool/nil.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	value, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}

	_, err = dec.Token()
	if !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrMalformedResponse)
	}

	return value, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		rec := NewRecord()

		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}

			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("%w: object key %v", ErrMalformedResponse, keyTok)
			}

			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}

			rec.Set(key, value)
		}

		_, err = dec.Token()
		if err != nil {
			return nil, err
		}

		return rec, nil
	case '[':
		list := make([]any, 0)

		for dec.More() {
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}

			list = append(list, value)
		}

		_, err = dec.Token()
		if err != nil {
			return nil, err
		}

		return list, nil
	default:
		return nil, fmt.Errorf("%w: unexpected delimiter %q", ErrMalformedResponse, delim)
	}
}

func plainValue(value any) any {
	switch v := value.(type) {
	case *Record:
		return v.Map()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plainValue(item)
		}

		return out
	default:
		return v
	}
}

func yamlValue(value any) any {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}

		if f, err := v.Float64(); err == nil {
			return f
		}

		return v.String()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = yamlValue(item)
		}

		return out
	default:
		return v
	}
}
