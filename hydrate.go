package snapstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/goccy/go-yaml"
)

// FromJSON parses a JSON document into Nodes, keeping the document's field
// order. Integral numbers become int64, other numbers float64.
func FromJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, fmt.Errorf("from json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("from json: trailing data after value")
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var keys []string
			fields := map[string]any{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				k, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", kt)
				}
				v, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				if _, dup := fields[k]; !dup {
					keys = append(keys, k)
				}
				fields[k] = v
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return newMappingNode(keys, fields), nil
		case '[':
			items := []any{}
			for dec.More() {
				v, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return newSequenceNode(items), nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case json.Number:
		return normalizeNumber(t)
	default:
		return t, nil
	}
}

func normalizeNumber(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, err
	}
	return normalizeFloat(f), nil
}

// normalizeFloat turns integral floats that fit in an int64 into int64.
func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f)
	}
	return f
}

// FromYAML parses a YAML document into Nodes, keeping mapping key order.
// Mapping keys are formatted with fmt.Sprint. Integers become int64 where
// they fit.
func FromYAML(data []byte) (any, error) {
	var v any
	if err := yaml.UnmarshalWithOptions(data, &v, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("from yaml: %w", err)
	}
	return fromYAMLValue(v), nil
}

func fromYAMLValue(v any) any {
	switch x := v.(type) {
	case yaml.MapSlice:
		var keys []string
		fields := make(map[string]any, len(x))
		for _, item := range x {
			k := fmt.Sprint(item.Key)
			if _, dup := fields[k]; !dup {
				keys = append(keys, k)
			}
			fields[k] = fromYAMLValue(item.Value)
		}
		return newMappingNode(keys, fields)
	case map[string]any:
		return Freeze(x)
	case []any:
		items := make([]any, len(x))
		for i, e := range x {
			items[i] = fromYAMLValue(e)
		}
		return newSequenceNode(items)
	case int:
		return int64(x)
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}
		return x
	default:
		return v
	}
}
