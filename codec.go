package snapstore

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Codec serializes the primitive values held by nodes. Composite values
// never reach a Codec; they are stored as separate nodes and linked.
type Codec interface {
	MarshalValue(v any) ([]byte, error)
	UnmarshalValue(b []byte) (any, error)
}

// JSONCodec stores values as JSON. Integral numbers load as int64, other
// numbers as float64.
type JSONCodec struct{}

func (JSONCodec) MarshalValue(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) UnmarshalValue(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case json.Number:
		return normalizeNumber(x)
	case map[string]any, []any:
		return Freeze(decodedNumbers(x)), nil
	}
	return v, nil
}

// decodedNumbers normalizes the numbers inside decoded maps and slices in
// place.
func decodedNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := normalizeNumber(x); err == nil {
			return n
		}
		return x.String()
	case float64:
		return normalizeFloat(x)
	case map[string]any:
		for k, e := range x {
			x[k] = decodedNumbers(e)
		}
	case []any:
		for i, e := range x {
			x[i] = decodedNumbers(e)
		}
	}
	return v
}

// ProtoCodec stores values as protobuf google.protobuf.Value messages.
// Numbers go through float64, so integers beyond 2^53 lose precision.
type ProtoCodec struct{}

func (ProtoCodec) MarshalValue(v any) ([]byte, error) {
	pv, err := structpb.NewValue(v)
	if err != nil {
		return nil, fmt.Errorf("proto value: %w", err)
	}
	return proto.Marshal(pv)
}

func (ProtoCodec) UnmarshalValue(b []byte) (any, error) {
	var pv structpb.Value
	if err := proto.Unmarshal(b, &pv); err != nil {
		return nil, fmt.Errorf("unmarshal proto: %w", err)
	}
	switch x := pv.AsInterface().(type) {
	case float64:
		return normalizeFloat(x), nil
	case map[string]any, []any:
		return Freeze(decodedNumbers(x)), nil
	default:
		return x, nil
	}
}

// A serialized node is the kind byte followed by three length-prefixed
// lists: field names, values and links. A value whose link is non-empty is
// a child node and has an empty body.
type encodedNode struct {
	kind   Kind
	keys   []string
	values []any
	links  []string
}

func appendLength(buf []byte, n int) []byte {
	var tmpbuf [binary.MaxVarintLen64]byte
	len := binary.PutUvarint(tmpbuf[:], uint64(n))
	return append(buf, tmpbuf[:len]...)
}

func appendBytes(buf, body []byte) []byte {
	buf = appendLength(buf, len(body))
	return append(buf, body...)
}

func decodeLength(buf []byte, n *int) ([]byte, error) {
	k, len := binary.Uvarint(buf)
	if len <= 0 {
		return nil, errors.New("bad length")
	}
	*n = int(k)
	return buf[len:], nil
}

func decodeBytes(buf []byte, body *[]byte) ([]byte, error) {
	var err error
	var n int
	buf, err = decodeLength(buf, &n)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		*body = nil
		return buf, nil
	}
	if len(buf) < n {
		return nil, errors.New("bad body length")
	}
	*body = buf[:n]
	return buf[n:], nil
}

func decodeStrings(buf []byte, l *[]string) ([]byte, error) {
	var err error
	var total int
	buf, err = decodeLength(buf, &total)
	if err != nil {
		return nil, err
	}
	if total > len(buf) {
		return nil, errors.New("bad list length")
	}
	out := make([]string, total)
	for i := 0; i < total; i++ {
		var body []byte
		buf, err = decodeBytes(buf, &body)
		if err != nil {
			return nil, err
		}
		out[i] = string(body)
	}
	*l = out
	return buf, nil
}

func marshalNode(node encodedNode, codec Codec) ([]byte, error) {
	buf := []byte{byte(node.kind)}
	buf = appendLength(buf, len(node.keys))
	for _, k := range node.keys {
		buf = appendBytes(buf, []byte(k))
	}
	buf = appendLength(buf, len(node.values))
	for i, v := range node.values {
		if node.links[i] != "" {
			buf = appendLength(buf, 0)
			continue
		}
		body, err := codec.MarshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		buf = appendBytes(buf, body)
	}
	buf = appendLength(buf, len(node.links))
	for _, link := range node.links {
		buf = appendBytes(buf, []byte(link))
	}
	return buf, nil
}

func unmarshalNode(buf []byte, codec Codec) (encodedNode, error) {
	var node encodedNode
	if len(buf) == 0 {
		return node, errors.New("empty node")
	}
	node.kind = Kind(buf[0])
	if node.kind != Mapping && node.kind != Sequence {
		return node, fmt.Errorf("bad node kind %d", buf[0])
	}
	buf, err := decodeStrings(buf[1:], &node.keys)
	if err != nil {
		return node, fmt.Errorf("error when unmarshal node keys: %w", err)
	}
	var total int
	buf, err = decodeLength(buf, &total)
	if err != nil {
		return node, fmt.Errorf("error when unmarshal node values: %w", err)
	}
	if total > len(buf) {
		return node, errors.New("error when unmarshal node values: bad list length")
	}
	bodies := make([][]byte, total)
	for i := range bodies {
		buf, err = decodeBytes(buf, &bodies[i])
		if err != nil {
			return node, fmt.Errorf("error when unmarshal node value %d: %w", i, err)
		}
	}
	buf, err = decodeStrings(buf, &node.links)
	if err != nil {
		return node, fmt.Errorf("error when unmarshal node links: %w", err)
	}
	if len(buf) != 0 {
		return node, errors.New("trailing bytes after node")
	}
	if len(node.links) != total || (node.kind == Mapping && len(node.keys) != total) {
		return node, errors.New("mismatched keys, values and links")
	}
	node.values = make([]any, total)
	for i, body := range bodies {
		if node.links[i] != "" || body == nil {
			continue
		}
		node.values[i], err = codec.UnmarshalValue(body)
		if err != nil {
			return node, fmt.Errorf("cannot unmarshal value %d: %w", i, err)
		}
	}
	return node, nil
}
