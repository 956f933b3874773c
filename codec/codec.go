// Package codec serializes collection records to bytes and back.
//
// JSON is the default because stored records stay human-readable in the
// store (redis-cli GET shows the record). Msgpack, CBOR and Protobuf trade
// that for size and speed.
package codec

// Codec encodes/decodes records of type V for storage under an item key.
// Implementations must be safe for concurrent use.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Funcs adapts a pair of functions to Codec.
type Funcs[V any] struct {
	EncodeFunc func(V) ([]byte, error)
	DecodeFunc func([]byte) (V, error)
}

func (f Funcs[V]) Encode(v V) ([]byte, error) { return f.EncodeFunc(v) }
func (f Funcs[V]) Decode(b []byte) (V, error) { return f.DecodeFunc(b) }
