package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// CBOROptions configures a CBOR codec.
type CBOROptions struct {
	// Deterministic selects RFC 8949 core deterministic encoding. Needed when
	// two writers must produce identical bytes for the same record.
	Deterministic bool
	// MaxArrayElements bounds decoded arrays; 0 keeps the library default.
	MaxArrayElements int
	// MaxMapPairs bounds decoded maps; 0 keeps the library default.
	MaxMapPairs int
}

// CBOR serializes records using fxamacker/cbor. Construct with NewCBOR.
// Times are written as RFC3339Nano strings.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

func NewCBOR[V any](opts CBOROptions) (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	if opts.Deterministic {
		eo = cbor.CoreDetEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	do := cbor.DecOptions{
		MaxArrayElements: opts.MaxArrayElements,
		MaxMapPairs:      opts.MaxMapPairs,
	}
	dm, err := do.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

// MustCBOR is NewCBOR that panics; meant for package-level vars in tests.
func MustCBOR[V any](opts CBOROptions) CBOR[V] {
	c, err := NewCBOR[V](opts)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, err
}
