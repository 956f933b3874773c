// Package compress provides block compressors for stored record payloads.
//
// Every compressor frames its output with a small header (see internal/wire)
// carrying the algorithm and the uncompressed length. Blocks that do not
// shrink are kept raw inside the same frame, so Decompress never has to guess.
package compress

import (
	"fmt"

	"github.com/unkn0wn-root/collcache/internal/wire"
)

// Compressor turns a serialized payload into a compact block and back.
// Implementations must be safe for concurrent use.
type Compressor interface {
	// Name is a short stable identifier ("lz4", "zstd"). It is used to tag
	// default collection keys.
	Name() string
	Compress(src []byte) ([]byte, error)
	Decompress(block []byte) ([]byte, error)
}

// ByName returns the compressor registered under name.
func ByName(name string) (Compressor, error) {
	switch name {
	case "", "lz4":
		return LZ4{}, nil
	case "zstd":
		return NewZstd()
	default:
		return nil, fmt.Errorf("compress: unknown algorithm %q", name)
	}
}

// worthIt reports whether a compressed block saves at least 10% over raw.
func worthIt(raw, compressed int) bool {
	return compressed > 0 && float64(compressed) <= float64(raw)*0.9
}

func rawBlock(src []byte) ([]byte, error) {
	return wire.EncodeBlock(wire.AlgRaw, len(src), src)
}

func decodeFor(alg byte, block []byte) (rawLen int, data []byte, stored bool, err error) {
	got, rawLen, data, err := wire.DecodeBlock(block)
	if err != nil {
		return 0, nil, false, err
	}
	if got == wire.AlgRaw {
		return rawLen, data, true, nil
	}
	if got != alg {
		return 0, nil, false, fmt.Errorf("compress: block algorithm %d does not match decoder %d: %w", got, alg, wire.ErrCorrupt)
	}
	return rawLen, data, false, nil
}
