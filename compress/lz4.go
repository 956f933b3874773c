package compress

import (
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/unkn0wn-root/collcache/internal/wire"
)

// LZ4 is a block compressor tuned for speed. The zero value is ready to use.
type LZ4 struct{}

var _ Compressor = LZ4{}

func (LZ4) Name() string { return "lz4" }

func (LZ4) Compress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return rawBlock(src)
	}
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// n == 0 means incompressible
	if !worthIt(len(src), n) {
		return rawBlock(src)
	}
	return wire.EncodeBlock(wire.AlgLZ4, len(src), dst[:n])
}

func (LZ4) Decompress(block []byte) ([]byte, error) {
	rawLen, data, stored, err := decodeFor(wire.AlgLZ4, block)
	if err != nil {
		return nil, err
	}
	if stored {
		return data, nil
	}
	out := make([]byte, rawLen)
	n, err := lz4.UncompressBlock(data, out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if n != rawLen {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, header says %d: %w", n, rawLen, wire.ErrCorrupt)
	}
	return out, nil
}
