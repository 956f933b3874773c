package compress

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/unkn0wn-root/collcache/internal/wire"
)

// Zstd trades some speed for a better ratio than LZ4. Construct with NewZstd.
// EncodeAll/DecodeAll are safe for concurrent use, so one encoder and one
// decoder are shared across goroutines.
type Zstd struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var _ Compressor = (*Zstd)(nil)

// NewZstd builds a Zstd compressor at the default speed level.
func NewZstd(opts ...zstd.EOption) (*Zstd, error) {
	if len(opts) == 0 {
		opts = []zstd.EOption{zstd.WithEncoderLevel(zstd.SpeedDefault)}
	}
	enc, err := zstd.NewWriter(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(wire.MaxRawLen))
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Zstd{enc: enc, dec: dec}, nil
}

func (*Zstd) Name() string { return "zstd" }

func (z *Zstd) Compress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return rawBlock(src)
	}
	compressed := z.enc.EncodeAll(src, nil)
	if !worthIt(len(src), len(compressed)) {
		return rawBlock(src)
	}
	return wire.EncodeBlock(wire.AlgZstd, len(src), compressed)
}

func (z *Zstd) Decompress(block []byte) ([]byte, error) {
	rawLen, data, stored, err := decodeFor(wire.AlgZstd, block)
	if err != nil {
		return nil, err
	}
	if stored {
		return data, nil
	}
	out, err := z.dec.DecodeAll(data, make([]byte, 0, rawLen))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(out) != rawLen {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, header says %d: %w", len(out), rawLen, wire.ErrCorrupt)
	}
	return out, nil
}

// Close releases encoder and decoder resources.
func (z *Zstd) Close() error {
	z.dec.Close()
	return z.enc.Close()
}
