package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version byte = 1

	// AlgRaw marks a block kept uncompressed because compression did not pay off.
	AlgRaw  byte = 0
	AlgLZ4  byte = 1
	AlgZstd byte = 2

	// HeaderSize is the fixed prefix length of every block.
	HeaderSize = 4 + 1 + 1 + 4

	// MaxRawLen caps the decoded size a header may announce (256 MiB).
	MaxRawLen = 256 << 20
)

var (
	ErrCorrupt  = errors.New("collcache: corrupt block")
	ErrTooLarge = errors.New("collcache: block exceeds size limit")
	magic4      = [...]byte{'C', 'O', 'L', 'B'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Block: magic(4) | ver(1) | alg(1) | rawLen(u32 be) | data
//
// rawLen is the length of the uncompressed payload so decoders can size
// their destination buffer up front.
func EncodeBlock(alg byte, rawLen int, data []byte) ([]byte, error) {
	if rawLen < 0 || rawLen > MaxRawLen {
		return nil, ErrTooLarge
	}
	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(data))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(alg)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(rawLen))
	buf.Write(u4[:])

	buf.Write(data)
	return buf.Bytes(), nil
}

func DecodeBlock(b []byte) (alg byte, rawLen int, data []byte, err error) {
	if len(b) < HeaderSize || !hasMagic(b) || b[4] != version {
		return 0, 0, nil, ErrCorrupt
	}
	alg = b[5]
	switch alg {
	case AlgRaw, AlgLZ4, AlgZstd:
	default:
		return 0, 0, nil, ErrCorrupt
	}

	rawLen = int(binary.BigEndian.Uint32(b[6:HeaderSize]))
	if rawLen > MaxRawLen {
		return 0, 0, nil, ErrTooLarge
	}
	data = b[HeaderSize:]
	// raw blocks carry exactly rawLen bytes; anything else is truncation or junk
	if alg == AlgRaw && len(data) != rawLen {
		return 0, 0, nil, ErrCorrupt
	}
	return alg, rawLen, data, nil
}
