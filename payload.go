package collcache

// encode serializes rec and, when compression is on, frames it as a block.
func (c *Collection[T]) encode(rec T) ([]byte, error) {
	b, err := c.codec.Encode(rec)
	if err != nil {
		return nil, err
	}
	if c.compressor == nil {
		return b, nil
	}
	return c.compressor.Compress(b)
}

// decode reverses encode.
func (c *Collection[T]) decode(b []byte) (T, error) {
	if c.compressor != nil {
		raw, err := c.compressor.Decompress(b)
		if err != nil {
			var zero T
			return zero, err
		}
		b = raw
	}
	return c.codec.Decode(b)
}
