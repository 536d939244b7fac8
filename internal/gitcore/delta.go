package gitcore

import "fmt"

// applyDelta reconstructs an object from its base and a copy/insert
// instruction stream. The stream opens with two varints declaring the base
// and result sizes; both are validated.
func applyDelta(base []byte, delta []byte) ([]byte, error) {
	baseSize, n, err := parseVarInt(delta, 0)
	if err != nil {
		return nil, err
	}
	pos := n
	if baseSize != int64(len(base)) {
		return nil, fmt.Errorf("base size mismatch: declared %d, got %d: %w",
			baseSize, len(base), ErrCorruptDelta)
	}

	resultSize, n, err := parseVarInt(delta, pos)
	if err != nil {
		return nil, err
	}
	pos += n

	result := make([]byte, 0, resultSize)

	for pos < len(delta) {
		cmd := delta[pos]
		pos++

		switch {
		case cmd&0x80 != 0:
			// Copy: which offset/size bytes follow is encoded in the
			// low 7 bits of the instruction itself.
			var offset, size int64
			for i := 0; i < 4; i++ {
				if cmd&(1<<i) != 0 {
					if pos >= len(delta) {
						return nil, fmt.Errorf("truncated copy offset: %w", ErrCorruptDelta)
					}
					offset |= int64(delta[pos]) << (8 * i)
					pos++
				}
			}
			for i := 0; i < 3; i++ {
				if cmd&(0x10<<i) != 0 {
					if pos >= len(delta) {
						return nil, fmt.Errorf("truncated copy size: %w", ErrCorruptDelta)
					}
					size |= int64(delta[pos]) << (8 * i)
					pos++
				}
			}
			if size == 0 {
				size = 0x10000
			}

			if offset+size > int64(len(base)) {
				return nil, fmt.Errorf("copy [%d,%d) exceeds base size %d: %w",
					offset, offset+size, len(base), ErrCorruptDelta)
			}
			result = append(result, base[offset:offset+size]...)

		case cmd != 0:
			// Insert: the instruction byte is the literal length.
			size := int(cmd & 0x7F)
			if pos+size > len(delta) {
				return nil, fmt.Errorf("truncated insert of %d bytes: %w", size, ErrCorruptDelta)
			}
			result = append(result, delta[pos:pos+size]...)
			pos += size

		default:
			return nil, fmt.Errorf("invalid delta command 0: %w", ErrCorruptDelta)
		}
	}

	if int64(len(result)) != resultSize {
		return nil, fmt.Errorf("result size mismatch: declared %d, got %d: %w",
			resultSize, len(result), ErrCorruptDelta)
	}

	return result, nil
}
