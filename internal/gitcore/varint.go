package gitcore

import "fmt"

// parseObjectHeader decodes the type+size header at buf[pos:].
// The first byte carries the object type in bits 4-6 and the low 4 bits of
// the size; each continuation byte contributes 7 more bits.
// Returns the type, the declared size, and the number of bytes consumed.
func parseObjectHeader(buf []byte, pos int) (ObjectType, int64, int, error) {
	if pos >= len(buf) {
		return 0, 0, 0, fmt.Errorf("object header at %d: %w", pos, ErrMalformedHeader)
	}

	b := buf[pos]
	objType := ObjectType((b >> 4) & 0x07)
	size := int64(b & 0x0F)
	shift := uint(4)
	n := 1

	for b&0x80 != 0 {
		if pos+n >= len(buf) {
			return 0, 0, 0, fmt.Errorf("object header at %d: %w", pos, ErrMalformedHeader)
		}
		b = buf[pos+n]
		size |= int64(b&0x7F) << shift
		shift += 7
		n++
	}

	return objType, size, n, nil
}

// parseBaseOffset decodes the backreference varint that precedes an
// offset-delta's compressed payload. Continuation bytes accumulate as
// ((v+1)<<7)|b; dropping the +1 resolves bases to the wrong object.
func parseBaseOffset(buf []byte, pos int) (int64, int, error) {
	if pos >= len(buf) {
		return 0, 0, fmt.Errorf("base offset at %d: %w", pos, ErrMalformedHeader)
	}

	b := buf[pos]
	offset := int64(b & 0x7F)
	n := 1

	for b&0x80 != 0 {
		if pos+n >= len(buf) {
			return 0, 0, fmt.Errorf("base offset at %d: %w", pos, ErrMalformedHeader)
		}
		b = buf[pos+n]
		offset = ((offset + 1) << 7) | int64(b&0x7F)
		n++
	}

	return offset, n, nil
}

// parseVarInt decodes the plain low-to-high 7-bit varint used by the
// base-size and result-size headers of a delta instruction stream.
func parseVarInt(buf []byte, pos int) (int64, int, error) {
	var value int64
	var shift uint
	n := 0

	for {
		if pos+n >= len(buf) {
			return 0, 0, fmt.Errorf("varint at %d: %w", pos, ErrMalformedHeader)
		}
		b := buf[pos+n]
		value |= int64(b&0x7F) << shift
		shift += 7
		n++
		if b&0x80 == 0 {
			break
		}
	}

	return value, n, nil
}
