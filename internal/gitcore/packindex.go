package gitcore

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// packIndexMagic is the version-2 pack index signature "\377tOc".
var packIndexMagic = [4]byte{0xFF, 0x74, 0x4F, 0x63}

// PackIndex maps object ids to byte offsets within a single pack file.
type PackIndex struct {
	pack       string // store-relative path of the .pack file
	numObjects uint32
	fanout     [256]uint32
	offsets    map[Hash]int64
}

// parsePackIndex parses a version 2 pack index from its raw bytes.
// Version 1 indices fail with ErrUnsupportedIndexVersion.
func parsePackIndex(idxPath string, data []byte) (*PackIndex, error) {
	if len(data) < 8 || [4]byte(data[0:4]) != packIndexMagic {
		return nil, fmt.Errorf("%s: %w", idxPath, ErrUnsupportedIndexVersion)
	}
	if version := binary.BigEndian.Uint32(data[4:8]); version != 2 {
		return nil, fmt.Errorf("%s: version %d: %w", idxPath, version, ErrUnsupportedIndexVersion)
	}

	idx := &PackIndex{
		pack:    strings.TrimSuffix(idxPath, ".idx") + ".pack",
		offsets: make(map[Hash]int64),
	}

	pos := 8
	if len(data) < pos+256*4 {
		return nil, fmt.Errorf("%s: truncated fanout table: %w", idxPath, ErrCorruptObject)
	}
	for i := 0; i < 256; i++ {
		idx.fanout[i] = binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4
	}
	idx.numObjects = idx.fanout[255]

	n := int(idx.numObjects)
	namesBase := pos
	crcBase := namesBase + n*20
	offsetBase := crcBase + n*4
	largeBase := offsetBase + n*4
	if len(data) < largeBase {
		return nil, fmt.Errorf("%s: truncated object tables: %w", idxPath, ErrCorruptObject)
	}

	for i := 0; i < n; i++ {
		hash := NewHashFromBytes([20]byte(data[namesBase+i*20 : namesBase+i*20+20]))

		offset := binary.BigEndian.Uint32(data[offsetBase+i*4 : offsetBase+i*4+4])
		if offset&0x80000000 != 0 {
			largeIdx := int(offset & 0x7FFFFFFF)
			entry := largeBase + largeIdx*8
			if len(data) < entry+8 {
				return nil, fmt.Errorf("%s: large offset %d out of range: %w", idxPath, largeIdx, ErrCorruptObject)
			}
			idx.offsets[hash] = int64(binary.BigEndian.Uint64(data[entry : entry+8]))
		} else {
			idx.offsets[hash] = int64(offset)
		}
	}

	return idx, nil
}

// FindObject looks up the offset of an object in the pack file by its hash.
func (p *PackIndex) FindObject(id Hash) (int64, bool) {
	offset, found := p.offsets[id]
	return offset, found
}

// PackFile returns the store-relative path of the pack file this index covers.
func (p *PackIndex) PackFile() string {
	return p.pack
}

// NumObjects returns the number of objects indexed.
func (p *PackIndex) NumObjects() uint32 {
	return p.numObjects
}
