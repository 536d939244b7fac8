package gitcore

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
)

// Test-only encoders for the formats the package decodes.

func encodeObjHeader(t ObjectType, size int64) []byte {
	b := byte(t)<<4 | byte(size&0x0F)
	size >>= 4

	var out []byte
	for size > 0 {
		out = append(out, b|0x80)
		b = byte(size & 0x7F)
		size >>= 7
	}
	return append(out, b)
}

func encodeBaseOffset(v int64) []byte {
	var buf [16]byte
	pos := len(buf) - 1
	buf[pos] = byte(v & 0x7F)
	for v >>= 7; v > 0; v >>= 7 {
		v--
		pos--
		buf[pos] = 0x80 | byte(v&0x7F)
	}
	return append([]byte(nil), buf[pos:]...)
}

func encodeVarInt(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func deflateCompress(data []byte) []byte {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		panic(err)
	}
	if _, err := fw.Write(data); err != nil {
		panic(err)
	}
	if err := fw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func zlibCompress(data []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		panic(err)
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// storeLooseObject writes a loose object into the store and returns its
// content-derived id, the same way git computes it.
func storeLooseObject(store MapStore, typeName string, body []byte) Hash {
	content := append(fmt.Appendf(nil, "%s %d\x00", typeName, len(body)), body...)
	sum := sha1.Sum(content)
	id := NewHashFromBytes(sum)
	store["objects/"+string(id[:2])+"/"+string(id[2:])] = zlibCompress(content)
	return id
}

// storeLooseCommit writes a loose commit object and returns its id.
func storeLooseCommit(store MapStore, parents []Hash, author string, timestamp int64, message string) Hash {
	var body bytes.Buffer
	fmt.Fprintf(&body, "tree %040d\n", len(parents))
	for _, parent := range parents {
		fmt.Fprintf(&body, "parent %s\n", parent)
	}
	fmt.Fprintf(&body, "author %s <%s@example.com> %d +0000\n", author, author, timestamp)
	fmt.Fprintf(&body, "committer %s <%s@example.com> %d +0000\n", author, author, timestamp)
	fmt.Fprintf(&body, "\n%s\n", message)
	return storeLooseObject(store, "commit", body.Bytes())
}

// buildPackIndexData assembles a version-2 pack index over the given
// id -> offset entries. Offsets at or above 1<<31 spill into the 64-bit
// overflow table.
func buildPackIndexData(entries map[Hash]int64) []byte {
	ids := make([]Hash, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0x74, 0x4F, 0x63})
	binary.Write(&buf, binary.BigEndian, uint32(2))

	var count uint32
	next := 0
	for b := 0; b < 256; b++ {
		for next < len(ids) && string(ids[next][:2]) == fmt.Sprintf("%02x", b) {
			count++
			next++
		}
		binary.Write(&buf, binary.BigEndian, count)
	}

	for _, id := range ids {
		raw, err := hex.DecodeString(string(id))
		if err != nil {
			panic(err)
		}
		buf.Write(raw)
	}
	for range ids {
		binary.Write(&buf, binary.BigEndian, uint32(0)) // CRC, ignored
	}

	var large []int64
	for _, id := range ids {
		offset := entries[id]
		if offset >= 1<<31 {
			binary.Write(&buf, binary.BigEndian, uint32(0x80000000|len(large)))
			large = append(large, offset)
		} else {
			binary.Write(&buf, binary.BigEndian, uint32(offset))
		}
	}
	for _, offset := range large {
		binary.Write(&buf, binary.BigEndian, uint64(offset))
	}

	buf.Write(make([]byte, 40)) // pack + index checksum trailer
	return buf.Bytes()
}

// testRepository opens a repository over the store, supplying a detached
// HEAD when the fixture does not care about refs.
func testRepository(store MapStore) *Repository {
	if _, ok := store["HEAD"]; !ok {
		store["HEAD"] = []byte("0123456789abcdef0123456789abcdef01234567\n")
	}
	repo, err := Open(store)
	if err != nil {
		panic(err)
	}
	return repo
}

func mustHash(s string) Hash {
	hash, err := NewHash(s)
	if err != nil {
		panic(err)
	}
	return hash
}
