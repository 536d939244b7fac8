package gitcore

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ObjectType denotes the type of a git object as encoded in pack headers.
type ObjectType byte

const (
	ObjNone     ObjectType = 0
	ObjCommit   ObjectType = 1
	ObjTree     ObjectType = 2
	ObjBlob     ObjectType = 3
	ObjTag      ObjectType = 4
	objOfsDelta ObjectType = 6
	objRefDelta ObjectType = 7
)

func (t ObjectType) String() string {
	switch t {
	case ObjCommit:
		return "commit"
	case ObjTree:
		return "tree"
	case ObjBlob:
		return "blob"
	case ObjTag:
		return "tag"
	case objOfsDelta:
		return "ofs-delta"
	case objRefDelta:
		return "ref-delta"
	default:
		return "unknown"
	}
}

func objectTypeFromString(s string) ObjectType {
	switch s {
	case "commit":
		return ObjCommit
	case "tree":
		return ObjTree
	case "blob":
		return ObjBlob
	case "tag":
		return ObjTag
	default:
		return ObjNone
	}
}

// Object is a fully decoded git object: its declared type and raw content.
// Only commit objects are interpreted further; tree, blob and tag content
// passes through untouched.
type Object struct {
	Type ObjectType
	Data []byte
}

// maxDeltaDepth bounds delta-chain recursion so corrupt or malicious packs
// cannot recurse unboundedly.
const maxDeltaDepth = 50

// ReadObject locates id as a loose object or a packed object and returns its
// decoded content. The pack lookup only runs when no loose file exists: a
// loose object that fails to decode is corrupt and reported as such, never
// masked by a packed copy. Fails with ErrObjectNotFound when the id is
// absent from loose storage and from every loaded pack index.
func (r *Repository) ReadObject(id Hash) (Object, error) {
	obj, err := r.readLooseObject(id)
	if err == nil {
		return obj, nil
	}
	if !errors.Is(err, ErrObjectNotFound) {
		return Object{}, err
	}

	if loc, ok := r.objects[id]; ok {
		return r.readPackedObject(loc.pack, loc.offset, 0)
	}

	return Object{}, fmt.Errorf("%s: %w", id, ErrObjectNotFound)
}

// readLooseObject reads objects/xx/yyyy..., inflates the zlib stream, and
// splits off the "type size" header.
func (r *Repository) readLooseObject(id Hash) (Object, error) {
	path := "objects/" + string(id[:2]) + "/" + string(id[2:])
	compressed, err := r.store.ReadFile(path)
	if err != nil {
		return Object{}, fmt.Errorf("%s: %w", id, ErrObjectNotFound)
	}

	content, err := zlibInflate(compressed)
	if err != nil {
		return Object{}, fmt.Errorf("loose object %s: %w", id, err)
	}

	nullIdx := bytes.IndexByte(content, 0)
	if nullIdx == -1 {
		return Object{}, fmt.Errorf("loose object %s: missing header: %w", id, ErrCorruptObject)
	}

	header := string(content[:nullIdx])
	typeName, sizeStr, ok := strings.Cut(header, " ")
	if !ok {
		return Object{}, fmt.Errorf("loose object %s: bad header %q: %w", id, header, ErrCorruptObject)
	}
	objType := objectTypeFromString(typeName)
	if objType == ObjNone {
		return Object{}, fmt.Errorf("loose object %s: unknown type %q: %w", id, typeName, ErrCorruptObject)
	}

	body := content[nullIdx+1:]
	size, err := strconv.ParseInt(sizeStr, 10, 64)
	if err != nil || size != int64(len(body)) {
		return Object{}, fmt.Errorf("loose object %s: declared size %s, body %d: %w",
			id, sizeStr, len(body), ErrCorruptObject)
	}

	return Object{Type: objType, Data: body}, nil
}

// readPackedObject decodes the object stored at offset within a pack file,
// resolving delta chains recursively up to maxDeltaDepth.
func (r *Repository) readPackedObject(pack string, offset int64, depth int) (Object, error) {
	if depth > maxDeltaDepth {
		return Object{}, fmt.Errorf("%s at %d: %w", pack, offset, ErrDeltaChainTooDeep)
	}

	cacheKey := pack + ":" + strconv.FormatInt(offset, 10)
	if obj, ok := r.cache.Get(cacheKey); ok {
		return obj, nil
	}

	data, ok := r.packData[pack]
	if !ok {
		return Object{}, fmt.Errorf("pack %s not loaded: %w", pack, ErrObjectNotFound)
	}
	if offset < 0 || offset >= int64(len(data)) {
		return Object{}, fmt.Errorf("%s: offset %d out of range: %w", pack, offset, ErrCorruptObject)
	}

	objType, size, n, err := parseObjectHeader(data, int(offset))
	if err != nil {
		return Object{}, fmt.Errorf("%s at %d: %w", pack, offset, err)
	}
	pos := int(offset) + n

	var obj Object
	switch objType {
	case ObjCommit, ObjTree, ObjBlob, ObjTag:
		body, err := rawInflate(data[pos:], size)
		if err != nil {
			return Object{}, fmt.Errorf("%s at %d: %w", pack, offset, err)
		}
		obj = Object{Type: objType, Data: body}

	case objOfsDelta:
		backref, m, err := parseBaseOffset(data, pos)
		if err != nil {
			return Object{}, fmt.Errorf("%s at %d: %w", pack, offset, err)
		}
		delta, err := rawInflate(data[pos+m:], size)
		if err != nil {
			return Object{}, fmt.Errorf("%s at %d: delta payload: %w", pack, offset, err)
		}

		base, err := r.readPackedObject(pack, offset-backref, depth+1)
		if err != nil {
			return Object{}, fmt.Errorf("base of delta at %d: %w", offset, err)
		}
		result, err := applyDelta(base.Data, delta)
		if err != nil {
			return Object{}, fmt.Errorf("%s at %d: %w", pack, offset, err)
		}
		obj = Object{Type: base.Type, Data: result}

	case objRefDelta:
		if pos+20 > len(data) {
			return Object{}, fmt.Errorf("%s at %d: truncated base id: %w", pack, offset, ErrCorruptObject)
		}
		baseID := NewHashFromBytes([20]byte(data[pos : pos+20]))
		delta, err := rawInflate(data[pos+20:], size)
		if err != nil {
			return Object{}, fmt.Errorf("%s at %d: delta payload: %w", pack, offset, err)
		}

		// The base must be indexed by one of the loaded packs. A base
		// living in an unindexed pack or as a loose object is not
		// resolved; the lookup falls through to ErrObjectNotFound.
		loc, ok := r.objects[baseID]
		if !ok {
			return Object{}, fmt.Errorf("delta base %s: %w", baseID, ErrObjectNotFound)
		}
		base, err := r.readPackedObject(loc.pack, loc.offset, depth+1)
		if err != nil {
			return Object{}, fmt.Errorf("delta base %s: %w", baseID, err)
		}
		result, err := applyDelta(base.Data, delta)
		if err != nil {
			return Object{}, fmt.Errorf("%s at %d: %w", pack, offset, err)
		}
		obj = Object{Type: base.Type, Data: result}

	default:
		return Object{}, fmt.Errorf("%s at %d: unsupported object type %d: %w",
			pack, offset, objType, ErrCorruptObject)
	}

	r.cache.Add(cacheKey, obj)
	return obj, nil
}

// zlibInflate decompresses a zlib-wrapped stream (loose objects).
func zlibInflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptObject, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptObject, err)
	}
	return out, nil
}

// rawInflate decompresses a raw deflate stream (packed objects) and checks
// the result against the declared size.
func rawInflate(data []byte, expectedSize int64) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(data))
	defer fr.Close()

	out, err := io.ReadAll(fr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptObject, err)
	}
	if int64(len(out)) != expectedSize {
		return nil, fmt.Errorf("size mismatch: declared %d, got %d: %w",
			expectedSize, len(out), ErrCorruptObject)
	}
	return out, nil
}
