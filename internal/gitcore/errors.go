package gitcore

import "errors"

var (
	// ErrObjectNotFound is returned when an id is absent from loose storage
	// and from every loaded pack index.
	ErrObjectNotFound = errors.New("object not found")

	// ErrUnsupportedIndexVersion is returned for pack indices that are not
	// version 2.
	ErrUnsupportedIndexVersion = errors.New("unsupported pack index version")

	// ErrCorruptObject covers declared-size mismatches and unparseable
	// object headers.
	ErrCorruptObject = errors.New("corrupt object")

	// ErrCorruptDelta covers malformed delta instruction streams and
	// result-length mismatches.
	ErrCorruptDelta = errors.New("corrupt delta")

	// ErrDeltaChainTooDeep is returned when delta resolution exceeds the
	// recursion bound.
	ErrDeltaChainTooDeep = errors.New("delta chain too deep")

	// ErrMalformedHeader is returned when a varint runs past the end of the
	// available buffer.
	ErrMalformedHeader = errors.New("malformed header")

	// ErrNotACommit is returned when a branch tip resolves to a non-commit
	// object.
	ErrNotACommit = errors.New("not a commit")

	// ErrNoRefsFound means the repository has no HEAD and no refs, so no
	// default branch can be chosen.
	ErrNoRefsFound = errors.New("no refs found")

	// ErrEmptyCommitSet means the walk decoded zero commits.
	ErrEmptyCommitSet = errors.New("no commits found")
)
