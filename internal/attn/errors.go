package attn

import "errors"

// Sentinel errors returned by the attention kernels. Callers match them
// with errors.Is.
var (
	// ErrShapeMismatch indicates that chunk or block dimensions disagree.
	// It is detected eagerly, before any state is mutated.
	ErrShapeMismatch = errors.New("attn: shape mismatch")

	// ErrEmptyAccumulator indicates Finalize was called before any chunk
	// was observed. The result would be 0/0, so this is an error rather
	// than a silent NaN.
	ErrEmptyAccumulator = errors.New("attn: no chunks observed")
)
